// Package errs provides the structured error envelope returned at the CLI
// boundary, adapted from tk's sentinel-error-plus-fmt.Errorf style but
// carrying the {code, message, did_you_mean, try_this} shape the spec's
// error envelope requires.
package errs

import "fmt"

// Code is one of the recognized structured error codes.
type Code string

// Recognized error codes.
const (
	CodeSheetNotFound         Code = "SHEET_NOT_FOUND"
	CodeFileNotFound          Code = "FILE_NOT_FOUND"
	CodeInvalidArgument       Code = "INVALID_ARGUMENT"
	CodeInvalidEditSyntax     Code = "INVALID_EDIT_SYNTAX"
	CodeOutputFormatUnsupp    Code = "OUTPUT_FORMAT_UNSUPPORTED"
	CodeCommandFailed         Code = "COMMAND_FAILED"
	CodeNotFound              Code = "NOT_FOUND"
	CodeUnavailableCapability Code = "UNAVAILABLE_CAPABILITY"
	CodeTimeout               Code = "TIMEOUT"
)

// Error is the structured error envelope surfaced on CLI failure and
// carried internally so callers can match on Code without string-sniffing
// messages.
type Error struct {
	Code       Code
	Message    string
	Path       string // offending field/path, optional
	DidYouMean string
	TryThis    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Path)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds a structured error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a structured error with a formatted message.
func Newf(code Code, format string, a ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, a...)}
}

// WithPath returns a copy of e with Path set, mirroring the
// InvalidParamsError.with_path builder style from the original
// implementation's security module.
func (e *Error) WithPath(path string) *Error {
	cp := *e
	cp.Path = path

	return &cp
}

// WithHint returns a copy of e with DidYouMean and TryThis set.
func (e *Error) WithHint(didYouMean, tryThis string) *Error {
	cp := *e
	cp.DidYouMean = didYouMean
	cp.TryThis = tryThis

	return &cp
}
