package recalc

import "github.com/xlkit/xlkit/internal/errs"

// Select resolves a configured backend token ("auto" or a specific
// backend name) to a concrete Backend, without the caller ever branching
// on which one it got. Only ExcelizeBackend ships today; the indirection exists so
// an external-process backend can be added later without callers
// changing.
func Select(token string) (Backend, error) {
	candidates := []Backend{NewExcelizeBackend()}

	if token == "" || token == "auto" {
		for _, b := range candidates {
			if b.IsAvailable() {
				return b, nil
			}
		}

		return nil, errs.New(errs.CodeUnavailableCapability, "no recalc backend is available")
	}

	for _, b := range candidates {
		if b.Name() == token {
			if !b.IsAvailable() {
				return nil, errs.Newf(errs.CodeUnavailableCapability, "recalc backend %q is not available", token)
			}

			return b, nil
		}
	}

	return nil, errs.Newf(errs.CodeInvalidArgument, "unknown recalc backend %q", token).WithPath("recalc_backend")
}
