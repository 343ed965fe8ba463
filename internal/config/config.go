// Package config loads the layered xlkit configuration: built-in defaults,
// an optional global user config, an optional project config, and finally
// CLI overrides, matching the precedence tk's config.go documents.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// Transport selects how the tool surface is exposed. Out of scope for the
// core subsystems but carried through so callers can read it uniformly.
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportHTTP  Transport = "http"
)

// OutputProfile controls response verbosity for external tool projections.
type OutputProfile string

const (
	ProfileVerbose    OutputProfile = "verbose"
	ProfileTokenDense OutputProfile = "token-dense"
)

// Config is the full set of recognized options.
type Config struct {
	WorkspaceRoot        string   `json:"workspace_root"`
	ScreenshotDir        string   `json:"screenshot_dir,omitempty"`
	CacheCapacity        int      `json:"cache_capacity"`
	SupportedExtensions  []string `json:"supported_extensions"`
	SingleWorkbook       string   `json:"single_workbook,omitempty"`
	EnabledTools         []string `json:"enabled_tools,omitempty"`
	Transport            Transport `json:"transport"`
	HTTPBindAddress      string   `json:"http_bind_address,omitempty"`
	RecalcEnabled        bool     `json:"recalc_enabled"`
	RecalcBackend        string   `json:"recalc_backend"`
	VBAEnabled           bool     `json:"vba_enabled"`
	MaxConcurrentRecalcs int      `json:"max_concurrent_recalcs"`
	ToolTimeoutMS        int      `json:"tool_timeout_ms"`
	MaxResponseBytes     int      `json:"max_response_bytes"`
	MaxPayloadBytes      int      `json:"max_payload_bytes"`
	MaxCells             int      `json:"max_cells"`
	MaxItems             int      `json:"max_items"`
	OutputProfile        OutputProfile `json:"output_profile"`
	AllowOverwrite       bool     `json:"allow_overwrite"`
	ForkTTLSeconds       int      `json:"fork_ttl_seconds"`
}

// Default returns the built-in baseline configuration.
func Default() Config {
	return Config{
		CacheCapacity:        32,
		SupportedExtensions:  []string{".xlsx"},
		Transport:            TransportStdio,
		RecalcEnabled:        true,
		RecalcBackend:        "auto",
		MaxConcurrentRecalcs: 2,
		ToolTimeoutMS:        30000,
		MaxResponseBytes:     1 << 20,
		MaxPayloadBytes:      1 << 20,
		MaxCells:             50000,
		MaxItems:             5000,
		OutputProfile:        ProfileTokenDense,
		ForkTTLSeconds:       3600,
	}
}

const ConfigFileName = ".xlkit.json"

// Sources tracks which config files were loaded, for diagnostics.
type Sources struct {
	Global  string
	Project string
}

// LoadInput bundles the inputs Load needs to resolve precedence.
type LoadInput struct {
	WorkDir           string
	ConfigPathFlag    string
	WorkspaceOverride string
	Env               []string
}

// Load resolves configuration with precedence (highest wins): defaults,
// global user config, project config, CLI overrides.
func Load(in LoadInput) (Config, Sources, error) {
	cfg := Default()

	var sources Sources

	globalCfg, globalPath, err := loadGlobalConfig(in.Env)
	if err != nil {
		return Config{}, Sources{}, err
	}

	sources.Global = globalPath
	cfg = merge(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(in.WorkDir, in.ConfigPathFlag)
	if err != nil {
		return Config{}, Sources{}, err
	}

	sources.Project = projectPath
	cfg = merge(cfg, projectCfg)

	if in.WorkspaceOverride != "" {
		cfg.WorkspaceRoot = in.WorkspaceOverride
	}

	if err := validate(cfg); err != nil {
		return Config{}, Sources{}, err
	}

	return cfg, sources, nil
}

func globalConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok {
			return filepath.Join(after, "xlkit", "config.json")
		}
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "xlkit", "config.json")
	}

	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "xlkit", "config.json")
	}

	return ""
}

func loadGlobalConfig(env []string) (Config, string, error) {
	path := globalConfigPath(env)
	if path == "" {
		return Config{}, "", nil
	}

	cfg, loaded, err := loadConfigFile(path, false)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return cfg, path, nil
}

func loadProjectConfig(workDir, configPathFlag string) (Config, string, error) {
	var path string

	var mustExist bool

	if configPathFlag != "" {
		path = configPathFlag
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}

		mustExist = true
	} else {
		path = filepath.Join(workDir, ConfigFileName)
	}

	cfg, loaded, err := loadConfigFile(path, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return cfg, path, nil
}

// loadConfigFile reads and parses a hujson (JSON5-like: comments, trailing
// commas) config file. If mustExist is false, a missing file is not an
// error: (_, false, nil) is returned.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("config: read %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return Config{}, false, fmt.Errorf("config: parse %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, false, fmt.Errorf("config: decode %s: %w", path, err)
	}

	return cfg, true, nil
}

// merge overlays non-zero fields of override onto base.
func merge(base, override Config) Config {
	out := base

	if override.WorkspaceRoot != "" {
		out.WorkspaceRoot = override.WorkspaceRoot
	}

	if override.ScreenshotDir != "" {
		out.ScreenshotDir = override.ScreenshotDir
	}

	if override.CacheCapacity != 0 {
		out.CacheCapacity = override.CacheCapacity
	}

	if len(override.SupportedExtensions) != 0 {
		out.SupportedExtensions = override.SupportedExtensions
	}

	if override.SingleWorkbook != "" {
		out.SingleWorkbook = override.SingleWorkbook
	}

	if len(override.EnabledTools) != 0 {
		out.EnabledTools = override.EnabledTools
	}

	if override.Transport != "" {
		out.Transport = override.Transport
	}

	if override.HTTPBindAddress != "" {
		out.HTTPBindAddress = override.HTTPBindAddress
	}

	if override.RecalcEnabled {
		out.RecalcEnabled = true
	}

	if override.RecalcBackend != "" {
		out.RecalcBackend = override.RecalcBackend
	}

	out.VBAEnabled = base.VBAEnabled || override.VBAEnabled

	if override.MaxConcurrentRecalcs != 0 {
		out.MaxConcurrentRecalcs = override.MaxConcurrentRecalcs
	}

	if override.ToolTimeoutMS != 0 {
		out.ToolTimeoutMS = override.ToolTimeoutMS
	}

	if override.MaxResponseBytes != 0 {
		out.MaxResponseBytes = override.MaxResponseBytes
	}

	if override.MaxPayloadBytes != 0 {
		out.MaxPayloadBytes = override.MaxPayloadBytes
	}

	if override.MaxCells != 0 {
		out.MaxCells = override.MaxCells
	}

	if override.MaxItems != 0 {
		out.MaxItems = override.MaxItems
	}

	if override.OutputProfile != "" {
		out.OutputProfile = override.OutputProfile
	}

	out.AllowOverwrite = base.AllowOverwrite || override.AllowOverwrite

	if override.ForkTTLSeconds != 0 {
		out.ForkTTLSeconds = override.ForkTTLSeconds
	}

	return out
}

func validate(cfg Config) error {
	if cfg.CacheCapacity < 1 {
		return fmt.Errorf("config: cache_capacity must be >= 1, got %d", cfg.CacheCapacity)
	}

	if cfg.Transport != TransportStdio && cfg.Transport != TransportHTTP {
		return fmt.Errorf("config: transport must be %q or %q, got %q", TransportStdio, TransportHTTP, cfg.Transport)
	}

	if cfg.Transport == TransportHTTP && cfg.HTTPBindAddress == "" {
		return fmt.Errorf("config: http_bind_address is required when transport is %q", TransportHTTP)
	}

	if cfg.OutputProfile != ProfileVerbose && cfg.OutputProfile != ProfileTokenDense {
		return fmt.Errorf("config: output_profile must be %q or %q, got %q", ProfileVerbose, ProfileTokenDense, cfg.OutputProfile)
	}

	if cfg.MaxConcurrentRecalcs < 1 {
		return fmt.Errorf("config: max_concurrent_recalcs must be >= 1, got %d", cfg.MaxConcurrentRecalcs)
	}

	return nil
}
