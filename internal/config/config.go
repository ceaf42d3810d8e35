package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DirName is the name of both the global (~/.atelier) and repo-local
// (.atelier) configuration directories.
const DirName = ".atelier"

// configFiles are looked up in order inside a config directory.
var configFiles = []string{"config.json", "config.yaml", "config.yml"}

// Config holds application configuration.
type Config struct {
	// MaxReferenceImages caps merged sref/cref lists when cards are combined.
	MaxReferenceImages int `json:"max_reference_images" yaml:"max_reference_images"`

	// EvolutionThresholds maps a tier name to the usage count needed to leave it.
	// Tiers not listed use the built-in thresholds.
	EvolutionThresholds map[string]int `json:"evolution_thresholds,omitempty" yaml:"evolution_thresholds,omitempty"`

	// DefaultFrameID is the frame applied to newly minted cards.
	DefaultFrameID string `json:"default_frame_id,omitempty" yaml:"default_frame_id,omitempty"`

	// LogMode selects the logger: "dev" (console), "prod" (JSON) or "off".
	LogMode string `json:"log_mode,omitempty" yaml:"log_mode,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.atelier/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty" yaml:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty" yaml:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" yaml:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" yaml:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty" yaml:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names to disable entirely.
	// Known types: "prompt", "history", "card", "hand", "workbench", "deck".
	DisabledTypes []string `json:"disabled_types,omitempty" yaml:"disabled_types,omitempty"`

	// WebBind is the interface the local HTTP server listens on.
	WebBind string `json:"web_bind,omitempty" yaml:"web_bind,omitempty"`

	// WebPort is the port of the local HTTP server.
	WebPort int `json:"web_port,omitempty" yaml:"web_port,omitempty"`

	// CaptureRatePerSec limits POST /captures requests per second.
	CaptureRatePerSec float64 `json:"capture_rate_per_sec,omitempty" yaml:"capture_rate_per_sec,omitempty"`

	// CaptureBurst is the burst size for the capture rate limiter.
	CaptureBurst int `json:"capture_burst,omitempty" yaml:"capture_burst,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxReferenceImages: 5,
		DefaultFrameID:     "default",
		LogMode:            "dev",
		WebBind:            "127.0.0.1",
		WebPort:            8787,
		CaptureRatePerSec:  5,
		CaptureBurst:       10,
	}
}

// Load loads configuration from baseDir (config.json, or config.yaml).
// Returns default config if no file exists.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.atelier.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(findConfigFile(baseDir))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// LoadWithRepo loads configuration from both global (~/.atelier) and repo (.atelier) directories.
// Repo config is found by walking upward from startDir to find the nearest .atelier config file.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(findConfigFile(globalDir))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then repo
	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .atelier config file.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		if path := findConfigFile(filepath.Join(dir, DirName)); path != "" {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// findConfigFile returns the first existing config file in dir, or "".
func findConfigFile(dir string) string {
	for _, name := range configFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the path is empty or the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.MaxReferenceImages = firstNonZero(overlay.MaxReferenceImages, base.MaxReferenceImages)
	result.DBMaxOpenConns = firstNonZero(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstNonZero(overlay.DBMaxIdleConns, base.DBMaxIdleConns)
	result.WebPort = firstNonZero(overlay.WebPort, base.WebPort)
	result.CaptureBurst = firstNonZero(overlay.CaptureBurst, base.CaptureBurst)
	result.CaptureRatePerSec = firstNonZero(overlay.CaptureRatePerSec, base.CaptureRatePerSec)
	result.DefaultFrameID = firstNonZero(strings.TrimSpace(overlay.DefaultFrameID), base.DefaultFrameID)
	result.LogMode = firstNonZero(strings.TrimSpace(overlay.LogMode), base.LogMode)
	result.WebBind = firstNonZero(strings.TrimSpace(overlay.WebBind), base.WebBind)

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Maps: overlay keys replace base keys
	if len(base.EvolutionThresholds)+len(overlay.EvolutionThresholds) > 0 {
		result.EvolutionThresholds = make(map[string]int)
		for k, v := range base.EvolutionThresholds {
			result.EvolutionThresholds[k] = v
		}
		for k, v := range overlay.EvolutionThresholds {
			result.EvolutionThresholds[k] = v
		}
	}

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstNonZero[T comparable](overlay, base T) T {
	var zero T
	if overlay != zero {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
