package config

import (
	"os"
	"path/filepath"

	"github.com/dshills/speedmark/internal/config/loader"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SPEEDMARK_"

// envMapping maps environment variables to settings paths.
func envMapping() map[string]string {
	return map[string]string{
		EnvPrefix + "ENABLED":            "enabled",
		EnvPrefix + "AUTO_PROCESS":       "auto_process",
		EnvPrefix + "AUTO_PROCESS_DELAY": "auto_process_delay",
		EnvPrefix + "EXCLUDED_FOLDERS":   "excluded_folders",
		EnvPrefix + "MIN_PROCESS_LENGTH": "min_process_length",
		EnvPrefix + "LOG_LEVEL":          "log_level",
		EnvPrefix + "HIGHLIGHT_STYLE":    "highlight.style",
		EnvPrefix + "HIGHLIGHT_COLOR":    "highlight.color",
		EnvPrefix + "INTERVAL_TYPE":      "highlight.interval_type",
		EnvPrefix + "INTERVAL_VALUE":     "highlight.interval_value",
	}
}

// LoadOptions selects the layers Load reads.
type LoadOptions struct {
	// Path is the settings file. Empty means DefaultPath.
	Path string
	// FS reads the settings file. Nil means the OS file system.
	FS loader.FileSystem
	// Env looks up environment variables. Nil means os.LookupEnv.
	Env func(string) (string, bool)
	// Flags holds values set on the command line, keyed by settings path
	// in nested-map form.
	Flags map[string]any
}

// DefaultPath returns the settings file location under the user config
// directory, or "" if it cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "speedmark", "config.toml")
}

// Load builds settings from defaults, the settings file, the environment
// and flags, in increasing precedence, then normalizes them. Warnings
// describe values that had to be adjusted.
func Load(opts LoadOptions) (Settings, []string, error) {
	path := opts.Path
	if path == "" {
		path = DefaultPath()
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = loader.DefaultFS()
	}

	env := loader.NewEnvLoader(envMapping()).ListPath("excluded_folders")
	if opts.Env != nil {
		env.WithLookup(opts.Env)
	}

	merged, err := loader.Merge(
		loader.NewTOMLLoaderWithFS(fsys, path),
		env,
		loader.MapLoader(opts.Flags),
	)
	if err != nil {
		return Settings{}, nil, err
	}

	s := Default()
	if err := loader.Decode(merged, &s); err != nil {
		return Settings{}, nil, err
	}
	warnings := s.Normalize()
	return s, warnings, nil
}

// Marshal renders settings as TOML, suitable for a settings file.
func Marshal(s Settings) ([]byte, error) {
	return loader.Encode(s)
}
