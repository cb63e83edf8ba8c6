// Package config loads the user's settings from ~/.filegenie/config.yaml,
// creating a commented default on first run.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the full user-tunable surface.
type Config struct {
	// ConversationsDir is the folder of exported conversation .json files
	// to watch. Empty means it must come from the command line.
	ConversationsDir string `yaml:"conversations_dir"`

	// WorkdirRoot is where per-conversation working directories are created.
	WorkdirRoot string `yaml:"workdir_root"`

	// KeepBackups retains the .bak files left by destructive writes instead
	// of dropping them on success.
	KeepBackups bool `yaml:"keep_backups"`

	// AllowedExtensions limits which file extensions content writes may
	// target. The empty string allows extensionless files.
	AllowedExtensions []string `yaml:"allowed_extensions"`

	// CmdAllowlist holds the regular expressions a /cmd invocation must
	// fully match. An empty list refuses every command.
	CmdAllowlist []string `yaml:"cmd_allowlist"`

	// CmdTimeoutSeconds bounds each /cmd invocation.
	CmdTimeoutSeconds int `yaml:"cmd_timeout_seconds"`

	// PollSeconds is the polling interval used in single-file mode and when
	// filesystem notifications are unavailable.
	PollSeconds float64 `yaml:"poll_seconds"`

	JournalPath string `yaml:"journal_path"`
	LogPath     string `yaml:"log_path"`
	StatePath   string `yaml:"state_path"`
}

// Default returns the settings used when no config file exists.
func Default() Config {
	dir := Dir()
	return Config{
		WorkdirRoot: ".",
		KeepBackups: false,
		AllowedExtensions: []string{
			".py", ".js", ".json", ".md", ".txt", ".go", "",
		},
		CmdAllowlist: []string{
			`^pip(?:3)?\s+install\s+[A-Za-z0-9_.\-\[\]=<>,! ]+$`,
			`^python(?:3)?\s+-m\s+pip\s+install\s+[A-Za-z0-9_.\-\[\]=<>,! ]+$`,
			`^go\s+install\s+[A-Za-z0-9_.\-/@]+$`,
			`^go\s+get\s+[A-Za-z0-9_.\-/@]+$`,
		},
		CmdTimeoutSeconds: 60,
		PollSeconds:       2.0,
		JournalPath:       filepath.Join(dir, "journal.db"),
		LogPath:           filepath.Join(dir, "filegenie.log"),
		StatePath:         filepath.Join(dir, "state.json"),
	}
}

// Dir returns the config directory, ~/.filegenie by default. The FILEGENIE_DIR
// environment variable overrides it (used by tests).
func Dir() string {
	if dir := os.Getenv("FILEGENIE_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".filegenie"
	}
	return filepath.Join(home, ".filegenie")
}

// Path returns the config file location inside Dir.
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// EnsureDefault writes a default config file if none exists yet.
func EnsureDefault() error {
	path := Path()
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(Dir(), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	header := []byte("# filegenie configuration. Delete a key to fall back to its default.\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

// Load reads the user's config, layering it over the defaults so a partial
// file keeps default values for the keys it omits.
func Load() (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(Path())
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", Path(), err)
	}
	return cfg, nil
}
