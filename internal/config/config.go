package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Default values for optional settings.
const (
	DefaultUserDomain     = "localhost"
	DefaultCommitInterval = 10000
)

// Config holds the svn2git configuration
type Config struct {
	Rules          []string `toml:"rules" json:"rules,omitempty"`                     // rule files, applied in order
	IdentityMap    string   `toml:"identity_map" json:"identity_map,omitempty"`       // login -> "Name <email>" file
	RevisionsFile  string   `toml:"revisions_file" json:"revisions_file,omitempty"`   // optional allow-list of revisions
	OutputDir      string   `toml:"output_dir" json:"output_dir,omitempty"`           // where destination repositories live
	UserDomain     string   `toml:"user_domain" json:"user_domain,omitempty"`         // email domain for unmapped logins
	CommitInterval int      `toml:"commit_interval" json:"commit_interval,omitempty"` // fast-import checkpoint every N commits (0 = only on close)
	AddMetadata    bool     `toml:"add_metadata" json:"add_metadata,omitempty"`       // append svn path/revision to commit messages
	Progress       *bool    `toml:"progress" json:"progress,omitempty"`               // show a progress bar on a terminal
}

// ShowProgress reports whether the progress bar is enabled (default true).
func (c *Config) ShowProgress() bool {
	return c.Progress == nil || *c.Progress
}

// Default returns the default configuration
func Default() Config {
	return Config{
		UserDomain:     DefaultUserDomain,
		CommitInterval: DefaultCommitInterval,
	}
}

// ValidatePath checks that the path is absolute or starts with ~
// Returns error if path is relative (like "." or "..")
func ValidatePath(path, fieldName string) error {
	if path == "" {
		return nil // Empty is allowed (means not configured)
	}
	if path[0] == '~' {
		return nil
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s must be absolute or start with ~, got: %q", fieldName, path)
	}
	return nil
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	return path, nil
}

// Path returns the path to the config file
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "svn2git", "config.toml"), nil
}

// Load reads config from ~/.config/svn2git/config.toml
// Returns Default() if file doesn't exist (no error)
// Returns error only if file exists but is invalid
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads config from the given path. A missing file yields Default().
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes, validates and normalizes a TOML config document.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidatePath(cfg.OutputDir, "output_dir"); err != nil {
		return Default(), err
	}
	if cfg.CommitInterval < 0 {
		return Default(), fmt.Errorf("invalid commit_interval %d: must not be negative", cfg.CommitInterval)
	}

	// Expand ~ (shell doesn't expand in config files)
	for _, p := range []*string{&cfg.OutputDir, &cfg.IdentityMap, &cfg.RevisionsFile} {
		expanded, err := expandPath(*p)
		if err != nil {
			return Default(), err
		}
		*p = expanded
	}
	for i, r := range cfg.Rules {
		expanded, err := expandPath(r)
		if err != nil {
			return Default(), err
		}
		cfg.Rules[i] = expanded
	}

	if cfg.UserDomain == "" {
		cfg.UserDomain = DefaultUserDomain
	}

	return cfg, nil
}

const defaultConfig = `# svn2git configuration
#
# Every setting can be overridden on the command line; directory and file
# settings can also be overridden with SVN2GIT_* environment variables.

# Rule files deciding which svn path goes to which repository and branch.
# Applied in order; the first matching rule wins.
# rules = ["~/migration/project.rules.toml"]

# Map svn logins to git identities. One entry per line:
#   jdoe John Doe <jdoe@example.com>
#   jdoe = John Doe <jdoe@example.com>    (git-svn style)
# identity_map = "~/migration/authors.txt"

# Only export the revisions listed in this file (one number per line).
# revisions_file = ""

# Directory holding the destination repositories (default: current directory).
# Must be absolute or start with ~
# output_dir = "~/migration/git"

# Email domain for logins missing from the identity map.
user_domain = "localhost"

# Ask git fast-import to checkpoint every N commits so a crash loses little
# work. 0 only checkpoints when a repository is closed.
commit_interval = 10000

# Append "svn path=...; revision=..." to every commit message.
add_metadata = false

# Show a progress bar when stderr is a terminal.
progress = true
`

// DefaultConfig returns the commented default config file.
func DefaultConfig() string {
	return defaultConfig
}

// Init creates a default config file at ~/.config/svn2git/config.toml
// If force is true, overwrites existing file
// Returns the path to the created file
func Init(force bool) (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", errors.New("config file already exists: " + path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return "", err
	}

	return path, nil
}
