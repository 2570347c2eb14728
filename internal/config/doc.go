// Package config handles loading and validation of svn2git configuration.
//
// Configuration is read from ~/.config/svn2git/config.toml with environment
// variable and command-line overrides.
//
// # Configuration Sources (highest priority first)
//
//   - Command-line flags
//   - SVN2GIT_RULES, SVN2GIT_IDENTITY_MAP, SVN2GIT_REVISIONS_FILE,
//     SVN2GIT_OUTPUT_DIR environment variables
//   - Config file settings
//   - Default values
//
// # Key Settings
//
//   - rules: rule files routing svn paths to repositories and branches
//   - identity_map: svn login to git identity table
//   - output_dir: directory holding the destination repositories
//   - commit_interval: fast-import checkpoint interval
//
// # Path Validation
//
// output_dir must be absolute or start with ~ (no relative paths like "."
// or "..") to avoid confusion about the working directory.
package config
