package config

import (
	"strings"
)

// Environment variables consulted by FromEnv.
const (
	EnvRules         = "SVN2GIT_RULES"
	EnvIdentityMap   = "SVN2GIT_IDENTITY_MAP"
	EnvRevisionsFile = "SVN2GIT_REVISIONS_FILE"
	EnvOutputDir     = "SVN2GIT_OUTPUT_DIR"
)

// Overrides holds settings coming from the environment or from flags.
// Zero values and nil pointers mean "not set" (keep the current value).
type Overrides struct {
	Rules          []string
	IdentityMap    string
	RevisionsFile  string
	OutputDir      string
	CommitInterval *int
	AddMetadata    *bool
	Progress       *bool
}

// FromEnv reads overrides from the environment through getenv.
func FromEnv(getenv func(string) string) Overrides {
	return Overrides{
		Rules:         SplitList(getenv(EnvRules)),
		IdentityMap:   getenv(EnvIdentityMap),
		RevisionsFile: getenv(EnvRevisionsFile),
		OutputDir:     getenv(EnvOutputDir),
	}
}

// Apply returns a copy of c with every set override applied.
// Precedence is expressed by call order: cfg.Apply(env).Apply(flags).
func (c Config) Apply(o Overrides) Config {
	if len(o.Rules) > 0 {
		c.Rules = append([]string(nil), o.Rules...)
	}
	if o.IdentityMap != "" {
		c.IdentityMap = o.IdentityMap
	}
	if o.RevisionsFile != "" {
		c.RevisionsFile = o.RevisionsFile
	}
	if o.OutputDir != "" {
		c.OutputDir = o.OutputDir
	}
	if o.CommitInterval != nil {
		c.CommitInterval = *o.CommitInterval
	}
	if o.AddMetadata != nil {
		c.AddMetadata = *o.AddMetadata
	}
	if o.Progress != nil {
		c.Progress = o.Progress
	}
	return c
}

// SplitList splits a comma separated list, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
