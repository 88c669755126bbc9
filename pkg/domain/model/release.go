package model

import "strings"

// Release is the descriptor of the release currently being processed
type Release struct {
	Version   string // Semantic version to release, e.g. 5.4.1
	Changelog string // Change notes for this version, one entry per line
}

// ReleaseContext is passed to every hook of a release run
type ReleaseContext struct {
	RunID   string  // Unique identifier of the run
	Release Release // Release being processed
	Config  *Config // Pipeline configuration
	Root    string  // Absolute path of the SDK repository
}

// Expand replaces {version} and {name} placeholders in s
func (rc *ReleaseContext) Expand(s string) string {
	name := ""
	if rc.Config != nil {
		name = rc.Config.SDK.Name
	}
	return strings.NewReplacer(
		"{version}", rc.Release.Version,
		"{name}", name,
	).Replace(s)
}

// ExpandAll applies Expand to each element of args
func (rc *ReleaseContext) ExpandAll(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = rc.Expand(arg)
	}
	return out
}

// Entries returns the non-blank lines of the release changelog
func (r Release) Entries() []string {
	var entries []string
	for _, line := range strings.Split(r.Changelog, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		entries = append(entries, line)
	}
	return entries
}

// GitHubRelease is the input of a GitHub release creation
type GitHubRelease struct {
	TagName string
	Name    string
	Body    string
}
