package model

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// SyncMode decides whether destinations are cleared before copying
type SyncMode string

const (
	// SyncModeFull removes each copy destination before copying into it
	SyncModeFull SyncMode = "full"
	// SyncModePartial overwrites matched files only
	SyncModePartial SyncMode = "partial"
)

// Names of the built-in post-copy hooks
const (
	HookSubstituteVersion = "substitute_version"
	HookUpdateChangelog   = "update_changelog"
	HookStampHeaders      = "stamp_headers"
)

// DownstreamRepo is a repository that receives a copy of the release
type DownstreamRepo struct {
	Name          string           `toml:"name"`
	URL           string           `toml:"url"`
	Branch        string           `toml:"branch"`
	Mode          SyncMode         `toml:"mode"`
	Copy          []CopyRule       `toml:"copy"`
	PostCopy      []string         `toml:"post_copy"`
	Build         [][]string       `toml:"build"`
	VersionFiles  []VersionFile    `toml:"version_files"`
	Changelog     *ChangelogTarget `toml:"changelog"`
	Commit        bool             `toml:"commit"`
	Push          bool             `toml:"push"`
	Tag           bool             `toml:"tag"`
	Release       bool             `toml:"release"`
	TagFormat     string           `toml:"tag_format"`
	CommitMessage string           `toml:"commit_message"`
}

// SyncTarget is a downstream clone being updated
type SyncTarget struct {
	Repo   *DownstreamRepo
	Dir    string   // Clone directory
	Copied []string // Absolute paths of the files copied into Dir
}

// CopyRule copies every match of Source into Destination, keeping the path relative to Base
type CopyRule struct {
	Source      string `toml:"source"`
	Base        string `toml:"base"`
	Destination string `toml:"destination"`
}

// VersionFile is a file whose version string is rewritten on sync.
// Pattern is a regular expression whose first capture group is replaced by the version.
type VersionFile struct {
	Path    string `toml:"path"`
	Pattern string `toml:"pattern"`
}

// Regexp compiles Pattern and checks it has a capture group
func (v VersionFile) Regexp() (*regexp.Regexp, error) {
	re, err := regexp.Compile(v.Pattern)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid version pattern", goerr.V("path", v.Path), goerr.V("pattern", v.Pattern))
	}
	if re.NumSubexp() < 1 {
		return nil, goerr.New("version pattern needs a capture group", goerr.V("path", v.Path), goerr.V("pattern", v.Pattern))
	}
	return re, nil
}

// ChangelogTarget is the downstream changelog updated by the update_changelog hook
type ChangelogTarget struct {
	Path        string `toml:"path"`
	Prefix      string `toml:"prefix"`
	TitleAnchor string `toml:"title_anchor"`
	Placeholder string `toml:"placeholder"`
}

const (
	DefaultBranch        = "master"
	DefaultTagFormat     = "{version}"
	DefaultCommitMessage = "Release {version}"
	DefaultPlaceholder   = "TODO"
)

func (r *DownstreamRepo) applyDefaults() {
	if r.Branch == "" {
		r.Branch = DefaultBranch
	}
	if r.Mode == "" {
		r.Mode = SyncModePartial
	}
	if r.TagFormat == "" {
		r.TagFormat = DefaultTagFormat
	}
	if r.CommitMessage == "" {
		r.CommitMessage = DefaultCommitMessage
	}
	if r.Changelog != nil {
		r.Changelog.ApplyDefaults()
	}
}

// ApplyDefaults fills unset fields of the changelog target
func (c *ChangelogTarget) ApplyDefaults() {
	if c.Path == "" {
		c.Path = DefaultChangelog
	}
	if c.Placeholder == "" {
		c.Placeholder = DefaultPlaceholder
	}
}

// Validate checks a single downstream repository definition
func (r *DownstreamRepo) Validate() error {
	if r.Name == "" {
		return goerr.New("downstream.name is required")
	}
	if r.URL == "" {
		return goerr.New("downstream.url is required", goerr.V("name", r.Name))
	}

	switch r.Mode {
	case SyncModeFull, SyncModePartial:
	default:
		return goerr.New("unknown sync mode", goerr.V("name", r.Name), goerr.V("mode", r.Mode))
	}

	for _, rule := range r.Copy {
		if rule.Source == "" {
			return goerr.New("copy.source is required", goerr.V("name", r.Name))
		}
	}

	for _, hook := range r.PostCopy {
		switch hook {
		case HookSubstituteVersion:
			if len(r.VersionFiles) == 0 {
				return goerr.New("substitute_version requires version_files", goerr.V("name", r.Name))
			}
			for _, vf := range r.VersionFiles {
				if _, err := vf.Regexp(); err != nil {
					return goerr.Wrap(err, "invalid version file", goerr.V("name", r.Name))
				}
			}
		case HookUpdateChangelog:
			if r.Changelog == nil || r.Changelog.TitleAnchor == "" {
				return goerr.New("update_changelog requires changelog.title_anchor", goerr.V("name", r.Name))
			}
		case HookStampHeaders:
		default:
			return goerr.New("unknown post_copy hook", goerr.V("name", r.Name), goerr.V("hook", hook))
		}
	}

	if (r.Push || r.Tag) && !r.Commit {
		return goerr.New("push and tag require commit", goerr.V("name", r.Name))
	}
	if r.Release && !r.Tag {
		return goerr.New("release requires tag", goerr.V("name", r.Name))
	}
	if r.Release {
		if _, _, err := r.GitHubRepository(); err != nil {
			return err
		}
	}

	return nil
}

// GitHubRepository extracts owner and repository name from the repository URL.
// Both https://github.com/owner/repo(.git) and git@github.com:owner/repo(.git) are accepted.
func (r *DownstreamRepo) GitHubRepository() (string, string, error) {
	path := ""
	if rest, ok := strings.CutPrefix(r.URL, "git@github.com:"); ok {
		path = rest
	} else {
		u, err := url.Parse(r.URL)
		if err != nil {
			return "", "", goerr.Wrap(err, "invalid downstream url", goerr.V("url", r.URL))
		}
		if u.Host != "github.com" {
			return "", "", goerr.New("downstream url is not a GitHub repository", goerr.V("url", r.URL))
		}
		path = strings.TrimPrefix(u.Path, "/")
	}

	path = strings.TrimSuffix(strings.TrimSuffix(path, "/"), ".git")
	owner, repo, ok := strings.Cut(path, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", goerr.New("cannot find owner and repository in url", goerr.V("url", r.URL))
	}
	return owner, repo, nil
}
