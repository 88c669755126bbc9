package model

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

// PublishMode selects how the SDK is pushed to the package index
type PublishMode string

const (
	PublishModeNone       PublishMode = "none"
	PublishModeCommand    PublishMode = "command"
	PublishModeDownstream PublishMode = "downstream"
)

// SyncPolicy decides what happens when one downstream repository fails
type SyncPolicy string

const (
	// SyncPolicyContinue attempts every repository and reports all failures at the end
	SyncPolicyContinue SyncPolicy = "continue"
	// SyncPolicyAbort stops at the first failing repository
	SyncPolicyAbort SyncPolicy = "abort"
)

const (
	DefaultChangelog       = "CHANGELOG.md"
	DefaultVersionEnv      = "VERSION"
	DefaultWaitInterval    = 30 * time.Second
	DefaultWaitMaxAttempts = 60
)

// Duration is a time.Duration decoded from strings such as "30s"
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return goerr.Wrap(err, "invalid duration", goerr.V("value", string(text)))
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config is the pipeline layout read from release.toml
type Config struct {
	SDK        SDKConfig        `toml:"sdk"`
	Build      BuildConfig      `toml:"build"`
	Archive    *ArchiveConfig   `toml:"archive"`
	Publish    PublishConfig    `toml:"publish"`
	Wait       WaitConfig       `toml:"wait"`
	Sync       SyncConfig       `toml:"sync"`
	Strings    *StringsConfig   `toml:"strings"`
	Downstream []DownstreamRepo `toml:"downstream"`
}

// SDKConfig describes the SDK repository being released
type SDKConfig struct {
	Name          string   `toml:"name"`
	Root          string   `toml:"root"`
	Podspec       string   `toml:"podspec"`
	Changelog     string   `toml:"changelog"`
	RequiredTools []string `toml:"required_tools"`
}

// BuildConfig describes the build script invocation
type BuildConfig struct {
	Command    []string `toml:"command"`
	Dir        string   `toml:"dir"`
	VersionEnv string   `toml:"version_env"`
}

// ArchiveConfig describes where build outputs are archived
type ArchiveConfig struct {
	Bucket string   `toml:"bucket"`
	Prefix string   `toml:"prefix"`
	Paths  []string `toml:"paths"`
}

// PublishConfig describes how the podspec reaches the package index
type PublishConfig struct {
	Mode       PublishMode `toml:"mode"`
	Downstream string      `toml:"downstream"`
	Manifest   string      `toml:"manifest"`
	Lint       []string    `toml:"lint"`
	Push       []string    `toml:"push"`
}

// WaitConfig describes the availability polling after publishing
type WaitConfig struct {
	URL         string   `toml:"url"`
	Interval    Duration `toml:"interval"`
	MaxAttempts int      `toml:"max_attempts"`
}

// SyncConfig holds settings shared by all downstream repositories
type SyncConfig struct {
	Policy    SyncPolicy `toml:"policy"`
	Workspace string     `toml:"workspace"`
}

// StringsConfig enables .strings validation before building
type StringsConfig struct {
	Dir             string `toml:"dir"`
	ExpectedKeysDir string `toml:"expected_keys_dir"`
}

// LoadConfig reads, defaults and validates a TOML pipeline configuration
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load config", goerr.V("path", path))
	}

	if !filepath.IsAbs(cfg.SDK.Root) {
		cfg.SDK.Root = filepath.Join(filepath.Dir(path), cfg.SDK.Root)
	}
	root, err := filepath.Abs(cfg.SDK.Root)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve SDK root", goerr.V("root", cfg.SDK.Root))
	}
	cfg.SDK.Root = root

	return cfg, nil
}

// ParseConfig decodes TOML data into a Config with defaults applied
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse config")
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SDK.Root == "" {
		c.SDK.Root = "."
	}
	if c.SDK.Podspec == "" && c.SDK.Name != "" {
		c.SDK.Podspec = filepath.Join("Release", c.SDK.Name+".podspec")
	}
	if c.Build.VersionEnv == "" {
		c.Build.VersionEnv = DefaultVersionEnv
	}
	if c.Publish.Mode == "" {
		c.Publish.Mode = PublishModeNone
	}
	if c.Wait.Interval == 0 {
		c.Wait.Interval = Duration(DefaultWaitInterval)
	}
	if c.Wait.MaxAttempts == 0 {
		c.Wait.MaxAttempts = DefaultWaitMaxAttempts
	}
	if c.Sync.Policy == "" {
		c.Sync.Policy = SyncPolicyContinue
	}
	for i := range c.Downstream {
		c.Downstream[i].applyDefaults()
	}
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	if c.SDK.Name == "" {
		return goerr.New("sdk.name is required")
	}

	switch c.Publish.Mode {
	case PublishModeNone:
	case PublishModeCommand:
		if len(c.Publish.Push) == 0 {
			return goerr.New("publish.push is required for command mode")
		}
	case PublishModeDownstream:
		if len(c.Publish.Push) == 0 {
			return goerr.New("publish.push is required for downstream mode")
		}
		if c.FindDownstream(c.Publish.Downstream) == nil {
			return goerr.New("publish.downstream does not name a configured downstream",
				goerr.V("downstream", c.Publish.Downstream))
		}
	default:
		return goerr.New("unknown publish mode", goerr.V("mode", c.Publish.Mode))
	}

	if c.Wait.MaxAttempts < 0 {
		return goerr.New("wait.max_attempts must not be negative", goerr.V("max_attempts", c.Wait.MaxAttempts))
	}
	if c.Wait.Interval < 0 {
		return goerr.New("wait.interval must not be negative")
	}

	switch c.Sync.Policy {
	case SyncPolicyContinue, SyncPolicyAbort:
	default:
		return goerr.New("unknown sync policy", goerr.V("policy", c.Sync.Policy))
	}

	if c.Archive != nil && c.Archive.Bucket == "" {
		return goerr.New("archive.bucket is required when [archive] is set")
	}

	if c.Strings != nil && (c.Strings.Dir == "" || c.Strings.ExpectedKeysDir == "") {
		return goerr.New("strings.dir and strings.expected_keys_dir are required when [strings] is set")
	}

	seen := make(map[string]bool)
	for _, repo := range c.Downstream {
		if err := repo.Validate(); err != nil {
			return err
		}
		if seen[repo.Name] {
			return goerr.New("duplicate downstream name", goerr.V("name", repo.Name))
		}
		seen[repo.Name] = true
	}

	return nil
}

// FindDownstream returns the downstream repository with the given name or nil
func (c *Config) FindDownstream(name string) *DownstreamRepo {
	for i := range c.Downstream {
		if c.Downstream[i].Name == name {
			return &c.Downstream[i]
		}
	}
	return nil
}

// Path resolves p relative to the SDK root
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.SDK.Root, p)
}
