package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/podrelease/pkg/cli/config"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "release.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestPipelineConfig_BuildWithoutArchive(t *testing.T) {
	path := writeConfig(t, `
[sdk]
name = "CardIO"

[archive]
bucket = "podrelease-artifacts"
paths = ["Release/*.zip"]
`)
	cfg := pipelineConfig{
		layout:  config.Pipeline{ConfigPath: path},
		archive: config.Archive{CredentialsFile: filepath.Join(t.TempDir(), "missing.json")},
	}

	pipeline, loaded, cleanup, err := cfg.build(context.Background(), false)
	gt.NoError(t, err)
	defer cleanup()
	gt.Value(t, pipeline).NotNil()
	gt.Equal(t, loaded.Archive.Bucket, "podrelease-artifacts")
}

func TestResolveRelease(t *testing.T) {
	root := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(root, "CHANGELOG.md"),
		[]byte("Release notes\n=============\n\n5.4.1\n-----\n* fixed bug\n\n5.4.0\n-----\n* old fix\n"), 0644))
	cfg := &model.Config{SDK: model.SDKConfig{Root: root, Changelog: "CHANGELOG.md"}}

	t.Run("version and notes from the changelog", func(t *testing.T) {
		release, err := resolveRelease(context.Background(), &config.Release{}, cfg)
		gt.NoError(t, err)
		gt.Equal(t, release, model.Release{Version: "5.4.1", Changelog: "* fixed bug"})
	})

	t.Run("notes from the command line win", func(t *testing.T) {
		release, err := resolveRelease(context.Background(), &config.Release{Changelog: "* other"}, cfg)
		gt.NoError(t, err)
		gt.Equal(t, release, model.Release{Version: "5.4.1", Changelog: "* other"})
	})

	t.Run("explicit version", func(t *testing.T) {
		release, err := resolveRelease(context.Background(), &config.Release{Version: "6.0.0"}, cfg)
		gt.NoError(t, err)
		gt.Equal(t, release.Version, "6.0.0")
	})

	t.Run("no version and no changelog", func(t *testing.T) {
		_, err := resolveRelease(context.Background(), &config.Release{}, &model.Config{})
		gt.Error(t, err)
	})
}
