package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/podrelease/pkg/cli/config"
)

func TestRelease_Release(t *testing.T) {
	t.Run("inline changelog", func(t *testing.T) {
		cfg := &config.Release{Version: "5.4.1", Changelog: "* fixed bug"}
		release, err := cfg.Release()
		gt.NoError(t, err)
		gt.Equal(t, release.Version, "5.4.1")
		gt.Equal(t, release.Changelog, "* fixed bug")
	})

	t.Run("changelog file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.txt")
		gt.NoError(t, os.WriteFile(path, []byte("* from file\n"), 0644))

		release, err := (&config.Release{Version: "5.4.1", ChangelogFile: path}).Release()
		gt.NoError(t, err)
		gt.Equal(t, release.Changelog, "* from file\n")
	})

	t.Run("both sources", func(t *testing.T) {
		_, err := (&config.Release{Version: "5.4.1", Changelog: "x", ChangelogFile: "y"}).Release()
		gt.Error(t, err)
	})

	t.Run("missing version", func(t *testing.T) {
		_, err := (&config.Release{}).Release()
		gt.Error(t, err)
	})
}

func TestGitHub_NewClient(t *testing.T) {
	t.Run("no credentials", func(t *testing.T) {
		client, err := (&config.GitHub{}).NewClient()
		gt.NoError(t, err)
		gt.Value(t, client).Nil()
	})

	t.Run("token", func(t *testing.T) {
		client, err := (&config.GitHub{Token: "test-token"}).NewClient()
		gt.NoError(t, err)
		gt.Value(t, client).NotNil()
	})

	t.Run("app without key", func(t *testing.T) {
		_, err := (&config.GitHub{AppID: 1, InstallationID: 2}).NewClient()
		gt.Error(t, err)
	})
}
