package usecase

import (
	"context"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/domain/interfaces"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
)

// headerTitle matches the first comment line of a header, e.g. `//  CardIO.h`
var headerTitle = regexp.MustCompile(`^(//\s+)\S+\.h\s*$`)

// NewSubstituteVersionHook creates a hook rewriting the version_files of a downstream clone
func NewSubstituteVersionHook() interfaces.PostCopyHook {
	return func(ctx context.Context, rc *model.ReleaseContext, target *model.SyncTarget) error {
		for _, vf := range target.Repo.VersionFiles {
			path := filepath.Join(target.Dir, vf.Path)
			if !within(target.Dir, path) {
				return goerr.New("version file is outside of the clone", goerr.V("path", vf.Path))
			}

			n, err := SubstituteVersion(path, vf, rc.Release.Version)
			if err != nil {
				return err
			}
			ctxlog.From(ctx).Debug("Substituted version", "repo", target.Repo.Name, "path", vf.Path, "count", n)
		}
		return nil
	}
}

// SubstituteVersion replaces the first capture group of every match of vf.Pattern in path with version
func SubstituteVersion(path string, vf model.VersionFile, version string) (int, error) {
	re, err := vf.Regexp()
	if err != nil {
		return 0, err
	}

	count := 0
	err = rewriteLines(path, func(line string, w io.Writer) error {
		locs := re.FindAllStringSubmatchIndex(line, -1)
		var b strings.Builder
		last := 0
		for _, loc := range locs {
			if loc[2] < 0 {
				continue
			}
			b.WriteString(line[last:loc[2]])
			b.WriteString(version)
			last = loc[3]
			count++
		}
		b.WriteString(line[last:])
		_, err := io.WriteString(w, b.String())
		return err
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to substitute version", goerr.V("path", path))
	}
	if count == 0 {
		return 0, goerr.New("version pattern did not match", goerr.V("path", path), goerr.V("pattern", vf.Pattern))
	}
	return count, nil
}

// NewUpdateChangelogHook creates a hook adding the release notes to the changelog of a downstream clone
func NewUpdateChangelogHook() interfaces.PostCopyHook {
	return func(ctx context.Context, rc *model.ReleaseContext, target *model.SyncTarget) error {
		cl := target.Repo.Changelog
		if cl == nil {
			return goerr.New("changelog is not configured", goerr.V("repo", target.Repo.Name))
		}

		path := filepath.Join(target.Dir, cl.Path)
		if err := UpdateChangelog(path, *cl, rc.Release); err != nil {
			return goerr.Wrap(err, "failed to update downstream changelog", goerr.V("repo", target.Repo.Name))
		}
		ctxlog.From(ctx).Info("Updated changelog", "repo", target.Repo.Name, "path", cl.Path)
		return nil
	}
}

// NewStampHeadersHook creates a hook writing the release version into the title comment of copied headers
func NewStampHeadersHook() interfaces.PostCopyHook {
	return func(ctx context.Context, rc *model.ReleaseContext, target *model.SyncTarget) error {
		stamped := 0
		for _, path := range target.Copied {
			if filepath.Ext(path) != ".h" {
				continue
			}
			if err := StampHeader(path, rc.Release.Version); err != nil {
				return err
			}
			stamped++
		}
		ctxlog.From(ctx).Debug("Stamped headers", "repo", target.Repo.Name, "count", stamped)
		return nil
	}
}

// StampHeader inserts `// Version <version>` and `//` after the `// Name.h` title comment of path
func StampHeader(path, version string) error {
	done := false
	err := rewriteLines(path, func(line string, w io.Writer) error {
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
		if done {
			return nil
		}
		m := headerTitle.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
		if m == nil {
			return nil
		}
		done = true

		if !strings.HasSuffix(line, "\n") {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, m[1]+"Version "+version+"\n//\n")
		return err
	})
	if err != nil {
		return goerr.Wrap(err, "failed to stamp header", goerr.V("path", path))
	}
	return nil
}
