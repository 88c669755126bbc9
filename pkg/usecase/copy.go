package usecase

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
)

const gitDir = ".git"

var ignoredFiles = map[string]bool{
	".DS_Store": true,
}

type copyItem struct {
	source      string
	destination string
	destRoot    string
}

// CopyRelease copies the files selected by the copy rules of the downstream into its clone.
// Copied files are recorded in target.Copied.
func CopyRelease(ctx context.Context, rc *model.ReleaseContext, target *model.SyncTarget) error {
	logger := ctxlog.From(ctx)

	items, err := planCopy(rc, target)
	if err != nil {
		return err
	}

	if target.Repo.Mode == model.SyncModeFull {
		cleared := make(map[string]bool)
		for _, item := range items {
			if cleared[item.destRoot] {
				continue
			}
			cleared[item.destRoot] = true
			if err := clearDestination(target.Dir, item.destRoot); err != nil {
				return err
			}
		}
	}

	for _, item := range items {
		copied, err := copyPath(item.source, item.destination)
		if err != nil {
			return err
		}
		target.Copied = append(target.Copied, copied...)
	}

	logger.Info("Copied release files", "repo", target.Repo.Name, "count", len(target.Copied))
	return nil
}

func planCopy(rc *model.ReleaseContext, target *model.SyncTarget) ([]copyItem, error) {
	var items []copyItem

	for _, rule := range target.Repo.Copy {
		pattern := rc.Config.Path(rc.Expand(rule.Source))
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid copy source", goerr.V("source", rule.Source))
		}
		if len(matches) == 0 {
			return nil, goerr.New("copy source matched nothing", goerr.V("repo", target.Repo.Name), goerr.V("source", rule.Source))
		}

		destRoot := filepath.Join(target.Dir, rc.Expand(rule.Destination))
		if !within(target.Dir, destRoot) {
			return nil, goerr.New("copy destination is outside of the clone",
				goerr.V("repo", target.Repo.Name),
				goerr.V("destination", rule.Destination),
			)
		}

		for _, match := range matches {
			base := filepath.Dir(match)
			if rule.Base != "" {
				base = rc.Config.Path(rc.Expand(rule.Base))
			}
			rel, err := filepath.Rel(base, match)
			if err != nil || !within(base, match) {
				return nil, goerr.New("copy source is outside of its base",
					goerr.V("source", match),
					goerr.V("base", base),
				)
			}

			items = append(items, copyItem{
				source:      match,
				destination: filepath.Join(destRoot, rel),
				destRoot:    destRoot,
			})
		}
	}

	return items, nil
}

// within reports whether path is root or below it
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// clearDestination removes dest. The clone root itself is emptied except for its .git directory.
func clearDestination(cloneDir, dest string) error {
	if filepath.Clean(cloneDir) != filepath.Clean(dest) {
		if err := os.RemoveAll(dest); err != nil {
			return goerr.Wrap(err, "failed to clear destination", goerr.V("path", dest))
		}
		return nil
	}

	entries, err := os.ReadDir(cloneDir)
	if err != nil {
		return goerr.Wrap(err, "failed to read clone", goerr.V("path", cloneDir))
	}
	for _, entry := range entries {
		if entry.Name() == gitDir {
			continue
		}
		if err := os.RemoveAll(filepath.Join(cloneDir, entry.Name())); err != nil {
			return goerr.Wrap(err, "failed to clear destination", goerr.V("path", entry.Name()))
		}
	}
	return nil
}

// copyPath copies a file or a directory tree and returns the destination paths of the copied files
func copyPath(src, dst string) ([]string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to stat copy source", goerr.V("path", src))
	}

	if !info.IsDir() {
		if ignoredFiles[info.Name()] {
			return nil, nil
		}
		if err := copyFile(src, dst, info.Mode().Perm()); err != nil {
			return nil, err
		}
		return []string{dst}, nil
	}

	var copied []string
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || ignoredFiles[d.Name()] {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}

		to := filepath.Join(dst, rel)
		if err := copyFile(path, to, fi.Mode().Perm()); err != nil {
			return err
		}
		copied = append(copied, to)
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to copy directory", goerr.V("source", src), goerr.V("destination", dst))
	}
	return copied, nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return goerr.Wrap(err, "failed to create directory", goerr.V("path", filepath.Dir(dst)))
	}

	in, err := os.Open(src)
	if err != nil {
		return goerr.Wrap(err, "failed to open file", goerr.V("path", src))
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return goerr.Wrap(err, "failed to create file", goerr.V("path", dst))
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return goerr.Wrap(err, "failed to copy file", goerr.V("source", src), goerr.V("destination", dst))
	}
	if err := out.Close(); err != nil {
		return goerr.Wrap(err, "failed to close file", goerr.V("path", dst))
	}
	return nil
}
