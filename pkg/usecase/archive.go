package usecase

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/domain/interfaces"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
)

// ArchiveObjectName is the object name of an archived file
func ArchiveObjectName(prefix, version, file string) string {
	return path.Join(prefix, version, filepath.Base(file))
}

// ArchiveArtifacts uploads the files matching archive.paths to store
func ArchiveArtifacts(ctx context.Context, store interfaces.ArtifactStore, rc *model.ReleaseContext) (int, error) {
	cfg := rc.Config.Archive
	if cfg == nil {
		return 0, nil
	}
	if store == nil {
		return 0, goerr.New("artifact store is not configured", goerr.V("bucket", cfg.Bucket))
	}

	uploaded := 0
	for _, pattern := range cfg.Paths {
		matches, err := filepath.Glob(rc.Config.Path(rc.Expand(pattern)))
		if err != nil {
			return uploaded, goerr.Wrap(err, "invalid archive pattern", goerr.V("pattern", pattern))
		}
		if len(matches) == 0 {
			return uploaded, goerr.New("archive pattern matched no build output", goerr.V("pattern", pattern))
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return uploaded, goerr.Wrap(err, "failed to stat artifact", goerr.V("path", match))
			}
			if info.IsDir() {
				continue
			}

			object := ArchiveObjectName(cfg.Prefix, rc.Release.Version, match)
			if err := store.Upload(ctx, match, object); err != nil {
				return uploaded, err
			}
			uploaded++
		}
	}

	ctxlog.From(ctx).Info("Archived build outputs", "bucket", cfg.Bucket, "count", uploaded)
	return uploaded, nil
}
