package usecase

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/domain/interfaces"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
	"github.com/m-mizutani/podrelease/pkg/domain/types"
)

// versionDeclaration matches lines such as `spec.version = '5.4.1'`
var versionDeclaration = regexp.MustCompile(`^\s*[A-Za-z_]\w*\.version\s*=\s*['"]`)

// ExtractPodspecVersion returns the quoted value of the first version declaration in r
func ExtractPodspecVersion(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !versionDeclaration.MatchString(line) {
			continue
		}

		start := strings.IndexAny(line, `'"`)
		end := strings.IndexByte(line[start+1:], line[start])
		if end < 0 {
			continue
		}
		return line[start+1 : start+1+end], nil
	}
	if err := scanner.Err(); err != nil {
		return "", goerr.Wrap(err, "failed to read podspec")
	}

	return "", types.ErrVersionNotFound
}

// ValidatePodspecVersion checks the podspec at path declares expected
func ValidatePodspecVersion(path, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return goerr.Wrap(err, "failed to open podspec", goerr.V("path", path))
	}
	defer f.Close()

	actual, err := ExtractPodspecVersion(f)
	if err != nil {
		return goerr.Wrap(err, "failed to find podspec version", goerr.V("path", path))
	}

	if actual != expected {
		return goerr.Wrap(types.ErrVersionMismatch, "podspec version differs from release version",
			goerr.V("path", path),
			goerr.V("expected", expected),
			goerr.V("actual", actual),
		)
	}

	return nil
}

// NewVersionValidator creates a hook comparing the SDK podspec with the release version
func NewVersionValidator() interfaces.ValidateHook {
	return func(ctx context.Context, rc *model.ReleaseContext) error {
		path := rc.Config.Path(rc.Config.SDK.Podspec)
		if err := ValidatePodspecVersion(path, rc.Release.Version); err != nil {
			ctxlog.From(ctx).Error("Podspec version validation failed",
				"podspec", path,
				"expected", rc.Release.Version,
				"error", err,
			)
			return err
		}

		ctxlog.From(ctx).Info("Podspec version matches release", "podspec", path, "version", rc.Release.Version)
		return nil
	}
}

// ValidateTools checks every tool resolves on the search path
func ValidateTools(runner interfaces.CommandRunner, tools []string) error {
	for _, tool := range tools {
		if _, err := runner.LookPath(tool); err != nil {
			if !errors.Is(err, types.ErrToolNotFound) {
				return goerr.Wrap(types.ErrToolNotFound, tool, goerr.V("tool", tool), goerr.V("cause", err.Error()))
			}
			return err
		}
	}
	return nil
}

// NewToolValidator creates a hook checking sdk.required_tools
func NewToolValidator(runner interfaces.CommandRunner) interfaces.ValidateHook {
	return func(ctx context.Context, rc *model.ReleaseContext) error {
		if err := ValidateTools(runner, rc.Config.SDK.RequiredTools); err != nil {
			ctxlog.From(ctx).Error("Required tool is missing", "error", err)
			return err
		}
		ctxlog.From(ctx).Debug("Required tools found", "tools", rc.Config.SDK.RequiredTools)
		return nil
	}
}

// NewChangelogValidator creates a hook comparing the latest sdk.changelog section with the release version
func NewChangelogValidator() interfaces.ValidateHook {
	return func(ctx context.Context, rc *model.ReleaseContext) error {
		if rc.Config.SDK.Changelog == "" {
			return nil
		}
		path := rc.Config.Path(rc.Config.SDK.Changelog)

		latest, err := ReadLatestRelease(path)
		if err != nil {
			return err
		}
		if latest.Version != rc.Release.Version {
			return goerr.Wrap(types.ErrVersionMismatch, "latest changelog version differs from release version",
				goerr.V("path", path),
				goerr.V("expected", rc.Release.Version),
				goerr.V("actual", latest.Version),
			)
		}

		ctxlog.From(ctx).Info("Changelog version matches release", "changelog", path, "version", latest.Version)
		return nil
	}
}
