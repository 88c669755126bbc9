package usecase_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
	"github.com/m-mizutani/podrelease/pkg/domain/types"
	"github.com/m-mizutani/podrelease/pkg/usecase"
)

func TestExtractPodspecVersion(t *testing.T) {
	tests := []struct {
		name    string
		podspec string
		want    string
		wantErr error
	}{
		{
			name:    "single quotes",
			podspec: "Pod::Spec.new do |spec|\n  spec.name = 'CardIO'\n  spec.version = '5.4.1'\nend\n",
			want:    "5.4.1",
		},
		{
			name:    "double quotes and other receiver",
			podspec: "Pod::Spec.new do |s|\n  s.version   =   \"5.4.1\"\nend\n",
			want:    "5.4.1",
		},
		{
			name:    "first declaration wins",
			podspec: "s.version = '1.0.0'\ns.version = '2.0.0'\n",
			want:    "1.0.0",
		},
		{
			name:    "dependency version is ignored",
			podspec: "s.dependency 'Foo', '~> 1.0'\ns.version = '3.1.0'\n",
			want:    "3.1.0",
		},
		{
			name:    "no version line",
			podspec: "Pod::Spec.new do |s|\n  s.name = 'CardIO'\nend\n",
			wantErr: types.ErrVersionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := usecase.ExtractPodspecVersion(strings.NewReader(tt.podspec))
			if tt.wantErr != nil {
				gt.True(t, errors.Is(err, tt.wantErr))
				return
			}
			gt.NoError(t, err)
			gt.Equal(t, got, tt.want)
		})
	}
}

func TestValidatePodspecVersion(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "CardIO.podspec"), "Pod::Spec.new do |spec|\n  spec.version = '5.4.1'\nend\n")

	t.Run("matching version", func(t *testing.T) {
		gt.NoError(t, usecase.ValidatePodspecVersion(path, "5.4.1"))
	})

	t.Run("mismatching version", func(t *testing.T) {
		err := usecase.ValidatePodspecVersion(path, "5.4.2")
		gt.True(t, errors.Is(err, types.ErrVersionMismatch))

		var gerr *goerr.Error
		gt.True(t, errors.As(err, &gerr))
		gt.Equal(t, gerr.Values()["actual"], any("5.4.1"))
		gt.Equal(t, gerr.Values()["expected"], any("5.4.2"))
	})

	t.Run("missing podspec", func(t *testing.T) {
		err := usecase.ValidatePodspecVersion(filepath.Join(t.TempDir(), "none.podspec"), "5.4.1")
		gt.Error(t, err)
	})
}

func TestVersionValidator(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Release", "CardIO.podspec"), "spec.version = '5.4.1'\n")

	cfg := &model.Config{SDK: model.SDKConfig{Name: "CardIO", Root: root, Podspec: "Release/CardIO.podspec"}}
	validate := usecase.NewVersionValidator()

	gt.NoError(t, validate(context.Background(), &model.ReleaseContext{Config: cfg, Release: model.Release{Version: "5.4.1"}}))

	err := validate(context.Background(), &model.ReleaseContext{Config: cfg, Release: model.Release{Version: "6.0.0"}})
	gt.True(t, errors.Is(err, types.ErrVersionMismatch))
}

func TestValidateTools(t *testing.T) {
	runner := newFakeRunner()
	runner.missing["appledoc"] = true

	t.Run("all tools found", func(t *testing.T) {
		gt.NoError(t, usecase.ValidateTools(runner, []string{"git", "pod"}))
	})

	t.Run("missing tool", func(t *testing.T) {
		err := usecase.ValidateTools(runner, []string{"git", "appledoc", "pod"})
		gt.True(t, errors.Is(err, types.ErrToolNotFound))
		gt.String(t, err.Error()).Contains("appledoc")
	})

	t.Run("hook uses required_tools", func(t *testing.T) {
		validate := usecase.NewToolValidator(runner)
		rc := &model.ReleaseContext{Config: &model.Config{SDK: model.SDKConfig{RequiredTools: []string{"appledoc"}}}}
		gt.True(t, errors.Is(validate(context.Background(), rc), types.ErrToolNotFound))
	})
}

func TestChangelogValidator(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "CHANGELOG.md"), "card.io iOS SDK release notes\n=============================\n\n5.4.1\n-----\n* fixed bug\n\n5.4.0\n-----\n* old fix\n")
	validate := usecase.NewChangelogValidator()

	t.Run("latest section matches", func(t *testing.T) {
		cfg := &model.Config{SDK: model.SDKConfig{Root: root, Changelog: "CHANGELOG.md"}}
		gt.NoError(t, validate(context.Background(), &model.ReleaseContext{Config: cfg, Release: model.Release{Version: "5.4.1"}}))
	})

	t.Run("older release", func(t *testing.T) {
		cfg := &model.Config{SDK: model.SDKConfig{Root: root, Changelog: "CHANGELOG.md"}}
		err := validate(context.Background(), &model.ReleaseContext{Config: cfg, Release: model.Release{Version: "5.4.0"}})
		gt.True(t, errors.Is(err, types.ErrVersionMismatch))
	})

	t.Run("missing changelog", func(t *testing.T) {
		cfg := &model.Config{SDK: model.SDKConfig{Root: root, Changelog: "missing.md"}}
		gt.Error(t, validate(context.Background(), &model.ReleaseContext{Config: cfg, Release: model.Release{Version: "5.4.1"}}))
	})

	t.Run("not configured", func(t *testing.T) {
		cfg := &model.Config{SDK: model.SDKConfig{Root: root}}
		gt.NoError(t, validate(context.Background(), &model.ReleaseContext{Config: cfg, Release: model.Release{Version: "9.9.9"}}))
	})
}
