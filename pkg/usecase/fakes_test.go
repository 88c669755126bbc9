package usecase_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/podrelease/pkg/domain/model"
	"github.com/m-mizutani/podrelease/pkg/domain/types"
)

type fakeRunner struct {
	mu       sync.Mutex
	commands []model.Command
	missing  map[string]bool
	failures map[string]bool // keyed by Command.String()
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		missing:  make(map[string]bool),
		failures: make(map[string]bool),
	}
}

func (r *fakeRunner) Run(ctx context.Context, cmd *model.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, *cmd)
	if r.failures[cmd.String()] {
		return goerr.Wrap(types.ErrCommandFailed, cmd.String(), goerr.V("exit_code", 1))
	}
	return nil
}

func (r *fakeRunner) Output(ctx context.Context, cmd *model.Command) (string, error) {
	return "", r.Run(ctx, cmd)
}

func (r *fakeRunner) LookPath(name string) (string, error) {
	if r.missing[name] {
		return "", goerr.Wrap(types.ErrToolNotFound, name, goerr.V("tool", name))
	}
	return "/usr/bin/" + name, nil
}

func (r *fakeRunner) lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, cmd := range r.commands {
		out = append(out, cmd.String())
	}
	return out
}

// fakeGit clones by writing the files of seeds[url] into the destination directory
type fakeGit struct {
	seeds      map[string]map[string]string
	calls      []string
	cloneErr   map[string]bool
	nothingNew bool
}

func newFakeGit() *fakeGit {
	return &fakeGit{
		seeds:    make(map[string]map[string]string),
		cloneErr: make(map[string]bool),
	}
}

func (g *fakeGit) Clone(ctx context.Context, url, branch, dir string) error {
	g.calls = append(g.calls, "clone "+url+" "+branch)
	if g.cloneErr[url] {
		return goerr.Wrap(types.ErrCommandFailed, "git clone", goerr.V("url", url))
	}
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0755); err != nil {
		return err
	}
	for name, content := range g.seeds[url] {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

func (g *fakeGit) CommitAll(ctx context.Context, dir, message string) (bool, error) {
	g.calls = append(g.calls, "commit "+message)
	return !g.nothingNew, nil
}

func (g *fakeGit) Tag(ctx context.Context, dir, tag, message string) error {
	g.calls = append(g.calls, "tag "+tag)
	return nil
}

func (g *fakeGit) Push(ctx context.Context, dir, branch, tag string) error {
	g.calls = append(g.calls, "push "+branch+" "+tag)
	return nil
}

type fakeGitHub struct {
	releases []string
}

func (g *fakeGitHub) CreateRelease(ctx context.Context, owner, repo string, input *model.GitHubRelease) (string, error) {
	g.releases = append(g.releases, owner+"/"+repo+"@"+input.TagName)
	return "https://github.com/" + owner + "/" + repo + "/releases/tag/" + input.TagName, nil
}

// fakeIndex reports a version available once it has been asked availableAfter times
type fakeIndex struct {
	availableAfter int
	calls          int
	err            error
}

func (i *fakeIndex) Exists(ctx context.Context, name, version string) (bool, error) {
	i.calls++
	if i.err != nil {
		return false, i.err
	}
	return i.calls >= i.availableAfter, nil
}

type fakeStore struct {
	objects map[string]string
}

func (s *fakeStore) Upload(ctx context.Context, localPath, objectName string) error {
	if s.objects == nil {
		s.objects = make(map[string]string)
	}
	s.objects[objectName] = localPath
	return nil
}

type fakeNotifier struct {
	results []*model.PipelineResult
}

func (n *fakeNotifier) Notify(ctx context.Context, result *model.PipelineResult) error {
	n.results = append(n.results, result)
	return nil
}
