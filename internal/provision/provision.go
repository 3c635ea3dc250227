// Package provision ensures the repositories named by descriptors exist on
// the configured host and that their working copies are initialized.
package provision

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/kindred-systems/repotool/internal/config"
	"github.com/kindred-systems/repotool/internal/git"
	"github.com/kindred-systems/repotool/internal/githost"
	"github.com/kindred-systems/repotool/internal/metadata"
)

type Status string

const (
	// StatusExists means the repository was already present on the host.
	StatusExists Status = "exists"
	// StatusCreated means the repository was created and initialized.
	StatusCreated Status = "created"
	// StatusMissing means the repository does not exist and was not created.
	StatusMissing Status = "missing, not created"
	// StatusConflict means the repository exists but its hosting metadata
	// disagrees with the descriptor. Reported as a warning, never fatal.
	StatusConflict Status = "exists with conflicting configuration"
	// StatusFailed means the host or git collaborator reported an error.
	StatusFailed Status = "failed"
)

type Options struct {
	// CreateMissing creates missing repositories without prompting.
	CreateMissing bool
	// NonInteractive suppresses prompts; missing repositories are reported
	// instead of created unless CreateMissing is also set.
	NonInteractive bool
	// Tier is written to descriptors that do not declare one. Empty leaves
	// descriptors untouched.
	Tier string
}

// Result is the per-descriptor outcome of EnsureRepository.
type Result struct {
	Descriptor string
	Repo       string
	Status     Status
	Detail     string
	Err        error
}

// Failed reports whether this result should make the run exit non-zero.
func (r Result) Failed() bool {
	return r.Status == StatusFailed || r.Status == StatusMissing
}

// Prompter confirms repository creation with the operator. Kept as an
// interface so the core never touches a terminal directly.
type Prompter interface {
	Confirm(message string) (bool, error)
}

// WorkingCopyInit initializes a local git repository in dir and pushes it to
// url. Swapped out in tests.
type WorkingCopyInit func(dir, url string) error

type Provisioner struct {
	Host     githost.Host
	Config   *config.Config
	Prompter Prompter
	InitWC   WorkingCopyInit
}

// EnsureTree runs EnsureRepository over every descriptor path. A failing
// descriptor never stops its siblings from being processed.
func (p *Provisioner) EnsureTree(ctx context.Context, paths []string, opts Options) []Result {
	results := make([]Result, 0, len(paths))
	for _, descriptorPath := range paths {
		results = append(results, p.EnsureRepository(ctx, descriptorPath, opts))
	}
	return results
}

// EnsureRepository checks the repository named by the descriptor at
// descriptorPath against the host, creating and initializing it when missing
// and allowed to.
func (p *Provisioner) EnsureRepository(ctx context.Context, descriptorPath string, opts Options) Result {
	descriptor, err := metadata.Load(descriptorPath)
	if err != nil {
		return Result{Descriptor: descriptorPath, Status: StatusFailed, Err: err}
	}

	dirty := false
	if descriptor.Tier == "" && opts.Tier != "" {
		descriptor.Tier = opts.Tier
		dirty = true
	}

	name := p.repoName(descriptor)
	result := Result{Descriptor: descriptorPath, Repo: descriptor.Repo}

	existing, err := p.Host.Get(ctx, name)
	if err != nil {
		result.Status = StatusFailed
		result.Err = err
		p.flush(descriptor, dirty, &result)
		return result
	}

	switch {
	case existing != nil:
		result.Status = StatusExists
		if descriptor.Repo == "" {
			descriptor.Repo = existing.URL
			result.Repo = existing.URL
			result.Detail = "recorded existing repository in descriptor"
			dirty = true
		} else if conflicting(descriptor.Repo, existing.URL) {
			result.Status = StatusConflict
			result.Detail = fmt.Sprintf("descriptor says %s, host says %s", descriptor.Repo, existing.URL)
		}

	case !p.mayCreate(descriptorPath, name, opts, &result):
		result.Status = StatusMissing

	default:
		created, err := p.Host.Create(ctx, name)
		if err != nil {
			result.Status = StatusFailed
			result.Err = err
			break
		}
		descriptor.Repo = created.URL
		if descriptor.Repo == "" {
			descriptor.Repo = p.Config.RepoURL(name)
		}
		result.Repo = descriptor.Repo
		result.Status = StatusCreated
		dirty = true
	}

	p.flush(descriptor, dirty, &result)
	if result.Status == StatusFailed {
		return result
	}

	if result.Status == StatusCreated || result.Status == StatusExists {
		if err := p.initWorkingCopy(descriptor); err != nil {
			result.Status = StatusFailed
			result.Err = err
		}
	}
	return result
}

// mayCreate decides whether a missing repository should be created, asking
// the prompter when interaction is allowed.
func (p *Provisioner) mayCreate(descriptorPath, name string, opts Options, result *Result) bool {
	if opts.CreateMissing {
		return true
	}
	if opts.NonInteractive || p.Prompter == nil {
		return false
	}
	ok, err := p.Prompter.Confirm(
		fmt.Sprintf("%s has no repository %q on the host. Create it?", descriptorPath, name))
	if err != nil {
		result.Err = err
		return false
	}
	return ok
}

// initWorkingCopy sets up git state for a descriptor whose repository exists
// on the host: repository init in the component directory when absent, and
// submodule registration when the parent directory is itself a repository.
func (p *Provisioner) initWorkingCopy(descriptor *metadata.Descriptor) error {
	if p.InitWC == nil || descriptor.Repo == "" {
		return nil
	}
	dir := descriptor.Dir()
	if git.IsRepo(dir) {
		return nil
	}
	if err := p.InitWC(dir, descriptor.Repo); err != nil {
		return err
	}
	parent := filepath.Dir(dir)
	if git.IsRepo(parent) {
		rel, err := filepath.Rel(parent, dir)
		if err != nil {
			return err
		}
		return git.AddSubmodule(parent, descriptor.Repo, rel)
	}
	return nil
}

func (p *Provisioner) flush(descriptor *metadata.Descriptor, dirty bool, result *Result) {
	if !dirty {
		return
	}
	if err := metadata.Save(descriptor.Path, descriptor); err != nil {
		result.Status = StatusFailed
		result.Err = err
	}
}

// repoName derives the host repository name: the last segment of the repo
// URL when present, otherwise the component directory name.
func (p *Provisioner) repoName(descriptor *metadata.Descriptor) string {
	if descriptor.Repo != "" {
		return strings.TrimSuffix(path.Base(descriptor.Repo), ".git")
	}
	return descriptor.Name()
}

func conflicting(declared, hosted string) bool {
	if hosted == "" {
		return false
	}
	normalize := func(url string) string {
		return strings.TrimSuffix(strings.TrimSuffix(url, "/"), ".git")
	}
	return normalize(declared) != normalize(hosted)
}

// InitWorkingCopy is the production WorkingCopyInit: init, origin remote,
// initial commit, main branch, push.
func InitWorkingCopy(dir, url string) error {
	if err := git.Init(dir); err != nil {
		return err
	}
	if err := git.AddRemote(dir, "origin", url); err != nil {
		return err
	}
	if err := git.CommitAll(dir, "Initial commit"); err != nil {
		return err
	}
	if err := git.SetBranch(dir, "main"); err != nil {
		return err
	}
	return git.Push(dir, "origin", "main")
}
