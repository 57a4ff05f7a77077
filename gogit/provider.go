// Package gogit lists changed files in-process using go-git, for hosts
// without a git binary.
package gogit

import (
	"context"
	"os"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/fwojciec/diffcov"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Compile-time interface verification.
var _ diffcov.ChangeSetProvider = (*Provider)(nil)

// Provider compares the baseline commit against the worktree.
type Provider struct {
	Dir string // Any directory inside the repository
}

// NewProvider creates a provider for the repository containing dir.
func NewProvider(dir string) *Provider {
	return &Provider{Dir: dir}
}

// ChangedFiles returns the sorted, repository-relative paths whose worktree
// content or executable bit differs from baseline, like git diff --name-only
// <baseline>. Commits since baseline and staged or unstaged edits only nominate
// candidates; a file edited back to its baseline content is not listed.
// Untracked files are left out.
func (p *Provider) ChangedFiles(ctx context.Context, baseline string) ([]string, error) {
	repo, err := git.PlainOpenWithOptions(p.Dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, &diffcov.DiffExecutionError{Err: errors.Wrapf(err, "opening repository at %s", p.Dir)}
	}

	baseTree, err := commitTree(repo, plumbing.Revision(baseline))
	if err != nil {
		return nil, &diffcov.DiffExecutionError{Err: errors.Wrapf(err, "resolving baseline %q", baseline)}
	}
	headTree, err := commitTree(repo, plumbing.Revision(plumbing.HEAD))
	if err != nil {
		return nil, &diffcov.DiffExecutionError{Err: errors.Wrap(err, "resolving HEAD")}
	}

	changes, err := baseTree.DiffContext(ctx, headTree)
	if err != nil {
		return nil, &diffcov.DiffExecutionError{Err: errors.Wrap(err, "diffing trees")}
	}

	candidates := make(map[string]bool) // path -> removed from the index
	for _, ch := range changes {
		name := ch.To.Name
		if name == "" {
			name = ch.From.Name
		}
		candidates[name] = false
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, &diffcov.DiffExecutionError{Err: errors.Wrap(err, "opening worktree")}
	}
	status, err := wt.Status()
	if err != nil {
		return nil, &diffcov.DiffExecutionError{Err: errors.Wrap(err, "reading worktree status")}
	}
	for path, s := range status {
		if s.Staging == git.Untracked {
			// Deleted since baseline and left on disk untracked.
			if _, ok := candidates[path]; ok {
				candidates[path] = true
			}
			continue
		}
		if s.Staging != git.Unmodified || s.Worktree != git.Unmodified {
			candidates[path] = s.Staging == git.Deleted
		}
	}

	files := make([]string, 0, len(candidates))
	for name, removed := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, &diffcov.DiffExecutionError{Err: err}
		}
		differs, err := differsFromBase(wt, baseTree, name, removed)
		if err != nil {
			return nil, &diffcov.DiffExecutionError{Err: errors.Wrapf(err, "comparing %s", name)}
		}
		if differs {
			files = append(files, name)
		}
	}
	sort.Strings(files)
	return files, nil
}

// differsFromBase compares the worktree copy of name with its blob in base.
// A file removed from the index counts as deleted even if it is still on disk.
func differsFromBase(wt *git.Worktree, base *object.Tree, name string, removed bool) (bool, error) {
	baseFile, err := base.File(name)
	inBase := err == nil
	if err != nil && !errors.Is(err, object.ErrFileNotFound) {
		return false, err
	}

	if removed {
		return inBase, nil
	}
	info, err := wt.Filesystem.Lstat(name)
	if errors.Is(err, os.ErrNotExist) {
		return inBase, nil
	}
	if err != nil {
		return false, err
	}
	if !inBase {
		return true, nil
	}

	var content []byte
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := wt.Filesystem.Readlink(name)
		if err != nil {
			return false, err
		}
		content = []byte(target)
	} else {
		content, err = util.ReadFile(wt.Filesystem, name)
		if err != nil {
			return false, err
		}
		executable := info.Mode()&0o111 != 0
		if executable != (baseFile.Mode == filemode.Executable) {
			return true, nil
		}
	}
	return plumbing.ComputeHash(plumbing.BlobObject, content) != baseFile.Hash, nil
}

func commitTree(repo *git.Repository, rev plumbing.Revision) (*object.Tree, error) {
	hash, err := repo.ResolveRevision(rev)
	if err != nil {
		return nil, err
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, err
	}
	return commit.Tree()
}
