// Package gitdiff lists changed files from a unified diff using
// bluekeyes/go-gitdiff.
package gitdiff

import (
	"context"
	"io"
	"os"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/cockroachdb/errors"
	"github.com/fwojciec/diffcov"
)

// Compile-time interface verification.
var _ diffcov.ChangeSetProvider = (*PatchProvider)(nil)

// PatchProvider reads changed files from a pre-computed patch instead of
// running git, for pipelines that already hold the diff.
type PatchProvider struct {
	Input    io.Reader // Read patch from here when FilePath is empty
	FilePath string    // Read patch from file (takes precedence over Input)
}

// NewPatchProvider creates a provider reading the patch at path.
func NewPatchProvider(path string) *PatchProvider {
	return &PatchProvider{FilePath: path}
}

// ChangedFiles returns one path per file in the patch, in patch order, named
// the way git diff --name-only would: the new name, or the old name for
// deletions. The baseline is fixed by whoever produced the patch and is
// ignored here.
func (p *PatchProvider) ChangedFiles(ctx context.Context, baseline string) ([]string, error) {
	input := p.Input
	if p.FilePath != "" {
		f, err := os.Open(p.FilePath)
		if err != nil {
			return nil, &diffcov.DiffExecutionError{Err: errors.Wrap(err, "opening patch")}
		}
		defer f.Close()
		input = f
	}
	if input == nil {
		return nil, &diffcov.DiffExecutionError{Err: errors.New("no patch input")}
	}

	files, _, err := gitdiff.Parse(input)
	if err != nil {
		return nil, &diffcov.DiffExecutionError{Err: errors.Wrap(err, "parsing patch")}
	}

	result := make([]string, 0, len(files))
	for _, f := range files {
		name := f.NewName
		if f.IsDelete || name == "" {
			name = f.OldName
		}
		if name == "" {
			continue
		}
		result = append(result, name)
	}
	return result, nil
}
