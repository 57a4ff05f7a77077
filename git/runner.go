// Package git lists changed files by running the git CLI.
package git

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"

	"github.com/cockroachdb/errors"
	"github.com/fwojciec/diffcov"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Compile-time interface verification.
var _ diffcov.ChangeSetProvider = (*Runner)(nil)

// DefaultBinary is the executable used when Runner.Binary is empty.
const DefaultBinary = "git"

// Runner executes git diff via the shell.
type Runner struct {
	Binary string // Defaults to DefaultBinary
	Dir    string // Working directory; empty inherits the process's
	Logger *zap.Logger
}

// NewRunner creates a new git runner.
func NewRunner() *Runner {
	return &Runner{Binary: DefaultBinary}
}

// ChangedFiles returns the paths printed by git diff --name-only against
// baseline, one per non-empty line, in output order.
//
// Empty output is only a failure when git wrote to stderr; otherwise nothing
// differs from baseline. The exit status is not consulted.
func (r *Runner) ChangedFiles(ctx context.Context, baseline string) ([]string, error) {
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	bin := r.Binary
	if bin == "" {
		bin = DefaultBinary
	}

	cmd := exec.CommandContext(ctx, bin, "diff", "--name-only", baseline, "--")
	cmd.Dir = r.Dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &diffcov.DiffExecutionError{Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &diffcov.DiffExecutionError{Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &diffcov.DiffExecutionError{Err: errors.Wrapf(err, "starting %s diff", bin)}
	}

	// Both streams are drained together so a full stderr pipe cannot stall
	// stdout. Wait runs on every path below to reap the process.
	var files []string
	var diag bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		var err error
		files, err = readLines(stdout)
		if err != nil {
			// Writers still holding the pipe must not block on it.
			_ = cmd.Process.Kill()
			_, _ = io.Copy(io.Discard, stdout)
		}
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&diag, stderr)
		return err
	})
	readErr := g.Wait()
	waitErr := cmd.Wait()

	if readErr != nil {
		return nil, &diffcov.DiffExecutionError{Stderr: diag.String(), Err: errors.Wrap(readErr, "reading diff output")}
	}
	if err := ctx.Err(); err != nil {
		return nil, &diffcov.DiffExecutionError{Stderr: diag.String(), Err: err}
	}
	if len(files) == 0 && diag.Len() > 0 {
		return nil, &diffcov.DiffExecutionError{Stderr: diag.String()}
	}
	if waitErr != nil {
		log.Warn("git diff exited with error", zap.Error(waitErr), zap.Int("files", len(files)))
	}
	log.Debug("listed changed files",
		zap.String("baseline", baseline),
		zap.Int("files", len(files)),
	)
	return files, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
