package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/fwojciec/diffcov"
	"github.com/fwojciec/diffcov/chroma"
	"github.com/fwojciec/diffcov/config"
	"github.com/fwojciec/diffcov/git"
	"github.com/fwojciec/diffcov/gitdiff"
	"github.com/fwojciec/diffcov/gogit"
	"github.com/fwojciec/diffcov/jacoco"
	"go.uber.org/zap"
)

// App encapsulates the application logic for testing.
type App struct {
	Config    *config.Config
	Provider  diffcov.ChangeSetProvider
	Generator diffcov.ReportGenerator
	Printer   *Printer
	Logger    *zap.Logger
}

// NewApp wires the providers and generator named by cfg.
func NewApp(cfg *config.Config, stdin io.Reader, out io.Writer, logger *zap.Logger) (*App, error) {
	provider, err := newProvider(cfg, stdin, logger)
	if err != nil {
		return nil, err
	}

	gen := jacoco.New(cfg.JaCoCoCLI)
	gen.ClassDirectories = diffcov.ResolveRoots(cfg.BaseDir, cfg.ClassDirectories)
	gen.SourceDirectories = diffcov.ResolveRoots(cfg.BaseDir, cfg.SourceRoots)
	gen.Logger = logger

	return &App{
		Config:    cfg,
		Provider:  provider,
		Generator: gen,
		Printer:   NewPrinter(out),
		Logger:    logger,
	}, nil
}

func newProvider(cfg *config.Config, stdin io.Reader, logger *zap.Logger) (diffcov.ChangeSetProvider, error) {
	switch cfg.Provider {
	case config.ProviderGit:
		return &git.Runner{Binary: cfg.GitPath, Dir: cfg.WorkDir, Logger: logger}, nil
	case config.ProviderGoGit:
		return gogit.NewProvider(cfg.WorkDir), nil
	case config.ProviderPatch:
		if cfg.Patch == "-" {
			return &gitdiff.PatchProvider{Input: stdin}, nil
		}
		return gitdiff.NewPatchProvider(cfg.Patch), nil
	default:
		return nil, errors.Newf("unknown provider %q", cfg.Provider)
	}
}

// Controller builds the scope controller for the configured project.
func (a *App) Controller() (*diffcov.Controller, error) {
	cfg := a.Config
	mapper := diffcov.NewMapper()
	mapper.ArtifactSuffix = cfg.ArtifactSuffix
	switch {
	case cfg.SourceSuffix != "":
		mapper.SourceSuffix = cfg.SourceSuffix
	case cfg.Language != "":
		suffix, err := chroma.SourceSuffix(cfg.Language)
		if err != nil {
			return nil, err
		}
		mapper.SourceSuffix = suffix
	}

	return &diffcov.Controller{
		Provider:    a.Provider,
		Mapper:      mapper,
		Baseline:    cfg.Baseline,
		BaseDir:     cfg.BaseDir,
		SourceRoots: cfg.SourceRoots,
		WorkDir:     cfg.WorkDir,
		Defaults: diffcov.Defaults{
			OutputDirectory: projectPath(cfg.BaseDir, cfg.OutputDirectory),
			DataFile:        projectPath(cfg.BaseDir, cfg.DataFile),
			OutputEncoding:  cfg.OutputEncoding,
			SourceEncoding:  cfg.SourceEncoding,
			Skip:            cfg.Skip,
		},
		Excludes: cfg.Excludes,
		Policy:   diffcov.Policy{SkipWhenNoChanges: cfg.SkipWhenNoChanges},
		Logger:   a.Logger,
	}, nil
}

// Scope prints the include patterns for the current changes.
func (a *App) Scope(ctx context.Context) error {
	c, err := a.Controller()
	if err != nil {
		return err
	}
	scope, err := c.ComputeScope(ctx)
	if err != nil {
		return err
	}
	return a.Printer.Scope(a.Config.Baseline, scope, diffcov.ShouldGenerate(scope, c.Policy))
}

// Report scopes the report to the current changes and renders it.
func (a *App) Report(ctx context.Context) error {
	c, err := a.Controller()
	if err != nil {
		return err
	}
	res, err := c.Run(ctx, a.Generator)
	if err != nil {
		return err
	}
	page := ""
	if g, ok := a.Generator.(*jacoco.Generator); ok && res.Injected() {
		page = g.IndexPage()
	}
	return a.Printer.Result(a.Config.Baseline, res, page)
}

func projectPath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func workingDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
