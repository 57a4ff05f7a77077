package main_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/diffcov"
	main "github.com/fwojciec/diffcov/cmd/diffcov"
	"github.com/fwojciec/diffcov/config"
	"github.com/fwojciec/diffcov/git"
	"github.com/fwojciec/diffcov/gitdiff"
	"github.com/fwojciec/diffcov/gogit"
	"github.com/fwojciec/diffcov/jacoco"
	"github.com/fwojciec/diffcov/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig(dir string) *config.Config {
	return &config.Config{
		Baseline:         "master",
		Provider:         config.ProviderGit,
		BaseDir:          dir,
		WorkDir:          dir,
		SourceRoots:      []string{"src/main/java"},
		ArtifactSuffix:   "*.class",
		OutputDirectory:  filepath.Join("target", "site", "jacoco-changes"),
		DataFile:         filepath.Join("target", "jacoco.exec"),
		OutputEncoding:   "UTF-8",
		SourceEncoding:   "UTF-8",
		ClassDirectories: []string{filepath.Join("target", "classes")},
		JaCoCoCLI:        "/opt/jacoco/jacococli.jar",
	}
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, nil, 0644))
	return path
}

func changed(files ...string) *mock.ChangeSetProvider {
	return &mock.ChangeSetProvider{
		ChangedFilesFn: func(ctx context.Context, baseline string) ([]string, error) {
			return files, nil
		},
	}
}

func TestNewApp_Providers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger := zaptest.NewLogger(t)

	cfg := testConfig(dir)
	app, err := main.NewApp(cfg, nil, &bytes.Buffer{}, logger)
	require.NoError(t, err)
	runner, ok := app.Provider.(*git.Runner)
	require.True(t, ok)
	assert.Equal(t, dir, runner.Dir)
	assert.IsType(t, &jacoco.Generator{}, app.Generator)

	cfg = testConfig(dir)
	cfg.Provider = config.ProviderGoGit
	app, err = main.NewApp(cfg, nil, &bytes.Buffer{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &gogit.Provider{}, app.Provider)

	cfg = testConfig(dir)
	cfg.Provider = config.ProviderPatch
	cfg.Patch = "-"
	stdin := strings.NewReader("")
	app, err = main.NewApp(cfg, stdin, &bytes.Buffer{}, logger)
	require.NoError(t, err)
	patch, ok := app.Provider.(*gitdiff.PatchProvider)
	require.True(t, ok)
	assert.Same(t, stdin, patch.Input)

	cfg = testConfig(dir)
	cfg.Provider = "svn"
	_, err = main.NewApp(cfg, nil, &bytes.Buffer{}, logger)
	assert.ErrorContains(t, err, "svn")
}

func TestApp_Controller(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("resolves defaults against base directory", func(t *testing.T) {
		t.Parallel()
		app := &main.App{Config: testConfig(dir)}

		c, err := app.Controller()

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "target", "site", "jacoco-changes"), c.Defaults.OutputDirectory)
		assert.Equal(t, filepath.Join(dir, "target", "jacoco.exec"), c.Defaults.DataFile)
		assert.Equal(t, diffcov.DefaultSourceSuffix, c.Mapper.SourceSuffix)
	})

	t.Run("language picks source suffix", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(dir)
		cfg.Language = "kotlin"
		app := &main.App{Config: cfg}

		c, err := app.Controller()

		require.NoError(t, err)
		assert.Equal(t, ".kt", c.Mapper.SourceSuffix)
	})

	t.Run("explicit suffix wins over language", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(dir)
		cfg.Language = "kotlin"
		cfg.SourceSuffix = ".groovy"
		app := &main.App{Config: cfg}

		c, err := app.Controller()

		require.NoError(t, err)
		assert.Equal(t, ".groovy", c.Mapper.SourceSuffix)
	})

	t.Run("unknown language", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(dir)
		cfg.Language = "no-such-language"
		app := &main.App{Config: cfg}

		_, err := app.Controller()

		assert.Error(t, err)
	})
}

func TestApp_Scope(t *testing.T) {
	t.Parallel()

	t.Run("prints include patterns", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		var out bytes.Buffer
		app := &main.App{
			Config:   testConfig(dir),
			Provider: changed("src/main/java/a/A.java", "src/test/java/a/B.java", "src/main/java/a/C.txt"),
			Printer:  main.NewPlainPrinter(&out),
			Logger:   zaptest.NewLogger(t),
		}

		err := app.Scope(context.Background())

		require.NoError(t, err)
		assert.Contains(t, out.String(), "Changes against master: 1 include pattern(s)")
		assert.Contains(t, out.String(), filepath.Join("a", "A*.class"))
	})

	t.Run("reports no changes", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		cfg := testConfig(dir)
		cfg.SkipWhenNoChanges = true
		var out bytes.Buffer
		app := &main.App{
			Config:   cfg,
			Provider: changed(),
			Printer:  main.NewPlainPrinter(&out),
		}

		err := app.Scope(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "No changed source files against master (report skipped)\n", out.String())
	})
}

func TestApp_Report(t *testing.T) {
	t.Parallel()

	t.Run("renders only changed classes", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		touch(t, dir, "target/jacoco.exec")
		a := touch(t, dir, "target/classes/a/A.class")
		touch(t, dir, "target/classes/a/B.class")

		var out bytes.Buffer
		app, err := main.NewApp(testConfig(dir), nil, &out, zaptest.NewLogger(t))
		require.NoError(t, err)
		app.Provider = changed("src/main/java/a/A.java")
		app.Printer = main.NewPlainPrinter(&out)
		var args []string
		gen := app.Generator.(*jacoco.Generator)
		gen.Exec = func(ctx context.Context, name string, rest ...string) error {
			args = rest
			return nil
		}

		err = app.Report(context.Background())

		require.NoError(t, err)
		assert.Contains(t, args, a)
		assert.NotContains(t, strings.Join(args, " "), "B.class")
		assert.Equal(t, filepath.Join(dir, "target", "site", "jacoco-changes"), gen.OutputDirectory)
		assert.Contains(t, out.String(), filepath.Join(dir, "target", "site", "jacoco-changes", "index.html"))
	})

	t.Run("missing execution data renders nothing", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		touch(t, dir, "target/classes/a/A.class")

		var out bytes.Buffer
		app, err := main.NewApp(testConfig(dir), nil, &out, zaptest.NewLogger(t))
		require.NoError(t, err)
		app.Provider = changed("src/main/java/a/A.java")
		app.Printer = main.NewPlainPrinter(&out)
		ran := false
		app.Generator.(*jacoco.Generator).Exec = func(ctx context.Context, name string, rest ...string) error {
			ran = true
			return nil
		}

		err = app.Report(context.Background())

		require.NoError(t, err)
		assert.False(t, ran)
		assert.Contains(t, out.String(), "Coverage report not rendered")
		assert.NotContains(t, out.String(), "index.html")
	})

	t.Run("skip flag short-circuits", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		cfg := testConfig(dir)
		cfg.Skip = true
		var out bytes.Buffer
		app := &main.App{
			Config: cfg,
			Provider: &mock.ChangeSetProvider{
				ChangedFilesFn: func(ctx context.Context, baseline string) ([]string, error) {
					t.Fatal("diff must not run")
					return nil, nil
				},
			},
			Generator: &mock.ReportGenerator{},
			Printer:   main.NewPlainPrinter(&out),
		}

		err := app.Report(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "Coverage report skipped\n", out.String())
	})

	t.Run("diff failure is returned", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		app := &main.App{
			Config: testConfig(dir),
			Provider: &mock.ChangeSetProvider{
				ChangedFilesFn: func(ctx context.Context, baseline string) ([]string, error) {
					return nil, &diffcov.DiffExecutionError{Stderr: "fatal: bad revision 'master'\n"}
				},
			},
			Generator: &mock.ReportGenerator{},
			Printer:   main.NewPlainPrinter(&bytes.Buffer{}),
		}

		err := app.Report(context.Background())

		var scopeErr *diffcov.ScopeComputationError
		require.ErrorAs(t, err, &scopeErr)
		assert.Contains(t, err.Error(), "bad revision")
	})
}

func TestRootCommand_Config(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	cmd := main.NewRootCommand(strings.NewReader(""), &out, &errOut)
	cmd.SetArgs([]string{"config", "--baseline", "develop", "--skip-when-no-changes"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, out.String(), "baseline: develop")
	assert.Contains(t, out.String(), "skip-when-no-changes: true")
}

func TestRootCommand_InvalidProvider(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	cmd := main.NewRootCommand(strings.NewReader(""), &out, &errOut)
	cmd.SetArgs([]string{"scope", "--provider", "svn"})

	err := cmd.Execute()

	assert.ErrorContains(t, err, "Provider")
}
