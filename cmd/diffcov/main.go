package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fwojciec/diffcov/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Set up context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCommand(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}

// NewRootCommand builds the diffcov command tree writing to the given streams.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)
	config.SetEnvPrefix(v)

	root := &cobra.Command{
		Use:   "diffcov",
		Short: "Scope JaCoCo coverage reports to files changed against a baseline",
		Long: `diffcov lists the files changed against a baseline branch, maps changed
Java sources to their compiled classes and renders a JaCoCo report
covering only those classes.

Settings come from flags, DIFFCOV_* environment variables and
.diffcov.yaml in the project directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringP("baseline", "b", "master", "branch or commit to compare against")
	flags.String("provider", config.ProviderGit, "change source: git, gogit or patch")
	flags.String("patch", "", "unified diff to read changes from with --provider=patch (- for stdin)")
	flags.String("git", "git", "git executable")
	flags.String("base-dir", "", "project base directory (default: current directory)")
	flags.String("work-dir", "", "directory changed paths are relative to (default: current directory)")
	flags.StringSlice("source-roots", []string{"src/main/java"}, "compile source roots")
	flags.String("language", "", "source language used to pick the source suffix")
	flags.String("source-suffix", "", "source file suffix (default .java)")
	flags.String("artifact-suffix", "*.class", "compiled artifact wildcard suffix")
	flags.String("output-directory", "target/site/jacoco-changes", "report output directory")
	flags.String("data-file", "target/jacoco.exec", "JaCoCo execution data file")
	flags.String("output-encoding", "UTF-8", "report output encoding")
	flags.String("source-encoding", "UTF-8", "source file encoding")
	flags.StringSlice("excludes", nil, "class file patterns to exclude")
	flags.StringSlice("class-directories", []string{"target/classes"}, "compiled class directories")
	flags.String("jacoco-cli", "", "path to jacococli.jar")
	flags.Bool("skip", false, "skip report generation")
	flags.Bool("skip-when-no-changes", false, "skip report generation when no source file changed")
	flags.BoolP("verbose", "v", false, "enable debug logging")

	var app *App
	var logger *zap.Logger
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := config.BindFlags(cmd.Flags(), v); err != nil {
			return err
		}
		cfg, err := config.Load(v, workingDir())
		if err != nil {
			return err
		}
		logger = newLogger(stderr, cfg.Verbose)
		app, err = NewApp(cfg, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
		return err
	}
	root.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "report",
			Short: "Render a coverage report for the changed files",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.Report(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "scope",
			Short: "Print the include patterns for the changed files",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.Scope(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.Config.Write(cmd.OutOrStdout())
			},
		},
	)
	return root
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}
