// Package jacoco renders coverage reports with the JaCoCo command line
// interface. Its settings are plain fields so the report scope can be
// injected by name.
package jacoco

import (
	"context"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fwojciec/diffcov"
	"go.uber.org/zap"
)

// Compile-time interface verification.
var _ diffcov.ReportGenerator = (*Generator)(nil)

// ReportOptions are the settings shared by every report goal.
type ReportOptions struct {
	OutputEncoding string
	SourceEncoding string
	Skip           bool
	Includes       []string // Empty means every class file
	Excludes       []string
}

// Generator renders an HTML and XML report for the class files selected by
// Includes and Excludes.
type Generator struct {
	ReportOptions

	OutputDirectory   string
	DataFile          string
	ClassDirectories  []string
	SourceDirectories []string

	OutputName string // Site-relative page name, e.g. "jacoco-changes/index"
	Title      string

	Java   string // Defaults to "java"
	CLIJar string // Path to jacococli.jar

	// Exec runs the renderer. Defaults to running the command and returning
	// its combined output on failure.
	Exec func(ctx context.Context, name string, args ...string) error

	Logger *zap.Logger
}

// New creates a generator rendering with the JaCoCo CLI at cliJar, carrying
// the changed-files report identity.
func New(cliJar string) *Generator {
	return &Generator{
		OutputName: diffcov.ReportOutputName,
		Title:      diffcov.ReportTitle,
		Java:       "java",
		CLIJar:     cliJar,
	}
}

func (g *Generator) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}

// IndexPage returns the path of the rendered HTML entry page.
func (g *Generator) IndexPage() string {
	name := path.Base(g.OutputName)
	if name == "." || name == "/" {
		name = "index"
	}
	return filepath.Join(g.OutputDirectory, name+".html")
}

// Execute runs the report lifecycle: honour Skip, give up quietly when there
// is no execution data, call beforeReport, then render. Renderer failures
// are returned as reported.
func (g *Generator) Execute(ctx context.Context, beforeReport func(context.Context) error) error {
	log := g.logger()
	if g.Skip {
		log.Info("skipping JaCoCo execution because skip is set")
		return nil
	}
	if _, err := os.Stat(g.DataFile); err != nil {
		log.Info("skipping JaCoCo execution due to missing execution data file",
			zap.String("dataFile", g.DataFile))
		return nil
	}

	if beforeReport != nil {
		if err := beforeReport(ctx); err != nil {
			return err
		}
	}

	classFiles, err := SelectClassFiles(g.ClassDirectories, g.Includes, g.Excludes)
	if err != nil {
		return err
	}
	log.Info("rendering coverage report",
		zap.String("title", g.Title),
		zap.Int("classFiles", len(classFiles)),
		zap.String("output", g.IndexPage()),
	)

	if g.CLIJar == "" {
		return errors.New("jacoco: no CLI jar configured")
	}
	java := g.Java
	if java == "" {
		java = "java"
	}
	run := g.Exec
	if run == nil {
		run = execCommand
	}
	return run(ctx, java, g.args(classFiles)...)
}

func (g *Generator) args(classFiles []string) []string {
	var args []string
	// jacococli has no output encoding option; this only sets the JVM
	// default. The HTML pages themselves are always written as UTF-8.
	if g.OutputEncoding != "" {
		args = append(args, "-Dfile.encoding="+g.OutputEncoding)
	}
	args = append(args, "-jar", g.CLIJar, "report", g.DataFile)
	for _, f := range classFiles {
		args = append(args, "--classfiles", f)
	}
	for _, d := range g.SourceDirectories {
		args = append(args, "--sourcefiles", d)
	}
	if g.SourceEncoding != "" {
		args = append(args, "--encoding", g.SourceEncoding)
	}
	if g.Title != "" {
		args = append(args, "--name", g.Title)
	}
	return append(args,
		"--html", g.OutputDirectory,
		"--xml", filepath.Join(g.OutputDirectory, "jacoco.xml"),
	)
}

func execCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "%s failed: %s", name, strings.TrimSpace(string(output)))
	}
	return nil
}
