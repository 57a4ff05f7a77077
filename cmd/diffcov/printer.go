package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/diffcov"
	"github.com/muesli/termenv"
)

// Printer writes human-readable summaries, colored when the writer is a
// terminal.
type Printer struct {
	w       io.Writer
	heading lipgloss.Style
	pattern lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
}

// NewPrinter creates a printer that detects the color profile of w.
func NewPrinter(w io.Writer) *Printer {
	return newPrinter(w, lipgloss.NewRenderer(w))
}

// NewPlainPrinter creates a printer that never emits escape sequences.
func NewPlainPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.Ascii)
	return newPrinter(w, r)
}

func newPrinter(w io.Writer, r *lipgloss.Renderer) *Printer {
	return &Printer{
		w:       w,
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa")),
		pattern: r.NewStyle().Foreground(lipgloss.Color("#a6e3a1")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#6c7086")),
		success: r.NewStyle().Foreground(lipgloss.Color("#a6e3a1")).Bold(true),
	}
}

// Scope prints the include and exclude patterns of scope.
func (p *Printer) Scope(baseline string, scope diffcov.Scope, generate bool) error {
	if scope.Empty() {
		msg := fmt.Sprintf("No changed source files against %s", baseline)
		if !generate {
			msg += " (report skipped)"
		}
		_, err := fmt.Fprintln(p.w, p.muted.Render(msg))
		return err
	}

	if _, err := fmt.Fprintln(p.w, p.heading.Render(fmt.Sprintf("Changes against %s: %d include pattern(s)", baseline, len(scope.Includes)))); err != nil {
		return err
	}
	for _, inc := range scope.Includes {
		if _, err := fmt.Fprintln(p.w, "  "+p.pattern.Render(inc)); err != nil {
			return err
		}
	}
	for _, exc := range scope.Excludes {
		if _, err := fmt.Fprintln(p.w, "  "+p.muted.Render("excluding "+exc)); err != nil {
			return err
		}
	}
	return nil
}

// Result prints how a report run ended. page is the rendered report's entry
// page, empty when nothing was rendered.
func (p *Printer) Result(baseline string, res diffcov.Result, page string) error {
	switch res.Last() {
	case diffcov.StateSkipped:
		if len(res.Scope.Includes) == 0 {
			_, err := fmt.Fprintln(p.w, p.muted.Render("Coverage report skipped"))
			return err
		}
		return p.Scope(baseline, res.Scope, false)
	case diffcov.StateDelegated:
		if err := p.Scope(baseline, res.Scope, true); err != nil {
			return err
		}
		if !res.Injected() {
			_, err := fmt.Fprintln(p.w, p.muted.Render("Coverage report not rendered"))
			return err
		}
		if page == "" {
			return nil
		}
		_, err := fmt.Fprintln(p.w, p.success.Render(diffcov.ReportTitle+": "+page))
		return err
	default:
		return nil
	}
}
