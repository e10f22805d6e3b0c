// Package render formats command output: lipgloss-styled status lines and
// tables for humans, raw JSON for scripts.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/zapkit/zapctl/pkg/gateway"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
)

var (
	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// Renderer writes command output in the selected format. Commands hand it
// their cobra out/err streams so tests can capture everything.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	format string
}

func New(out, errOut io.Writer, format string) *Renderer {
	if format != FormatJSON {
		format = FormatTable
	}
	return &Renderer{out: out, errOut: errOut, format: format}
}

// JSONOutput reports whether machine-readable output was requested.
func (r *Renderer) JSONOutput() bool {
	return r.format == FormatJSON
}

// JSON pretty-prints v with 2-space indentation.
func (r *Renderer) JSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Fprintln(r.out, string(b))
	return nil
}

// Table renders an aligned table with a styled header row.
func (r *Renderer) Table(header []string, rows [][]string) {
	w := tabwriter.NewWriter(r.out, 0, 0, 3, ' ', 0)
	styled := make([]string, len(header))
	for i, h := range header {
		styled[i] = headerStyle.Render(h)
	}
	fmt.Fprintln(w, strings.Join(styled, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

// KV renders a two-column detail view for a single record.
func (r *Renderer) KV(pairs [][2]string) {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, p := range pairs {
		fmt.Fprintf(w, "%s\t%s\n", mutedStyle.Render(p[0]), p[1])
	}
	_ = w.Flush()
}

// Title prints a highlighted section heading.
func (r *Renderer) Title(format string, args ...interface{}) {
	fmt.Fprintln(r.out, titleStyle.Render(fmt.Sprintf(format, args...)))
}

func (r *Renderer) Success(format string, args ...interface{}) {
	fmt.Fprintln(r.out, successStyle.Render("✓")+" "+fmt.Sprintf(format, args...))
}

func (r *Renderer) Info(format string, args ...interface{}) {
	fmt.Fprintln(r.out, infoStyle.Render("ℹ")+" "+fmt.Sprintf(format, args...))
}

func (r *Renderer) Warn(format string, args ...interface{}) {
	fmt.Fprintln(r.out, warnStyle.Render("⚠")+" "+fmt.Sprintf(format, args...))
}

func (r *Renderer) Error(format string, args ...interface{}) {
	fmt.Fprintln(r.errOut, errorStyle.Render("✗")+" "+fmt.Sprintf(format, args...))
}

// Muted prints secondary detail text.
func (r *Renderer) Muted(format string, args ...interface{}) {
	fmt.Fprintln(r.out, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// Print writes plain unstyled output.
func (r *Renderer) Print(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

// Out exposes the table/text stream for helpers that draw directly.
func (r *Renderer) Out() io.Writer {
	return r.out
}

// StatusBadge colors a session status by family: green when linked, yellow
// while pairing is in progress, red for terminal failures.
func StatusBadge(status gateway.Status) string {
	s := gateway.NormalizeStatus(status)
	switch {
	case s.IsConnected():
		return successStyle.Render(string(s))
	case s.IsTerminalFailure():
		return errorStyle.Render(string(s))
	case s == gateway.StatusQRReady, s == gateway.StatusAuthenticating:
		return warnStyle.Render(string(s))
	case s == "":
		return mutedStyle.Render("UNKNOWN")
	default:
		return mutedStyle.Render(string(s))
	}
}
