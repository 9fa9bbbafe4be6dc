// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-layout/internal/blocks"
	"github.com/jonathan/resume-layout/internal/paginate"
	"github.com/jonathan/resume-layout/internal/session"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxKindsToShow is the number of block kinds listed per page
	maxKindsToShow = 6
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		if n := len([]rune(line)); n > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintLayout outputs the committed page partition of a session state.
func (p *Printer) PrintLayout(st session.State) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Status:   %s (pass %d)\n", st.Status, st.Version))
	if st.PagesVersion == 0 {
		sb.WriteString("No pages committed yet\n")
		p.printBox("LAYOUT", sb.String())
		return
	}
	sb.WriteString(fmt.Sprintf("Mode:     %s\n", st.PagesMode))
	sb.WriteString(fmt.Sprintf("Pages:    %d\n", len(st.Pages)))
	sb.WriteString(fmt.Sprintf("Scale:    %.3f\n", st.Scale))
	sb.WriteString("\n")

	for _, page := range st.Pages {
		sb.WriteString(pageLine(page))
		sb.WriteString("\n")
	}
	p.printBox("LAYOUT", sb.String())
}

func pageLine(page paginate.Page) string {
	kinds := blocks.Kinds(page.Blocks)
	shown := kinds[:min(len(kinds), maxKindsToShow)]

	names := make([]string, len(shown))
	for i, k := range shown {
		names[i] = string(k)
	}
	line := fmt.Sprintf("%d. %6.1fmm  %s", page.Index+1, page.Height, strings.Join(names, ", "))
	if extra := len(kinds) - len(shown); extra > 0 {
		line += fmt.Sprintf(" +%d", extra)
	}
	if page.Overflow {
		line = "! " + line
	}
	return line
}

// PrintExport outputs a summary of a written PDF.
func (p *Printer) PrintExport(path string, size, pages int) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("File:     %s\n", path))
	sb.WriteString(fmt.Sprintf("Pages:    %d\n", pages))
	sb.WriteString(fmt.Sprintf("Size:     %s\n", formatBytes(size)))
	p.printBox("EXPORT", sb.String())
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
