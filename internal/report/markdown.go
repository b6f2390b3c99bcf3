// Package report renders finished tables as Markdown documents and CSV
// files. Renderers build content in memory; writing to disk is a separate
// final step so the aggregation pipeline stays testable without
// filesystem access.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/perfkit/benchreport/internal/table"
)

// CellKind selects the formatting of one Markdown column.
type CellKind int

const (
	// Text passes the raw cell through.
	Text CellKind = iota
	// Fixed renders a numeric cell with fixed decimals.
	Fixed
	// Signed renders a numeric cell with fixed decimals and an explicit
	// +/- sign, the convention for percentage deltas.
	Signed
	// Int renders a numeric cell with no decimals.
	Int
)

// Column describes one Markdown table column.
type Column struct {
	Header string   // table header text
	Field  string   // source column in the table
	Kind   CellKind
	Prec   int // decimal places for Fixed/Signed; 2 if zero-valued and Signed, 3 if Fixed
}

// Markdown renders a table as a GitHub pipe table: a header row, a dash
// separator (right-aligned for numeric columns), and one row per record.
// Undefined statistics render as "nan", never as zero.
func Markdown(t *table.Table, cols []Column) string {
	var b strings.Builder

	b.WriteString("|")
	for _, c := range cols {
		fmt.Fprintf(&b, " %s |", c.Header)
	}
	b.WriteString("\n|")
	for _, c := range cols {
		if c.Kind == Text {
			b.WriteString("---|")
		} else {
			b.WriteString("---:|")
		}
	}
	b.WriteString("\n")

	for row := 0; row < t.Len(); row++ {
		b.WriteString("|")
		for _, c := range cols {
			fmt.Fprintf(&b, " %s |", formatCell(t, c, row))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatCell(t *table.Table, c Column, row int) string {
	if c.Kind == Text {
		return t.String(c.Field, row)
	}
	v := t.Float(c.Field, row)
	if math.IsNaN(v) {
		return "nan"
	}
	switch c.Kind {
	case Signed:
		return fmt.Sprintf("%+.*f", precOr(c.Prec, 2), v)
	case Int:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.*f", precOr(c.Prec, 3), v)
	}
}

func precOr(p, def int) int {
	if p == 0 {
		return def
	}
	return p
}

// Document assembles a Markdown document from sections.
type Document struct {
	b strings.Builder
}

// Heading appends a heading at the given level.
func (d *Document) Heading(level int, text string) {
	fmt.Fprintf(&d.b, "%s %s\n\n", strings.Repeat("#", level), text)
}

// Para appends a paragraph.
func (d *Document) Para(format string, args ...any) {
	fmt.Fprintf(&d.b, format, args...)
	d.b.WriteString("\n\n")
}

// Table appends a rendered pipe table.
func (d *Document) Table(t *table.Table, cols []Column) {
	d.b.WriteString(Markdown(t, cols))
	d.b.WriteString("\n")
}

// Image appends an embedded image reference.
func (d *Document) Image(alt, relPath string) {
	fmt.Fprintf(&d.b, "![%s](%s)\n\n", alt, relPath)
}

// Bullet appends one bullet item.
func (d *Document) Bullet(format string, args ...any) {
	d.b.WriteString("- ")
	fmt.Fprintf(&d.b, format, args...)
	d.b.WriteString("\n")
}

// Gap ends a bullet list.
func (d *Document) Gap() {
	d.b.WriteString("\n")
}

// String returns the assembled document.
func (d *Document) String() string {
	return d.b.String()
}
