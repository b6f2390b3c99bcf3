package report

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/perfkit/benchreport/internal/table"
)

// ExportCSV writes a table to a CSV file with a header row, columns in
// declared order, for external analysis (Excel, spreadsheets, replotting).
func ExportCSV(t *table.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(t.Columns()); err != nil {
		return err
	}
	for row := 0; row < t.Len(); row++ {
		if err := w.Write(t.Row(row)); err != nil {
			return err
		}
	}

	fmt.Printf("Exported CSV: %s\n", path)
	return nil
}

// WriteMarkdown writes an assembled Markdown document to a file.
func WriteMarkdown(doc *Document, path string) error {
	if err := os.WriteFile(path, []byte(doc.String()), 0644); err != nil {
		return err
	}
	fmt.Printf("Generated report: %s\n", path)
	return nil
}
