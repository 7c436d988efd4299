// Package report renders a finished batch as a terminal table, a CSV file,
// and an aggregate summary.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bulkspeed/bulkspeed/internal/runner"
)

// Columns is the flat record layout shared by the table and the CSV export.
var Columns = []string{"URL", "Device", "Performance Score", "FCP", "LCP", "TBT", "CLS"}

// row flattens an outcome into the column layout. A failed outcome renders
// the literal "Error" in the score column; its FCP field already carries the
// failure description.
func row(o runner.Outcome) []string {
	score := ""
	switch {
	case o.Failed:
		score = "Error"
	case o.Score != nil:
		score = strconv.Itoa(*o.Score)
	}
	return []string{o.URL, string(o.Device), score, o.FCP, o.LCP, o.TBT, o.CLS}
}

// Table renders the outcomes as a bordered terminal table.
func Table(outcomes []runner.Outcome) string {
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	errStyle := cellStyle.Foreground(lipgloss.Color("9"))

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(Columns...).
		StyleFunc(func(r, c int) lipgloss.Style {
			if r == table.HeaderRow {
				return headerStyle
			}
			if outcomes[r].Failed {
				return errStyle
			}
			return cellStyle
		})

	for _, o := range outcomes {
		t.Row(row(o)...)
	}

	return t.Render()
}

// WriteCSV writes the outcomes as UTF-8 comma-separated text with a header
// row.
func WriteCSV(w io.Writer, outcomes []runner.Outcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, o := range outcomes {
		if err := cw.Write(row(o)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the outcomes to path, creating or truncating it.
func WriteCSVFile(path string, outcomes []runner.Outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteCSV(f, outcomes); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Summary aggregates a finished batch.
type Summary struct {
	Total  int
	Failed int
	Scored int // successful outcomes that carried a score
	// AverageScore is the mean over scored outcomes, 0 when none scored.
	AverageScore int
}

func Summarize(outcomes []runner.Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	sum := 0
	for _, o := range outcomes {
		if o.Failed {
			s.Failed++
			continue
		}
		if o.Score != nil {
			s.Scored++
			sum += *o.Score
		}
	}
	if s.Scored > 0 {
		s.AverageScore = sum / s.Scored
	}
	return s
}
