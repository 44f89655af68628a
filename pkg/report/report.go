// Package report renders enriched project records as a table, JSON or CSV.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/Sternrassler/repo-stars/pkg/pipeline"
)

// Format selects a writer.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// Row is one flattened record.
type Row struct {
	Category string             `json:"category,omitempty"`
	Name     string             `json:"name,omitempty"`
	URL      string             `json:"url"`
	Stars    int                `json:"stars"`
	Status   pipeline.StatsKind `json:"status"`
	Error    string             `json:"error,omitempty"`
}

// Summary counts records per result kind.
type Summary struct {
	Total      int `json:"total"`
	Success    int `json:"success"`
	Failure    int `json:"failure"`
	Unresolved int `json:"unresolved"`
	Stars      int `json:"stars"`
}

// Rows flattens records. A record without Stats is reported as a failure.
func Rows(records []pipeline.ProjectRecord) []Row {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row := Row{Category: rec.Category, Name: rec.Name, URL: rec.URL}
		switch {
		case rec.Stats == nil:
			row.Status = pipeline.KindFailure
			row.Error = "not enriched"
		default:
			row.Status = rec.Stats.Kind
			row.Stars = rec.Stats.Stars
			row.Error = rec.Stats.Message
		}
		rows = append(rows, row)
	}
	return rows
}

// GroupByCategory sorts rows by category name, then by stars descending,
// then by name. Records arrive in fetch completion order, so this gives a
// stable presentation.
func GroupByCategory(rows []Row) []Row {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Stars != b.Stars {
			return a.Stars > b.Stars
		}
		return a.Name < b.Name
	})
	return sorted
}

// Summarize counts rows by status.
func Summarize(rows []Row) Summary {
	s := Summary{Total: len(rows)}
	for _, r := range rows {
		switch r.Status {
		case pipeline.KindSuccess:
			s.Success++
			s.Stars += r.Stars
		case pipeline.KindUnresolved:
			s.Unresolved++
		default:
			s.Failure++
		}
	}
	return s
}

// Write renders rows in the given format.
func Write(w io.Writer, format Format, rows []Row) error {
	switch format {
	case FormatTable, "":
		return WriteTable(w, rows)
	case FormatJSON:
		return WriteJSON(w, rows)
	case FormatCSV:
		return WriteCSV(w, rows)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteJSON writes rows as an indented JSON array.
func WriteJSON(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	return nil
}

var csvHeader = []string{"category", "name", "url", "stars", "status", "error"}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		rec := []string{r.Category, r.Name, r.URL, strconv.Itoa(r.Stars), string(r.Status), r.Error}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable writes aligned columns. Stars are blank for rows that did not
// succeed.
func WriteTable(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tNAME\tSTARS\tURL\tNOTE")
	for _, r := range rows {
		stars := ""
		note := r.Error
		switch r.Status {
		case pipeline.KindSuccess:
			stars = strconv.Itoa(r.Stars)
		case pipeline.KindUnresolved:
			note = "not a GitHub repository"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Category, r.Name, stars, r.URL, note)
	}
	return tw.Flush()
}
