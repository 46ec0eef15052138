// Package cli renders command output for the parts CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/hyperjump/parts/internal/importer"
	"github.com/hyperjump/parts/internal/models"
	"github.com/hyperjump/parts/internal/wordfreq"
	"github.com/hyperjump/parts/pkg/utils"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is indented JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("invalid output format %q (use text or json)", s)
}

const descriptionWidth = 60

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// WritePartPage writes one page of a listing.
func WritePartPage(w io.Writer, page *models.PartPage, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, page)
	}
	writePartTable(w, page.Items)
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("page %d of %d (%d parts, %d per page)",
		page.Page, page.TotalPages, page.TotalItems, page.PageSize)))
	return nil
}

// WritePages writes every page returned by a full paginated listing, in page order.
func WritePages(w io.Writer, pages map[int][]*models.Part, total int, format OutputFormat) error {
	if format == OutputJSON {
		out := make([][]*models.Part, 0, total)
		for p := 1; p <= total; p++ {
			out = append(out, pages[p])
		}
		return writeJSON(w, out)
	}
	for p := 1; p <= total; p++ {
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Page %d/%d", p, total)))
		writePartTable(w, pages[p])
		fmt.Fprintln(w)
	}
	return nil
}

func writePartTable(w io.Writer, parts []*models.Part) {
	if len(parts) == 0 {
		fmt.Fprintln(w, "No parts.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, headerStyle.Render("ID")+"\t"+headerStyle.Render("NAME")+"\t"+headerStyle.Render("SKU")+"\t"+
		headerStyle.Render("WEIGHT")+"\t"+headerStyle.Render("ACTIVE")+"\t"+headerStyle.Render("DESCRIPTION"))
	for _, p := range parts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d oz\t%s\t%s\n",
			p.ID, p.Name, p.SKU, p.WeightOunces, activeLabel(p.IsActive), utils.Truncate(p.Description, descriptionWidth))
	}
	_ = tw.Flush()
}

func activeLabel(v int) string {
	if v == 1 {
		return "yes"
	}
	return "no"
}

// WritePart writes a single part.
func WritePart(w io.Writer, p *models.Part, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, p)
	}
	fmt.Fprintln(w, headerStyle.Render(p.String()))
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%s\n", p.ID)
	fmt.Fprintf(tw, "Description:\t%s\n", p.Description)
	fmt.Fprintf(tw, "Weight:\t%d oz\n", p.WeightOunces)
	fmt.Fprintf(tw, "Active:\t%s\n", activeLabel(p.IsActive))
	fmt.Fprintf(tw, "Created:\t%s\n", p.CreatedAt.UTC().Format(models.DateTimeFormat))
	if p.UpdatedAt != nil {
		fmt.Fprintf(tw, "Updated:\t%s\n", p.UpdatedAt.UTC().Format(models.DateTimeFormat))
	}
	return tw.Flush()
}

// WriteSearchResults writes search hits.
func WriteSearchResults(w io.Writer, resp *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\nFound %d results in %dms\n", resp.Total, resp.QueryTime)
	if resp.AutoFuzzy {
		fmt.Fprintln(w, mutedStyle.Render("(no exact matches; showing approximate matches)"))
	}
	if len(resp.Suggestions) > 0 {
		fmt.Fprintln(w, warnStyle.Render("Did you mean: "+strings.Join(resp.Suggestions, ", ")+"?"))
	}
	fmt.Fprintln(w)
	for _, hit := range resp.Hits {
		fmt.Fprintf(w, "%d. %s  %s\n", hit.Rank, headerStyle.Render(hit.Part.Name), mutedStyle.Render(fmt.Sprintf("[%s] score %.4f", hit.Part.SKU, hit.Score)))
		if hit.Part.Description != "" {
			fmt.Fprintf(w, "   %s\n", utils.Truncate(hit.Part.Description, 200))
		}
	}
	return nil
}

// WriteWordCounts writes word frequencies, most frequent first.
func WriteWordCounts(w io.Writer, counts []wordfreq.WordCount, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]interface{}{"words": counts})
	}
	if len(counts) == 0 {
		fmt.Fprintln(w, "No words.")
		return nil
	}
	tw := newTable(w)
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%d\n", c.Word, c.Count)
	}
	return tw.Flush()
}

// WriteImportResult writes the outcome of an import.
func WriteImportResult(w io.Writer, res *importer.Result, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	label := "Imported"
	if res.File != "" {
		label += " " + res.File
	}
	fmt.Fprintf(w, "%s: %d inserted, %d rejected\n", label, res.Inserted, len(res.Errors))
	for _, e := range res.Errors {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  row %d: %s (%s) %s", e.Row, e.Field, e.Kind, e.Message)))
	}
	return nil
}

// WriteStatus writes the status document returned by the server (or built locally).
func WriteStatus(w io.Writer, status map[string]interface{}, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	writeSection(w, "", status)
	return nil
}

func writeSection(w io.Writer, indent string, m map[string]interface{}) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := m[k].(type) {
		case map[string]interface{}:
			fmt.Fprintln(w, indent+headerStyle.Render(k+":"))
			writeSection(w, indent+"  ", v)
		default:
			fmt.Fprintf(w, "%s%s: %v\n", indent, k, v)
		}
	}
}
