package cmd

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kishore1288/nodenewsearch/internal/sme"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	blockStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Margin(0, 0, 1, 2)

	nameStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)
)

// renderResults writes one bordered block per result, sorted by file name.
func renderResults(w io.Writer, results []sme.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, noDataStyle.Render("No documents matched the search."))
		return
	}

	slices.SortFunc(results, func(a, b sme.Result) int {
		return strings.Compare(a.Filename, b.Filename)
	})

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d document(s)", len(results))))
	for _, r := range results {
		fmt.Fprintln(w, renderResult(r))
	}
}

func renderResult(r sme.Result) string {
	var b strings.Builder
	b.WriteString(nameStyle.Render(r.Filename))
	if r.Description != "" {
		b.WriteString("\n" + r.Description)
	}
	if r.DownloadURL != "" {
		b.WriteString("\nDownload: " + r.DownloadURL)
	}
	if r.AnnotatorURL != "" {
		b.WriteString("\nAnnotate: " + r.AnnotatorURL)
	}
	for _, k := range slices.Sorted(maps.Keys(r.Metadata)) {
		fmt.Fprintf(&b, "\n%s: %s", k, r.Metadata[k])
	}

	meta := []string{"id " + r.FileID, "folder " + r.FolderID}
	if !r.ModifiedOn.IsZero() {
		meta = append(meta, "modified "+r.ModifiedOn.Format("2006-01-02"))
	}
	if len(r.Tags) > 0 {
		meta = append(meta, "tags "+strings.Join(r.Tags, ","))
	}
	b.WriteString("\n" + metaStyle.Render(strings.Join(meta, " | ")))
	if r.Degraded {
		b.WriteString("\n" + warnStyle.Render("some details could not be retrieved"))
	}
	return blockStyle.Render(b.String())
}

// renderTags writes tags with their counts, most used first.
func renderTags(w io.Writer, tags []sme.Tag) {
	if len(tags) == 0 {
		fmt.Fprintln(w, noDataStyle.Render("No tags found."))
		return
	}
	slices.SortStableFunc(tags, func(a, b sme.Tag) int { return b.Count - a.Count })

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d tag(s)", len(tags))))
	for _, t := range tags {
		fmt.Fprintf(w, "  %s %s\n", nameStyle.Render(t.Tag), metaStyle.Render(fmt.Sprintf("(%d)", t.Count)))
	}
}
