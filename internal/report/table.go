// Package report renders human-readable previews of a sitemap build.
package report

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"sitemapgen/internal/models"
)

// minColumnWidth keeps the separator row at least "---".
const minColumnWidth = 3

// Entries renders the entries as a markdown table aligned by display width.
func Entries(entries []models.URLEntry) string {
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			e.Kind.String(),
			e.Loc,
			string(e.ChangeFreq),
			e.Priority.String(),
		})
	}

	return Table([]string{"#", "kind", "loc", "changefreq", "priority"}, rows)
}

// IDs renders extracted identifiers with their position in the source.
func IDs(ids []string) string {
	rows := make([][]string, 0, len(ids))
	for i, id := range ids {
		rows = append(rows, []string{strconv.Itoa(i + 1), id})
	}

	return Table([]string{"#", "id"}, rows)
}

// Table renders header and rows as a markdown table. Short rows are padded
// with empty cells; widths use terminal display width so CJK titles line up.
func Table(header []string, rows [][]string) string {
	colCount := len(header)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	colWidths := make([]int, colCount)

	measure := func(row []string) {
		for i := 0; i < len(row) && i < colCount; i++ {
			if w := runewidth.StringWidth(row[i]); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	measure(header)

	for _, row := range rows {
		measure(row)
	}

	for i := range colWidths {
		if colWidths[i] < minColumnWidth {
			colWidths[i] = minColumnWidth
		}
	}

	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, renderRow(header, colWidths, false))
	lines = append(lines, renderRow(nil, colWidths, true))

	for _, row := range rows {
		lines = append(lines, renderRow(row, colWidths, false))
	}

	return strings.Join(lines, "\n") + "\n"
}

func renderRow(row []string, colWidths []int, separator bool) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j, width := range colWidths {
		sb.WriteString(" ")

		if separator {
			sb.WriteString(strings.Repeat("-", width))
		} else {
			content := ""
			if j < len(row) {
				content = row[j]
			}

			sb.WriteString(content)

			if padding := width - runewidth.StringWidth(content); padding > 0 {
				sb.WriteString(strings.Repeat(" ", padding))
			}
		}

		sb.WriteString(" |")
	}

	return sb.String()
}
