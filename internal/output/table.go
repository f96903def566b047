package output

import (
	"strings"

	"tegdb/internal/types"
)

type tableFormatter struct{}

func (tableFormatter) FormatResult(columns []string, rows [][]types.Value) (string, error) {
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len(c)
	}
	cells := make([][]string, len(rows))
	for r, row := range rows {
		cells[r] = make([]string, len(columns))
		for i := range columns {
			text := ""
			if i < len(row) {
				text = cellText(row[i])
			}
			cells[r][i] = text
			if len(text) > widths[i] {
				widths[i] = len(text)
			}
		}
	}

	var sb strings.Builder
	writeRow(&sb, columns, widths)
	writeSeparator(&sb, widths)
	for _, row := range cells {
		writeRow(&sb, row, widths)
	}
	return sb.String(), nil
}

func writeRow(sb *strings.Builder, cells []string, widths []int) {
	sb.WriteString("|")
	for i, c := range cells {
		sb.WriteString(" ")
		sb.WriteString(c)
		sb.WriteString(strings.Repeat(" ", widths[i]-len(c)))
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

func writeSeparator(sb *strings.Builder, widths []int) {
	sb.WriteString("|")
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w+2))
		sb.WriteString("|")
	}
	sb.WriteString("\n")
}
