package sniffer

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
)

// FindHeaderRow returns the index of the first row with any non-empty cell. A sheet with
// no content falls back to row 0.
func FindHeaderRow(grid model.Grid) model.Detection[int] {
	for i, row := range grid {
		if !model.RowIsBlank(row) {
			return model.Detected(i, 1.0)
		}
	}
	return model.FellBack(0, "sheet has no non-empty row")
}

// RowLabels returns the trimmed text of each cell of row, padded to width.
func RowLabels(row []model.Cell, width int) []string {
	if width < len(row) {
		width = len(row)
	}
	labels := make([]string, width)
	for i := 0; i < len(row); i++ {
		labels[i] = strings.TrimSpace(row[i].Text())
	}
	return labels
}

// SyntheticLabel is the label given to a column without header text (1-based).
func SyntheticLabel(col int) string {
	return fmt.Sprintf("Col_%d", col+1)
}

// DedupeHeaders fills blank labels with Col_<n> and renames repeats by suffixing _1, _2, ...
// in order of appearance. Reserved names count as already taken.
func DedupeHeaders(labels []string, reserved ...string) []string {
	taken := make(map[string]bool, len(labels)+len(reserved))
	for _, r := range reserved {
		taken[r] = true
	}
	suffix := make(map[string]int)

	out := make([]string, len(labels))
	for i, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			l = SyntheticLabel(i)
		}

		name := l
		for n := suffix[l]; taken[name]; {
			n++
			name = fmt.Sprintf("%s_%d", l, n)
			suffix[l] = n
		}

		taken[name] = true
		out[i] = name
	}
	return out
}
