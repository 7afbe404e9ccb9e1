package parser

import (
	"fmt"
	"time"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/normalizer"
)

// selectComparisonColumns fixes the MoM and YoY indices into table.AmountCols.
//
// MoM compares the last two amount columns. YoY compares the last column with the first
// non-cumulative one, which assumes the columns run chronologically and start one year back.
// With YoYByDate the baseline is instead the non-cumulative column whose date label is
// closest to twelve months before the current one.
func selectComparisonColumns(table *model.RekapTable, strategy YoYStrategy) []model.Diagnostic {
	n := len(table.AmountCols)
	if n < 2 {
		table.MomCurrIdx, table.MomPrevIdx, table.YoyCurrIdx, table.YoyPrevIdx = 0, 0, 0, 0
		return []model.Diagnostic{
			model.FellBack(0, fmt.Sprintf("%d amount column(s), need at least 2", n)).Diagnose("", "comparison_columns"),
		}
	}

	table.MomCurrIdx = n - 1
	table.MomPrevIdx = n - 2
	table.YoyCurrIdx = n - 1

	positional := positionalYoYBaseline(table.AmountCols)
	table.YoyPrevIdx = positional.Value
	diags := []model.Diagnostic{positional.Diagnose("", "yoy_previous_column")}

	if strategy != YoYByDate {
		return diags
	}

	byDate := dateYoYBaseline(table.AmountCols, table.YoyCurrIdx)
	if !byDate.Fallback {
		table.YoyPrevIdx = byDate.Value
	}
	return append(diags, byDate.Diagnose("", "yoy_previous_column_by_date"))
}

func positionalYoYBaseline(cols []model.AmountColumn) model.Detection[int] {
	for i, c := range cols {
		if !c.IsCumulative {
			d := model.Detected(i, 0.5)
			d.Reason = fmt.Sprintf("first point-in-time column %q", c.RawLabel)
			return d
		}
	}
	return model.FellBack(0, "every amount column is cumulative")
}

// dateYoYBaseline returns the non-cumulative column closest to (current - 12 months).
// Ties go to the leftmost column.
func dateYoYBaseline(cols []model.AmountColumn, curr int) model.Detection[int] {
	current, ok := columnMonth(cols[curr])
	if !ok {
		return model.FellBack(0, fmt.Sprintf("current column label %q has no recognisable month", cols[curr].DateLabel))
	}
	target := current.AddDate(-1, 0, 0)

	best, bestDist := -1, 0
	for i, c := range cols {
		if i == curr || c.IsCumulative {
			continue
		}
		t, ok := columnMonth(c)
		if !ok {
			continue
		}
		dist := normalizer.MonthsBetween(target, t)
		if dist < 0 {
			dist = -dist
		}
		if best < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}

	if best < 0 {
		return model.FellBack(0, "no other column label has a recognisable month")
	}
	d := model.Detected(best, 1/float64(1+bestDist))
	d.Reason = fmt.Sprintf("%q is %d month(s) from %s", cols[best].DateLabel, bestDist, target.Format("2006-01"))
	return d
}

func columnMonth(c model.AmountColumn) (time.Time, bool) {
	return normalizer.ParseMonthLabel(c.DateLabel, c.YearLabel)
}
