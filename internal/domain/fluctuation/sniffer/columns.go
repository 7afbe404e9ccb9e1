package sniffer

import (
	"fmt"
	"unicode/utf8"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/normalizer"
)

const (
	// DefaultSampleSize is how many data rows below the header feed the statistical fallbacks
	DefaultSampleSize = 30
	// DateScoreThreshold is the minimum share of date-looking values for a fallback date column
	DateScoreThreshold = 0.5
)

var (
	dateTiers           = newTiered(dateKeywords)
	classificationTiers = newTiered(classificationKeywords)
	remarkTiers         = newTiered(remarkKeywords)
)

// ColumnRoles is the outcome of classifying a detail sheet's columns. A value of -1 means
// the role has no source column and its derived field stays empty.
type ColumnRoles struct {
	Date           model.Detection[int]
	Classification model.Detection[int]
	Remark         model.Detection[int]
}

// Diagnostics returns one record per role for the given sheet
func (r ColumnRoles) Diagnostics(sheet string) []model.Diagnostic {
	return []model.Diagnostic{
		r.Date.Diagnose(sheet, "date_column"),
		r.Classification.Diagnose(sheet, "classification_column"),
		r.Remark.Diagnose(sheet, "remark_column"),
	}
}

// ColumnProfile summarises the sampled values of one column.
type ColumnProfile struct {
	Index         int
	NonEmpty      int
	DateLike      int
	Numeric       int
	TextCount     int
	TextRuneTotal int
}

// DateScore is the share of non-empty sampled values that look like dates
func (p ColumnProfile) DateScore() float64 {
	if p.NonEmpty == 0 {
		return 0
	}
	return float64(p.DateLike) / float64(p.NonEmpty)
}

// AvgTextLength is the mean rune length of the non-numeric values.
func (p ColumnProfile) AvgTextLength() float64 {
	if p.TextCount == 0 {
		return 0
	}
	return float64(p.TextRuneTotal) / float64(p.TextCount)
}

// ProfileColumns profiles width columns over the sample rows.
func ProfileColumns(sample [][]model.Cell, width int) []ColumnProfile {
	profiles := make([]ColumnProfile, width)
	for i := range profiles {
		profiles[i].Index = i
	}

	for _, row := range sample {
		for col := 0; col < width && col < len(row); col++ {
			c := row[col]
			if c.IsBlank() {
				continue
			}
			p := &profiles[col]
			p.NonEmpty++
			if normalizer.LooksLikeDate(c) {
				p.DateLike++
			}
			if normalizer.IsNumeric(c) {
				p.Numeric++
				continue
			}
			p.TextCount++
			p.TextRuneTotal += utf8.RuneCountInString(normalizer.CollapseSpaces(c.Text()))
		}
	}
	return profiles
}

// ClassifyColumns picks the date, classification and remark columns of a detail sheet.
// Header keywords are tried first (left to right, first match wins); when they miss, the
// sampled rows decide. Nothing here fails: a role that cannot be resolved is -1.
func ClassifyColumns(headers []string, sample [][]model.Cell) ColumnRoles {
	width := len(headers)
	for _, row := range sample {
		if len(row) > width {
			width = len(row)
		}
	}
	profiles := ProfileColumns(sample, width)

	var roles ColumnRoles
	roles.Date = detectDateColumn(headers, profiles)
	roles.Classification = detectClassificationColumn(headers, profiles, roles.Date.Value)
	roles.Remark = detectRemarkColumn(headers, roles.Date.Value, roles.Classification.Value)
	return roles
}

func detectDateColumn(headers []string, profiles []ColumnProfile) model.Detection[int] {
	// Generic labels such as "Period" also head fiscal period numbers (1-12), so below the
	// first tier a keyword hit needs the sampled values to agree.
	for tier, ks := range dateTiers {
		var skipped []int
		for {
			col, kw := ks.FirstColumn(headers, skipped...)
			if col < 0 {
				break
			}
			if tier == 0 || sampleLooksLikeDates(profiles, col) {
				d := model.Detected(col, keywordConfidence(tier))
				d.Reason = fmt.Sprintf("header %q matched %q", headers[col], kw)
				return d
			}
			skipped = append(skipped, col)
		}
	}

	best, bestScore := -1, 0.0
	for _, p := range profiles {
		if s := p.DateScore(); s > DateScoreThreshold && s > bestScore {
			best, bestScore = p.Index, s
		}
	}
	if best < 0 {
		return model.FellBack(-1, "no date keyword and no column above the date-likeness threshold")
	}
	d := model.Detected(best, bestScore)
	d.Reason = "sampled values look like dates"
	return d
}

func detectClassificationColumn(headers []string, profiles []ColumnProfile, dateCol int) model.Detection[int] {
	if col, kw, tier := classificationTiers.find(headers, dateCol); col >= 0 {
		d := model.Detected(col, keywordConfidence(tier))
		d.Reason = fmt.Sprintf("header %q matched %q", headers[col], kw)
		return d
	}

	best, bestAvg := -1, 0.0
	for _, p := range profiles {
		if p.Index == dateCol {
			continue
		}
		if avg := p.AvgTextLength(); avg > bestAvg {
			best, bestAvg = p.Index, avg
		}
	}
	if best < 0 {
		return model.FellBack(-1, "no classification keyword and no text column in the sample")
	}

	p := profiles[best]
	d := model.Detected(best, float64(p.TextCount)/float64(p.NonEmpty))
	d.Reason = fmt.Sprintf("longest average text (%.1f chars)", bestAvg)
	return d
}

func detectRemarkColumn(headers []string, dateCol, classCol int) model.Detection[int] {
	col, kw, tier := remarkTiers.find(headers, dateCol)
	if col < 0 {
		return model.FellBack(-1, "no remark keyword")
	}
	d := model.Detected(col, keywordConfidence(tier))
	if col == classCol {
		d.Reason = fmt.Sprintf("header %q matched %q, shared with classification", headers[col], kw)
	} else {
		d.Reason = fmt.Sprintf("header %q matched %q", headers[col], kw)
	}
	return d
}

// sampleLooksLikeDates is true when the column has no sampled values or most of them read as
// dates.
func sampleLooksLikeDates(profiles []ColumnProfile, col int) bool {
	if col >= len(profiles) || profiles[col].NonEmpty == 0 {
		return true
	}
	return profiles[col].DateScore() > DateScoreThreshold
}

func keywordConfidence(tier int) float64 {
	if tier == 0 {
		return 1.0
	}
	return 0.8
}
