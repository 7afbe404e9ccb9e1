package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Palette
const (
	colorWhite = "#FFFFFF"

	colorHeaderOriginal = "#1F4E78"
	colorHeaderSystem   = "#548235"

	colorStripeEven = "#FFFFFF"
	colorStripeOdd  = "#F2F2F2"

	colorAmountCumulative = "#BF8F00"
	colorAmountPrevious   = "#2F5597"
	colorAmountCurrent    = "#C55A11"
	colorTintCumulative   = "#FFF2CC"
	colorTintPrevious     = "#DDEBF7"
	colorTintCurrent      = "#FCE4D6"

	colorMoMHeader    = "#375623"
	colorMoMReason    = "#70AD47"
	colorYoYHeader    = "#7030A0"
	colorYoYReason    = "#9966CC"
	colorSystemTint   = "#F3F9EE"
	colorYoYTint      = "#F4EEF9"
	colorCategoryRow  = "#D9D9D9"
	colorSubtotalRow  = "#FFE699"
	colorPositiveFont = "#006100"
	colorPositiveFill = "#C6EFCE"
	colorNegativeFont = "#9C0006"
	colorNegativeFill = "#FFC7CE"
	colorNeutralFont  = "#404040"
	colorBorder       = "#BFBFBF"
)

const (
	numFmtAmount  = "#,##0.00"
	numFmtPercent = 10 // 0.00%
)

type numberFormat uint8

const (
	formatGeneral numberFormat = iota
	formatAmount
	formatPercent
)

// styleKey describes one cell look. Equal keys share one excelize style ID.
type styleKey struct {
	fill   string
	font   string
	bold   bool
	format numberFormat
	align  string
	wrap   bool
}

// styleCache creates excelize styles lazily, one per distinct key.
type styleCache struct {
	f   *excelize.File
	ids map[styleKey]int
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{f: f, ids: make(map[styleKey]int)}
}

func (c *styleCache) get(k styleKey) (int, error) {
	if id, ok := c.ids[k]; ok {
		return id, nil
	}

	style := &excelize.Style{
		Border: []excelize.Border{
			{Type: "left", Color: colorBorder, Style: 1},
			{Type: "top", Color: colorBorder, Style: 1},
			{Type: "right", Color: colorBorder, Style: 1},
			{Type: "bottom", Color: colorBorder, Style: 1},
		},
		Font:      &excelize.Font{Bold: k.bold, Color: k.font, Family: "Calibri", Size: 10},
		Alignment: &excelize.Alignment{Horizontal: k.align, Vertical: "center", WrapText: k.wrap},
	}
	if k.fill != "" {
		style.Fill = excelize.Fill{Type: "pattern", Color: []string{k.fill}, Pattern: 1}
	}
	switch k.format {
	case formatAmount:
		fmtStr := numFmtAmount
		style.CustomNumFmt = &fmtStr
	case formatPercent:
		style.NumFmt = numFmtPercent
	}

	id, err := c.f.NewStyle(style)
	if err != nil {
		return 0, fmt.Errorf("create style: %w", err)
	}
	c.ids[k] = id
	return id, nil
}

func headerKey(fill string) styleKey {
	return styleKey{fill: fill, font: colorWhite, bold: true, align: "center", wrap: true}
}

func stripe(i int) string {
	if i%2 == 1 {
		return colorStripeOdd
	}
	return colorStripeEven
}

// signColors returns font and fill for a GAP or percentage value
func signColors(v float64) (font, fill string) {
	switch {
	case v > 0:
		return colorPositiveFont, colorPositiveFill
	case v < 0:
		return colorNegativeFont, colorNegativeFill
	}
	return colorNeutralFont, ""
}
