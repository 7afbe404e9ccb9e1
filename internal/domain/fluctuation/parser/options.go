package parser

import (
	"log/slog"

	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/model"
	"github.com/FACorreiaa/sig-activa/internal/domain/fluctuation/sniffer"
)

// YoYStrategy selects how the year-over-year baseline column is chosen.
type YoYStrategy string

const (
	// YoYByPosition takes the first non-cumulative amount column as one year ago.
	YoYByPosition YoYStrategy = "position"
	// YoYByDate parses the amount column date labels and takes the one closest to
	// twelve months before the current column. Falls back to YoYByPosition.
	YoYByDate YoYStrategy = "date"
)

// Options tunes the heuristics. The zero value is not usable; start from DefaultOptions.
type Options struct {
	// DetailSampleRows feeds the column classifier of detail sheets.
	DetailSampleRows int
	// HeaderScanRows bounds the search for the rekap two-row header block.
	HeaderScanRows int
	// AccountSampleRows rows below the rekap header are checked for account codes.
	AccountSampleRows int
	// AccountMinMatches is how many sampled rows must hold a 5+ digit code.
	AccountMinMatches int
	// AmountSampleRows rows below the rekap header are checked for numbers.
	AmountSampleRows int
	// AmountDensity is the minimum share of numeric non-empty cells for an amount column.
	AmountDensity float64
	// RekapSheet forces the rekap sheet when the workbook has zero or several candidates.
	RekapSheet  string
	YoYStrategy YoYStrategy

	Logger *slog.Logger
}

// DefaultOptions returns the standard heuristics configuration
func DefaultOptions() Options {
	return Options{
		DetailSampleRows:  sniffer.DefaultSampleSize,
		HeaderScanRows:    10,
		AccountSampleRows: 20,
		AccountMinMatches: 2,
		AmountSampleRows:  25,
		AmountDensity:     0.4,
		YoYStrategy:       YoYByPosition,
		Logger:            slog.Default(),
	}
}

// withDefaults fills zero fields so callers may set only what they change.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DetailSampleRows <= 0 {
		o.DetailSampleRows = d.DetailSampleRows
	}
	if o.HeaderScanRows <= 0 {
		o.HeaderScanRows = d.HeaderScanRows
	}
	if o.AccountSampleRows <= 0 {
		o.AccountSampleRows = d.AccountSampleRows
	}
	if o.AccountMinMatches <= 0 {
		o.AccountMinMatches = d.AccountMinMatches
	}
	if o.AmountSampleRows <= 0 {
		o.AmountSampleRows = d.AmountSampleRows
	}
	if o.AmountDensity <= 0 {
		o.AmountDensity = d.AmountDensity
	}
	if o.YoYStrategy == "" {
		o.YoYStrategy = d.YoYStrategy
	}
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	return o
}

// record logs a detection and returns its diagnostic. Fallbacks are warnings.
func (o Options) record(d model.Diagnostic) model.Diagnostic {
	if d.Fallback {
		o.Logger.Warn("heuristic fell back",
			slog.String("sheet", d.Sheet),
			slog.String("step", d.Step),
			slog.String("value", d.Value),
			slog.String("reason", d.Reason))
	} else {
		o.Logger.Debug("heuristic detected",
			slog.String("sheet", d.Sheet),
			slog.String("step", d.Step),
			slog.String("value", d.Value),
			slog.Float64("confidence", d.Confidence))
	}
	return d
}
