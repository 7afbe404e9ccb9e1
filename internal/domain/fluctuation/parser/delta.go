package parser

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Delta returns the gap curr-prev and the change as a percentage of |prev|.
// A zero baseline reports 0%, never NaN or Inf.
func Delta(curr, prev float64) (gap, pct float64) {
	c := decimal.NewFromFloat(curr)
	p := decimal.NewFromFloat(prev)
	g := c.Sub(p)

	gap = g.InexactFloat64()
	if p.IsZero() {
		return gap, 0
	}
	return gap, g.Div(p.Abs()).Mul(hundred).InexactFloat64()
}
