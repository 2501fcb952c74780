package insights

import (
	"fmt"

	"receipts/internal/analytics"
	"receipts/internal/core"
)

var cardLabels = map[core.Granularity]string{
	core.Day:     "Today",
	core.Week:    "This week",
	core.Month:   "This month",
	core.Quarter: "This quarter",
	core.Year:    "This year",
}

// Card compares the current window with the one before it.
type Card struct {
	Timeframe    core.Granularity `json:"timeframe"`
	Label        string           `json:"label"`
	Current      float64          `json:"current"`
	Previous     float64          `json:"previous"`
	DeltaPercent Percent          `json:"deltaPercent"`
	DeltaLabel   string           `json:"deltaLabel"`
}

// TimeframeCards returns one card per granularity, finest first.
func TimeframeCards(res analytics.Result) []Card {
	cards := make([]Card, 0, len(core.Granularities))
	for _, g := range core.Granularities {
		tf := res.TimeframeTotals[g]
		delta := Change(tf.Current, tf.Previous)
		cards = append(cards, Card{
			Timeframe:    g,
			Label:        cardLabels[g],
			Current:      tf.Current,
			Previous:     tf.Previous,
			DeltaPercent: delta,
			DeltaLabel:   DeltaLabel(delta),
		})
	}
	return cards
}

// DeltaLabel renders "New" for +Inf, "—" for no change, else a signed
// percentage with one decimal.
func DeltaLabel(p Percent) string {
	switch {
	case p.IsInf():
		return "New"
	case p == 0:
		return "—"
	case p > 0:
		return fmt.Sprintf("+%.1f%%", float64(p))
	default:
		return fmt.Sprintf("%.1f%%", float64(p))
	}
}
