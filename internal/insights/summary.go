// Package insights derives headline statistics and short highlight texts
// from an aggregation result.
package insights

import (
	"math"

	"receipts/internal/analytics"
	"receipts/internal/core"
)

// Stats is the headline summary of one aggregation run.
type Stats struct {
	TotalReceipts         int                       `json:"totalReceipts"`
	TotalSpent            float64                   `json:"totalSpent"`
	AvgPerReceipt         float64                   `json:"avgPerReceipt"`
	MonthOverMonth        *float64                  `json:"monthOverMonth"`
	MonthOverMonthPercent *Percent                  `json:"monthOverMonthPercent"`
	ThisMonthSpent        float64                   `json:"thisMonthSpent"`
	ThisMonthCount        int                       `json:"thisMonthCount"`
	TopCategory           *string                   `json:"topCategory"`
	TopMerchant           *analytics.NameValue      `json:"topMerchant"`
	BusiestDay            *analytics.WeekdayEntry   `json:"busiestDay"`
	HighestReceipt        *analytics.HighestReceipt `json:"highestReceipt"`
}

// Summarize returns nil when the result covers no receipts.
func Summarize(res analytics.Result) *Stats {
	tally := res.Tally
	if tally.ReceiptCount == 0 {
		return nil
	}

	s := &Stats{
		TotalReceipts:  tally.ReceiptCount,
		TotalSpent:     tally.TotalSpent,
		AvgPerReceipt:  core.Round2(tally.TotalSpent / float64(tally.ReceiptCount)),
		ThisMonthSpent: tally.ThisMonthSpent,
		ThisMonthCount: tally.ThisMonthCount,
		HighestReceipt: tally.Highest,
	}

	if len(res.CategoryHierarchy) > 0 {
		name := res.CategoryHierarchy[0].Name
		s.TopCategory = &name
	}
	if len(res.MerchantSeries) > 0 {
		top := res.MerchantSeries[0]
		s.TopMerchant = &top
	}
	s.BusiestDay = busiest(res.WeekdaySeries)

	if n := len(res.MonthlySeries); n >= 2 {
		last, prev := res.MonthlySeries[n-1].Total, res.MonthlySeries[n-2].Total
		delta := core.Round2(last - prev)
		pct := Change(last, prev)
		s.MonthOverMonth = &delta
		s.MonthOverMonthPercent = &pct
	}
	return s
}

// Change is the percentage change from previous to current. Growth from
// zero is +Inf; zero to zero is 0.
func Change(current, previous float64) Percent {
	if previous == 0 {
		if current > 0 {
			return Percent(math.Inf(1))
		}
		return 0
	}
	return Percent((current - previous) / previous * 100)
}

func busiest(days []analytics.WeekdayEntry) *analytics.WeekdayEntry {
	var best *analytics.WeekdayEntry
	for i := range days {
		if best == nil || days[i].Value > best.Value {
			best = &days[i]
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}
