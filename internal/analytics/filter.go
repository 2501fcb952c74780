package analytics

import (
	"time"

	"receipts/internal/core"
	"receipts/internal/period"
)

// FilterByDateRange keeps receipts dated within [start of from's day, end of
// to's day]. Either bound may be nil. Undated receipts are dropped as soon
// as any bound is set.
func FilterByDateRange(receipts []core.Receipt, from, to *time.Time) []core.Receipt {
	if from == nil && to == nil {
		return receipts
	}
	var lo, hi time.Time
	if from != nil {
		lo = period.Start(core.Day, *from)
	}
	if to != nil {
		hi = period.Start(core.Day, *to).AddDate(0, 0, 1)
	}
	out := make([]core.Receipt, 0, len(receipts))
	for _, r := range receipts {
		if !r.Dated() {
			continue
		}
		t := *r.TransactionDate
		if from != nil && t.Before(lo) {
			continue
		}
		if to != nil && !t.Before(hi) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterForPeriod keeps dated receipts at or after the start of the bucket
// containing ref.
func FilterForPeriod(receipts []core.Receipt, g core.Granularity, ref time.Time) []core.Receipt {
	start := period.Start(g, ref)
	out := make([]core.Receipt, 0, len(receipts))
	for _, r := range receipts {
		if r.Dated() && !r.TransactionDate.Before(start) {
			out = append(out, r)
		}
	}
	return out
}
