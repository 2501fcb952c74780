// Package analytics turns normalized receipts into the derived views a
// spending dashboard charts.
//
// Aggregate is a pure function of its inputs. It keeps raw float sums while
// accumulating and rounds to two decimals only when building the result.
package analytics

import (
	"fmt"
	"strings"
	"time"

	"receipts/internal/basket"
	"receipts/internal/core"
	"receipts/internal/period"
)

const (
	topItemCount     = 12
	topMerchantCount = 8
	treemapItemCount = 8
)

var weekdayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

type (
	window struct {
		currentStart  time.Time
		previousStart time.Time
		current       float64
		previous      float64
		items         *ordered[string, float64]
	}

	timelineAcc struct {
		bucket period.Bucket
		total  float64
	}

	categoryTimelineAcc struct {
		bucket period.Bucket
		totals *ordered[string, float64]
	}

	basketAcc struct {
		bucket period.Bucket
		sums   BasketBucket
	}

	subAcc struct {
		total float64
		items []LineItemRecord
	}

	categoryAcc struct {
		total float64
		items []LineItemRecord
		subs  *ordered[string, subAcc]
	}

	merchantAcc struct {
		total      float64
		categories *ordered[string, categoryAcc]
	}

	priceAcc struct {
		sum   float64
		count int
	}

	accumulator struct {
		classifier basket.Table

		windows          map[core.Granularity]*window
		timeline         map[core.Granularity]*ordered[int64, timelineAcc]
		categoryTimeline map[core.Granularity]*ordered[int64, categoryTimelineAcc]
		baskets          map[core.Granularity]*ordered[int64, basketAcc]

		categories       *ordered[string, categoryAcc]
		merchants        *ordered[string, merchantAcc]
		merchantReceipts *ordered[string, float64]
		itemTotals       *ordered[string, float64]
		prices           *ordered[string, *ordered[string, priceAcc]]
		weekdays         [7]float64

		count          int
		totalSpent     float64
		thisMonthCount int
		highest        *HighestReceipt
	}
)

// Aggregate runs one pass over receipts and builds every derived view.
// Receipt order only matters for tie-breaks between equal values.
func Aggregate(receipts []core.Receipt, opts Options) Result {
	return AggregateWith(basket.DefaultTable, receipts, opts)
}

// AggregateWith is Aggregate with a custom basket classification table.
func AggregateWith(classifier basket.Table, receipts []core.Receipt, opts Options) Result {
	acc := newAccumulator(classifier, opts.Reference)
	for i := range receipts {
		acc.addReceipt(&receipts[i])
	}
	return acc.result(requested(opts.Granularities))
}

func requested(gs []core.Granularity) []core.Granularity {
	if len(gs) == 0 {
		return core.Granularities
	}
	seen := make(map[core.Granularity]bool, len(gs))
	out := make([]core.Granularity, 0, len(gs))
	for _, g := range gs {
		if g.IsValid() && !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}

func newAccumulator(classifier basket.Table, ref time.Time) *accumulator {
	acc := &accumulator{
		classifier:       classifier,
		windows:          make(map[core.Granularity]*window, len(core.Granularities)),
		timeline:         make(map[core.Granularity]*ordered[int64, timelineAcc], len(core.Granularities)),
		categoryTimeline: make(map[core.Granularity]*ordered[int64, categoryTimelineAcc], len(core.Granularities)),
		baskets:          make(map[core.Granularity]*ordered[int64, basketAcc], len(core.Granularities)),
		categories:       newOrdered[string, categoryAcc](),
		merchants:        newOrdered[string, merchantAcc](),
		merchantReceipts: newOrdered[string, float64](),
		itemTotals:       newOrdered[string, float64](),
		prices:           newOrdered[string, *ordered[string, priceAcc]](),
	}
	for _, g := range core.Granularities {
		acc.windows[g] = &window{
			currentStart:  period.Start(g, ref),
			previousStart: period.Previous(g, ref),
			items:         newOrdered[string, float64](),
		}
		acc.timeline[g] = newOrdered[int64, timelineAcc]()
		acc.categoryTimeline[g] = newOrdered[int64, categoryTimelineAcc]()
		acc.baskets[g] = newOrdered[int64, basketAcc]()
	}
	return acc
}

func (a *accumulator) addReceipt(r *core.Receipt) {
	total := r.TotalAmount
	merchant := r.MerchantName
	if merchant == "" {
		merchant = core.UnknownMerchant
	}

	a.count++
	a.totalSpent += total
	if a.highest == nil || total > a.highest.Total {
		a.highest = &HighestReceipt{Total: total, Merchant: merchant, Date: r.RawDate, At: r.TransactionDate}
	}

	if r.Dated() {
		t := *r.TransactionDate
		for g, w := range a.windows {
			switch {
			case !t.Before(w.currentStart):
				w.current += total
				if g == core.Month {
					a.thisMonthCount++
				}
			case !t.Before(w.previousStart):
				w.previous += total
			}
		}
		a.weekdays[t.Weekday()] += total
		for _, g := range core.Granularities {
			b := period.Of(g, t)
			a.timeline[g].at(b.SortKey, func() timelineAcc {
				return timelineAcc{bucket: b}
			}).total += total
		}
	}

	*a.merchantReceipts.at(merchant, zero[float64]) += total

	for idx, li := range r.LineItems {
		if li.Qualifies() {
			a.addItem(r, merchant, idx, li)
		}
	}
}

func (a *accumulator) addItem(r *core.Receipt, merchant string, idx int, li core.LineItem) {
	lineTotal := li.LineTotal()
	mainCategory := orDefault(li.MainCategory, core.DefaultCategory)
	subCategory := orDefault(li.SubCategory, core.DefaultSubCat)
	itemKey := strings.TrimSpace(li.Name)
	if itemKey == "" {
		itemKey = fmt.Sprintf("Item %d", idx+1)
	}

	receiptID := r.ID
	if receiptID == "" {
		receiptID = "receipt"
	}
	record := LineItemRecord{
		ID:           fmt.Sprintf("%s-%d", receiptID, idx),
		Name:         li.Name,
		Total:        core.Round2(lineTotal),
		Quantity:     li.Quantity,
		UnitPrice:    li.UnitPrice,
		Merchant:     merchant,
		Date:         r.RawDate,
		MainCategory: mainCategory,
		SubCategory:  subCategory,
		raw:          lineTotal,
	}

	cat := a.categories.at(mainCategory, newCategoryAcc)
	cat.total += lineTotal
	cat.items = append(cat.items, record)
	sub := cat.subs.at(subCategory, zero[subAcc])
	sub.total += lineTotal
	sub.items = append(sub.items, record)

	m := a.merchants.at(merchant, func() merchantAcc {
		return merchantAcc{categories: newOrdered[string, categoryAcc]()}
	})
	m.total += lineTotal
	mc := m.categories.at(mainCategory, newCategoryAcc)
	mc.total += lineTotal
	ms := mc.subs.at(subCategory, zero[subAcc])
	ms.total += lineTotal
	ms.items = append(ms.items, record)

	*a.itemTotals.at(itemKey, zero[float64]) += lineTotal

	if !r.Dated() {
		return
	}
	t := *r.TransactionDate

	if li.UnitPrice > 0 {
		history := *a.prices.at(itemKey, newOrdered[string, priceAcc])
		p := history.at(t.Format("2006-01-02"), zero[priceAcc])
		p.sum += li.UnitPrice
		p.count++
	}

	for _, w := range a.windows {
		if !t.Before(w.currentStart) {
			*w.items.at(itemKey, zero[float64]) += lineTotal
		}
	}

	class := a.classifier.Classify(mainCategory, subCategory, li.Name)
	for _, g := range core.Granularities {
		b := period.Of(g, t)
		a.baskets[g].at(b.SortKey, func() basketAcc {
			return basketAcc{bucket: b, sums: BasketBucket{Period: b.Key}}
		}).sums.Add(class, lineTotal)

		ct := a.categoryTimeline[g].at(b.SortKey, func() categoryTimelineAcc {
			return categoryTimelineAcc{bucket: b, totals: newOrdered[string, float64]()}
		})
		*ct.totals.at(mainCategory, zero[float64]) += lineTotal
	}
}

func newCategoryAcc() categoryAcc {
	return categoryAcc{subs: newOrdered[string, subAcc]()}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
