package analytics

import (
	"sort"
	"strings"

	"receipts/internal/core"
	"receipts/internal/period"
)

func (a *accumulator) result(grans []core.Granularity) Result {
	res := Result{
		TimelineSeries:          make(map[core.Granularity][]TimelineEntry, len(grans)),
		MonthlySeries:           []TimelineEntry{},
		CategoryTimelineByFrame: make(map[core.Granularity]CategoryTimeline, len(grans)),
		CategoryHierarchy:       []HierarchyNode{},
		CategoryDetails:         make(map[string]CategoryDetail, a.categories.len()),
		CategoryNames:           []string{},
		CategoryTreemap:         []TreemapNode{},
		MerchantSeries:          topN(rankedValues(a.merchantReceipts), topMerchantCount),
		MerchantDrilldown:       MerchantDrilldown{Merchants: []NameValue{}, Details: map[string]MerchantDetail{}},
		WeekdaySeries:           []WeekdayEntry{},
		ItemTotals:              topN(rankedValues(a.itemTotals), topItemCount),
		ItemTotalsByGranularity: make(map[core.Granularity][]NameValue, len(core.Granularities)),
		ItemPriceTrends:         a.priceTrends(),
		BasketByGranularity:     make(map[core.Granularity][]BasketBucket, len(grans)),
		TimeframeTotals:         make(map[core.Granularity]TimeframeTotal, len(core.Granularities)),
		Tally:                   a.tally(),
	}

	for _, g := range grans {
		res.TimelineSeries[g] = timelineEntries(a.timeline[g])
		res.CategoryTimelineByFrame[g] = categoryTimeline(a.categoryTimeline[g])
		res.BasketByGranularity[g] = basketEntries(a.baskets[g])
	}
	res.MonthlySeries = timelineEntries(a.timeline[core.Month])
	res.BasketComposition = basketEntries(a.baskets[core.Month])

	for _, g := range core.Granularities {
		w := a.windows[g]
		res.ItemTotalsByGranularity[g] = topN(rankedValues(w.items), topItemCount)
		res.TimeframeTotals[g] = TimeframeTotal{
			Current:  core.Round2(w.current),
			Previous: core.Round2(w.previous),
		}
	}

	if a.count > 0 {
		for i, name := range weekdayNames {
			res.WeekdaySeries = append(res.WeekdaySeries, WeekdayEntry{
				Name:  name,
				Short: name[:3],
				Value: core.Round2(a.weekdays[i]),
			})
		}
	}

	a.buildCategories(&res)
	a.buildMerchants(&res)
	return res
}

func (a *accumulator) tally() Tally {
	t := Tally{
		ReceiptCount:   a.count,
		TotalSpent:     core.Round2(a.totalSpent),
		ThisMonthSpent: core.Round2(a.windows[core.Month].current),
		ThisMonthCount: a.thisMonthCount,
	}
	if a.highest != nil {
		h := *a.highest
		h.Total = core.Round2(h.Total)
		t.Highest = &h
	}
	return t
}

func (a *accumulator) buildCategories(res *Result) {
	a.categories.each(func(name string, c *categoryAcc) {
		subs := subDetails(c.subs, false)
		children := make([]NameValue, 0, len(subs))
		for _, s := range subs {
			children = append(children, NameValue{Name: s.Name, Value: s.Total})
		}
		res.CategoryHierarchy = append(res.CategoryHierarchy, HierarchyNode{
			Name:     name,
			Value:    core.Round2(c.total),
			Children: children,
		})
		res.CategoryDetails[name] = CategoryDetail{
			Name:          name,
			Total:         core.Round2(c.total),
			Items:         c.items,
			SubCategories: subs,
		}
	})
	sort.SliceStable(res.CategoryHierarchy, func(i, j int) bool {
		return res.CategoryHierarchy[i].Value > res.CategoryHierarchy[j].Value
	})

	for _, node := range res.CategoryHierarchy {
		res.CategoryNames = append(res.CategoryNames, node.Name)
		if node.Value <= 0 {
			continue
		}
		detail := res.CategoryDetails[node.Name]
		tm := TreemapNode{Name: node.Name, Value: node.Value}
		for _, sub := range detail.SubCategories {
			if sub.Total <= 0 {
				continue
			}
			tm.Children = append(tm.Children, TreemapNode{
				Name:     sub.Name,
				Value:    sub.Total,
				Children: groupItemsByName(sub.Items, treemapItemCount),
			})
		}
		res.CategoryTreemap = append(res.CategoryTreemap, tm)
	}
}

func (a *accumulator) buildMerchants(res *Result) {
	a.merchants.each(func(name string, m *merchantAcc) {
		total := core.Round2(m.total)
		detail := MerchantDetail{Name: name, Total: total, Categories: []MerchantCategory{}}
		m.categories.each(func(catName string, c *categoryAcc) {
			detail.Categories = append(detail.Categories, MerchantCategory{
				Name:          catName,
				Total:         core.Round2(c.total),
				SubCategories: subDetails(c.subs, true),
			})
		})
		sort.SliceStable(detail.Categories, func(i, j int) bool {
			return detail.Categories[i].Total > detail.Categories[j].Total
		})
		res.MerchantDrilldown.Merchants = append(res.MerchantDrilldown.Merchants, NameValue{Name: name, Value: total})
		res.MerchantDrilldown.Details[name] = detail
	})
	sort.SliceStable(res.MerchantDrilldown.Merchants, func(i, j int) bool {
		return res.MerchantDrilldown.Merchants[i].Value > res.MerchantDrilldown.Merchants[j].Value
	})
}

// subDetails ranks sub-categories by total. With sortItems the item records
// inside each sub-category are ranked as well.
func subDetails(subs *ordered[string, subAcc], sortItems bool) []SubCategoryDetail {
	out := make([]SubCategoryDetail, 0, subs.len())
	subs.each(func(name string, s *subAcc) {
		items := s.items
		if sortItems {
			items = append([]LineItemRecord(nil), s.items...)
			sort.SliceStable(items, func(i, j int) bool { return items[i].Total > items[j].Total })
		}
		out = append(out, SubCategoryDetail{Name: name, Total: core.Round2(s.total), Items: items})
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

// groupItemsByName merges records whose trimmed names match case-insensitively,
// keeping the first spelling seen.
func groupItemsByName(items []LineItemRecord, limit int) []TreemapNode {
	type group struct {
		name  string
		value float64
	}
	groups := newOrdered[string, group]()
	for _, item := range items {
		if item.raw <= 0 {
			continue
		}
		name := strings.TrimSpace(item.Name)
		if name == "" {
			name = "Line item"
		}
		g := groups.at(strings.ToLower(name), func() group { return group{name: name} })
		g.value += item.raw
	}
	out := make([]TreemapNode, 0, groups.len())
	groups.each(func(_ string, g *group) {
		out = append(out, TreemapNode{Name: g.name, Value: core.Round2(g.value)})
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (a *accumulator) priceTrends() []PriceTrend {
	out := []PriceTrend{}
	a.prices.each(func(item string, history **ordered[string, priceAcc]) {
		points := []PricePoint{}
		(*history).each(func(day string, p *priceAcc) {
			price := core.Round2(p.sum / float64(p.count))
			if price > 0 {
				points = append(points, PricePoint{Date: day, UnitPrice: price})
			}
		})
		if len(points) < 2 {
			return
		}
		// yyyy-mm-dd keys order chronologically as strings.
		sort.SliceStable(points, func(i, j int) bool { return points[i].Date < points[j].Date })
		out = append(out, PriceTrend{ItemName: item, Data: points})
	})
	return out
}

func rankedValues(m *ordered[string, float64]) []NameValue {
	out := make([]NameValue, 0, m.len())
	m.each(func(name string, v *float64) {
		out = append(out, NameValue{Name: name, Value: core.Round2(*v)})
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

func topN(values []NameValue, n int) []NameValue {
	if len(values) > n {
		return values[:n]
	}
	return values
}

func sortedBuckets[V any](m *ordered[int64, V]) []int64 {
	keys := append([]int64(nil), m.keys...)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func timelineEntries(m *ordered[int64, timelineAcc]) []TimelineEntry {
	out := make([]TimelineEntry, 0, m.len())
	for _, k := range sortedBuckets(m) {
		acc, _ := m.get(k)
		b := acc.bucket
		out = append(out, TimelineEntry{
			Period:     b.Key,
			Total:      core.Round2(acc.total),
			ChartLabel: b.Label,
			SortKey:    b.SortKey,
			Year:       b.Start.Year(),
			Month:      int(b.Start.Month()),
			Quarter:    period.QuarterOf(b.Start),
		})
	}
	return out
}

func categoryTimeline(m *ordered[int64, categoryTimelineAcc]) CategoryTimeline {
	ct := CategoryTimeline{Categories: []string{}, Entries: []CategoryTimelineEntry{}}
	seen := make(map[string]bool)
	for _, k := range sortedBuckets(m) {
		acc, _ := m.get(k)
		b := acc.bucket
		totals := make(map[string]float64, acc.totals.len())
		acc.totals.each(func(name string, v *float64) {
			totals[name] = core.Round2(*v)
			if !seen[name] {
				seen[name] = true
				ct.Categories = append(ct.Categories, name)
			}
		})
		ct.Entries = append(ct.Entries, CategoryTimelineEntry{
			Period:     b.Key,
			SortKey:    b.SortKey,
			ChartLabel: b.Label,
			Year:       b.Start.Year(),
			Month:      int(b.Start.Month()),
			Quarter:    period.QuarterOf(b.Start),
			Totals:     totals,
		})
	}
	return ct
}

func basketEntries(m *ordered[int64, basketAcc]) []BasketBucket {
	out := make([]BasketBucket, 0, m.len())
	for _, k := range sortedBuckets(m) {
		acc, _ := m.get(k)
		s := acc.sums
		out = append(out, BasketBucket{
			Period:  s.Period,
			Healthy: core.Round2(s.Healthy),
			Snacks:  core.Round2(s.Snacks),
			Alcohol: core.Round2(s.Alcohol),
			Other:   core.Round2(s.Other),
		})
	}
	return out
}
