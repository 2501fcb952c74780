package drilldown

import (
	"fmt"
	"sort"

	"receipts/internal/analytics"
	"receipts/internal/core"
)

const (
	levelCap = 10
	itemCap  = 12

	allCategories = "All categories"
	allMerchants  = "All merchants"
	unnamedItem   = "Unnamed item"
)

// Row is one visible bar or slice. Percent is relative to the visible rows.
type Row struct {
	Name    string                    `json:"name"`
	Value   float64                   `json:"value"`
	Percent float64                   `json:"percent"`
	Item    *analytics.LineItemRecord `json:"item,omitempty"`
}

// View is the resolved slice of one hierarchy.
type View struct {
	Rows        []Row    `json:"rows"`
	Breadcrumbs []string `json:"breadcrumbs"`
	Total       float64  `json:"total"`
	CanShowMore bool     `json:"canShowMore"`
	ShowingAll  bool     `json:"showingAll"`
}

type CategoryView struct {
	View
	State CategoryState `json:"state"`
}

type MerchantView struct {
	View
	State MerchantState `json:"state"`
}

// HealCategory returns the deepest ancestor of s that still exists in details.
func HealCategory(s CategoryState, details map[string]analytics.CategoryDetail) CategoryState {
	if len(details) == 0 || s.Level() == LevelMain {
		return CategoryState{}
	}
	detail, ok := details[s.category]
	if !ok {
		return CategoryState{}
	}
	if s.Level() == LevelItem {
		if _, ok := detail.Sub(s.sub); !ok {
			return s.Back()
		}
	}
	return s
}

// HealMerchant returns the deepest ancestor of s that still exists in drill.
func HealMerchant(s MerchantState, drill analytics.MerchantDrilldown) MerchantState {
	if s.Level() == LevelMerchant {
		return s
	}
	detail, ok := drill.Details[s.merchant]
	if !ok {
		return MerchantState{}
	}
	if s.Level() == LevelMerchantSub {
		if _, ok := detail.Category(s.category); !ok {
			return s.Back()
		}
	}
	return s
}

// ResolveCategory heals s against res and returns the visible rows.
// Main and sub levels show the top 10 unless showAll is set; the item level
// always shows the top 12.
func ResolveCategory(res analytics.Result, s CategoryState, showAll bool) CategoryView {
	s = HealCategory(s, res.CategoryDetails)

	var (
		rows       []Row
		limit      = levelCap
		expandable = true
	)
	switch s.Level() {
	case LevelMain:
		for _, name := range res.CategoryNames {
			rows = append(rows, Row{Name: name, Value: res.CategoryDetails[name].Total})
		}
	case LevelSub:
		for _, sub := range res.CategoryDetails[s.category].SubCategories {
			rows = append(rows, Row{Name: sub.Name, Value: sub.Total})
		}
	case LevelItem:
		limit = itemCap
		expandable = false
		detail := res.CategoryDetails[s.category]
		items := detail.Items
		if sub, ok := detail.Sub(s.sub); ok {
			items = sub.Items
		}
		for i := range items {
			it := items[i]
			rows = append(rows, Row{Name: it.Name, Value: it.Total, Item: &it})
		}
	}

	crumbs := []string{allCategories}
	if s.category != "" {
		crumbs = append(crumbs, s.category)
	}
	if s.sub != "" {
		crumbs = append(crumbs, s.sub)
	}

	view := build(rows, limit, expandable, showAll, crumbs)
	if s.Level() == LevelItem {
		dedupeLabels(view.Rows)
	}
	return CategoryView{View: view, State: s}
}

// ResolveMerchant heals s against res and returns the visible rows.
// Only the merchant level honours showAll; deeper levels show the top 10.
func ResolveMerchant(res analytics.Result, s MerchantState, showAll bool) MerchantView {
	drill := res.MerchantDrilldown
	s = HealMerchant(s, drill)

	var rows []Row
	switch s.Level() {
	case LevelMerchant:
		for _, m := range drill.Merchants {
			rows = append(rows, Row{Name: m.Name, Value: m.Value})
		}
	case LevelMerchantCategory:
		for _, c := range drill.Details[s.merchant].Categories {
			rows = append(rows, Row{Name: c.Name, Value: c.Total})
		}
	case LevelMerchantSub:
		cat, _ := drill.Details[s.merchant].Category(s.category)
		for _, sub := range cat.SubCategories {
			rows = append(rows, Row{Name: sub.Name, Value: sub.Total})
		}
	}

	crumbs := []string{allMerchants}
	if s.merchant != "" {
		crumbs = append(crumbs, s.merchant)
	}
	if s.category != "" {
		crumbs = append(crumbs, s.category)
	}
	view := build(rows, levelCap, s.Level() == LevelMerchant, showAll, crumbs)
	return MerchantView{View: view, State: s}
}

// build drops non-positive rows, ranks the rest, truncates to limit unless
// the level is expandable and showAll is set, then fills percents.
func build(rows []Row, limit int, expandable, showAll bool, crumbs []string) View {
	kept := make([]Row, 0, len(rows))
	for _, r := range rows {
		r.Value = core.Round2(r.Value)
		if r.Value > 0 {
			kept = append(kept, r)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Value > kept[j].Value })

	showAll = showAll && expandable
	view := View{
		Breadcrumbs: crumbs,
		CanShowMore: expandable && len(kept) > limit,
		ShowingAll:  showAll,
	}
	if !showAll && len(kept) > limit {
		kept = kept[:limit]
	}

	var total float64
	for _, r := range kept {
		total += r.Value
	}
	for i := range kept {
		if total > 0 {
			kept[i].Percent = core.Round2(kept[i].Value / total * 100)
		}
	}
	view.Rows = kept
	view.Total = core.Round2(total)
	return view
}

// dedupeLabels suffixes repeated names with " (n)" so chart categories stay
// distinct.
func dedupeLabels(rows []Row) {
	counts := make(map[string]int, len(rows))
	for i := range rows {
		if rows[i].Name == "" {
			rows[i].Name = unnamedItem
		}
		counts[rows[i].Name]++
	}
	seen := make(map[string]int, len(rows))
	for i := range rows {
		base := rows[i].Name
		if counts[base] > 1 {
			seen[base]++
			rows[i].Name = fmt.Sprintf("%s (%d)", base, seen[base])
		}
	}
}
