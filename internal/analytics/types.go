package analytics

import (
	"time"

	"receipts/internal/basket"
	"receipts/internal/core"
)

// Options select the reference instant and the chart granularities to build.
type Options struct {
	// Reference anchors timeframe totals and trailing item windows.
	Reference time.Time
	// Granularities limits timeline, category timeline and basket series.
	// Empty means all five.
	Granularities []core.Granularity
}

// Result is every derived view of one aggregation run. All money values
// are rounded to two decimals.
type Result struct {
	TimelineSeries          map[core.Granularity][]TimelineEntry  `json:"timelineSeries"`
	MonthlySeries           []TimelineEntry                       `json:"monthlySeries"`
	CategoryTimelineByFrame map[core.Granularity]CategoryTimeline `json:"categoryTimelineByFrame"`
	CategoryHierarchy       []HierarchyNode                       `json:"categoryHierarchy"`
	CategoryDetails         map[string]CategoryDetail             `json:"categoryDetails"`
	CategoryNames           []string                              `json:"categoryNames"`
	CategoryTreemap         []TreemapNode                         `json:"categoryTreemap"`
	MerchantSeries          []NameValue                           `json:"merchantSeries"`
	MerchantDrilldown       MerchantDrilldown                     `json:"merchantDrilldown"`
	WeekdaySeries           []WeekdayEntry                        `json:"weekdaySeries"`
	ItemTotals              []NameValue                           `json:"itemTotals"`
	ItemTotalsByGranularity map[core.Granularity][]NameValue      `json:"itemTotalsByGranularity"`
	ItemPriceTrends         []PriceTrend                          `json:"itemPriceTrends"`
	BasketByGranularity     map[core.Granularity][]BasketBucket   `json:"basketByGranularity"`
	BasketComposition       []BasketBucket                        `json:"basketComposition"`
	TimeframeTotals         map[core.Granularity]TimeframeTotal   `json:"timeframeInsights"`
	Tally                   Tally                                 `json:"tally"`
}

type (
	NameValue struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}

	TimelineEntry struct {
		Period     string  `json:"period"`
		Total      float64 `json:"total"`
		ChartLabel string  `json:"chartLabel"`
		SortKey    int64   `json:"sortKey"`
		Year       int     `json:"year"`
		Month      int     `json:"month"` // 1-12
		Quarter    int     `json:"quarter"`
	}

	CategoryTimeline struct {
		Categories []string                `json:"categories"`
		Entries    []CategoryTimelineEntry `json:"entries"`
	}

	CategoryTimelineEntry struct {
		Period     string             `json:"period"`
		SortKey    int64              `json:"sortKey"`
		ChartLabel string             `json:"chartLabel"`
		Year       int                `json:"year"`
		Month      int                `json:"month"`
		Quarter    int                `json:"quarter"`
		Totals     map[string]float64 `json:"totals"`
	}

	// HierarchyNode is a category with its sub-categories, both ranked by value.
	HierarchyNode struct {
		Name     string      `json:"name"`
		Value    float64     `json:"value"`
		Children []NameValue `json:"children"`
	}

	// LineItemRecord is one qualifying line item with enough receipt context
	// for drill-down tooltips.
	LineItemRecord struct {
		ID           string  `json:"id"`
		Name         string  `json:"name"`
		Total        float64 `json:"total"`
		Quantity     float64 `json:"quantity"`
		UnitPrice    float64 `json:"unitPrice"`
		Merchant     string  `json:"merchant"`
		Date         string  `json:"date"`
		MainCategory string  `json:"mainCategory"`
		SubCategory  string  `json:"subCategory"`

		raw float64
	}

	SubCategoryDetail struct {
		Name  string           `json:"name"`
		Total float64          `json:"total"`
		Items []LineItemRecord `json:"items"`
	}

	CategoryDetail struct {
		Name          string              `json:"name"`
		Total         float64             `json:"total"`
		Items         []LineItemRecord    `json:"items"`
		SubCategories []SubCategoryDetail `json:"subCategories"`
	}

	TreemapNode struct {
		Name     string        `json:"name"`
		Value    float64       `json:"value"`
		Children []TreemapNode `json:"children,omitempty"`
	}

	MerchantDrilldown struct {
		Merchants []NameValue               `json:"merchants"`
		Details   map[string]MerchantDetail `json:"details"`
	}

	MerchantDetail struct {
		Name       string             `json:"name"`
		Total      float64            `json:"total"`
		Categories []MerchantCategory `json:"categories"`
	}

	MerchantCategory struct {
		Name          string              `json:"name"`
		Total         float64             `json:"total"`
		SubCategories []SubCategoryDetail `json:"subCategories"`
	}

	WeekdayEntry struct {
		Name  string  `json:"name"`
		Short string  `json:"short"`
		Value float64 `json:"value"`
	}

	PricePoint struct {
		Date      string  `json:"date"`
		UnitPrice float64 `json:"unit_price"`
	}

	PriceTrend struct {
		ItemName string       `json:"itemName"`
		Data     []PricePoint `json:"data"`
	}

	BasketBucket struct {
		Period  string  `json:"period"`
		Healthy float64 `json:"healthy"`
		Snacks  float64 `json:"snacks"`
		Alcohol float64 `json:"alcohol"`
		Other   float64 `json:"other"`
	}

	// TimeframeTotal compares [currentStart, …) with [previousStart, currentStart).
	TimeframeTotal struct {
		Current  float64 `json:"current"`
		Previous float64 `json:"previous"`
	}

	HighestReceipt struct {
		Total    float64    `json:"total"`
		Merchant string     `json:"merchant"`
		Date     string     `json:"date"`
		At       *time.Time `json:"at,omitempty"`
	}

	// Tally holds per-receipt figures the summary is computed from.
	Tally struct {
		ReceiptCount   int             `json:"receiptCount"`
		TotalSpent     float64         `json:"totalSpent"`
		ThisMonthSpent float64         `json:"thisMonthSpent"`
		ThisMonthCount int             `json:"thisMonthCount"`
		Highest        *HighestReceipt `json:"highestReceipt"`
	}
)

// Sub looks up a sub-category by name.
func (c CategoryDetail) Sub(name string) (SubCategoryDetail, bool) {
	for _, s := range c.SubCategories {
		if s.Name == name {
			return s, true
		}
	}
	return SubCategoryDetail{}, false
}

// Category looks up one of the merchant's categories by name.
func (m MerchantDetail) Category(name string) (MerchantCategory, bool) {
	for _, c := range m.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return MerchantCategory{}, false
}

// Sub looks up a sub-category by name.
func (c MerchantCategory) Sub(name string) (SubCategoryDetail, bool) {
	for _, s := range c.SubCategories {
		if s.Name == name {
			return s, true
		}
	}
	return SubCategoryDetail{}, false
}

// Add adds amount to the column for class.
func (b *BasketBucket) Add(class basket.Class, amount float64) {
	switch class {
	case basket.Healthy:
		b.Healthy += amount
	case basket.Snacks:
		b.Snacks += amount
	case basket.Alcohol:
		b.Alcohol += amount
	default:
		b.Other += amount
	}
}
