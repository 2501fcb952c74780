package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Day     Granularity = "day"
	Week    Granularity = "week"
	Month   Granularity = "month"
	Quarter Granularity = "quarter"
	Year    Granularity = "year"
)

const (
	UnknownMerchant = "Unknown merchant"
	DefaultCategory = "Other"
	DefaultSubCat   = "Misc"
	DefaultStore    = "Other"
)

type (
	// Granularity is the bucketing resolution of a time series.
	Granularity string

	Receipt struct {
		ID              string
		MerchantName    string
		TransactionDate *time.Time // nil when the source date could not be parsed
		RawDate         string
		TotalAmount     float64
		StoreType       string
		LineItems       []LineItem
	}

	LineItem struct {
		Name         string
		UnitPrice    float64
		Quantity     float64
		MainCategory string
		SubCategory  string
	}
)

var ErrInvalidGranularity = errors.New("invalid granularity")

// Granularities lists every supported granularity, finest first.
var Granularities = []Granularity{Day, Week, Month, Quarter, Year}

// ParseGranularity accepts a granularity name in any case.
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	if !g.IsValid() {
		return "", ErrInvalidGranularity
	}
	return g, nil
}

// IsValid reports whether g is one of the five supported granularities.
func (g Granularity) IsValid() bool {
	switch g {
	case Day, Week, Month, Quarter, Year:
		return true
	default:
		return false
	}
}

func (g Granularity) String() string {
	return string(g)
}

// LineTotal is unit price times quantity.
func (li LineItem) LineTotal() float64 {
	return li.UnitPrice * li.Quantity
}

// Qualifies reports whether the item takes part in aggregates.
func (li LineItem) Qualifies() bool {
	return li.LineTotal() > 0
}

// Dated reports whether the receipt carries a usable transaction date.
func (r Receipt) Dated() bool {
	return r.TransactionDate != nil
}

// ItemsTotal sums the line totals of every item, qualifying or not.
func (r Receipt) ItemsTotal() float64 {
	var sum float64
	for _, li := range r.LineItems {
		sum += li.LineTotal()
	}
	return sum
}
