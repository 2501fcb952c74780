package insights

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"receipts/internal/core"
)

// Highlights turns stats into up to five sentences, skipping anything
// missing or zero. A nil stats yields none.
func Highlights(s *Stats) []string {
	out := []string{}
	if s == nil {
		return out
	}

	if s.TopCategory != nil {
		out = append(out, fmt.Sprintf("Most of your item-level spending flows into the %s category.", *s.TopCategory))
	}
	if s.TopMerchant != nil {
		out = append(out, fmt.Sprintf("Your highest spend with a single merchant is %s at %s.",
			FormatCurrency(s.TopMerchant.Value), s.TopMerchant.Name))
	}
	if p := s.MonthOverMonthPercent; p != nil {
		switch v := float64(*p); {
		case p.IsInf():
			out = append(out, "Spending resumed this month after no recorded spend in the previous month.")
		case v != 0 && !math.IsNaN(v) && !math.IsInf(v, 0):
			trend := "increased"
			if v < 0 {
				trend = "decreased"
			}
			out = append(out, fmt.Sprintf("Month-over-month spend %s by %.1f%% compared with the previous month.", trend, math.Abs(v)))
		}
	}
	if d := s.BusiestDay; d != nil && d.Value > 0 {
		out = append(out, fmt.Sprintf("Your biggest shopping day is %s, averaging %s.", d.Name, FormatCurrency(d.Value)))
	}
	if h := s.HighestReceipt; h != nil && h.Total > 0 {
		when := h.Date
		if h.At != nil {
			when = h.At.Format("02 Jan 2006")
		}
		if when == "" {
			when = "recently"
		}
		out = append(out, fmt.Sprintf("Largest single receipt: %s at %s on %s.", FormatCurrency(h.Total), h.Merchant, when))
	}
	return out
}

// FormatCurrency renders a pound amount with two decimals and en-GB digit
// grouping.
func FormatCurrency(v float64) string {
	p := message.NewPrinter(language.BritishEnglish)
	return p.Sprintf("£%.2f", core.Round2(v))
}
