// Package normalize turns loosely shaped receipt records into core.Receipt
// values. It never fails: bad fields fall back to safe defaults.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"receipts/internal/core"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-01",
}

var separators = regexp.MustCompile(`[_-]+`)

// Options control normalization.
type Options struct {
	// Location is used for dates without an explicit offset. Defaults to UTC.
	Location *time.Location
	// StoreTypes resolves merchant → store type; nil keeps the record's own.
	StoreTypes *StoreTypeResolver
}

// Normalizer converts raw records. It is safe for concurrent use.
type Normalizer struct {
	loc    *time.Location
	stores *StoreTypeResolver
}

func New(opts Options) *Normalizer {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{
		loc:    loc,
		stores: opts.StoreTypes,
	}
}

// Normalize converts every record, preserving order.
func (n *Normalizer) Normalize(raws []RawReceipt) []core.Receipt {
	out := make([]core.Receipt, 0, len(raws))
	for i, raw := range raws {
		out = append(out, n.One(i, raw))
	}
	return out
}

// One converts a single record; index is its position in the source and is
// only used to derive a stable id when the record has none.
func (n *Normalizer) One(index int, raw RawReceipt) core.Receipt {
	merchant := raw.String(merchantFields...)
	if merchant == "" {
		merchant = core.UnknownMerchant
	}
	rawDate := raw.String(dateFields...)

	r := core.Receipt{
		ID:              raw.String(idFields...),
		MerchantName:    merchant,
		RawDate:         rawDate,
		TransactionDate: n.parseDate(rawDate),
		StoreType:       n.stores.Resolve(merchant, raw.String(storeTypeFields...)),
	}
	if r.ID == "" {
		seed := fmt.Sprintf("%d|%s|%s", index, merchant, rawDate)
		r.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
	}

	items := raw.Items()
	var itemsTotal float64
	for idx, item := range items {
		li := n.lineItem(idx, item)
		r.LineItems = append(r.LineItems, li)
		if lt, ok := lookupNumber(item, lineTotalFields); ok {
			itemsTotal += lt
		} else {
			itemsTotal += li.LineTotal()
		}
	}

	total, ok := lookupNumber(raw, totalFields)
	if !ok || total <= 0 {
		total = itemsTotal
	}
	if total < 0 {
		total = 0
	}
	r.TotalAmount = total
	return r
}

func (n *Normalizer) lineItem(idx int, item map[string]any) core.LineItem {
	price, ok := lookupNumber(item, priceFields)
	if !ok || price < 0 {
		price = 0
	}
	qty, ok := lookupNumber(item, quantityFields)
	if !ok || qty <= 0 {
		qty = 1
	}
	name := lookupString(item, itemNameFields)
	if name == "" {
		name = fmt.Sprintf("Item %d", idx+1)
	}
	return core.LineItem{
		Name:         name,
		UnitPrice:    price,
		Quantity:     qty,
		MainCategory: n.CategoryLabel(lookupString(item, mainCatFields), core.DefaultCategory),
		SubCategory:  n.CategoryLabel(lookupString(item, subCatFields), core.DefaultSubCat),
	}
}

// CategoryLabel turns "fresh_food" or "FRESH-FOOD" into "Fresh Food".
func (n *Normalizer) CategoryLabel(value, fallback string) string {
	value = separators.ReplaceAllString(value, " ")
	words := strings.Fields(value)
	if len(words) == 0 {
		return fallback
	}
	// Casers carry state, so each call gets its own.
	return cases.Title(language.Und).String(strings.Join(words, " "))
}

func (n *Normalizer) parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			t = t.In(n.loc)
			return &t
		}
	}
	return nil
}
