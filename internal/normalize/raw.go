package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"receipts/internal/core"
)

// RawReceipt is a receipt record as delivered by a source, with whatever
// field spellings and value types that source uses.
type RawReceipt map[string]any

// Field aliases, in lookup order.
var (
	idFields        = []string{"id", "receipt_id", "receiptId"}
	merchantFields  = []string{"merchant_name", "merchantName", "merchant"}
	totalFields     = []string{"total_amount", "totalAmount", "total"}
	dateFields      = []string{"receipt_date", "transaction_date", "transactionDate", "date", "Date"}
	storeTypeFields = []string{"store_type", "storeType"}
	itemsFields     = []string{"line_items", "lineItems", "items"}

	itemNameFields  = []string{"item", "Item_Name", "name", "Name"}
	priceFields     = []string{"price", "Price", "unit_price", "unitPrice"}
	quantityFields  = []string{"quantity", "Quantity", "qty"}
	lineTotalFields = []string{"line_total", "lineTotal"}
	mainCatFields   = []string{"main_category", "Category", "mainCategory", "category"}
	subCatFields    = []string{"sub_category", "SubCategory", "subCategory", "subcategory"}
)

// DecodeRawReceipts parses a JSON array of receipt objects. Numbers are kept
// as json.Number so string and numeric amounts go through the same parser.
func DecodeRawReceipts(data []byte) ([]RawReceipt, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out []RawReceipt
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode raw receipts: %w", err)
	}
	return out, nil
}

// DecodeRawReceipt parses a single JSON receipt object.
func DecodeRawReceipt(data []byte) (RawReceipt, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out RawReceipt
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode raw receipt: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("decode raw receipt: not an object")
	}
	return out, nil
}

// String returns the first non-empty string form among the given fields.
func (r RawReceipt) String(fields ...string) string {
	return lookupString(r, fields)
}

// ID returns the record's own id under any alias, or "".
func (r RawReceipt) ID() string {
	return lookupString(r, idFields)
}

// Merchant returns the merchant name under any alias, or "".
func (r RawReceipt) Merchant() string {
	return lookupString(r, merchantFields)
}

// WithID returns a shallow copy whose canonical "id" field is id.
func (r RawReceipt) WithID(id string) RawReceipt {
	out := make(RawReceipt, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	out["id"] = id
	return out
}

// Encode serializes the record as JSON.
func (r RawReceipt) Encode() ([]byte, error) {
	data, err := json.Marshal(map[string]any(r))
	if err != nil {
		return nil, fmt.Errorf("encode raw receipt: %w", err)
	}
	return data, nil
}

// Items returns the line item objects, skipping anything that is not an object.
func (r RawReceipt) Items() []map[string]any {
	for _, f := range itemsFields {
		v, ok := r[f]
		if !ok || v == nil {
			continue
		}
		list, ok := v.([]any)
		if !ok {
			if typed, ok := v.([]map[string]any); ok {
				return typed
			}
			continue
		}
		out := make([]map[string]any, 0, len(list))
		for _, el := range list {
			switch m := el.(type) {
			case map[string]any:
				out = append(out, m)
			case RawReceipt:
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func lookupString(m map[string]any, fields []string) string {
	for _, f := range fields {
		v, ok := m[f]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case json.Number:
			s = t.String()
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		case int:
			s = strconv.Itoa(t)
		case int64:
			s = strconv.FormatInt(t, 10)
		default:
			s = fmt.Sprint(t)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// lookupNumber returns the first field that holds a finite number or a
// numeric string.
func lookupNumber(m map[string]any, fields []string) (float64, bool) {
	for _, f := range fields {
		v, ok := m[f]
		if !ok || v == nil {
			continue
		}
		n, ok := toNumber(v)
		if ok {
			return n, true
		}
		// a present but unusable value ends the lookup
		return 0, false
	}
	return 0, false
}

func toNumber(v any) (float64, bool) {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return core.ParseAmount(t.String())
		}
		n = f
	case string:
		return core.ParseAmount(t)
	case bool:
		return 0, false
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
