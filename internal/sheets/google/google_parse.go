package google

import (
	"fmt"
	"strings"
	"unicode"

	"receipts/internal/normalize"
)

// Header names map onto the raw receipt field names the normalizer reads.
var receiptColumns = map[string]string{
	"id":              "id",
	"receiptid":       "id",
	"merchant":        "merchant_name",
	"merchantname":    "merchant_name",
	"store":           "merchant_name",
	"date":            "receipt_date",
	"receiptdate":     "receipt_date",
	"transactiondate": "receipt_date",
	"storetype":       "store_type",
	"total":           "total_amount",
	"totalamount":     "total_amount",
}

var itemColumns = map[string]string{
	"item":         "item",
	"itemname":     "item",
	"description":  "item",
	"price":        "price",
	"unitprice":    "price",
	"quantity":     "quantity",
	"qty":          "quantity",
	"linetotal":    "line_total",
	"category":     "main_category",
	"maincategory": "main_category",
	"subcategory":  "sub_category",
}

// parseReceiptRows turns a values matrix whose first row is a header into
// raw receipts. Rows sharing a receipt id (or, lacking one, the same
// merchant, date and total) form one receipt. Receipt-level cells are
// taken from the first row of each group.
func parseReceiptRows(values [][]interface{}) []normalize.RawReceipt {
	if len(values) < 2 {
		return nil
	}
	headers := toStrings(values[0])
	receiptCols := map[int]string{}
	itemCols := map[int]string{}
	for i, h := range headers {
		key := headerKey(h)
		if f, ok := receiptColumns[key]; ok {
			receiptCols[i] = f
		} else if f, ok := itemColumns[key]; ok {
			itemCols[i] = f
		}
	}

	var (
		out     []normalize.RawReceipt
		index   = map[string]int{}
		lastKey string
	)
	for _, row := range values[1:] {
		cells := toStrings(row)
		if blank(cells) {
			continue
		}
		head := normalize.RawReceipt{}
		for i, f := range receiptCols {
			if v := safeGet(cells, i); v != "" {
				head[f] = v
			}
		}
		item := map[string]any{}
		for i, f := range itemCols {
			if v := safeGet(cells, i); v != "" {
				item[f] = v
			}
		}

		key := groupKey(head, lastKey)
		pos, ok := index[key]
		if !ok {
			pos = len(out)
			index[key] = pos
			head["line_items"] = []any{}
			out = append(out, head)
		}
		lastKey = key
		if len(item) > 0 {
			out[pos]["line_items"] = append(out[pos]["line_items"].([]any), item)
		}
	}
	return out
}

// groupKey identifies the receipt a row belongs to. A row with no receipt
// cells at all continues the previous receipt.
func groupKey(head normalize.RawReceipt, previous string) string {
	if id := head.ID(); id != "" {
		return "id:" + id
	}
	if len(head) == 0 && previous != "" {
		return previous
	}
	return fmt.Sprintf("row:%s|%s|%s",
		head.String("merchant_name"), head.String("receipt_date"), head.String("total_amount"))
}

// parseStoreTypeRows reads a two-column Merchant / Store Type sheet.
func parseStoreTypeRows(values [][]interface{}) map[string]string {
	out := map[string]string{}
	if len(values) == 0 {
		return out
	}
	headers := toStrings(values[0])
	colMerchant, colType := -1, -1
	for i, h := range headers {
		switch headerKey(h) {
		case "merchant", "merchantname", "store":
			colMerchant = i
		case "storetype", "type":
			colType = i
		}
	}
	if colMerchant == -1 || colType == -1 {
		return out
	}
	for _, row := range values[1:] {
		cells := toStrings(row)
		m, st := safeGet(cells, colMerchant), safeGet(cells, colType)
		if m != "" && st != "" {
			out[m] = st
		}
	}
	return out
}

func headerKey(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func blank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
