package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"receipts/internal/core"
	"receipts/internal/drilldown"
	"receipts/internal/normalize"
	"receipts/internal/services"
)

const (
	maxReceiptBytes = 1 << 20
	maxParamLength  = 200
	dateLayout      = "2006-01-02"
)

var errEmptyBody = errors.New("request body is empty")

// ParseQuery reads ref, from, to, granularity and period into a dashboard
// query. Dates are either RFC 3339 instants or YYYY-MM-DD days in loc.
func ParseQuery(values url.Values, loc *time.Location) (services.Query, error) {
	var q services.Query

	if v := strings.TrimSpace(values.Get("ref")); v != "" {
		t, err := parseTime(v, loc)
		if err != nil {
			return q, fmt.Errorf("invalid ref: %w", err)
		}
		q.Reference = t
	}
	if v := strings.TrimSpace(values.Get("from")); v != "" {
		t, err := parseTime(v, loc)
		if err != nil {
			return q, fmt.Errorf("invalid from: %w", err)
		}
		q.From = &t
	}
	if v := strings.TrimSpace(values.Get("to")); v != "" {
		t, err := parseTime(v, loc)
		if err != nil {
			return q, fmt.Errorf("invalid to: %w", err)
		}
		q.To = &t
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return q, errors.New("invalid range: to is before from")
	}

	grans, err := services.ParseGranularities(values.Get("granularity"))
	if err != nil {
		return q, err
	}
	q.Granularities = grans

	if v := strings.TrimSpace(values.Get("period")); v != "" {
		g, err := core.ParseGranularity(v)
		if err != nil {
			return q, fmt.Errorf("%w: %q", services.ErrInvalidGranularity, v)
		}
		q.Period = &g
	}
	return q, nil
}

// ParseCategoryState reads category and sub. A sub without a category is ignored.
func ParseCategoryState(values url.Values) drilldown.CategoryState {
	return drilldown.CategoryAt(sanitizeInput(values.Get("category")), sanitizeInput(values.Get("sub")))
}

// ParseMerchantState reads merchant and category.
func ParseMerchantState(values url.Values) drilldown.MerchantState {
	return drilldown.MerchantAt(sanitizeInput(values.Get("merchant")), sanitizeInput(values.Get("category")))
}

// ParseBool treats 1/true/yes/on as true and anything else as false.
func ParseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "on":
		return true
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

// ReadReceipt decodes a single raw receipt object from the request body.
func ReadReceipt(w http.ResponseWriter, r *http.Request) (normalize.RawReceipt, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReceiptBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, errEmptyBody
	}
	raw, err := normalize.DecodeRawReceipt(body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errEmptyBody
	}
	return raw, nil
}

func parseTime(v string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.In(loc), nil
	}
	t, err := time.ParseInLocation(dateLayout, v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither RFC 3339 nor %s", v, dateLayout)
	}
	return t, nil
}

// sanitizeInput trims, drops control characters and caps the length.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if r := []rune(s); len(r) > maxParamLength {
		s = strings.TrimSpace(string(r[:maxParamLength]))
	}
	return s
}
