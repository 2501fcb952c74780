package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"receipts/internal/analytics"
	"receipts/internal/cache"
	"receipts/internal/core"
	"receipts/internal/drilldown"
	"receipts/internal/insights"
	"receipts/internal/log"
	"receipts/internal/normalize"
	"receipts/internal/sheets"
)

// ErrInvalidGranularity is returned for unknown granularity names.
var ErrInvalidGranularity = core.ErrInvalidGranularity

// Query selects the receipts and outputs of one dashboard computation.
type Query struct {
	// Reference is "now" for timeframe windows. Zero means the current minute.
	Reference time.Time
	From, To  *time.Time
	// Period keeps only receipts since the start of the current period.
	Period *core.Granularity
	// Granularities limits the per-granularity series. Empty means all.
	Granularities []core.Granularity
}

// Response is the full dashboard payload.
type Response struct {
	Reference  time.Time        `json:"reference"`
	Analytics  analytics.Result `json:"analytics"`
	Stats      *insights.Stats  `json:"stats"`
	Highlights []string         `json:"highlights"`
	Cards      []insights.Card  `json:"timeframeCards"`
}

// AnalyticsService loads receipts from a source and memoizes aggregation
// results by a hash of their content.
type AnalyticsService struct {
	source     sheets.ReceiptSource
	storeTypes sheets.StoreTypeReader
	loc        *time.Location
	cache      *cache.LRUCache[*Response]
	group      singleflight.Group
	logger     *log.Logger
	now        func() time.Time
}

// AnalyticsOptions configures an AnalyticsService. StoreTypes and Cache are optional.
type AnalyticsOptions struct {
	Source     sheets.ReceiptSource
	StoreTypes sheets.StoreTypeReader
	Location   *time.Location
	Cache      *cache.LRUCache[*Response]
	Logger     *log.Logger
}

func NewAnalyticsService(opts AnalyticsOptions) *AnalyticsService {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	return &AnalyticsService{
		source:     opts.Source,
		storeTypes: opts.StoreTypes,
		loc:        loc,
		cache:      opts.Cache,
		logger:     logger.WithComponent(log.ComponentAnalytics),
		now:        time.Now,
	}
}

// ParseGranularities parses a comma separated list. Blank input means all.
func ParseGranularities(s string) ([]core.Granularity, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []core.Granularity
	for _, part := range strings.Split(s, ",") {
		g, err := core.ParseGranularity(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidGranularity, strings.TrimSpace(part))
		}
		out = append(out, g)
	}
	return out, nil
}

// Dashboard computes (or returns the memoized) analytics for q.
func (s *AnalyticsService) Dashboard(ctx context.Context, q Query) (*Response, error) {
	for _, g := range q.Granularities {
		if !g.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidGranularity, g)
		}
	}
	if q.Period != nil && !q.Period.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGranularity, *q.Period)
	}
	if q.Reference.IsZero() {
		q.Reference = s.now().Truncate(time.Minute)
	}
	q.Reference = q.Reference.In(s.loc)

	raws, storeTypes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	key := cacheKey(raws, storeTypes, q, s.loc)
	if s.cache != nil {
		if resp, ok := s.cache.Get(key); ok {
			s.logger.DebugContext(ctx, "Dashboard cache hit", log.NewFields().WithCacheHit(true).ToSlice()...)
			return resp, nil
		}
	}

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		resp := s.compute(raws, storeTypes, q)
		if s.cache != nil {
			s.cache.Set(key, resp)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	resp := v.(*Response)

	fields := log.NewFields().
		WithOperation(log.OpAggregate).
		WithReceiptCount(resp.Analytics.Tally.ReceiptCount).
		WithCacheHit(false)
	if q.Period != nil {
		fields = fields.WithGranularity(*q.Period)
	}
	s.logger.InfoContext(ctx, "Dashboard computed", fields.ToSlice()...)
	if shared {
		s.logger.DebugContext(ctx, "Dashboard computation shared with a concurrent caller")
	}
	return resp, nil
}

// CategoryDrilldown resolves a category drill-down against the dashboard for q.
func (s *AnalyticsService) CategoryDrilldown(ctx context.Context, q Query, state drilldown.CategoryState, showAll bool) (drilldown.CategoryView, error) {
	resp, err := s.Dashboard(ctx, q)
	if err != nil {
		return drilldown.CategoryView{}, err
	}
	return drilldown.ResolveCategory(resp.Analytics, state, showAll), nil
}

// MerchantDrilldown resolves a merchant drill-down against the dashboard for q.
func (s *AnalyticsService) MerchantDrilldown(ctx context.Context, q Query, state drilldown.MerchantState, showAll bool) (drilldown.MerchantView, error) {
	resp, err := s.Dashboard(ctx, q)
	if err != nil {
		return drilldown.MerchantView{}, err
	}
	return drilldown.ResolveMerchant(resp.Analytics, state, showAll), nil
}

func (s *AnalyticsService) load(ctx context.Context) ([]normalize.RawReceipt, map[string]string, error) {
	if s.source == nil {
		return nil, nil, errors.New("analytics: no receipt source configured")
	}

	var (
		raws       []normalize.RawReceipt
		storeTypes map[string]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raws, err = s.source.ListReceipts(gctx)
		if err != nil {
			return fmt.Errorf("list receipts: %w", err)
		}
		return nil
	})
	if s.storeTypes != nil {
		g.Go(func() error {
			var err error
			storeTypes, err = s.storeTypes.StoreTypes(gctx)
			if err != nil {
				return fmt.Errorf("load store types: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return raws, storeTypes, nil
}

func (s *AnalyticsService) compute(raws []normalize.RawReceipt, storeTypes map[string]string, q Query) *Response {
	n := normalize.New(normalize.Options{
		Location:   s.loc,
		StoreTypes: normalize.NewStoreTypeResolver(storeTypes),
	})
	receipts := n.Normalize(raws)
	if q.From != nil || q.To != nil {
		receipts = analytics.FilterByDateRange(receipts, q.From, q.To)
	}
	if q.Period != nil {
		receipts = analytics.FilterForPeriod(receipts, *q.Period, q.Reference)
	}

	res := analytics.Aggregate(receipts, analytics.Options{
		Reference:     q.Reference,
		Granularities: q.Granularities,
	})
	stats := insights.Summarize(res)
	return &Response{
		Reference:  q.Reference,
		Analytics:  res,
		Stats:      stats,
		Highlights: insights.Highlights(stats),
		Cards:      insights.TimeframeCards(res),
	}
}

// cacheKey hashes everything the result depends on. Raw receipts encode
// with sorted keys so equal content gives equal keys.
func cacheKey(raws []normalize.RawReceipt, storeTypes map[string]string, q Query, loc *time.Location) string {
	h := sha256.New()
	for _, r := range raws {
		data, err := r.Encode()
		if err != nil {
			fmt.Fprintf(h, "unencodable:%v", r)
		}
		h.Write(data)
		h.Write([]byte{0})
	}
	names := make([]string, 0, len(storeTypes))
	for k := range storeTypes {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(h, "st:%s=%s\x00", k, storeTypes[k])
	}
	fmt.Fprintf(h, "ref:%d|loc:%s|grans:%v", q.Reference.UnixNano(), loc, q.Granularities)
	if q.From != nil {
		fmt.Fprintf(h, "|from:%d", q.From.UnixNano())
	}
	if q.To != nil {
		fmt.Fprintf(h, "|to:%d", q.To.UnixNano())
	}
	if q.Period != nil {
		fmt.Fprintf(h, "|period:%s", *q.Period)
	}
	return hex.EncodeToString(h.Sum(nil))
}
