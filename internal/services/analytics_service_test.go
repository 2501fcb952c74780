package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receipts/internal/cache"
	"receipts/internal/core"
	"receipts/internal/drilldown"
	"receipts/internal/normalize"
	"receipts/internal/services"
	mocks "receipts/internal/sheets/mocks"
)

var ref = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func sampleReceipts() []normalize.RawReceipt {
	return []normalize.RawReceipt{
		{
			"id": "r1", "merchant_name": "Tesco", "receipt_date": "2024-03-10",
			"line_items": []any{
				map[string]any{"item": "Milk", "price": 1.5, "quantity": 2, "main_category": "Dairy", "sub_category": "Milk"},
				map[string]any{"item": "Crisps", "price": 2.0, "quantity": 1, "main_category": "Snacks", "sub_category": "Crisps"},
			},
		},
		{
			"id": "r2", "merchant_name": "Aldi", "receipt_date": "2024-02-20",
			"line_items": []any{
				map[string]any{"item": "Apples", "price": 3.0, "quantity": 1, "main_category": "Fruit", "sub_category": "Apples"},
			},
		},
	}
}

func newService(t *testing.T, src *mocks.MockReceiptSource, st *mocks.MockStoreTypeReader, c *cache.LRUCache[*services.Response]) *services.AnalyticsService {
	t.Helper()
	opts := services.AnalyticsOptions{Source: src, Cache: c}
	if st != nil {
		opts.StoreTypes = st
	}
	return services.NewAnalyticsService(opts)
}

func TestAnalyticsService_Dashboard(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	src := mocks.NewMockReceiptSource(ctrl)
	st := mocks.NewMockStoreTypeReader(ctrl)
	src.EXPECT().ListReceipts(gomock.Any()).Return(sampleReceipts(), nil)
	st.EXPECT().StoreTypes(gomock.Any()).Return(map[string]string{"Tesco": "Supermarket"}, nil)

	svc := newService(t, src, st, nil)
	resp, err := svc.Dashboard(context.Background(), services.Query{Reference: ref})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Analytics.Tally.ReceiptCount)
	assert.InDelta(t, 8.0, resp.Analytics.Tally.TotalSpent, 1e-9)
	require.NotNil(t, resp.Stats)
	assert.Equal(t, 1, resp.Stats.ThisMonthCount)
	assert.Len(t, resp.Cards, 5)
	assert.NotEmpty(t, resp.Highlights)
	assert.Equal(t, ref, resp.Reference)
}

func TestAnalyticsService_SourceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	src := mocks.NewMockReceiptSource(ctrl)
	boom := errors.New("sheet unavailable")
	src.EXPECT().ListReceipts(gomock.Any()).Return(nil, boom)

	svc := newService(t, src, nil, nil)
	_, err := svc.Dashboard(context.Background(), services.Query{Reference: ref})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestAnalyticsService_InvalidGranularity(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := newService(t, mocks.NewMockReceiptSource(ctrl), nil, nil)
	_, err := svc.Dashboard(context.Background(), services.Query{
		Reference:     ref,
		Granularities: []core.Granularity{"fortnight"},
	})
	assert.ErrorIs(t, err, services.ErrInvalidGranularity)
}

func TestAnalyticsService_CachesByContent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	src := mocks.NewMockReceiptSource(ctrl)
	first := sampleReceipts()
	changed := sampleReceipts()
	changed[1]["merchant_name"] = "Lidl"
	gomock.InOrder(
		src.EXPECT().ListReceipts(gomock.Any()).Return(first, nil),
		src.EXPECT().ListReceipts(gomock.Any()).Return(sampleReceipts(), nil),
		src.EXPECT().ListReceipts(gomock.Any()).Return(changed, nil),
	)

	c := cache.NewLRUCache[*services.Response](8, 0)
	svc := newService(t, src, nil, c)
	ctx := context.Background()
	q := services.Query{Reference: ref}

	a, err := svc.Dashboard(ctx, q)
	require.NoError(t, err)
	b, err := svc.Dashboard(ctx, q)
	require.NoError(t, err)
	assert.Same(t, a, b, "identical content should hit the cache")

	c2, err := svc.Dashboard(ctx, q)
	require.NoError(t, err)
	assert.NotSame(t, a, c2, "changed content must miss the cache")
	assert.Equal(t, 2, c.Size())
}

func TestAnalyticsService_ConcurrentCallsAgree(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	src := mocks.NewMockReceiptSource(ctrl)
	src.EXPECT().ListReceipts(gomock.Any()).Return(sampleReceipts(), nil).Times(8)

	svc := newService(t, src, nil, cache.NewLRUCache[*services.Response](8, time.Minute))

	var wg sync.WaitGroup
	results := make([]*services.Response, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := svc.Dashboard(context.Background(), services.Query{Reference: ref})
			assert.NoError(t, err)
			results[i] = resp
		}(i)
	}
	wg.Wait()

	for _, r := range results[1:] {
		require.NotNil(t, r)
		assert.Equal(t, results[0].Analytics.Tally, r.Analytics.Tally)
	}
}

func TestAnalyticsService_Filters(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	src := mocks.NewMockReceiptSource(ctrl)
	src.EXPECT().ListReceipts(gomock.Any()).Return(sampleReceipts(), nil).Times(2)
	svc := newService(t, src, nil, nil)
	ctx := context.Background()

	month := core.Month
	resp, err := svc.Dashboard(ctx, services.Query{Reference: ref, Period: &month})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Analytics.Tally.ReceiptCount)

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	resp, err = svc.Dashboard(ctx, services.Query{Reference: ref, From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Analytics.Tally.ReceiptCount)
	require.NotNil(t, resp.Analytics.Tally.Highest)
	assert.Equal(t, "Aldi", resp.Analytics.Tally.Highest.Merchant)
}

func TestAnalyticsService_Drilldowns(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	src := mocks.NewMockReceiptSource(ctrl)
	src.EXPECT().ListReceipts(gomock.Any()).Return(sampleReceipts(), nil).AnyTimes()
	svc := newService(t, src, nil, nil)
	ctx := context.Background()
	q := services.Query{Reference: ref}

	cat, err := svc.CategoryDrilldown(ctx, q, drilldown.CategoryAt("Dairy", ""), false)
	require.NoError(t, err)
	assert.Equal(t, drilldown.LevelSub, cat.State.Level())
	require.Len(t, cat.Rows, 1)
	assert.Equal(t, "Milk", cat.Rows[0].Name)

	healed, err := svc.CategoryDrilldown(ctx, q, drilldown.CategoryAt("Gone", "Nowhere"), false)
	require.NoError(t, err)
	assert.Equal(t, drilldown.LevelMain, healed.State.Level())

	mer, err := svc.MerchantDrilldown(ctx, q, drilldown.MerchantAt("", ""), false)
	require.NoError(t, err)
	require.Len(t, mer.Rows, 2)
	assert.Equal(t, "Tesco", mer.Rows[0].Name)
}

func TestParseGranularities(t *testing.T) {
	got, err := services.ParseGranularities(" Day, month ")
	require.NoError(t, err)
	assert.Equal(t, []core.Granularity{core.Day, core.Month}, got)

	got, err = services.ParseGranularities("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = services.ParseGranularities("day,decade")
	assert.ErrorIs(t, err, services.ErrInvalidGranularity)
}
