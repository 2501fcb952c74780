package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"receipts/internal/log"
	"receipts/internal/normalize"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "receipts.db"), log.Discard())
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustRaw(t *testing.T, js string) normalize.RawReceipt {
	t.Helper()
	raw, err := normalize.DecodeRawReceipt([]byte(js))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return raw
}

func TestSQLiteRepository_SaveAndList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first, err := repo.SaveReceipt(ctx, mustRaw(t, `{"merchant_name":"Tesco","total_amount":"12.50","line_items":[{"item":"Milk","price":1.25,"quantity":2}]}`))
	if err != nil {
		t.Fatalf("SaveReceipt() error = %v", err)
	}
	if first == "" {
		t.Fatal("SaveReceipt() returned empty id")
	}
	second, err := repo.SaveReceipt(ctx, mustRaw(t, `{"receipt_id":"r-2","merchant":"Boots","total":3}`))
	if err != nil {
		t.Fatalf("SaveReceipt() error = %v", err)
	}
	if second != "r-2" {
		t.Errorf("SaveReceipt() id = %q, want r-2", second)
	}

	list, err := repo.ListReceipts(ctx)
	if err != nil {
		t.Fatalf("ListReceipts() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListReceipts() len = %d, want 2", len(list))
	}
	if list[0].ID() != first || list[0].Merchant() != "Tesco" {
		t.Errorf("first receipt = %v", list[0])
	}
	if got := len(list[0].Items()); got != 1 {
		t.Errorf("line items survived round trip = %d, want 1", got)
	}
}

func TestSQLiteRepository_GetReceiptNotFound(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.GetReceipt(context.Background(), "missing"); !errors.Is(err, ErrReceiptNotFound) {
		t.Errorf("GetReceipt() error = %v, want ErrReceiptNotFound", err)
	}
}

func TestSQLiteRepository_ProcessingLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, err := repo.SaveReceipt(ctx, mustRaw(t, `{"id":"r-1","merchant_name":"Aldi"}`))
	if err != nil {
		t.Fatalf("SaveReceipt() error = %v", err)
	}

	pending, err := repo.PendingReceipts(ctx, 10)
	if err != nil {
		t.Fatalf("PendingReceipts() error = %v", err)
	}
	if len(pending) != 1 || pending[0] != id {
		t.Fatalf("PendingReceipts() = %v", pending)
	}
	if _, ok, err := repo.Summary(ctx, id); err != nil || ok {
		t.Fatalf("Summary() before processing ok=%v err=%v", ok, err)
	}

	want := ProcessingSummary{LineItemCount: 3, QualifyingItemCount: 2, Dated: true, NormalizedTotal: 9.5}
	if err := repo.MarkProcessed(ctx, id, want); err != nil {
		t.Fatalf("MarkProcessed() error = %v", err)
	}

	got, ok, err := repo.Summary(ctx, id)
	if err != nil || !ok {
		t.Fatalf("Summary() ok=%v err=%v", ok, err)
	}
	if got.LineItemCount != 3 || got.QualifyingItemCount != 2 || !got.Dated || got.NormalizedTotal != 9.5 {
		t.Errorf("Summary() = %+v", got)
	}

	pending, _ = repo.PendingReceipts(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("PendingReceipts() after processing = %v", pending)
	}

	// Re-saving the same id queues it again.
	if _, err := repo.SaveReceipt(ctx, mustRaw(t, `{"id":"r-1","merchant_name":"Aldi","total":4}`)); err != nil {
		t.Fatalf("SaveReceipt() error = %v", err)
	}
	pending, _ = repo.PendingReceipts(ctx, 10)
	if len(pending) != 1 {
		t.Errorf("PendingReceipts() after update = %v", pending)
	}

	if err := repo.MarkProcessed(ctx, "nope", want); !errors.Is(err, ErrReceiptNotFound) {
		t.Errorf("MarkProcessed(unknown) error = %v", err)
	}
}

func TestSQLiteRepository_StoreTypes(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.SetStoreType(ctx, "Tesco Express", "Convenience"); err != nil {
		t.Fatalf("SetStoreType() error = %v", err)
	}
	if err := repo.SetStoreType(ctx, "TESCO-express", "Supermarket"); err != nil {
		t.Fatalf("SetStoreType() error = %v", err)
	}
	if err := repo.SetStoreType(ctx, "!!!", "Nothing"); err == nil {
		t.Error("SetStoreType() with unusable merchant should fail")
	}

	types, err := repo.StoreTypes(ctx)
	if err != nil {
		t.Fatalf("StoreTypes() error = %v", err)
	}
	if len(types) != 1 || types["tescoexpress"] != "Supermarket" {
		t.Errorf("StoreTypes() = %v", types)
	}
}
