// Package storage persists raw receipts and store-type overrides in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"receipts/internal/log"
	"receipts/internal/normalize"

	_ "modernc.org/sqlite"
)

var ErrReceiptNotFound = errors.New("receipt not found")

// ProcessingSummary is what the worker records after normalizing a receipt.
type ProcessingSummary struct {
	LineItemCount       int
	QualifyingItemCount int
	Dated               bool
	NormalizedTotal     float64
	ProcessedAt         time.Time
}

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

// NewSQLiteRepository opens dbPath, creating its directory, and migrates it
// to the latest schema.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveReceipt stores raw under its own id, or a new one when it has none.
// Saving an existing id replaces the payload and marks it pending again.
func (r *SQLiteRepository) SaveReceipt(ctx context.Context, raw normalize.RawReceipt) (string, error) {
	id := raw.ID()
	if id == "" {
		id = uuid.NewString()
	}
	payload, err := raw.WithID(id).Encode()
	if err != nil {
		return "", err
	}

	const q = `
INSERT INTO receipts (id, merchant, payload)
VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    merchant = excluded.merchant,
    payload = excluded.payload,
    updated_at = CURRENT_TIMESTAMP,
    processed_at = NULL`
	if _, err := r.db.ExecContext(ctx, q, id, raw.Merchant(), string(payload)); err != nil {
		return "", fmt.Errorf("save receipt %s: %w", id, err)
	}

	r.logger.DebugContext(ctx, "Receipt saved to SQLite", log.FieldReceiptID, id, log.FieldMerchant, raw.Merchant())
	return id, nil
}

// ListReceipts returns every stored receipt in insertion order.
func (r *SQLiteRepository) ListReceipts(ctx context.Context) ([]normalize.RawReceipt, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM receipts ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	var out []normalize.RawReceipt
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		raw, err := normalize.DecodeRawReceipt([]byte(payload))
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetReceipt(ctx context.Context, id string) (normalize.RawReceipt, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM receipts WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get receipt %s: %w", id, err)
	}
	return normalize.DecodeRawReceipt([]byte(payload))
}

// PendingReceipts returns up to limit ids the worker has not processed yet,
// oldest first.
func (r *SQLiteRepository) PendingReceipts(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM receipts WHERE processed_at IS NULL ORDER BY created_at, rowid LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending receipts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending receipt: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepository) MarkProcessed(ctx context.Context, id string, s ProcessingSummary) error {
	if s.ProcessedAt.IsZero() {
		s.ProcessedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE receipts SET
    line_item_count = ?,
    qualifying_item_count = ?,
    dated = ?,
    normalized_total = ?,
    processed_at = ?
WHERE id = ?`,
		s.LineItemCount, s.QualifyingItemCount, s.Dated, s.NormalizedTotal, s.ProcessedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("mark receipt %s processed: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrReceiptNotFound
	}

	r.logger.InfoContext(ctx, "Receipt processed", log.FieldReceiptID, id,
		"line_items", s.LineItemCount, "qualifying_items", s.QualifyingItemCount)
	return nil
}

// Summary returns the recorded processing summary; ok is false while the
// receipt is still pending.
func (r *SQLiteRepository) Summary(ctx context.Context, id string) (ProcessingSummary, bool, error) {
	var (
		s           ProcessingSummary
		processedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
SELECT line_item_count, qualifying_item_count, dated, normalized_total, processed_at
FROM receipts WHERE id = ?`, id).
		Scan(&s.LineItemCount, &s.QualifyingItemCount, &s.Dated, &s.NormalizedTotal, &processedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s, false, ErrReceiptNotFound
	}
	if err != nil {
		return s, false, fmt.Errorf("get summary %s: %w", id, err)
	}
	if !processedAt.Valid {
		return s, false, nil
	}
	s.ProcessedAt = processedAt.Time
	return s, true, nil
}

// StoreTypes returns merchant key → store type overrides.
func (r *SQLiteRepository) StoreTypes(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT merchant_key, store_type FROM store_types`)
	if err != nil {
		return nil, fmt.Errorf("list store types: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, storeType string
		if err := rows.Scan(&key, &storeType); err != nil {
			return nil, fmt.Errorf("scan store type: %w", err)
		}
		out[key] = storeType
	}
	return out, rows.Err()
}

// SetStoreType records an override for merchant under its normalized key.
func (r *SQLiteRepository) SetStoreType(ctx context.Context, merchant, storeType string) error {
	key := normalize.MerchantKey(merchant)
	if key == "" {
		return fmt.Errorf("set store type: merchant %q has no usable key", merchant)
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO store_types (merchant_key, store_type) VALUES (?, ?)
ON CONFLICT (merchant_key) DO UPDATE SET store_type = excluded.store_type, updated_at = CURRENT_TIMESTAMP`,
		key, storeType)
	if err != nil {
		return fmt.Errorf("set store type for %s: %w", merchant, err)
	}
	return nil
}
