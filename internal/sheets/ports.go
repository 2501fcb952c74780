package sheets

import (
	"context"

	"receipts/internal/normalize"
)

// Ports for receipt data backends.
//
//go:generate mockgen -destination=mocks/mock_ports.go -package=mocks -source=ports.go
type (
	// ReceiptSource returns every raw receipt in insertion order.
	ReceiptSource interface {
		ListReceipts(ctx context.Context) ([]normalize.RawReceipt, error)
	}

	// StoreTypeReader returns merchant name → store type overrides.
	StoreTypeReader interface {
		StoreTypes(ctx context.Context) (map[string]string, error)
	}

	// ReceiptWriter persists a raw receipt and returns its id.
	ReceiptWriter interface {
		SaveReceipt(ctx context.Context, raw normalize.RawReceipt) (id string, err error)
	}
)
