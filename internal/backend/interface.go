package backend

import (
	"context"

	"receipts/internal/services"
	"receipts/internal/sheets"
	"receipts/internal/storage"
)

// Backend is the read side every data backend provides.
type Backend interface {
	sheets.ReceiptSource
	sheets.StoreTypeReader
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Pinger is implemented by backends with a health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackendResult contains the backend and whatever optional parts it has.
type BackendResult struct {
	Backend Backend
	// Writer is nil for read-only backends.
	Writer sheets.ReceiptWriter
	// Publisher is nil when AMQP is not configured.
	Publisher services.Publisher
	// Repository is set for the sqlite backend only.
	Repository *storage.SQLiteRepository
	Cleanup    CleanupFunc
}

// Ping checks the backend when it supports it.
func (r *BackendResult) Ping(ctx context.Context) error {
	if p, ok := r.Backend.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleReceiptsSheet      string
	GoogleStoreTypesSheet    string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Memory backend specific
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
