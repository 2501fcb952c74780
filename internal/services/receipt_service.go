package services

import (
	"context"
	"errors"
	"fmt"

	"receipts/internal/log"
	"receipts/internal/normalize"
	"receipts/internal/sheets"
)

// ErrReadOnlyBackend is returned by Ingest when the backend cannot store receipts.
var ErrReadOnlyBackend = errors.New("backend is read-only")

// Publisher announces stored receipts. The AMQP client implements it.
type Publisher interface {
	PublishReceiptIngested(ctx context.Context, receiptID, merchant string) error
}

// ReceiptService stores raw receipts and announces them to the worker.
type ReceiptService struct {
	writer    sheets.ReceiptWriter
	publisher Publisher
	logger    *log.Logger
	events    *log.StructuredLogger
}

// NewReceiptService accepts a nil writer (read-only backend) and a nil
// publisher (no worker).
func NewReceiptService(writer sheets.ReceiptWriter, publisher Publisher, logger *log.Logger) *ReceiptService {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentReceipts)
	return &ReceiptService{
		writer:    writer,
		publisher: publisher,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
	}
}

// Ingest saves raw and publishes a receipt-ingested message. A publish
// failure is logged but does not fail the call; the worker sweep picks
// the receipt up later.
func (s *ReceiptService) Ingest(ctx context.Context, raw normalize.RawReceipt) (string, error) {
	if s.writer == nil {
		return "", ErrReadOnlyBackend
	}
	if len(raw) == 0 {
		return "", errors.New("ingest: empty receipt")
	}

	id, err := s.writer.SaveReceipt(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("save receipt: %w", err)
	}

	merchant := raw.Merchant()
	s.events.LogReceiptIngested(ctx, id, merchant, len(raw.Items()))

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No publisher configured, skipping ingest message", log.FieldReceiptID, id)
		return id, nil
	}
	if err := s.publisher.PublishReceiptIngested(ctx, id, merchant); err != nil {
		s.events.LogError(ctx, "Failed to publish receipt ingested message", err,
			log.ComponentReceipts, log.OpIngest, log.NewFields().WithReceipt(id, merchant))
	}
	return id, nil
}
