// Package worker consumes receipt-ingested messages and keeps the
// processing summaries of stored receipts up to date.
package worker

import (
	"context"
	"errors"
	"fmt"

	"receipts/internal/amqp"
	"receipts/internal/log"
	"receipts/internal/storage"
)

// Processor is implemented by services.ReceiptProcessor.
type Processor interface {
	ProcessReceipt(ctx context.Context, id string) error
	ProcessPending(ctx context.Context) (int, error)
}

// Consumer is implemented by amqp.Client.
type Consumer interface {
	ConsumeReceiptIngested(ctx context.Context, handler amqp.Handler) error
}

type IngestWorker struct {
	processor Processor
	logger    *log.Logger
}

func NewIngestWorker(processor Processor, logger *log.Logger) *IngestWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &IngestWorker{
		processor: processor,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleReceiptIngested processes one message. A receipt that no longer
// exists is acknowledged; any other failure requeues the message.
func (w *IngestWorker) HandleReceiptIngested(ctx context.Context, msg *amqp.ReceiptIngestedMessage) error {
	if msg.ReceiptID == "" {
		w.logger.WarnContext(ctx, "Dropping message without receipt id")
		return nil
	}

	w.logger.InfoContext(ctx, "Processing receipt ingested message",
		log.FieldReceiptID, msg.ReceiptID,
		log.FieldMerchant, msg.Merchant)

	err := w.processor.ProcessReceipt(ctx, msg.ReceiptID)
	if errors.Is(err, storage.ErrReceiptNotFound) {
		w.logger.WarnContext(ctx, "Receipt vanished before processing", log.FieldReceiptID, msg.ReceiptID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("process receipt %s: %w", msg.ReceiptID, err)
	}
	return nil
}

// StartupCheck processes receipts left pending while the worker was down.
func (w *IngestWorker) StartupCheck(ctx context.Context) error {
	n, err := w.processor.ProcessPending(ctx)
	if err != nil {
		return fmt.Errorf("startup check: %w", err)
	}
	if n == 0 {
		w.logger.InfoContext(ctx, "No pending receipts found on startup")
		return nil
	}
	w.logger.InfoContext(ctx, "Startup check completed", "processed", n)
	return nil
}

// Run consumes messages until ctx is cancelled.
func (w *IngestWorker) Run(ctx context.Context, consumer Consumer) error {
	err := consumer.ConsumeReceiptIngested(ctx, w.HandleReceiptIngested)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
