package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"receipts/internal/core"
	"receipts/internal/log"
	"receipts/internal/normalize"
	"receipts/internal/storage"
)

// ProcessingStore is the slice of the SQLite repository the processor needs.
type ProcessingStore interface {
	GetReceipt(ctx context.Context, id string) (normalize.RawReceipt, error)
	PendingReceipts(ctx context.Context, limit int) ([]string, error)
	MarkProcessed(ctx context.Context, id string, s storage.ProcessingSummary) error
}

// ProcessorConfig holds configuration for the receipt processor
type ProcessorConfig struct {
	// SweepInterval is how often to look for unprocessed receipts (default: 30s)
	SweepInterval time.Duration

	// BatchSize is the max number of receipts per sweep (default: 25)
	BatchSize int

	// Location interprets dates without an offset (default: UTC)
	Location *time.Location
}

func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SweepInterval: 30 * time.Second,
		BatchSize:     25,
		Location:      time.UTC,
	}
}

// ReceiptProcessor normalizes stored receipts and records a processing
// summary on each. It runs per message and as a periodic sweep for
// receipts whose message was lost.
type ReceiptProcessor struct {
	store      ProcessingStore
	normalizer *normalize.Normalizer
	config     ProcessorConfig
	logger     *log.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReceiptProcessor(store ProcessingStore, config ProcessorConfig, logger *log.Logger) *ReceiptProcessor {
	def := DefaultProcessorConfig()
	if config.SweepInterval <= 0 {
		config.SweepInterval = def.SweepInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.Location == nil {
		config.Location = def.Location
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &ReceiptProcessor{
		store:      store,
		normalizer: normalize.New(normalize.Options{Location: config.Location}),
		config:     config,
		logger:     logger.WithComponent(log.ComponentWorker),
	}
}

// Summarize normalizes raw and counts what the engine will see.
func (p *ReceiptProcessor) Summarize(raw normalize.RawReceipt) storage.ProcessingSummary {
	r := p.normalizer.One(0, raw)
	s := storage.ProcessingSummary{
		LineItemCount:   len(r.LineItems),
		Dated:           r.Dated(),
		NormalizedTotal: core.Round2(r.TotalAmount),
	}
	for _, li := range r.LineItems {
		if li.Qualifies() {
			s.QualifyingItemCount++
		}
	}
	return s
}

// ProcessReceipt loads one receipt and records its summary.
func (p *ReceiptProcessor) ProcessReceipt(ctx context.Context, id string) error {
	raw, err := p.store.GetReceipt(ctx, id)
	if err != nil {
		return fmt.Errorf("get receipt %s: %w", id, err)
	}
	summary := p.Summarize(raw)
	if err := p.store.MarkProcessed(ctx, id, summary); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// ProcessPending handles one batch of unprocessed receipts and returns how
// many succeeded. A receipt that vanished is skipped; other failures are
// logged and left pending for the next sweep.
func (p *ReceiptProcessor) ProcessPending(ctx context.Context) (int, error) {
	ids, err := p.store.PendingReceipts(ctx, p.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending receipts: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	p.logger.DebugContext(ctx, "Processing pending receipts", log.FieldReceiptCount, len(ids))

	done := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := p.ProcessReceipt(ctx, id); err != nil {
			if errors.Is(err, storage.ErrReceiptNotFound) {
				continue
			}
			p.logger.ErrorContext(ctx, "Failed to process pending receipt",
				log.FieldReceiptID, id, log.FieldError, err.Error())
			continue
		}
		done++
	}
	p.logger.InfoContext(ctx, "Pending sweep finished",
		log.FieldOperation, log.OpSweep,
		"processed", done,
		"total", len(ids))
	return done, nil
}

// Start begins the sweep loop. Returns an error if already running.
func (p *ReceiptProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("receipt processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	p.logger.InfoContext(ctx, "Receipt processor started",
		"sweep_interval", p.config.SweepInterval.String(),
		"batch_size", p.config.BatchSize)
	return nil
}

// Stop signals the loop and waits for it to finish.
func (p *ReceiptProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		p.logger.InfoContext(ctx, "Receipt processor stopped")
		return nil
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Receipt processor stop timed out")
		return ctx.Err()
	}
}

func (p *ReceiptProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ReceiptProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.SweepInterval)
	defer ticker.Stop()

	p.sweep(ctx)
	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			p.mu.Lock()
			if p.doneCh == doneCh {
				p.running = false
			}
			p.mu.Unlock()
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

func (p *ReceiptProcessor) sweep(ctx context.Context) {
	if _, err := p.ProcessPending(ctx); err != nil && ctx.Err() == nil {
		p.logger.ErrorContext(ctx, "Pending sweep failed", log.FieldError, err.Error())
	}
}
