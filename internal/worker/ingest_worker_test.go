package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receipts/internal/amqp"
	"receipts/internal/storage"
)

type stubProcessor struct {
	processed []string
	err       error
	pending   int
}

func (s *stubProcessor) ProcessReceipt(_ context.Context, id string) error {
	s.processed = append(s.processed, id)
	return s.err
}

func (s *stubProcessor) ProcessPending(context.Context) (int, error) {
	return s.pending, s.err
}

type stubConsumer struct {
	messages []*amqp.ReceiptIngestedMessage
	errs     []error
}

func (c *stubConsumer) ConsumeReceiptIngested(ctx context.Context, h amqp.Handler) error {
	for _, m := range c.messages {
		c.errs = append(c.errs, h(ctx, m))
	}
	return context.Canceled
}

func TestHandleReceiptIngested(t *testing.T) {
	tests := []struct {
		name      string
		msg       *amqp.ReceiptIngestedMessage
		procErr   error
		wantErr   bool
		processed []string
	}{
		{name: "processes receipt", msg: amqp.NewReceiptIngestedMessage("r1", "Tesco"), processed: []string{"r1"}},
		{name: "missing receipt is acked", msg: amqp.NewReceiptIngestedMessage("r2", ""), procErr: storage.ErrReceiptNotFound, processed: []string{"r2"}},
		{name: "other failure requeues", msg: amqp.NewReceiptIngestedMessage("r3", ""), procErr: errors.New("db locked"), wantErr: true, processed: []string{"r3"}},
		{name: "empty id is dropped", msg: &amqp.ReceiptIngestedMessage{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := &stubProcessor{err: tt.procErr}
			w := NewIngestWorker(proc, nil)

			err := w.HandleReceiptIngested(context.Background(), tt.msg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.processed, proc.processed)
		})
	}
}

func TestStartupCheck(t *testing.T) {
	w := NewIngestWorker(&stubProcessor{pending: 3}, nil)
	assert.NoError(t, w.StartupCheck(context.Background()))

	w = NewIngestWorker(&stubProcessor{err: errors.New("no db")}, nil)
	assert.Error(t, w.StartupCheck(context.Background()))
}

func TestRunStopsCleanlyOnCancel(t *testing.T) {
	proc := &stubProcessor{}
	consumer := &stubConsumer{messages: []*amqp.ReceiptIngestedMessage{
		amqp.NewReceiptIngestedMessage("a", ""),
		amqp.NewReceiptIngestedMessage("b", ""),
	}}

	require.NoError(t, NewIngestWorker(proc, nil).Run(context.Background(), consumer))
	assert.Equal(t, []string{"a", "b"}, proc.processed)
	assert.Equal(t, []error{nil, nil}, consumer.errs)
}
