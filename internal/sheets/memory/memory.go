package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"receipts/internal/normalize"
	"receipts/internal/sheets"
)

var (
	_ sheets.ReceiptSource   = (*Store)(nil)
	_ sheets.StoreTypeReader = (*Store)(nil)
	_ sheets.ReceiptWriter   = (*Store)(nil)
)

// Store keeps receipts in process memory, in insertion order.
type Store struct {
	mu         sync.Mutex
	receipts   []normalize.RawReceipt
	byID       map[string]int
	storeTypes map[string]string
}

func New(receipts []normalize.RawReceipt, storeTypes map[string]string) *Store {
	s := &Store{byID: map[string]int{}, storeTypes: map[string]string{}}
	for _, r := range receipts {
		s.put(r)
	}
	for k, v := range storeTypes {
		if k = strings.TrimSpace(k); k != "" {
			s.storeTypes[k] = strings.TrimSpace(v)
		}
	}
	return s
}

// NewFromFiles seeds the store from receipts.json and store_types.json under
// base. Missing files yield an empty store; malformed ones are an error.
func NewFromFiles(base string) (*Store, error) {
	var receipts []normalize.RawReceipt
	data, err := os.ReadFile(filepath.Join(base, "receipts.json"))
	switch {
	case err == nil:
		receipts, err = normalize.DecodeRawReceipts(data)
		if err != nil {
			return nil, fmt.Errorf("seed receipts: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read receipts seed: %w", err)
	}

	storeTypes := map[string]string{}
	data, err = os.ReadFile(filepath.Join(base, "store_types.json"))
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &storeTypes); err != nil {
			return nil, fmt.Errorf("seed store types: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read store types seed: %w", err)
	}

	return New(receipts, storeTypes), nil
}

// put inserts or replaces by id. Receipts without one get a fresh uuid.
func (s *Store) put(raw normalize.RawReceipt) string {
	id := raw.ID()
	if id == "" {
		id = uuid.NewString()
	}
	raw = raw.WithID(id)
	if i, ok := s.byID[id]; ok {
		s.receipts[i] = raw
		return id
	}
	s.byID[id] = len(s.receipts)
	s.receipts = append(s.receipts, raw)
	return id
}

func (s *Store) SaveReceipt(_ context.Context, raw normalize.RawReceipt) (string, error) {
	if raw == nil {
		return "", fmt.Errorf("save receipt: empty record")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(raw), nil
}

func (s *Store) ListReceipts(_ context.Context) ([]normalize.RawReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]normalize.RawReceipt(nil), s.receipts...), nil
}

func (s *Store) StoreTypes(_ context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.storeTypes))
	for k, v := range s.storeTypes {
		out[k] = v
	}
	return out, nil
}

// SetStoreType records a merchant override.
func (s *Store) SetStoreType(merchant, storeType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeTypes[strings.TrimSpace(merchant)] = strings.TrimSpace(storeType)
}
