package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"receipts/internal/config"
	"receipts/internal/normalize"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", DataDirectory: "d"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.DataDirectory != "d" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "a.db"}, false},
		{"sheets without id", Config{Type: SheetsBackend, GoogleServiceAccountJSON: "{}"}, true},
		{"sheets without credentials", Config{Type: SheetsBackend, GoogleSpreadsheetID: "id"}, true},
		{"sheets", Config{Type: SheetsBackend, GoogleSpreadsheetID: "id", GoogleServiceAccountFile: "sa.json"}, false},
		{"unknown", Config{Type: "nope"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "receipts.json"), []byte(`[{"id":"r1","merchant_name":"Tesco"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatal(err)
	}
	if res.Writer == nil || res.Publisher != nil || res.Repository != nil {
		t.Fatalf("unexpected parts: %+v", res)
	}
	list, err := res.Backend.ListReceipts(context.Background())
	if err != nil || len(list) != 1 {
		t.Fatalf("unexpected receipts: %v err=%v", list, err)
	}
	if err := res.Ping(context.Background()); err != nil {
		t.Fatalf("memory ping should be a no-op: %v", err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipts.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Cleanup()

	if res.Repository == nil || res.Writer == nil {
		t.Fatalf("sqlite backend should expose repository and writer")
	}
	ctx := context.Background()
	if err := res.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if _, err := res.Writer.SaveReceipt(ctx, normalize.RawReceipt{"merchant_name": "Aldi"}); err != nil {
		t.Fatal(err)
	}
	list, _ := res.Backend.ListReceipts(ctx)
	if len(list) != 1 {
		t.Fatalf("expected 1 receipt, got %d", len(list))
	}
}
