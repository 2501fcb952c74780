package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"receipts/internal/log"
	"receipts/internal/normalize"
	ports "receipts/internal/sheets"
)

// Client reads receipts from a spreadsheet with one row per line item.
// It is read-only.
type Client struct {
	svc             *gsheet.Service
	spreadsheetID   string
	receiptsSheet   string
	storeTypesSheet string
	logger          *log.Logger
}

var (
	_ ports.ReceiptSource   = (*Client)(nil)
	_ ports.StoreTypeReader = (*Client)(nil)
)

// Options configures the spreadsheet location and service account.
// CredentialsJSON wins over CredentialsFile.
type Options struct {
	SpreadsheetID   string
	ReceiptsSheet   string
	StoreTypesSheet string
	CredentialsJSON string
	CredentialsFile string
}

func New(ctx context.Context, opts Options, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	id := strings.TrimSpace(opts.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	receipts := strings.TrimSpace(opts.ReceiptsSheet)
	if receipts == "" {
		receipts = "Receipts"
	}

	svc, err := newSheetsService(ctx, opts, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:             svc,
		spreadsheetID:   id,
		receiptsSheet:   receipts,
		storeTypesSheet: strings.TrimSpace(opts.StoreTypesSheet),
		logger:          logger,
	}, nil
}

func newSheetsService(ctx context.Context, opts Options, logger *log.Logger) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		logger.DebugContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(opts.CredentialsJSON)
	case strings.TrimSpace(opts.CredentialsFile) != "":
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		logger.DebugContext(ctx, "Read service account file", "path", opts.CredentialsFile)
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// ListReceipts reads the receipts sheet and groups its rows into receipts.
func (c *Client) ListReceipts(ctx context.Context) ([]normalize.RawReceipt, error) {
	values, err := c.read(ctx, c.receiptsSheet)
	if err != nil {
		return nil, err
	}
	out := parseReceiptRows(values)
	c.logger.DebugContext(ctx, "Read receipts sheet",
		"rows", len(values),
		log.FieldReceiptCount, len(out))
	return out, nil
}

// StoreTypes reads merchant overrides. No configured sheet means none.
func (c *Client) StoreTypes(ctx context.Context) (map[string]string, error) {
	if c.storeTypesSheet == "" {
		return map[string]string{}, nil
	}
	values, err := c.read(ctx, c.storeTypesSheet)
	if err != nil {
		return nil, err
	}
	return parseStoreTypeRows(values), nil
}

func (c *Client) read(ctx context.Context, sheet string) ([][]interface{}, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return resp.Values, nil
}
