// Package google mirrors ledger snapshots into a Google Sheets spreadsheet,
// one tab per collection. Every row starts with the owning user id so one
// spreadsheet can hold several users.
package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/persistence"
)

// Tab names.
const (
	LedgersTab      = "Ledgers"
	IncomesTab      = "Incomes"
	BillsTab        = "Bills"
	TransactionsTab = "Transactions"
	AccountsTab     = "Accounts"
)

// valuesAPI is the slice of the Sheets values API the client needs.
type valuesAPI interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error
}

type Client struct {
	values        valuesAPI
	spreadsheetID string
	logger        *log.Logger
	now           func() time.Time

	// Saves rewrite whole tabs, so they are serialised per client.
	mu sync.Mutex
}

var (
	_ persistence.Gateway    = (*Client)(nil)
	_ persistence.UserLister = (*Client)(nil)
)

// Config selects the spreadsheet and service account credentials.
type Config struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(serviceValues{svc: svc}, cfg.SpreadsheetID, logger), nil
}

func newClient(values valuesAPI, spreadsheetID string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		values:        values,
		spreadsheetID: spreadsheetID,
		logger:        logger.WithComponent(log.ComponentSheets),
		now:           time.Now,
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when neither inline JSON nor a
// file path is configured.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credentialsJSON := []byte(strings.TrimSpace(cfg.ServiceAccountJSON))
	if len(credentialsJSON) == 0 {
		path := strings.TrimSpace(cfg.ServiceAccountFile)
		if path == "" {
			path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		}
		if path == "" {
			return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
		}
		var err error
		credentialsJSON, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// newHTTPClientWithPooling creates an HTTP client tuned for the Sheets API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// serviceValues adapts gsheet.Service to valuesAPI.
type serviceValues struct {
	svc *gsheet.Service
}

func (s serviceValues) Get(ctx context.Context, id, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(id, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s serviceValues) Clear(ctx context.Context, id, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(id, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (s serviceValues) Update(ctx context.Context, id, rng string, values [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Update(id, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// SaveSnapshot implements persistence.Gateway by replacing the user's rows in
// every tab and keeping other users' rows in place.
func (c *Client) SaveSnapshot(ctx context.Context, userID string, snap core.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tabs := []struct {
		name string
		rows [][]any
	}{
		{LedgersTab, [][]any{{userID, c.now().UTC().Format(time.RFC3339)}}},
		{IncomesTab, encodeIncomes(userID, snap.Incomes)},
		{BillsTab, encodeBills(userID, snap.Bills)},
		{TransactionsTab, encodeTransactions(userID, snap.Transactions)},
		{AccountsTab, encodeAccounts(userID, snap.Accounts)},
	}
	for _, tab := range tabs {
		if err := c.replaceUserRows(ctx, tab.name, userID, tab.rows); err != nil {
			return err
		}
	}

	c.logger.DebugContext(ctx, "Snapshot mirrored to sheets",
		log.FieldUserID, userID,
		log.FieldItems, snap.Len())
	return nil
}

// replaceUserRows writes the tab back with userID's rows swapped for rows.
// The new content is written over the old one before anything is cleared, so
// a failed write leaves every existing row in place. Rows past the new end
// are cleared afterwards.
func (c *Client) replaceUserRows(ctx context.Context, tab, userID string, rows [][]any) error {
	existing, height, err := c.readTab(ctx, tab)
	if err != nil {
		return err
	}

	kept := slices.DeleteFunc(existing, func(row []string) bool { return cell(row, 0) == userID })
	out := make([][]any, 0, len(kept)+len(rows)+1)
	out = append(out, headerRow(tab))
	for _, row := range kept {
		out = append(out, toAny(row))
	}
	out = append(out, rows...)

	if err := c.values.Update(ctx, c.spreadsheetID, fmt.Sprintf("%s!A1", tab), out); err != nil {
		return fmt.Errorf("write %s: %w", tab, err)
	}
	if height <= len(out) {
		return nil
	}
	rng := fmt.Sprintf("%s!A%d:Z", tab, len(out)+1)
	if err := c.values.Clear(ctx, c.spreadsheetID, rng); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}

// readRows returns the data rows of tab, header excluded, as trimmed strings.
func (c *Client) readRows(ctx context.Context, tab string) ([][]string, error) {
	rows, _, err := c.readTab(ctx, tab)
	return rows, err
}

// readTab is readRows plus the number of rows the tab currently spans,
// header and blank rows included.
func (c *Client) readTab(ctx context.Context, tab string) ([][]string, int, error) {
	rng := fmt.Sprintf("%s!A:Z", tab)
	values, err := c.values.Get(ctx, c.spreadsheetID, rng)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", rng, err)
	}
	var out [][]string
	for i, row := range values {
		cols := toStrings(row)
		if i == 0 && strings.EqualFold(cell(cols, 0), "user_id") {
			continue
		}
		if cell(cols, 0) == "" {
			continue
		}
		out = append(out, cols)
	}
	return out, len(values), nil
}

func (c *Client) userRows(ctx context.Context, tab, userID string) ([][]string, error) {
	rows, err := c.readRows(ctx, tab)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(rows, func(row []string) bool { return cell(row, 0) != userID }), nil
}

// LoadSnapshot implements persistence.Gateway.
func (c *Client) LoadSnapshot(ctx context.Context, userID string) (core.Snapshot, error) {
	ledgers, err := c.userRows(ctx, LedgersTab, userID)
	if err != nil {
		return core.Snapshot{}, err
	}
	if len(ledgers) == 0 {
		return core.Snapshot{}, persistence.ErrNotFound
	}

	var snap core.Snapshot
	var rows [][]string
	if rows, err = c.userRows(ctx, IncomesTab, userID); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Incomes, err = decodeIncomes(rows); err != nil {
		return core.Snapshot{}, err
	}
	if rows, err = c.userRows(ctx, BillsTab, userID); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Bills, err = decodeBills(rows); err != nil {
		return core.Snapshot{}, err
	}
	if rows, err = c.userRows(ctx, TransactionsTab, userID); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Transactions, err = decodeTransactions(rows); err != nil {
		return core.Snapshot{}, err
	}
	if rows, err = c.userRows(ctx, AccountsTab, userID); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Accounts, err = decodeAccounts(rows); err != nil {
		return core.Snapshot{}, err
	}
	return snap.Clone(), nil
}

// ListUsers implements persistence.UserLister.
func (c *Client) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := c.readRows(ctx, LedgersTab)
	if err != nil {
		return nil, err
	}
	users := make([]string, 0, len(rows))
	for _, row := range rows {
		users = append(users, cell(row, 0))
	}
	slices.Sort(users)
	return slices.Compact(users), nil
}
