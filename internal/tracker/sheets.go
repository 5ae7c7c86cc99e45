package tracker

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/tjharb909/FutureButNotNow/internal/config"
	"github.com/tjharb909/FutureButNotNow/internal/models"
	"github.com/tjharb909/FutureButNotNow/pkg/logger"
	"github.com/tjharb909/FutureButNotNow/pkg/ratelimit"
)

// SheetColumns defines the column headers for the posts tracking sheet
var SheetColumns = []string{
	"Timestamp",
	"Bot",
	"Mode",
	"Item",
	"Item ID",
	"Primary Post ID",
	"Reply Post ID",
	"Link",
	"Status",
	"Error",
}

// SheetsTracker mirrors the post log into a Google Sheet so operators can
// watch runs without shell access. Optional; nil when disabled.
type SheetsTracker struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	rateLimiter   *ratelimit.MultiLimiter
	log           *logger.Logger
}

// New creates a new Google Sheets tracker, or nil when disabled
func New(cfg config.TrackerConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) (*SheetsTracker, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	ctx := context.Background()

	var srv *sheets.Service
	var err error

	// Try service account JSON first (for env var injection)
	if cfg.ServiceAccountJSON != "" {
		srv, err = sheets.NewService(ctx, option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)))
	} else if cfg.CredentialsFile != "" {
		srv, err = sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	} else {
		return nil, fmt.Errorf("no Google credentials provided: set credentials_file or service_account_json")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	sheetName := cfg.SheetName
	if sheetName == "" {
		sheetName = "Posts"
	}

	t := &SheetsTracker{
		service:       srv,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		rateLimiter:   limiter,
		log:           log.WithComponent("tracker"),
	}

	if err := t.ensureHeaders(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// ensureHeaders writes the header row when the sheet is empty
func (t *SheetsTracker) ensureHeaders(ctx context.Context) error {
	readRange := fmt.Sprintf("%s!A1:Z1", t.sheetName)
	resp, err := t.service.Spreadsheets.Values.Get(t.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read sheet headers: %w", err)
	}
	if len(resp.Values) > 0 {
		return nil
	}

	header := make([]interface{}, len(SheetColumns))
	for i, c := range SheetColumns {
		header[i] = c
	}
	_, err = t.service.Spreadsheets.Values.Update(
		t.spreadsheetID,
		fmt.Sprintf("%s!A1", t.sheetName),
		&sheets.ValueRange{Values: [][]interface{}{header}},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write sheet headers: %w", err)
	}

	t.log.Info().Str("sheet", t.sheetName).Msg("Initialized tracking sheet headers")
	return nil
}

// Append adds one post record row to the sheet. Errors are returned so
// the caller can log them; tracking never blocks a posting run.
func (t *SheetsTracker) Append(ctx context.Context, rec *models.PostRecord) error {
	if t.rateLimiter != nil {
		if err := t.rateLimiter.Wait(ctx, ratelimit.LimiterSheets); err != nil {
			return fmt.Errorf("rate limit error: %w", err)
		}
	}

	row := []interface{}{
		rec.CreatedAt.Format("2006-01-02 15:04:05"),
		rec.Bot,
		rec.Mode,
		rec.ItemTitle,
		rec.ItemID,
		rec.PrimaryPostID,
		rec.ReplyPostID,
		rec.Link,
		string(rec.Status),
		rec.ErrorMessage,
	}

	_, err := t.service.Spreadsheets.Values.Append(
		t.spreadsheetID,
		fmt.Sprintf("%s!A:Z", t.sheetName),
		&sheets.ValueRange{Values: [][]interface{}{row}},
	).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append tracking row: %w", err)
	}

	t.log.Debug().Str("item", rec.ItemTitle).Msg("Post tracked to sheet")
	return nil
}
