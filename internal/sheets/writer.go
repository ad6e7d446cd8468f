package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/jamesfulford/cashflow-projector/internal/common"
	"github.com/jamesfulford/cashflow-projector/internal/service"
)

// Writer implements service.LedgerWriter for Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

var _ service.LedgerWriter = (*Writer)(nil)

// NewWriter creates a new Google Sheets ledger writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return NewWriterWithService(srv, config, logger), nil
}

// NewWriterWithService wraps an already configured Sheets service.
func NewWriterWithService(srv *sheets.Service, config Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		config:  config,
		service: srv,
		logger:  logger.With("component", "sheets"),
	}
}

func (w *Writer) retryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// WriteLedger implements service.LedgerWriter. The Summary tab is written in
// one call; the Ledger tab is written in batches and progress is reported
// after each batch.
func (w *Writer) WriteLedger(ctx context.Context, report service.LedgerReport, progress service.ProgressFunc) error {
	w.logger.Info("starting ledger export",
		"days", len(report.Days),
		"date_range", fmt.Sprintf("%s to %s", report.Params.StartDate, report.Params.EndDate))

	spreadsheetID, tabs, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	retryOpts := w.retryOptions()

	for _, tab := range []string{SummaryTab, LedgerTab} {
		err := common.WithRetry(ctx, func() error {
			return w.clearTab(ctx, spreadsheetID, tab)
		}, retryOpts)
		if err != nil {
			return fmt.Errorf("failed to clear %s: %w", tab, err)
		}
	}

	summary := summaryValues(report)
	err = common.WithRetry(ctx, func() error {
		return w.writeRange(ctx, spreadsheetID, SummaryTab, 1, summary)
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	ledger := ledgerValues(report.Days)
	total := len(report.Days)
	for start := 0; start < len(ledger); start += w.config.BatchSize {
		end := min(start+w.config.BatchSize, len(ledger))
		batch := ledger[start:end]

		err := common.WithRetry(ctx, func() error {
			return w.writeRange(ctx, spreadsheetID, LedgerTab, start+1, batch)
		}, retryOpts)
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", start+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", start+1, "rows", len(batch))
		if progress != nil {
			// Row 0 is the header.
			progress(end-1, total)
		}
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return w.applyFormatting(ctx, spreadsheetID, tabs, len(ledger))
		}, retryOpts)
		if err != nil {
			// Formatting is cosmetic; the data is already written.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("ledger export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(ledger))

	return nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		tokenSource = oauthConfig(config.ClientID, config.ClientSecret, "").TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet returns the spreadsheet ID and the sheet ID of each
// tab, adding any tab the spreadsheet lacks.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, map[string]int64, error) {
	if w.config.SpreadsheetID == "" {
		return w.createSpreadsheet(ctx)
	}

	existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
	}

	tabs := sheetIDs(existing.Sheets)
	var add []*sheets.Request
	var missing []string
	for _, title := range []string{SummaryTab, LedgerTab} {
		if _, ok := tabs[title]; !ok {
			missing = append(missing, title)
			add = append(add, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}},
			})
		}
	}
	if len(add) == 0 {
		return existing.SpreadsheetId, tabs, nil
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(existing.SpreadsheetId, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: add,
	}).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to add tabs %v: %w", missing, err)
	}
	for i, reply := range resp.Replies {
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil && i < len(missing) {
			tabs[missing[i]] = reply.AddSheet.Properties.SheetId
		}
	}

	w.logger.Info("added tabs", "spreadsheet_id", existing.SpreadsheetId, "tabs", missing)
	return existing.SpreadsheetId, tabs, nil
}

func (w *Writer) createSpreadsheet(ctx context.Context) (string, map[string]int64, error) {
	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: SummaryTab}},
			{Properties: &sheets.SheetProperties{Title: LedgerTab}},
		},
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created.SpreadsheetId, sheetIDs(created.Sheets), nil
}

func sheetIDs(list []*sheets.Sheet) map[string]int64 {
	ids := make(map[string]int64, len(list))
	for _, s := range list {
		if s.Properties != nil {
			ids[s.Properties.Title] = s.Properties.SheetId
		}
	}
	return ids
}

func (w *Writer) clearTab(ctx context.Context, spreadsheetID, tab string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, tab+"!A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// writeRange writes values starting at column A of the given 1-based row.
func (w *Writer) writeRange(ctx context.Context, spreadsheetID, tab string, row int, values [][]any) error {
	rangeStr := fmt.Sprintf("%s!A%d", tab, row)
	_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}

func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, tabs map[string]int64, ledgerRows int) error {
	batchUpdate := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: formatRequests(tabs[SummaryTab], tabs[LedgerTab], ledgerRows),
	}
	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, batchUpdate).Context(ctx).Do()
	return err
}

func boldRow(sheetID, row, columns int64, size int64) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    row,
				EndRowIndex:      row + 1,
				StartColumnIndex: 0,
				EndColumnIndex:   columns,
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					TextFormat: &sheets.TextFormat{Bold: true, FontSize: size},
				},
			},
			Fields: "userEnteredFormat.textFormat",
		},
	}
}

func formatRequests(summaryID, ledgerID int64, ledgerRows int) []*sheets.Request {
	requests := []*sheets.Request{
		boldRow(summaryID, 0, 2, 16),
		boldRow(ledgerID, 0, int64(len(LedgerHeader)), 10),
	}

	for _, cols := range ledgerMoneyColumns {
		requests = append(requests, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          ledgerID,
					StartRowIndex:    1,
					EndRowIndex:      int64(ledgerRows),
					StartColumnIndex: cols[0],
					EndColumnIndex:   cols[1],
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{
							Type:    "CURRENCY",
							Pattern: "$#,##0.00",
						},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		})
	}

	requests = append(requests,
		&sheets.Request{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    ledgerID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(len(LedgerHeader)),
				},
			},
		},
		&sheets.Request{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        ledgerID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	)
	return requests
}
