package mcp

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/honeycarbs/jobingest/internal/mcp/tools"
)

// valuesWriter is the subset of pkg/sheets.Client the export needs
type valuesWriter interface {
	AppendValues(ctx context.Context, spreadsheetID, rng string, values [][]any) error
	UpdateValues(ctx context.Context, spreadsheetID, rng string, values [][]any) error
	ClearValues(ctx context.Context, spreadsheetID, rng string) error
}

var sheetHeader = []any{"Title", "Company", "Location", "Salary", "Remote", "Skills", "Source", "URL", "Status", "Notes", "Updated"}

type sheetsClientAdapter struct {
	client valuesWriter
	clock  func() time.Time
}

func newSheetsClientAdapter(client valuesWriter) *sheetsClientAdapter {
	return &sheetsClientAdapter{client: client, clock: time.Now}
}

func (a *sheetsClientAdapter) Export(ctx context.Context, params tools.SheetsExportParams) (tools.SheetsExportResult, error) {
	result := tools.SheetsExportResult{
		SpreadsheetID: params.Sheet.SpreadsheetID,
		Tab:           params.Sheet.Tab,
	}
	if a == nil || a.client == nil {
		result.Message = "Google Sheets client not configured (GOOGLE_SHEETS_CREDENTIALS_PATH not set)"
		return result, tools.ErrSheetsNotConfigured
	}

	result.CompletedAt = a.clock().UTC()

	if len(params.Rows) == 0 {
		result.Message = "no rows to export"
		return result, nil
	}

	values := convertRowsToValues(params.Rows)

	if params.ClearTab {
		if err := a.client.ClearValues(ctx, params.Sheet.SpreadsheetID, buildClearRange(params.Sheet.Tab)); err != nil {
			return result, fmt.Errorf("sheets: failed to clear sheet: %w", err)
		}
	}

	if params.Upsert {
		values = append([][]any{sheetHeader}, values...)
		if err := a.client.UpdateValues(ctx, params.Sheet.SpreadsheetID, buildRange(params), values); err != nil {
			return result, fmt.Errorf("sheets: failed to upsert rows: %w", err)
		}
	} else {
		if err := a.client.AppendValues(ctx, params.Sheet.SpreadsheetID, buildRange(params), values); err != nil {
			return result, fmt.Errorf("sheets: failed to append rows: %w", err)
		}
	}

	result.WrittenRows = len(params.Rows)
	result.Message = fmt.Sprintf("successfully exported %d row(s)", result.WrittenRows)

	return result, nil
}

func buildRange(params tools.SheetsExportParams) string {
	if params.Sheet.Range != "" {
		return params.Sheet.Range
	}
	return tabName(params.Sheet.Tab) + "!A1"
}

func buildClearRange(tab string) string {
	return tabName(tab) + "!A1:K"
}

func tabName(tab string) string {
	if tab == "" {
		return "Sheet1"
	}
	return tab
}

func convertRowsToValues(rows []tools.SheetRow) [][]any {
	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = []any{
			row.Title,
			row.Company,
			row.Location,
			row.Salary,
			strconv.FormatBool(row.Remote),
			row.Skills,
			row.Source,
			row.URL,
			row.Status,
			row.Notes,
			row.UpdatedAt,
		}
	}
	return values
}
