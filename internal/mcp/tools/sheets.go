package tools

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/pkg/logging"
)

// ErrSheetsNotConfigured is returned by SheetsClient when no credentials are set
var ErrSheetsNotConfigured = errors.New("sheets client not configured")

// SheetRow defines a row written to Sheets
type SheetRow struct {
	Title     string `json:"title,omitempty" jsonschema:"Job title text"`
	Company   string `json:"company,omitempty" jsonschema:"Company name"`
	Location  string `json:"location,omitempty" jsonschema:"Location text"`
	Salary    string `json:"salary,omitempty" jsonschema:"Salary range as text"`
	Remote    bool   `json:"remote,omitempty" jsonschema:"Whether the posting is remote"`
	Skills    string `json:"skills,omitempty" jsonschema:"Comma separated skills"`
	Source    string `json:"source,omitempty" jsonschema:"Provider tag"`
	URL       string `json:"url,omitempty" jsonschema:"Application URL"`
	Status    string `json:"status,omitempty" jsonschema:"Pipeline status e.g. applied/interviewing"`
	Notes     string `json:"notes,omitempty" jsonschema:"Free-form notes or instructions"`
	UpdatedAt string `json:"updated_at,omitempty" jsonschema:"ISO timestamp"`
}

// SheetTarget names the destination of an export
type SheetTarget struct {
	SpreadsheetID string `json:"spreadsheet_id" jsonschema:"Google Sheets document ID"`
	Tab           string `json:"tab,omitempty" jsonschema:"Tab name to write to"`
	Range         string `json:"range,omitempty" jsonschema:"Optional A1 range override"`
}

// SheetsExportParams defines the arguments for the sheets_export tool
type SheetsExportParams struct {
	Rows     []SheetRow            `json:"rows,omitempty" jsonschema:"Explicit rows to write; when empty rows are loaded from stored postings"`
	Filter   *SearchPostingsParams `json:"filter,omitempty" jsonschema:"Posting filter used when rows are not given"`
	Upsert   bool                  `json:"upsert,omitempty" jsonschema:"Overwrite from the second row (true) or append (false)"`
	ClearTab bool                  `json:"clear_tab,omitempty" jsonschema:"If true, clears the tab before writing"`
	Sheet    SheetTarget           `json:"sheet" jsonschema:"Destination sheet information"`
}

// SheetsExportResult describes the summary returned after export
type SheetsExportResult struct {
	SpreadsheetID string    `json:"spreadsheet_id"`
	Tab           string    `json:"tab,omitempty"`
	WrittenRows   int       `json:"written_rows"`
	Mode          string    `json:"mode"`
	CompletedAt   time.Time `json:"completed_at"`
	Message       string    `json:"message,omitempty"`
}

// SheetsClient writes rows to a spreadsheet
type SheetsClient interface {
	Export(ctx context.Context, params SheetsExportParams) (SheetsExportResult, error)
}

type sheetsExportTool struct {
	client SheetsClient
	reader PostingReader
	logger *logging.Logger
}

// WithSheetsExport registers the sheets_export tool. reader may be nil, in
// which case only explicit rows can be exported.
func WithSheetsExport(client SheetsClient, reader PostingReader) Option {
	return func(reg *registry) {
		t := sheetsExportTool{client: client, reader: reader, logger: reg.logger.With("group", "sheets")}
		sdkmcp.AddTool(reg.server, &sdkmcp.Tool{
			Name:        "sheets_export",
			Description: "Export stored postings or explicit rows to a Google Sheets tab",
		}, t.handle)
	}
}

func (t sheetsExportTool) handle(ctx context.Context, _ *sdkmcp.CallToolRequest, params SheetsExportParams) (*sdkmcp.CallToolResult, any, error) {
	if strings.TrimSpace(params.Sheet.SpreadsheetID) == "" {
		return errorResult("sheet.spreadsheet_id is required"), nil, nil
	}
	if t.client == nil {
		return errorResult(ErrSheetsNotConfigured.Error()), nil, nil
	}

	mode := "rows"
	if len(params.Rows) == 0 {
		if t.reader == nil {
			return errorResult("no rows given and posting reader not configured"), nil, nil
		}
		filter := SearchPostingsParams{}
		if params.Filter != nil {
			filter = *params.Filter
		}
		page, err := t.reader.ListPostings(ctx, filter.filter())
		if err != nil {
			t.logger.Error("sheets_export: failed to load postings", "err", err)
			return nil, nil, fmt.Errorf("failed to load postings: %w", err)
		}
		params.Rows = make([]SheetRow, 0, len(page.Postings))
		for _, p := range page.Postings {
			params.Rows = append(params.Rows, RowFromPosting(p))
		}
		mode = "postings"
	}

	t.logger.Info("sheets_export request", "spreadsheet_id", params.Sheet.SpreadsheetID, "tab", params.Sheet.Tab, "rows", len(params.Rows), "mode", mode)

	result, err := t.client.Export(ctx, params)
	if errors.Is(err, ErrSheetsNotConfigured) {
		return errorResult(err.Error()), nil, nil
	}
	if err != nil {
		t.logger.Error("sheets_export failed", "err", err)
		return nil, nil, fmt.Errorf("failed to export rows: %w", err)
	}
	if result.Mode == "" {
		result.Mode = mode
	}

	msg := fmt.Sprintf("[sheets_export] %s (spreadsheet_id=%q tab=%q)", result.Message, result.SpreadsheetID, result.Tab)
	return textResult(msg), result, nil
}

// RowFromPosting flattens a posting into a sheet row
func RowFromPosting(p domain.Posting) SheetRow {
	return SheetRow{
		Title:     p.Title,
		Company:   p.Company,
		Location:  p.Location,
		Salary:    salaryText(p.SalaryMin, p.SalaryMax),
		Remote:    p.Remote,
		Skills:    strings.Join(p.Skills, ", "),
		Source:    p.Source.String(),
		URL:       p.URL,
		UpdatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func salaryText(lo, hi *int64) string {
	switch {
	case lo != nil && hi != nil && *lo != *hi:
		return strconv.FormatInt(*lo, 10) + "-" + strconv.FormatInt(*hi, 10)
	case lo != nil:
		return strconv.FormatInt(*lo, 10)
	case hi != nil:
		return strconv.FormatInt(*hi, 10)
	default:
		return ""
	}
}
