package tools_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/internal/domain/posting"
	"github.com/honeycarbs/jobingest/internal/mcp/tools"
	"github.com/honeycarbs/jobingest/pkg/logging"
)

type fakeService struct {
	submitted []domain.IngestionRequest
	task      domain.IngestionTask
}

func (f *fakeService) SubmitIngestion(_ context.Context, req domain.IngestionRequest) (domain.Acknowledgment, error) {
	if req.Query == "" || req.TotalQuota <= 0 {
		return domain.Acknowledgment{}, fmt.Errorf("%w: query and quota required", posting.ErrInvalidRequest)
	}
	f.submitted = append(f.submitted, req)
	return domain.Acknowledgment{TaskID: f.task.ID, Mode: "synthetic", Message: "ingestion accepted"}, nil
}

func (f *fakeService) IngestionStatus(_ context.Context, id uuid.UUID) (domain.IngestionTask, error) {
	if id != f.task.ID {
		return domain.IngestionTask{}, posting.ErrTaskNotFound
	}
	return f.task, nil
}

func (f *fakeService) IngestionStats(context.Context) (domain.IngestionStats, error) {
	return domain.IngestionStats{
		Total:     8,
		PerSource: map[domain.Source]int64{domain.SourceAdzuna: 5, domain.SourceJSearch: 3},
		Mode:      "synthetic",
	}, nil
}

type fakeReader struct {
	last     domain.PostingFilter
	postings []domain.Posting
}

func (f *fakeReader) ListPostings(_ context.Context, filter domain.PostingFilter) (domain.PostingPage, error) {
	f.last = filter
	return domain.PostingPage{Postings: f.postings, Page: filter.Page, Size: 20, TotalCount: int64(len(f.postings))}, nil
}

func (f *fakeReader) Filters(context.Context) ([]string, []string, error) {
	return []string{"Mumbai", "Pune"}, []string{"Infosys"}, nil
}

type fakeSheets struct {
	got tools.SheetsExportParams
}

func (f *fakeSheets) Export(_ context.Context, params tools.SheetsExportParams) (tools.SheetsExportResult, error) {
	f.got = params
	return tools.SheetsExportResult{
		SpreadsheetID: params.Sheet.SpreadsheetID,
		Tab:           params.Sheet.Tab,
		WrittenRows:   len(params.Rows),
		Message:       fmt.Sprintf("successfully exported %d row(s)", len(params.Rows)),
	}, nil
}

func connect(t *testing.T, opts ...tools.Option) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "jobingest-test", Version: "test"}, nil)
	tools.Register(server, logging.NewNop(), opts...)

	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func call(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	res, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func decode[T any](t *testing.T, res *sdkmcp.CallToolResult) T {
	t.Helper()
	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestRegisterListsTools(t *testing.T) {
	session := connect(t,
		tools.WithIngestion(&fakeService{}),
		tools.WithPostings(&fakeReader{}),
		tools.WithSheetsExport(&fakeSheets{}, &fakeReader{}),
	)

	list, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"submit_ingestion", "ingestion_status", "ingestion_stats",
		"search_postings", "posting_filters", "sheets_export",
	}, names)
}

func TestSubmitIngestion(t *testing.T) {
	svc := &fakeService{task: domain.IngestionTask{ID: uuid.New()}}
	session := connect(t, tools.WithIngestion(svc))

	res := call(t, session, "submit_ingestion", map[string]any{"query": "Manager", "location": "Mumbai", "quota": 10})
	require.False(t, res.IsError)
	ack := decode[domain.Acknowledgment](t, res)
	assert.Equal(t, svc.task.ID, ack.TaskID)
	assert.Equal(t, []domain.IngestionRequest{{Query: "Manager", Location: "Mumbai", TotalQuota: 10}}, svc.submitted)

	res = call(t, session, "submit_ingestion", map[string]any{"query": "Manager", "quota": 0})
	assert.True(t, res.IsError)
}

func TestSubmitIngestionForwardsSources(t *testing.T) {
	svc := &fakeService{task: domain.IngestionTask{ID: uuid.New()}}
	session := connect(t, tools.WithIngestion(svc))

	res := call(t, session, "submit_ingestion", map[string]any{"query": "Manager", "quota": 10, "sources": []string{"jsearch"}})
	require.False(t, res.IsError)
	require.Len(t, svc.submitted, 1)
	assert.Equal(t, []domain.Source{domain.SourceJSearch}, svc.submitted[0].Sources)
}

func TestIngestionStatus(t *testing.T) {
	svc := &fakeService{task: domain.IngestionTask{ID: uuid.New(), Status: domain.TaskCompleted, Inserted: 8}}
	session := connect(t, tools.WithIngestion(svc))

	res := call(t, session, "ingestion_status", map[string]any{"task_id": svc.task.ID.String()})
	require.False(t, res.IsError)
	task := decode[domain.IngestionTask](t, res)
	assert.Equal(t, domain.TaskCompleted, task.Status)
	assert.Equal(t, 8, task.Inserted)

	assert.True(t, call(t, session, "ingestion_status", map[string]any{"task_id": "nope"}).IsError)
	assert.True(t, call(t, session, "ingestion_status", map[string]any{"task_id": uuid.NewString()}).IsError)
}

func TestIngestionStats(t *testing.T) {
	session := connect(t, tools.WithIngestion(&fakeService{}))

	res := call(t, session, "ingestion_stats", map[string]any{})
	stats := decode[domain.IngestionStats](t, res)
	assert.Equal(t, int64(8), stats.Total)
	assert.Equal(t, int64(3), stats.PerSource[domain.SourceJSearch])

	text := res.Content[0].(*sdkmcp.TextContent).Text
	assert.Contains(t, text, "adzuna=5, jsearch=3")
}

func TestSearchPostings(t *testing.T) {
	reader := &fakeReader{postings: []domain.Posting{{
		ID:      uuid.New(),
		Title:   "Manager",
		Company: "Infosys",
		Source:  domain.SourceAdzuna,
	}}}
	session := connect(t, tools.WithPostings(reader))

	res := call(t, session, "search_postings", map[string]any{"company": " infosys ", "source": "ADZUNA", "remote": false, "page": 1})
	require.False(t, res.IsError)

	out := decode[tools.SearchPostingsResult](t, res)
	require.Len(t, out.Postings, 1)
	assert.Equal(t, "Infosys", out.Postings[0].Company)
	assert.Equal(t, []string{}, out.Postings[0].Skills)

	assert.Equal(t, "infosys", reader.last.Company)
	assert.Equal(t, domain.SourceAdzuna, reader.last.Source)
	require.NotNil(t, reader.last.Remote)
	assert.False(t, *reader.last.Remote)
	assert.Equal(t, 1, reader.last.Page)
}

func TestPostingFilters(t *testing.T) {
	session := connect(t, tools.WithPostings(&fakeReader{}))

	out := decode[tools.PostingFiltersResult](t, call(t, session, "posting_filters", map[string]any{}))
	assert.Equal(t, []string{"Mumbai", "Pune"}, out.Locations)
	assert.Equal(t, []string{"Infosys"}, out.Companies)
}

func TestSheetsExportFromPostings(t *testing.T) {
	lo, hi := int64(500000), int64(900000)
	reader := &fakeReader{postings: []domain.Posting{{
		Title:     "Manager",
		Company:   "Infosys",
		SalaryMin: &lo,
		SalaryMax: &hi,
		Skills:    []string{"go", "sql"},
		Source:    domain.SourceJSearch,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}}}
	sheets := &fakeSheets{}
	session := connect(t, tools.WithSheetsExport(sheets, reader))

	res := call(t, session, "sheets_export", map[string]any{
		"filter": map[string]any{"company": "infosys"},
		"sheet":  map[string]any{"spreadsheet_id": "sheet-1", "tab": "Jobs"},
	})
	require.False(t, res.IsError)

	out := decode[tools.SheetsExportResult](t, res)
	assert.Equal(t, 1, out.WrittenRows)
	assert.Equal(t, "postings", out.Mode)

	require.Len(t, sheets.got.Rows, 1)
	assert.Equal(t, "500000-900000", sheets.got.Rows[0].Salary)
	assert.Equal(t, "go, sql", sheets.got.Rows[0].Skills)
	assert.Equal(t, "infosys", reader.last.Company)
}

func TestSheetsExportValidation(t *testing.T) {
	session := connect(t, tools.WithSheetsExport(nil, nil))

	assert.True(t, call(t, session, "sheets_export", map[string]any{"sheet": map[string]any{"spreadsheet_id": ""}}).IsError)
	assert.True(t, call(t, session, "sheets_export", map[string]any{"sheet": map[string]any{"spreadsheet_id": "x"}}).IsError)
}
