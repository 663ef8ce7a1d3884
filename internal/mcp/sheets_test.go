package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/jobingest/internal/mcp/tools"
)

type recordedWrite struct {
	op     string
	rng    string
	values [][]any
}

type fakeValuesWriter struct {
	writes []recordedWrite
	err    error
}

func (f *fakeValuesWriter) AppendValues(_ context.Context, _, rng string, values [][]any) error {
	f.writes = append(f.writes, recordedWrite{op: "append", rng: rng, values: values})
	return f.err
}

func (f *fakeValuesWriter) UpdateValues(_ context.Context, _, rng string, values [][]any) error {
	f.writes = append(f.writes, recordedWrite{op: "update", rng: rng, values: values})
	return f.err
}

func (f *fakeValuesWriter) ClearValues(_ context.Context, _, rng string) error {
	f.writes = append(f.writes, recordedWrite{op: "clear", rng: rng})
	return f.err
}

func exportParams(upsert, clear bool) tools.SheetsExportParams {
	return tools.SheetsExportParams{
		Rows:     []tools.SheetRow{{Title: "Manager", Company: "Infosys", Remote: true}},
		Upsert:   upsert,
		ClearTab: clear,
		Sheet:    tools.SheetTarget{SpreadsheetID: "sheet-1", Tab: "Jobs"},
	}
}

func TestSheetsAdapterAppend(t *testing.T) {
	w := &fakeValuesWriter{}
	a := newSheetsClientAdapter(w)
	a.clock = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	res, err := a.Export(context.Background(), exportParams(false, false))
	require.NoError(t, err)
	assert.Equal(t, 1, res.WrittenRows)
	assert.Equal(t, 2025, res.CompletedAt.Year())

	require.Len(t, w.writes, 1)
	assert.Equal(t, "append", w.writes[0].op)
	assert.Equal(t, "Jobs!A1", w.writes[0].rng)
	assert.Equal(t, "Manager", w.writes[0].values[0][0])
	assert.Equal(t, "true", w.writes[0].values[0][4])
}

func TestSheetsAdapterUpsertClearsAndWritesHeader(t *testing.T) {
	w := &fakeValuesWriter{}

	_, err := newSheetsClientAdapter(w).Export(context.Background(), exportParams(true, true))
	require.NoError(t, err)

	require.Len(t, w.writes, 2)
	assert.Equal(t, "clear", w.writes[0].op)
	assert.Equal(t, "Jobs!A1:K", w.writes[0].rng)
	assert.Equal(t, "update", w.writes[1].op)
	assert.Equal(t, sheetHeader, w.writes[1].values[0])
	assert.Len(t, w.writes[1].values, 2)
}

func TestSheetsAdapterErrors(t *testing.T) {
	var unconfigured *sheetsClientAdapter
	_, err := unconfigured.Export(context.Background(), exportParams(false, false))
	assert.ErrorIs(t, err, tools.ErrSheetsNotConfigured)

	w := &fakeValuesWriter{err: errors.New("quota exceeded")}
	_, err = newSheetsClientAdapter(w).Export(context.Background(), exportParams(false, false))
	assert.ErrorContains(t, err, "quota exceeded")

	res, err := newSheetsClientAdapter(w).Export(context.Background(), tools.SheetsExportParams{})
	require.NoError(t, err)
	assert.Equal(t, "no rows to export", res.Message)
}
