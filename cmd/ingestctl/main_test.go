package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitArgs struct {
	Query   string   `json:"query"`
	Quota   int      `json:"quota"`
	Sources []string `json:"sources"`
}

type statusArgs struct {
	TaskID string `json:"task_id"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := mcp.NewServer(&mcp.Implementation{Name: "jobingest-test", Version: "test"}, nil)

	var polls atomic.Int32
	mcp.AddTool(server, &mcp.Tool{Name: "submit_ingestion"}, func(_ context.Context, _ *mcp.CallToolRequest, in submitArgs) (*mcp.CallToolResult, any, error) {
		if in.Quota <= 0 {
			return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: "invalid ingestion request"}}}, nil, nil
		}
		text := "accepted " + in.Query
		if len(in.Sources) > 0 {
			text += " from " + strings.Join(in.Sources, ",")
		}
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}},
			map[string]any{"task_id": "0b8f5d0c-8e7f-4a59-9a8c-6f3c1f0e2d11", "mode": "synthetic"}, nil
	})
	mcp.AddTool(server, &mcp.Tool{Name: "ingestion_status"}, func(_ context.Context, _ *mcp.CallToolRequest, in statusArgs) (*mcp.CallToolResult, any, error) {
		status := "running"
		if polls.Add(1) > 1 {
			status = "completed"
		}
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "task " + in.TaskID + " is " + status}}},
			map[string]any{"id": in.TaskID, "status": status}, nil
	})

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSubmit(t *testing.T) {
	ts := newTestServer(t)

	out, err := run(t, "--endpoint", ts.URL, "submit", "Manager", "--quota", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "accepted Manager")
}

func TestSubmitForwardsSources(t *testing.T) {
	ts := newTestServer(t)

	out, err := run(t, "--endpoint", ts.URL, "submit", "Manager", "--source", "jsearch", "--source", "adzuna")
	require.NoError(t, err)
	assert.Contains(t, out, "accepted Manager from jsearch,adzuna")
}

func TestSubmitToolErrorIsReturned(t *testing.T) {
	ts := newTestServer(t)

	_, err := run(t, "--endpoint", ts.URL, "submit", "Manager", "--quota", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ingestion request")
}

func TestSubmitWaitPollsUntilTerminal(t *testing.T) {
	ts := newTestServer(t)

	out, err := run(t, "--endpoint", ts.URL, "submit", "Manager", "--wait", "--interval", (10 * time.Millisecond).String())
	require.NoError(t, err)
	assert.Contains(t, out, "is completed")
}

func TestStatusJSON(t *testing.T) {
	ts := newTestServer(t)

	out, err := run(t, "--endpoint", ts.URL, "--json", "status", "0b8f5d0c-8e7f-4a59-9a8c-6f3c1f0e2d11")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "running"`)
}

func TestToolsListsServerTools(t *testing.T) {
	ts := newTestServer(t)

	out, err := run(t, "--endpoint", ts.URL, "tools")
	require.NoError(t, err)
	assert.Contains(t, out, "submit_ingestion")
	assert.Contains(t, out, "ingestion_status")
}

func TestUnreachableEndpoint(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	_, err := run(t, "--endpoint", ts.URL, "stats")
	require.Error(t, err)
}
