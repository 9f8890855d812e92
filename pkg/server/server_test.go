package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabula-vn/fabula/pkg/logic"
	"github.com/fabula-vn/fabula/pkg/server"
	"github.com/fabula-vn/fabula/pkg/story"
)

// goldGraph builds a start -> condition(gold >= 100) graph.
func goldGraph(t *testing.T) *logic.Graph {
	t.Helper()
	f := logic.NewFactory()
	g := logic.NewGraph("gold-gate")

	start := f.NewNode(logic.NodeTypeStart, logic.Position{X: 100, Y: 100}, nil)
	cond := f.NewNode(logic.NodeTypeCondition, logic.Position{X: 300, Y: 100}, map[string]any{
		"variableId": "gold", "operator": ">=", "value": 100,
	})
	require.NoError(t, g.AddNode(start))
	require.NoError(t, g.AddNode(cond))
	_, err := g.Connect(start.ID, start.Outputs[0].ID, cond.ID, cond.Inputs[0].ID)
	require.NoError(t, err)
	return g
}

func documentBody(t *testing.T, g *logic.Graph) *bytes.Reader {
	t.Helper()
	doc := map[string]any{
		"format":         "fabula/graph",
		"format_version": 1,
		"graph":          g,
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func decodeJSON(t *testing.T, body io.Reader, out any) {
	t.Helper()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestServer_GraphCRUD(t *testing.T) {
	store := logic.NewMemoryStore()
	app := server.New(store)
	g := goldGraph(t)

	// Create.
	req := httptest.NewRequest("POST", "/graphs", documentBody(t, g))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	// Read back.
	resp, err = app.Test(httptest.NewRequest("GET", "/graphs/"+g.ID, nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	var got logic.Graph
	decodeJSON(t, resp.Body, &got)
	assert.Equal(t, g.ID, got.ID)
	assert.Len(t, got.Nodes, 2)

	// List.
	resp, err = app.Test(httptest.NewRequest("GET", "/graphs", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	var infos []logic.GraphInfo
	decodeJSON(t, resp.Body, &infos)
	require.Len(t, infos, 1)
	assert.Equal(t, g.ID, infos[0].ID)

	// Delete.
	resp, err = app.Test(httptest.NewRequest("DELETE", "/graphs/"+g.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/graphs/"+g.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestServer_CreateRejectsBadDocument(t *testing.T) {
	app := server.New(logic.NewMemoryStore())
	req := httptest.NewRequest("POST", "/graphs", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestServer_Validate(t *testing.T) {
	ctx := context.Background()
	store := logic.NewMemoryStore()
	app := server.New(store)
	g := goldGraph(t)
	require.NoError(t, store.SaveGraph(ctx, g))

	body := func(level string, vars []story.Variable) *bytes.Reader {
		data, err := json.Marshal(map[string]any{"level": level, "variables": vars})
		require.NoError(t, err)
		return bytes.NewReader(data)
	}

	t.Run("declared variable validates clean", func(t *testing.T) {
		req := httptest.NewRequest("POST", fmt.Sprintf("/graphs/%s/validate", g.ID),
			body("runtime", []story.Variable{{ID: "gold", Type: story.VariableNumber}}))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)

		var report logic.Report
		decodeJSON(t, resp.Body, &report)
		assert.True(t, report.IsValid)
		assert.True(t, report.CanExecute)
		assert.Empty(t, report.Errors)
	})

	t.Run("missing variable fails and persists cached validity", func(t *testing.T) {
		req := httptest.NewRequest("POST", fmt.Sprintf("/graphs/%s/validate", g.ID),
			body("runtime", []story.Variable{}))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)

		var report logic.Report
		decodeJSON(t, resp.Body, &report)
		assert.False(t, report.IsValid)
		require.Len(t, report.Errors, 1)
		assert.Equal(t, logic.CodeUndefinedVariable, report.Errors[0].Code)

		stored, err := store.GetGraph(ctx, g.ID)
		require.NoError(t, err)
		assert.False(t, stored.Valid)
	})

	t.Run("unknown graph", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/graphs/nope/validate", body("syntax", nil))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})
}

func TestServer_Export(t *testing.T) {
	ctx := context.Background()
	store := logic.NewMemoryStore()
	app := server.New(store)
	g := goldGraph(t)
	require.NoError(t, store.SaveGraph(ctx, g))

	data, err := json.Marshal(map[string]any{"format": "script", "optimize": "basic"})
	require.NoError(t, err)
	req := httptest.NewRequest("POST", fmt.Sprintf("/graphs/%s/export", g.ID), bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var result logic.ExportResult
	decodeJSON(t, resp.Body, &result)
	require.Len(t, result.Conditions, 1)
	assert.Equal(t, "gold", result.Conditions[0].VariableID)
	assert.Len(t, result.Hints, 1)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "manual testing")
}

func TestServer_Healthz(t *testing.T) {
	app := server.New(logic.NewMemoryStore())
	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
