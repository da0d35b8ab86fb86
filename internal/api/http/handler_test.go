// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/internal/pipeline/query"
	"compass/internal/telemetry"
	"compass/pkg/errors"
)

type stubQueries struct {
	res                   *query.Result
	err                   error
	query, domain, source string
}

func (s *stubQueries) RunQuery(_ context.Context, q, domain, source string) (*query.Result, error) {
	s.query, s.domain, s.source = q, domain, source
	return s.res, s.err
}

func jsonBody(t *testing.T, v any) *ut.Body {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return &ut.Body{Body: bytes.NewReader(b), Len: len(b)}
}

func emptyBody() *ut.Body { return &ut.Body{Body: bytes.NewReader(nil), Len: 0} }

func TestHealthCheck(t *testing.T) {
	h := server.Default(server.WithHostPorts(":0"))
	handler := NewHandler(nil, nil)
	h.GET("/api/health", func(ctx context.Context, c *app.RequestContext) {
		handler.HealthCheck(ctx, c)
	})
	w := ut.PerformRequest(h.Engine, "GET", "/api/health", emptyBody())
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Errorf("HealthCheck status: got %d", resp.StatusCode())
	}
	if !bytes.Contains(resp.Body(), []byte("ok")) {
		t.Errorf("HealthCheck body: %s", resp.Body())
	}
}

func TestQuery(t *testing.T) {
	stub := &stubQueries{res: &query.Result{
		Answer: "Paris is the capital of France. It hosts the Louvre.",
		SourceHighlights: []query.SourceHighlight{
			{Text: "Paris is the capital of France.", Source: "Paris is the capital and largest city of France."},
		},
		ToolUsage: map[string]int{"vector_search": 1},
	}}
	h := server.Default(server.WithHostPorts(":0"))
	h.POST("/api/query", NewHandler(stub, nil).Query)

	w := ut.PerformRequest(h.Engine, "POST", "/api/query",
		jsonBody(t, map[string]any{"query": "Capital?", "domain": "Geo", "source": "atlas.pdf", "highlight": true}),
		ut.Header{Key: "Content-Type", Value: "application/json"})
	resp := w.Result()
	require.Equal(t, 200, resp.StatusCode(), string(resp.Body()))
	assert.Equal(t, "Capital?", stub.query)
	assert.Equal(t, "atlas.pdf", stub.source)

	var got map[string]any
	require.NoError(t, json.Unmarshal(resp.Body(), &got))
	assert.Equal(t, stub.res.Answer, got["answer"])
	hs, ok := got["source_highlights"].([]any)
	require.True(t, ok)
	require.Len(t, hs, 1)
	assert.Equal(t, "Paris is the capital and largest city of France.", hs[0].(map[string]any)["source"])
	assert.Equal(t, "<mark>Paris is the capital of France.</mark> It hosts the Louvre.", got["highlighted_answer"])
}

func TestQuery_DefaultsSourceToAll(t *testing.T) {
	stub := &stubQueries{res: &query.Result{Answer: "ok"}}
	h := server.Default(server.WithHostPorts(":0"))
	h.POST("/api/query", NewHandler(stub, nil).Query)

	w := ut.PerformRequest(h.Engine, "POST", "/api/query", jsonBody(t, map[string]any{"query": "How many orders?"}),
		ut.Header{Key: "Content-Type", Value: "application/json"})
	assert.Equal(t, 200, w.Result().StatusCode())
	assert.Equal(t, "All", stub.source)
}

func TestQuery_BadRequests(t *testing.T) {
	stub := &stubQueries{err: errors.Wrap(errors.ErrInvalidArg, "bad")}
	h := server.Default(server.WithHostPorts(":0"))
	h.POST("/api/query", NewHandler(stub, nil).Query)

	w := ut.PerformRequest(h.Engine, "POST", "/api/query", jsonBody(t, map[string]any{"query": "  "}),
		ut.Header{Key: "Content-Type", Value: "application/json"})
	assert.Equal(t, 400, w.Result().StatusCode())
	assert.Contains(t, string(w.Result().Body()), "query is required")

	w = ut.PerformRequest(h.Engine, "POST", "/api/query", jsonBody(t, map[string]any{"query": "x"}),
		ut.Header{Key: "Content-Type", Value: "application/json"})
	assert.Equal(t, 400, w.Result().StatusCode())

	h2 := server.Default(server.WithHostPorts(":0"))
	h2.POST("/api/query", NewHandler(nil, nil).Query)
	w = ut.PerformRequest(h2.Engine, "POST", "/api/query", jsonBody(t, map[string]any{"query": "x"}),
		ut.Header{Key: "Content-Type", Value: "application/json"})
	assert.Equal(t, 503, w.Result().StatusCode())
}

func TestDashboard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent_calls.jsonl")
	lines := `{"timestamp":"2025-03-04T10:00:00Z","query":"a","response_time":1,"tool_usage":{"sql_search":1}}
garbage
{"timestamp":"2025-03-04T11:00:00Z","query":"b","response_time":3,"tool_usage":{"sql_search":2}}
`
	require.NoError(t, os.WriteFile(path, []byte(lines), 0644))

	handler := NewHandler(nil, nil)
	handler.SetQueryLogPath(path)
	h := server.Default(server.WithHostPorts(":0"))
	h.GET("/api/dashboard", handler.Dashboard)

	w := ut.PerformRequest(h.Engine, "GET", "/api/dashboard", emptyBody())
	require.Equal(t, 200, w.Result().StatusCode())
	var s telemetry.Summary
	require.NoError(t, json.Unmarshal(w.Result().Body(), &s))
	assert.Equal(t, 2, s.TotalQueries)
	assert.Equal(t, 1, s.SkippedLines)
	assert.InDelta(t, 2.0, s.AvgResponseTime, 1e-9)
	assert.Equal(t, []telemetry.ToolCount{{Tool: "sql_search", Count: 3}}, s.ToolUsage)
}

func TestFeedback(t *testing.T) {
	fl, err := telemetry.NewFeedbackLog(filepath.Join(t.TempDir(), "feedback.jsonl"))
	require.NoError(t, err)
	defer fl.Close()

	handler := NewHandler(nil, nil)
	handler.SetFeedbackLog(fl)
	h := server.Default(server.WithHostPorts(":0"))
	h.POST("/api/feedback", handler.Feedback)

	w := ut.PerformRequest(h.Engine, "POST", "/api/feedback",
		jsonBody(t, map[string]any{"query": "q", "answer": "a", "rating": -1}),
		ut.Header{Key: "Content-Type", Value: "application/json"})
	require.Equal(t, 200, w.Result().StatusCode(), string(w.Result().Body()))
	assert.Contains(t, string(w.Result().Body()), `"rating":-1`)

	w = ut.PerformRequest(h.Engine, "POST", "/api/feedback",
		jsonBody(t, map[string]any{"query": "q", "answer": "a", "rating": 3}),
		ut.Header{Key: "Content-Type", Value: "application/json"})
	assert.Equal(t, 400, w.Result().StatusCode())
}
