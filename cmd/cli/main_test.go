package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAPI(t *testing.T) (*httptest.Server, *askRequest) {
	t.Helper()
	var last askRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/api/query", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&last))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":"Paris is the capital of France.","source_highlights":[{"text":"Paris is the capital of France.","source":"Paris is the capital and largest city of France."}],"degraded":false,"tool_usage":{"vector_search":1},"response_time":1.5}`))
	})
	mux.HandleFunc("/api/tools", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tools":[{"name":"graph_search","description":"graph"},{"name":"sql_search","description":"sql"}]}`))
	})
	mux.HandleFunc("/api/feedback", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"rating must be +1 or -1"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &last
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"version"}, nil, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "compass cli")
}

func TestRun_Ask(t *testing.T) {
	srv, last := fakeAPI(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"ask", "-source", "atlas.pdf", "-domain", "Geo", "What", "is", "the", "capital?"},
		newClient(srv.URL), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "What is the capital?", last.Query)
	assert.Equal(t, "atlas.pdf", last.Source)
	assert.Equal(t, "Geo", last.Domain)
	out := stdout.String()
	assert.Contains(t, out, "Paris is the capital of France.")
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "vector_search=1")
}

func TestRun_AskRequiresQuestion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"ask"}, newClient("http://127.0.0.1:0"), &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Usage: compass ask")
}

func TestRun_Tools(t *testing.T) {
	srv, _ := fakeAPI(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"tools"}, newClient(srv.URL), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "graph_search: graph\nsql_search: sql\n", stdout.String())
}

func TestRun_Feedback(t *testing.T) {
	srv, _ := fakeAPI(t)
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"feedback", "5", "q", "a"}, newClient(srv.URL), &stdout, &stderr))
	assert.Contains(t, stderr.String(), "rating")

	stderr.Reset()
	assert.Equal(t, 1, run([]string{"feedback", "+1", "q", "a"}, newClient(srv.URL), &stdout, &stderr))
	assert.Contains(t, stderr.String(), "POST /api/feedback")
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"jobs"}, nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage: compass")
}
