package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/internal/tool"
	"compass/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Agent: config.AgentConfig{MaxSteps: 5, UsageMode: "first"},
		Model: config.ModelConfig{
			LLM: config.LLMConfig{Providers: map[string]config.ProviderConfig{
				"openai": {APIKey: "sk-test", Models: map[string]config.ModelInfo{"mini": {Name: "gpt-4o-mini"}}},
			}},
			Defaults: config.DefaultsConfig{LLM: "openai.mini"},
		},
		Backends: config.BackendsConfig{
			Documents: config.DocumentsConfig{Type: "jsonl", Path: filepath.Join(dir, "parsed.jsonl")},
		},
		Tools: map[string]config.ToolConfig{
			tool.SQLSearch: {Timeout: "2s", QPS: 5},
		},
		Telemetry: config.TelemetryConfig{
			Sinks:        []string{"file"},
			File:         filepath.Join(dir, "logs", "agent_calls.jsonl"),
			FeedbackFile: filepath.Join(dir, "logs", "feedback.jsonl"),
		},
		Log: config.LogConfig{Level: "error"},
	}
}

func TestNewBootstrap_WithoutBackends(t *testing.T) {
	cfg := testConfig(t)
	b, err := NewBootstrap(context.Background(), cfg)
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, []string{tool.GraphSearch, tool.SQLSearch, tool.VectorSearch}, b.Registry.Names())
	assert.NotNil(t, b.Service)
	assert.NotNil(t, b.Feedback)
	assert.Equal(t, cfg.Telemetry.File, b.QueryLogPath)

	sql, ok := b.Registry.Get(tool.SQLSearch)
	require.True(t, ok)
	assert.Contains(t, sql.Invoke(context.Background(), tool.TextInput("How many customers?")), "not configured")
}

func TestNewBootstrap_Errors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Model.Defaults.LLM = "openai.missing"
	_, err := NewBootstrap(context.Background(), cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Telemetry.Sinks = []string{"kafka"}
	_, err = NewBootstrap(context.Background(), cfg)
	assert.ErrorContains(t, err, "unsupported telemetry sink")

	cfg = testConfig(t)
	cfg.Agent.Provenance.LowConfidence = "ignore"
	_, err = NewBootstrap(context.Background(), cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Backends.Vector.Type = "memory"
	_, err = NewBootstrap(context.Background(), cfg)
	assert.ErrorContains(t, err, "model.defaults.embedding")
}

func TestToolLimits(t *testing.T) {
	l := toolLimits(config.ToolConfig{Timeout: "1500ms", QPS: 2, Burst: 4})
	assert.Equal(t, tool.Limits{Timeout: 1500 * time.Millisecond, QPS: 2, Burst: 4}, l)
	assert.Equal(t, tool.Limits{}, toolLimits(config.ToolConfig{Timeout: "soon"}))
}

func TestParseModelKey(t *testing.T) {
	_, err := resolveModel(context.Background(), nil, "nodot", "LLM", nil)
	assert.Error(t, err)
}

func TestNewBootstrap_Redaction(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.Redact = []config.RedactConfig{{Field: "query", Mode: "encrypt"}}
	_, err := NewBootstrap(context.Background(), cfg)
	assert.ErrorContains(t, err, "telemetry.redact")

	cfg = testConfig(t)
	cfg.Telemetry.Redact = []config.RedactConfig{{Field: "query", Mode: "hash", Salt: "pepper"}}
	b, err := NewBootstrap(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, b.Close())
}
