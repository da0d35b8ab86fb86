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

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	einoretriever "github.com/cloudwego/eino/components/retriever"
	"github.com/redis/go-redis/v9"

	"compass/internal/agent/react"
	"compass/internal/einoext"
	"compass/internal/model/llm"
	"compass/internal/pipeline/query"
	"compass/internal/provenance"
	"compass/internal/storage/document"
	"compass/internal/storage/graph"
	"compass/internal/storage/records"
	"compass/internal/telemetry"
	"compass/internal/tool"
	"compass/internal/tool/builtin"
	"compass/internal/tool/registry"
	"compass/internal/usage"
	"compass/pkg/config"
	"compass/pkg/log"
	"compass/pkg/redaction"
	"compass/pkg/secrets"
)

// Bootstrap 统一初始化：模型、三类后端、工具注册表、推理循环与查询服务
type Bootstrap struct {
	Config   *config.Config
	Logger   *log.Logger
	Secrets  secrets.Store
	Registry *registry.Registry
	Service  *query.Service
	Feedback *telemetry.FeedbackLog
	// QueryLogPath file sink 路径，未启用 file sink 时为空
	QueryLogPath string

	closers []func() error
}

// NewBootstrap 根据配置完成装配；任一已配置的后端不可用时返回错误
func NewBootstrap(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config 不能为空")
	}
	logger, err := log.NewLogger(&log.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		return nil, fmt.Errorf("初始化日志failed: %w", err)
	}
	store, err := secrets.NewStore(secrets.Config{
		Provider: cfg.Secrets.Provider,
		Vault: secrets.VaultConfig{
			Address:    cfg.Secrets.Address,
			Token:      cfg.Secrets.Token,
			PathPrefix: cfg.Secrets.PathPrefix,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 secrets failed: %w", err)
	}

	b := &Bootstrap{Config: cfg, Logger: logger, Secrets: store}
	if err := b.build(ctx); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Bootstrap) build(ctx context.Context) error {
	cfg := b.Config

	llmClient, err := NewLLMClientFromConfig(ctx, cfg, b.Secrets)
	if err != nil {
		return fmt.Errorf("初始化 LLM failed: %w", err)
	}
	gen := llm.AsGenerator(llmClient, llm.GenerateOptions{Temperature: 0})

	chatModel, err := NewChatModelFromConfig(ctx, cfg, b.Secrets)
	if err != nil {
		return fmt.Errorf("初始化 ChatModel failed: %w", err)
	}
	engine, err := react.NewChatEngine(chatModel)
	if err != nil {
		return err
	}

	tools, err := b.buildTools(ctx, gen)
	if err != nil {
		return err
	}
	reg, err := registry.New(tools...)
	if err != nil {
		return fmt.Errorf("初始化工具注册表failed: %w", err)
	}
	b.Registry = reg

	loop, err := react.NewLoop(engine, reg, react.Options{MaxSteps: cfg.Agent.MaxSteps, Logger: b.Logger})
	if err != nil {
		return err
	}

	policy, err := provenance.ParsePolicy(cfg.Agent.Provenance.LowConfidence)
	if err != nil {
		return err
	}
	matcher := provenance.NewMatcher(provenance.Options{
		Threshold: cfg.Agent.Provenance.Threshold,
		Policy:    policy,
		Logger:    b.Logger,
	})

	sink, err := b.buildSink(ctx)
	if err != nil {
		return err
	}

	svc, err := query.NewService(query.Config{
		Loop:    loop,
		Matcher: matcher,
		Sink:    sink,
		Usage:   usage.Options{FirstOnly: cfg.Agent.UsageMode == "first"},
		Logger:  b.Logger,
	})
	if err != nil {
		return err
	}
	b.Service = svc

	if cfg.Telemetry.FeedbackFile != "" {
		fl, err := telemetry.NewFeedbackLog(cfg.Telemetry.FeedbackFile)
		if err != nil {
			return fmt.Errorf("初始化反馈日志failed: %w", err)
		}
		b.Feedback = fl
		b.closers = append(b.closers, fl.Close)
	}

	b.Logger.Info("compass 装配完成",
		"tools", reg.Names(),
		"max_steps", loop.MaxSteps(),
		"usage_mode", cfg.Agent.UsageMode,
		"low_confidence", string(policy),
	)
	return nil
}

// buildTools 按配置创建 sql_search / vector_search / graph_search；未配置的后端由工具以诊断文本应答
func (b *Bootstrap) buildTools(ctx context.Context, gen llm.Generator) ([]tool.Tool, error) {
	cfg := b.Config

	var recordEngine builtin.RecordEngine
	if cfg.Backends.Records.DSN != "" {
		dsn, err := secrets.Resolve(ctx, b.Secrets, cfg.Backends.Records.DSN)
		if err != nil {
			return nil, fmt.Errorf("records dsn: %w", err)
		}
		pg, err := records.NewEnginePg(ctx, dsn, gen, records.Options{
			Tables:  cfg.Backends.Records.Tables,
			MaxRows: cfg.Backends.Records.MaxRows,
		})
		if err != nil {
			return nil, fmt.Errorf("初始化结构化记录库failed: %w", err)
		}
		recordEngine = pg
		b.closers = append(b.closers, func() error { pg.Close(); return nil })
	} else {
		b.Logger.Warn("backends.records.dsn 未配置，sql_search 不可用")
	}

	var graphEngine builtin.GraphEngine
	if cfg.Backends.Graph.URI != "" {
		password, err := secrets.Resolve(ctx, b.Secrets, cfg.Backends.Graph.Password)
		if err != nil {
			return nil, fmt.Errorf("graph password: %w", err)
		}
		neo, err := graph.NewEngineNeo4j(ctx, graph.Config{
			URI:      cfg.Backends.Graph.URI,
			Username: cfg.Backends.Graph.Username,
			Password: password,
			Database: cfg.Backends.Graph.Database,
		})
		if err != nil {
			return nil, fmt.Errorf("初始化图数据库failed: %w", err)
		}
		graphEngine = neo
		b.closers = append(b.closers, func() error { return neo.Close(context.Background()) })
	} else {
		b.Logger.Warn("backends.graph.uri 未配置，graph_search 不可用")
	}

	docs, err := b.buildDocuments(ctx)
	if err != nil {
		return nil, err
	}
	retriever, err := b.buildRetriever(ctx, docs)
	if err != nil {
		return nil, err
	}

	tools := []tool.Tool{
		builtin.NewSQLSearchTool(recordEngine, b.Logger),
		builtin.NewVectorSearchTool(builtin.VectorSearchConfig{
			Documents: docs,
			Generator: gen,
			Retriever: retriever,
			Logger:    b.Logger,
		}),
		builtin.NewGraphSearchTool(graphEngine, b.Logger),
	}
	for i, t := range tools {
		tools[i] = tool.WithLimits(t, toolLimits(cfg.Tools[t.Name()]))
	}
	return tools, nil
}

type documentSource interface {
	document.Store
	document.Lister
}

func (b *Bootstrap) buildDocuments(ctx context.Context) (documentSource, error) {
	dc := b.Config.Backends.Documents
	switch dc.Type {
	case "", "jsonl":
		return document.NewJSONLStore(dc.Path), nil
	case "postgres":
		dsn, err := secrets.Resolve(ctx, b.Secrets, dc.DSN)
		if err != nil {
			return nil, fmt.Errorf("documents dsn: %w", err)
		}
		pg, err := document.NewStorePg(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("初始化文档库failed: %w", err)
		}
		b.closers = append(b.closers, func() error { pg.Close(); return nil })
		return pg, nil
	default:
		return nil, fmt.Errorf("unsupported documents type: %s", dc.Type)
	}
}

func (b *Bootstrap) buildRetriever(ctx context.Context, docs document.Lister) (einoretriever.Retriever, error) {
	vc := b.Config.Backends.Vector
	if vc.Type == "" {
		b.Logger.Warn("backends.vector.type 未配置，vector_search 仅支持定向文档问答")
		return nil, nil
	}
	embedder, err := NewEmbedderFromConfig(ctx, b.Config, b.Secrets)
	if err != nil {
		return nil, fmt.Errorf("初始化 Embedding failed: %w", err)
	}
	if embedder == nil {
		return nil, fmt.Errorf("backends.vector.type=%s 需要 model.defaults.embedding", vc.Type)
	}
	pw, err := secrets.Resolve(ctx, b.Secrets, vc.Password)
	if err != nil {
		return nil, fmt.Errorf("vector password: %w", err)
	}
	vc.Password = pw
	ret, err := einoext.NewRetriever(ctx, vc, embedder, docs)
	if err != nil {
		return nil, fmt.Errorf("初始化向量检索failed: %w", err)
	}
	return ret, nil
}

func (b *Bootstrap) buildSink(ctx context.Context) (telemetry.Sink, error) {
	tc := b.Config.Telemetry
	var sinks []telemetry.Sink
	for _, kind := range tc.Sinks {
		switch kind {
		case "file":
			fs, err := telemetry.NewFileSink(tc.File)
			if err != nil {
				return nil, fmt.Errorf("初始化查询日志failed: %w", err)
			}
			b.QueryLogPath = fs.Path()
			sinks = append(sinks, fs)
		case "postgres":
			dsn, err := secrets.Resolve(ctx, b.Secrets, tc.DSN)
			if err != nil {
				return nil, fmt.Errorf("telemetry dsn: %w", err)
			}
			pg, err := telemetry.NewSinkPg(ctx, dsn)
			if err != nil {
				return nil, fmt.Errorf("初始化 query_logs failed: %w", err)
			}
			sinks = append(sinks, pg)
		case "redis":
			client := redis.NewClient(&redis.Options{Addr: tc.RedisAddr})
			if err := client.Ping(ctx).Err(); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("telemetry redis ping: %w", err)
			}
			sinks = append(sinks, telemetry.NewStreamSink(client, tc.Stream, 0))
			b.closers = append(b.closers, client.Close)
		default:
			return nil, fmt.Errorf("unsupported telemetry sink: %s", kind)
		}
	}
	if len(sinks) == 0 {
		return telemetry.NopSink(), nil
	}
	sink := telemetry.NewMultiSink(sinks...)
	b.closers = append(b.closers, sink.Close)

	masks := make([]redaction.FieldMask, 0, len(tc.Redact))
	for _, r := range tc.Redact {
		masks = append(masks, redaction.FieldMask{FieldPath: r.Field, Mode: redaction.Mode(r.Mode), Salt: r.Salt})
	}
	engine, err := redaction.NewEngine(masks)
	if err != nil {
		return nil, fmt.Errorf("telemetry.redact: %w", err)
	}
	return telemetry.WithRedaction(sink, engine), nil
}

func toolLimits(tc config.ToolConfig) tool.Limits {
	l := tool.Limits{QPS: tc.QPS, Burst: tc.Burst}
	if tc.Timeout != "" {
		if d, err := time.ParseDuration(tc.Timeout); err == nil && d > 0 {
			l.Timeout = d
		}
	}
	return l
}

// Close 逆序释放后端连接与日志文件
func (b *Bootstrap) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
