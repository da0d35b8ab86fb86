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

// Package query 查询入口：路由、推理循环、工具统计、出处匹配与遥测落盘
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"compass/internal/agent/react"
	"compass/internal/provenance"
	"compass/internal/router"
	"compass/internal/telemetry"
	"compass/internal/usage"
	"compass/pkg/errors"
	"compass/pkg/log"
	"compass/pkg/metrics"
	"compass/pkg/tracing"
)

const (
	noOutput      = "No output generated."
	failurePrefix = "Agent failed to answer: "
)

// Runner 推理循环
type Runner interface {
	Run(ctx context.Context, req react.Request) (*react.Trace, error)
}

// SourceHighlight 答案句子与其出处
type SourceHighlight struct {
	Text          string `json:"text"`
	Source        string `json:"source"`
	LowConfidence bool   `json:"low_confidence,omitempty"`
}

// Result RunQuery 的返回
type Result struct {
	Answer           string            `json:"answer"`
	SourceHighlights []SourceHighlight `json:"source_highlights"`
	Degraded         bool              `json:"degraded,omitempty"`
	ToolUsage        map[string]int    `json:"tool_usage"`
	ResponseTime     float64           `json:"response_time"`
	Error            string            `json:"error,omitempty"`
}

// Config Service 依赖
type Config struct {
	Loop    Runner
	Matcher *provenance.Matcher
	Sink    telemetry.Sink
	Usage   usage.Options
	Logger  *log.Logger
}

// Service 查询服务；无请求间可变状态，Sink 负责自身并发安全
type Service struct {
	loop    Runner
	matcher *provenance.Matcher
	sink    telemetry.Sink
	usage   usage.Options
	logger  *log.Logger
	now     func() time.Time
}

// NewService 创建查询服务
func NewService(cfg Config) (*Service, error) {
	if cfg.Loop == nil {
		return nil, fmt.Errorf("reasoning loop 不能为空")
	}
	if cfg.Matcher == nil {
		cfg.Matcher = provenance.NewMatcher(provenance.Options{Logger: cfg.Logger})
	}
	if cfg.Sink == nil {
		cfg.Sink = telemetry.NopSink()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}
	return &Service{
		loop:    cfg.Loop,
		matcher: cfg.Matcher,
		sink:    cfg.Sink,
		usage:   cfg.Usage,
		logger:  cfg.Logger,
		now:     time.Now,
	}, nil
}

// RunQuery 回答一个问题；推理引擎失败时答案为 "Agent failed to answer: ..."，不返回 error
func (s *Service) RunQuery(ctx context.Context, query, domain, source string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.Wrap(errors.ErrInvalidArg, "query 不能为空")
	}
	start := s.now()
	ctx, span := tracing.StartQuerySpan(ctx, domain, source)
	defer span.End()

	decision := router.Classify(source, query)
	routing := "free"
	if decision.Forced() {
		routing = "forced"
		span.SetAttributes(attribute.String("query.forced_tool", decision.ForcedTool))
	}
	logger := s.logger.With("domain", domain, "source", source, "routing", routing)

	trace, runErr := s.loop.Run(ctx, react.Request{
		Query:       query,
		ForcedTool:  decision.ForcedTool,
		ForcedInput: decision.Input,
	})

	res := &Result{Answer: noOutput, SourceHighlights: []SourceHighlight{}}
	status := "answered"
	if runErr != nil {
		status = "failed"
		res.Answer = failurePrefix + runErr.Error()
		res.Error = runErr.Error()
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
		logger.Error("agent execution error", "error", runErr)
		// 只统计失败前实际执行过的工具
		res.ToolUsage = usage.Extract(trace, "", "", s.usage).Counts
	} else {
		if trace.FinalOutput != "" {
			res.Answer = trace.FinalOutput
		}
		if trace.Degraded {
			status = "degraded"
			res.Degraded = true
		}
		u := usage.Extract(trace, decision.ForcedTool, res.Answer, s.usage)
		res.ToolUsage = u.Counts
		logger.Info("tool usage extracted", "tier", u.Tier.String(), "tool_usage", u.Counts)

		for _, h := range s.matcher.Match(res.Answer, trace.Observations()) {
			res.SourceHighlights = append(res.SourceHighlights, SourceHighlight{
				Text:          h.Text,
				Source:        h.Source,
				LowConfidence: h.LowConfidence,
			})
		}
	}

	elapsed := s.now().Sub(start).Seconds()
	res.ResponseTime = elapsed
	metrics.QueryDuration.WithLabelValues(routing).Observe(elapsed)
	metrics.QueryTotal.WithLabelValues(status).Inc()

	rec := &telemetry.LogRecord{
		Timestamp:        start,
		Query:            query,
		Domain:           domain,
		Source:           source,
		FinalAnswer:      res.Answer,
		ResponseTime:     elapsed,
		AgentRawResponse: rawResponse(trace),
		ToolUsage:        res.ToolUsage,
	}
	if err := s.sink.Write(ctx, rec); err != nil {
		logger.Warn("write query log failed", "error", err)
	}
	return res, nil
}

func rawResponse(trace *react.Trace) string {
	if trace == nil {
		return ""
	}
	return trace.Transcript
}
