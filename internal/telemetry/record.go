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

// Package telemetry 持久化每次查询的 LogRecord 与用户反馈
package telemetry

import (
	"context"
	"errors"
	"time"
)

// LogRecord 每次查询写入一条
type LogRecord struct {
	Timestamp        time.Time      `json:"timestamp"`
	Query            string         `json:"query"`
	Domain           string         `json:"domain"`
	Source           string         `json:"source"`
	FinalAnswer      string         `json:"final_answer"`
	ResponseTime     float64        `json:"response_time"` // 秒
	AgentRawResponse string         `json:"agent_raw_response"`
	ToolUsage        map[string]int `json:"tool_usage"`
}

// Sink 查询日志写入端；实现须可并发调用
type Sink interface {
	Write(ctx context.Context, rec *LogRecord) error
	Close() error
}

type multiSink []Sink

// NewMultiSink 依次写入全部 sink，汇总错误；单个 sink 直接返回自身
func NewMultiSink(sinks ...Sink) Sink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return multiSink(sinks)
}

func (m multiSink) Write(ctx context.Context, rec *LogRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nopSink struct{}

// NopSink 丢弃所有记录
func NopSink() Sink { return nopSink{} }

func (nopSink) Write(context.Context, *LogRecord) error { return nil }
func (nopSink) Close() error                            { return nil }
