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

package builtin

import (
	"context"

	"compass/internal/tool"
	"compass/pkg/log"
)

// RecordEngine 结构化记录问答后端
type RecordEngine interface {
	Answer(ctx context.Context, question string) (string, error)
}

// SQLSearchTool 实现 sql_search：客户、订单、产品等结构化记录查询
type SQLSearchTool struct {
	engine RecordEngine
	logger *log.Logger
}

// NewSQLSearchTool 创建 sql_search 工具；engine 为 nil 时调用返回不可用提示
func NewSQLSearchTool(engine RecordEngine, logger *log.Logger) *SQLSearchTool {
	if logger == nil {
		logger = log.Nop()
	}
	return &SQLSearchTool{engine: engine, logger: logger}
}

// Name 实现 tool.Tool
func (t *SQLSearchTool) Name() string { return tool.SQLSearch }

// Description 实现 tool.Tool
func (t *SQLSearchTool) Description() string {
	return "PRIMARY TOOL for detailed questions about CUSTOMERS, ORDERS, or PRODUCTS. " +
		"Use it to look up individual records or aggregates from the structured database. " +
		"Input is the natural-language question."
}

// Invoke 实现 tool.Tool
func (t *SQLSearchTool) Invoke(ctx context.Context, in tool.Input) string {
	if t.engine == nil {
		return "sql_search unavailable: structured-record backend is not configured"
	}
	question := tool.StripFences(in.Query())
	if question == "" {
		return "sql search error: empty question"
	}
	answer, err := t.engine.Answer(ctx, question)
	if err != nil {
		t.logger.Warn("sql_search failed", "error", err)
		return "sql search error: " + err.Error()
	}
	return answer
}
