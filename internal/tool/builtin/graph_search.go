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
	"encoding/json"
	"strings"

	"compass/internal/tool"
	"compass/pkg/log"
)

// UnionRemediation 图查询 UNION 各分支返回列不一致时的提示
const UnionRemediation = "Please ensure each part of the UNION returns the same column names, or ask separate questions."

// GraphEngine 图查询后端
type GraphEngine interface {
	Query(ctx context.Context, cypher string) ([]map[string]any, error)
}

// GraphSearchTool 实现 graph_search：人员、项目、部门之间的关系查询
type GraphSearchTool struct {
	engine GraphEngine
	logger *log.Logger
}

// NewGraphSearchTool 创建 graph_search 工具
func NewGraphSearchTool(engine GraphEngine, logger *log.Logger) *GraphSearchTool {
	if logger == nil {
		logger = log.Nop()
	}
	return &GraphSearchTool{engine: engine, logger: logger}
}

// Name 实现 tool.Tool
func (t *GraphSearchTool) Name() string { return tool.GraphSearch }

// Description 实现 tool.Tool
func (t *GraphSearchTool) Description() string {
	return "Answer questions about relationships among Persons, Projects, and Departments in the graph database. " +
		"Input MUST be a valid Cypher query string (e.g., 'MATCH (a:Person) RETURN a.name')."
}

// Invoke 实现 tool.Tool；任何失败都转为文本
func (t *GraphSearchTool) Invoke(ctx context.Context, in tool.Input) string {
	cypher := strings.ReplaceAll(tool.StripFences(in.Query()), "`", "")
	cypher = strings.TrimSpace(cypher)
	if t.engine == nil {
		return "graph query error: graph backend is not configured"
	}
	if cypher == "" {
		return "graph query error: empty query"
	}
	records, err := t.engine.Query(ctx, cypher)
	if err != nil {
		t.logger.Warn("graph_search failed", "cypher", cypher, "error", err)
		if strings.Contains(strings.ToUpper(cypher), "UNION") && strings.Contains(err.Error(), "same return column names") {
			return UnionRemediation
		}
		return "graph query error: " + err.Error()
	}
	if len(records) == 0 {
		return "[]"
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "graph query error: " + err.Error()
	}
	return string(b)
}
