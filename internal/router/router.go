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

// Package router 根据数据源标签把问题确定性地分派给检索工具
package router

import (
	"path/filepath"
	"strings"

	"compass/internal/tool"
)

// SourceAll 不限定数据源
const SourceAll = "All"

var structuredSources = map[string]bool{
	"Customers": true,
	"Orders":    true,
	"Products":  true,
}

var structuredKeywords = []string{"customer", "customers", "order", "orders", "product", "products"}

// Decision 路由结果；ForcedTool 为空表示由推理引擎自行选择
type Decision struct {
	ForcedTool string
	Input      tool.Input
}

// Forced 是否强制指定了工具
func (d Decision) Forced() bool { return d.ForcedTool != "" }

// Classify 纯函数，按顺序匹配规则，先匹配者生效：
//  1. 结构化数据源 -> sql_search
//  2. .eml / .pdf 文件 -> vector_search，输入为 {query, filename}
//  3. All 且问题包含客户/订单/产品关键词 -> sql_search
//  4. 其余不限定
func Classify(source, query string) Decision {
	if structuredSources[source] {
		return Decision{ForcedTool: tool.SQLSearch, Input: tool.TextInput(query)}
	}
	switch strings.ToLower(filepath.Ext(source)) {
	case ".eml", ".pdf":
		return Decision{ForcedTool: tool.VectorSearch, Input: tool.PayloadInput(query, source)}
	}
	if source == SourceAll && mentionsStructured(query) {
		return Decision{ForcedTool: tool.SQLSearch, Input: tool.TextInput(query)}
	}
	return Decision{Input: tool.TextInput(query)}
}

func mentionsStructured(query string) bool {
	lower := strings.ToLower(query)
	for _, kw := range structuredKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
