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

package tool

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
)

// 内置检索工具名称
const (
	SQLSearch    = "sql_search"
	VectorSearch = "vector_search"
	GraphSearch  = "graph_search"
)

// Tool 检索工具：Invoke 永不返回错误，内部失败以诊断文本形式作为 observation
type Tool interface {
	Name() string
	Description() string
	Invoke(ctx context.Context, in Input) string
}

// Payload 文档定向检索的结构化输入
type Payload struct {
	Query    string `json:"query"`
	Filename string `json:"filename"`
}

// Input 工具输入：纯文本，或带 filename 的结构化 payload
type Input struct {
	Text    string
	Payload *Payload
}

// TextInput 构造纯文本输入
func TextInput(s string) Input { return Input{Text: s} }

// PayloadInput 构造结构化输入
func PayloadInput(query, filename string) Input {
	return Input{Text: query, Payload: &Payload{Query: query, Filename: filename}}
}

// String 返回输入的文本形式；payload 渲染为 JSON 对象
func (in Input) String() string {
	if in.Payload == nil {
		return in.Text
	}
	b, err := json.Marshal(in.Payload)
	if err != nil {
		return in.Text
	}
	return string(b)
}

// Query 返回问题文本
func (in Input) Query() string {
	if in.Payload != nil && in.Payload.Query != "" {
		return in.Payload.Query
	}
	return in.Text
}

// ParseInput 将推理引擎给出的 Action Input 解析为 Input；形如 {"query":..,"filename":..} 的 JSON 视为 payload
func ParseInput(raw string) Input {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		var p Payload
		if err := json.Unmarshal([]byte(s), &p); err == nil && p.Filename != "" {
			return Input{Text: p.Query, Payload: &p}
		}
	}
	return Input{Text: raw}
}

var fencePattern = regexp.MustCompile("(?s)```(?:\\w+\\n)?(.*?)```")

// StripFences 取第一个 ``` 代码块内的内容；没有代码块时仅去除首尾空白
func StripFences(s string) string {
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}
