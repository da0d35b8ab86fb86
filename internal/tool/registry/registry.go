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

package registry

import (
	"fmt"
	"sort"
	"strings"

	"compass/internal/tool"
)

// DuplicateToolError 同名工具重复注册
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q registered more than once", e.Name)
}

// Registry 工具注册表：构造后只读，可在请求间共享
type Registry struct {
	tools map[string]tool.Tool
	names []string
}

// New 以给定工具构造注册表；名称为空或重复时返回错误
func New(tools ...tool.Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]tool.Tool, len(tools))}
	for _, t := range tools {
		if t == nil {
			continue
		}
		name := t.Name()
		if name == "" {
			return nil, fmt.Errorf("tool name must not be empty")
		}
		if _, ok := r.tools[name]; ok {
			return nil, &DuplicateToolError{Name: name}
		}
		r.tools[name] = t
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Get 按名称获取工具
func (r *Registry) Get(name string) (tool.Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names 返回按名称排序的工具名
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// List 返回按名称排序的工具
func (r *Registry) List() []tool.Tool {
	list := make([]tool.Tool, 0, len(r.names))
	for _, n := range r.names {
		list = append(list, r.tools[n])
	}
	return list
}

// Len 工具数量
func (r *Registry) Len() int { return len(r.names) }

// Describe 供提示词使用的工具清单，每行 "name: description"
func (r *Registry) Describe() string {
	var b strings.Builder
	for i, n := range r.names {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(n)
		b.WriteString(": ")
		b.WriteString(r.tools[n].Description())
	}
	return b.String()
}
