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

package document

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// JSONLStore 从 parsed.jsonl 读取文档；每次查找重新读取文件，以便离线解析结果即时可见
type JSONLStore struct {
	path string
}

// NewJSONLStore 创建 JSONL 文档源
func NewJSONLStore(path string) *JSONLStore {
	return &JSONLStore{path: path}
}

// Find 实现 Store；返回第一个匹配的文档，无法解析的行跳过
func (s *JSONLStore) Find(ctx context.Context, filename string) ([]Document, error) {
	var found []Document
	err := s.scan(ctx, func(d Document) bool {
		if strings.EqualFold(d.Filename, filename) {
			found = []Document{d}
			return false
		}
		return true
	})
	return found, err
}

// List 实现 Lister
func (s *JSONLStore) List(ctx context.Context) ([]Document, error) {
	var out []Document
	err := s.scan(ctx, func(d Document) bool {
		out = append(out, d)
		return true
	})
	return out, err
}

// scan 逐行解码，fn 返回 false 时停止
func (s *JSONLStore) scan(ctx context.Context, fn func(Document) bool) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var d Document
		if err := json.Unmarshal([]byte(line), &d); err != nil {
			continue
		}
		if !fn(d) {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	return nil
}
