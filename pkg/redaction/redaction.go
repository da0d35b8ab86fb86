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
// Package redaction 对 JSON 记录的顶层或嵌套字段做脱敏
package redaction

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Mode 脱敏模式
type Mode string

const (
	ModeRedact Mode = "redact" // 替换为 "***REDACTED***"
	ModeHash   Mode = "hash"   // 替换为 SHA256 hash
	ModeRemove Mode = "remove" // 完全移除字段
)

// Redacted redact 模式的替换值
const Redacted = "***REDACTED***"

// FieldMask 字段掩码
type FieldMask struct {
	FieldPath string // JSON path，如 "query" 或 "meta.email"
	Mode      Mode
	Salt      string // Hash 模式的 salt（可选）
}

// Engine 脱敏引擎；无状态，可并发使用
type Engine struct {
	masks []FieldMask
}

// NewEngine 创建脱敏引擎；未知模式或空路径返回错误
func NewEngine(masks []FieldMask) (*Engine, error) {
	for _, m := range masks {
		if strings.TrimSpace(m.FieldPath) == "" {
			return nil, fmt.Errorf("redaction field path must not be empty")
		}
		switch m.Mode {
		case ModeRedact, ModeHash, ModeRemove:
		default:
			return nil, fmt.Errorf("unknown redaction mode %q for field %s", m.Mode, m.FieldPath)
		}
	}
	return &Engine{masks: masks}, nil
}

// Empty 没有任何规则
func (e *Engine) Empty() bool { return e == nil || len(e.masks) == 0 }

// RedactData 对 JSON 对象应用全部规则
func (e *Engine) RedactData(data []byte) ([]byte, error) {
	if e.Empty() || len(data) == 0 {
		return data, nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return data, err
	}
	for _, m := range e.masks {
		applyFieldMask(obj, m)
	}
	return json.Marshal(obj)
}

func applyFieldMask(obj map[string]interface{}, mask FieldMask) {
	parts := strings.Split(mask.FieldPath, ".")
	current := obj
	for i := 0; i < len(parts)-1; i++ {
		next, ok := current[parts[i]].(map[string]interface{})
		if !ok {
			return
		}
		current = next
	}

	last := parts[len(parts)-1]
	value, exists := current[last]
	if !exists {
		return
	}
	switch mask.Mode {
	case ModeRedact:
		current[last] = Redacted
	case ModeHash:
		current[last] = HashValue(fmt.Sprintf("%v", value), mask.Salt)
	case ModeRemove:
		delete(current, last)
	}
}

// HashValue 计算 "hash:" 前缀的 SHA256；相同输入与 salt 得到相同结果，便于聚合统计
func HashValue(value, salt string) string {
	h := sha256.New()
	h.Write([]byte(value))
	if salt != "" {
		h.Write([]byte(salt))
	}
	return "hash:" + hex.EncodeToString(h.Sum(nil))
}
