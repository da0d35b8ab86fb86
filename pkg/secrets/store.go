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

package secrets

import (
	"context"
	"fmt"
	"strings"
)

// Store 只读 secret 来源：后端连接串、模型 API Key 等
type Store interface {
	// Get 获取 secret 值
	Get(ctx context.Context, key string) (string, error)
}

// Config secret 来源配置
type Config struct {
	Provider string // env | vault | static
	Vault    VaultConfig
	Static   map[string]string
}

// NewStore 按 provider 创建 Store
func NewStore(config Config) (Store, error) {
	switch config.Provider {
	case "", "env":
		return NewEnvStore(), nil
	case "vault":
		return NewVaultStore(config.Vault)
	case "static":
		return NewStaticStore(config.Static), nil
	default:
		return nil, fmt.Errorf("unsupported secret provider: %s", config.Provider)
	}
}

// Resolve 若 value 为 "${KEY}" 占位符则从 store 取值，否则原样返回
func Resolve(ctx context.Context, store Store, value string) (string, error) {
	if !strings.HasPrefix(value, "${") || !strings.HasSuffix(value, "}") {
		return value, nil
	}
	key := strings.TrimSuffix(strings.TrimPrefix(value, "${"), "}")
	if key == "" || store == nil {
		return value, nil
	}
	v, err := store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("resolve secret %s: %w", key, err)
	}
	return v, nil
}

type staticStore map[string]string

// NewStaticStore 以固定键值构造 Store，用于测试与本地开发
func NewStaticStore(values map[string]string) Store {
	s := make(staticStore, len(values))
	for k, v := range values {
		s[k] = v
	}
	return s
}

func (s staticStore) Get(_ context.Context, key string) (string, error) {
	v, ok := s[key]
	if !ok {
		return "", fmt.Errorf("secret not found: %s", key)
	}
	return v, nil
}
