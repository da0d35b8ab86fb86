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

package einoext

import (
	"context"
	"fmt"

	redisretriever "github.com/cloudwego/eino-ext/components/retriever/redis"
	einoembed "github.com/cloudwego/eino/components/embedding"
	einoretriever "github.com/cloudwego/eino/components/retriever"
	"github.com/redis/go-redis/v9"

	"compass/internal/storage/document"
	"compass/pkg/config"
)

const (
	defaultTopK  = 3
	defaultIndex = "docs"
)

// 向量索引中每个文档携带的字段
const (
	FieldContent  = "content"
	FieldFilename = "filename"
	FieldType     = "type"
)

// NewRetriever 根据 VectorConfig 创建 Eino Retriever；type 为空时返回 nil, nil 表示未启用。
// memory 类型在启动时从 docs 构建索引。
func NewRetriever(ctx context.Context, cfg config.VectorConfig, embedder einoembed.Embedder, docs document.Lister) (einoretriever.Retriever, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "memory":
		ret, err := NewMemoryRetriever(ctx, docs, MemoryRetrieverConfig{
			Embedder:  embedder,
			TopK:      cfg.TopK,
			Threshold: cfg.Threshold,
			ChunkSize: cfg.ChunkSize,
		})
		if err != nil {
			return nil, err
		}
		return ret, nil
	case "redis":
		if embedder == nil {
			return nil, fmt.Errorf("redis retriever requires an embedder")
		}
		opts, err := RedisOptionsFromVectorConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("redis options: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		index := cfg.Index
		if index == "" {
			index = defaultIndex
		}
		topK := cfg.TopK
		if topK <= 0 {
			topK = defaultTopK
		}
		ret, err := redisretriever.NewRetriever(ctx, &redisretriever.RetrieverConfig{
			Client:       client,
			Index:        index,
			TopK:         topK,
			ReturnFields: []string{FieldContent, FieldFilename, FieldType},
			Embedding:    embedder,
		})
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis retriever: %w", err)
		}
		return ret, nil
	default:
		return nil, fmt.Errorf("unsupported vector type: %s", cfg.Type)
	}
}
