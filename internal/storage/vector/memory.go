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

// Package vector 进程内余弦相似度索引
package vector

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Vector 向量数据
type Vector struct {
	ID       string            `json:"id"`       // 向量唯一标识
	Values   []float64         `json:"values"`   // 向量值
	Metadata map[string]string `json:"metadata"` // 向量元数据
}

// SearchResult 搜索结果
type SearchResult struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"` // 余弦相似度
	Metadata map[string]string `json:"metadata"`
}

// MemoryIndex 内存向量索引；dimension 为 0 时由第一条向量决定
type MemoryIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[string]*Vector
}

// NewMemoryIndex 创建内存索引
func NewMemoryIndex(dimension int) *MemoryIndex {
	return &MemoryIndex{dimension: dimension, vectors: make(map[string]*Vector)}
}

// Add 添加或覆盖向量
func (m *MemoryIndex) Add(vectors ...*Vector) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range vectors {
		if m.dimension == 0 {
			m.dimension = len(v.Values)
		}
		if len(v.Values) != m.dimension {
			return fmt.Errorf("vector dimension %d does not match index dimension %d", len(v.Values), m.dimension)
		}
		m.vectors[v.ID] = v
	}
	return nil
}

// Len 向量数量
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

// Search 返回相似度不低于 threshold 的前 topK 条，按相似度降序，相同分数按 ID 升序
func (m *MemoryIndex) Search(query []float64, topK int, threshold float64) ([]*SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.vectors) == 0 {
		return nil, nil
	}
	if len(query) != m.dimension {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), m.dimension)
	}

	var results []*SearchResult
	for id, v := range m.vectors {
		score := Cosine(query, v.Values)
		if score < threshold {
			continue
		}
		results = append(results, &SearchResult{ID: id, Score: score, Metadata: v.Metadata})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Cosine 余弦相似度；长度不同或存在零向量时为 0
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	dotProduct := 0.0
	normA := 0.0
	normB := 0.0
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
