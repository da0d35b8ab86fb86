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
	"strconv"

	einoembed "github.com/cloudwego/eino/components/embedding"
	einoretriever "github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"compass/internal/splitter"
	"compass/internal/storage/document"
	"compass/internal/storage/vector"
)

const embedBatchSize = 64

// MemoryRetriever 基于 vector.MemoryIndex 的 Eino retriever.Retriever
type MemoryRetriever struct {
	index     *vector.MemoryIndex
	embedder  einoembed.Embedder
	topK      int
	threshold float64
}

// MemoryRetrieverConfig MemoryRetriever 构造参数
type MemoryRetrieverConfig struct {
	Embedder  einoembed.Embedder
	TopK      int
	Threshold float64
	ChunkSize int
}

// NewMemoryRetriever 枚举 docs 中的全部文档，切块并向量化后写入内存索引
func NewMemoryRetriever(ctx context.Context, docs document.Lister, cfg MemoryRetrieverConfig) (*MemoryRetriever, error) {
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("memory retriever requires an embedder")
	}
	if docs == nil {
		return nil, fmt.Errorf("memory retriever requires a document source")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}

	all, err := docs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	var pending []*vector.Vector
	for _, d := range all {
		for _, c := range splitter.SplitWords(d.Text(), cfg.ChunkSize, splitter.DefaultOverlap) {
			pending = append(pending, &vector.Vector{
				ID: d.Filename + "#" + strconv.Itoa(c.Index),
				Metadata: map[string]string{
					FieldContent:  c.Text,
					FieldFilename: d.Filename,
					FieldType:     d.Type,
				},
			})
		}
	}

	index := vector.NewMemoryIndex(0)
	for start := 0; start < len(pending); start += embedBatchSize {
		end := min(start+embedBatchSize, len(pending))
		batch := pending[start:end]
		texts := make([]string, len(batch))
		for i, v := range batch {
			texts[i] = v.Metadata[FieldContent]
		}
		vecs, err := cfg.Embedder.EmbedStrings(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("embedding returned %d vectors for %d chunks", len(vecs), len(batch))
		}
		for i, v := range batch {
			v.Values = vecs[i]
		}
		if err := index.Add(batch...); err != nil {
			return nil, err
		}
	}

	return &MemoryRetriever{
		index:     index,
		embedder:  cfg.Embedder,
		topK:      cfg.TopK,
		threshold: cfg.Threshold,
	}, nil
}

// Len 索引中的块数
func (m *MemoryRetriever) Len() int { return m.index.Len() }

// Retrieve 实现 github.com/cloudwego/eino/components/retriever.Retriever
func (m *MemoryRetriever) Retrieve(ctx context.Context, query string, opts ...einoretriever.Option) ([]*schema.Document, error) {
	options := einoretriever.GetCommonOptions(&einoretriever.Options{}, opts...)
	topK := m.topK
	if options.TopK != nil && *options.TopK > 0 {
		topK = *options.TopK
	}
	threshold := m.threshold
	if options.ScoreThreshold != nil {
		threshold = *options.ScoreThreshold
	}
	embedder := m.embedder
	if options.Embedding != nil {
		embedder = options.Embedding
	}

	vecs, err := embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("retriever embedding: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embedding returned empty")
	}

	results, err := m.index.Search(vecs[0], topK, threshold)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	docs := make([]*schema.Document, 0, len(results))
	for _, r := range results {
		meta := make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			if k != FieldContent {
				meta[k] = v
			}
		}
		d := &schema.Document{
			ID:       r.ID,
			Content:  r.Metadata[FieldContent],
			MetaData: meta,
		}
		d.WithScore(r.Score)
		docs = append(docs, d)
	}
	return docs, nil
}
