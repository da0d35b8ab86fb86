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

package embedding

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	einoembed "github.com/cloudwego/eino/components/embedding"
	"github.com/go-resty/resty/v2"
)

// OpenAIEmbedder 调用 OpenAI 兼容 /embeddings 接口，同时实现 eino Embedder
type OpenAIEmbedder struct {
	model     string
	dimension int
	client    *resty.Client
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// NewOpenAIEmbedder 创建 Embedder；baseURL 为空时用 OPENAI_BASE_URL 或官方端点
func NewOpenAIEmbedder(apiKey, model, baseURL string, dimension int) *OpenAIEmbedder {
	if model == "" {
		model = "text-embedding-3-small"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
		if envURL := os.Getenv("OPENAI_BASE_URL"); envURL != "" {
			baseURL = envURL
		}
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(30*time.Second).
		SetRetryCount(2).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(apiKey)
	return &OpenAIEmbedder{model: model, dimension: dimension, client: client}
}

// Model 返回模型名称
func (e *OpenAIEmbedder) Model() string { return e.model }

// Dimension 返回向量维度，0 表示由模型决定
func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

// Embed 对文本做向量化，返回与 texts 一一对应的向量
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var out embeddingResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(embeddingRequest{Model: e.model, Input: texts, Dimensions: e.dimension}).
		SetResult(&out).
		Post("/embeddings")
	if err != nil {
		return nil, fmt.Errorf("调用 embeddings API failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("embeddings API 返回错误(%d): %s", resp.StatusCode(), resp.String())
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings API 返回 %d 条向量，期望 %d", len(out.Data), len(texts))
	}
	vecs := make([][]float64, len(texts))
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("embeddings API 返回非法 index %d", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}

// EmbedStrings 实现 eino/components/embedding.Embedder，忽略 opts
func (e *OpenAIEmbedder) EmbedStrings(ctx context.Context, texts []string, _ ...einoembed.Option) ([][]float64, error) {
	return e.Embed(ctx, texts)
}

var _ einoembed.Embedder = (*OpenAIEmbedder)(nil)
