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

package builtin

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	einoretriever "github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"compass/internal/einoext"
	"compass/internal/model/llm"
	"compass/internal/storage/document"
	"compass/internal/tool"
	"compass/pkg/log"
	"compass/pkg/utils"
)

const documentPrompt = `You are a helpful AI assistant. Use the information provided from the document "%s" to answer the user's question.
Cite the filename in your response. If the answer is not in the document, say so clearly.

User Question:
%s

Context:
%s`

const noSourceSentence = "No matching sentence found."

var filenamePattern = regexp.MustCompile(`[A-Za-z0-9_.-]+\.(?:pdf|eml)`)

// VectorSearchConfig vector_search 依赖
type VectorSearchConfig struct {
	Documents document.Store          // 按文件名定向问答
	Generator llm.Generator           // 基于文档内容生成回答
	Retriever einoretriever.Retriever // 语义检索，未配置时仅支持定向问答
	Logger    *log.Logger
}

// VectorSearchTool 实现 vector_search：PDF 与邮件等已入库文档的语义检索
type VectorSearchTool struct {
	docs      document.Store
	gen       llm.Generator
	retriever einoretriever.Retriever
	logger    *log.Logger
}

// NewVectorSearchTool 创建 vector_search 工具
func NewVectorSearchTool(cfg VectorSearchConfig) *VectorSearchTool {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Nop()
	}
	return &VectorSearchTool{docs: cfg.Documents, gen: cfg.Generator, retriever: cfg.Retriever, logger: logger}
}

// Name 实现 tool.Tool
func (t *VectorSearchTool) Name() string { return tool.VectorSearch }

// Description 实现 tool.Tool
func (t *VectorSearchTool) Description() string {
	return "Semantically search document content, especially PDFs or emails that have been previously ingested. " +
		"Ideal for questions about policies, contracts, or internal emails. " +
		`Input is the question, or {"query": "...", "filename": "file.pdf"} to answer from one document.`
}

// Invoke 实现 tool.Tool
func (t *VectorSearchTool) Invoke(ctx context.Context, in tool.Input) string {
	query, filename := resolveTarget(in)
	if filename != "" {
		return t.answerFromDocument(ctx, query, filename)
	}
	return t.search(ctx, query)
}

// resolveTarget 取出问题与目标文件；纯文本中出现的 *.pdf / *.eml 视为目标文件
func resolveTarget(in tool.Input) (query, filename string) {
	if in.Payload != nil {
		return strings.TrimSpace(in.Payload.Query), strings.TrimSpace(in.Payload.Filename)
	}
	query = tool.StripFences(in.Text)
	return query, filenamePattern.FindString(query)
}

func (t *VectorSearchTool) answerFromDocument(ctx context.Context, query, filename string) string {
	if t.docs == nil {
		return "Error: document store is not configured."
	}
	docs, err := t.docs.Find(ctx, filename)
	if err != nil {
		t.logger.Error("load document failed", "filename", filename, "error", err)
	}
	if len(docs) == 0 {
		return fmt.Sprintf("Error: Document '%s' not found.", filename)
	}

	var b strings.Builder
	for _, d := range docs {
		fmt.Fprintf(&b, "Filename: %s\n%s\n\n", filename, d.Text())
	}
	docContext := b.String()

	if t.gen == nil {
		return "Error: Failed to generate an answer from the document."
	}
	answer, err := t.gen.Generate(ctx, fmt.Sprintf(documentPrompt, filename, query, docContext))
	if err != nil {
		t.logger.Error("document answer failed", "filename", filename, "error", err)
		return "Error: Failed to generate an answer from the document."
	}
	source, ok := utils.FirstSentenceLongerThan(docContext, 5)
	if !ok {
		source = noSourceSentence
	}
	return answer + "\n\nSource: " + source
}

func (t *VectorSearchTool) search(ctx context.Context, query string) string {
	if t.retriever == nil {
		return "vector search unavailable: semantic index is not configured"
	}
	if query == "" {
		return "vector search error: empty query"
	}
	docs, err := t.retriever.Retrieve(ctx, query)
	if err != nil {
		t.logger.Warn("vector_search failed", "error", err)
		return "vector search error: " + err.Error()
	}
	if len(docs) == 0 {
		return "No matching documents found."
	}
	return renderSnippets(docs)
}

// renderSnippets 按相关度列出片段，末行以最相关片段的首个完整句作为出处
func renderSnippets(docs []*schema.Document) string {
	var b strings.Builder
	for i, d := range docs {
		filename, _ := d.MetaData[einoext.FieldFilename].(string)
		docType, _ := d.MetaData[einoext.FieldType].(string)
		fmt.Fprintf(&b, "[%d] score=%.4f filename=%s type=%s\n%s\n\n", i+1, d.Score(), filename, docType, strings.TrimSpace(d.Content))
	}
	top := docs[0]
	source, ok := utils.FirstSentenceLongerThan(top.Content, 5)
	if !ok {
		source = strings.TrimSpace(top.Content)
	}
	if source == "" {
		source = noSourceSentence
	}
	b.WriteString("Source: ")
	b.WriteString(source)
	return b.String()
}
