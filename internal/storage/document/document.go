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
	"context"
	"strings"
)

// Document 已解析的文档（PDF 正文或邮件）
type Document struct {
	Filename string `json:"filename"`
	Type     string `json:"type"` // pdf | email
	Content  string `json:"content,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Body     string `json:"body,omitempty"`
}

// Text 返回用于问答的正文；邮件为 "Subject: ...\n<body>"
func (d Document) Text() string {
	if strings.EqualFold(d.Type, "email") {
		return "Subject: " + d.Subject + "\n" + d.Body
	}
	return d.Content
}

// Store 按文件名查找已解析文档
type Store interface {
	// Find 按文件名（大小写不敏感）返回匹配文档，未找到返回空切片
	Find(ctx context.Context, filename string) ([]Document, error)
}

// Lister 可枚举全部文档的文档源（内存向量索引启动时使用）
type Lister interface {
	List(ctx context.Context) ([]Document, error)
}
