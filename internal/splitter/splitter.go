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

// Package splitter 把文档正文切成带重叠的词块，供内存向量索引使用
package splitter

import "strings"

const (
	DefaultMaxWords = 200
	DefaultOverlap  = 40
)

// Chunk 切片
type Chunk struct {
	Index     int
	Text      string
	WordCount int
}

// SplitWords 按空白分词后每 maxWords 个词一块，相邻块重叠 overlap 个词
func SplitWords(content string, maxWords, overlap int) []Chunk {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	if overlap < 0 || overlap >= maxWords {
		overlap = 0
	}

	words := strings.Fields(content)
	var (
		chunks  []Chunk
		current []string
	)
	for _, w := range words {
		if len(current)+1 > maxWords {
			chunks = append(chunks, newChunk(current, len(chunks)))
			// 新块以上一块末尾 overlap 个词开头
			if overlap > 0 && len(current) > overlap {
				current = append([]string(nil), current[len(current)-overlap:]...)
			} else {
				current = nil
			}
		}
		current = append(current, w)
	}
	if len(current) > 0 {
		chunks = append(chunks, newChunk(current, len(chunks)))
	}
	return chunks
}

func newChunk(words []string, index int) Chunk {
	return Chunk{Index: index, Text: strings.Join(words, " "), WordCount: len(words)}
}
