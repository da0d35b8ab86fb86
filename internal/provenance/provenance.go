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

// Package provenance 把答案中的句子与工具观察结果里的 "Source:" 引文对齐
package provenance

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"compass/pkg/log"
	"compass/pkg/metrics"
	"compass/pkg/utils"
)

// SourceMarker 观察结果中的引文标记
const SourceMarker = "Source:"

// DefaultThreshold 默认低置信阈值
const DefaultThreshold = 0.4

// Policy 低置信匹配的处理方式
type Policy string

const (
	// PolicyFlag 保留并标记 LowConfidence
	PolicyFlag Policy = "flag"
	// PolicySuppress 丢弃
	PolicySuppress Policy = "suppress"
	// PolicyPass 保留且不标记，仅记录告警
	PolicyPass Policy = "pass"
)

// ParsePolicy 解析配置值，空串为 flag
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyFlag, nil
	case PolicyFlag, PolicySuppress, PolicyPass:
		return p, nil
	default:
		return "", fmt.Errorf("unknown low_confidence policy %q", s)
	}
}

// Highlight 答案句子与其引文
type Highlight struct {
	Text          string  `json:"text"`
	Source        string  `json:"source"`
	Score         float64 `json:"score"`
	LowConfidence bool    `json:"low_confidence,omitempty"`
}

// Options 匹配配置
type Options struct {
	Threshold float64
	Policy    Policy
	Logger    *log.Logger
}

// Matcher 出处匹配器；只读，可并发使用
type Matcher struct {
	threshold float64
	policy    Policy
	logger    *log.Logger
}

// NewMatcher 创建匹配器
func NewMatcher(opts Options) *Matcher {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Policy == "" {
		opts.Policy = PolicyFlag
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	return &Matcher{threshold: opts.Threshold, policy: opts.Policy, logger: opts.Logger}
}

// Match 为每个带引文的观察结果生成一条 Highlight，按观察顺序输出
func (m *Matcher) Match(answer string, observations []string) []Highlight {
	var out []Highlight
	for _, obs := range observations {
		citation, content, ok := SplitCitation(obs)
		if !ok {
			continue
		}
		text, score := BestSentence(answer, content)
		h := Highlight{Text: text, Source: citation, Score: score}
		if score < m.threshold {
			metrics.LowConfidenceHighlights.Inc()
			m.logger.Warn("no good match found for source highlight",
				"score", score, "threshold", m.threshold, "source", citation, "policy", string(m.policy))
			switch m.policy {
			case PolicySuppress:
				continue
			case PolicyFlag:
				h.LowConfidence = true
			}
		}
		out = append(out, h)
	}
	return out
}

// SplitCitation 引文为第一个与第二个标记之间的文本，匹配内容为最后一个标记之后的文本
func SplitCitation(observation string) (citation, content string, ok bool) {
	parts := strings.Split(observation, SourceMarker)
	if len(parts) < 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[1]), strings.TrimSpace(parts[len(parts)-1]), true
}

// BestSentence 返回与 content 相似度最高的答案句子；分数相同时取靠前者
func BestSentence(answer, content string) (string, float64) {
	best, bestScore := "", 0.0
	for _, s := range utils.SplitSentences(answer) {
		if score := Ratio(s, content); score > bestScore {
			best, bestScore = s, score
		}
	}
	return best, bestScore
}

// Ratio 忽略大小写的 SequenceMatcher 相似度，取值 [0, 1]
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(chars(strings.ToLower(a)), chars(strings.ToLower(b))).Ratio()
}

func chars(s string) []string {
	return strings.Split(s, "")
}
