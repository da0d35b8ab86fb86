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

package react

import (
	"regexp"
	"strings"

	"compass/internal/tool"
)

const finalAnswerMarker = "Final Answer:"

var (
	actionRe      = regexp.MustCompile(`(?s)Action\s*\d*\s*:[ \t]*(.*?)\s*Action\s*\d*\s*Input\s*\d*\s*:[ \t]*(.*)`)
	actionOnlyRe  = regexp.MustCompile(`Action\s*\d*\s*:`)
	observationRe = regexp.MustCompile(`(?s)\n\s*Observation\s*:.*$`)
)

// Parse 把引擎原始文本解析为 StepResult；Final Answer 出现在 Action 之前时视为结束
func Parse(raw string) StepResult {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ParseError{Raw: raw, Err: "empty response"}
	}

	finalIdx := strings.Index(text, finalAnswerMarker)
	loc := actionRe.FindStringSubmatchIndex(text)

	if finalIdx >= 0 && (loc == nil || finalIdx < loc[0]) {
		return Final{
			Thought: thoughtOf(text[:finalIdx]),
			Answer:  strings.TrimSpace(text[finalIdx+len(finalAnswerMarker):]),
			Raw:     raw,
		}
	}

	if loc != nil {
		name := cleanToolName(text[loc[2]:loc[3]])
		if name == "" {
			return ParseError{Raw: raw, Err: "missing tool name after 'Action:'"}
		}
		input := text[loc[4]:loc[5]]
		input = observationRe.ReplaceAllString(input, "")
		if i := strings.Index(input, finalAnswerMarker); i >= 0 {
			input = input[:i]
		}
		return Action{
			Thought: thoughtOf(text[:loc[0]]),
			Tool:    name,
			Input:   tool.ParseInput(unquote(strings.TrimSpace(input))),
			Raw:     raw,
		}
	}

	if actionOnlyRe.MatchString(text) {
		return ParseError{Raw: raw, Err: "missing 'Action Input:' after 'Action:'"}
	}
	return ParseError{Raw: raw, Err: "missing 'Action:' or 'Final Answer:'"}
}

func thoughtOf(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Thought:")
	return strings.TrimSpace(s)
}

func cleanToolName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "`*\"' ")
	return s
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
