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
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatEngine 基于 eino ChatModel 的推理引擎，以 Observation 作为停止序列
type ChatEngine struct {
	model model.BaseChatModel
	opts  []model.Option
}

// NewChatEngine 创建 ChatEngine；opts 附加在停止序列之后
func NewChatEngine(cm model.BaseChatModel, opts ...model.Option) (*ChatEngine, error) {
	if cm == nil {
		return nil, fmt.Errorf("chat model 不能为空")
	}
	return &ChatEngine{
		model: cm,
		opts:  append([]model.Option{model.WithStop([]string{"\nObservation:", "Observation:"})}, opts...),
	}, nil
}

// Step 实现 Engine
func (e *ChatEngine) Step(ctx context.Context, transcript, toolDescriptions string) (StepResult, error) {
	msgs := []*schema.Message{schema.UserMessage(BuildPrompt(transcript, toolDescriptions))}
	resp, err := e.model.Generate(ctx, msgs, e.opts...)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("chat model returned no message")
	}
	content := strings.TrimSpace(resp.Content)
	if !hasAnyPrefix(content, "Thought:", "Action", finalAnswerMarker) {
		content = "Thought: " + content
	}
	return Parse(content), nil
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
