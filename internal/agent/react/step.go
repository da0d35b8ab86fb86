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

// Package react 实现有界的 Thought/Action/Observation 推理循环
package react

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"compass/internal/tool"
)

// StepResult 推理引擎单步输出：Action、Final 或 ParseError 三者之一
type StepResult interface {
	// RawText 引擎原始输出
	RawText() string
	isStepResult()
}

// Action 选择一个工具及其输入
type Action struct {
	Thought string
	Tool    string
	Input   tool.Input
	Raw     string
}

// Final 最终答案
type Final struct {
	Thought string
	Answer  string
	Raw     string
}

// ParseError 引擎输出不符合约定格式
type ParseError struct {
	Raw string
	Err string
}

func (a Action) RawText() string     { return a.Raw }
func (f Final) RawText() string      { return f.Raw }
func (p ParseError) RawText() string { return p.Raw }

func (Action) isStepResult()     {}
func (Final) isStepResult()      {}
func (ParseError) isStepResult() {}

// Engine 推理引擎：给定 transcript 与工具说明，返回下一步
type Engine interface {
	Step(ctx context.Context, transcript, toolDescriptions string) (StepResult, error)
}

// Step 一次已执行的工具调用
type Step struct {
	Action      Action
	Observation string
}

// Trace 一次查询的推理轨迹
type Trace struct {
	Query      string
	ForcedTool string
	Steps      []Step
	// Transcript 逐字保留的完整推理文本
	Transcript  string
	FinalOutput string
	Degraded    bool
	// StepsUsed 包含格式错误与未知工具在内的全部步数
	StepsUsed int
}

// Observations 按执行顺序返回全部观察结果
func (t *Trace) Observations() []string {
	out := make([]string, 0, len(t.Steps))
	for _, s := range t.Steps {
		out = append(out, s.Observation)
	}
	return out
}

// ErrStepCapExceeded 超出步数上限
var ErrStepCapExceeded = errors.New("step cap exceeded")

// EngineError 推理引擎调用失败
type EngineError struct {
	Step int
	Err  error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("reasoning engine failed at step %d: %v", e.Step, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// UnknownToolError 引擎引用了未注册的工具
type UnknownToolError struct {
	Name      string
	Available []string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("%s is not a valid tool, try one of [%s].", e.Name, strings.Join(e.Available, ", "))
}
