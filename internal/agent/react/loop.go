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
	"time"

	"go.opentelemetry.io/otel/codes"

	"compass/internal/tool"
	"compass/internal/tool/registry"
	"compass/pkg/log"
	"compass/pkg/metrics"
	"compass/pkg/tracing"
)

// DefaultMaxSteps 默认步数上限
const DefaultMaxSteps = 15

// DegradedNotice 达到步数上限且没有任何观察结果时的输出
const DegradedNotice = "Agent stopped due to iteration limit."

const formatReminder = "Invalid Format: %s. Reply with 'Thought:' then either 'Action:' and 'Action Input:' lines, or a 'Final Answer:' line."

// Options 循环配置
type Options struct {
	MaxSteps int
	Logger   *log.Logger
}

// Loop 推理循环；无状态，可在请求间共享
type Loop struct {
	engine   Engine
	tools    *registry.Registry
	maxSteps int
	logger   *log.Logger
}

// Request 单次循环输入；ForcedTool 非空时写入初始提示以引导第一步
type Request struct {
	Query       string
	ForcedTool  string
	ForcedInput tool.Input
}

// NewLoop 创建推理循环
func NewLoop(engine Engine, tools *registry.Registry, opts Options) (*Loop, error) {
	if engine == nil {
		return nil, fmt.Errorf("reasoning engine 不能为空")
	}
	if tools == nil {
		return nil, fmt.Errorf("tool registry 不能为空")
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	return &Loop{engine: engine, tools: tools, maxSteps: opts.MaxSteps, logger: opts.Logger}, nil
}

// MaxSteps 返回步数上限
func (l *Loop) MaxSteps() int { return l.maxSteps }

// Run 执行循环直到 Final 或步数上限；引擎失败返回 *EngineError，同时返回已有轨迹
func (l *Loop) Run(ctx context.Context, req Request) (*Trace, error) {
	trace := &Trace{Query: req.Query, ForcedTool: req.ForcedTool}
	var transcript strings.Builder
	transcript.WriteString(initialFraming(req.Query, req.ForcedTool, req.ForcedInput))
	descriptions := l.tools.Describe()

	defer func() {
		trace.Transcript = transcript.String()
		metrics.LoopSteps.Observe(float64(trace.StepsUsed))
	}()

	var lastObservation string
	for step := 1; step <= l.maxSteps; step++ {
		trace.StepsUsed = step
		stepCtx, span := tracing.StartStepSpan(ctx, step)

		res, err := l.engine.Step(stepCtx, transcript.String(), descriptions)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return trace, &EngineError{Step: step, Err: err}
		}

		switch r := res.(type) {
		case Final:
			transcript.WriteString(strings.TrimSpace(r.Raw))
			transcript.WriteString("\n")
			trace.FinalOutput = r.Answer
			span.End()
			return trace, nil

		case Action:
			writeRaw(&transcript, r.Raw, renderAction(r))
			t, ok := l.tools.Get(r.Tool)
			if !ok {
				unknown := &UnknownToolError{Name: r.Tool, Available: l.tools.Names()}
				l.logger.Warn("unknown tool requested", "step", step, "tool", r.Tool)
				transcript.WriteString(renderObservation(unknown.Error()))
				break
			}
			obs := l.invoke(stepCtx, t, r.Input)
			transcript.WriteString(renderObservation(obs))
			trace.Steps = append(trace.Steps, Step{Action: r, Observation: obs})
			lastObservation = obs

		case ParseError:
			l.logger.Warn("unparseable engine output", "step", step, "error", r.Err)
			writeRaw(&transcript, r.Raw, "")
			transcript.WriteString(renderObservation(fmt.Sprintf(formatReminder, r.Err)))
		}
		span.End()
	}

	trace.Degraded = true
	trace.FinalOutput = lastObservation
	if trace.FinalOutput == "" {
		trace.FinalOutput = DegradedNotice
	}
	l.logger.Warn("reasoning loop degraded", "max_steps", l.maxSteps, "error", ErrStepCapExceeded)
	return trace, nil
}

// invoke 调用工具；工具 panic 在此处转为观察文本
func (l *Loop) invoke(ctx context.Context, t tool.Tool, in tool.Input) (obs string) {
	name := t.Name()
	ctx, span := tracing.StartToolSpan(ctx, name)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("tool panicked", "tool", name, "panic", r)
			span.SetStatus(codes.Error, fmt.Sprint(r))
			obs = fmt.Sprintf("%s error: %v", name, r)
		}
		metrics.ToolInvocations.WithLabelValues(name).Inc()
		metrics.ToolDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		span.End()
	}()
	return t.Invoke(ctx, in)
}

func writeRaw(b *strings.Builder, raw, fallback string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		b.WriteString(fallback)
		return
	}
	b.WriteString(raw)
	b.WriteString("\n")
}
