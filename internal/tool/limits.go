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

package tool

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limits 单个工具的 I/O 超时与限流
type Limits struct {
	Timeout time.Duration
	QPS     float64
	Burst   int
}

type limitedTool struct {
	Tool
	timeout time.Duration
	limiter *rate.Limiter
}

// WithLimits 为工具附加超时与限流；Limits 为零值时原样返回
func WithLimits(t Tool, l Limits) Tool {
	if l.Timeout <= 0 && l.QPS <= 0 {
		return t
	}
	lt := &limitedTool{Tool: t, timeout: l.Timeout}
	if l.QPS > 0 {
		burst := l.Burst
		if burst < 1 {
			burst = 1
		}
		lt.limiter = rate.NewLimiter(rate.Limit(l.QPS), burst)
	}
	return lt
}

// Invoke 在限流许可与超时内调用底层工具；等待或超时失败转为诊断文本
func (t *limitedTool) Invoke(ctx context.Context, in Input) string {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return fmt.Sprintf("%s unavailable: rate limit wait failed: %v", t.Name(), err)
		}
	}
	if t.timeout <= 0 {
		return t.Tool.Invoke(ctx, in)
	}

	done := make(chan string, 1)
	go func() {
		// 工具在独立 goroutine 中运行，调用方的 recover 无法覆盖
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Sprintf("%s error: %v", t.Name(), r)
			}
		}()
		done <- t.Tool.Invoke(ctx, in)
	}()
	select {
	case out := <-done:
		return out
	case <-ctx.Done():
		return fmt.Sprintf("%s timed out after %s", t.Name(), t.timeout)
	}
}
