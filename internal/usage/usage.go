// Package usage 从推理轨迹中统计工具使用情况
package usage

import (
	"regexp"

	"compass/internal/agent/react"
	"compass/internal/tool"
)

// Tier 产生统计结果的层级
type Tier int

const (
	// TierNone 三层均未得到结果
	TierNone Tier = iota
	// TierStructured 来自轨迹中的 Action
	TierStructured
	// TierRouting 来自路由提示
	TierRouting
	// TierTextual 来自最终输出中的 "Action: name"
	TierTextual
)

func (t Tier) String() string {
	switch t {
	case TierStructured:
		return "structured"
	case TierRouting:
		return "routing"
	case TierTextual:
		return "textual"
	default:
		return "none"
	}
}

// Histogram 工具名到调用次数
type Histogram map[string]int

// Result 统计结果
type Result struct {
	Counts Histogram
	Tier   Tier
}

// Options 统计选项；FirstOnly 只统计第一个工具步骤
type Options struct {
	FirstOnly bool
}

var textualActionRe = regexp.MustCompile(`Action:\s*(\w+)`)

// Extract 依次尝试三层，第一个非空结果生效；hint 为路由强制的工具名
func Extract(trace *react.Trace, hint, finalOutput string, opts Options) Result {
	if trace != nil {
		counts := Histogram{}
		for _, s := range trace.Steps {
			if s.Action.Tool == "" {
				continue
			}
			counts[s.Action.Tool]++
			if opts.FirstOnly {
				break
			}
		}
		if len(counts) > 0 {
			return Result{Counts: counts, Tier: TierStructured}
		}
	}

	if hint != "" {
		return Result{Counts: Histogram{normalizeHint(hint): 1}, Tier: TierRouting}
	}

	if m := textualActionRe.FindStringSubmatch(finalOutput); m != nil {
		return Result{Counts: Histogram{m[1]: 1}, Tier: TierTextual}
	}
	return Result{Counts: Histogram{}, Tier: TierNone}
}

func normalizeHint(hint string) string {
	switch hint {
	case tool.SQLSearch, tool.VectorSearch:
		return hint
	default:
		return tool.GraphSearch
	}
}
