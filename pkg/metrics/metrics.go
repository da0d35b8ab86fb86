package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 API 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		QueryDuration, QueryTotal,
		ToolInvocations, ToolDuration,
		LoopSteps, LowConfidenceHighlights,
	)
}

// QueryDuration 单次查询端到端耗时（秒）
var QueryDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "compass_query_duration_seconds",
		Help:    "查询端到端耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"routing"}, // forced | free
)

// QueryTotal 查询总数（按结果）
var QueryTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "compass_query_total",
		Help: "查询总数（按结果）",
	},
	[]string{"status"}, // answered | degraded | failed
)

// ToolInvocations 工具调用次数
var ToolInvocations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "compass_tool_invocations_total",
		Help: "工具调用次数",
	},
	[]string{"tool"},
)

// ToolDuration 工具调用耗时（秒）
var ToolDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "compass_tool_duration_seconds",
		Help:    "工具调用耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"tool"},
)

// LoopSteps 每次查询推理循环消耗的步数
var LoopSteps = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "compass_loop_steps",
		Help:    "每次查询消耗的推理步数",
		Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
	},
)

// LowConfidenceHighlights 低于阈值的出处匹配数
var LowConfidenceHighlights = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "compass_highlight_low_confidence_total",
		Help: "低于阈值的出处匹配数",
	},
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 等复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
