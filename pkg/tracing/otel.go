// Copyright 2026 fanjia1024
// 查询链路 span；TracerProvider 由 API 启动时的 obs-opentelemetry provider 设置

package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "compass"

// StartQuerySpan 开始一次查询的根 span
func StartQuerySpan(ctx context.Context, domain, source string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "query.run",
		trace.WithAttributes(
			attribute.String("query.domain", domain),
			attribute.String("query.source", source),
		),
	)
}

// StartStepSpan 开始推理循环单步 span
func StartStepSpan(ctx context.Context, step int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "loop.step",
		trace.WithAttributes(attribute.Int("loop.step", step)),
	)
}

// StartToolSpan 开始 tool invocation span
func StartToolSpan(ctx context.Context, toolName string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "tool.invoke",
		trace.WithAttributes(attribute.String("tool.name", toolName)),
	)
}
