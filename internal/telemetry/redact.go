package telemetry

import (
	"context"
	"encoding/json"

	"compass/pkg/redaction"
)

type redactingSink struct {
	Sink
	engine *redaction.Engine
}

// WithRedaction 在写入前按规则脱敏 LogRecord 字段（字段名取 JSON 名，如 query、final_answer）；
// 规则为空时原样返回 sink
func WithRedaction(sink Sink, engine *redaction.Engine) Sink {
	if engine.Empty() {
		return sink
	}
	return &redactingSink{Sink: sink, engine: engine}
}

// Write 脱敏副本，调用方的 rec 不被修改
func (s *redactingSink) Write(ctx context.Context, rec *LogRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	body, err = s.engine.RedactData(body)
	if err != nil {
		return err
	}
	var out LogRecord
	if err := json.Unmarshal(body, &out); err != nil {
		return err
	}
	return s.Sink.Write(ctx, &out)
}
