package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultStream 默认 Redis Stream 名
const DefaultStream = "compass:queries"

// StreamSink 以 XADD 写入 Redis Stream，每条记录一个 "record" 字段
type StreamSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewStreamSink 创建 Redis Stream sink；maxLen > 0 时近似裁剪长度
func NewStreamSink(client *redis.Client, stream string, maxLen int64) *StreamSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamSink{client: client, stream: stream, maxLen: maxLen}
}

// Write 实现 Sink
func (s *StreamSink) Write(ctx context.Context, rec *LogRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"record": string(body),
			"ts":     rec.Timestamp.Format(time.RFC3339Nano),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	return s.client.XAdd(ctx, args).Err()
}

// Close 实现 Sink；client 由调用方管理
func (s *StreamSink) Close() error { return nil }
