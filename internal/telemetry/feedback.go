package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Feedback 用户对答案的评价
type Feedback struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	Rating    int       `json:"rating"` // 1 赞，-1 踩
}

// FeedbackLog 反馈追加写入 JSONL 文件
type FeedbackLog struct {
	file *FileSink
	now  func() time.Time
}

// NewFeedbackLog 打开反馈文件
func NewFeedbackLog(path string) (*FeedbackLog, error) {
	f, err := NewFileSink(path)
	if err != nil {
		return nil, err
	}
	return &FeedbackLog{file: f, now: time.Now}, nil
}

// Record 校验并写入一条反馈，返回写入的记录
func (l *FeedbackLog) Record(_ context.Context, query, answer string, rating int) (*Feedback, error) {
	if rating != 1 && rating != -1 {
		return nil, fmt.Errorf("rating must be 1 or -1, got %d", rating)
	}
	if query == "" {
		return nil, fmt.Errorf("query 不能为空")
	}
	fb := &Feedback{
		ID:        uuid.New().String(),
		Timestamp: l.now().UTC(),
		Query:     query,
		Answer:    answer,
		Rating:    rating,
	}
	if err := l.file.appendJSON(fb); err != nil {
		return nil, err
	}
	return fb, nil
}

// Close 关闭文件
func (l *FeedbackLog) Close() error { return l.file.Close() }
