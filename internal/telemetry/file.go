package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSink 以 JSON Lines 追加写入本地文件
type FileSink struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// NewFileSink 打开（必要时创建）path 用于追加
func NewFileSink(path string) (*FileSink, error) {
	f, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	return &FileSink{f: f, path: path}, nil
}

// Path 文件路径
func (s *FileSink) Path() string { return s.path }

// Write 实现 Sink
func (s *FileSink) Write(_ context.Context, rec *LogRecord) error {
	return s.appendJSON(rec)
}

func (s *FileSink) appendJSON(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("序列化记录失败: %w", err)
	}
	line = append(line, '\n')
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.f.Write(line); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", s.path, err)
	}
	return nil
}

// Close 实现 Sink
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

func openAppend(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("创建目录失败: %w", err)
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}
