package telemetry

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// DayCount 某日查询数
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ToolCount 某工具累计使用次数
type ToolCount struct {
	Tool  string `json:"tool"`
	Count int    `json:"count"`
}

// Summary 看板汇总
type Summary struct {
	TotalQueries    int         `json:"total_queries"`
	QueriesPerDay   []DayCount  `json:"queries_per_day"`
	ToolUsage       []ToolCount `json:"tool_usage"`
	AvgResponseTime float64     `json:"avg_response_time"`
	SkippedLines    int         `json:"skipped_lines"`
}

// rawRecord 宽松解码：agent_raw_response 既可能是字符串也可能是对象
type rawRecord struct {
	Timestamp        string          `json:"timestamp"`
	Query            string          `json:"query"`
	Domain           string          `json:"domain"`
	Source           string          `json:"source"`
	FinalAnswer      string          `json:"final_answer"`
	ResponseTime     float64         `json:"response_time"`
	AgentRawResponse json.RawMessage `json:"agent_raw_response"`
	ToolUsage        map[string]int  `json:"tool_usage"`
}

// LoadRecords 读取 JSONL 查询日志；无法解析的行跳过并计数，文件不存在返回空结果
func LoadRecords(path string) ([]LogRecord, int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	defer f.Close()
	return ReadRecords(f)
}

// ReadRecords 从 r 读取 JSONL 查询日志
func ReadRecords(r io.Reader) ([]LogRecord, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	var (
		out     []LogRecord
		skipped int
	)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var raw rawRecord
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			skipped++
			continue
		}
		ts, err := parseTimestamp(raw.Timestamp)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, LogRecord{
			Timestamp:        ts,
			Query:            raw.Query,
			Domain:           raw.Domain,
			Source:           raw.Source,
			FinalAnswer:      raw.FinalAnswer,
			ResponseTime:     raw.ResponseTime,
			AgentRawResponse: rawText(raw.AgentRawResponse),
			ToolUsage:        raw.ToolUsage,
		})
	}
	if err := scanner.Err(); err != nil {
		return out, skipped, fmt.Errorf("读取查询日志失败: %w", err)
	}
	return out, skipped, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func rawText(m json.RawMessage) string {
	if len(m) == 0 || string(m) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(m, &s); err == nil {
		return s
	}
	return string(m)
}

// QueriesPerDay 按日期升序统计查询数
func QueriesPerDay(records []LogRecord) []DayCount {
	counts := map[string]int{}
	for _, r := range records {
		counts[r.Timestamp.Format("2006-01-02")]++
	}
	out := make([]DayCount, 0, len(counts))
	for d, c := range counts {
		out = append(out, DayCount{Date: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// ToolUsage 汇总各工具使用次数，按次数降序
func ToolUsage(records []LogRecord) []ToolCount {
	counts := map[string]int{}
	for _, r := range records {
		for name, n := range r.ToolUsage {
			counts[name] += n
		}
	}
	out := make([]ToolCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, ToolCount{Tool: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tool < out[j].Tool
	})
	return out
}

// AvgResponseTime 平均响应时间（秒），无记录为 0
func AvgResponseTime(records []LogRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += r.ResponseTime
	}
	return sum / float64(len(records))
}

// Summarize 生成看板汇总
func Summarize(records []LogRecord, skipped int) Summary {
	return Summary{
		TotalQueries:    len(records),
		QueriesPerDay:   QueriesPerDay(records),
		ToolUsage:       ToolUsage(records),
		AvgResponseTime: AvgResponseTime(records),
		SkippedLines:    skipped,
	}
}
