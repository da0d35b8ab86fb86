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

package telemetry

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QueryLogSchema query_logs 表结构
const QueryLogSchema = `CREATE TABLE IF NOT EXISTS query_logs (
  id                 UUID PRIMARY KEY,
  ts                 TIMESTAMPTZ NOT NULL,
  query              TEXT NOT NULL,
  domain             TEXT NOT NULL DEFAULT '',
  source             TEXT NOT NULL DEFAULT '',
  final_answer       TEXT NOT NULL DEFAULT '',
  response_time      DOUBLE PRECISION NOT NULL,
  agent_raw_response TEXT NOT NULL DEFAULT '',
  tool_usage         JSONB NOT NULL DEFAULT '{}'::jsonb
)`

// SinkPg PostgreSQL 实现 Sink，写入 query_logs 表
type SinkPg struct {
	pool *pgxpool.Pool
}

// NewSinkPg 连接数据库并确保 query_logs 表存在
func NewSinkPg(ctx context.Context, dsn string) (*SinkPg, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, QueryLogSchema); err != nil {
		pool.Close()
		return nil, err
	}
	return &SinkPg{pool: pool}, nil
}

// Write 实现 Sink
func (s *SinkPg) Write(ctx context.Context, rec *LogRecord) error {
	usage, err := json.Marshal(usageOrEmpty(rec.ToolUsage))
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO query_logs (id, ts, query, domain, source, final_answer, response_time, agent_raw_response, tool_usage)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.New().String(), rec.Timestamp, rec.Query, rec.Domain, rec.Source,
		rec.FinalAnswer, rec.ResponseTime, rec.AgentRawResponse, usage,
	)
	return err
}

// Close 实现 Sink
func (s *SinkPg) Close() error {
	s.pool.Close()
	return nil
}

func usageOrEmpty(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}
