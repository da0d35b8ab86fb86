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

package document

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StorePg Postgres 实现：parsed_documents 表（filename, type, content, subject, body）
type StorePg struct {
	pool *pgxpool.Pool
}

// NewStorePg 创建基于 PostgreSQL 的文档源
func NewStorePg(ctx context.Context, dsn string) (*StorePg, error) {
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
	return &StorePg{pool: pool}, nil
}

// Close 关闭连接池
func (s *StorePg) Close() {
	s.pool.Close()
}

// Find 实现 Store
func (s *StorePg) Find(ctx context.Context, filename string) ([]Document, error) {
	return s.query(ctx,
		`SELECT filename, type, COALESCE(content, ''), COALESCE(subject, ''), COALESCE(body, '')
		   FROM parsed_documents WHERE lower(filename) = lower($1) LIMIT 1`, filename)
}

// List 实现 Lister
func (s *StorePg) List(ctx context.Context) ([]Document, error) {
	return s.query(ctx,
		`SELECT filename, type, COALESCE(content, ''), COALESCE(subject, ''), COALESCE(body, '')
		   FROM parsed_documents ORDER BY filename`)
}

func (s *StorePg) query(ctx context.Context, sql string, args ...any) ([]Document, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.Filename, &d.Type, &d.Content, &d.Subject, &d.Body); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
