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

package records

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"compass/internal/model/llm"
	"compass/pkg/errors"
)

// Options 引擎选项
type Options struct {
	Tables  []string // 允许查询的表，空则为 public schema 全部表；生成的 SQL 引用其他表会被拒绝
	MaxRows int
}

// catalogReader 读取 public schema 下全部表的列信息
type catalogReader func(ctx context.Context) (Schema, error)

// EnginePg 基于 Postgres 的结构化记录问答引擎
type EnginePg struct {
	pool    *pgxpool.Pool
	gen     llm.Generator
	tables  []string
	maxRows int

	readCatalog catalogReader

	// schema/catalog 仅在读取成功后写入，失败时下次调用重试
	schemaMu sync.Mutex
	schema   Schema
	catalog  Schema
}

// NewEnginePg 创建引擎；dsn 为连接串，gen 负责 SQL 生成与结果表述
func NewEnginePg(ctx context.Context, dsn string, gen llm.Generator, opts Options) (*EnginePg, error) {
	if gen == nil {
		return nil, fmt.Errorf("records engine requires a generator")
	}
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
	if opts.MaxRows <= 0 {
		opts.MaxRows = 50
	}
	e := &EnginePg{pool: pool, gen: gen, tables: opts.Tables, maxRows: opts.MaxRows}
	e.readCatalog = e.queryCatalog
	return e, nil
}

// Close 关闭连接池
func (e *EnginePg) Close() {
	e.pool.Close()
}

// Answer 生成 SQL、只读执行并以自然语言表述结果
func (e *EnginePg) Answer(ctx context.Context, question string) (string, error) {
	schema, catalog, err := e.loadSchema(ctx)
	if err != nil {
		return "", fmt.Errorf("load schema: %w", err)
	}
	raw, err := e.gen.Generate(ctx, buildSQLPrompt(schema, question, e.maxRows))
	if err != nil {
		return "", fmt.Errorf("generate sql: %w", err)
	}
	sql := cleanSQL(raw)
	if err := validateReadOnly(sql); err != nil {
		return "", err
	}
	if err := checkTables(sql, schema, catalog); err != nil {
		return "", err
	}
	result, err := e.query(ctx, sql)
	if err != nil {
		return "", fmt.Errorf("execute %q: %w", sql, err)
	}
	answer, err := e.gen.Generate(ctx, buildAnswerPrompt(question, sql, result))
	if err != nil || answer == "" {
		// 表述失败时直接返回结果表
		return result, nil
	}
	return answer, nil
}

func (e *EnginePg) query(ctx context.Context, sql string) (string, error) {
	tx, err := e.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, sql)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	var out [][]any
	truncated := false
	for rows.Next() {
		if len(out) >= e.maxRows {
			truncated = true
			break
		}
		vals, err := rows.Values()
		if err != nil {
			return "", err
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return renderRows(cols, out, truncated), nil
}

func (e *EnginePg) loadSchema(ctx context.Context) (Schema, Schema, error) {
	e.schemaMu.Lock()
	defer e.schemaMu.Unlock()
	if e.schema != nil {
		return e.schema, e.catalog, nil
	}
	catalog, err := e.readCatalog(ctx)
	if err != nil {
		return nil, nil, err
	}
	schema := catalog.Only(e.tables)
	if len(schema) == 0 {
		return nil, nil, errors.Wrap(errors.ErrNotFound, "no queryable tables")
	}
	e.schema, e.catalog = schema, catalog
	return schema, catalog, nil
}

func (e *EnginePg) queryCatalog(ctx context.Context) (Schema, error) {
	rows, err := e.pool.Query(ctx,
		`SELECT table_name, column_name, data_type
		   FROM information_schema.columns
		  WHERE table_schema = 'public'
		  ORDER BY table_name, ordinal_position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	catalog := Schema{}
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Table, &c.Name, &c.Type); err != nil {
			return nil, err
		}
		catalog[c.Table] = append(catalog[c.Table], c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return catalog, nil
}
