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

// Package graph Neo4j 图查询后端
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Config Neo4j 连接配置
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// EngineNeo4j 执行 Cypher 查询
type EngineNeo4j struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewEngineNeo4j 创建驱动并校验连通性
func NewEngineNeo4j(ctx context.Context, cfg Config) (*EngineNeo4j, error) {
	uri := cfg.URI
	if uri == "" {
		uri = "bolt://localhost:7687"
	}
	user := cfg.Username
	if user == "" {
		user = "neo4j"
	}
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &EngineNeo4j{driver: driver, database: cfg.Database}, nil
}

// Close 关闭驱动
func (e *EngineNeo4j) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

// Query 执行 Cypher，每条记录转换为 key -> value
func (e *EngineNeo4j) Query(ctx context.Context, cypher string) ([]map[string]any, error) {
	opts := []neo4j.ExecuteQueryConfigurationOption{}
	if e.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(e.database))
	}
	result, err := neo4j.ExecuteQuery(ctx, e.driver, cypher, nil, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(result.Records))
	for _, rec := range result.Records {
		out = append(out, normalize(rec.AsMap()))
	}
	return out, nil
}

// normalize 将节点与关系转换为属性 map，便于序列化为 observation 文本
func normalize(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalizeValue(v)
	}
	return m
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case neo4j.Node:
		props := map[string]any{"_labels": x.Labels}
		for k, p := range x.Props {
			props[k] = normalizeValue(p)
		}
		return props
	case neo4j.Relationship:
		props := map[string]any{"_type": x.Type}
		for k, p := range x.Props {
			props[k] = normalizeValue(p)
		}
		return props
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeValue(e)
		}
		return out
	case map[string]any:
		return normalize(x)
	default:
		return v
	}
}
