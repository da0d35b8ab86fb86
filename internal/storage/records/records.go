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

// Package records 结构化记录问答：将自然语言问题翻译为只读 SQL 并在 Postgres 上执行
package records

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Column 表结构中的一列
type Column struct {
	Table string
	Name  string
	Type  string
}

// Schema 按表分组的列信息
type Schema map[string][]Column

// String 渲染为提示词中的表结构描述
func (s Schema) String() string {
	tables := make([]string, 0, len(s))
	for t := range s {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	var b strings.Builder
	for _, t := range tables {
		cols := make([]string, 0, len(s[t]))
		for _, c := range s[t] {
			cols = append(cols, c.Name+" "+c.Type)
		}
		fmt.Fprintf(&b, "%s(%s)\n", t, strings.Join(cols, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Only 返回仅包含 tables 中各表的子集；tables 为空时返回自身
func (s Schema) Only(tables []string) Schema {
	if len(tables) == 0 {
		return s
	}
	out := Schema{}
	for _, t := range tables {
		if cols, ok := s[t]; ok {
			out[t] = cols
		}
	}
	return out
}

const sqlPrompt = `You translate questions into a single PostgreSQL SELECT statement.
Only use these tables:
%s

Rules:
- Return only the SQL, no explanation.
- Never modify data.
- Limit results to %d rows unless the question asks for an aggregate.

Question: %s
SQL:`

const answerPrompt = `Answer the question using only the query result below. Be concise.

Question: %s
SQL: %s
Result:
%s

Answer:`

func buildSQLPrompt(schema Schema, question string, maxRows int) string {
	return fmt.Sprintf(sqlPrompt, schema.String(), maxRows, question)
}

func buildAnswerPrompt(question, sql, result string) string {
	return fmt.Sprintf(answerPrompt, question, sql, result)
}

var (
	fenceRe   = regexp.MustCompile("(?s)```(?:\\w+\\n)?(.*?)```")
	writeRe   = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|truncate|grant|revoke|copy|merge|call)\b`)
	leadingRe = regexp.MustCompile(`(?is)^\s*(select|with)\b`)
	tableRe   = regexp.MustCompile(`(?i)\b(?:from|join)\s+((?:"[^"]+"|[a-z_][\w$]*)(?:\s*\.\s*(?:"[^"]+"|[a-z_][\w$]*))?)`)
)

// cleanSQL 去掉代码块与末尾分号
func cleanSQL(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "SQL:")
	return strings.TrimSuffix(strings.TrimSpace(s), ";")
}

// validateReadOnly 仅允许单条 SELECT/WITH 语句
func validateReadOnly(sql string) error {
	if !leadingRe.MatchString(sql) {
		return fmt.Errorf("only SELECT statements are allowed: %q", sql)
	}
	if strings.Contains(sql, ";") {
		return fmt.Errorf("multiple statements are not allowed")
	}
	if m := writeRe.FindString(sql); m != "" {
		return fmt.Errorf("statement contains forbidden keyword %q", strings.ToUpper(m))
	}
	return nil
}

// checkTables 检查 FROM/JOIN 引用的表：系统目录一律拒绝，
// public 中存在但不在 allowed 内的表拒绝；其余名称（CTE、函数、extract 的列）放行
func checkTables(sql string, allowed, catalog Schema) error {
	for _, m := range tableRe.FindAllStringSubmatch(sql, -1) {
		qualifier, name := splitIdent(m[1])
		switch {
		case qualifier == "pg_catalog" || qualifier == "information_schema" || strings.HasPrefix(name, "pg_"):
			return fmt.Errorf("system catalog %q is not queryable", m[1])
		case qualifier != "" && qualifier != "public":
			continue
		}
		if _, ok := allowed[name]; ok {
			continue
		}
		if _, ok := catalog[name]; ok {
			return fmt.Errorf("table %q is not in the allowed table list", name)
		}
	}
	return nil
}

// splitIdent 拆分 schema.table；未加引号的标识符按 Postgres 规则转小写
func splitIdent(ref string) (qualifier, name string) {
	parts := strings.SplitN(ref, ".", 2)
	if len(parts) == 2 {
		return normalizeIdent(parts[0]), normalizeIdent(parts[1])
	}
	return "", normalizeIdent(parts[0])
}

func normalizeIdent(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return strings.ToLower(s)
}

// renderRows 将结果渲染为 "col | col" 文本表；truncated 时追加提示
func renderRows(cols []string, rows [][]any, truncated bool) string {
	if len(rows) == 0 {
		return "(no rows)"
	}
	var b strings.Builder
	b.WriteString(strings.Join(cols, " | "))
	for _, r := range rows {
		b.WriteByte('\n')
		cells := make([]string, len(r))
		for i, v := range r {
			cells[i] = formatValue(v)
		}
		b.WriteString(strings.Join(cells, " | "))
	}
	if truncated {
		b.WriteString("\n... (truncated)")
	}
	return b.String()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
