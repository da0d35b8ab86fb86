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
package redaction

import (
	"encoding/json"
	"strings"
	"testing"
)

func redact(t *testing.T, masks []FieldMask, input string) map[string]interface{} {
	t.Helper()
	engine, err := NewEngine(masks)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	out, err := engine.RedactData([]byte(input))
	if err != nil {
		t.Fatalf("redaction failed: %v", err)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(out, &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return result
}

func TestRedaction_RedactMode(t *testing.T) {
	result := redact(t, []FieldMask{{FieldPath: "query", Mode: ModeRedact}},
		`{"query":"orders for alice@example.com","domain":"Sales"}`)
	if result["query"] != Redacted {
		t.Errorf("query should be redacted, got: %v", result["query"])
	}
	if result["domain"] != "Sales" {
		t.Error("domain should not be redacted")
	}
}

func TestRedaction_HashMode(t *testing.T) {
	result := redact(t, []FieldMask{{FieldPath: "query", Mode: ModeHash, Salt: "s"}}, `{"query":"q"}`)
	got, _ := result["query"].(string)
	if !strings.HasPrefix(got, "hash:") {
		t.Fatalf("expected hash prefix, got %q", got)
	}
	if got != HashValue("q", "s") {
		t.Error("hash should be deterministic")
	}
	if got == HashValue("q", "") {
		t.Error("salt should change the hash")
	}
}

func TestRedaction_RemoveNested(t *testing.T) {
	result := redact(t, []FieldMask{
		{FieldPath: "meta.email", Mode: ModeRemove},
		{FieldPath: "missing.field", Mode: ModeRedact},
	}, `{"meta":{"email":"a@b.c","id":1}}`)
	meta := result["meta"].(map[string]interface{})
	if _, ok := meta["email"]; ok {
		t.Error("meta.email should be removed")
	}
	if meta["id"] != float64(1) {
		t.Error("meta.id should be kept")
	}
}

func TestNewEngine_Invalid(t *testing.T) {
	if _, err := NewEngine([]FieldMask{{FieldPath: "query", Mode: "encrypt"}}); err == nil {
		t.Error("unknown mode should fail")
	}
	if _, err := NewEngine([]FieldMask{{FieldPath: " ", Mode: ModeRedact}}); err == nil {
		t.Error("empty path should fail")
	}
	var e *Engine
	if !e.Empty() {
		t.Error("nil engine should be empty")
	}
}
