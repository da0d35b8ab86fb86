package builtin

import (
	"context"
	"errors"
	"strings"
	"testing"

	einoretriever "github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/internal/storage/document"
	"compass/internal/tool"
)

type fakeRecords struct {
	got    string
	answer string
	err    error
}

func (f *fakeRecords) Answer(_ context.Context, q string) (string, error) {
	f.got = q
	return f.answer, f.err
}

type fakeGraph struct {
	got     string
	records []map[string]any
	err     error
}

func (f *fakeGraph) Query(_ context.Context, cypher string) ([]map[string]any, error) {
	f.got = cypher
	return f.records, f.err
}

type fakeDocs map[string]document.Document

func (f fakeDocs) Find(_ context.Context, filename string) ([]document.Document, error) {
	for k, d := range f {
		if strings.EqualFold(k, filename) {
			return []document.Document{d}, nil
		}
	}
	return nil, nil
}

type fakeGen struct {
	prompt string
	out    string
	err    error
}

func (f *fakeGen) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.out, f.err
}

type fakeRetriever struct {
	docs []*schema.Document
	err  error
}

func (f *fakeRetriever) Retrieve(context.Context, string, ...einoretriever.Option) ([]*schema.Document, error) {
	return f.docs, f.err
}

func TestSQLSearch_StripsFences(t *testing.T) {
	eng := &fakeRecords{answer: "There are 42 customers."}
	out := NewSQLSearchTool(eng, nil).Invoke(context.Background(), tool.TextInput("```sql\nHow many customers?\n```"))
	assert.Equal(t, "There are 42 customers.", out)
	assert.Equal(t, "How many customers?", eng.got)
}

func TestSQLSearch_ErrorBecomesText(t *testing.T) {
	out := NewSQLSearchTool(&fakeRecords{err: errors.New("relation \"clients\" does not exist")}, nil).
		Invoke(context.Background(), tool.TextInput("list clients"))
	assert.Equal(t, `sql search error: relation "clients" does not exist`, out)

	out = NewSQLSearchTool(nil, nil).Invoke(context.Background(), tool.TextInput("q"))
	assert.Contains(t, out, "unavailable")
}

func TestGraphSearch_Success(t *testing.T) {
	g := &fakeGraph{records: []map[string]any{{"Name": "Bob Johnson"}}}
	out := NewGraphSearchTool(g, nil).Invoke(context.Background(), tool.TextInput("```cypher\nMATCH (p:`Person`) RETURN p.name AS Name\n```"))
	assert.Equal(t, `[{"Name":"Bob Johnson"}]`, out)
	assert.Equal(t, "MATCH (p:Person) RETURN p.name AS Name", g.got)
}

func TestGraphSearch_UnionRemediation(t *testing.T) {
	g := &fakeGraph{err: errors.New("All sub queries in an UNION must have the same return column names")}
	out := NewGraphSearchTool(g, nil).Invoke(context.Background(),
		tool.TextInput("MATCH (a:Person) RETURN a.name AS n UNION MATCH (b:Project) RETURN b.title AS t"))
	assert.Equal(t, UnionRemediation, out)
}

func TestGraphSearch_NeverFails(t *testing.T) {
	inputs := []string{"", "   ", "```", "MATCH (", "not cypher at all", "UNION"}
	g := &fakeGraph{err: errors.New("Invalid input")}
	gt := NewGraphSearchTool(g, nil)
	for _, in := range inputs {
		out := gt.Invoke(context.Background(), tool.TextInput(in))
		assert.True(t, strings.HasPrefix(out, "graph query error: "), "input %q -> %q", in, out)
	}
	assert.Equal(t, "graph query error: Invalid input", gt.Invoke(context.Background(), tool.TextInput("MATCH (")))

	out := NewGraphSearchTool(nil, nil).Invoke(context.Background(), tool.TextInput("MATCH (n) RETURN n"))
	assert.True(t, strings.HasPrefix(out, "graph query error: "))
}

func TestVectorSearch_DocumentPayload(t *testing.T) {
	docs := fakeDocs{"finance.pdf": {Filename: "finance.pdf", Type: "pdf",
		Content: "Risks. Commercial real estate faces refinancing risk as loans mature. Vacancy rises."}}
	gen := &fakeGen{out: "Refinancing risk is the main concern (finance.pdf)."}
	vt := NewVectorSearchTool(VectorSearchConfig{Documents: docs, Generator: gen})

	out := vt.Invoke(context.Background(), tool.PayloadInput("What are the risks?", "finance.pdf"))
	assert.Equal(t, "Refinancing risk is the main concern (finance.pdf).\n\nSource: Commercial real estate faces refinancing risk as loans mature.", out)
	assert.Contains(t, gen.prompt, `document "finance.pdf"`)
	assert.Contains(t, gen.prompt, "What are the risks?")
}

func TestVectorSearch_FilenameInText(t *testing.T) {
	docs := fakeDocs{"update.eml": {Filename: "update.eml", Type: "email", Subject: "Atlas", Body: "The Atlas launch moved to next Friday afternoon."}}
	gen := &fakeGen{out: "It moved to Friday."}
	vt := NewVectorSearchTool(VectorSearchConfig{Documents: docs, Generator: gen})

	out := vt.Invoke(context.Background(), tool.TextInput("When is the launch according to update.eml?"))
	assert.True(t, strings.HasPrefix(out, "It moved to Friday.\n\nSource: "), out)
	assert.Contains(t, gen.prompt, "Subject: Atlas")
}

func TestVectorSearch_DocumentErrors(t *testing.T) {
	vt := NewVectorSearchTool(VectorSearchConfig{Documents: fakeDocs{}, Generator: &fakeGen{}})
	assert.Equal(t, "Error: Document 'missing.pdf' not found.", vt.Invoke(context.Background(), tool.PayloadInput("q", "missing.pdf")))

	docs := fakeDocs{"a.pdf": {Filename: "a.pdf", Content: "x"}}
	vt = NewVectorSearchTool(VectorSearchConfig{Documents: docs, Generator: &fakeGen{err: errors.New("quota")}})
	assert.Equal(t, "Error: Failed to generate an answer from the document.", vt.Invoke(context.Background(), tool.PayloadInput("q", "a.pdf")))

	docs = fakeDocs{"b.pdf": {Filename: "b.pdf", Content: "Tiny."}}
	vt = NewVectorSearchTool(VectorSearchConfig{Documents: docs, Generator: &fakeGen{out: "ok"}})
	assert.Equal(t, "ok\n\nSource: "+noSourceSentence, vt.Invoke(context.Background(), tool.PayloadInput("q", "b.pdf")))
}

func TestVectorSearch_SemanticSnippets(t *testing.T) {
	d1 := &schema.Document{ID: "1", Content: "The travel policy allows economy class for flights under six hours.",
		MetaData: map[string]any{"filename": "policy.pdf", "type": "pdf"}}
	d1.WithScore(0.91)
	d2 := &schema.Document{ID: "2", Content: "Expenses need receipts.", MetaData: map[string]any{"filename": "memo.eml", "type": "email"}}
	d2.WithScore(0.52)

	vt := NewVectorSearchTool(VectorSearchConfig{Retriever: &fakeRetriever{docs: []*schema.Document{d1, d2}}})
	out := vt.Invoke(context.Background(), tool.TextInput("what class can I fly?"))
	assert.Contains(t, out, "[1] score=0.9100 filename=policy.pdf type=pdf")
	assert.Contains(t, out, "[2] score=0.5200 filename=memo.eml type=email")
	assert.True(t, strings.HasSuffix(out, "Source: The travel policy allows economy class for flights under six hours."), out)
}

func TestVectorSearch_SemanticUnavailable(t *testing.T) {
	out := NewVectorSearchTool(VectorSearchConfig{}).Invoke(context.Background(), tool.TextInput("anything"))
	assert.Contains(t, out, "unavailable")

	vt := NewVectorSearchTool(VectorSearchConfig{Retriever: &fakeRetriever{err: errors.New("index missing")}})
	assert.Equal(t, "vector search error: index missing", vt.Invoke(context.Background(), tool.TextInput("q")))

	vt = NewVectorSearchTool(VectorSearchConfig{Retriever: &fakeRetriever{}})
	assert.Equal(t, "No matching documents found.", vt.Invoke(context.Background(), tool.TextInput("q")))
}

func TestBuiltinNames(t *testing.T) {
	require.Equal(t, tool.SQLSearch, NewSQLSearchTool(nil, nil).Name())
	require.Equal(t, tool.VectorSearch, NewVectorSearchTool(VectorSearchConfig{}).Name())
	require.Equal(t, tool.GraphSearch, NewGraphSearchTool(nil, nil).Name())
}
