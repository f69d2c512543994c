package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/agrisathi/agrisathi-go/internal/rag"
	"github.com/agrisathi/agrisathi-go/internal/websearch"
)

type fakeRetriever struct {
	gotQuery     string
	gotNamespace string
	results      []rag.SearchResult
	err          error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, topK int, namespace string) ([]rag.SearchResult, error) {
	f.gotQuery = query
	f.gotNamespace = namespace
	return f.results, f.err
}

type fakeSearcher struct {
	results []websearch.Result
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, query string, maxResults int) ([]websearch.Result, error) {
	return f.results, f.err
}

func TestKnowledgeBaseTool_Run(t *testing.T) {
	t.Parallel()

	r := &fakeRetriever{results: []rag.SearchResult{
		{Text: "Apply urea in split doses.", Score: 0.91, Metadata: map[string]any{"source": "fertilizer-guide.pdf"}},
	}}
	tool := NewKnowledgeBaseTool(r, "punjab", 5)

	out, err := tool.InvokableRun(context.Background(), `{"query":"urea dosage for wheat"}`)
	if err != nil {
		t.Fatalf("InvokableRun() error = %v", err)
	}
	if r.gotNamespace != "punjab" {
		t.Errorf("namespace = %q, want punjab", r.gotNamespace)
	}
	if !strings.Contains(out, "fertilizer-guide.pdf") || !strings.Contains(out, "split doses") {
		t.Errorf("output = %q", out)
	}
}

func TestKnowledgeBaseTool_ContextNamespaceOverride(t *testing.T) {
	t.Parallel()

	// A shared tool instance constructed unscoped must honour the
	// per-request namespace the agent places on the context.
	r := &fakeRetriever{}
	tool := NewKnowledgeBaseTool(r, "", 5)

	ctx := WithNamespace(context.Background(), "farmer-42")
	if _, err := tool.InvokableRun(ctx, `{"query":"soil ph"}`); err != nil {
		t.Fatalf("InvokableRun() error = %v", err)
	}
	if r.gotNamespace != "farmer-42" {
		t.Errorf("namespace = %q, want farmer-42", r.gotNamespace)
	}

	// Without a context namespace the construction default applies.
	r2 := &fakeRetriever{}
	tool2 := NewKnowledgeBaseTool(r2, "punjab", 5)
	if _, err := tool2.InvokableRun(context.Background(), `{"query":"soil ph"}`); err != nil {
		t.Fatalf("InvokableRun() error = %v", err)
	}
	if r2.gotNamespace != "punjab" {
		t.Errorf("namespace = %q, want construction default punjab", r2.gotNamespace)
	}
}

func TestKnowledgeBaseTool_NoResults(t *testing.T) {
	t.Parallel()

	tool := NewKnowledgeBaseTool(&fakeRetriever{}, "", 0)
	out, err := tool.InvokableRun(context.Background(), `{"query":"anything"}`)
	if err != nil {
		t.Fatalf("InvokableRun() error = %v", err)
	}
	if !strings.Contains(out, "No relevant documents") {
		t.Errorf("output = %q", out)
	}
}

func TestKnowledgeBaseTool_EmptyQuery(t *testing.T) {
	t.Parallel()

	tool := NewKnowledgeBaseTool(&fakeRetriever{}, "", 0)
	if _, err := tool.InvokableRun(context.Background(), `{"query":"  "}`); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestKnowledgeBaseTool_Info(t *testing.T) {
	t.Parallel()

	info, err := NewKnowledgeBaseTool(&fakeRetriever{}, "", 0).Info(context.Background())
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if info.Name != "knowledge_base_search" {
		t.Errorf("Name = %q", info.Name)
	}
}

func TestWebSearchTool_Run(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{results: []websearch.Result{
		{Title: "IMD forecast", URL: "https://example.com/imd", Content: "Light rain expected.", Score: 0.8},
	}}
	tool := NewWebSearchTool(s, 3)

	out, err := tool.InvokableRun(context.Background(), `{"query":"weather ludhiana tomorrow"}`)
	if err != nil {
		t.Fatalf("InvokableRun() error = %v", err)
	}
	if !strings.Contains(out, "IMD forecast") || !strings.Contains(out, "https://example.com/imd") {
		t.Errorf("output = %q", out)
	}
}

func TestWebSearchTool_InvalidJSON(t *testing.T) {
	t.Parallel()

	tool := NewWebSearchTool(&fakeSearcher{}, 0)
	if _, err := tool.InvokableRun(context.Background(), `{not json`); err == nil {
		t.Fatal("expected error for invalid JSON input")
	}
}
