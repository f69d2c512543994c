// Package tools defines the agent-invokable tools: knowledge-base retrieval
// and live web search. Each tool satisfies Eino's tool.InvokableTool interface
// so it can be registered directly with a ReAct agent.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/agrisathi/agrisathi-go/internal/rag"
)

// KnowledgeBaseTool is an Eino tool that retrieves relevant chunks from the
// ingested document collection. The namespace comes from the construction
// default or a per-request [WithNamespace] context — never from the LLM, so
// the model cannot widen the scope of a tenant-scoped conversation.
type KnowledgeBaseTool struct {
	retriever rag.Retriever
	namespace string
	topK      int
}

// namespaceKey is the context key carrying a per-request retrieval namespace.
type namespaceKey struct{}

// WithNamespace returns a context that scopes knowledge-base retrieval to
// namespace for the duration of one query, overriding the tool's construction
// default. The agent sets it from the request so a shared tool instance still
// honours per-request tenant scoping.
func WithNamespace(ctx context.Context, namespace string) context.Context {
	return context.WithValue(ctx, namespaceKey{}, namespace)
}

// namespaceFromContext reports the per-request namespace, if one was set.
func namespaceFromContext(ctx context.Context) (string, bool) {
	ns, ok := ctx.Value(namespaceKey{}).(string)
	return ns, ok
}

// kbSearchInput is the JSON-serialisable input schema for KnowledgeBaseTool.
type kbSearchInput struct {
	// Query is the natural-language search query.
	Query string `json:"query"`
}

// NewKnowledgeBaseTool constructs a KnowledgeBaseTool scoped to namespace
// (empty = unscoped). topK <= 0 uses the retriever default.
func NewKnowledgeBaseTool(retriever rag.Retriever, namespace string, topK int) *KnowledgeBaseTool {
	return &KnowledgeBaseTool{
		retriever: retriever,
		namespace: namespace,
		topK:      topK,
	}
}

// Name returns the tool name registered with the agent.
func (t *KnowledgeBaseTool) Name() string { return "knowledge_base_search" }

// Description returns the LLM-facing description of this tool.
func (t *KnowledgeBaseTool) Description() string {
	return "Searches the ingested agricultural knowledge base (crop advisories, scheme documents, " +
		"soil and fertilizer guides) for passages relevant to a query. " +
		"Always try this before searching the web."
}

// Info returns the Eino tool metadata including the JSON input schema.
func (t *KnowledgeBaseTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: t.Name(),
		Desc: t.Description(),
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "Natural-language search query, e.g. 'PM-KISAN eligibility criteria'.",
				Required: true,
			},
		}),
	}, nil
}

// InvokableRun retrieves matching chunks and returns them as numbered
// passages with relevance scores, or a fixed no-results sentence.
func (t *KnowledgeBaseTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	var input kbSearchInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &input); err != nil {
		return "", fmt.Errorf("knowledge_base_search: invalid input: %w", err)
	}
	if strings.TrimSpace(input.Query) == "" {
		return "", fmt.Errorf("knowledge_base_search: query is required")
	}

	namespace := t.namespace
	if ns, ok := namespaceFromContext(ctx); ok {
		namespace = ns
	}

	results, err := t.retriever.Retrieve(ctx, input.Query, t.topK, namespace)
	if err != nil {
		return "", fmt.Errorf("knowledge_base_search: %w", err)
	}
	if len(results) == 0 {
		return "No relevant documents found in the knowledge base.", nil
	}

	var b strings.Builder
	for i, r := range results {
		source := ""
		if s, ok := r.Metadata["source"].(string); ok {
			source = s
		}
		fmt.Fprintf(&b, "[%d] (score %.3f, source %s)\n%s\n\n", i+1, r.Score, source, r.Text)
	}
	return strings.TrimSpace(b.String()), nil
}
