package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/agrisathi/agrisathi-go/internal/websearch"
)

// WebSearchTool is an Eino tool that runs a live web search for information
// the knowledge base cannot hold: current weather, today's mandi prices,
// recent news about schemes and subsidies.
type WebSearchTool struct {
	searcher   websearch.Searcher
	maxResults int
}

// webSearchInput is the JSON-serialisable input schema for WebSearchTool.
type webSearchInput struct {
	// Query is the web search query.
	Query string `json:"query"`
}

// NewWebSearchTool constructs a WebSearchTool. maxResults <= 0 uses the
// searcher default.
func NewWebSearchTool(searcher websearch.Searcher, maxResults int) *WebSearchTool {
	return &WebSearchTool{searcher: searcher, maxResults: maxResults}
}

// Name returns the tool name registered with the agent.
func (t *WebSearchTool) Name() string { return "web_search" }

// Description returns the LLM-facing description of this tool.
func (t *WebSearchTool) Description() string {
	return "Searches the live web for current information: weather forecasts, today's market " +
		"(mandi) prices, and recent news. Use this when the knowledge base has no answer " +
		"or the question needs up-to-date data."
}

// Info returns the Eino tool metadata including the JSON input schema.
func (t *WebSearchTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: t.Name(),
		Desc: t.Description(),
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "Web search query, e.g. 'tomato price Kolar mandi today'.",
				Required: true,
			},
		}),
	}, nil
}

// InvokableRun performs the search and returns titled snippets with URLs.
func (t *WebSearchTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	var input webSearchInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &input); err != nil {
		return "", fmt.Errorf("web_search: invalid input: %w", err)
	}
	if strings.TrimSpace(input.Query) == "" {
		return "", fmt.Errorf("web_search: query is required")
	}

	results, err := t.searcher.Search(ctx, input.Query, t.maxResults)
	if err != nil {
		return "", fmt.Errorf("web_search: %w", err)
	}
	if len(results) == 0 {
		return "No web results found.", nil
	}

	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s (%s)\n%s\n\n", i+1, r.Title, r.URL, r.Content)
	}
	return strings.TrimSpace(b.String()), nil
}
