// Package agent wires the Eino ReAct loop to the category-specialised
// advisor personas, the knowledge-base and web-search tools, and the
// conversation history store. The agent decides when to call tools and when
// to respond directly, streaming the answer token by token.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"

	"github.com/agrisathi/agrisathi-go/internal/budget"
	"github.com/agrisathi/agrisathi-go/internal/logging"
	"github.com/agrisathi/agrisathi-go/internal/store"
	"github.com/agrisathi/agrisathi-go/internal/tools"
)

// Config holds the dependencies required to construct an AdvisorAgent.
type Config struct {
	// ChatModel is the LLM backend constructed by the provider factory.
	ChatModel model.ToolCallingChatModel

	// Tools is the list of tools available to the agent
	// (knowledge_base_search, web_search).
	Tools []tool.BaseTool

	// History is the optional conversation store used to persist and replay
	// prior turns. If nil, each query is stateless.
	History store.ConversationStore

	// HistoryDepth is the number of prior turns (user+assistant pairs) to
	// inject per query. Defaults to 10 if zero.
	HistoryDepth int

	// MaxContextTokens is the estimated token budget for the full input
	// context (system prompt + history + user message). History is trimmed
	// oldest-first to fit. Defaults to budget.DefaultMaxContextTokens if zero.
	MaxContextTokens int
}

// AdvisorAgent wraps the Eino ReAct agent with category dispatch, language
// handling and conversation memory.
type AdvisorAgent struct {
	reactAgent       *react.Agent
	history          store.ConversationStore
	historyDepth     int
	maxContextTokens int
}

// QueryRequest is a single user turn.
type QueryRequest struct {
	// Message is the user's question.
	Message string
	// Category selects the advisor persona.
	Category Category
	// Language is the BCP-47 tag for the response language (e.g. "hi-IN").
	Language string
	// Namespace scopes knowledge-base retrieval for this query. Empty means
	// the whole collection.
	Namespace string
	// SessionID keys the conversation thread. Empty means stateless.
	SessionID string
}

// New constructs an AdvisorAgent from the provided Config.
func New(ctx context.Context, cfg *Config) (*AdvisorAgent, error) {
	if cfg.ChatModel == nil {
		return nil, fmt.Errorf("agent: ChatModel must not be nil")
	}

	reactAgent, err := react.NewAgent(ctx, &react.AgentConfig{
		ToolCallingModel: cfg.ChatModel,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: cfg.Tools,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("agent: failed to create ReAct agent: %w", err)
	}

	depth := cfg.HistoryDepth
	if depth <= 0 {
		depth = 10
	}
	maxCtx := cfg.MaxContextTokens
	if maxCtx <= 0 {
		maxCtx = budget.DefaultMaxContextTokens
	}

	return &AdvisorAgent{
		reactAgent:       reactAgent,
		history:          cfg.History,
		historyDepth:     depth,
		maxContextTokens: maxCtx,
	}, nil
}

// Query sends a user message to the agent and streams the response to the
// provided writer as tokens arrive. If a conversation store is configured and
// the request carries a session ID, prior turns are injected and the new
// user/assistant pair is persisted after completion.
func (a *AdvisorAgent) Query(ctx context.Context, req *QueryRequest, w io.Writer) error {
	messages := a.buildMessages(ctx, req)

	// Scope knowledge-base retrieval to the request's namespace. The tool
	// reads it from the context so one agent instance serves all tenants.
	if req.Namespace != "" {
		ctx = tools.WithNamespace(ctx, req.Namespace)
	}

	sr, err := a.reactAgent.Stream(ctx, messages)
	if err != nil {
		return fmt.Errorf("agent: stream failed: %w", err)
	}
	defer sr.Close()

	var answer []byte
	for {
		msg, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("agent: stream receive error: %w", err)
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		if _, err := io.WriteString(w, msg.Content); err != nil {
			return fmt.Errorf("agent: write error: %w", err)
		}
		answer = append(answer, msg.Content...)
	}

	// Persist the turn to the conversation store (non-fatal on error).
	if a.history != nil && req.SessionID != "" {
		if err := a.history.Append(ctx, req.SessionID, store.RoleUser, req.Message); err != nil {
			logging.FromContext(ctx).Warn("history: failed to persist user message", slog.Any("error", err))
		}
		if err := a.history.Append(ctx, req.SessionID, store.RoleAssistant, string(answer)); err != nil {
			logging.FromContext(ctx).Warn("history: failed to persist assistant message", slog.Any("error", err))
		}
	}

	return nil
}

// buildMessages constructs the message slice: category/language system prompt,
// trimmed conversation history, then the current user message.
func (a *AdvisorAgent) buildMessages(ctx context.Context, req *QueryRequest) []*schema.Message {
	system := schema.SystemMessage(buildSystemPrompt(req.Category, req.Language))

	var historyMsgs []*schema.Message
	if a.history != nil && req.SessionID != "" {
		prior, err := a.history.Recent(ctx, req.SessionID, a.historyDepth*2)
		if err != nil {
			logging.FromContext(ctx).Warn("history: failed to load prior messages", slog.Any("error", err))
		} else {
			for _, m := range prior {
				switch m.Role {
				case store.RoleUser:
					historyMsgs = append(historyMsgs, schema.UserMessage(m.Content))
				case store.RoleAssistant:
					historyMsgs = append(historyMsgs, schema.AssistantMessage(m.Content, nil))
				}
			}
		}
	}

	user := schema.UserMessage(req.Message)

	// Trim history oldest-first so the total estimated token count fits
	// within the configured context budget.
	fixed := []*schema.Message{system, user}
	before := len(historyMsgs)
	historyMsgs = budget.TrimHistory(fixed, historyMsgs, a.maxContextTokens)
	if dropped := before - len(historyMsgs); dropped > 0 {
		logging.FromContext(ctx).Warn("budget: dropped history messages to fit context window",
			slog.Int("dropped", dropped),
			slog.Int("retained", len(historyMsgs)),
			slog.Int("max_tokens", a.maxContextTokens),
		)
	}

	result := make([]*schema.Message, 0, 2+len(historyMsgs))
	result = append(result, system)
	result = append(result, historyMsgs...)
	result = append(result, user)
	return result
}
