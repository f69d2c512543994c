package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/agrisathi/agrisathi-go/internal/agent"
	"github.com/agrisathi/agrisathi-go/internal/ingestion"
	"github.com/agrisathi/agrisathi-go/internal/logging"
	"github.com/agrisathi/agrisathi-go/internal/provider"
	"github.com/agrisathi/agrisathi-go/internal/rag"
	"github.com/agrisathi/agrisathi-go/internal/server"
	"github.com/agrisathi/agrisathi-go/internal/store"
	"github.com/agrisathi/agrisathi-go/internal/tracing"
)

// NewServeCmd constructs the `agrisathi serve` command, which starts the
// HTTP server exposing ingestion, search, and streaming chat.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the AgriSathi HTTP server",
		Long: `Start the AgriSathi HTTP server.

The server exposes a REST/SSE API: POST /api/ingest uploads documents into
the vector store, POST /api/search runs a similarity search, and
POST /api/chat streams the assistant's answer as Server-Sent Events.

Examples:
  agrisathi serve
  agrisathi serve --port 9090
  MODEL_PROVIDER=ollama agrisathi serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Langfuse tracing is opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise model provider: %w", err)
			}
			log.Info("provider initialised")

			docStore, storeName, err := buildDocumentStore(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer docStore.Close()

			if err := docStore.EnsureCollection(ctx); err != nil {
				return fmt.Errorf("serve: failed to ensure collection: %w", err)
			}

			textChunker, err := buildChunker()
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			pipeline, err := ingestion.New(docStore, textChunker)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			retriever, err := rag.NewRetriever(docStore, 0)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			// Open conversation history store. AGRISATHI_HISTORY_DB overrides
			// the default path (~/.agrisathi/history.db). Set to "disabled"
			// to turn history off.
			var historyStore store.ConversationStore
			dbPath := os.Getenv("AGRISATHI_HISTORY_DB")
			if dbPath != "disabled" {
				if dbPath == "" {
					dbPath, err = store.DefaultDBPath()
					if err != nil {
						log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
					}
				}
				if dbPath != "" {
					hs, hsErr := store.Open(dbPath)
					if hsErr != nil {
						log.Warn("history: failed to open store, disabling", slog.Any("error", hsErr))
					} else {
						historyStore = hs
						defer func() { _ = hs.Close() }()
						log.Info("history: store opened", slog.String("path", dbPath))
					}
				}
			} else {
				log.Info("history: disabled via AGRISATHI_HISTORY_DB=disabled")
			}

			advisor, err := agent.New(ctx, &agent.Config{
				ChatModel: chatModel,
				Tools:     buildTools(retriever, "", log),
				History:   historyStore,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to initialise agent: %w", err)
			}

			host, port = resolveListenAddr(host, cmd.Flags().Changed("host"), port, cmd.Flags().Changed("port"))

			srv, err := server.New(&server.Deps{
				Agent:     advisor,
				Pipeline:  pipeline,
				Retriever: retriever,
			}, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: []server.Pinger{server.NewStorePinger(docStore, storeName)},
				APIKey:  os.Getenv("AGRISATHI_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8000, "TCP port to listen on")

	return cmd
}
