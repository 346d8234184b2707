package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/ronpa/internal/llm"
	"github.com/abhisek/ronpa/internal/logging"
	"github.com/abhisek/ronpa/internal/server"
)

// checkServeBackend rejects providers the proxy cannot relay to.
func checkServeBackend(c llm.Config) error {
	switch c.ResolvedProvider() {
	case llm.ProviderProxy:
		return fmt.Errorf("serve needs a direct backend; set llm.provider or a provider API key instead of llm.proxy.url")
	case llm.ProviderMock:
		return fmt.Errorf("serve needs a real backend; the mock provider has no responses to relay")
	}
	return c.Validate()
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the streaming proxy",
	Long: `Run the HTTP proxy that relays structured generation to the configured
LLM backend as server-sent events. Requests and usage are recorded in the
local database and can be inspected with "ronpa llm".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkServeBackend(cfg.LLM); err != nil {
			return err
		}

		log := logging.New(logging.WithDebug(cfg.Debug), logging.WithJSON(cfg.Server.JSONLogs))

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		backend, err := llm.NewProvider(ctx, cfg.LLM, st.EventRepo(), log)
		if err != nil {
			return err
		}

		srv, err := server.New(server.Options{
			Addr:           cfg.Server.Listen,
			Backend:        backend,
			APIKey:         cfg.Server.APIKey,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Logger:         log,
		})
		if err != nil {
			return err
		}
		if cfg.Server.APIKey == "" {
			log.Warn("no server.api_key configured; the proxy accepts unauthenticated requests")
		}
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().String("listen", ":8787", "Listen address")
	serveCmd.Flags().String("provider", "", "Backend provider (gemini, anthropic, openai, openrouter)")
	serveCmd.Flags().String("api-key", "", "Require this key in the x-api-key header")
	serveCmd.Flags().StringSlice("origin", nil, "Allowed CORS origin (repeatable)")
	serveCmd.Flags().Bool("json-logs", false, "Log as JSON")
}
