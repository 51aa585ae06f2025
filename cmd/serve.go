package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iksnae/tropedeck/internal"
	"github.com/iksnae/tropedeck/internal/relay"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the LLM relay server",
	Long: `Run an HTTP relay that turns prompts into generated encounters and
adventures using an OpenAI-compatible chat completions API.

The API key is read from OPENAI_API_KEY and never leaves the server.

Endpoints:
  POST /generate-encounter   {"prompt": "..."}
  POST /generate-adventure   {"prompt": "...", "adventureType": "campaign"|"oneshot"}
  GET  /healthz`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.cfg
		addr := cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		if cfg.OpenAIAPIKey == "" {
			internal.PrintWarning("OPENAI_API_KEY is not set; generation requests will fail")
		}
		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		upstream := &relay.OpenAIUpstream{
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.Model,
			Client:  &http.Client{Timeout: cfg.RelayTimeout},
		}
		srv := relay.NewServer(relay.ServerConfig{
			APIKey:       cfg.OpenAIAPIKey,
			MaxTokens:    cfg.MaxTokens,
			Temperature:  cfg.Temperature,
			AllowOrigins: cfg.AllowOrigins,
		}, upstream)

		httpServer := &http.Server{
			Addr:              addr,
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			internal.PrintInfo(fmt.Sprintf("Relay listening on %s (model %s)", addr, cfg.Model))
			errCh <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("relay server: %w", err)
		case <-ctx.Done():
		}

		internal.PrintInfo("Shutting down relay...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from TROPEDECK_LISTEN_ADDR)")
}
