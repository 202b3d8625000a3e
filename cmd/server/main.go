package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/AdamikHQ/go-signer-gateway/internal/api"
	"github.com/AdamikHQ/go-signer-gateway/internal/api/handlers"
	"github.com/AdamikHQ/go-signer-gateway/internal/config"
	"github.com/AdamikHQ/go-signer-gateway/internal/signer/backends"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Signer gateway HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func runServer() {
	cfg := config.DefaultServiceConfigFromEnv()
	configureLogger(cfg.Logger)

	s := api.NewServer(cfg, backends.Factories(cfg))
	handlers.AttachAllRoutes(s)

	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func configureLogger(cfg config.Logger) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.PrettyPrintConsole {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
