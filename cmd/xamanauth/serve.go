package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/xamanauth/logging"
	httpapi "github.com/layer-3/xamanauth/transport/http"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			tokens, err := newTokenizer(a.cfg.HTTP)
			if err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)
			router := httpapi.SetupRouter(httpapi.RouterConfig{
				Controller:   a.controller,
				Tokenizer:    tokens,
				Metrics:      a.metrics,
				TokenTTL:     a.cfg.HTTP.TokenTTL,
				ConnectRate:  a.cfg.HTTP.ConnectRate,
				ConnectBurst: a.cfg.HTTP.ConnectBurst,
			})

			server := &http.Server{
				Addr:              a.cfg.HTTP.Listen,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logging.Info("listening", slog.String("addr", server.Addr))
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logging.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}
