package main

import (
	"context"
	"errors"
	"net/http"

	lpchttp "github.com/fyrsmithlabs/lpcassist/internal/http"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (overrides server.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides server.port)")
}

// serveCmd runs the JSON API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve search, validation and prompt assembly over HTTP",
	Long: `Build the index and serve the JSON API used by editor and desktop
integrations. Prometheus metrics are exposed on /metrics.

Examples:
  lpcassist serve
  lpcassist serve --port 9000`,
	Args: cobra.NoArgs,
	RunE: withApp(runServe),
}

func runServe(cmd *cobra.Command, a *app, _ []string) error {
	ctx := cmd.Context()

	cfg := &lpchttp.Config{Host: a.cfg.Server.Host, Port: a.cfg.Server.Port}
	if serveHost != "" {
		cfg.Host = serveHost
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	a.ensureIndex(ctx)
	srv, err := lpchttp.NewServer(lpchttp.Deps{
		Corpus:    a.index,
		Validator: a.validator,
		Assembler: a.builder,
	}, a.logger.Underlying(), cfg)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error(shutdownCtx, "shutdown failed", zap.Error(err))
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
