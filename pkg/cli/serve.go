package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/m-mizutani/chronicle/pkg/service/mcp"
	"github.com/m-mizutani/chronicle/pkg/usecase/dialog"
	"github.com/m-mizutani/chronicle/pkg/usecase/search"
	"github.com/m-mizutani/chronicle/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg      config
		httpAddr string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "http",
			Usage:       "Serve streamable HTTP on this address instead of stdio, e.g. 127.0.0.1:8765",
			Sources:     cli.EnvVars("CHRONICLE_HTTP_ADDR"),
			Destination: &httpAddr,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run an MCP server exposing dialog history tools",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx, c)
			if err != nil {
				return err
			}
			repo, err := cfg.newRepository()
			if err != nil {
				return err
			}

			srv, err := mcp.New(dialog.New(repo), search.New(repo), mcp.WithVersion(Version))
			if err != nil {
				return err
			}

			if httpAddr == "" {
				return srv.Run(ctx)
			}
			return serveHTTP(ctx, httpAddr, srv.Handler())
		},
	}
}

func serveHTTP(ctx context.Context, addr string, handler http.Handler) error {
	logger := logging.From(ctx)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving MCP over HTTP", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return goerr.Wrap(err, "HTTP server failed", goerr.V("addr", addr))
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return goerr.Wrap(err, "failed to shut down HTTP server")
		}
		logger.Info("HTTP server stopped")
		return nil
	}
}
