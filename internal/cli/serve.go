package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tikzkit/tikzkit/internal/server"
	"github.com/tikzkit/tikzkit/pkg/cache"
	"github.com/tikzkit/tikzkit/pkg/latex"
	"github.com/tikzkit/tikzkit/pkg/pipeline"
)

// serveCommand creates the serve command, which exposes the render
// pipeline over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		redisURL string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the render pipeline over HTTP",
		Long: `Serve starts an HTTP server with a POST /render endpoint that accepts
a JSON request and responds with the rendered image bytes. Renders are
served concurrently; every render owns its working directory.

With --redis the artifact cache is shared through Redis, so several
instances behind a load balancer reuse each other's renders.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			artifacts, err := c.serveCache(ctx, noCache, redisURL)
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(artifacts, nil, latex.NewRunner(c.Config.Compiler, logger), logger)
			defer runner.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           server.New(runner, logger).Router(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", c.Config.Addr, "listen address")
	cmd.Flags().StringVar(&redisURL, "redis", c.Config.RedisURL, "Redis URL for a shared artifact cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

// serveCache selects the cache backend for the server: Redis when
// configured, the local file cache otherwise.
func (c *CLI) serveCache(ctx context.Context, noCache bool, redisURL string) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisURL != "" {
		return cache.NewRedisCache(ctx, redisURL)
	}
	return cache.NewFileCache(cacheDir())
}
