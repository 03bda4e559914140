package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/catgraph/pkg/api"
	"github.com/matzehuels/catgraph/pkg/observability"
	"github.com/matzehuels/catgraph/pkg/pipeline"
	"github.com/matzehuels/catgraph/pkg/store"
)

// shutdownTimeout bounds how long in-flight requests may finish after an
// interrupt.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var origins []string
	var noMetrics bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve categories, the category tree and the analysis report over HTTP.

Prometheus metrics are exposed at /metrics unless --no-metrics is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				runner := c.newRunner(cmd.Context(), st, false)
				defer runner.Cache.Close()

				opts := api.Options{
					Logger:         c.Logger,
					AllowedOrigins: origins,
					Analysis: pipeline.Options{
						Workers:    cfg.Analysis.Workers,
						SampleSize: cfg.Analysis.SampleSize,
					},
				}
				if !noMetrics {
					prom := observability.NewPrometheus(appName)
					prom.Register()
					defer observability.Reset()
					opts.Metrics = prom.Handler()
				}
				return c.serve(cmd.Context(), addr, api.New(st, runner, opts).Handler())
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringSliceVar(&origins, "cors-origin", nil, "allowed CORS origin (repeatable)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not expose /metrics")
	return cmd
}

// serve runs h on addr until ctx is cancelled, then shuts down gracefully.
func (c *CLI) serve(ctx context.Context, addr string, h http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	c.Logger.Info("listening", "addr", ln.Addr().String())
	printSuccess("Serving on http://%s", ln.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
