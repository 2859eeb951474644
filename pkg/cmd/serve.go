package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	rollconf "github.com/evstack/near-da/pkg/config"
	"github.com/evstack/near-da/pkg/da/near"
	"github.com/evstack/near-da/pkg/rpc/server"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// listenedServer is an http.Server with the listener it serves on.
type listenedServer struct {
	name string
	srv  *http.Server
	ln   net.Listener
}

// ServeCmd runs the HTTP sidecar and, when enabled, the Prometheus metrics server.
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blob contract over HTTP",
		Long: `Runs an HTTP server that submits and reads blobs through the configured NEAR client.
When instrumentation is enabled, Prometheus metrics are served on a separate address.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ParseConfig(cmd)
			if err != nil {
				return fmt.Errorf("error parsing config: %w", err)
			}
			logger := SetupLogger(cfg.Log)

			metrics := near.NopMetrics()
			if cfg.Instrumentation.IsPrometheusEnabled() {
				metrics = near.PrometheusMetrics(cfg.Instrumentation.Namespace)
			}

			client, err := NewClient(cfg, logger, metrics)
			if err != nil {
				return fmt.Errorf("failed to create NEAR client: %w", err)
			}
			if client.Signer().AccountID() == "" {
				logger.Warn().Msg("no signing key configured, POST /blobs will be rejected")
			}
			da := NewDataAvailability(cfg, client, logger)

			servers, err := listenAll(cfg, server.NewServer(da, logger,
				server.WithSubmitRateLimit(cfg.Server.SubmitRate, cfg.Server.SubmitBurst)))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for _, s := range servers {
				logger.Info().Str("server", s.name).Str("addr", s.ln.Addr().String()).Msg("listening")
			}
			return runServers(ctx, logger, servers)
		},
	}
	rollconf.AddFlags(cmd)
	return cmd
}

func listenAll(cfg rollconf.Config, handler http.Handler) ([]listenedServer, error) {
	type pending struct {
		name    string
		addr    string
		handler http.Handler
	}
	todo := []pending{{name: "http", addr: cfg.Server.Address, handler: handler}}

	if cfg.Instrumentation.IsPrometheusEnabled() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.InstrumentMetricHandler(
			prometheus.DefaultRegisterer, promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}),
		))
		todo = append(todo, pending{name: "prometheus", addr: cfg.Instrumentation.PrometheusListenAddr, handler: mux})
	}

	servers := make([]listenedServer, 0, len(todo))
	for _, p := range todo {
		ln, err := net.Listen("tcp", p.addr)
		if err != nil {
			for _, s := range servers {
				_ = s.ln.Close()
			}
			return nil, fmt.Errorf("failed to listen on %s for %s server: %w", p.addr, p.name, err)
		}
		servers = append(servers, listenedServer{
			name: p.name,
			srv:  &http.Server{Handler: p.handler, ReadHeaderTimeout: readHeaderTimeout},
			ln:   ln,
		})
	}
	return servers, nil
}

// runServers serves until ctx is done or one server fails, then shuts every server down.
func runServers(ctx context.Context, logger zerolog.Logger, servers []listenedServer) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, s := range servers {
		s := s
		g.Go(func() error {
			if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s server: %w", s.name, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs error
		for _, s := range servers {
			if err := s.srv.Shutdown(shutdownCtx); err != nil {
				errs = errors.Join(errs, fmt.Errorf("%s server shutdown: %w", s.name, err))
			}
		}
		logger.Info().Msg("servers stopped")
		return errs
	})

	return g.Wait()
}
