package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/address-compare/internal/web"
)

var servePort int

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the address comparison web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		metrics := web.NewMetrics()
		env, err := initEnv(ctx, envOptions{
			docs:          true,
			cds:           true,
			optional:      true,
			onStateChange: metrics.CircuitStateChanged,
		})
		if err != nil {
			return err
		}
		defer env.Close()

		return startServer(ctx, buildRouter(env.Service, metrics), resolvePort(servePort, cfg.Server.Port))
	},
}

// resolvePort prefers the --port flag over the configured port.
func resolvePort(flagPort, configured int) int {
	if flagPort != 0 {
		return flagPort
	}
	return configured
}

// buildRouter wires the web handlers around svc.
func buildRouter(svc web.Lookuper, metrics *web.Metrics) http.Handler {
	opts := []web.Option{web.WithMetrics(metrics)}
	if cfg != nil {
		opts = append(opts, web.WithCORSOrigins(cfg.Server.CORSOrigins))
		if t := cfg.CDS.Timeout(); t > 0 {
			// Leave room for the CDS client's retries inside one request.
			opts = append(opts, web.WithRequestTimeout(2*t))
		}
	}
	return web.NewServer(svc, opts...).Handler()
}

// startServer serves handler on port until ctx is canceled, then shuts down
// gracefully.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return eris.Wrap(srv.Shutdown(shutdownCtx), "server shutdown")
	})
	return g.Wait()
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
