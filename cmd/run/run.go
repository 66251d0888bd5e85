// Package run contains the command to run a resolvd server.
package run

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/resolvd/resolvd/cmd/util"
	"github.com/resolvd/resolvd/pkg/logger"
	"github.com/resolvd/resolvd/pkg/resolvers/httpapi"
	"github.com/resolvd/resolvd/pkg/server"
	"github.com/resolvd/resolvd/pkg/service"
	"github.com/resolvd/resolvd/pkg/storage/sqlite"
)

const shutdownTimeout = 5 * time.Second

func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the resolvd server",
		Long:  "Run the resolvd server.",
		Run:   run,
		Args:  cobra.NoArgs,
	}

	flags := cmd.Flags()

	flags.String("log-level", "info", "the log level to use (none, debug, info, warn, error, fatal)")
	flags.String("log-format", "text", "the log format to output logs in (text, json)")
	flags.String("datastore-uri", "file:resolvd.db", "the SQLite URI of the local library index")
	flags.String("http-addr", "0.0.0.0:8080", "the host:port address to serve the HTTP server on")
	flags.Bool("metrics-enabled", true, "enable/disable the /metrics endpoint and datastore metrics")
	flags.Int("max-concurrent-queries", 0, "cap on concurrently resolving queries; 0 derives it from host parallelism, clamped to [4, 16]")
	flags.Duration("reaper-quiet-period", 0, "how long temporary queries linger after the last temporary submission; 0 keeps the 5m default")
	flags.StringSlice("resolver-endpoints", nil, "base URLs of remote search APIs to register as resolvers")

	flags.VisitAll(func(f *pflag.Flag) {
		util.MustBindPFlag(f.Name, f)
	})

	return cmd
}

func run(_ *cobra.Command, _ []string) {
	l := logger.MustNewLogger(viper.GetString("log-format"), viper.GetString("log-level"))

	metricsEnabled := viper.GetBool("metrics-enabled")

	store, err := sqlite.New(viper.GetString("datastore-uri"), sqlite.Config{
		Logger:        l,
		ExportMetrics: metricsEnabled,
	})
	if err != nil {
		l.Fatal("failed to open library datastore", zap.Error(err))
	}

	cfg := service.DefaultConfig()
	cfg.MaxConcurrentQueries = viper.GetInt("max-concurrent-queries")
	cfg.ReaperQuietPeriod = viper.GetDuration("reaper-quiet-period")
	for _, endpoint := range viper.GetStringSlice("resolver-endpoints") {
		cfg.HTTPResolvers = append(cfg.HTTPResolvers, httpapi.Config{Endpoint: endpoint})
	}

	svc, err := service.New(store, cfg, l)
	if err != nil {
		store.Close()
		l.Fatal("failed to build service", zap.Error(err))
	}
	defer svc.Close()

	mux := http.NewServeMux()
	mux.Handle("/", server.New(svc, l).Handler())
	if metricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	httpServer := &http.Server{
		Addr:    viper.GetString("http-addr"),
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return svc.Run(gctx)
	})
	g.Go(func() error {
		l.Info("starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		l.Error("server exited with error", zap.Error(err))
	}

	l.Info("server shut down")
}
