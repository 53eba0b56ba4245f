package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stevemurr/farm-records/collection"
	"github.com/stevemurr/farm-records/config"
	"github.com/stevemurr/farm-records/handler"
	"github.com/stevemurr/farm-records/logger"
	"github.com/stevemurr/farm-records/schema"
	"github.com/stevemurr/farm-records/seed"
	"github.com/stevemurr/farm-records/store"
)

// overrides holds command-line values that win over the environment.
type overrides struct {
	host    string
	port    int
	backend string
	dataDir string
}

func (o overrides) apply(cfg *config.Config) {
	if o.host != "" {
		cfg.Host = o.host
	}
	if o.port != 0 {
		cfg.Port = o.port
	}
	if o.backend != "" {
		cfg.StoreBackend = o.backend
	}
	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var o overrides

	root := &cobra.Command{
		Use:          "farmd",
		Short:        "Farm records server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), o)
		},
	}
	root.PersistentFlags().StringVar(&o.host, "host", "", "listen host (FARM_HOST)")
	root.PersistentFlags().IntVar(&o.port, "port", 0, "listen port (FARM_PORT)")
	root.PersistentFlags().StringVar(&o.backend, "backend", "", "store backend: json, sqlite, postgres, s3, memory (FARM_STORE_BACKEND)")
	root.PersistentFlags().StringVar(&o.dataDir, "data-dir", "", "data directory for file backends (FARM_DATA_DIR)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the farm records HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), o)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Populate an empty database with sample records and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd.Context(), o, cmd.OutOrStdout())
		},
	})
	return root
}

// app is the wired record layer.
type app struct {
	acc    *collection.Accessor
	closer io.Closer
}

func (a *app) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func setup(o overrides) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	o.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.New("farmd", cfg.LogLevel)
	cfg.Log(log)
	return cfg, log, nil
}

func openApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, reg prometheus.Registerer) (*app, error) {
	res, err := store.Open(ctx, cfg.Store())
	if err != nil {
		return nil, fmt.Errorf("open store (backend=%s): %w", cfg.StoreBackend, err)
	}
	ids, err := collection.NewIDGenerator(cfg.IDStrategy)
	if err != nil {
		return nil, err
	}

	s := store.New(res, schema.Names(),
		store.WithLogger(log),
		store.WithStrictLoad(cfg.StrictLoad),
		store.WithMetrics(store.NewMetrics(reg)),
	)
	acc := collection.New(s,
		collection.WithIDGenerator(ids),
		collection.WithSchemas(schema.Farm()),
		collection.WithMetrics(collection.NewMetrics(reg)),
	)

	a := &app{acc: acc}
	if c, ok := res.(io.Closer); ok {
		a.closer = c
	}
	return a, nil
}

func runServe(ctx context.Context, o overrides) error {
	cfg, log, err := setup(o)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := openApp(ctx, cfg, log, reg)
	if err != nil {
		log.Error().Err(err).Msg("storage unavailable")
		return err
	}
	defer a.Close()

	if cfg.SeedSampleData {
		n, err := seed.Seed(ctx, a.acc)
		if err != nil {
			log.Error().Err(err).Msg("sample data population failed")
		} else if n > 0 {
			log.Info().Int("records", n).Msg("populated empty database with sample data")
		}
	}

	h := handler.New(a.acc,
		handler.WithLogger(log),
		handler.WithAllowedOrigins(cfg.AllowedOrigins),
		handler.WithMetrics(reg),
	)
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("store", cfg.StoreBackend).Msg("Farm records server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("Server exited")
	return nil
}

func runSeed(ctx context.Context, o overrides, out io.Writer) error {
	cfg, log, err := setup(o)
	if err != nil {
		return err
	}
	a, err := openApp(ctx, cfg, log, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := seed.Seed(ctx, a.acc)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(out, "database already contains data, nothing seeded")
		return nil
	}
	fmt.Fprintf(out, "seeded %d records\n", n)
	return nil
}
