package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cognicore/sentimap/internal/api"
	"github.com/cognicore/sentimap/internal/logging"
	"github.com/cognicore/sentimap/pkg/sentimap"
	"github.com/cognicore/sentimap/pkg/sentimap/config"
	"github.com/cognicore/sentimap/pkg/sentimap/jobs"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (optional)")
		envFile    = flag.String("env", ".env", "Path to .env file (optional)")
	)
	flag.Parse()

	if err := run(*configPath, *envFile); err != nil {
		slog.Error("[Server] fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath, envFile string) error {
	config.LoadEnv(envFile)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logging.Init(cfg.LogLevel)

	components, err := config.NewLoader(cfg).Load()
	if err != nil {
		return fmt.Errorf("load components: %w", err)
	}

	engine, err := sentimap.New(sentimap.Options{
		Vocabulary:   components.Vocabulary,
		Normalizer:   components.Pipeline,
		Workers:      cfg.Analysis.Workers,
		ExtractShare: cfg.Analysis.ExtractShare,
	})
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := config.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer st.Close()

	manager := jobs.NewManager(st, engine,
		jobs.WithRetention(cfg.Jobs.Retention),
		jobs.WithSweepInterval(cfg.Jobs.SweepInterval))
	go manager.RunSweeper(ctx)

	handler := api.NewHandler(manager, cfg.Server.MaxUploadBytes)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(handler, cfg.Server.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lex := components.Lexicon.Stats()
		slog.Info("[Server] listening",
			slog.String("addr", cfg.Server.Addr),
			slog.String("job_store", cfg.Jobs.Store),
			slog.Int("aspects", len(components.Vocabulary.AspectNames())),
			slog.Int("lemma_groups", lex.Groups),
			slog.Int("lemma_forms", lex.TotalForms))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("[Server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	// Running jobs finish before the store closes.
	manager.Wait()
	return nil
}
