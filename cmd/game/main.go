package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tatianab/stemverse/internal/achievements"
	"github.com/tatianab/stemverse/internal/catalog"
	"github.com/tatianab/stemverse/internal/config"
	"github.com/tatianab/stemverse/internal/engine"
	"github.com/tatianab/stemverse/internal/models"
	"github.com/tatianab/stemverse/internal/notify"
	"github.com/tatianab/stemverse/internal/progression"
	"github.com/tatianab/stemverse/internal/skilltree"
	"github.com/tatianab/stemverse/internal/storage"
	"github.com/tatianab/stemverse/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	started := time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := os.MkdirAll(cfg.SaveDir, 0o755); err != nil {
		return fmt.Errorf("creating save dir: %w", err)
	}

	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		if cat, err = catalog.Load(cfg.CatalogPath); err != nil {
			return fmt.Errorf("loading catalog: %w", err)
		}
	}

	kv, closeKV, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer closeKV()

	repo := models.NewRepository(kv, cat.Defaults(), logger)
	store, err := progression.NewStore(cat, repo, progression.Options{Logger: logger})
	if err != nil {
		return err
	}
	ledger, err := achievements.OpenLedger(repo)
	if err != nil {
		return fmt.Errorf("loading achievements: %w", err)
	}
	eval := achievements.NewEvaluator(cat)
	seq := notify.New(store, eval, ledger, logger)

	store.RecordActivity(started)
	seq.Attach()
	defer func() {
		store.RecordSession(time.Since(started))
		logger.Info("session ended", "duration", time.Since(started).Round(time.Second))
	}()

	eng, err := engine.NewEngine(ctx, cfg.GeminiAPIKey, cfg.Model, logger)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer eng.Close()

	logger.Info("session started", "storage", cfg.Storage, "save_dir", cfg.SaveDir, "model", cfg.Model)
	if err := tui.Run(tui.Deps{
		Store:         store,
		Sequencer:     seq,
		Evaluator:     eval,
		Ledger:        ledger,
		Skills:        skilltree.New(cat),
		Engine:        eng,
		ToastDuration: cfg.ToastDuration,
		Language:      cfg.Locale,
		Logger:        logger,
	}); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

// openLogger writes JSON logs to a file since the TUI owns the terminal.
func openLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { f.Close() }, nil
}

func openStorage(cfg *config.Config) (storage.Storage, func(), error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		db, err := storage.OpenSQLite(cfg.DatabasePath())
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		return db, func() { db.Close() }, nil
	default:
		return storage.NewFile(cfg.SaveDir), func() {}, nil
	}
}
