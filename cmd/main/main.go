package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/matt-steen/takma/pkg/boards"
	"github.com/matt-steen/takma/pkg/config"
	"github.com/matt-steen/takma/pkg/controller"
	"github.com/matt-steen/takma/pkg/db"
	"github.com/matt-steen/takma/pkg/files"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var logFile *os.File

	root, closeController := controller.NewRootCommand(func(ctx context.Context, configPath string) (*controller.Controller, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}

		logFile, err = setupLogging(cfg)
		if err != nil {
			return nil, err
		}

		return open(ctx, cfg)
	})

	err := root.ExecuteContext(context.Background())

	if closeErr := closeController(); closeErr != nil {
		log.Error().Err(closeErr).Msg("error shutting down")
	}

	if logFile != nil {
		logFile.Close()
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config) (*os.File, error) {
	filePerms := 0o666

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, fmt.Errorf("error creating log directory: %w", err)
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, fs.FileMode(filePerms))
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}

	level, err := cfg.Level()
	if err != nil {
		logFile.Close()

		return nil, err
	}

	zerolog.SetGlobalLevel(level)

	log.Logger = log.With().Caller().Logger().Output(zerolog.ConsoleWriter{
		Out: logFile, TimeFormat: "2006-01-02_15:04:05",
	})

	return logFile, nil
}

func open(ctx context.Context, cfg *config.Config) (*controller.Controller, error) {
	log.Info().Str("save_dir", cfg.SaveDir).Str("storage", cfg.Storage).Msg("starting application...")

	var (
		backend db.Backend
		err     error
	)

	switch cfg.Storage {
	case config.StorageSQLite:
		backend, err = db.NewSQLiteBackend(ctx, cfg.SQLitePath(), cfg.SaveFile)
	default:
		backend, err = db.NewFileBackend(cfg.SavePath())
	}

	if err != nil {
		return nil, err
	}

	store := db.NewStore(backend)
	store.OnCorrupted(func(rescuePath string) {
		fmt.Fprintf(os.Stderr, "The save file could not be read and was replaced. The old file was kept at %s\n", rescuePath)
	})

	if err := store.Load(ctx); err != nil {
		backend.Close()

		return nil, err
	}

	if err := store.IncrementTimesOpened(ctx); err != nil {
		backend.Close()

		return nil, err
	}

	manager := files.NewManager(cfg.SaveDir, cfg.TempDir)
	thumbnailer := files.NewThumbnailer(manager, cfg.ThumbnailWorkers)
	repo := boards.NewRepository(store, manager, cfg.FuzzyDistance)

	return controller.NewController(store, repo, thumbnailer, cfg.ThumbnailSize), nil
}
