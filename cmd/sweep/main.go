package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"pixvault/internal/adapter/repo"
	"pixvault/internal/domain"
	"pixvault/internal/export"
	"pixvault/internal/infra"
	"pixvault/internal/storage"
)

func main() {
	var (
		worldFlag     string
		statusFlag    string
		olderThanFlag int
		applyFlag     bool
	)

	flag.StringVar(&worldFlag, "world", "", "restrict the sweep to one world/owner scope")
	flag.StringVar(&statusFlag, "status", "", "restrict the sweep to one status (failed, archived)")
	flag.IntVar(&olderThanFlag, "older-than", 0, "only match assets older than N days (0 = no age filter)")
	flag.BoolVar(&applyFlag, "apply", false, "actually delete; without this flag the sweep is a dry run")
	flag.Parse()

	status := strings.TrimSpace(strings.ToLower(statusFlag))
	switch status {
	case "", "failed", "archived":
	default:
		exitWithError(fmt.Errorf("unsupported status %q", status))
	}

	_ = godotenv.Load()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}
	storagePath := strings.TrimSpace(os.Getenv("STORAGE_PATH"))
	if storagePath == "" {
		exitWithError(errors.New("STORAGE_PATH is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	blobs, err := storage.NewFileStore(storagePath)
	if err != nil {
		exitWithError(err)
	}

	logger := infra.NewLogger("cli").With().Str("cmd", "sweep").Logger()
	runner := infra.NewSQLRunner(pool, logger)
	svc := export.NewService(repo.NewAssetRepository(runner), blobs, logger)

	sweepCtx, cancelSweep := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancelSweep()

	result, err := svc.CleanupAssets(sweepCtx, domain.CleanupCriteria{
		WorldID:       strings.TrimSpace(worldFlag),
		Status:        domain.AssetStatus(status),
		OlderThanDays: olderThanFlag,
		DryRun:        !applyFlag,
	})
	if err != nil {
		exitWithError(fmt.Errorf("sweep failed: %w", err))
	}

	mode := "dry-run"
	if applyFlag {
		mode = "applied"
	}
	fmt.Printf("sweep %s: %d assets, %d bytes\n", mode, result.DeletedCount, result.FreedSpace)
	for _, id := range result.AssetIDs {
		fmt.Println(id)
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
