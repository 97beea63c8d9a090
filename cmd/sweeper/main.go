// Package main runs one reserve release sweep and exits. Meant for
// cron when the API server's in-process ticker is disabled, or for
// catching up after downtime. Safe to run concurrently with the
// server: releases are conditional state transitions.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/mourinha112/zucropay-sub000/internal/config"
	"github.com/mourinha112/zucropay-sub000/internal/repositories"
	"github.com/mourinha112/zucropay-sub000/internal/services/ledger"
	"github.com/mourinha112/zucropay-sub000/internal/services/reserve"
)

func main() {
	config.LoadEnv()

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if sqlDB, err := repositories.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	store := repositories.NewStore(repositories.DB)
	tracker := reserve.NewTracker(store, ledger.NewService(store, repositories.CacheService))

	result := tracker.ReleaseMatured(context.Background(), time.Now())

	log.Printf("reserve sweep: released %d reserves totalling %.2f", result.ReleasedCount, result.TotalReleased)
	for _, sweepErr := range result.Errors {
		log.Printf("reserve sweep: reserve %d failed: %s", sweepErr.ReserveID, sweepErr.Reason)
	}
	if len(result.Errors) > 0 {
		os.Exit(1)
	}
}
