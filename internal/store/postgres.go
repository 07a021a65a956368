// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package store provides database bootstrap and schema management.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Connect opens a pgx connection pool and verifies it with a ping.
// The ping is retried with fibonacci backoff so the service survives a
// database that comes up slightly after it does.
func Connect(ctx context.Context, databaseURL string, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "create connection pool").
			Wrap(err)
	}

	backoff := retry.WithMaxRetries(5, retry.NewFibonacci(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			logger.WarnContext(ctx, "database not ready, retrying", "error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "ping database").
			Wrap(err)
	}

	return pool, nil
}
