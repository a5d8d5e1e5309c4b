// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"task-planner/backend/internal/database"
	"task-planner/backend/internal/store/gormstore"

	"gorm.io/gorm/logger"
)

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewSQLiteStore opens a migrated in-memory SQLite store that is closed
// when the test finishes.
func NewSQLiteStore(t testing.TB) *gormstore.Store {
	t.Helper()

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:   database.DriverSQLite,
		DSN:      ":memory:",
		LogLevel: logger.Silent,
	})
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	s := gormstore.New(pool.DB, DiscardLogger())
	if err := s.AutoMigrate(); err != nil {
		t.Fatalf("Failed to migrate sqlite store: %v", err)
	}
	return s
}
