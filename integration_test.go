package main

import (
	"os"
	"path/filepath"
	"testing"

	"task-planner/backend/internal/cli"
	"task-planner/backend/internal/config"
)

func TestApplicationStartup(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", filepath.Join(t.TempDir(), "planner.db"))
	t.Setenv("REDIS_ENABLED", "false")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg == nil {
		t.Fatal("Configuration should not be nil")
	}

	root := cli.NewRootCommand(version)
	root.SetArgs([]string{"migrate"})
	if err := root.Execute(); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	if _, err := os.Stat(cfg.Database.SQLitePath); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
}

func TestProductionGuards(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{
			name:    "development defaults",
			env:     map[string]string{"ENVIRONMENT": "development"},
			wantErr: false,
		},
		{
			name:    "production without secrets",
			env:     map[string]string{"ENVIRONMENT": "production"},
			wantErr: true,
		},
		{
			name: "production with secrets",
			env: map[string]string{
				"ENVIRONMENT": "production",
				"DB_PASSWORD": "s3cret",
				"JWT_SECRET":  "a-long-random-signing-key",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.LoadConfig("")
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
