package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"admin-backend/internal/infrastructure/config"
	"admin-backend/internal/infrastructure/logger"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	migrationsDir := flag.String("dir", "db/migrations", "path to migrations directory")
	flag.Parse()

	zlog, err := logger.New("info")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer zlog.Sync()

	if err := run(*cfgPath, *migrationsDir, zlog); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}
	zlog.Info("all migrations applied")
}

func run(cfgPath, migrationsDir string, zlog *zap.Logger) error {
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DB.DSN == "" {
		return errors.New("config.db.dsn is empty; migrations need a database")
	}

	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.sql"))
	if err != nil {
		return fmt.Errorf("scan migrations dir: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no .sql files under %s", migrationsDir)
	}
	sort.Strings(files)

	db, err := sql.Open("postgres", cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	for _, f := range files {
		stmt, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", filepath.Base(f), err)
		}
		zlog.Info("applying migration", zap.String("file", filepath.Base(f)))
		if _, err := db.Exec(string(stmt)); err != nil {
			return fmt.Errorf("apply %s: %w", filepath.Base(f), err)
		}
	}
	return nil
}
