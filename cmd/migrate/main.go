// Package main applies the database schema.
// Usage: migrate up
//        migrate down
//        migrate version
package main

import (
	"fmt"
	"os"

	"erpcore/internal/config"
	"erpcore/internal/infrastructure/migration"
	"erpcore/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Development: true})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	var run func(*migration.Migrator) error
	switch os.Args[1] {
	case "up":
		run = (*migration.Migrator).Up
	case "down":
		run = (*migration.Migrator).Down
	case "version":
		run = printVersion
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	m, err := migration.Open(cfg.Database.URL, cfg.Database.MigrationsPath)
	if err != nil {
		log.Fatalw("failed to open migrator", "error", err)
	}
	defer func() { _ = m.Close() }()

	if err := run(m); err != nil {
		log.Fatalw("migration failed", "command", os.Args[1], "error", err)
	}
}

func printVersion(m *migration.Migrator) error {
	version, dirty, ok, err := m.Version()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("no migrations applied")
		return nil
	}
	fmt.Printf("version %d (dirty: %t)\n", version, dirty)
	return nil
}

func printUsage() {
	fmt.Println(`erpcore schema migrations

Usage:
  migrate <command>

Commands:
  up       Apply all pending migrations
  down     Roll back all migrations
  version  Print the current schema version
  help     Show this help

Configuration is read from config.toml, .env and ERPCORE_* variables
(ERPCORE_DATABASE_URL, ERPCORE_DATABASE_MIGRATIONS_PATH).`)
}
