// Command seed inserts sample groups into the configured database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mmynk/classroll/internal/config"
	"github.com/mmynk/classroll/internal/enrollment"
	"github.com/mmynk/classroll/internal/storage/postgres"
	"github.com/mmynk/classroll/internal/storage/sqlite"
	"github.com/mmynk/classroll/internal/storage/sqlstore"
	"github.com/mmynk/classroll/pkg/logging"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to an optional config file")
	name := flag.String("name", "Turma A", "name of the group to create")
	capacity := flag.Int("capacity", 30, "capacity of the group to create")
	flag.Parse()

	if err := run(*configPath, *name, *capacity); err != nil {
		slog.Error("Seed failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, name string, capacity int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.SetupWith(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)

	ctx := context.Background()

	var store *sqlstore.Store
	if cfg.DB.Driver == config.DriverPostgres {
		store, err = postgres.New(ctx, cfg.DB.URL)
	} else {
		store, err = sqlite.New(ctx, cfg.DB.Path)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	group, err := enrollment.NewService(store).CreateGroup(ctx, enrollment.GroupInput{
		Name:     name,
		Capacity: capacity,
	})
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}

	slog.Info("Test data created", "group_id", group.ID, "name", group.Name, "capacity", group.Capacity)
	return nil
}
