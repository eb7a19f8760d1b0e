// parking-seed loads a seed file into the parking database. Flags override
// the environment.
package main

import (
	"context"
	"fmt"
	"os"

	"ms-parking/internal/config"
	"ms-parking/internal/logger"
	"ms-parking/internal/seed"
	"ms-parking/internal/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()
	cfg := config.Load()

	var reset bool
	flagSet := pflag.NewFlagSet("parking-seed", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.Seed.Path, "seed", cfg.Seed.Path, "path to the seed JSON file")
	flagSet.StringVar(&cfg.Database.Driver, "driver", cfg.Database.Driver, "database driver (sqlite or postgres)")
	flagSet.StringVar(&cfg.Database.DSN, "dsn", cfg.Database.DSN, "database connection string")
	flagSet.BoolVar(&reset, "reset", false, "drop every table before seeding")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	log := logger.NewLogger("parking-seed", cfg.Log.Dir)
	defer log.Close()

	snap, err := seed.Load(cfg.Seed.Path, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if reset {
		if err := store.Reset(ctx); err != nil {
			return err
		}
	}
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	if !reset {
		if _, ok, err := store.LoadSnapshot(ctx); err != nil {
			return err
		} else if ok {
			return fmt.Errorf("database already holds parking data, rerun with --reset to replace it")
		}
	}

	if err := store.SaveSnapshot(ctx, snap); err != nil {
		return err
	}

	log.Info("SEED", fmt.Sprintf("✅ Loaded %d zones, %d gates, %d subscriptions, %d users from %s",
		len(snap.Zones), len(snap.Gates), len(snap.Subscriptions), len(snap.Users), cfg.Seed.Path))
	return nil
}
