// Package storage keeps a durable copy of the parking working set in SQLite
// or Postgres through bun. The in-memory service stays authoritative; the
// database is loaded once at startup and written back from a journal and on
// shutdown.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"ms-parking/internal/config"
	"ms-parking/internal/logger"
	"ms-parking/internal/models"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type Store struct {
	DB     *bun.DB
	logger *logger.Logger
}

// tables lists every persisted model in creation order.
var tables = []interface{}{
	(*models.User)(nil),
	(*models.Category)(nil),
	(*models.Gate)(nil),
	(*models.Zone)(nil),
	(*models.Subscription)(nil),
	(*models.Ticket)(nil),
	(*models.RushWindow)(nil),
	(*models.Vacation)(nil),
}

// Open connects to the configured database. Supported drivers are "sqlite"
// and "postgres".
func Open(cfg config.DatabaseConfig, log *logger.Logger) (*Store, error) {
	var db *bun.DB
	switch cfg.Driver {
	case "sqlite", "sqlite3":
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case "postgres", "postgresql":
		sqldb, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Driver, err)
	}

	log.LogDatabase("CONNECT", cfg.Driver, "Connected to database")
	return &Store{DB: db, logger: log}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// Migrate creates any missing table.
func (s *Store) Migrate(ctx context.Context) error {
	for _, model := range tables {
		if _, err := s.DB.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table failed: %w", err)
		}
	}
	s.logger.LogDatabase("MIGRATE", "*", fmt.Sprintf("%d tables ready", len(tables)))
	return nil
}

// Reset drops every table. Used by the seeding tool.
func (s *Store) Reset(ctx context.Context) error {
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := s.DB.NewDropTable().Model(tables[i]).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("drop table failed: %w", err)
		}
	}
	s.logger.LogDatabase("RESET", "*", "All tables dropped")
	return nil
}

// SaveSnapshot replaces every stored row with snap in one transaction.
func (s *Store) SaveSnapshot(ctx context.Context, snap *models.Snapshot) error {
	err := s.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range tables {
			if _, err := tx.NewDelete().Model(model).Where("1 = 1").Exec(ctx); err != nil {
				return fmt.Errorf("clear failed: %w", err)
			}
		}

		inserts := []struct {
			n     int
			model interface{}
		}{
			{len(snap.Users), &snap.Users},
			{len(snap.Categories), &snap.Categories},
			{len(snap.Gates), &snap.Gates},
			{len(snap.Zones), &snap.Zones},
			{len(snap.Subscriptions), &snap.Subscriptions},
			{len(snap.Tickets), &snap.Tickets},
			{len(snap.RushHours), &snap.RushHours},
			{len(snap.Vacations), &snap.Vacations},
		}
		for _, ins := range inserts {
			if ins.n == 0 {
				continue
			}
			if _, err := tx.NewInsert().Model(ins.model).Exec(ctx); err != nil {
				return fmt.Errorf("insert failed: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.LogDatabase("SAVE", "snapshot", fmt.Sprintf("%d zones, %d tickets, %d subscriptions",
		len(snap.Zones), len(snap.Tickets), len(snap.Subscriptions)))
	return nil
}

// LoadSnapshot reads the stored working set. It reports false when nothing
// has been stored yet.
func (s *Store) LoadSnapshot(ctx context.Context) (*models.Snapshot, bool, error) {
	snap := &models.Snapshot{}
	selects := []interface{}{
		&snap.Users,
		&snap.Categories,
		&snap.Gates,
		&snap.Zones,
		&snap.Subscriptions,
		&snap.Tickets,
		&snap.RushHours,
		&snap.Vacations,
	}
	for _, dest := range selects {
		if err := s.DB.NewSelect().Model(dest).Order("id ASC").Scan(ctx); err != nil {
			return nil, false, fmt.Errorf("select failed: %w", err)
		}
	}

	if len(snap.Zones) == 0 && len(snap.Users) == 0 && len(snap.Categories) == 0 {
		return nil, false, nil
	}
	s.logger.LogDatabase("LOAD", "snapshot", fmt.Sprintf("%d zones, %d tickets", len(snap.Zones), len(snap.Tickets)))
	return snap, true, nil
}

// RecordTicket inserts the ticket or updates its checkout time.
func (s *Store) RecordTicket(ctx context.Context, ticket models.Ticket) error {
	_, err := s.DB.NewInsert().
		Model(&ticket).
		On("CONFLICT (id) DO UPDATE").
		Set("checkout_at = EXCLUDED.checkout_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert ticket %s failed: %w", ticket.ID, err)
	}
	return nil
}

// UpdateZoneCounters stores the occupancy counter and open flag of a zone.
func (s *Store) UpdateZoneCounters(ctx context.Context, zoneID string, occupied int, open bool) error {
	_, err := s.DB.NewUpdate().
		Model((*models.Zone)(nil)).
		Set("occupied = ?", occupied).
		Set("? = ?", bun.Ident("open"), open).
		Where("id = ?", zoneID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update zone %s failed: %w", zoneID, err)
	}
	return nil
}

// GetTicket is used by tests and the seeding tool to inspect stored rows.
func (s *Store) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.DB.NewSelect().
		Model(&ticket).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}
