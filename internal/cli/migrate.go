package cli

import (
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/gridmarket/orderbook-svc/internal/assets"
	"github.com/gridmarket/orderbook-svc/internal/config"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

func MigrateUp(cfg config.Config) error {
	return applyMigrations(cfg, func(m *migrate.Migrate) error { return m.Up() })
}

func MigrateDown(cfg config.Config) error {
	return applyMigrations(cfg, func(m *migrate.Migrate) error { return m.Down() })
}

func applyMigrations(cfg config.Config, dir func(*migrate.Migrate) error) error {
	src, err := iofs.New(assets.Migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "failed to open migrations source")
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.DatabaseURL())
	if err != nil {
		return errors.Wrap(err, "failed to create migrator")
	}
	defer m.Close()

	if err = dir(m); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, "failed to apply migrations")
	}
	return nil
}
