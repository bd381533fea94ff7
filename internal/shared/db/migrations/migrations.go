package migrations

import (
	"github.com/cristianortiz/thriftbid/internal/shared/db"
	"github.com/cristianortiz/thriftbid/internal/shared/logger"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// RunMigrations applies any pending SQL migrations before the service
// starts taking traffic.
func RunMigrations() error {
	dbURL := db.BuildPostgresDSN()
	log.Info("RunMigrations", zap.String("postgresURL", dbURL))
	m, err := migrate.New(
		"file://internal/shared/db/migrations/sql",
		dbURL,
	)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
