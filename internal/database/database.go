package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/civix-app/civix-server/internal/config"
	"github.com/civix-app/civix-server/internal/models"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected")
	return nil
}

// MigrateShared runs AutoMigrate for the table-backed models.
func MigrateShared() error {
	return DB.AutoMigrate(
		&models.User{},
		&models.Report{},
		&models.Bookmark{},
		&models.Following{},
		&models.Follower{},
		&models.SystemLog{},
	)
}

// MigrateSpatial applies the embedded SQL migrations that AutoMigrate cannot
// express: PostGIS, the generated geography column and its indexes. It must
// run after MigrateShared.
func MigrateSpatial(ctx context.Context) error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("migrate: acquire connection: %w", err)
	}

	driver, err := migratepg.WithConnection(ctx, conn, &migratepg.Config{})
	if err != nil {
		conn.Close()
		return fmt.Errorf("migrate: init driver: %w", err)
	}
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		driver.Close()
		return fmt.Errorf("migrate: read migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		src.Close()
		driver.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	// Closes the dedicated connection only; the pool stays open.
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	version, dirty, _ := m.Version()
	slog.Info("spatial migrations applied", "version", version, "dirty", dirty)
	return nil
}
