package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flux/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultMigrationsPath is where the SQL migrations live relative to the working directory.
const DefaultMigrationsPath = "file://migrations"

// Manager owns the gorm connection pool.
type Manager struct {
	db  *gorm.DB
	cfg *Config
}

// NewManager opens a pooled postgres connection.
func NewManager(cfg *Config) (*Manager, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Manager{db: db, cfg: cfg}, nil
}

// Ping verifies the database is reachable. Used by the health endpoint.
func (m *Manager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// RunMigrations applies pending migrations from source (DefaultMigrationsPath when empty).
func (m *Manager) RunMigrations(source string) error {
	return Migrate(m.cfg, source, func(mig *migrate.Migrate) error { return mig.Up() })
}

// Migrate builds a golang-migrate instance and runs fn against it.
// ErrNoChange is treated as success.
func Migrate(cfg *Config, source string, fn func(*migrate.Migrate) error) error {
	if source == "" {
		source = DefaultMigrationsPath
	}
	log := logger.Named("migrate")
	log.Infow("Running database migrations", "source", source)

	mig, err := migrate.New(source, cfg.URL())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := mig.Close()
		if srcErr != nil {
			log.Warnf("migrate source close error: %v", srcErr)
		}
		if dbErr != nil {
			log.Warnf("migrate database close error: %v", dbErr)
		}
	}()

	if err := fn(mig); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Info("Database migrations completed successfully")
	return nil
}

// DB returns the underlying gorm handle.
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Close releases the pool.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
