package database

import (
	"errors"
	"fmt"
	"time"

	"spendwise/internal/config"
	"spendwise/internal/logger"
	"spendwise/internal/models"
	"spendwise/migrations"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Manager handles database operations
type Manager struct {
	db     *gorm.DB
	config *Config
}

// NewManager opens the configured database. Timestamps are written in UTC
// so date range predicates compare consistently on every driver.
func NewManager(cfg *Config) (*Manager, error) {
	gormCfg := &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN(),
			PreferSimpleProtocol: true,
		})
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath + "?_foreign_keys=on&_busy_timeout=5000")
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	if cfg.Driver == config.DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return &Manager{db: db, config: cfg}, nil
}

// NewMigrator builds a golang-migrate instance for the PostgreSQL schema.
// An empty MigrationsPath uses the SQL files compiled into the binary.
func NewMigrator(cfg *Config) (*migrate.Migrate, error) {
	if cfg.Driver != config.DriverPostgres {
		return nil, fmt.Errorf("versioned migrations require the %s driver", config.DriverPostgres)
	}

	if cfg.MigrationsPath != "" {
		return migrate.New("file://"+cfg.MigrationsPath, cfg.MigrateURL())
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	return migrate.NewWithSourceInstance("iofs", src, cfg.MigrateURL())
}

// RunMigrations brings the schema up to date. PostgreSQL applies the
// versioned SQL migrations; SQLite is migrated from the models.
func (m *Manager) RunMigrations() error {
	log := logger.Get()
	log.Info("Running database migrations...")

	if m.config.Driver == config.DriverSQLite {
		if err := m.db.AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
		log.Info("Database migrations completed successfully")
		return nil
	}

	mig, err := NewMigrator(m.config)
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

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Info("Database migrations completed successfully")
	return nil
}

// DB returns the underlying GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Close releases the connection pool.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
