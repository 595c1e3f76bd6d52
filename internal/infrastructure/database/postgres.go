package database

import (
	"context"
	"embed"
	"fmt"
	"log"
	"os"
	"time"

	migrate "github.com/rubenv/sql-migrate"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/meeting-session/pkg/config"
	"github.com/johnquangdev/meeting-session/pkg/retry"
)

const dialect = "postgres"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// NewPostgresDB opens the record database. The first ping is retried until
// DB_CONNECT_TIMEOUT so the session can start alongside a database container.
func NewPostgresDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{
		Logger:  gormLogger(cfg),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MinConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer cancel()

	policy := retry.Policy{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		MaxElapsedTime:  cfg.Database.ConnectTimeout,
	}
	err = retry.Do(ctx, policy, "ping database", nil, func(ctx context.Context) error {
		if err := sqlDB.PingContext(ctx); err != nil {
			log.Printf("⏳ Waiting for database %s:%s (attempt %d): %v",
				cfg.Database.Host, cfg.Database.Port, retry.Attempt(ctx), err)
			return err
		}
		return nil
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	log.Println("✅ Database connected successfully")
	return db, nil
}

// gormLogger logs every query in development and only slow queries and
// errors otherwise
func gormLogger(cfg *config.Config) logger.Interface {
	level := logger.Warn
	if cfg.IsDevelopment() {
		level = logger.Info
	}
	return logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             cfg.Database.SlowQuery,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  cfg.IsDevelopment(),
	})
}

// Migrations returns the migration source compiled into the binary
func Migrations() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations",
	}
}

// AutoMigrate applies every pending embedded migration
func AutoMigrate(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	n, err := migrate.Exec(sqlDB, dialect, Migrations(), migrate.Up)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Printf("✅ Applied %d migration(s)", n)
	return nil
}

// CloseDB closes the database connection
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
