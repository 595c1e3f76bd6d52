package database

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/johnquangdev/meeting-session/pkg/config"
)

func TestEmbeddedMigrations(t *testing.T) {
	migrations, err := Migrations().FindMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	first := migrations[0]
	require.Equal(t, "0001_meeting_records.sql", first.Id)
	require.NotEmpty(t, first.Up)
	require.NotEmpty(t, first.Down)
	require.True(t, strings.Contains(strings.Join(first.Up, "\n"), "CREATE TABLE IF NOT EXISTS meeting_records"))
}

func TestGormLoggerLevel(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Environment = "production"
	cfg.Database.SlowQuery = 200 * time.Millisecond
	require.NotNil(t, gormLogger(cfg))

	cfg.Server.Environment = "development"
	require.NotNil(t, gormLogger(cfg).LogMode(logger.Silent))
}
