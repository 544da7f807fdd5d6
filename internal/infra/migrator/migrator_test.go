package migrator

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/migrations"
	"github.com/m04kA/SMC-AvailabilityService/pkg/logger"
)

func TestNew_RequiresDatabase(t *testing.T) {
	_, err := New(nil, migrations.FS, ".", logger.NewNop())

	assert.ErrorIs(t, err, ErrNoDatabase)
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"00001_create_availability_rules.sql",
		"00002_create_availability_logs.sql",
		"00003_create_consultations.sql",
		"00004_create_slot_reservations.sql",
	}, files)

	for _, name := range files {
		body, err := fs.ReadFile(migrations.FS, name)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(body), "-- +goose Up"), name)
		assert.True(t, strings.Contains(string(body), "-- +goose Down"), name)
	}
}
