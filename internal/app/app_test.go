package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traininduction/traininduction/internal/app"
	"github.com/traininduction/traininduction/internal/config"
	"github.com/traininduction/traininduction/internal/scoring"
)

func TestNew_MemoryDefaults(t *testing.T) {
	cfg := config.Default()

	a, err := app.New(context.Background(), cfg, zerolog.Nop(), app.Options{})
	require.NoError(t, err)
	defer a.Close()

	trains, err := a.Induction.ListTrains(context.Background())
	require.NoError(t, err)
	assert.Len(t, trains, 5)

	require.Len(t, a.Checks, 1)
	assert.Equal(t, "fleet-store", a.Checks[0].Name)
	assert.NoError(t, a.Checks[0].Ping(context.Background()))
	assert.Empty(t, a.Registry.Health())
}

func TestNew_MemoryCacheAddsCheck(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Backend = config.CacheMemory

	a, err := app.New(context.Background(), cfg, zerolog.Nop(), app.Options{})
	require.NoError(t, err)
	defer a.Close()

	require.Len(t, a.Checks, 2)
	assert.Equal(t, "score-cache", a.Checks[1].Name)
}

func TestNew_SeedPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
trains:
  - id: KMTR-900
    setSize: 3
    certificates:
      - {category: rolling, expiresOn: "2025-01-10"}
    stablingBay: A1
`), 0o600))

	cfg := config.Default()
	cfg.Store.SeedPath = path

	a, err := app.New(context.Background(), cfg, zerolog.Nop(), app.Options{})
	require.NoError(t, err)
	defer a.Close()

	trains, err := a.Induction.ListTrains(context.Background())
	require.NoError(t, err)
	require.Len(t, trains, 1)
	assert.Equal(t, "KMTR-900", trains[0].ID)

	result, err := a.Induction.ScoreTrain(context.Background(), "KMTR-900", scoring.OperationalContext{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Score, 0)
}

func TestNew_MissingSeedFile(t *testing.T) {
	cfg := config.Default()
	cfg.Store.SeedPath = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := app.New(context.Background(), cfg, zerolog.Nop(), app.Options{})
	assert.Error(t, err)
}
