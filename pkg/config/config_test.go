package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SnapshotBackendFile, cfg.Snapshot.Backend)
	assert.Equal(t, "data/snapshot.json", cfg.Snapshot.FilePath)
	assert.Equal(t, time.Duration(0), cfg.Snapshot.Interval)
	assert.Equal(t, DraftProviderHTTP, cfg.Draft.Provider)
	assert.Equal(t, 10*time.Second, cfg.Draft.Timeout)
	assert.Equal(t, 4, cfg.Draft.Workers)
	assert.False(t, cfg.Events.Enabled)
}

func TestLoad_SnapshotAndDraftConfig(t *testing.T) {
	t.Setenv("SNAPSHOT_BACKEND", "redis")
	t.Setenv("SNAPSHOT_INTERVAL", "30s")
	t.Setenv("DRAFT_TIMEOUT", "1500ms")
	t.Setenv("DRAFT_ENDPOINT", "http://drafts:9000/v1/draft")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SnapshotBackendRedis, cfg.Snapshot.Backend)
	assert.Equal(t, 30*time.Second, cfg.Snapshot.Interval)
	assert.Equal(t, 1500*time.Millisecond, cfg.Draft.Timeout)
	assert.Equal(t, "http://drafts:9000/v1/draft", cfg.Draft.Endpoint)
}

func TestLoad_RejectsUnknownBackends(t *testing.T) {
	t.Setenv("SNAPSHOT_BACKEND", "s3")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SNAPSHOT_BACKEND", "file")
	t.Setenv("DRAFT_PROVIDER", "claude")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_InvalidDurationFallsBackToDefault(t *testing.T) {
	t.Setenv("DRAFT_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Draft.Timeout)
}
