package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "2v2", cfg.Match.GameMode)
	assert.Equal(t, 600*time.Second, cfg.Match.MatchDuration)
	assert.Equal(t, 3, cfg.Match.TargetScore)
	assert.Equal(t, 5*time.Second, cfg.Match.RespawnTime)
	assert.Equal(t, 100.0, cfg.Match.MaxHealth)
	assert.Equal(t, "pistol", cfg.Match.DefaultWeapon)
	assert.Equal(t, 50.0, cfg.Arena.Size)
	assert.Equal(t, 20, cfg.Arena.ObstacleCount)
	assert.Equal(t, 10, cfg.Arena.WeaponBoxCount)
	assert.Equal(t, 1, cfg.Network.RebroadcastInterval)
	assert.Equal(t, 2, cfg.Network.RebroadcastTimes)
	assert.Equal(t, "creator", cfg.Network.HostPolicy)
	assert.Equal(t, 3, cfg.GameModule.ReadySeconds)
	assert.Equal(t, 600, cfg.GameModule.PlaySeconds)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "peer.yaml")
	content := `
app:
  app_id: "arena-test"
match:
  game_mode: "4v4"
  match_duration: 90s
  target_score: 10
network:
  host_policy: "lowest-session"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "arena-test", cfg.App.AppID)
	assert.Equal(t, "4v4", cfg.Match.GameMode)
	assert.Equal(t, 90*time.Second, cfg.Match.MatchDuration)
	assert.Equal(t, 10, cfg.Match.TargetScore)
	assert.Equal(t, "lowest-session", cfg.Network.HostPolicy)
	// untouched keys keep their defaults
	assert.Equal(t, 5*time.Second, cfg.Match.RespawnTime)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ARENA_NATS_URL", "nats://nats.internal:4222")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "nats://nats.internal:4222", cfg.NATS.URL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestAppConfig_Level(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AppConfig{LogLevel: tt.name}.Level())
		})
	}
}

func TestLoad_ShippedConfigs(t *testing.T) {
	peer, err := Load(filepath.Join("..", "..", "configs", "peer.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "arena-peer", peer.App.Name)
	assert.Equal(t, 2*time.Hour, peer.Redis.RoomTTL)
	assert.Equal(t, "creator", peer.Network.HostPolicy)

	arenad, err := Load(filepath.Join("..", "..", "configs", "arenad.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8081", arenad.HTTP.Addr)
	assert.Equal(t, 8, arenad.Scheduler.Workers)
	assert.Equal(t, 50.0, arenad.Arena.Size, "unset sections keep defaults")
}
