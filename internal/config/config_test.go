package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Server.TickRate)
	assert.Equal(t, 2*time.Second, cfg.Player.MaxChargeTime)
	assert.Equal(t, 4.0, cfg.Player.MinTossSpeed)
	assert.Equal(t, 10.0, cfg.Player.MaxTossSpeed)
	assert.Equal(t, 1, cfg.Rally.ServingTeam)
	assert.Equal(t, "PRE_SERVE", cfg.Rally.InitialPhase)
	assert.Equal(t, mgl64.Vec3{0, -9.81, 0}, cfg.Ball.Gravity.Vec())
	assert.Equal(t, mgl64.Vec3{0.5, 1.5, 0.5}, cfg.Player.HoldOffset.Vec())
	assert.Equal(t, time.Second/60, cfg.Server.TickInterval())
	assert.Equal(t, 36000, cfg.Replay.MaxStates)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
server:
  address: ":7000"
  tick_rate: 120
ball:
  toss_gravity_scale: 1.5
player:
  max_charge_time: 3s
rally:
  serving_team: 2
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Address)
	assert.Equal(t, 120, cfg.Server.TickRate)
	assert.Equal(t, 1.5, cfg.Ball.TossGravityScale)
	assert.Equal(t, 3*time.Second, cfg.Player.MaxChargeTime)
	assert.Equal(t, 2, cfg.Rally.ServingTeam)
	// untouched sections keep their defaults
	assert.Equal(t, 0.8, cfg.Ball.BounceDampening)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SPIKE_SERVER_ADDRESS", ":9999")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Address)
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	cfg := Default()
	cfg.Ball.TossGravityScale = 2.5
	cfg.Ball.BounceDampening = -0.1
	cfg.Rally.ServingTeam = 3
	cfg.Zones.Team1.MinX = 10
	cfg.Replay.MaxStates = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toss_gravity_scale")
	assert.Contains(t, err.Error(), "bounce_dampening")
	assert.Contains(t, err.Error(), "serving_team")
	assert.Contains(t, err.Error(), "zones.team1")
	assert.Contains(t, err.Error(), "replay.max_states")
}

func TestShippedConfigMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
