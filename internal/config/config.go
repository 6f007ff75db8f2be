package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Server  ServerConfig  `mapstructure:"server"`
	Ball    BallConfig    `mapstructure:"ball"`
	Player  PlayerConfig  `mapstructure:"player"`
	Rally   RallyConfig   `mapstructure:"rally"`
	Zones   ZonesConfig   `mapstructure:"zones"`
	Court   CourtConfig   `mapstructure:"court"`
	Replay  ReplayConfig  `mapstructure:"replay"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig controls the collaborator bridge and the tick loop.
type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	TickRate       int           `mapstructure:"tick_rate"`
	BroadcastRate  int           `mapstructure:"broadcast_rate"`
	PointOverDelay time.Duration `mapstructure:"point_over_delay"`
}

// TickInterval returns the duration of one physics tick.
func (s ServerConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(s.TickRate)
}

// Vec3 is a YAML friendly vector.
type Vec3 struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
	Z float64 `mapstructure:"z"`
}

// Vec converts to the math type used by the simulation.
func (v Vec3) Vec() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// BallConfig tunes ball flight and bounce response.
type BallConfig struct {
	Radius                  float64 `mapstructure:"radius"`
	InitialSpeed            float64 `mapstructure:"initial_speed"`
	InitialDirection        Vec3    `mapstructure:"initial_direction"`
	Gravity                 Vec3    `mapstructure:"gravity"`
	TossGravityScale        float64 `mapstructure:"toss_gravity_scale"`
	BounceDampening         float64 `mapstructure:"bounce_dampening"`
	HorizontalDampening     float64 `mapstructure:"horizontal_dampening"`
	MinBounceVelocity       float64 `mapstructure:"min_bounce_velocity"`
	RestoreGravityOnContact bool    `mapstructure:"restore_gravity_on_contact"`
}

// PlayerConfig tunes locomotion, toss charge and spike.
type PlayerConfig struct {
	Radius         float64       `mapstructure:"radius"`
	MoveSpeed      float64       `mapstructure:"move_speed"`
	JumpForce      float64       `mapstructure:"jump_force"`
	MinTossSpeed   float64       `mapstructure:"min_toss_speed"`
	MaxTossSpeed   float64       `mapstructure:"max_toss_speed"`
	MaxChargeTime  time.Duration `mapstructure:"max_charge_time"`
	TossDirAxis    Vec3          `mapstructure:"toss_dir_axis"`
	SpikeBaseSpeed float64       `mapstructure:"spike_base_speed"`
	SpikeUpward    float64       `mapstructure:"spike_upward"`
	IdealHitOffset Vec3          `mapstructure:"ideal_hit_offset"`
	HitRadius      float64       `mapstructure:"hit_radius"`
	HoldOffset     Vec3          `mapstructure:"hold_offset"`
}

// RallyConfig sets the state the first rally starts in.
type RallyConfig struct {
	InitialPhase string `mapstructure:"initial_phase"`
	ServingTeam  int    `mapstructure:"serving_team"`
}

// ZoneConfig is an axis aligned rectangle on the court floor.
type ZoneConfig struct {
	MinX float64 `mapstructure:"min_x"`
	MaxX float64 `mapstructure:"max_x"`
	MinZ float64 `mapstructure:"min_z"`
	MaxZ float64 `mapstructure:"max_z"`
}

// ZonesConfig holds the serve zone of each team.
type ZonesConfig struct {
	Team1 ZoneConfig `mapstructure:"team1"`
	Team2 ZoneConfig `mapstructure:"team2"`
}

// CourtConfig describes the reference arena. Team 1 plays on negative Z.
type CourtConfig struct {
	HalfLength float64 `mapstructure:"half_length"`
	HalfWidth  float64 `mapstructure:"half_width"`
	NetHeight  float64 `mapstructure:"net_height"`
	WallHeight float64 `mapstructure:"wall_height"`
	Apron      float64 `mapstructure:"apron"`
}

// ReplayConfig enables per-tick snapshot recording. MaxStates bounds the
// in-memory replay; the oldest ticks are dropped first. Zero means no limit.
type ReplayConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	MaxStates int    `mapstructure:"max_states"`
}

// Load reads configuration from path. An empty path yields defaults plus
// SPIKE_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SPIKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// defaults are validated by tests
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.address", ":9010")
	v.SetDefault("server.tick_rate", 60)
	v.SetDefault("server.broadcast_rate", 30)
	v.SetDefault("server.point_over_delay", "2s")

	v.SetDefault("ball.radius", 0.2)
	v.SetDefault("ball.initial_speed", 8.0)
	v.SetDefault("ball.initial_direction", map[string]any{"x": 0.0, "y": 1.0, "z": 0.0})
	v.SetDefault("ball.gravity", map[string]any{"x": 0.0, "y": -9.81, "z": 0.0})
	v.SetDefault("ball.toss_gravity_scale", 0.5)
	v.SetDefault("ball.bounce_dampening", 0.8)
	v.SetDefault("ball.horizontal_dampening", 0.8)
	v.SetDefault("ball.min_bounce_velocity", 2.0)
	v.SetDefault("ball.restore_gravity_on_contact", true)

	v.SetDefault("player.radius", 0.5)
	v.SetDefault("player.move_speed", 5.0)
	v.SetDefault("player.jump_force", 7.0)
	v.SetDefault("player.min_toss_speed", 4.0)
	v.SetDefault("player.max_toss_speed", 10.0)
	v.SetDefault("player.max_charge_time", "2s")
	v.SetDefault("player.toss_dir_axis", map[string]any{"x": 0.0, "y": 1.0, "z": 0.15})
	v.SetDefault("player.spike_base_speed", 12.0)
	v.SetDefault("player.spike_upward", 0.3)
	v.SetDefault("player.ideal_hit_offset", map[string]any{"x": 0.0, "y": 2.5, "z": 0.5})
	v.SetDefault("player.hit_radius", 2.0)
	v.SetDefault("player.hold_offset", map[string]any{"x": 0.5, "y": 1.5, "z": 0.5})

	v.SetDefault("rally.initial_phase", "PRE_SERVE")
	v.SetDefault("rally.serving_team", 1)

	v.SetDefault("zones.team1", map[string]any{"min_x": -4.5, "max_x": 4.5, "min_z": -12.0, "max_z": -9.0})
	v.SetDefault("zones.team2", map[string]any{"min_x": -4.5, "max_x": 4.5, "min_z": 9.0, "max_z": 12.0})

	v.SetDefault("court.half_length", 9.0)
	v.SetDefault("court.half_width", 4.5)
	v.SetDefault("court.net_height", 2.43)
	v.SetDefault("court.wall_height", 12.0)
	v.SetDefault("court.apron", 4.0)

	v.SetDefault("replay.enabled", false)
	v.SetDefault("replay.directory", "replays")
	v.SetDefault("replay.max_states", 36000)
}

// Validate checks ranges the simulation relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.TickRate <= 0 {
		errs = append(errs, errors.New("server.tick_rate must be positive"))
	}
	if c.Server.BroadcastRate <= 0 {
		errs = append(errs, errors.New("server.broadcast_rate must be positive"))
	}
	if c.Ball.TossGravityScale < 0 || c.Ball.TossGravityScale > 2 {
		errs = append(errs, fmt.Errorf("ball.toss_gravity_scale %.2f outside [0,2]", c.Ball.TossGravityScale))
	}
	if c.Ball.BounceDampening < 0 || c.Ball.BounceDampening > 1 {
		errs = append(errs, fmt.Errorf("ball.bounce_dampening %.2f outside [0,1]", c.Ball.BounceDampening))
	}
	if c.Ball.HorizontalDampening < 0 || c.Ball.HorizontalDampening > 1 {
		errs = append(errs, fmt.Errorf("ball.horizontal_dampening %.2f outside [0,1]", c.Ball.HorizontalDampening))
	}
	if c.Ball.Radius <= 0 || c.Player.Radius <= 0 {
		errs = append(errs, errors.New("ball.radius and player.radius must be positive"))
	}
	if c.Player.MinTossSpeed > c.Player.MaxTossSpeed {
		errs = append(errs, errors.New("player.min_toss_speed exceeds player.max_toss_speed"))
	}
	if c.Player.MaxChargeTime <= 0 {
		errs = append(errs, errors.New("player.max_charge_time must be positive"))
	}
	if c.Player.HitRadius <= 0 {
		errs = append(errs, errors.New("player.hit_radius must be positive"))
	}
	if c.Rally.ServingTeam != 1 && c.Rally.ServingTeam != 2 {
		errs = append(errs, fmt.Errorf("rally.serving_team %d is not 1 or 2", c.Rally.ServingTeam))
	}
	for name, z := range map[string]ZoneConfig{"zones.team1": c.Zones.Team1, "zones.team2": c.Zones.Team2} {
		if z.MinX > z.MaxX || z.MinZ > z.MaxZ {
			errs = append(errs, fmt.Errorf("%s has inverted bounds", name))
		}
	}
	if c.Replay.MaxStates < 0 {
		errs = append(errs, errors.New("replay.max_states must not be negative"))
	}
	if c.Court.HalfLength <= 0 || c.Court.HalfWidth <= 0 {
		errs = append(errs, errors.New("court dimensions must be positive"))
	}
	return errors.Join(errs...)
}
