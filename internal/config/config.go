package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Redis      RedisConfig      `mapstructure:"redis"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Match      MatchConfig      `mapstructure:"match"`
	Arena      ArenaConfig      `mapstructure:"arena"`
	Network    NetworkConfig    `mapstructure:"network"`
	GameModule GameModuleConfig `mapstructure:"game_module"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	AppID    string `mapstructure:"app_id"`
	LogLevel string `mapstructure:"log_level"`
	// PlayerName is the display name published to matchmaking. Empty picks a random one.
	PlayerName string `mapstructure:"player_name"`
}

// Level maps log_level onto a slog level. Unknown names mean info.
func (c AppConfig) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	BufferSize    int           `mapstructure:"buffer_size"`
}

type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	PoolSize int           `mapstructure:"pool_size"`
	RoomTTL  time.Duration `mapstructure:"room_ttl"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"`
}

type MatchConfig struct {
	GameMode         string        `mapstructure:"game_mode"`
	MatchDuration    time.Duration `mapstructure:"match_duration"`
	TargetScore      int           `mapstructure:"target_score"`
	RespawnTime      time.Duration `mapstructure:"respawn_time"`
	CountdownSeconds int           `mapstructure:"countdown_seconds"`
	MaxHealth        float64       `mapstructure:"max_health"`
	DefaultWeapon    string        `mapstructure:"default_weapon"`
}

type ArenaConfig struct {
	Size            float64 `mapstructure:"size"`
	ObstacleCount   int     `mapstructure:"obstacle_count"`
	WeaponBoxCount  int     `mapstructure:"weapon_box_count"`
	PickupChance    float64 `mapstructure:"pickup_chance"`
	CenterExclusion float64 `mapstructure:"center_exclusion"`
}

type NetworkConfig struct {
	RebroadcastInterval int    `mapstructure:"rebroadcast_interval"`
	RebroadcastTimes    int    `mapstructure:"rebroadcast_times"`
	TickRate            int    `mapstructure:"tick_rate"`
	HostPolicy          string `mapstructure:"host_policy"`
	QuickGame           bool   `mapstructure:"quick_game"`
}

type GameModuleConfig struct {
	ReadySeconds      int `mapstructure:"ready_seconds"`
	PlaySeconds       int `mapstructure:"play_seconds"`
	MinPlayers        int `mapstructure:"min_players"`
	MaxPlayers        int `mapstructure:"max_players"`
	WaitPlayerTimeout int `mapstructure:"wait_player_timeout"`
}

type SchedulerConfig struct {
	Workers int `mapstructure:"workers"`
}

// Load reads the yaml file at configPath on top of the built-in defaults.
// Every key can be overridden with an ARENA_ prefixed variable, e.g. ARENA_NATS_URL.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("arena")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// defaults alone always unmarshal
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "arena-peer")
	v.SetDefault("app.app_id", "default")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.player_name", "")

	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)
	v.SetDefault("nats.buffer_size", 1024)

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.room_ttl", 2*time.Hour)

	v.SetDefault("http.addr", ":8090")
	v.SetDefault("http.mode", "release")

	v.SetDefault("match.game_mode", "2v2")
	v.SetDefault("match.match_duration", 600*time.Second)
	v.SetDefault("match.target_score", 3)
	v.SetDefault("match.respawn_time", 5*time.Second)
	v.SetDefault("match.countdown_seconds", 3)
	v.SetDefault("match.max_health", 100.0)
	v.SetDefault("match.default_weapon", "pistol")

	v.SetDefault("arena.size", 50.0)
	v.SetDefault("arena.obstacle_count", 20)
	v.SetDefault("arena.weapon_box_count", 10)
	v.SetDefault("arena.pickup_chance", 0.5)
	v.SetDefault("arena.center_exclusion", 10.0)

	v.SetDefault("network.rebroadcast_interval", 1)
	v.SetDefault("network.rebroadcast_times", 2)
	v.SetDefault("network.tick_rate", 20)
	v.SetDefault("network.host_policy", "creator")
	v.SetDefault("network.quick_game", false)

	v.SetDefault("game_module.ready_seconds", 3)
	v.SetDefault("game_module.play_seconds", 600)
	v.SetDefault("game_module.min_players", 2)
	v.SetDefault("game_module.max_players", 8)
	v.SetDefault("game_module.wait_player_timeout", 100)

	v.SetDefault("scheduler.workers", 4)
}
