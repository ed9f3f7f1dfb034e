package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/b4knamy/online-chat-backend/pkg/config"
	"github.com/b4knamy/online-chat-backend/pkg/log"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Log       log.Config
}

type ServerConfig struct {
	Host       string
	Port       int
	SystemUser string        `mapstructure:"system_user"`
	OpTimeout  time.Duration `mapstructure:"op_timeout"`
}

type RedisConfig struct {
	Address         string
	Password        string
	DB              int
	BroadcastPrefix string `mapstructure:"broadcast_prefix"`
}

type DatabaseConfig struct {
	Path         string
	SeedUsers    []string `mapstructure:"seed_users"`
	SeedPassword string   `mapstructure:"seed_password"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenDuration time.Duration `mapstructure:"token_duration"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.system_user", "baknamy")
	v.SetDefault("server.op_timeout", "5s")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.broadcast_prefix", "broadcast")
	v.SetDefault("database.path", "chat.db")
	v.SetDefault("database.seed_users", []string{})
	v.SetDefault("database.seed_password", "ivalice")
	v.SetDefault("auth.jwt_secret", "change-me-in-production")
	v.SetDefault("auth.token_duration", "24h")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service_name", "online-chat-backend")

	// Environment overrides
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.system_user", "SYSTEM_USER")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("database.path", "DATABASE_PATH")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Server.OpTimeout = parseDuration(v, "server.op_timeout", 5*time.Second)
	cfg.Auth.TokenDuration = parseDuration(v, "auth.token_duration", 24*time.Hour)
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return defaultVal
	}
	return d
}
