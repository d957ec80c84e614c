package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete streamgate configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Socket    SocketConfig    `yaml:"socket"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// SocketConfig holds WebSocket server configuration.
type SocketConfig struct {
	MaxConnections  int `yaml:"max_connections"`
	WriteTimeout    int `yaml:"write_timeout_seconds"`
	ReadBufferSize  int `yaml:"read_buffer_size"`
	WriteBufferSize int `yaml:"write_buffer_size"`
	SendQueueSize   int `yaml:"send_queue_size"`
}

// HeartbeatConfig controls the liveness supervisor.
type HeartbeatConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	TimeoutSeconds  int `yaml:"timeout_seconds"`
}

// Interval returns the sweep interval as a duration.
func (h HeartbeatConfig) Interval() time.Duration {
	return time.Duration(h.IntervalSeconds) * time.Second
}

// Timeout returns the stale-session threshold as a duration.
func (h HeartbeatConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// AuthConfig selects the token verifier. When JWTSecret is set, bearer
// tokens are verified as HS256 JWTs; otherwise StaticTokens is used.
type AuthConfig struct {
	JWTSecret    string            `yaml:"jwt_secret"`
	StaticTokens map[string]string `yaml:"static_tokens"`
}

// RedisConfig holds connection settings for the cross-instance bridge.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the reference configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Socket: SocketConfig{
			MaxConnections:  1000,
			WriteTimeout:    10,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			SendQueueSize:   256,
		},
		Heartbeat: HeartbeatConfig{
			IntervalSeconds: 30,
			TimeoutSeconds:  60,
		},
		Redis: RedisConfig{
			Enabled: true,
			Addr:    "localhost:6379",
			Prefix:  "streamgate:ws:",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML config file and applies environment overrides.
// An empty path skips the file and returns defaults plus env overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if addr := os.Getenv("STREAMGATE_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if secret := os.Getenv("STREAMGATE_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if level := os.Getenv("STREAMGATE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		c.Redis.Password = pw
	}
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}
	if prefix := os.Getenv("REDIS_WS_PREFIX"); prefix != "" {
		c.Redis.Prefix = prefix
	}
}

func (c *Config) validate() error {
	if c.Heartbeat.IntervalSeconds <= 0 {
		return fmt.Errorf("heartbeat interval must be positive, got %d", c.Heartbeat.IntervalSeconds)
	}
	if c.Heartbeat.TimeoutSeconds < c.Heartbeat.IntervalSeconds {
		return fmt.Errorf("heartbeat timeout (%ds) must be at least the interval (%ds)",
			c.Heartbeat.TimeoutSeconds, c.Heartbeat.IntervalSeconds)
	}
	if c.Socket.SendQueueSize <= 0 {
		return fmt.Errorf("send queue size must be positive, got %d", c.Socket.SendQueueSize)
	}
	return nil
}
