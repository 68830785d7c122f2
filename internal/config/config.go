package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string  `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string  `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Session    Session `yaml:"session"`
	Redis      Redis   `yaml:"redis"`
}

type Session struct {
	MaxNameLength int `yaml:"max-name-length" env:"SESSION_MAX_NAME_LENGTH" env-default:"32"`
	SendBuffer    int `yaml:"send-buffer" env:"SESSION_SEND_BUFFER" env-default:"64"`
}

type Redis struct {
	Enabled       bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host          string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port          string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password      string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB            int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	SnapshotTTL   time.Duration `yaml:"snapshot-ttl" env:"REDIS_SNAPSHOT_TTL" env-default:"24h"`
	ChannelPrefix string        `yaml:"channel-prefix" env:"REDIS_CHANNEL_PREFIX" env-default:"session"`
}

// Load - reads the config file at path, or only the environment when the file does not exist.
func Load(path string) (*Config, error) {
	config := &Config{}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to read config from env: %w", err)
		}

		return config, nil
	}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
