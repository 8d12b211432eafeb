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
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	Client   Client `yaml:"client"`
	Relay    Relay  `yaml:"relay"`
	Redis    Redis  `yaml:"redis"`
}

type Client struct {
	ServerURL   string        `yaml:"server-url" env:"CLIENT_SERVER_URL" env-default:"ws://localhost:8080/ws"`
	Username    string        `yaml:"username" env:"CLIENT_USERNAME"`
	Group       string        `yaml:"group" env:"CLIENT_GROUP"`
	Autoplay    bool          `yaml:"autoplay" env:"CLIENT_AUTOPLAY" env-default:"false"`
	SendTimeout time.Duration `yaml:"send-timeout" env:"CLIENT_SEND_TIMEOUT" env-default:"5s"`
}

type Relay struct {
	HTTPPort   string `yaml:"http-port" env:"RELAY_HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"RELAY_SOCKET_PORT" env-default:"8080"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Load reads path when it exists and the environment otherwise.
func Load(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("failed to read config from env: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" || that.Port == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
