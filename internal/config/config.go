package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	ExpiryPolicyPass   = "pass"
	ExpiryPolicyRandom = "random"
)

var (
	ErrUnknownPolicy = errors.New("unknown turn clock policy")
	ErrEmptySecret   = errors.New("jwt secret key is empty")
)

type Config struct {
	LogLevel          string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort          string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort        string    `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	Redis             Redis     `yaml:"redis"`
	SQLiteStoragePath string    `yaml:"sqlite-storage-path" env:"SQLITE_STORAGE_PATH" env-default:"./reversi.db"`
	JWT               JWT       `yaml:"jwt"`
	Kafka             Kafka     `yaml:"kafka"`
	TurnClock         TurnClock `yaml:"turn-clock"`
}

type Redis struct {
	Host      string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port      string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	PlayerTTL time.Duration `yaml:"player-ttl" env:"REDIS_PLAYER_TTL" env-default:"72h"`
}

type JWT struct {
	SecretKey string        `yaml:"secret-key" env:"JWT_SECRET_KEY"`
	TTL       time.Duration `yaml:"ttl" env:"JWT_TTL" env-default:"24h"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"reversi-games"`
}

type TurnClock struct {
	Enabled  bool          `yaml:"enabled" env:"TURN_CLOCK_ENABLED" env-default:"true"`
	Duration time.Duration `yaml:"duration" env:"TURN_CLOCK_DURATION" env-default:"30s"`
	Policy   string        `yaml:"policy" env:"TURN_CLOCK_POLICY" env-default:"pass"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	if err := config.validate(); err != nil {
		panic(fmt.Errorf("invalid config: %w", err))
	}

	return config
}

func (that *Config) validate() error {
	switch that.TurnClock.Policy {
	case ExpiryPolicyPass, ExpiryPolicyRandom:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPolicy, that.TurnClock.Policy)
	}

	if that.JWT.SecretKey == "" {
		return ErrEmptySecret
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// TurnTimeout is the per-turn deadline, zero when the clock is off.
func (that *TurnClock) TurnTimeout() time.Duration {
	if !that.Enabled {
		return 0
	}
	return that.Duration
}
