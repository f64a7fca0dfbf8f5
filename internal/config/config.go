package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	defaultConfigPath         = "./config/local.yaml"
	defaultNotifierConfigPath = "./config/notifications.yaml"
)

type Config struct {
	Env        string `yaml:"env" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	Session    `yaml:"session"`
	Postgres   `yaml:"postgres"`
	Redis      `yaml:"redis"`
	RabbitMQ   `yaml:"rabbitmq"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
}

// Session signs the cookie that ties a visitor to its flash messages.
type Session struct {
	Secret   string        `yaml:"secret" env-required:"true" env:"SESSION_SECRET"`
	TTL      time.Duration `yaml:"ttl" env-default:"5m"`
	FlashTTL time.Duration `yaml:"flash_ttl" env-default:"5m"`
}

type Postgres struct {
	Host     string `yaml:"host" env-default:"postgres"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true" env:"POSTGRES_USER"`
	Password string `yaml:"password" env-required:"true" env:"POSTGRES_PASSWORD"`
	DBName   string `yaml:"dbname" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type Redis struct {
	Host     string        `yaml:"host" env-default:"redis:6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env-default:"0"`
	CacheTTL time.Duration `yaml:"cache_ttl" env-default:"5m"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env-required:"true" env:"RABBITMQ_URL"`
	QueueName string `yaml:"queue_name" env-default:"reservations_queue"`
}

type NotifierConfig struct {
	Env                string `yaml:"env" env-default:"local"`
	RabbitMQURL        string `yaml:"rabbitmq_url" env-required:"true" env:"RABBITMQ_URL"`
	QueueName          string `yaml:"queue_name" env-default:"reservations_queue"`
	AdministratorEmail string `yaml:"administrator_email"`
	Email              `yaml:"email"`
}

type Email struct {
	Host     string `yaml:"host" env-default:"smtp.gmail.com"`
	Port     int    `yaml:"port" env-default:"587"`
	Username string `yaml:"username" env-required:"true" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env-required:"true" env:"SMTP_PASSWORD"`
}

// MustLoad reads the hotel service config from CONFIG_PATH or ./config/local.yaml.
func MustLoad() *Config {
	var cfg Config
	mustRead(configPath(defaultConfigPath), &cfg)

	return &cfg
}

// MustLoadNotifier reads the notification worker config from CONFIG_PATH or
// ./config/notifications.yaml.
func MustLoadNotifier() *NotifierConfig {
	var cfg NotifierConfig
	mustRead(configPath(defaultNotifierConfigPath), &cfg)

	return &cfg
}

func configPath(fallback string) string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}

	return fallback
}

func mustRead(configPath string, cfg any) {
	// .env is optional, values from it only fill in unset variables
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("cannot load .env: %s", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
		log.Fatalf("cannot read config %s: %s", configPath, err)
	}
}
