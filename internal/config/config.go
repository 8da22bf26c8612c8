package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port          string   `yaml:"port"`
	DatabaseURL   string   `yaml:"database_url"`
	JWTSecret     string   `yaml:"jwt_secret"`
	RedisURL      string   `yaml:"redis_url"`
	RecordAPIURL  string   `yaml:"record_api_url"`
	KafkaBrokers  []string `yaml:"kafka_brokers"`
	KafkaTopic    string   `yaml:"kafka_topic"`
	AMQPURL       string   `yaml:"amqp_url"`
	AMQPExchange  string   `yaml:"amqp_exchange"`
	PublicBaseURL string   `yaml:"public_base_url"`
	CORSOrigins   []string `yaml:"cors_origins"`
	ServeTables   bool     `yaml:"serve_tables"`
}

// Load reads configuration from the environment. When CONFIG_FILE is set the
// YAML file is applied first and environment variables override it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          "8081",
		JWTSecret:     "dev-secret-change-in-production",
		KafkaTopic:    "orders",
		AMQPExchange:  "orders_topic",
		PublicBaseURL: "http://localhost:8081",
		CORSOrigins:   []string{"http://localhost:5173"},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.RecordAPIURL = getEnv("RECORD_API_URL", cfg.RecordAPIURL)
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.AMQPURL = getEnv("AMQP_URL", cfg.AMQPURL)
	cfg.AMQPExchange = getEnv("AMQP_EXCHANGE", cfg.AMQPExchange)
	cfg.PublicBaseURL = getEnv("PUBLIC_BASE_URL", cfg.PublicBaseURL)
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = splitList(v)
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("SERVE_TABLES"); v != "" {
		cfg.ServeTables = v == "1" || strings.EqualFold(v, "true")
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
