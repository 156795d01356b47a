package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Brokers []string

	ProducerCompression  string
	ProducerRequireAcks  int
	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration
	ProducerAsync        bool
}

// Load reads producer settings from the environment. Brokers come from the
// caller since the application config owns broker discovery.
func Load(brokers []string) *Config {
	return &Config{
		Brokers: brokers,

		ProducerCompression:  getEnvStr(EnvProducerCompression, DefaultProducerCompression),
		ProducerRequireAcks:  getEnvNum(EnvProducerRequireAcks, DefaultProducerRequireAcks),
		ProducerMaxAttempts:  getEnvNum(EnvProducerMaxAttempts, DefaultProducerMaxAttempts),
		ProducerBatchTimeout: getEnvDuration(EnvProducerBatchTimeout, DefaultProducerBatchTimeout),
		ProducerAsync:        getEnvBool(EnvProducerAsync, DefaultProducerAsync),
	}
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "1", "true", "yes":
			return true
		case "0", "false", "no":
			return false
		}
	}
	return fallback
}
