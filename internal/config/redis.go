package config

import (
	"os"
	"strconv"
)

// RedisConfig configures the optional client mirror. An empty Url disables it.
type RedisConfig struct {
	DB       int
	Url      string
	Password string
}

func NewRedisConfig() *RedisConfig {
	db, err := strconv.Atoi(os.Getenv("REDIS_DB"))
	if err != nil {
		db = 0
	}
	return &RedisConfig{
		DB:       db,
		Url:      os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}
}

func (c *RedisConfig) Enabled() bool {
	return c.Url != ""
}
