package config

import "os"

type AppConfig struct {
	DebugMode       bool
	CoordinatorCfg  *CoordinatorCfg
	ExtractorConfig *ExtractorConfig
	RedisConfig     *RedisConfig
	StatusConfig    *StatusConfig
}

func NewSystemConfig() *AppConfig {
	return &AppConfig{
		DebugMode:       os.Getenv("DEBUG_MODE") == "true",
		CoordinatorCfg:  NewCoordinatorCfg(),
		ExtractorConfig: NewExtractorConfig(),
		RedisConfig:     NewRedisConfig(),
		StatusConfig:    NewStatusConfig(),
	}
}
