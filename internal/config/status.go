package config

// StatusConfig configures the read-only status API. Port 0 disables it.
type StatusConfig struct {
	Port int
}

func NewStatusConfig() *StatusConfig {
	return &StatusConfig{
		Port: getIntEnv("STATUS_PORT", 0),
	}
}
