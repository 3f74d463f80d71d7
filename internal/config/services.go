package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gitlab.com/ddpbfs.net/internal/domain"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// CoordinatorCfg holds everything the coordination core depends on
type CoordinatorCfg struct {
	BindAddress         string
	DispatchPort        int
	HeartbeatPort       int
	PayloadSize         int
	MinLength           int
	MaxLength           int
	Alphabet            string
	QueueFactor         int
	InactivityThreshold time.Duration
	DrainTimeout        time.Duration
	DrainLinger         time.Duration
	AcceptPollInterval  time.Duration
}

func NewCoordinatorCfg() *CoordinatorCfg {
	return &CoordinatorCfg{
		BindAddress:         getEnv("BIND_ADDRESS", "0.0.0.0"),
		DispatchPort:        getIntEnv("DISPATCH_PORT", 5000),
		HeartbeatPort:       getIntEnv("HEARTBEAT_PORT", 31337),
		PayloadSize:         getIntEnv("PAYLOAD_SIZE", 20000),
		MinLength:           getIntEnv("MIN_LENGTH", 1),
		MaxLength:           getIntEnv("PASSWORD_RANGE", domain.DefaultMaxLength),
		Alphabet:            getEnv("ALPHABET", domain.DefaultAlphabet),
		QueueFactor:         getIntEnv("QUEUE_FACTOR", 2),
		InactivityThreshold: time.Duration(getIntEnv("INACTIVITY_THRESHOLD_SEC", 120)) * time.Second,
		DrainTimeout:        time.Duration(getIntEnv("DRAIN_TIMEOUT_SEC", 5)) * time.Second,
		DrainLinger:         time.Duration(getIntEnv("DRAIN_LINGER_MS", 50)) * time.Millisecond,
		AcceptPollInterval:  time.Duration(getIntEnv("ACCEPT_POLL_MS", 1000)) * time.Millisecond,
	}
}

func (c *CoordinatorCfg) DispatchAddress() string {
	return fmt.Sprintf("%s:%d", c.BindAddress, c.DispatchPort)
}

func (c *CoordinatorCfg) HeartbeatAddress() string {
	return fmt.Sprintf("%s:%d", c.BindAddress, c.HeartbeatPort)
}

// QueueCapacity leaves room for one full batch while the next is filled
func (c *CoordinatorCfg) QueueCapacity() int {
	return c.QueueFactor * c.PayloadSize
}

func (c *CoordinatorCfg) Validate() error {
	if c.PayloadSize < 1 {
		return fmt.Errorf("%w: payload size must be positive, got %d", ErrInvalidConfig, c.PayloadSize)
	}
	if c.MaxLength < 1 {
		return fmt.Errorf("%w: password range must be positive, got %d", ErrInvalidConfig, c.MaxLength)
	}
	if c.MinLength < 1 || c.MinLength > c.MaxLength {
		return fmt.Errorf("%w: min length must be within 1..%d, got %d", ErrInvalidConfig, c.MaxLength, c.MinLength)
	}
	if c.QueueFactor < 1 {
		return fmt.Errorf("%w: queue factor must be positive, got %d", ErrInvalidConfig, c.QueueFactor)
	}
	if err := validateAlphabet(c.Alphabet); err != nil {
		return err
	}
	for name, port := range map[string]int{"dispatch": c.DispatchPort, "heartbeat": c.HeartbeatPort} {
		if port < 0 || port > 65535 {
			return fmt.Errorf("%w: %s port out of range: %d", ErrInvalidConfig, name, port)
		}
	}
	if c.DispatchPort != 0 && c.DispatchPort == c.HeartbeatPort {
		return fmt.Errorf("%w: dispatch and heartbeat ports must differ", ErrInvalidConfig)
	}
	if c.InactivityThreshold <= 0 || c.DrainTimeout <= 0 || c.AcceptPollInterval <= 0 {
		return fmt.Errorf("%w: durations must be positive", ErrInvalidConfig)
	}
	return nil
}

// validateAlphabet accepts distinct lowercase letters in ascending order
func validateAlphabet(alphabet string) error {
	if alphabet == "" {
		return fmt.Errorf("%w: empty alphabet", ErrInvalidConfig)
	}
	var prev rune
	for i, r := range alphabet {
		if r < 'a' || r > 'z' {
			return fmt.Errorf("%w: alphabet must be lowercase letters, got %q", ErrInvalidConfig, r)
		}
		if i > 0 && r <= prev {
			return fmt.Errorf("%w: alphabet must be strictly ascending: %q", ErrInvalidConfig, alphabet)
		}
		prev = r
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
