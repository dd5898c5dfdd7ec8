package collector

import (
	"fmt"
	"time"
)

type Config struct {
	// Mirrors are feed base URLs, tried in order.
	Mirrors []string
	Timeout time.Duration

	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func DefaultConfig() Config {
	return Config{
		Timeout:    15 * time.Second,
		MaxRetries: 3,
		BaseDelay:  200 * time.Millisecond,
		MaxDelay:   5 * time.Second,
	}
}

// StatusError is a non-success response from a mirror.
type StatusError struct {
	Mirror     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mirror %s returned status: %d", e.Mirror, e.StatusCode)
}
