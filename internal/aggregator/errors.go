package aggregator

import (
	"errors"
	"fmt"
)

var ErrUnknownActor = errors.New("unknown actor")

// ConfigurationError reports an actor key missing from the policy registry.
type ConfigurationError struct {
	Actor string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("actor %q: %v", e.Actor, ErrUnknownActor)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrUnknownActor
}

// DataSourceError reports a failed or timed out record fetch for one actor.
type DataSourceError struct {
	Actor string
	Err   error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("fetch records for %s: %v", e.Actor, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}
