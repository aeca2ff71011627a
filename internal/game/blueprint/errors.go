package blueprint

import (
	"errors"
	"fmt"
)

// ConfigError reports a malformed action or actor reference: an unknown
// stat/skill/hostile/action name, an empty roster, an unrecognized action
// type. It is a caller bug, never a gameplay outcome; engines surface it
// unchanged and never retry.
type ConfigError struct {
	Op     string
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Op, e.Detail)
}

// NewConfigError builds a ConfigError for the given operation.
func NewConfigError(op, format string, args ...any) *ConfigError {
	return &ConfigError{Op: op, Detail: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
