package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberfall/emberfall/internal/config"
)

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: format})
		require.NoError(t, err, "format %q should be valid", format)
		assert.NotNil(t, logger)
	}
}

func TestNewLogger_AllLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := NewLogger(config.LoggingConfig{Level: level, Format: "json"})
		require.NoError(t, err, "level %q should be valid", level)
		assert.NotNil(t, logger)
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "trace", Format: "json"})
	assert.Error(t, err)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
