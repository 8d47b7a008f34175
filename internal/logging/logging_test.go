//nolint:testpackage // Tests require internal access for thorough testing
package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	tempoerrors "github.com/abatilo/tempo/internal/errors"
)

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("warn", &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("store recovered", zap.String("path", "/tmp/tasks.json"))
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "store recovered")
	assert.Contains(t, out, "/tmp/tasks.json")
	assert.Contains(t, out, "tempo")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("loud", &bytes.Buffer{})

	var invalid tempoerrors.InvalidArgumentError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "log_level", invalid.Field)
}
