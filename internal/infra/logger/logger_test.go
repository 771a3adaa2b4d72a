package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	Configure(l, "debug", "production", &buf)

	l.WithField("batch_id", 7).Debug("Batch opened")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Batch opened", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
	assert.EqualValues(t, 7, entry["batch_id"])
}

func TestConfigureInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	Configure(l, "chatty", "development", &buf)

	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.Contains(t, buf.String(), "Invalid log level 'chatty'")
}
