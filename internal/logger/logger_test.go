// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"", "dev", "prod", "quiet", "PROD"} {
		t.Run(mode, func(t *testing.T) {
			l, err := New(mode)
			require.NoError(t, err)
			require.NotNil(t, l.SugaredLogger)
		})
	}
	_, err := New("verbose")
	assert.ErrorContains(t, err, "unknown log mode")
}

func TestQuietLevel(t *testing.T) {
	l, err := New(ModeQuiet)
	require.NoError(t, err)
	assert.False(t, l.SugaredLogger.Desugar().Core().Enabled(zap.WarnLevel))
	assert.True(t, l.SugaredLogger.Desugar().Core().Enabled(zap.ErrorLevel))
}

func TestWithFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core)).With("conference", "ashg2025")

	l.Info("loaded talks", "count", 12)
	l.Warn("cache unreadable", "path", "/tmp/x")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "loaded talks", entries[0].Message)
	assert.Equal(t, "ashg2025", entries[0].ContextMap()["conference"])
	assert.EqualValues(t, 12, entries[0].ContextMap()["count"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
}

func TestNop(t *testing.T) {
	l := NewNop()
	l.Debug("ignored", "k", "v")
	l.Error("ignored")
	l.Sync()
}
