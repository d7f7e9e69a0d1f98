package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(2 * time.Hour)
	before := start.Add(-time.Minute)
	after := start.Add(time.Minute)
	past := now.Add(-time.Hour)

	t.Run("24h preset is exactly start plus 24h", func(t *testing.T) {
		w, err := ResolveWindow(now, WindowInput{StartsAt: &start, Preset: "24h"})
		require.NoError(t, err)
		require.NotNil(t, w.EndsAt)
		assert.Equal(t, start, w.StartsAt)
		assert.Equal(t, start.Add(24*time.Hour), *w.EndsAt)
	})

	t.Run("preset starts now by default", func(t *testing.T) {
		w, err := ResolveWindow(now, WindowInput{Preset: "7D"})
		require.NoError(t, err)
		assert.Equal(t, now, w.StartsAt)
		assert.Equal(t, now.Add(7*24*time.Hour), *w.EndsAt)
	})

	t.Run("open ended", func(t *testing.T) {
		w, err := ResolveWindow(now, WindowInput{})
		require.NoError(t, err)
		assert.Equal(t, now, w.StartsAt)
		assert.Nil(t, w.EndsAt)
	})

	t.Run("custom end after start", func(t *testing.T) {
		w, err := ResolveWindow(now, WindowInput{StartsAt: &start, EndsAt: &after})
		require.NoError(t, err)
		assert.Equal(t, after, *w.EndsAt)
	})

	tests := []struct {
		name string
		in   WindowInput
	}{
		{name: "end before start", in: WindowInput{StartsAt: &start, EndsAt: &before}},
		{name: "end equal to start", in: WindowInput{StartsAt: &start, EndsAt: &start}},
		{name: "end before now", in: WindowInput{EndsAt: &past}},
		{name: "unknown preset", in: WindowInput{Preset: "2w"}},
		{name: "preset and end", in: WindowInput{Preset: "1h", EndsAt: &after}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveWindow(now, tt.in)
			assertValidationError(t, err)
		})
	}
}

func TestPresetNamesOrdered(t *testing.T) {
	assert.Equal(t, []string{"1h", "6h", "12h", "24h", "3d", "7d", "14d", "30d"}, PresetNames())
}
