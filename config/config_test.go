package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dohaicuong/tui-player/player"
)

func TestLoadDefaultsWhenNothingSaved(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c := Load()
	assert.Equal(t, Default(), c)
	assert.Equal(t, "oscilloscope", c.VisMode)
	assert.True(t, c.EQ.Enabled)
	assert.Equal(t, player.PresetFlat, c.EQ.Preset)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	in := Config{
		VolumeDB:  -6.5,
		VisMode:   "spectroscope",
		Crossfade: 5 * time.Second,
		Shuffle:   true,
		Repeat:    2,
		EQ: player.EqState{
			Enabled: false,
			Preset:  player.PresetCustom,
		},
	}
	in.EQ.Gains[0] = -12
	in.EQ.Gains[15] = 3.5
	in.EQ.Gains[31] = 12

	require.NoError(t, Save(in))
	out := Load()

	assert.Equal(t, in, out)
}

func TestLoadToleratesPartialState(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)

	dir := filepath.Join(home, appDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	// Only the volume was persisted; everything else falls back.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "volume"), []byte("-3\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "crossfade"), []byte("garbage\n"), 0o644))

	c := Load()
	assert.Equal(t, -3.0, c.VolumeDB)
	assert.Equal(t, time.Duration(0), c.Crossfade)
	assert.Equal(t, "oscilloscope", c.VisMode)
	assert.Equal(t, player.PresetFlat, c.EQ.Preset)
}

func TestLoadEqClampsGains(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)

	dir := filepath.Join(home, appDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "eq"),
		[]byte("true\nCustom\n99,-99,abc,4\n"), 0o644))

	c := Load()
	assert.Equal(t, player.MaxGainDB, c.EQ.Gains[0])
	assert.Equal(t, -player.MaxGainDB, c.EQ.Gains[1])
	assert.Zero(t, c.EQ.Gains[2], "unparseable values keep the fallback")
	assert.Equal(t, 4.0, c.EQ.Gains[3])
}
