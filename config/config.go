// Package config persists the listening-session state between runs: volume,
// visualizer mode, equalizer settings, crossfade duration, and playlist
// flags. Each value lives in a small plain-text file under the user config
// directory; a missing or malformed file silently falls back to defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dohaicuong/tui-player/player"
)

const appDir = "tui-player"

// Config is the persisted session state handed to the core at construction
// and collected back from it on exit.
type Config struct {
	VolumeDB  float64
	VisMode   string
	Crossfade time.Duration
	Shuffle   bool
	Repeat    int
	EQ        player.EqState
}

// Default returns the state of a fresh install.
func Default() Config {
	return Config{
		VisMode: "oscilloscope",
		EQ:      player.DefaultEqState(),
	}
}

// Dir returns the config directory, honoring XDG_CONFIG_HOME.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appDir), nil
}

// Load reads the persisted state, falling back to defaults per value.
func Load() Config {
	c := Default()
	dir, err := Dir()
	if err != nil {
		return c
	}

	if v, ok := readFloat(filepath.Join(dir, "volume")); ok {
		c.VolumeDB = v
	}
	if s, ok := readString(filepath.Join(dir, "vis_mode")); ok {
		c.VisMode = s
	}
	if v, ok := readFloat(filepath.Join(dir, "crossfade")); ok {
		c.Crossfade = time.Duration(v * float64(time.Second))
	}
	if s, ok := readString(filepath.Join(dir, "mode")); ok {
		parts := strings.Split(s, ",")
		if len(parts) == 2 {
			c.Shuffle = parts[0] == "true"
			if n, err := strconv.Atoi(parts[1]); err == nil {
				c.Repeat = n
			}
		}
	}
	c.EQ = loadEq(filepath.Join(dir, "eq"), c.EQ)
	return c
}

// Save writes the state back. Best effort: a read-only config dir loses the
// session state but never fails the shutdown path.
func Save(c Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	write := func(name, val string) {
		os.WriteFile(filepath.Join(dir, name), []byte(val+"\n"), 0o644)
	}
	write("volume", strconv.FormatFloat(c.VolumeDB, 'f', -1, 64))
	write("vis_mode", c.VisMode)
	write("crossfade", strconv.FormatFloat(c.Crossfade.Seconds(), 'f', -1, 64))
	write("mode", fmt.Sprintf("%t,%d", c.Shuffle, c.Repeat))
	write("eq", formatEq(c.EQ))
	return nil
}

// loadEq parses the eq file: enabled, preset name, then comma-separated
// band gains, one value per band.
func loadEq(path string, fallback player.EqState) player.EqState {
	content, err := os.ReadFile(path)
	if err != nil {
		return fallback
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) < 3 {
		return fallback
	}
	st := player.EqState{
		Enabled: strings.TrimSpace(lines[0]) == "true",
		Preset:  strings.TrimSpace(lines[1]),
	}
	if st.Preset == "" {
		st.Preset = player.PresetFlat
	}
	for i, v := range strings.Split(lines[2], ",") {
		if i >= player.NumBands {
			break
		}
		g, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			continue
		}
		st.Gains[i] = max(-player.MaxGainDB, min(player.MaxGainDB, g))
	}
	return st
}

func formatEq(st player.EqState) string {
	gains := make([]string, player.NumBands)
	for i, g := range st.Gains {
		gains[i] = strconv.FormatFloat(g, 'f', -1, 64)
	}
	return fmt.Sprintf("%t\n%s\n%s", st.Enabled, st.Preset, strings.Join(gains, ","))
}

func readString(path string) (string, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(b)), true
}

func readFloat(path string) (float64, bool) {
	s, ok := readString(path)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
