// Package main is the entry point for the tui-player terminal music player.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gopxl/beep/v2"

	"github.com/dohaicuong/tui-player/config"
	"github.com/dohaicuong/tui-player/player"
	"github.com/dohaicuong/tui-player/playlist"
	"github.com/dohaicuong/tui-player/ui"
	"github.com/dohaicuong/tui-player/vis"
)

func run() error {
	if len(os.Args) < 2 {
		return errors.New("usage: tui-player <file.mp3> [file2.flac ...]")
	}

	// Expand shell globs that may not have been expanded by the shell
	var files []string
	for _, arg := range os.Args[1:] {
		matches, err := filepath.Glob(arg)
		if err != nil || len(matches) == 0 {
			files = append(files, arg)
		} else {
			files = append(files, matches...)
		}
	}

	cfg := config.Load()

	// Build playlist from file arguments
	pl := playlist.New()
	for _, f := range files {
		pl.Add(playlist.TrackFromPath(f))
	}
	pl.SetShuffle(cfg.Shuffle)
	pl.SetRepeat(playlist.RepeatMode(cfg.Repeat))

	// Initialize audio engine at CD-quality sample rate
	sr := beep.SampleRate(44100)
	sampler := vis.NewSampler(float64(sr), vis.DefaultCapacity)
	p, err := player.New(sr, sampler, player.Config{
		EQ:        cfg.EQ,
		Crossfade: cfg.Crossfade,
		VolumeDB:  cfg.VolumeDB,
		PipePath:  player.DefaultPipePath,
	})
	if err != nil {
		return err
	}
	defer p.Close()

	// Launch the TUI
	m := ui.NewModel(p, pl, sampler, vis.ParseMode(cfg.VisMode))
	prog := tea.NewProgram(m, tea.WithAltScreen())
	final, err := prog.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	// Persist the session state for next launch.
	out := cfg
	out.VolumeDB = p.Volume()
	out.Crossfade = p.Crossfade()
	out.EQ = p.EQ().State()
	out.Shuffle = pl.Shuffled()
	out.Repeat = int(pl.Repeat())
	if fm, ok := final.(ui.Model); ok {
		out.VisMode = fm.VisMode().String()
	}
	if err := config.Save(out); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not save config:", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
