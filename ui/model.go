// Package ui implements the Bubbletea TUI for the terminal music player.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dohaicuong/tui-player/player"
	"github.com/dohaicuong/tui-player/playlist"
	"github.com/dohaicuong/tui-player/vis"
)

type focusArea int

const (
	focusPlaylist focusArea = iota
	focusEQ
)

type tickMsg time.Time

// Model is the Bubbletea model for the player TUI.
type Model struct {
	player    *player.Player
	playlist  *playlist.Playlist
	sampler   *vis.Sampler
	visMode   vis.Mode
	focus     focusArea
	eqCursor  int // selected EQ band (0-31)
	plCursor  int // selected playlist item
	plScroll  int // scroll offset for playlist view
	plVisible int // max visible playlist items
	titleOff  int // scroll offset for long track titles
	err       error
	quitting  bool
	width     int
	height    int
}

// NewModel creates a Model wired to the given player, playlist and sampler.
func NewModel(p *player.Player, pl *playlist.Playlist, s *vis.Sampler, mode vis.Mode) Model {
	return Model{
		player:    p,
		playlist:  pl,
		sampler:   s,
		visMode:   mode,
		plVisible: 5,
	}
}

// VisMode returns the active visualizer mode, for persisting on exit.
func (m Model) VisMode() vis.Mode { return m.visMode }

// Init starts the tick timer and requests the terminal size.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), tea.WindowSize())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*50, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages: key presses, ticks, and window resizes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		if m.quitting {
			return m, tea.Quit
		}
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.pumpPlayer()
		m.titleOff++
		return m, tickCmd()
	}

	return m, nil
}

// pumpPlayer drains engine events and keeps the gapless/crossfade pipeline
// fed: when the current track nears its end and nothing is queued yet, the
// playlist's upcoming track is handed to the engine for pre-decoding.
func (m *Model) pumpPlayer() {
drain:
	for {
		select {
		case err := <-m.player.Errors():
			m.err = err
		default:
			break drain
		}
	}

	// A queued track took over mid-stream; advance the playlist cursor to
	// match what is actually playing.
	if path, ok := m.player.TakePromoted(); ok {
		if track, ok := m.playlist.Peek(); ok && track.Path == path {
			m.playlist.Next()
			m.plCursor = m.playlist.Index()
			m.adjustScroll()
			m.titleOff = 0
		}
	}

	// Current track finished with nothing queued (crossfade off and past the
	// scheduling window, or the queue failed).
	if m.player.TrackDone() {
		m.nextTrack()
	}

	m.scheduleNext()
}

// scheduleNext queues the playlist's upcoming track once playback enters the
// pre-buffer window before the configured crossfade (or track end).
func (m *Model) scheduleNext() {
	if !m.player.IsPlaying() || m.player.IsPaused() {
		return
	}
	if m.player.TransitionStatus().State != player.TransitionIdle {
		return
	}
	dur := m.player.Duration()
	if dur <= 0 {
		return
	}
	lead := m.player.Crossfade() + player.PreBufferLead
	if dur-m.player.Position() > lead {
		return
	}
	if track, ok := m.playlist.Peek(); ok {
		m.player.QueueNext(track.Path)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true

	case "tab":
		if m.focus == focusPlaylist {
			m.focus = focusEQ
		} else {
			m.focus = focusPlaylist
		}

	case " ":
		if m.player.IsPlaying() {
			m.player.TogglePause()
		} else {
			m.playCurrentTrack()
		}

	case "enter":
		if m.focus == focusPlaylist {
			m.playlist.SetIndex(m.plCursor)
			m.playCurrentTrack()
		}

	case "up", "k":
		if m.focus == focusEQ {
			m.adjustBand(1)
		} else if m.plCursor > 0 {
			m.plCursor--
			m.adjustScroll()
		}

	case "down", "j":
		if m.focus == focusEQ {
			m.adjustBand(-1)
		} else if m.plCursor < m.playlist.Len()-1 {
			m.plCursor++
			m.adjustScroll()
		}

	case "left":
		if m.focus == focusEQ {
			if m.eqCursor > 0 {
				m.eqCursor--
			}
		} else {
			m.seek(-5 * time.Second)
		}

	case "right":
		if m.focus == focusEQ {
			if m.eqCursor < player.NumBands-1 {
				m.eqCursor++
			}
		} else {
			m.seek(5 * time.Second)
		}

	case "<", ",":
		m.prevTrack()

	case ">", ".":
		m.nextTrack()

	case "+", "=":
		m.player.SetVolume(m.player.Volume() + 1)

	case "-", "_":
		m.player.SetVolume(m.player.Volume() - 1)

	case "v":
		m.visMode = m.visMode.Next()

	case "e":
		eq := m.player.EQ()
		eq.SetEnabled(!eq.State().Enabled)

	case "p":
		eq := m.player.EQ()
		if err := eq.SetPreset(player.NextPreset(eq.State().Preset)); err != nil {
			m.err = err
		}

	case "c":
		m.player.SetCrossfade(nextCrossfade(m.player.Crossfade()))

	case "s":
		m.playlist.ToggleShuffle()
		m.plCursor = m.playlist.Index()
		m.adjustScroll()

	case "r":
		m.playlist.CycleRepeat()
	}

	return nil
}

// adjustBand nudges the selected EQ band by delta dB.
func (m *Model) adjustBand(delta float64) {
	eq := m.player.EQ()
	gain := eq.State().Gains[m.eqCursor] + delta
	eq.SetBandGain(m.eqCursor, gain)
}

func (m *Model) seek(d time.Duration) {
	if !m.player.IsPlaying() {
		return
	}
	if err := m.player.Seek(d); err != nil {
		m.err = err
	}
}

// nextCrossfade cycles through the supported crossfade durations.
func nextCrossfade(cur time.Duration) time.Duration {
	for i, d := range player.CrossfadeDurations {
		if d == cur {
			return player.CrossfadeDurations[(i+1)%len(player.CrossfadeDurations)]
		}
	}
	return player.CrossfadeDurations[0]
}

// nextTrack advances to the next playlist track and starts playing it.
func (m *Model) nextTrack() {
	track, ok := m.playlist.Next()
	if !ok {
		m.player.Stop()
		return
	}
	m.plCursor = m.playlist.Index()
	m.adjustScroll()
	m.titleOff = 0
	if err := m.player.Play(track.Path); err != nil {
		m.err = err
	}
}

// prevTrack goes to the previous track, or restarts if >3s into the current one.
func (m *Model) prevTrack() {
	if m.player.Position() > 3*time.Second {
		m.player.Seek(-m.player.Position())
		return
	}
	track, ok := m.playlist.Prev()
	if !ok {
		return
	}
	m.plCursor = m.playlist.Index()
	m.adjustScroll()
	m.titleOff = 0
	if err := m.player.Play(track.Path); err != nil {
		m.err = err
	}
}

// playCurrentTrack starts playing whatever track the playlist cursor points to.
func (m *Model) playCurrentTrack() {
	track, idx := m.playlist.Current()
	if idx < 0 {
		return
	}
	m.titleOff = 0
	if err := m.player.Play(track.Path); err != nil {
		m.err = err
	}
}

// adjustScroll ensures plCursor is visible in the playlist view.
func (m *Model) adjustScroll() {
	if m.plCursor < m.plScroll {
		m.plScroll = m.plCursor
	}
	if m.plCursor >= m.plScroll+m.plVisible {
		m.plScroll = m.plCursor - m.plVisible + 1
	}
}
