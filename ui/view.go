package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dohaicuong/tui-player/player"
	"github.com/dohaicuong/tui-player/vis"
)

const (
	panelWidth = 60 // usable inner width (66 frame - 2 border - 4 padding)
	scopeRows  = 6  // braille cell rows for the visualizer panel
)

// eqBarBlocks maps a band gain to a one-cell bar, -12 dB to +12 dB.
var eqBarBlocks = []rune("▁▂▃▄▅▆▇█")

// View renders the full TUI frame.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.renderTitle(),
		m.renderTrackInfo(),
		m.renderTimeStatus(),
		"",
		m.renderScopeHeader(),
		m.renderScope(),
		m.renderSeekBar(),
		"",
		m.renderVolume(),
		m.renderEQ(),
		m.renderEQInfo(),
		"",
		m.renderPlaylistHeader(),
		m.renderPlaylist(),
		"",
		m.renderHelp(),
	}

	if m.err != nil {
		sections = append(sections, errorStyle.Render(fmt.Sprintf("ERR: %s", m.err)))
	}

	return frameStyle.Render(strings.Join(sections, "\n"))
}

func (m Model) renderTitle() string {
	return titleStyle.Render("T U I ♪ P L A Y E R")
}

func (m Model) renderTrackInfo() string {
	track, _ := m.playlist.Current()
	name := track.DisplayName()
	if name == "" {
		name = "No track loaded"
	}

	prefix := "♫ "
	maxW := panelWidth - len([]rune(prefix))
	runes := []rune(name)

	if len(runes) <= maxW {
		return trackStyle.Render(prefix + name)
	}

	// Cyclic scrolling for long titles
	sep := []rune("   ♫   ")
	padded := append(runes, sep...)
	total := len(padded)
	off := m.titleOff % total

	display := make([]rune, maxW)
	for i := range maxW {
		display[i] = padded[(off+i)%total]
	}
	return trackStyle.Render(prefix + string(display))
}

func (m Model) renderTimeStatus() string {
	pos := m.player.Position()
	dur := m.player.Duration()

	posMin := int(pos.Minutes())
	posSec := int(pos.Seconds()) % 60
	durMin := int(dur.Minutes())
	durSec := int(dur.Seconds()) % 60

	timeStr := fmt.Sprintf("%02d:%02d / %02d:%02d", posMin, posSec, durMin, durSec)

	var status string
	switch {
	case m.player.IsPlaying() && m.player.IsPaused():
		status = statusStyle.Render("⏸ Paused")
	case m.player.IsPlaying():
		status = statusStyle.Render("▶ Playing")
	default:
		status = dimStyle.Render("⏹ Stopped")
	}

	var trans string
	switch ts := m.player.TransitionStatus(); ts.State {
	case player.TransitionPreBuffering:
		trans = dimStyle.Render("buffering next…  ")
	case player.TransitionCrossfading:
		trans = activeToggle.Render(fmt.Sprintf("xfade %2.0f%%  ", ts.Progress*100))
	}

	left := timeStyle.Render(timeStr)
	gap := panelWidth - lipgloss.Width(left) - lipgloss.Width(trans) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}

	return left + strings.Repeat(" ", gap) + trans + status
}

func (m Model) renderScopeHeader() string {
	mode := labelStyle.Render(m.visMode.String())

	xf := m.player.Crossfade()
	var xfStr string
	if xf > 0 {
		xfStr = activeToggle.Render(fmt.Sprintf("[XF %ds]", int(xf.Seconds())))
	} else {
		xfStr = dimStyle.Render("[XF off]")
	}

	gap := panelWidth - lipgloss.Width(mode) - lipgloss.Width(xfStr)
	if gap < 1 {
		gap = 1
	}
	return mode + strings.Repeat(" ", gap) + xfStr
}

func (m Model) renderScope() string {
	switch m.visMode {
	case vis.Vectorscope:
		return renderVectorscope(m.sampler.Snapshot(), panelWidth, scopeRows)
	case vis.Spectroscope:
		return renderSpectroscope(m.sampler.Spectrum(panelWidth), panelWidth, scopeRows)
	default:
		return renderOscilloscope(m.sampler.Snapshot(), panelWidth, scopeRows)
	}
}

func (m Model) renderSeekBar() string {
	pos := m.player.Position()
	dur := m.player.Duration()

	var progress float64
	if dur > 0 {
		progress = float64(pos) / float64(dur)
	}
	progress = max(0, min(1, progress))

	filled := int(progress * float64(panelWidth-1))

	return seekFillStyle.Render(strings.Repeat("━", filled)) +
		seekFillStyle.Render("●") +
		seekDimStyle.Render(strings.Repeat("━", max(0, panelWidth-filled-1)))
}

func (m Model) renderVolume() string {
	vol := m.player.Volume()
	span := player.MaxVolumeDB - player.MinVolumeDB
	frac := max(0, min(1, (vol-player.MinVolumeDB)/span))

	barW := 22
	filled := int(frac * float64(barW))

	// Cells past unity gain draw in the accent color.
	unity := int(-player.MinVolumeDB / span * float64(barW))
	var bar string
	if filled > unity {
		bar = volBarStyle.Render(strings.Repeat("█", unity)) +
			activeToggle.Render(strings.Repeat("█", filled-unity))
	} else {
		bar = volBarStyle.Render(strings.Repeat("█", filled))
	}
	bar += dimStyle.Render(strings.Repeat("░", barW-filled))
	return labelStyle.Render("VOL ") + bar + dimStyle.Render(fmt.Sprintf(" %+.1fdB", vol))
}

// renderEQ draws one bar per band: 32 cells, -12 dB at the bottom block and
// +12 dB at the full block.
func (m Model) renderEQ() string {
	st := m.player.EQ().State()

	var sb strings.Builder
	for i, gain := range st.Gains {
		frac := (gain + player.MaxGainDB) / (2 * player.MaxGainDB)
		idx := int(frac * float64(len(eqBarBlocks)-1))
		idx = max(0, min(len(eqBarBlocks)-1, idx))
		cell := string(eqBarBlocks[idx])

		switch {
		case m.focus == focusEQ && i == m.eqCursor:
			sb.WriteString(eqActiveStyle.Render(cell))
		case st.Enabled:
			sb.WriteString(eqBarStyle.Render(cell))
		default:
			sb.WriteString(eqInactiveStyle.Render(cell))
		}
	}

	return labelStyle.Render("EQ  ") + sb.String()
}

func (m Model) renderEQInfo() string {
	st := m.player.EQ().State()

	var state string
	if st.Enabled {
		state = activeToggle.Render("[On]")
	} else {
		state = dimStyle.Render("[Off]")
	}

	band := player.BandFreqs[m.eqCursor]
	cursor := dimStyle.Render(fmt.Sprintf("%s %+.0fdB", formatFreq(band), st.Gains[m.eqCursor]))

	return labelStyle.Render("    ") + state + " " +
		dimStyle.Render(st.Preset) + " " + cursor
}

func formatFreq(hz float64) string {
	if hz >= 1000 {
		return fmt.Sprintf("%.1fkHz", hz/1000)
	}
	return fmt.Sprintf("%.0fHz", hz)
}

func (m Model) renderPlaylistHeader() string {
	var shuffle string
	if m.playlist.Shuffled() {
		shuffle = activeToggle.Render("[Shuffle]")
	} else {
		shuffle = dimStyle.Render("[Shuffle]")
	}

	repeatStr := fmt.Sprintf("[Repeat: %s]", m.playlist.Repeat())
	if m.playlist.Repeat() != 0 {
		repeatStr = activeToggle.Render(repeatStr)
	} else {
		repeatStr = dimStyle.Render(repeatStr)
	}

	return dimStyle.Render("── Playlist ── ") + shuffle + " " + repeatStr + " " + dimStyle.Render("──")
}

func (m Model) renderPlaylist() string {
	tracks := m.playlist.Tracks()
	if len(tracks) == 0 {
		return dimStyle.Render("  No tracks loaded")
	}

	currentIdx := m.playlist.Index()
	visible := min(m.plVisible, len(tracks))

	scroll := m.plScroll
	if scroll+visible > len(tracks) {
		scroll = len(tracks) - visible
	}
	scroll = max(0, scroll)

	lines := make([]string, 0, visible)
	for i := scroll; i < scroll+visible && i < len(tracks); i++ {
		prefix := "  "
		style := playlistItemStyle

		if i == currentIdx && m.player.IsPlaying() {
			prefix = "▶ "
			style = playlistActiveStyle
		}

		if m.focus == focusPlaylist && i == m.plCursor {
			style = playlistSelectedStyle
		}

		name := tracks[i].DisplayName()
		maxW := panelWidth - 6
		nameRunes := []rune(name)
		if len(nameRunes) > maxW {
			name = string(nameRunes[:maxW-1]) + "…"
		}

		lines = append(lines, style.Render(fmt.Sprintf("%s%d. %s", prefix, i+1, name)))
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderHelp() string {
	return helpStyle.Render("[Spc]Play [<>]Trk [Tab]Focus [V]is [E/P]EQ [C]Xfade [Q]uit")
}
