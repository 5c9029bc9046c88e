package player

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/dohaicuong/tui-player/vis"
)

const (
	// MinVolumeDB/MaxVolumeDB bound the volume control.
	MinVolumeDB = -30.0
	MaxVolumeDB = 6.0

	// PreBufferLead is how far ahead of the crossfade window the next
	// track starts decoding.
	PreBufferLead = 3 * time.Second
)

// Config carries the state the config collaborator restored from disk.
type Config struct {
	EQ        EqState
	Crossfade time.Duration
	VolumeDB  float64
	PipePath  string // "" disables the exporter
}

// Player is the audio engine managing the playback pipeline:
//
//	[Decode] -> [Transition mixer] -> [32x Biquad EQ] -> [Volume] -> [Tap] -> [Ctrl] -> [Speaker]
//
// The chain is built once per session; tracks swap inside the transition
// mixer so crossfades and gapless switches never rebuild the speaker path.
type Player struct {
	sr       beep.SampleRate
	trans    *transition
	eq       *Equalizer
	vol      *effects.Volume
	ctrl     *beep.Ctrl
	exporter *PipeExporter
	sampler  *vis.Sampler
	errs     chan error
	volumeDB float64
}

// New initializes the speaker and starts the session-long silent chain.
func New(sr beep.SampleRate, sampler *vis.Sampler, cfg Config) (*Player, error) {
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputDevice, err)
	}

	errs := make(chan error, 8)
	p := &Player{
		sr:      sr,
		trans:   newTransition(sr, errs),
		eq:      NewEqualizer(float64(sr), cfg.EQ),
		sampler: sampler,
		errs:    errs,
	}
	p.trans.setDuration(cfg.Crossfade)

	if cfg.PipePath != "" {
		exporter, err := NewPipeExporter(cfg.PipePath, p.report)
		if err != nil {
			p.report(err)
		} else {
			p.exporter = exporter
		}
	}

	var s beep.Streamer = &eqStreamer{s: p.trans, eq: p.eq}
	p.vol = &effects.Volume{Streamer: s, Base: 10}
	p.setVolumeLocked(cfg.VolumeDB)
	p.ctrl = &beep.Ctrl{Streamer: NewTap(p.vol, sampler, p.exporter)}
	speaker.Play(p.ctrl)

	return p, nil
}

// Play opens a track and swaps it in as the current one, cancelling any
// in-flight transition. Decoding setup runs here on the control thread.
func (p *Player) Play(path string) error {
	src, err := openSource(path)
	if err != nil {
		return err
	}
	p.trans.setCurrent(newActiveTrack(path, src, p.sr))
	if p.sampler != nil {
		p.sampler.Reset()
	}
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Stop halts playback, discarding current and pre-buffered decoders.
func (p *Player) Stop() {
	p.trans.setCurrent(nil)
	if p.sampler != nil {
		p.sampler.Reset()
	}
}

// TogglePause toggles between paused and playing states.
func (p *Player) TogglePause() {
	speaker.Lock()
	p.ctrl.Paused = !p.ctrl.Paused
	speaker.Unlock()
}

// IsPlaying reports whether a track is loaded (possibly paused).
func (p *Player) IsPlaying() bool { return p.trans.hasCurrent() }

// IsPaused reports whether playback is paused.
func (p *Player) IsPaused() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return p.ctrl.Paused
}

// Seek moves the playback position by the given offset. Seeking cancels an
// in-flight transition.
func (p *Player) Seek(d time.Duration) error {
	target := p.trans.position() + d
	if target < 0 {
		target = 0
	}
	if dur := p.trans.trackDuration(); dur > 0 && target > dur {
		target = dur
	}
	if err := p.trans.seek(p.sr.N(target)); err != nil {
		return err
	}
	if p.sampler != nil {
		p.sampler.Reset()
	}
	return nil
}

// Position returns the current playback position.
func (p *Player) Position() time.Duration { return p.trans.position() }

// Duration returns the total duration of the current track.
func (p *Player) Duration() time.Duration { return p.trans.trackDuration() }

// SetVolume sets the volume in dB, clamped to [MinVolumeDB, MaxVolumeDB].
func (p *Player) SetVolume(db float64) {
	speaker.Lock()
	p.setVolumeLocked(db)
	speaker.Unlock()
}

func (p *Player) setVolumeLocked(db float64) {
	db = max(min(db, MaxVolumeDB), MinVolumeDB)
	p.volumeDB = db
	p.vol.Volume = db / 20
	p.vol.Silent = db <= MinVolumeDB
}

// Volume returns the current volume in dB.
func (p *Player) Volume() float64 {
	speaker.Lock()
	defer speaker.Unlock()
	return p.volumeDB
}

// EQ exposes the equalizer chain for control events and rendering.
func (p *Player) EQ() *Equalizer { return p.eq }

// SetCrossfade selects the transition window; 0 means gapless switch.
func (p *Player) SetCrossfade(d time.Duration) { p.trans.setDuration(d) }

// Crossfade returns the configured transition window.
func (p *Player) Crossfade() time.Duration { return p.trans.getDuration() }

// QueueNext pre-buffers the upcoming track chosen by the playlist policy.
func (p *Player) QueueNext(path string) { p.trans.queueNext(path) }

// TransitionStatus snapshots the transition state machine for the UI.
func (p *Player) TransitionStatus() TransitionStatus { return p.trans.status() }

// TakePromoted consumes the path of a track the mixer promoted to current,
// so the control loop can realign the playlist cursor.
func (p *Player) TakePromoted() (string, bool) { return p.trans.takePromoted() }

// TrackDone consumes the flag set when the current track ended with nothing
// queued; the control loop reacts with a hard cut to the next track.
func (p *Player) TrackDone() bool { return p.trans.takeDone() }

// Errors delivers non-fatal audio-path failures to the control loop.
func (p *Player) Errors() <-chan error { return p.errs }

func (p *Player) report(err error) {
	select {
	case p.errs <- err:
	default:
	}
}

// Close stops playback and releases the speaker and exporter.
func (p *Player) Close() {
	p.Stop()
	speaker.Clear()
	speaker.Close()
	if p.exporter != nil {
		p.exporter.Close()
	}
}
