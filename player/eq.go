package player

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
)

// NumBands is the number of equalizer bands.
const NumBands = 32

const (
	// MaxGainDB bounds per-band gain.
	MaxGainDB = 12.0

	// eqQ is the peaking filter bandwidth, roughly 1/3 octave.
	eqQ = 4.3

	// PresetCustom is the preset name reported after manual band edits.
	PresetCustom = "Custom"
)

// BandFreqs holds the band center frequencies, log-spaced 20Hz-20kHz.
var BandFreqs = bandFreqs()

func bandFreqs() [NumBands]float64 {
	var f [NumBands]float64
	for i := range f {
		// 20 * 1000^(i/31) spans 20Hz..20kHz.
		f[i] = 20 * math.Pow(1000, float64(i)/float64(NumBands-1))
	}
	return f
}

// EqState is the externally visible equalizer state: what the UI draws and
// what the config layer persists between sessions.
type EqState struct {
	Enabled bool
	Preset  string
	Gains   [NumBands]float64
}

// DefaultEqState is a flat, enabled equalizer.
func DefaultEqState() EqState {
	return EqState{Enabled: true, Preset: PresetFlat}
}

// bandCoeffs is one band's normalized peaking-EQ biquad, per the Audio EQ
// Cookbook. identity marks near-zero gain bands so processing can skip them.
type bandCoeffs struct {
	b0, b1, b2, a1, a2 float64
	identity           bool
}

// coeffSet is an immutable snapshot of the full chain configuration. The
// audio thread loads it once per block through an atomic pointer, so a frame
// is never processed with a half-updated band state.
type coeffSet struct {
	enabled bool
	preset  string
	gains   [NumBands]float64
	bands   [NumBands]bandCoeffs
}

// biquadState is the two-sample IIR history, owned by the audio thread and
// kept per (channel, band). State persists across coefficient swaps so gain
// changes do not reset the filters.
type biquadState struct {
	x1, x2, y1, y2 float64
}

// Equalizer is a cascade of peaking biquads applied in ascending frequency
// order, left and right channels filtered independently.
//
// Control-thread mutations (gain, preset, enable) build a fresh coeffSet and
// swap it in atomically; the swap is the unit of atomicity. Processing state
// lives outside the set and is touched only by the audio thread.
type Equalizer struct {
	sr float64

	mu     sync.Mutex // serializes writers
	active atomic.Pointer[coeffSet]

	state [2][NumBands]biquadState
}

// NewEqualizer builds the chain for the given output sample rate, applying
// the initial state in full before the first frame is processed.
func NewEqualizer(sampleRate float64, init EqState) *Equalizer {
	e := &Equalizer{sr: sampleRate}
	set := &coeffSet{enabled: init.Enabled, preset: init.Preset, gains: init.Gains}
	if set.preset == "" {
		set.preset = PresetFlat
	}
	for i := range set.bands {
		set.bands[i] = peakingCoeffs(BandFreqs[i], init.Gains[i], sampleRate)
	}
	e.active.Store(set)
	return e
}

// peakingCoeffs computes normalized peaking-EQ coefficients from the
// cookbook formulas. The center frequency is clamped below Nyquist.
func peakingCoeffs(freq, gainDB, sr float64) bandCoeffs {
	if math.Abs(gainDB) < 0.01 {
		return bandCoeffs{identity: true}
	}
	maxFreq := sr/2 - 1
	f := math.Max(1, math.Min(freq, maxFreq))

	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * f / sr
	sinW0, cosW0 := math.Sin(w0), math.Cos(w0)
	alpha := sinW0 / (2 * eqQ)

	a0 := 1 + alpha/a
	return bandCoeffs{
		b0: (1 + alpha*a) / a0,
		b1: (-2 * cosW0) / a0,
		b2: (1 - alpha*a) / a0,
		a1: (-2 * cosW0) / a0,
		a2: (1 - alpha/a) / a0,
	}
}

// SetBandGain sets one band's gain in dB, clamped to ±MaxGainDB, and marks
// the preset as custom. Takes effect atomically on the next processed block.
func (e *Equalizer) SetBandGain(band int, dB float64) {
	if band < 0 || band >= NumBands {
		return
	}
	dB = math.Max(-MaxGainDB, math.Min(MaxGainDB, dB))

	e.mu.Lock()
	defer e.mu.Unlock()
	next := *e.active.Load()
	next.gains[band] = dB
	next.bands[band] = peakingCoeffs(BandFreqs[band], dB, e.sr)
	next.preset = PresetCustom
	e.active.Store(&next)
}

// SetPreset overwrites all band gains from a named preset. The full preset
// is active on the next processed block; no partial application.
func (e *Equalizer) SetPreset(name string) error {
	gains, ok := presetGains(name)
	if !ok {
		return fmt.Errorf("unknown eq preset %q", name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	next := *e.active.Load()
	next.preset = name
	next.gains = gains
	for i := range next.bands {
		next.bands[i] = peakingCoeffs(BandFreqs[i], gains[i], e.sr)
	}
	e.active.Store(&next)
	return nil
}

// SetEnabled toggles the chain. Disabled means identity passthrough.
func (e *Equalizer) SetEnabled(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := *e.active.Load()
	next.enabled = on
	e.active.Store(&next)
}

// State returns a copy of the current state for rendering and persistence.
func (e *Equalizer) State() EqState {
	set := e.active.Load()
	return EqState{Enabled: set.enabled, Preset: set.preset, Gains: set.gains}
}

// process runs the cascade over a block in place. Audio thread only.
func (e *Equalizer) process(samples [][2]float64) {
	set := e.active.Load()
	if !set.enabled {
		return
	}
	for i := range samples {
		for ch := 0; ch < 2; ch++ {
			x := samples[i][ch]
			for b := range set.bands {
				c := &set.bands[b]
				if c.identity {
					continue
				}
				st := &e.state[ch][b]
				y := c.b0*x + c.b1*st.x1 + c.b2*st.x2 - c.a1*st.y1 - c.a2*st.y2
				st.x2, st.x1 = st.x1, x
				st.y2, st.y1 = st.y1, y
				x = y
			}
			samples[i][ch] = x
		}
	}
}

// eqStreamer applies the equalizer in-line in the playback chain.
type eqStreamer struct {
	s  beep.Streamer
	eq *Equalizer
}

func (e *eqStreamer) Stream(samples [][2]float64) (int, bool) {
	n, ok := e.s.Stream(samples)
	e.eq.process(samples[:n])
	return n, ok
}

func (e *eqStreamer) Err() error { return e.s.Err() }
