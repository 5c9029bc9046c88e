// Package vis captures recently played audio and turns it into data the
// terminal widgets can draw: raw waveform snapshots, stereo (L,R) pairs for
// the vectorscope, and a log-binned magnitude spectrum for the spectroscope.
package vis

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/madelynnblue/go-dsp/fft"
)

const (
	// DefaultCapacity is how many stereo frames the ring keeps (~185ms at 44.1kHz).
	DefaultCapacity = 8192

	// fftWindow is the number of newest frames analyzed per spectrum call.
	fftWindow = 1024

	// dbRange maps magnitudes in [-dbRange, 0] dB onto bar heights [0, 1].
	dbRange = 60.0

	// decayClamp bounds how fast a spectrum bar may fall between render
	// ticks: a bar never drops below decayClamp times its previous height.
	decayClamp = 0.75
)

// Sampler owns the sample ring buffer shared between the audio thread
// (writer, via the player tap) and the render loop (reader). The ring is
// overwrite-oldest: visualization always shows the latest window, never
// errors on overflow.
type Sampler struct {
	mu    sync.Mutex
	buf   [][2]float64
	pos   int // next write index
	count int // frames written, capped at len(buf)

	sr  float64
	win []float64 // precomputed Hann window

	// Reader-side state, touched only by the render loop.
	mono     []float64
	smoothed []float64
	lastSnap [][2]float64
}

// NewSampler creates a Sampler for the given sample rate and ring capacity.
func NewSampler(sampleRate float64, capacity int) *Sampler {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	win := make([]float64, fftWindow)
	for i := range win {
		win[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftWindow-1)))
	}
	return &Sampler{
		buf:  make([][2]float64, capacity),
		sr:   sampleRate,
		win:  win,
		mono: make([]float64, fftWindow),
	}
}

// Push appends frames to the ring, overwriting the oldest on wrap.
// Called from the audio thread; holds the lock only for the copy.
func (s *Sampler) Push(frames [][2]float64) {
	if len(frames) == 0 {
		return
	}
	s.mu.Lock()
	for _, f := range frames {
		s.buf[s.pos] = f
		s.pos = (s.pos + 1) % len(s.buf)
	}
	s.count += len(frames)
	if s.count > len(s.buf) {
		s.count = len(s.buf)
	}
	s.mu.Unlock()
}

// Reset discards all buffered frames, e.g. after a seek.
func (s *Sampler) Reset() {
	s.mu.Lock()
	s.pos = 0
	s.count = 0
	s.mu.Unlock()
}

// Snapshot returns a chronological copy of the buffered frames, most recent
// last. If the ring is momentarily empty the previous snapshot is reused so
// the widgets never render garbage.
func (s *Sampler) Snapshot() [][2]float64 {
	s.mu.Lock()
	n := s.count
	out := make([][2]float64, n)
	start := (s.pos - n + len(s.buf)) % len(s.buf)
	for i := 0; i < n; i++ {
		out[i] = s.buf[(start+i)%len(s.buf)]
	}
	s.mu.Unlock()

	if n == 0 && s.lastSnap != nil {
		return s.lastSnap
	}
	s.lastSnap = out
	return out
}

// Spectrum computes bar heights in [0,1], one per display column, from the
// newest fftWindow frames: Hann window, real FFT, mirrored half dropped,
// log-spaced binning, dB scaling, and a per-bar decay clamp.
//
// Spectrum is called only from the render loop. The ring lock covers just
// the window copy; the FFT runs outside it.
func (s *Sampler) Spectrum(cols int) []float64 {
	if cols <= 0 {
		return nil
	}

	s.mu.Lock()
	n := s.count
	if n > fftWindow {
		n = fftWindow
	}
	for i := range s.mono {
		s.mono[i] = 0
	}
	start := (s.pos - n + len(s.buf)) % len(s.buf)
	for i := 0; i < n; i++ {
		f := s.buf[(start+i)%len(s.buf)]
		// Right-align the window so the newest frame sits at the end.
		s.mono[fftWindow-n+i] = (f[0] + f[1]) / 2
	}
	s.mu.Unlock()

	for i := range s.mono {
		s.mono[i] *= s.win[i]
	}

	spectrum := fft.FFTReal(s.mono)
	bins := fftWindow / 2

	if len(s.smoothed) != cols {
		s.smoothed = make([]float64, cols)
	}

	for col := 0; col < cols; col++ {
		// Map column to frequency bin on a log scale, averaging neighbors.
		frac := float64(col) / float64(cols)
		bin := int(math.Pow(float64(bins), frac))
		if bin < 1 {
			bin = 1
		}
		if bin > bins-1 {
			bin = bins - 1
		}
		lo, hi := bin-1, bin+1
		if lo < 1 {
			lo = 1
		}
		if hi > bins-1 {
			hi = bins - 1
		}
		var sum float64
		for b := lo; b <= hi; b++ {
			sum += cmplx.Abs(spectrum[b])
		}
		mag := sum / float64(hi-lo+1) / float64(fftWindow)

		// Zero-energy bins map to the floor, never NaN/Inf.
		var level float64
		if mag > 1e-12 {
			level = (20*math.Log10(mag) + dbRange) / dbRange
		}
		level = math.Max(0, math.Min(1, level))

		if prev := s.smoothed[col] * decayClamp; level < prev {
			level = prev
		}
		s.smoothed[col] = level
	}

	out := make([]float64, cols)
	copy(out, s.smoothed)
	return out
}

// BucketFreq returns the approximate center frequency of a spectrum column,
// using the same log mapping as Spectrum.
func (s *Sampler) BucketFreq(col, cols int) float64 {
	bins := fftWindow / 2
	bin := math.Pow(float64(bins), float64(col)/float64(cols))
	return bin * s.sr / float64(fftWindow)
}
