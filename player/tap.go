// Package player is the audio engine: a beep streamer pipeline running
// decode, crossfade mixing, a 32-band equalizer, volume, and a sample tap
// feeding the visualizer and the named-pipe exporter.
package player

import (
	"github.com/gopxl/beep/v2"

	"github.com/dohaicuong/tui-player/vis"
)

// Tap is a pass-through streamer sitting just before the speaker. Every
// block it forwards is also copied into the visualizer ring and handed to
// the pipe exporter. It adds no latency and allocates nothing per call.
type Tap struct {
	s        beep.Streamer
	sampler  *vis.Sampler
	exporter *PipeExporter
}

// NewTap wraps a streamer with the visualization and export fan-out.
// sampler and exporter may each be nil.
func NewTap(s beep.Streamer, sampler *vis.Sampler, exporter *PipeExporter) *Tap {
	return &Tap{s: s, sampler: sampler, exporter: exporter}
}

// Stream forwards audio unmodified while feeding the side consumers.
func (t *Tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)
	if n > 0 {
		if t.sampler != nil {
			t.sampler.Push(samples[:n])
		}
		if t.exporter != nil {
			t.exporter.Write(samples[:n])
		}
	}
	return n, ok
}

// Err returns the underlying streamer's error.
func (t *Tap) Err() error { return t.s.Err() }
