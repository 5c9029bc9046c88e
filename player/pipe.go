package player

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// DefaultPipePath is where the FIFO is created unless configured otherwise.
// External scopes can consume it, e.g. `scope-tui file /tmp/tui-player.pipe`.
const DefaultPipePath = "/tmp/tui-player.pipe"

// pipeMaxFailures is how many broken writes the exporter tolerates before
// disabling itself for the session.
const pipeMaxFailures = 32

// PipeExporter duplicates the tapped stream to a named pipe as interleaved
// s16le, best effort. With no reader attached nothing blocks: the writer end
// is opened lazily and non-blocking, and failed writes are dropped.
type PipeExporter struct {
	path string

	mu       sync.Mutex
	f        *os.File
	buf      []byte
	failures int
	disabled bool
	reported func(error)
}

// NewPipeExporter creates the FIFO at path (reusing an existing one) and
// returns an exporter for it. report, if non-nil, is called once when the
// exporter gives up for the session.
func NewPipeExporter(path string, report func(error)) (*PipeExporter, error) {
	if err := unix.Mkfifo(path, 0o644); err != nil && !errors.Is(err, unix.EEXIST) {
		return nil, fmt.Errorf("mkfifo %s: %w", path, err)
	}
	return &PipeExporter{path: path, reported: report}, nil
}

// Write pushes one block of frames down the pipe. Called from the audio
// thread: it must never block, so a missing reader (ENXIO on open), a full
// pipe (EAGAIN), or a vanished reader (EPIPE) all degrade to dropped data.
func (e *PipeExporter) Write(frames [][2]float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disabled {
		return
	}
	if e.f == nil {
		f, err := os.OpenFile(e.path, os.O_WRONLY|unix.O_NONBLOCK, 0)
		if err != nil {
			// No reader yet; retry lazily on a later block.
			return
		}
		e.f = f
	}

	need := len(frames) * 4
	if cap(e.buf) < need {
		e.buf = make([]byte, need)
	}
	buf := e.buf[:need]
	for i, fr := range frames {
		l := int16(clamp(fr[0]) * 32767)
		r := int16(clamp(fr[1]) * 32767)
		buf[i*4+0] = byte(l)
		buf[i*4+1] = byte(l >> 8)
		buf[i*4+2] = byte(r)
		buf[i*4+3] = byte(r >> 8)
	}

	if _, err := e.f.Write(buf); err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return // reader too slow; drop this block
		}
		e.f.Close()
		e.f = nil
		e.failures++
		if e.failures >= pipeMaxFailures {
			e.disabled = true
			if e.reported != nil {
				e.reported(fmt.Errorf("%w: disabled after %d failures", ErrPipeWrite, e.failures))
			}
		}
	}
}

// Disabled reports whether the exporter gave up for the session.
func (e *PipeExporter) Disabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disabled
}

// Close closes the writer end and removes the FIFO.
func (e *PipeExporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disabled = true
	if e.f != nil {
		e.f.Close()
		e.f = nil
	}
	return os.Remove(e.path)
}

// clamp bounds a sample to [-1,1] on the export path only; shared buffers
// keep the full dynamic range for analysis.
func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
