package player

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = beep.SampleRate(44100)

// writeWav writes a 16-bit stereo PCM file where every sample holds the same
// value, so track boundaries are visible in the mixed output.
func writeWav(t *testing.T, path string, sample int16, frames int) string {
	t.Helper()

	var buf bytes.Buffer
	dataLen := frames * 4 // stereo, 2 bytes per sample
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(2)) // channels
	binary.Write(&buf, binary.LittleEndian, uint32(testRate))
	binary.Write(&buf, binary.LittleEndian, uint32(int(testRate)*4))
	binary.Write(&buf, binary.LittleEndian, uint16(4))  // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16)) // bits per sample
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	for i := 0; i < frames*2; i++ {
		binary.Write(&buf, binary.LittleEndian, sample)
	}

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func openTrack(t *testing.T, path string) *activeTrack {
	t.Helper()
	src, err := openSource(path)
	require.NoError(t, err)
	return newActiveTrack(path, src, testRate)
}

// waitQueued lets the pre-buffer goroutine decode; the test files fit the
// block channel entirely, so this settles almost immediately.
func waitQueued(t *testing.T, tr *transition) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		tr.mu.Lock()
		pb := tr.next
		tr.mu.Unlock()
		if pb == nil {
			t.Fatal("nothing queued")
		}
		select {
		case meta := <-pb.meta:
			tr.mu.Lock()
			pb.track = meta
			tr.mu.Unlock()
			return
		case <-deadline:
			t.Fatal("pre-buffer never produced metadata")
		case <-time.After(time.Millisecond):
		}
	}
}

// drain pulls frames through the transition in speaker-sized blocks.
func drain(tr *transition, frames int) [][2]float64 {
	out := make([][2]float64, 0, frames)
	block := make([][2]float64, 512)
	for len(out) < frames {
		tr.Stream(block)
		out = append(out, block...)
	}
	return out[:frames]
}

func TestFadeCurvesEqualPower(t *testing.T) {
	for i := 0; i <= 100; i++ {
		ft := float64(i) / 100
		fo, fi := fadeOut(ft), fadeIn(ft)
		assert.InDelta(t, 1.0, fo*fo+fi*fi, 1e-12, "t=%v", ft)
	}
	assert.Equal(t, 1.0, fadeOut(0))
	assert.Equal(t, 1.0, fadeIn(1))
}

func TestGaplessSpliceInsertsNoSilence(t *testing.T) {
	const frames = 8192
	dir := t.TempDir()
	a := writeWav(t, filepath.Join(dir, "a.wav"), 16384, frames)  // +0.5
	b := writeWav(t, filepath.Join(dir, "b.wav"), -16384, frames) // -0.5

	tr := newTransition(testRate, nil)
	tr.setCurrent(openTrack(t, a))
	tr.queueNext(b)
	waitQueued(t, tr)
	time.Sleep(50 * time.Millisecond) // let the decode goroutine finish

	out := drain(tr, 2*frames)

	for i := 0; i < frames; i++ {
		require.InDelta(t, 0.5, out[i][0], 0.01, "frame %d should be track A", i)
	}
	for i := frames; i < 2*frames; i++ {
		require.InDelta(t, -0.5, out[i][0], 0.01, "frame %d should be track B", i)
	}

	path, ok := tr.takePromoted()
	assert.True(t, ok)
	assert.Equal(t, b, path)
	assert.False(t, tr.takeDone(), "a splice is not a natural end")
}

func TestCrossfadeBlendsWithEqualPower(t *testing.T) {
	const frames = 8192
	dir := t.TempDir()
	a := writeWav(t, filepath.Join(dir, "a.wav"), 16384, frames)
	b := writeWav(t, filepath.Join(dir, "b.wav"), 16384, 3*frames)

	tr := newTransition(testRate, nil)
	tr.setDuration(5 * time.Second) // longer than the track: window clamps
	tr.setCurrent(openTrack(t, a))
	tr.queueNext(b)
	waitQueued(t, tr)
	time.Sleep(50 * time.Millisecond)

	out := drain(tr, frames)

	// The overlap is clamped to A's remaining length, so the whole of A is
	// the fade. Both tracks are +0.5, so the blend peaks at 0.5*sqrt(2) at
	// the midpoint and returns to 0.5 by the end.
	mid := out[frames/2][0]
	assert.InDelta(t, 0.5*math.Sqrt2, mid, 0.02)
	assert.InDelta(t, 0.5, out[frames-1][0], 0.02)

	path, ok := tr.takePromoted()
	assert.True(t, ok)
	assert.Equal(t, b, path)

	// B keeps playing at full volume after promotion.
	after := drain(tr, 1024)
	assert.InDelta(t, 0.5, after[0][0], 0.01)
}

func TestCrossfadeStatusProgress(t *testing.T) {
	const frames = 8192
	dir := t.TempDir()
	a := writeWav(t, filepath.Join(dir, "a.wav"), 16384, frames)
	b := writeWav(t, filepath.Join(dir, "b.wav"), 16384, frames)

	tr := newTransition(testRate, nil)
	tr.setCurrent(openTrack(t, a))

	assert.Equal(t, TransitionIdle, tr.status().State)

	tr.setDuration(5 * time.Second)
	tr.queueNext(b)
	st := tr.status()
	assert.Equal(t, TransitionPreBuffering, st.State)
	assert.Equal(t, b, st.NextPath)

	waitQueued(t, tr)
	time.Sleep(50 * time.Millisecond)

	drain(tr, frames/2)
	st = tr.status()
	assert.Equal(t, TransitionCrossfading, st.State)
	assert.InDelta(t, 0.5, st.Progress, 0.1)

	drain(tr, frames/2)
	assert.Equal(t, TransitionIdle, tr.status().State)
}

func TestPreBufferFailureFallsBackToHardCut(t *testing.T) {
	const frames = 4096
	dir := t.TempDir()
	a := writeWav(t, filepath.Join(dir, "a.wav"), 16384, frames)

	errs := make(chan error, 8)
	tr := newTransition(testRate, errs)
	tr.setDuration(2 * time.Second)
	tr.setCurrent(openTrack(t, a))
	tr.queueNext(filepath.Join(dir, "missing.flac"))
	time.Sleep(50 * time.Millisecond)

	out := drain(tr, 2*frames)

	// A plays to its end, then playback stops: no half-initialized B.
	assert.InDelta(t, 0.5, out[0][0], 0.01)
	assert.Zero(t, out[2*frames-1][0], "after the cut only silence remains")
	assert.True(t, tr.takeDone())
	assert.False(t, tr.hasCurrent())

	select {
	case err := <-errs:
		assert.True(t, errors.Is(err, ErrPreBuffer), "got %v", err)
	default:
		t.Fatal("expected a pre-buffer error report")
	}
}

func TestQueueNextIdempotentForSamePath(t *testing.T) {
	const frames = 4096
	dir := t.TempDir()
	a := writeWav(t, filepath.Join(dir, "a.wav"), 16384, frames)
	b := writeWav(t, filepath.Join(dir, "b.wav"), 16384, frames)

	tr := newTransition(testRate, nil)
	tr.setCurrent(openTrack(t, a))

	tr.queueNext(b)
	tr.mu.Lock()
	first := tr.next
	tr.mu.Unlock()

	tr.queueNext(b)
	tr.mu.Lock()
	second := tr.next
	tr.mu.Unlock()

	assert.Same(t, first, second, "re-queueing the same path must not restart decoding")

	tr.setCurrent(nil) // cleanup: releases the pre-buffer decoder
}

func TestSeekCancelsTransition(t *testing.T) {
	const frames = 8192
	dir := t.TempDir()
	a := writeWav(t, filepath.Join(dir, "a.wav"), 16384, frames)
	b := writeWav(t, filepath.Join(dir, "b.wav"), 16384, frames)

	tr := newTransition(testRate, nil)
	tr.setDuration(5 * time.Second)
	tr.setCurrent(openTrack(t, a))
	tr.queueNext(b)
	waitQueued(t, tr)
	time.Sleep(50 * time.Millisecond)

	drain(tr, 1024)
	require.NoError(t, tr.seek(0))

	assert.Equal(t, TransitionIdle, tr.status().State)
	assert.Equal(t, time.Duration(0), tr.position())

	out := drain(tr, 256)
	assert.InDelta(t, 0.5, out[0][0], 0.01, "playback resumes from the seek target")

	tr.setCurrent(nil)
}

func TestActiveTrackRemaining(t *testing.T) {
	const frames = 4096
	dir := t.TempDir()
	a := writeWav(t, filepath.Join(dir, "a.wav"), 16384, frames)

	track := openTrack(t, a)
	defer track.close()

	assert.Equal(t, frames, track.remaining())

	buf := make([][2]float64, 1000)
	require.Equal(t, 1000, track.read(buf))
	assert.Equal(t, frames-1000, track.remaining())

	require.NoError(t, track.seek(0))
	assert.Equal(t, frames, track.remaining())
}
