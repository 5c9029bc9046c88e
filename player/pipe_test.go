package player

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sys/unix"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPipeExporterCreatesFifo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pipe")

	e, err := NewPipeExporter(path, nil)
	require.NoError(t, err)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.ModeNamedPipe, fi.Mode()&os.ModeNamedPipe)

	// Re-creating over an existing FIFO succeeds.
	e2, err := NewPipeExporter(path, nil)
	require.NoError(t, err)
	_ = e2

	require.NoError(t, e.Close())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "Close should remove the FIFO")
}

func TestPipeExporterNeverBlocksWithoutReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pipe")
	e, err := NewPipeExporter(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	frames := make([][2]float64, 1024)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			e.Write(frames)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Write blocked with no reader attached")
	}
	assert.False(t, e.Disabled(), "missing reader is not a failure")
}

func TestPipeExporterStreamsS16LE(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pipe")
	e, err := NewPipeExporter(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	// Attach a reader; O_NONBLOCK so the open never waits on the writer.
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	require.NoError(t, err)
	reader := os.NewFile(uintptr(fd), path)
	defer reader.Close()

	frames := [][2]float64{
		{0, 0},
		{0.5, -0.5},
		{1, -1},
		{2, -2}, // clamped to full scale
	}
	e.Write(frames)

	buf := make([]byte, len(frames)*4)
	deadline := time.Now().Add(2 * time.Second)
	got := 0
	for got < len(buf) {
		n, err := reader.Read(buf[got:])
		got += n
		if err != nil && time.Now().After(deadline) {
			t.Fatalf("short read after %d bytes: %v", got, err)
		}
	}

	want := []int16{
		0, 0,
		16383, -16383,
		32767, -32767,
		32767, -32767,
	}
	for i, w := range want {
		v := int16(binary.LittleEndian.Uint16(buf[i*2:]))
		assert.Equal(t, w, v, "sample %d", i)
	}
}

func TestPipeExporterDisablesAfterRepeatedBreaks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pipe")

	var reportedErr error
	e, err := NewPipeExporter(path, func(err error) { reportedErr = err })
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	frames := make([][2]float64, 64)
	for i := 0; i < pipeMaxFailures; i++ {
		// Attach a reader, let the write land, then close the reader so the
		// next write hits a broken pipe.
		fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
		require.NoError(t, err)
		e.Write(frames) // opens the writer end
		unix.Close(fd)
		e.Write(frames) // EPIPE: reader is gone
	}

	assert.True(t, e.Disabled())
	require.Error(t, reportedErr)
	assert.ErrorIs(t, reportedErr, ErrPipeWrite)

	// Disabled exporters drop everything silently.
	e.Write(frames)
}
