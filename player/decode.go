package player

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// source bundles a decoder with the file it reads from.
type source struct {
	stream beep.StreamSeekCloser
	format beep.Format
	file   *os.File
}

// openSource opens and probes an audio file, picking the decoder by
// extension. Supported: mp3, wav, flac, ogg.
func openSource(path string) (*source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDecode, filepath.Base(path), err)
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	case ".wav":
		stream, format, err = wav.Decode(f)
	case ".flac":
		stream, format, err = flac.Decode(f)
	case ".ogg", ".oga":
		stream, format, err = vorbis.Decode(f)
	default:
		f.Close()
		return nil, fmt.Errorf("%w: unsupported format %q", ErrDecode, filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, filepath.Base(path), err)
	}

	return &source{stream: stream, format: format, file: f}, nil
}

func (s *source) Close() error {
	if s == nil {
		return nil
	}
	if s.stream != nil {
		s.stream.Close()
	}
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
