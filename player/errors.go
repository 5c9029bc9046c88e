package player

import "errors"

// Error categories surfaced to the control loop. Audio-thread code never
// panics; it reports through the player's error channel and recovers locally
// (skip the track, drop the feature) wherever it can.
var (
	// ErrDecode marks a malformed or unsupported stream. Fatal to the
	// current track only; the caller skips to the next one.
	ErrDecode = errors.New("decode failed")

	// ErrOutputDevice marks an unusable audio output. Fatal to the session.
	ErrOutputDevice = errors.New("output device unavailable")

	// ErrPreBuffer marks a failed next-track pre-buffer. Non-fatal: the
	// transition aborts and playback hard-cuts at the track boundary.
	ErrPreBuffer = errors.New("next track pre-buffer failed")

	// ErrPipeWrite marks repeated named-pipe write failures. Non-fatal:
	// the exporter disables itself for the session.
	ErrPipeWrite = errors.New("pipe write failed")
)
