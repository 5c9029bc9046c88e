package player

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
)

const (
	// prebufferBlockFrames is the decode granularity of the pre-buffer.
	prebufferBlockFrames = 1024

	// prebufferDepth bounds queued blocks (~1.5s at 44.1kHz), keeping the
	// decode goroutine ahead of the mixer without unbounded memory.
	prebufferDepth = 64

	resampleQuality = 4
)

// CrossfadeDurations are the selectable transition windows. 0 means an
// instantaneous gapless switch.
var CrossfadeDurations = []time.Duration{0, 2 * time.Second, 5 * time.Second, 8 * time.Second}

// Equal-power fade curves: fadeOut(t)^2 + fadeIn(t)^2 == 1 for t in [0,1],
// avoiding the volume dip a linear blend has at the midpoint.
func fadeOut(t float64) float64 { return math.Cos(t * math.Pi / 2) }
func fadeIn(t float64) float64  { return math.Sin(t * math.Pi / 2) }

// TransitionState tags the track-transition state machine.
type TransitionState int

const (
	TransitionIdle TransitionState = iota
	TransitionPreBuffering
	TransitionCrossfading
)

// TransitionStatus is a read-only snapshot for progress indication.
type TransitionStatus struct {
	State    TransitionState
	NextPath string
	Progress float64 // crossfade progress in [0,1]
}

// activeTrack is one playing decoder chain, normalized to the output sample
// rate. pending holds frames decoded ahead by a pre-buffer, served before
// the underlying stream is pulled again.
type activeTrack struct {
	path    string
	src     *source
	out     beep.Streamer
	ratio   float64 // output frames per source frame
	pending [][2]float64
	pos     int // frames served, output rate
	length  int // total frames, output rate; 0 if unknown
}

func newActiveTrack(path string, src *source, sr beep.SampleRate) *activeTrack {
	ratio := float64(sr) / float64(src.format.SampleRate)
	var out beep.Streamer = src.stream
	if src.format.SampleRate != sr {
		out = beep.Resample(resampleQuality, src.format.SampleRate, sr, src.stream)
	}
	return &activeTrack{
		path:   path,
		src:    src,
		out:    out,
		ratio:  ratio,
		length: int(float64(src.stream.Len()) * ratio),
	}
}

// read fills dst with as many frames as the track still has. A short count
// means the track is exhausted.
func (t *activeTrack) read(dst [][2]float64) int {
	n := 0
	for n < len(dst) && len(t.pending) > 0 {
		m := copy(dst[n:], t.pending)
		t.pending = t.pending[m:]
		n += m
	}
	for n < len(dst) {
		got, ok := t.out.Stream(dst[n:])
		n += got
		if !ok {
			break
		}
	}
	t.pos += n
	return n
}

// remaining returns output frames left, or -1 when the length is unknown.
func (t *activeTrack) remaining() int {
	if t.length <= 0 {
		return -1
	}
	if r := t.length - t.pos; r > 0 {
		return r
	}
	return 0
}

func (t *activeTrack) seek(frame int) error {
	t.pending = nil
	srcFrame := frame
	if t.ratio != 0 && t.ratio != 1 {
		srcFrame = int(float64(frame) / t.ratio)
	}
	if l := t.src.stream.Len(); srcFrame >= l {
		srcFrame = l - 1
	}
	if srcFrame < 0 {
		srcFrame = 0
	}
	if err := t.src.stream.Seek(srcFrame); err != nil {
		return err
	}
	t.pos = int(float64(srcFrame) * t.ratio)
	return nil
}

func (t *activeTrack) close() {
	if t.src != nil {
		t.src.Close()
	}
}

// prebuffer decodes the next track off the audio thread. A goroutine fills a
// bounded block channel; the mixer drains it without ever touching file I/O.
type prebuffer struct {
	path   string
	sr     beep.SampleRate
	blocks chan [][2]float64
	meta   chan *activeTrack
	errc   chan error
	cancel chan struct{}
	once   sync.Once

	// Mixer-side state, accessed only under the transition lock.
	track    *activeTrack
	leftover [][2]float64
	closed   bool
	served   int
}

func newPrebuffer(path string, sr beep.SampleRate) *prebuffer {
	pb := &prebuffer{
		path:   path,
		sr:     sr,
		blocks: make(chan [][2]float64, prebufferDepth),
		meta:   make(chan *activeTrack, 1),
		errc:   make(chan error, 1),
		cancel: make(chan struct{}),
	}
	go pb.fill()
	return pb
}

// fill decodes blocks until EOF or cancellation. The decoder source is never
// closed here; ownership passes to whoever drains the channel.
func (pb *prebuffer) fill() {
	defer close(pb.blocks)

	src, err := openSource(pb.path)
	if err != nil {
		pb.errc <- err
		return
	}
	tr := newActiveTrack(pb.path, src, pb.sr)
	pb.meta <- tr

	for {
		select {
		case <-pb.cancel:
			return
		default:
		}
		block := make([][2]float64, prebufferBlockFrames)
		n := 0
		for n < len(block) {
			got, ok := tr.out.Stream(block[n:])
			n += got
			if !ok {
				break
			}
		}
		if n == 0 {
			return
		}
		select {
		case pb.blocks <- block[:n]:
		case <-pb.cancel:
			return
		}
		if n < len(block) {
			return
		}
	}
}

// poll reports whether buffered audio is available, surfacing any open or
// decode failure. Non-blocking.
func (pb *prebuffer) poll() (ready bool, err error) {
	select {
	case err := <-pb.errc:
		return false, err
	default:
	}
	if pb.track == nil {
		select {
		case pb.track = <-pb.meta:
		default:
		}
	}
	if pb.track == nil {
		return false, nil
	}
	return len(pb.leftover) > 0 || len(pb.blocks) > 0 || pb.closed, nil
}

// read copies up to len(dst) incoming frames. It never blocks on the decode
// goroutine: frames not buffered yet simply aren't delivered this block.
func (pb *prebuffer) read(dst [][2]float64) int {
	n := 0
loop:
	for n < len(dst) {
		if len(pb.leftover) == 0 {
			select {
			case b, ok := <-pb.blocks:
				if !ok {
					pb.closed = true
					break loop
				}
				pb.leftover = b
			default:
				break loop
			}
		}
		m := copy(dst[n:], pb.leftover)
		pb.leftover = pb.leftover[m:]
		n += m
	}
	pb.served += n
	return n
}

// handoff stops decoding and converts the pre-buffer into an active track
// that resumes exactly where the buffered data ends.
func (pb *prebuffer) handoff() *activeTrack {
	pb.once.Do(func() { close(pb.cancel) })
	pending := pb.leftover
	for b := range pb.blocks {
		pending = append(pending, b...)
	}
	tr := pb.track
	tr.pending = pending
	tr.pos = pb.served
	return tr
}

// discard cancels pre-buffering and releases the decoder without leaking it.
func (pb *prebuffer) discard() {
	pb.once.Do(func() { close(pb.cancel) })
	for range pb.blocks {
	}
	if pb.track == nil {
		select {
		case pb.track = <-pb.meta:
		default:
		}
	}
	if pb.track != nil {
		pb.track.close()
	}
}

// transition sits between the decoders and the equalizer for the whole
// session. It streams the current track, schedules pre-buffering decisions
// made by the control loop, and blends tracks over the configured window.
//
// Idle -> PreBuffering -> Crossfading -> Idle; a zero duration collapses
// PreBuffering straight back to Idle with an in-block splice.
type transition struct {
	sr   beep.SampleRate
	errs chan<- error

	mu        sync.Mutex
	cur       *activeTrack
	next      *prebuffer
	duration  time.Duration
	fading    bool
	fadeTotal int
	fadePos   int
	promoted  string
	done      bool

	outBuf, inBuf [][2]float64
}

func newTransition(sr beep.SampleRate, errs chan<- error) *transition {
	return &transition{sr: sr, errs: errs}
}

func (t *transition) Err() error { return nil }

// Stream produces the session's sample stream. It always fills the block:
// silence when idle, audio otherwise. Never returns ok=false so the speaker
// chain lives for the whole process.
func (t *transition) Stream(samples [][2]float64) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := len(samples)
	filled := 0
	for filled < total {
		if t.cur == nil {
			zeroFrames(samples[filled:])
			break
		}
		t.schedule()
		if t.fading {
			filled += t.mixFade(samples[filled:total])
			continue
		}
		want := total - filled
		got := t.cur.read(samples[filled : filled+want])
		filled += got
		if got < want && !t.advance() {
			zeroFrames(samples[filled:])
			break
		}
	}
	return total, true
}

// schedule checks the pre-buffer and starts the crossfade once the current
// track's remaining time fits inside the configured window, clamped to the
// available overlap.
func (t *transition) schedule() {
	if t.next == nil || t.fading {
		return
	}
	ready, err := t.next.poll()
	if err != nil {
		t.report(fmt.Errorf("%w: %v", ErrPreBuffer, err))
		t.next.discard()
		t.next = nil
		return
	}
	if !ready || t.duration <= 0 {
		return
	}
	rem := t.cur.remaining()
	if rem < 0 {
		return // unknown length: splice at end instead
	}
	window := t.sr.N(t.duration)
	if rem > window || rem == 0 {
		return
	}
	t.fadeTotal = rem
	t.fadePos = 0
	t.fading = true
}

// mixFade blends outgoing and incoming frames with the equal-power curves.
// Promotion happens when the window completes or the outgoing track ends,
// whichever comes first.
func (t *transition) mixFade(dst [][2]float64) int {
	n := len(dst)
	if r := t.fadeTotal - t.fadePos; n > r {
		n = r
	}
	if n <= 0 {
		t.promote()
		return 0
	}
	t.ensureBufs(n)
	out, in := t.outBuf[:n], t.inBuf[:n]
	zeroFrames(out)
	zeroFrames(in)
	outGot := t.cur.read(out)
	t.next.read(in)

	for i := 0; i < n; i++ {
		ft := float64(t.fadePos+i) / float64(t.fadeTotal)
		fo, fi := fadeOut(ft), fadeIn(ft)
		dst[i][0] = out[i][0]*fo + in[i][0]*fi
		dst[i][1] = out[i][1]*fo + in[i][1]*fi
	}
	t.fadePos += n

	if outGot < n || t.fadePos >= t.fadeTotal {
		t.promote()
	}
	return n
}

// advance handles the current track running out outside a fade. Returns true
// when the next track was spliced in and reading can continue in the same
// block (the gapless path: zero inserted silence frames).
func (t *transition) advance() bool {
	if t.next != nil {
		ready, err := t.next.poll()
		switch {
		case err != nil:
			t.report(fmt.Errorf("%w: %v", ErrPreBuffer, err))
			t.next.discard()
			t.next = nil
		case ready:
			t.promote()
			return true
		default:
			// Still buffering; pad this block and retry on the next one.
			return false
		}
	}
	t.cur.close()
	t.cur = nil
	t.fading = false
	t.done = true
	return false
}

// promote makes the incoming track current and discards the outgoing decoder.
func (t *transition) promote() {
	old := t.cur
	t.cur = t.next.handoff()
	t.next = nil
	t.fading = false
	t.fadeTotal, t.fadePos = 0, 0
	t.promoted = t.cur.path
	if old != nil {
		old.close()
	}
}

func (t *transition) ensureBufs(n int) {
	if len(t.outBuf) < n {
		t.outBuf = make([][2]float64, n)
		t.inBuf = make([][2]float64, n)
	}
}

func (t *transition) report(err error) {
	if t.errs == nil {
		return
	}
	select {
	case t.errs <- err:
	default:
	}
}

// --- control-thread API ---

// setCurrent swaps in a new current track, cancelling any in-flight
// transition state. tr may be nil to stop.
func (t *transition) setCurrent(tr *activeTrack) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.next != nil {
		t.next.discard()
		t.next = nil
	}
	if t.cur != nil {
		t.cur.close()
	}
	t.cur = tr
	t.fading = false
	t.fadeTotal, t.fadePos = 0, 0
	t.done = false
}

// queueNext starts pre-buffering the upcoming track. Idempotent for the same
// path; a different path replaces the in-flight pre-buffer.
func (t *transition) queueNext(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cur == nil || t.fading {
		return
	}
	if t.next != nil {
		if t.next.path == path {
			return
		}
		t.next.discard()
	}
	t.next = newPrebuffer(path, t.sr)
}

func (t *transition) setDuration(d time.Duration) {
	t.mu.Lock()
	t.duration = d
	t.mu.Unlock()
}

func (t *transition) getDuration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration
}

func (t *transition) seek(frame int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cur == nil {
		return nil
	}
	if t.next != nil {
		t.next.discard()
		t.next = nil
	}
	t.fading = false
	return t.cur.seek(frame)
}

func (t *transition) position() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cur == nil {
		return 0
	}
	return t.sr.D(t.cur.pos)
}

func (t *transition) trackDuration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cur == nil || t.cur.length <= 0 {
		return 0
	}
	return t.sr.D(t.cur.length)
}

func (t *transition) hasCurrent() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cur != nil
}

// takeDone consumes the natural-end flag once.
func (t *transition) takeDone() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	d := t.done
	t.done = false
	return d
}

// takePromoted consumes the path of the last promoted track, letting the
// control loop realign the playlist cursor after an automatic transition.
func (t *transition) takePromoted() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.promoted
	t.promoted = ""
	return p, p != ""
}

func (t *transition) status() TransitionStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := TransitionStatus{State: TransitionIdle}
	switch {
	case t.fading:
		st.State = TransitionCrossfading
		if t.next != nil {
			st.NextPath = t.next.path
		}
		if t.fadeTotal > 0 {
			st.Progress = float64(t.fadePos) / float64(t.fadeTotal)
		}
	case t.next != nil:
		st.State = TransitionPreBuffering
		st.NextPath = t.next.path
	}
	return st
}

func zeroFrames(frames [][2]float64) {
	for i := range frames {
		frames[i][0] = 0
		frames[i][1] = 0
	}
}
