package player

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineBlock(freq, sr float64, n int) [][2]float64 {
	out := make([][2]float64, n)
	for i := range out {
		v := 0.25 * math.Sin(2*math.Pi*freq*float64(i)/sr)
		out[i] = [2]float64{v, v}
	}
	return out
}

func rms(frames [][2]float64) float64 {
	var sum float64
	for _, f := range frames {
		sum += f[0] * f[0]
	}
	return math.Sqrt(sum / float64(len(frames)))
}

func TestEqDisabledIsBitIdentical(t *testing.T) {
	eq := NewEqualizer(44100, EqState{Enabled: false, Preset: PresetFlat})
	if err := eq.SetPreset("Rock"); err != nil {
		t.Fatal(err)
	}
	eq.SetEnabled(false)

	in := sineBlock(1000, 44100, 512)
	got := make([][2]float64, len(in))
	copy(got, in)
	eq.process(got)

	assert.Equal(t, in, got, "disabled chain must be a passthrough")
}

func TestEqFlatGainsAreIdentity(t *testing.T) {
	eq := NewEqualizer(44100, DefaultEqState())

	in := sineBlock(1000, 44100, 512)
	got := make([][2]float64, len(in))
	copy(got, in)
	eq.process(got)

	// Zero-gain bands short-circuit, so flat means bit-identical output.
	assert.Equal(t, in, got)
}

func TestEqBoostRaisesBandLevel(t *testing.T) {
	const sr = 44100.0
	eq := NewEqualizer(sr, DefaultEqState())

	// Boost the band nearest 1kHz and feed a tone at its center.
	band := 0
	for i, f := range BandFreqs {
		if math.Abs(f-1000) < math.Abs(BandFreqs[band]-1000) {
			band = i
		}
	}
	eq.SetBandGain(band, 12)

	in := sineBlock(BandFreqs[band], sr, 8192)
	out := make([][2]float64, len(in))
	copy(out, in)
	eq.process(out)

	// Skip the filter warm-up, then compare steady-state levels.
	gainDB := 20 * math.Log10(rms(out[4096:])/rms(in[4096:]))
	assert.Greater(t, gainDB, 9.0, "center-frequency tone should be boosted")
	assert.Less(t, gainDB, 13.0)
}

func TestSetBandGainClampsAndMarksCustom(t *testing.T) {
	eq := NewEqualizer(44100, DefaultEqState())

	eq.SetBandGain(3, 99)
	st := eq.State()
	assert.Equal(t, MaxGainDB, st.Gains[3])
	assert.Equal(t, PresetCustom, st.Preset)

	eq.SetBandGain(3, -99)
	assert.Equal(t, -MaxGainDB, eq.State().Gains[3])

	// Out-of-range bands are ignored.
	eq.SetBandGain(-1, 5)
	eq.SetBandGain(NumBands, 5)
	assert.Equal(t, -MaxGainDB, eq.State().Gains[3])
}

func TestSetPresetSwapsWholeTable(t *testing.T) {
	eq := NewEqualizer(44100, DefaultEqState())

	require.NoError(t, eq.SetPreset("Rock"))
	want, ok := presetGains("Rock")
	require.True(t, ok)

	st := eq.State()
	assert.Equal(t, "Rock", st.Preset)
	assert.Equal(t, want, st.Gains)

	err := eq.SetPreset("NoSuchPreset")
	assert.Error(t, err)
	assert.Equal(t, "Rock", eq.State().Preset, "failed preset must not change state")
}

func TestEqConcurrentEditsStayFinite(t *testing.T) {
	const sr = 44100.0
	eq := NewEqualizer(sr, DefaultEqState())

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Control thread hammers gains and presets while the audio thread
	// processes blocks. The output must stay finite throughout.
	wg.Add(1)
	go func() {
		defer wg.Done()
		names := PresetNames()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			eq.SetBandGain(i%NumBands, float64(i%25)-12)
			if i%7 == 0 {
				eq.SetPreset(names[i%len(names)])
			}
		}
	}()

	block := sineBlock(440, sr, 512)
	buf := make([][2]float64, len(block))
	for i := 0; i < 200; i++ {
		copy(buf, block)
		eq.process(buf)
		for _, f := range buf {
			for ch := 0; ch < 2; ch++ {
				if math.IsNaN(f[ch]) || math.IsInf(f[ch], 0) {
					close(stop)
					wg.Wait()
					t.Fatalf("non-finite sample during concurrent edits: %v", f[ch])
				}
			}
		}
	}
	close(stop)
	wg.Wait()

	// The last write wins: state reflects a complete edit, never a blend.
	st := eq.State()
	if st.Preset != PresetCustom {
		want, ok := presetGains(st.Preset)
		require.True(t, ok, "preset %q", st.Preset)
		assert.Equal(t, want, st.Gains)
	}
}

func TestBandFreqsSpan(t *testing.T) {
	assert.InDelta(t, 20, BandFreqs[0], 1e-9)
	assert.InDelta(t, 20000, BandFreqs[NumBands-1], 1e-6)
	for i := 1; i < NumBands; i++ {
		assert.Greater(t, BandFreqs[i], BandFreqs[i-1])
	}
}
