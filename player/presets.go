package player

// PresetFlat is the neutral preset and the default.
const PresetFlat = "Flat"

type preset struct {
	name  string
	gains [NumBands]float64
}

// presets are named gain templates over the 32 bands, low to high frequency.
var presets = []preset{
	{PresetFlat, [NumBands]float64{}},
	{"Rock", [NumBands]float64{
		3, 3, 3, 4, 4, 3, 2, 1,
		0, 0, -1, -1, -1, 0, 0, 0,
		1, 1, 2, 2, 3, 3, 3, 4,
		4, 4, 3, 3, 3, 2, 2, 1,
	}},
	{"Pop", [NumBands]float64{
		-1, -1, 0, 0, 1, 2, 3, 3,
		4, 4, 3, 3, 2, 2, 1, 0,
		-1, -1, -1, -1, 0, 0, 0, 0,
		1, 1, 2, 2, 2, 1, 1, 0,
	}},
	{"Jazz", [NumBands]float64{
		3, 3, 3, 2, 2, 1, 0, 0,
		0, 0, 1, 2, 2, 1, 0, -1,
		-2, -2, -1, 0, 0, 1, 2, 2,
		3, 3, 3, 3, 4, 4, 3, 3,
	}},
	{"Classical", [NumBands]float64{
		4, 4, 3, 3, 3, 2, 2, 1,
		1, 0, 0, -1, -1, -1, -1, 0,
		0, 0, 0, 0, -1, -1, 0, 0,
		1, 2, 2, 3, 3, 3, 4, 4,
	}},
	{"Bass Boost", [NumBands]float64{
		8, 8, 7, 7, 6, 6, 5, 5,
		4, 4, 3, 2, 1, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
	}},
	{"Treble Boost", [NumBands]float64{
		0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 1, 2, 2, 3, 4,
		5, 5, 6, 6, 7, 7, 8, 8,
	}},
	{"Vocal", [NumBands]float64{
		-2, -2, -2, -1, -1, 0, 0, 0,
		0, 0, 0, 1, 2, 3, 3, 4,
		5, 5, 5, 4, 3, 3, 2, 1,
		0, 0, 0, 0, -1, -1, -2, -2,
	}},
	{"Melodic Death", [NumBands]float64{
		4, 4, 5, 5, 6, 5, 4, 3,
		2, 1, 0, -1, -2, -2, -1, 0,
		1, 2, 3, 4, 5, 5, 4, 3,
		3, 4, 5, 5, 4, 3, 2, 1,
	}},
	{"Heavy Metal", [NumBands]float64{
		5, 5, 6, 6, 5, 4, 3, 2,
		1, 0, -1, -2, -3, -3, -2, -1,
		0, 1, 2, 3, 4, 5, 5, 5,
		6, 6, 5, 5, 4, 3, 2, 1,
	}},
	{"Power Metal", [NumBands]float64{
		3, 3, 4, 5, 5, 4, 3, 2,
		1, 0, 0, 0, 1, 1, 2, 2,
		3, 3, 4, 5, 5, 5, 4, 4,
		5, 5, 6, 6, 5, 4, 3, 2,
	}},
}

// PresetNames lists the available presets in cycle order.
func PresetNames() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.name
	}
	return names
}

func presetGains(name string) ([NumBands]float64, bool) {
	for _, p := range presets {
		if p.name == name {
			return p.gains, true
		}
	}
	return [NumBands]float64{}, false
}

// NextPreset returns the preset following the given one in cycle order.
// Custom (or unknown) state restarts the cycle at Flat.
func NextPreset(name string) string {
	for i, p := range presets {
		if p.name == name {
			return presets[(i+1)%len(presets)].name
		}
	}
	return PresetFlat
}
