package vis

// Mode selects which transform the render loop applies to the ring snapshot.
type Mode int

const (
	Oscilloscope Mode = iota
	Vectorscope
	Spectroscope
)

// Next cycles to the following mode.
func (m Mode) Next() Mode {
	switch m {
	case Oscilloscope:
		return Vectorscope
	case Vectorscope:
		return Spectroscope
	default:
		return Oscilloscope
	}
}

func (m Mode) String() string {
	switch m {
	case Vectorscope:
		return "vectorscope"
	case Spectroscope:
		return "spectroscope"
	default:
		return "oscilloscope"
	}
}

// ParseMode maps a persisted mode name back to a Mode, defaulting to
// Oscilloscope for unknown values.
func ParseMode(name string) Mode {
	switch name {
	case "vectorscope":
		return Vectorscope
	case "spectroscope":
		return Spectroscope
	default:
		return Oscilloscope
	}
}
