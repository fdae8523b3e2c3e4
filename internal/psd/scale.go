package psd

import "math"

// Scale identifies the requested output unit for a PSD bin.
type Scale int

const (
	DBm Scale = iota
	DBuV
	DBmV
	Watts
	Volts
)

// ParseScale maps a config string to a Scale, defaulting to dBm.
func ParseScale(s string) Scale {
	switch s {
	case "dBuV":
		return DBuV
	case "dBmV":
		return DBmV
	case "W":
		return Watts
	case "V":
		return Volts
	default:
		return DBm
	}
}

func (s Scale) String() string {
	switch s {
	case DBuV:
		return "dBuV"
	case DBmV:
		return "dBmV"
	case Watts:
		return "W"
	case Volts:
		return "V"
	default:
		return "dBm"
	}
}

// loadImpedanceOhms is the assumed load for converting linear power to
// dBm.
const loadImpedanceOhms = 50.0

const minDBm = -200.0

// Apply converts one linear-power PSD bin (p, in the engine's internal
// units) to the requested scale.
func (s Scale) Apply(p float64) float64 {
	dbm := math.Max(10*math.Log10((p/loadImpedanceOhms)*1000), minDBm)
	switch s {
	case DBuV:
		return dbm + 107
	case DBmV:
		return dbm + 47
	case Watts:
		return p / loadImpedanceOhms
	case Volts:
		return math.Sqrt(p)
	default:
		return dbm
	}
}
