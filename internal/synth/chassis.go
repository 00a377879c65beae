package synth

import "math"

const (
	// DefaultChassisHz drives the speaker chassis for profiles without a tuned value.
	DefaultChassisHz = 160.0
	// SubBassHz is the fixed secondary coupling tone.
	SubBassHz = 75.0
)

// Chassis renders the dual-tone coupling layer:
// 0.4·sin(2π·chassisHz·t) + 0.3·sin(2π·75·t).
func Chassis(chassisHz, duration float64, sampleRate int) []float64 {
	out := make([]float64, NumSamples(duration, sampleRate))
	fs := float64(sampleRate)
	for i := range out {
		t := float64(i) / fs
		out[i] = 0.4*math.Sin(twoPi*chassisHz*t) + 0.3*math.Sin(twoPi*SubBassHz*t)
	}
	return out
}

// ChassisFor renders the coupling layer tuned for the named profile. Names
// missing from the catalog fall back to DefaultChassisHz.
func (s *Synthesizer) ChassisFor(profile string, duration float64) []float64 {
	hz := DefaultChassisHz
	if p, err := s.cat.Profile(profile); err == nil && p.ChassisHz > 0 {
		hz = p.ChassisHz
	}
	return Chassis(hz, duration, s.opts.SampleRate)
}
