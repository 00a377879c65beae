package synth

// DefaultRamp is the onset and release length of the safety envelope, in seconds.
const DefaultRamp = 3.0

// Envelope returns a gain curve of NumSamples(duration) samples: a linear
// 0→1 ramp over rampUp seconds, unity gain, then a 1→0 ramp over rampDown
// seconds. A ramp that would fill the whole buffer is left at unity.
func Envelope(duration, rampUp, rampDown float64, sampleRate int) []float64 {
	total := NumSamples(duration, sampleRate)
	env := make([]float64, total)
	for i := range env {
		env[i] = 1
	}

	if up := NumSamples(rampUp, sampleRate); up > 0 && up < total {
		copy(env[:up], linspace(0, 1, up))
	}
	if down := NumSamples(rampDown, sampleRate); down > 0 && down < total {
		copy(env[total-down:], linspace(1, 0, down))
	}
	return env
}
