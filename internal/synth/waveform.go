package synth

import "math"

const twoPi = 2 * math.Pi

// NumSamples is the buffer length every stage uses for a duration.
func NumSamples(duration float64, sampleRate int) int {
	n := int(math.Round(duration * float64(sampleRate)))
	if n < 0 {
		return 0
	}
	return n
}

// sawtooth is a periodic ramp over a 2π phase cycle. width is the fraction of
// the cycle spent rising from -1 to 1; width 1 is a plain rising saw and width
// 0.5 a symmetric triangle.
func sawtooth(phase, width float64) float64 {
	p := math.Mod(phase, twoPi)
	if p < 0 {
		p += twoPi
	}
	if p < width*twoPi {
		return -1 + p/(math.Pi*width)
	}
	return (math.Pi*(width+1) - p) / (math.Pi * (1 - width))
}

// square is +1 for the first duty fraction of each cycle and -1 after.
func square(phase, duty float64) float64 {
	p := math.Mod(phase, twoPi)
	if p < 0 {
		p += twoPi
	}
	if p < duty*twoPi {
		return 1
	}
	return -1
}

// gate is a 0/1 square wave at hz with the given duty cycle.
func gate(t, hz, duty float64) float64 {
	return (square(twoPi*hz*t, duty) + 1) / 2
}

// lfo is a triangular oscillator in [0,1] with the given period in seconds.
func lfo(t, period float64) float64 {
	if period <= 0 {
		return 0
	}
	return (sawtooth(twoPi*t/period, 0.5) + 1) / 2
}

// pulse is the saw^8 envelope: near zero for most of the cycle and rising
// sharply to 1 at the end of each period of 1/hz seconds.
func pulse(t, hz float64) float64 {
	v := (sawtooth(twoPi*hz*t, 1) + 1) / 2
	v *= v // ^2
	v *= v // ^4
	return v * v
}

// PulseEnvelope renders the saw^8 pulse train for n samples.
func PulseEnvelope(n, sampleRate int, hz float64) []float64 {
	out := make([]float64, n)
	fs := float64(sampleRate)
	for i := range out {
		out[i] = pulse(float64(i)/fs, hz)
	}
	return out
}

// linspace returns n evenly spaced values from start to stop inclusive.
func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	if n > 1 {
		out[n-1] = stop
	}
	return out
}

// Peak returns the largest absolute sample value.
func Peak(buf []float64) float64 {
	var m float64
	for _, v := range buf {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}
