package synth

import (
	"math"
	"math/rand/v2"

	"github.com/satindergrewal/easel/internal/catalog"
)

// Noise renders n samples of backing texture from normally distributed
// white noise drawn from rng.
//
//	pink          1-pole Butterworth low-pass at 0.02·Nyquist, ×0.3
//	brown         running sum normalized to unit peak, ×0.25
//	rhythmic_thud 2-pole Butterworth low-pass at 0.01·Nyquist, ×0.3
//	modulated     white under a 0.2 Hz swell, ×0.2
func Noise(kind catalog.NoiseKind, n int, rng *rand.Rand, sampleRate int) []float64 {
	white := make([]float64, n)
	for i := range white {
		white[i] = rng.NormFloat64()
	}

	switch kind {
	case catalog.NoisePink:
		b, a := butterLowpass(1, 0.02)
		return scale(lfilter(b, a, white), 0.3)

	case catalog.NoiseBrown:
		var sum float64
		for i, v := range white {
			sum += v
			white[i] = sum
		}
		peak := Peak(white)
		if peak == 0 {
			return white
		}
		return scale(white, 0.25/peak)

	case catalog.NoiseRhythmicThud:
		b, a := butterLowpass(2, 0.01)
		return scale(lfilter(b, a, white), 0.3)

	default:
		fs := float64(sampleRate)
		for i := range white {
			t := float64(i) / fs
			white[i] *= 0.5 * (1 + 0.3*math.Sin(twoPi*0.2*t)) * 0.2
		}
		return white
	}
}

func scale(buf []float64, g float64) []float64 {
	for i := range buf {
		buf[i] *= g
	}
	return buf
}
