package audio

// Fade maps crossfade progress in [0,1] to the gain of the incoming asset.
type Fade func(progress float64) float64

// Smoothstep is the 3t^2 - 2t^3 curve, clamped to [0,1].
func Smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// Linear is a straight ramp, clamped to [0,1].
func Linear(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t
}

// CrossfadeFrames blends an outgoing frame with an incoming frame at the given
// progress (0 = all outgoing, 1 = all incoming). A nil curve means Smoothstep.
// The result has the length of the longer frame; missing samples count as
// silence.
func CrossfadeFrames(outgoing, incoming []int16, progress float64, curve Fade) []int16 {
	if curve == nil {
		curve = Smoothstep
	}
	gain := curve(progress)

	n := max(len(outgoing), len(incoming))
	result := make([]int16, n)
	for i := range result {
		var out, in float64
		if i < len(outgoing) {
			out = float64(outgoing[i])
		}
		if i < len(incoming) {
			in = float64(incoming[i])
		}
		mixed := out*(1-gain) + in*gain

		if mixed > 32767 {
			mixed = 32767
		} else if mixed < -32768 {
			mixed = -32768
		}
		result[i] = int16(mixed)
	}
	return result
}
