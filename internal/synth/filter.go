package synth

import "math"

// butterLowpass designs a first- or second-order Butterworth low-pass by
// bilinear transform. wn is the cutoff as a fraction of Nyquist. The returned
// denominator is normalized so a[0] == 1.
func butterLowpass(order int, wn float64) (b, a []float64) {
	k := math.Tan(math.Pi * wn / 2)
	if order == 1 {
		g := k / (1 + k)
		return []float64{g, g}, []float64{1, (k - 1) / (k + 1)}
	}
	norm := 1 / (1 + math.Sqrt2*k + k*k)
	b0 := k * k * norm
	return []float64{b0, 2 * b0, b0},
		[]float64{1, 2 * (k*k - 1) * norm, (1 - math.Sqrt2*k + k*k) * norm}
}

// lfilter runs x through the IIR filter (b, a) in transposed direct form II
// with zero initial state. len(a) must equal len(b) and a[0] must be 1.
func lfilter(b, a, x []float64) []float64 {
	z := make([]float64, len(b))
	y := make([]float64, len(x))
	for i, xi := range x {
		yi := b[0]*xi + z[0]
		for k := 1; k < len(b); k++ {
			z[k-1] = b[k]*xi + z[k] - a[k]*yi
		}
		y[i] = yi
	}
	return y
}
