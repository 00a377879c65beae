package synth

import (
	"errors"
	"fmt"
	"math"

	"github.com/satindergrewal/easel/internal/catalog"
)

// ErrUnknownPhysics is returned for a profile whose physics model has no
// synthesis routine.
var ErrUnknownPhysics = errors.New("unknown physics model")

// Gate duty cycles.
const (
	rangeGateDuty  = 0.6
	pulseGateDuty  = 0.7
	amGateDuty     = 0.6
	amSweepFloor   = 0.5 // swept modulation runs between 50% and 100% of the base rate
	amSweepSpan    = 0.5
	modulatorDepth = 0.5
)

// Sensory renders the primary perceptual layer of a profile under a texture.
func (s *Synthesizer) Sensory(p catalog.Profile, tx catalog.Texture, duration float64) ([]float64, error) {
	n := NumSamples(duration, s.opts.SampleRate)
	rate := s.opts.SampleRate

	switch ph := p.Physics.(type) {
	case catalog.BoneSweep:
		return rangeVoice(n, rate, ph.LowHz, ph.HighHz, tx, math.Sin), nil
	case catalog.DermalSawtooth:
		return rangeVoice(n, rate, ph.LowHz, ph.HighHz, tx, risingSaw), nil
	case catalog.PhantomPercussion:
		return percussionVoice(n, rate, ph, tx), nil
	case catalog.AMModulation:
		return amVoice(n, rate, ph, tx), nil
	default:
		return nil, fmt.Errorf("profile %q: %w", p.Name, ErrUnknownPhysics)
	}
}

func risingSaw(phase float64) float64 { return sawtooth(phase, 1) }

// rangeVoice drives a carrier waveform at the midpoint of [low, high], gated
// when pulsed. When sweeping, the instantaneous frequency follows a
// triangular LFO across the range and the phase is its running integral, so
// the carrier stays continuous as the frequency moves.
func rangeVoice(n, rate int, low, high float64, tx catalog.Texture, wave func(float64) float64) []float64 {
	out := make([]float64, n)
	fs := float64(rate)

	if tx.Modulation == catalog.Sweeping {
		var acc float64
		for i := range out {
			t := float64(i) / fs
			acc += low + (high-low)*lfo(t, tx.SweepPeriod)
			out[i] = wave(twoPi * acc / fs)
		}
		return out
	}

	mid := (low + high) / 2
	pulsed := tx.Modulation == catalog.Pulsed
	gateHz := tx.PulseHz()
	for i := range out {
		t := float64(i) / fs
		v := wave(twoPi * mid * t)
		if pulsed {
			v *= gate(t, gateHz, rangeGateDuty)
		}
		out[i] = v
	}
	return out
}

func percussionVoice(n, rate int, ph catalog.PhantomPercussion, tx catalog.Texture) []float64 {
	out := make([]float64, n)
	fs := float64(rate)
	pulsed := tx.Modulation == catalog.Pulsed
	gateHz := tx.PulseHz()

	for i := range out {
		t := float64(i) / fs
		env := pulse(t, ph.PulseRateHz)
		if pulsed {
			env *= gate(t, gateHz, pulseGateDuty)
		}
		out[i] = math.Sin(twoPi*ph.CarrierHz*t) * env
	}
	return out
}

func amVoice(n, rate int, ph catalog.AMModulation, tx catalog.Texture) []float64 {
	out := make([]float64, n)
	fs := float64(rate)
	gateHz := tx.PulseHz()

	for i := range out {
		t := float64(i) / fs
		modHz := ph.ModulationHz
		if tx.Modulation == catalog.Sweeping {
			modHz *= amSweepFloor + amSweepSpan*lfo(t, tx.SweepPeriod)
		}
		mod := modulatorDepth * (1 + math.Sin(twoPi*modHz*t))
		if tx.Modulation == catalog.Pulsed {
			mod *= gate(t, gateHz, amGateDuty)
		}
		out[i] = math.Sin(twoPi*ph.CarrierHz*t) * mod
	}
	return out
}
