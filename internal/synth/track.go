package synth

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/satindergrewal/easel/internal/catalog"
)

// ErrSilentBuffer is returned when a mix has no signal to normalize.
var ErrSilentBuffer = errors.New("cannot normalize silent buffer")

// silenceFloor is the peak below which a buffer counts as silent.
const silenceFloor = 1e-12

// Mix weights.
const (
	sensoryWeight = 0.5
	chassisWeight = 0.3
	noiseWeight   = 0.2

	testWaveWeight    = 0.7
	testChassisWeight = 0.3
	testChassisLevel  = 0.3

	entrainmentFloor = 0.2
)

// Options tunes a Synthesizer.
type Options struct {
	SampleRate int
	Peak       float64 // target peak amplitude after normalization
	RampUp     float64 // safety envelope onset, seconds
	RampDown   float64 // safety envelope release, seconds
	Seed       uint64  // base seed for the noise layer
	// ProfileNoise backs each profile with the noise it was voiced for
	// instead of pink noise.
	ProfileNoise bool
}

// DefaultOptions returns the settings the shipped catalog is rendered with.
func DefaultOptions() Options {
	return Options{
		SampleRate: 48000,
		Peak:       0.85,
		RampUp:     DefaultRamp,
		RampDown:   DefaultRamp,
		Seed:       1,
	}
}

// Synthesizer renders catalog entries into normalized sample buffers.
// It holds no mutable state and is safe for concurrent use.
type Synthesizer struct {
	cat  *catalog.Catalog
	opts Options
}

// New creates a Synthesizer over the given catalog.
func New(cat *catalog.Catalog, opts Options) *Synthesizer {
	return &Synthesizer{cat: cat, opts: opts}
}

// SampleRate returns the rate every buffer is rendered at.
func (s *Synthesizer) SampleRate() int { return s.opts.SampleRate }

// Options returns the settings the synthesizer renders with.
func (s *Synthesizer) Options() Options { return s.opts }

// Catalog returns the tables the synthesizer renders from.
func (s *Synthesizer) Catalog() *catalog.Catalog { return s.cat }

// NoiseSource returns the random source for an asset. The stream depends only
// on the base seed and the asset key, so output does not depend on render order.
func (s *Synthesizer) NoiseSource(key string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(key))
	return rand.New(rand.NewPCG(s.opts.Seed, h.Sum64()))
}

// WellnessTrack renders one catalog asset: sensory, chassis and noise layers
// mixed 0.5/0.3/0.2, shaped by the safety envelope and normalized to the
// target peak.
func (s *Synthesizer) WellnessTrack(profileName, textureName string, duration float64) ([]float64, error) {
	p, err := s.cat.Profile(profileName)
	if err != nil {
		return nil, err
	}
	tx, err := s.cat.Texture(textureName)
	if err != nil {
		return nil, err
	}

	sensory, err := s.Sensory(p, tx, duration)
	if err != nil {
		return nil, err
	}
	chassis := s.ChassisFor(profileName, duration)

	kind := catalog.NoisePink
	if s.opts.ProfileNoise {
		kind = p.Noise
	}
	key := fmt.Sprintf("%s-%s-%g", profileName, textureName, duration)
	noise := Noise(kind, len(sensory), s.NoiseSource(key), s.opts.SampleRate)

	mixed := make([]float64, len(sensory))
	for i := range mixed {
		mixed[i] = sensoryWeight*sensory[i] + chassisWeight*chassis[i] + noiseWeight*noise[i]
	}
	return s.finish(mixed, duration, key)
}

// TestTrack renders the validation waveform with the given id.
func (s *Synthesizer) TestTrack(id string) ([]float64, error) {
	tp, err := s.cat.TestProfile(id)
	if err != nil {
		return nil, err
	}

	duration := float64(tp.Duration)
	n := NumSamples(duration, s.opts.SampleRate)
	fs := float64(s.opts.SampleRate)

	wave := make([]float64, n)
	switch tp.Kind {
	case catalog.SteadyTone:
		for i := range wave {
			wave[i] = math.Sin(twoPi * tp.CarrierHz * float64(i) / fs)
		}
	case catalog.EnhancedPulses:
		pulseHz := tp.PulseBPM / 60
		for i := range wave {
			t := float64(i) / fs
			wave[i] = math.Sin(twoPi*tp.CarrierHz*t) * pulse(t, pulseHz)
		}
		if ramp := NumSamples(tp.EntrainmentRamp, s.opts.SampleRate); ramp > 0 && ramp < n {
			for i, g := range linspace(entrainmentFloor, 1, ramp) {
				wave[i] *= g
			}
		}
	default:
		return nil, fmt.Errorf("test profile %q: %w", tp.ID, ErrUnknownPhysics)
	}

	mixed := make([]float64, n)
	for i := range mixed {
		chassis := testChassisLevel * math.Sin(twoPi*tp.ChassisHz*float64(i)/fs)
		mixed[i] = testWaveWeight*wave[i] + testChassisWeight*chassis
	}
	return s.finish(mixed, duration, tp.ID)
}

func (s *Synthesizer) finish(mixed []float64, duration float64, key string) ([]float64, error) {
	env := Envelope(duration, s.opts.RampUp, s.opts.RampDown, s.opts.SampleRate)
	for i := range mixed {
		mixed[i] *= env[i]
	}
	if err := Normalize(mixed, s.opts.Peak); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return mixed, nil
}

// Normalize scales buf in place so its peak absolute value equals peak.
func Normalize(buf []float64, peak float64) error {
	m := Peak(buf)
	if m < silenceFloor {
		return ErrSilentBuffer
	}
	g := peak / m
	for i := range buf {
		buf[i] *= g
	}
	return nil
}
