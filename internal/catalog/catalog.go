package catalog

import (
	"errors"
	"fmt"
)

// Lookup failures. Callers get these wrapped with the missing key.
var (
	ErrUnknownProfile     = errors.New("unknown profile")
	ErrUnknownTexture     = errors.New("unknown texture")
	ErrUnknownTestProfile = errors.New("unknown test profile")
)

// Physics is the waveform model a wellness profile is synthesized with.
// The set is closed: only the types in this package implement it.
type Physics interface {
	Tag() string
	physics()
}

// BoneSweep is a sine carrier at the midpoint of a frequency range, or swept
// across the range when the texture sweeps.
type BoneSweep struct {
	LowHz  float64 `yaml:"low_hz"`
	HighHz float64 `yaml:"high_hz"`
}

// DermalSawtooth is BoneSweep with a sawtooth carrier.
type DermalSawtooth struct {
	LowHz  float64 `yaml:"low_hz"`
	HighHz float64 `yaml:"high_hz"`
}

// PhantomPercussion is a sine carrier shaped by a sharply peaked pulse train.
type PhantomPercussion struct {
	CarrierHz   float64 `yaml:"carrier_hz"`
	PulseRateHz float64 `yaml:"pulse_rate_hz"`
}

// AMModulation is a sine carrier under a slow amplitude modulator.
type AMModulation struct {
	CarrierHz    float64 `yaml:"carrier_hz"`
	ModulationHz float64 `yaml:"modulation_hz"`
}

func (BoneSweep) Tag() string         { return "bone_sweep" }
func (DermalSawtooth) Tag() string    { return "dermal_sawtooth" }
func (PhantomPercussion) Tag() string { return "phantom_percussion" }
func (AMModulation) Tag() string      { return "am_modulation" }

func (BoneSweep) physics()         {}
func (DermalSawtooth) physics()    {}
func (PhantomPercussion) physics() {}
func (AMModulation) physics()      {}

// Midpoint returns the steady carrier frequency of the range.
func (b BoneSweep) Midpoint() float64 { return (b.LowHz + b.HighHz) / 2 }

// Midpoint returns the steady carrier frequency of the range.
func (d DermalSawtooth) Midpoint() float64 { return (d.LowHz + d.HighHz) / 2 }

// NoiseKind selects the colored-noise backing texture.
type NoiseKind int

const (
	NoiseModulated NoiseKind = iota
	NoisePink
	NoiseBrown
	NoiseRhythmicThud
)

func (k NoiseKind) String() string {
	switch k {
	case NoisePink:
		return "pink_noise"
	case NoiseBrown:
		return "brown_noise"
	case NoiseRhythmicThud:
		return "rhythmic_thud"
	default:
		return "modulated_noise"
	}
}

// MarshalYAML renders the kind by name.
func (k NoiseKind) MarshalYAML() (any, error) { return k.String(), nil }

// Profile is one wellness profile of the catalog.
type Profile struct {
	Name        string  `yaml:"name"`
	DisplayName string  `yaml:"display_name"`
	Description string  `yaml:"description"`
	Physics     Physics `yaml:"-"`
	ChassisHz   float64 `yaml:"chassis_hz"`
	Durations   []int   `yaml:"durations"`
	// Noise is the texture the profile was voiced for. Tracks use pink noise
	// unless profile noise is switched on in the config.
	Noise NoiseKind `yaml:"noise"`
}

// Modulation is the rhythm style a texture lays over a physics model.
type Modulation int

const (
	Steady Modulation = iota
	Pulsed
	Sweeping
)

func (m Modulation) String() string {
	switch m {
	case Pulsed:
		return "pulsed"
	case Sweeping:
		return "sweeping"
	default:
		return "steady"
	}
}

// MarshalYAML renders the modulation by name.
func (m Modulation) MarshalYAML() (any, error) { return m.String(), nil }

// Texture is a modulation variant applied to every profile.
type Texture struct {
	Name        string     `yaml:"name"`
	DisplayName string     `yaml:"display_name"`
	Modulation  Modulation `yaml:"modulation"`
	PulseBPM    float64    `yaml:"pulse_bpm,omitempty"`
	SweepPeriod float64    `yaml:"sweep_period,omitempty"` // seconds
}

// PulseHz converts the texture tempo to a gate frequency.
func (t Texture) PulseHz() float64 { return t.PulseBPM / 60 }

// TestKind is the waveform of a validation profile.
type TestKind int

const (
	SteadyTone TestKind = iota
	EnhancedPulses
)

func (k TestKind) String() string {
	if k == EnhancedPulses {
		return "enhanced_pulses"
	}
	return "steady_tone"
}

// MarshalYAML renders the kind by name.
func (k TestKind) MarshalYAML() (any, error) { return k.String(), nil }

// TestProfile is a fixed validation waveform rendered outside the catalog grid.
type TestProfile struct {
	ID              string   `yaml:"id"`
	DisplayName     string   `yaml:"display_name"`
	Description     string   `yaml:"description"`
	Kind            TestKind `yaml:"kind"`
	CarrierHz       float64  `yaml:"carrier_hz"`
	PulseBPM        float64  `yaml:"pulse_bpm,omitempty"`
	ChassisHz       float64  `yaml:"chassis_hz"`
	Duration        int      `yaml:"duration"`                   // seconds
	EntrainmentRamp float64  `yaml:"entrainment_ramp,omitempty"` // seconds, 0 = none
}

// Catalog is the full set of tables a render run draws from.
type Catalog struct {
	Profiles     []Profile     `yaml:"profiles"`
	Textures     []Texture     `yaml:"textures"`
	TestProfiles []TestProfile `yaml:"test_profiles"`
}

// Profile returns the named profile.
func (c *Catalog) Profile(name string) (Profile, error) {
	for _, p := range c.Profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}

// Texture returns the named texture.
func (c *Catalog) Texture(name string) (Texture, error) {
	for _, t := range c.Textures {
		if t.Name == name {
			return t, nil
		}
	}
	return Texture{}, fmt.Errorf("%w: %q", ErrUnknownTexture, name)
}

// TestProfile returns the test profile with the given id.
func (c *Catalog) TestProfile(id string) (TestProfile, error) {
	for _, tp := range c.TestProfiles {
		if tp.ID == id {
			return tp, nil
		}
	}
	return TestProfile{}, fmt.Errorf("%w: %q", ErrUnknownTestProfile, id)
}

// WellnessFilename is the asset filename the playback app resolves for a
// (profile, texture, duration) triple.
func WellnessFilename(profile, texture string, duration int) string {
	return fmt.Sprintf("%s-%s-%ds.wav", profile, texture, duration)
}

// TestFilename is the asset filename of a test profile.
func TestFilename(id string, duration int) string {
	return fmt.Sprintf("%s-%ds.wav", id, duration)
}
