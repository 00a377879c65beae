package catalog

// Default returns the shipped catalog: four wellness profiles, three
// textures and two validation profiles. Each call returns fresh slices.
func Default() *Catalog {
	return &Catalog{
		Profiles: []Profile{
			{
				Name:        "edge",
				DisplayName: "Edge",
				Description: "A crisp, focused sensation that many people prefer for small or sensitive areas.",
				Physics:     BoneSweep{LowHz: 200, HighHz: 260},
				ChassisHz:   180,
				Durations:   []int{18, 24, 30},
				Noise:       NoisePink,
			},
			{
				Name:        "buffer",
				DisplayName: "Buffer",
				Description: "A shield with positive vibes, often preferred for larger surface areas.",
				Physics:     DermalSawtooth{LowHz: 140, HighHz: 180},
				ChassisHz:   170,
				Durations:   []int{18, 24, 30},
				Noise:       NoiseBrown,
			},
			{
				Name:        "deepwave",
				DisplayName: "Deep Wave",
				Description: "Designed to help when you want vibes that feel like they go deeper.",
				Physics:     PhantomPercussion{CarrierHz: 180, PulseRateHz: 2.5}, // 150 bpm
				ChassisHz:   150,
				Durations:   []int{18, 24, 30},
				Noise:       NoiseRhythmicThud,
			},
			{
				Name:        "rhythmiclayers",
				DisplayName: "Rhythmic Layers",
				Description: "If you're unsure, start with Rhythmic Layers and adjust from there.",
				Physics:     AMModulation{CarrierHz: 200, ModulationHz: 8},
				ChassisHz:   165,
				Durations:   []int{18, 24, 30},
				Noise:       NoiseModulated,
			},
		},
		Textures: []Texture{
			{Name: "constantflow", DisplayName: "Constant Flow", Modulation: Steady},
			{Name: "rhythmicwaves", DisplayName: "Rhythmic Waves", Modulation: Pulsed, PulseBPM: 100},
			{Name: "adaptiveflow", DisplayName: "Adaptive Flow", Modulation: Sweeping, SweepPeriod: 4.0},
		},
		TestProfiles: []TestProfile{
			{
				ID:          "test-gate-control",
				DisplayName: "Test A: Sharp Pain Relief",
				Description: "Scientific baseline for sharp sensation masking (Gate Control Theory)",
				Kind:        SteadyTone,
				CarrierHz:   180,
				ChassisHz:   170,
				Duration:    18,
			},
			{
				ID:              "test-massage-sim",
				DisplayName:     "Test B: Deep Comfort",
				Description:     "Mimics therapeutic massage for general aches",
				Kind:            EnhancedPulses,
				CarrierHz:       120,
				PulseBPM:        100,
				ChassisHz:       150,
				Duration:        30,
				EntrainmentRamp: 10,
			},
		},
	}
}

// profileYAML is the flattened form of a Profile used by the catalog listing.
type profileYAML struct {
	Name        string    `yaml:"name"`
	DisplayName string    `yaml:"display_name"`
	Description string    `yaml:"description"`
	Physics     string    `yaml:"physics"`
	Params      Physics   `yaml:"params"`
	ChassisHz   float64   `yaml:"chassis_hz"`
	Durations   []int     `yaml:"durations,flow"`
	Noise       NoiseKind `yaml:"noise"`
}

// MarshalYAML writes the physics tag next to its parameters.
func (p Profile) MarshalYAML() (any, error) {
	tag := ""
	if p.Physics != nil {
		tag = p.Physics.Tag()
	}
	return profileYAML{
		Name:        p.Name,
		DisplayName: p.DisplayName,
		Description: p.Description,
		Physics:     tag,
		Params:      p.Physics,
		ChassisHz:   p.ChassisHz,
		Durations:   p.Durations,
		Noise:       p.Noise,
	}, nil
}
