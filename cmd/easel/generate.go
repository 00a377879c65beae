package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satindergrewal/easel/internal/catalog"
	"github.com/satindergrewal/easel/internal/render"
	"github.com/satindergrewal/easel/internal/synth"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render every catalog asset to disk",
	Long: `Renders each (profile, texture, duration) track and each validation
track, writes them atomically and updates the manifest.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.String("only", "", "render only assets whose name starts with this prefix")
	f.Uint64("seed", 1, "base seed for the noise layer")
	f.Int("workers", 0, "parallel renders (default GOMAXPROCS)")
	f.Float64("peak", 0.85, "normalized peak amplitude")
	f.Bool("profile-noise", false, "use each profile's own noise instead of pink noise")
	f.String("output-dir", "", "directory for wellness tracks")
	f.String("test-output-dir", "", "directory for validation tracks")
	f.String("manifest-path", "", "manifest location")
	f.String("metrics-file", "", "write Prometheus textfile metrics here")
	rootCmd.AddCommand(generateCmd)
}

func newRenderer() *render.Renderer {
	s := synth.New(catalog.Default(), cfg.SynthOptions())
	return render.New(s, render.Config{
		OutputDir:     cfg.OutputDir,
		TestOutputDir: cfg.TestOutputDir,
		ManifestPath:  cfg.ManifestPath,
		MetricsFile:   cfg.MetricsFile,
		Workers:       cfg.Workers,
		Only:          cfg.Only,
	}, logger)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	m, err := newRenderer().Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Rendered %d assets (run %s)\n", len(m.Assets), m.RunID)
	return nil
}
