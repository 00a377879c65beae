package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/satindergrewal/easel/internal/audio"
	"github.com/satindergrewal/easel/internal/player"
	"github.com/satindergrewal/easel/internal/render"
)

var playFromDisk bool

var playCmd = &cobra.Command{
	Use:   "play <asset>",
	Short: "Play one asset through the speakers",
	Long: `Renders the named asset in memory and plays it on the default audio
device. With --from-disk the generated file is played instead.`,
	Example: "  easel play edge-constantflow-18s\n  easel play test-gate-control-18s --from-disk",
	Args:    cobra.ExactArgs(1),
	RunE:    runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&playFromDisk, "from-disk", false, "play the rendered file instead of synthesizing")
	playCmd.Flags().Bool("profile-noise", false, "use each profile's own noise instead of pink noise")
	playCmd.Flags().Uint64("seed", 1, "base seed for the noise layer")
	playCmd.Flags().String("output-dir", "", "directory for wellness tracks")
	playCmd.Flags().String("test-output-dir", "", "directory for validation tracks")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	r := newRenderer()
	job, ok := render.Find(r.Jobs(), args[0])
	if !ok {
		return fmt.Errorf("unknown asset %q (see `easel catalog`)", args[0])
	}

	samples, rate, err := loadForPlay(r, job)
	if err != nil {
		return err
	}

	p, err := player.New(rate)
	if err != nil {
		return err
	}
	logger.Info("playing", zap.String("asset", job.Name), zap.Duration("duration", player.Duration(len(samples), rate)))

	progress := progressPrinter(cmd.ErrOrStderr(), job.Name)
	err = p.Play(cmd.Context(), samples, progress)
	if progress != nil {
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func loadForPlay(r *render.Renderer, job render.Job) ([]int16, int, error) {
	if playFromDisk {
		return audio.ReadFile(r.Path(job))
	}
	buf, err := r.Render(job)
	if err != nil {
		return nil, 0, err
	}
	return audio.Quantize(buf), cfg.SampleRate, nil
}

// progressPrinter returns nil when stderr is not a terminal.
func progressPrinter(w io.Writer, name string) func(elapsed, total time.Duration) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return func(elapsed, total time.Duration) {
		fmt.Fprintf(w, "\r%s  %s / %s", name, clock(elapsed), clock(total))
	}
}

func clock(d time.Duration) string {
	s := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
