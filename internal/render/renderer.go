package render

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/satindergrewal/easel/internal/audio"
	"github.com/satindergrewal/easel/internal/metrics"
	"github.com/satindergrewal/easel/internal/synth"
)

// ErrNoMatch is returned when a name filter selects no assets.
var ErrNoMatch = errors.New("no assets match filter")

// Config holds the output layout of a render run.
type Config struct {
	OutputDir     string
	TestOutputDir string
	ManifestPath  string // empty disables the manifest
	MetricsFile   string // empty disables the textfile export
	Workers       int
	Only          string // asset name prefix
}

// Renderer synthesizes catalog assets and writes them to disk.
type Renderer struct {
	synth *synth.Synthesizer
	cfg   Config
	log   *zap.Logger
}

// New creates a Renderer.
func New(s *synth.Synthesizer, cfg Config, log *zap.Logger) *Renderer {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{synth: s, cfg: cfg, log: log}
}

// Jobs returns the full job list of the renderer's catalog.
func (r *Renderer) Jobs() []Job {
	return Jobs(r.synth.Catalog())
}

// Path returns where job is written.
func (r *Renderer) Path(job Job) string {
	if job.Kind == KindTest {
		return filepath.Join(r.cfg.TestOutputDir, job.Filename)
	}
	return filepath.Join(r.cfg.OutputDir, job.Filename)
}

// Render synthesizes job into a normalized buffer.
func (r *Renderer) Render(job Job) ([]float64, error) {
	switch job.Kind {
	case KindWellness:
		return r.synth.WellnessTrack(job.Profile, job.Texture, float64(job.Duration))
	case KindTest:
		return r.synth.TestTrack(job.TestID)
	default:
		return nil, fmt.Errorf("%s: unknown job kind %q", job.Name, job.Kind)
	}
}

// Run renders every selected asset with a bounded worker pool. The first
// failure cancels the remaining jobs. On success the manifest is updated and
// returned.
func (r *Renderer) Run(ctx context.Context) (*Manifest, error) {
	all := r.Jobs()
	jobs := Filter(all, r.cfg.Only)
	if len(jobs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatch, r.cfg.Only)
	}

	for _, dir := range []string{r.cfg.OutputDir, r.cfg.TestOutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}

	r.log.Info("render started",
		zap.Int("assets", len(jobs)),
		zap.Int("workers", r.cfg.Workers),
		zap.String("only", r.cfg.Only))
	start := time.Now()

	assets := make([]Asset, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, err := r.renderJob(job)
			if err != nil {
				return err
			}
			assets[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.exportMetrics()
		return nil, err
	}

	m := &Manifest{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Seed:        r.synth.Options().Seed,
		SampleRate:  r.synth.SampleRate(),
		Assets:      assets,
	}
	if r.cfg.ManifestPath != "" {
		if r.cfg.Only != "" {
			prev, err := ReadManifest(r.cfg.ManifestPath)
			if err != nil {
				return nil, err
			}
			if prev != nil {
				m.Assets = merge(all, prev.stamped(), assets)
			}
		}
		if err := WriteManifest(r.cfg.ManifestPath, m); err != nil {
			return nil, err
		}
	}

	metrics.LastRunTimestamp.SetToCurrentTime()
	r.exportMetrics()
	r.log.Info("render finished",
		zap.String("run_id", m.RunID),
		zap.Int("assets", len(jobs)),
		zap.Duration("elapsed", time.Since(start)))
	return m, nil
}

func (r *Renderer) renderJob(job Job) (Asset, error) {
	log := r.log.With(zap.String("asset", job.Name))
	start := time.Now()

	buf, err := r.Render(job)
	if err != nil {
		metrics.AssetsTotal.WithLabelValues(string(job.Kind), "error").Inc()
		log.Error("synthesis failed", zap.Error(err))
		return Asset{}, err
	}
	samples := audio.Quantize(buf)

	path := r.Path(job)
	if err := audio.WriteFileAtomic(path, samples, r.synth.SampleRate()); err != nil {
		metrics.AssetsTotal.WithLabelValues(string(job.Kind), "error").Inc()
		log.Error("write failed", zap.String("path", path), zap.Error(err))
		return Asset{}, err
	}

	peak := samplePeak(samples)
	elapsed := time.Since(start)
	metrics.AssetsTotal.WithLabelValues(string(job.Kind), "ok").Inc()
	metrics.RenderSeconds.WithLabelValues(string(job.Kind)).Observe(elapsed.Seconds())
	metrics.SamplesWrittenTotal.Add(float64(len(samples)))
	log.Info("asset written",
		zap.String("path", path),
		zap.Int("samples", len(samples)),
		zap.Float64("peak", peak),
		zap.Duration("elapsed", elapsed))

	return r.describe(job, path, len(samples), peak), nil
}

func (r *Renderer) describe(job Job, path string, n int, peak float64) Asset {
	a := Asset{
		Name:       job.Name,
		Kind:       job.Kind,
		Path:       r.relPath(path),
		Profile:    job.Profile,
		Texture:    job.Texture,
		Duration:   job.Duration,
		Samples:    n,
		Peak:       peak,
		Seed:       r.synth.Options().Seed,
		SampleRate: r.synth.SampleRate(),
	}
	cat := r.synth.Catalog()
	switch job.Kind {
	case KindWellness:
		p, perr := cat.Profile(job.Profile)
		tx, terr := cat.Texture(job.Texture)
		if perr == nil && terr == nil {
			a.DisplayName = fmt.Sprintf("%s · %s (%ds)", p.DisplayName, tx.DisplayName, job.Duration)
			a.Description = p.Description
		}
	case KindTest:
		if tp, err := cat.TestProfile(job.TestID); err == nil {
			a.DisplayName = tp.DisplayName
			a.Description = tp.Description
		}
	}
	return a
}

// relPath makes path relative to the manifest directory.
func (r *Renderer) relPath(path string) string {
	base := filepath.Dir(r.cfg.ManifestPath)
	if r.cfg.ManifestPath == "" {
		base = filepath.Dir(r.cfg.OutputDir)
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (r *Renderer) exportMetrics() {
	if r.cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(r.cfg.MetricsFile); err != nil {
		r.log.Warn("metrics export failed", zap.String("path", r.cfg.MetricsFile), zap.Error(err))
	}
}

func samplePeak(samples []int16) float64 {
	var m float64
	for _, s := range samples {
		m = math.Max(m, math.Abs(float64(s)))
	}
	return m / math.MaxInt16
}
