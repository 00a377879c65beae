package audio

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type decodedTrack struct {
	info    Track
	samples []int16 // padded to a whole number of frames
	frames  int
}

func (d *decodedTrack) frame(i int) []int16 {
	i %= d.frames
	return d.samples[i*FrameSamples : (i+1)*FrameSamples]
}

// Status is a snapshot of what the pipeline is playing.
type Status struct {
	Track    Track
	Playing  bool
	Position time.Duration
	Duration time.Duration
	Loops    int
}

type sendResult int

const (
	sent sendResult = iota
	skipped
	cancelled
)

// Pipeline loops a rendered asset as real-time PCM frames. Queued assets
// replace the current one through a crossfade; with nothing queued the
// current asset repeats.
type Pipeline struct {
	trackCh      chan Track
	frameCh      chan []int16
	skipCh       chan struct{}
	crossfadeDur time.Duration
	log          *zap.Logger

	mu     sync.RWMutex
	status Status
}

// NewPipeline creates a pipeline with the given crossfade duration.
func NewPipeline(crossfadeDuration time.Duration, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		trackCh:      make(chan Track, 8),
		frameCh:      make(chan []int16, 100),
		skipCh:       make(chan struct{}, 1),
		crossfadeDur: crossfadeDuration,
		log:          log,
	}
}

// Frames returns the channel of outgoing PCM frames (20ms each).
func (p *Pipeline) Frames() <-chan []int16 {
	return p.frameCh
}

// Enqueue queues an asset. It reports false when the queue is full.
func (p *Pipeline) Enqueue(t Track) bool {
	select {
	case p.trackCh <- t:
		return true
	default:
		return false
	}
}

// QueueSize returns the number of assets waiting in the queue.
func (p *Pipeline) QueueSize() int {
	return len(p.trackCh)
}

// Skip stops the current asset, including one still fading in. The pipeline
// stays silent until the next queued asset is decoded.
func (p *Pipeline) Skip() {
	select {
	case p.skipCh <- struct{}{}:
	default:
	}
}

// Status returns current playback info.
func (p *Pipeline) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Run starts the pipeline. Blocks until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) {
	defer close(p.frameCh)

	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()

	decodedCh := make(chan *decodedTrack, 2)
	go p.decode(ctx, decodedCh)

	var cur *decodedTrack
	pos := 0
	for {
		if cur == nil {
			select {
			case <-ctx.Done():
				return
			case d := <-decodedCh:
				cur, pos = d, 0
				p.setTrack(d)
				p.log.Info("now playing", zap.String("asset", d.info.Name), zap.Int("frames", d.frames))
			}
			continue
		}

		select {
		case next := <-decodedCh:
			var res sendResult
			cur, pos, res = p.crossfade(ctx, ticker, cur, pos, next)
			switch res {
			case cancelled:
				return
			case skipped:
				p.log.Info("asset skipped during crossfade", zap.String("asset", next.info.Name))
				p.setIdle()
			}
			continue
		default:
		}

		switch p.sendFrame(ctx, ticker, cur.frame(pos)) {
		case cancelled:
			return
		case skipped:
			p.log.Info("asset skipped", zap.String("asset", cur.info.Name))
			cur = nil
			p.setIdle()
			continue
		}

		pos++
		if pos >= cur.frames {
			pos = 0
			p.mu.Lock()
			p.status.Loops++
			p.mu.Unlock()
		}
		p.updatePosition(pos)
	}
}

// decode turns queued paths into frame-aligned PCM.
func (p *Pipeline) decode(ctx context.Context, out chan<- *decodedTrack) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-p.trackCh:
			samples, rate, err := ReadFile(t.Path)
			if err != nil {
				p.log.Error("decode failed", zap.String("asset", t.Name), zap.Error(err))
				continue
			}
			if rate != SampleRate {
				p.log.Warn("sample rate mismatch, skipping",
					zap.String("asset", t.Name), zap.Int("rate", rate), zap.Int("want", SampleRate))
				continue
			}
			if len(samples) == 0 {
				p.log.Warn("empty asset, skipping", zap.String("asset", t.Name))
				continue
			}
			frames := (len(samples) + FrameSamples - 1) / FrameSamples
			padded := make([]int16, frames*FrameSamples)
			copy(padded, samples)

			select {
			case out <- &decodedTrack{info: t, samples: padded, frames: frames}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// crossfade blends from the current asset into next and returns the asset and
// frame to continue from. A skip drops both sides.
func (p *Pipeline) crossfade(ctx context.Context, ticker *time.Ticker, cur *decodedTrack, pos int, next *decodedTrack) (*decodedTrack, int, sendResult) {
	cfFrames := int(p.crossfadeDur / FrameDuration)
	cfFrames = min(cfFrames, next.frames/2)

	p.setTrack(next)
	p.log.Info("crossfading",
		zap.String("from", cur.info.Name), zap.String("to", next.info.Name), zap.Int("frames", cfFrames))

	for i := 0; i < cfFrames; i++ {
		progress := float64(i) / float64(cfFrames)
		frame := CrossfadeFrames(cur.frame(pos+i), next.frame(i), progress, Smoothstep)
		switch p.sendFrame(ctx, ticker, frame) {
		case cancelled:
			return nil, 0, cancelled
		case skipped:
			return nil, 0, skipped
		}
		p.updatePosition(i + 1)
	}
	return next, cfFrames % next.frames, sent
}

// sendFrame waits for the ticker then sends a frame.
func (p *Pipeline) sendFrame(ctx context.Context, ticker *time.Ticker, frame []int16) sendResult {
	select {
	case <-ctx.Done():
		return cancelled
	case <-p.skipCh:
		return skipped
	case <-ticker.C:
	}

	select {
	case p.frameCh <- frame:
		return sent
	case <-ctx.Done():
		return cancelled
	}
}

func (p *Pipeline) setTrack(d *decodedTrack) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = Status{
		Track:    d.info,
		Playing:  true,
		Duration: time.Duration(d.frames) * FrameDuration,
	}
}

func (p *Pipeline) setIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = Status{}
}

func (p *Pipeline) updatePosition(frameIdx int) {
	p.mu.Lock()
	p.status.Position = time.Duration(frameIdx) * FrameDuration
	p.mu.Unlock()
}
