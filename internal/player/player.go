package player

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/satindergrewal/easel/internal/audio"
)

const pollInterval = 50 * time.Millisecond

// Player plays mono 16-bit PCM through the system audio device. Only one
// Player may exist per process.
type Player struct {
	ctx  *oto.Context
	rate int
}

// New opens the audio device at sampleRate.
func New(sampleRate int) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: audio.Channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready
	return &Player{ctx: ctx, rate: sampleRate}, nil
}

// Play blocks until samples have played out or ctx is cancelled. progress,
// if non-nil, is called on every poll with the elapsed playback time.
func (p *Player) Play(ctx context.Context, samples []int16, progress func(elapsed, total time.Duration)) error {
	src := newCountingReader(bytes.NewReader(audio.SamplesToBytes(samples)))
	pl := p.ctx.NewPlayer(src)
	defer pl.Close()

	total := Duration(len(samples), p.rate)
	pl.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for pl.IsPlaying() {
		select {
		case <-ctx.Done():
			pl.Pause()
			return ctx.Err()
		case <-ticker.C:
			if progress != nil {
				buffered := int64(pl.BufferedSize())
				played := max(src.Count()-buffered, 0) / 2
				progress(Duration(int(played), p.rate), total)
			}
		}
	}
	if progress != nil {
		progress(total, total)
	}
	return nil
}

// Duration converts a sample count at rate to wall time.
func Duration(samples, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(rate)
}

// countingReader tracks how many bytes the device has pulled.
type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func newCountingReader(r io.Reader) *countingReader {
	return &countingReader{r: r}
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

func (c *countingReader) Count() int64 { return c.n.Load() }
