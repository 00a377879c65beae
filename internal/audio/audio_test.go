package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"
)

// --- Constants ---

func TestConstants(t *testing.T) {
	// 48kHz * 20ms = 960 samples
	assert.Equal(t, FrameSize, SampleRate*int(FrameDuration/time.Millisecond)/1000)
	assert.Equal(t, FrameSize*Channels, FrameSamples)
	assert.Equal(t, FrameSamples*2, FrameBytes)
	assert.Equal(t, 1, Channels)
}

// --- Quantize ---

func TestQuantizeTruncates(t *testing.T) {
	got := Quantize([]float64{0, 1, -1, 0.5, -0.5, 0.85, 1e-6})
	assert.Equal(t, []int16{0, 32767, -32767, 16383, -16383, 27851, 0}, got)
}

func TestQuantizeClips(t *testing.T) {
	got := Quantize([]float64{2, -2, math.Inf(1), math.Inf(-1)})
	assert.Equal(t, []int16{32767, -32768, 32767, -32768}, got)
}

func TestQuantizeBoundedProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		x := rapid.Float64Range(-1, 1).Draw(rt, "x")
		q := Quantize([]float64{x})[0]
		if math.Abs(float64(q)-x*32767) >= 1 {
			rt.Fatalf("Quantize(%v) = %d, more than one step from %v", x, q, x*32767)
		}
		if x >= 0 && q < 0 || x <= 0 && q > 0 {
			rt.Fatalf("Quantize(%v) = %d changed sign", x, q)
		}
	})
}

// --- SamplesToBytes / round-trip ---

func TestSamplesToBytes(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 256}
	buf := SamplesToBytes(samples)
	require.Len(t, buf, len(samples)*2)

	// 256 = 0x0100 -> bytes [0x00, 0x01]
	assert.Equal(t, []byte{0x00, 0x01}, buf[10:12])
}

func TestSamplesBytesRoundTrip(t *testing.T) {
	want := []int16{0, 1, -1, 32767, -32768, 12345, -6789}
	assert.Equal(t, want, BytesToSamples(SamplesToBytes(want)))
	assert.Len(t, BytesToSamples([]byte{1, 2, 3}), 1)
}

// --- WAV ---

func TestEncodeWAVHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeWAV(&buf, []int16{1, 2, 3}, 48000))

	b := buf.Bytes()
	require.Len(t, b, HeaderSize+6)
	assert.Equal(t, "RIFF", string(b[0:4]))
	assert.Equal(t, uint32(36+6), binary.LittleEndian.Uint32(b[4:8]))
	assert.Equal(t, "WAVE", string(b[8:12]))
	assert.Equal(t, "fmt ", string(b[12:16]))
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(b[16:20]))
	assert.Equal(t, uint16(FormatPCM), binary.LittleEndian.Uint16(b[20:22]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(b[22:24]))
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(b[24:28]))
	assert.Equal(t, uint32(96000), binary.LittleEndian.Uint32(b[28:32]))
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(b[32:34]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(b[34:36]))
	assert.Equal(t, "data", string(b[36:40]))
	assert.Equal(t, uint32(6), binary.LittleEndian.Uint32(b[40:44]))
}

func TestWAVRoundTrip(t *testing.T) {
	samples := []int16{0, 100, -100, 32767, -32768}
	var buf bytes.Buffer
	require.NoError(t, EncodeWAV(&buf, samples, 44100))

	got, rate, err := DecodeWAV(&buf)
	require.NoError(t, err)
	assert.Equal(t, 44100, rate)
	assert.Equal(t, samples, got)
}

func TestDecodeWAVSkipsUnknownChunks(t *testing.T) {
	var enc bytes.Buffer
	require.NoError(t, EncodeWAV(&enc, []int16{7, -7}, 48000))
	b := enc.Bytes()

	// Splice a LIST chunk with an odd size between fmt and data.
	var spliced bytes.Buffer
	spliced.Write(b[:36])
	spliced.WriteString("LIST")
	binary.Write(&spliced, binary.LittleEndian, uint32(3))
	spliced.Write([]byte{'a', 'b', 'c', 0})
	spliced.Write(b[36:])

	got, rate, err := DecodeWAV(&spliced)
	require.NoError(t, err)
	assert.Equal(t, 48000, rate)
	assert.Equal(t, []int16{7, -7}, got)
}

func TestDecodeWAVRejects(t *testing.T) {
	_, _, err := DecodeWAV(bytes.NewReader([]byte("RIFF\x00\x00\x00\x00AVI LIST")))
	assert.ErrorIs(t, err, ErrNotWAV)

	var enc bytes.Buffer
	require.NoError(t, EncodeWAV(&enc, []int16{1}, 48000))
	stereo := enc.Bytes()
	binary.LittleEndian.PutUint16(stereo[22:24], 2)
	_, _, err = DecodeWAV(bytes.NewReader(stereo))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, _, err = DecodeWAV(bytes.NewReader(enc.Bytes()[:20]))
	assert.Error(t, err)
}

func TestStreamHeader(t *testing.T) {
	h := StreamHeader(48000)
	require.Len(t, h, HeaderSize)
	assert.Equal(t, uint32(0xFFFFFFFF), binary.LittleEndian.Uint32(h[4:8]))
	assert.Equal(t, uint32(0xFFFFFFFF), binary.LittleEndian.Uint32(h[40:44]))
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(h[24:28]))
}

func TestDecodeWAVStreamHeaderReadsToEOF(t *testing.T) {
	stream := append(StreamHeader(48000), SamplesToBytes([]int16{3, -3})...)
	got, rate, err := DecodeWAV(bytes.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, 48000, rate)
	assert.Equal(t, []int16{3, -3}, got)
}

func TestDecodeWAVTruncatedDataChunk(t *testing.T) {
	var enc bytes.Buffer
	require.NoError(t, EncodeWAV(&enc, []int16{1, 2}, 48000))
	data := enc.Bytes()
	binary.LittleEndian.PutUint32(data[40:44], 1<<30) // claims 1 GiB, holds 4 bytes

	_, _, err := DecodeWAV(bytes.NewReader(data))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecodeWAVOversizedFmtChunk(t *testing.T) {
	var enc bytes.Buffer
	require.NoError(t, EncodeWAV(&enc, []int16{1}, 48000))
	data := enc.Bytes()
	binary.LittleEndian.PutUint32(data[16:20], 0xFFFFFFF0)

	_, _, err := DecodeWAV(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edge-constantflow-18s.wav")

	samples := Quantize([]float64{0, 0.5, -0.5, 0.85})
	require.NoError(t, WriteFileAtomic(path, samples, 48000))

	got, rate, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 48000, rate)
	assert.Equal(t, samples, got)

	// Only the final file remains.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "edge-constantflow-18s.wav", entries[0].Name())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(HeaderSize+8), info.Size())
}

func TestWriteFileAtomicOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.wav")
	require.NoError(t, WriteFileAtomic(path, []int16{1, 2, 3, 4}, 48000))
	require.NoError(t, WriteFileAtomic(path, []int16{9}, 48000))

	got, _, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []int16{9}, got)
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "a.wav")
	err := WriteFileAtomic(path, []int16{1}, 48000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

// --- Smoothstep ---

func TestSmoothstepBoundaries(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{1.5, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Smoothstep(tt.input), "Smoothstep(%v)", tt.input)
	}
}

func TestSmoothstepMonotonic(t *testing.T) {
	prev := 0.0
	for i := 1; i <= 100; i++ {
		x := float64(i) / 100.0
		val := Smoothstep(x)
		if val < prev {
			t.Errorf("Smoothstep not monotonic: f(%v)=%v < %v", x, val, prev)
		}
		prev = val
	}
}

func TestSmoothstepSymmetry(t *testing.T) {
	// f(0.5+d) + f(0.5-d) = 1
	for _, d := range []float64{0.1, 0.2, 0.3, 0.4, 0.5} {
		assert.InDelta(t, 1.0, Smoothstep(0.5+d)+Smoothstep(0.5-d), 1e-10, "d=%v", d)
	}
}

func TestLinear(t *testing.T) {
	assert.Equal(t, 0.0, Linear(-1))
	assert.Equal(t, 0.25, Linear(0.25))
	assert.Equal(t, 1.0, Linear(3))
}

// --- CrossfadeFrames ---

func TestCrossfadeEnds(t *testing.T) {
	out := []int16{1000, -1000, 500, -500}
	in := []int16{2000, -2000, 1500, -1500}
	assert.Equal(t, out, CrossfadeFrames(out, in, 0, nil))
	assert.Equal(t, in, CrossfadeFrames(out, in, 1, nil))
}

func TestCrossfadeMidpoint(t *testing.T) {
	// smoothstep(0.5) = 0.5
	got := CrossfadeFrames([]int16{1000, -1000}, []int16{3000, -3000}, 0.5, Smoothstep)
	assert.Equal(t, []int16{2000, -2000}, got)
}

func TestCrossfadeClipping(t *testing.T) {
	got := CrossfadeFrames([]int16{32767, -32768}, []int16{32767, -32768}, 0.5, Linear)
	assert.Equal(t, []int16{32767, -32768}, got)
}

func TestCrossfadeUnevenLengths(t *testing.T) {
	got := CrossfadeFrames([]int16{1000}, []int16{1000, 1000}, 0.5, Linear)
	assert.Equal(t, []int16{1000, 500}, got)
}

// --- Pipeline ---

func writeAsset(t *testing.T, name string, frames int, value int16) Track {
	t.Helper()
	samples := make([]int16, frames*FrameSamples)
	for i := range samples {
		samples[i] = value
	}
	path := filepath.Join(t.TempDir(), name+".wav")
	require.NoError(t, WriteFileAtomic(path, samples, SampleRate))
	return Track{Name: name, Path: path}
}

func runPipeline(t *testing.T, crossfade time.Duration) *Pipeline {
	t.Helper()
	p := NewPipeline(crossfade, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return p
}

func TestNewPipeline(t *testing.T) {
	p := NewPipeline(2*time.Second, nil)
	require.NotNil(t, p)
	assert.Equal(t, 2*time.Second, p.crossfadeDur)
	assert.Equal(t, 0, p.QueueSize())
	assert.Equal(t, Status{}, p.Status())
}

func TestPipelineSkipNonBlocking(t *testing.T) {
	p := NewPipeline(time.Second, nil)
	p.Skip()
	p.Skip()
}

func TestPipelineEnqueueFull(t *testing.T) {
	p := NewPipeline(time.Second, nil)
	for i := 0; i < cap(p.trackCh); i++ {
		require.True(t, p.Enqueue(Track{Name: "x"}))
	}
	assert.False(t, p.Enqueue(Track{Name: "overflow"}))
	assert.Equal(t, cap(p.trackCh), p.QueueSize())
}

func TestPipelineLoopsAsset(t *testing.T) {
	track := writeAsset(t, "loop", 2, 1234)

	p := NewPipeline(0, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	require.True(t, p.Enqueue(track))

	// Five frames from a two-frame asset means it wrapped at least twice.
	for i := 0; i < 5; i++ {
		select {
		case f := <-p.Frames():
			require.Len(t, f, FrameSamples)
			assert.Equal(t, int16(1234), f[0])
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for frame")
		}
	}

	st := p.Status()
	assert.True(t, st.Playing)
	assert.Equal(t, "loop", st.Track.Name)
	assert.Equal(t, 2*FrameDuration, st.Duration)
	assert.GreaterOrEqual(t, st.Loops, 2)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	// Frames is closed once Run returns.
	for range p.Frames() {
	}
}

func TestPipelineSwitchesToQueuedAsset(t *testing.T) {
	first := writeAsset(t, "first", 4, 1000)
	second := writeAsset(t, "second", 4, -1000)

	p := runPipeline(t, 2*FrameDuration)

	require.True(t, p.Enqueue(first))
	f := <-p.Frames()
	assert.Equal(t, int16(1000), f[0])

	require.True(t, p.Enqueue(second))
	deadline := time.After(3 * time.Second)
	for {
		select {
		case f := <-p.Frames():
			if f[0] == -1000 {
				assert.Equal(t, "second", p.Status().Track.Name)
				return
			}
		case <-deadline:
			t.Fatal("never switched to queued asset")
		}
	}
}

func TestPipelineSkipGoesIdle(t *testing.T) {
	track := writeAsset(t, "skipme", 2, 5)

	p := runPipeline(t, 0)

	require.True(t, p.Enqueue(track))
	<-p.Frames()
	p.Skip()

	require.Eventually(t, func() bool {
		return !p.Status().Playing
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPipelineSkipDuringCrossfadeGoesIdle(t *testing.T) {
	first := writeAsset(t, "first", 4, 1000)
	second := writeAsset(t, "second", 250, -1000)

	p := runPipeline(t, 2*time.Second)

	require.True(t, p.Enqueue(first))
	<-p.Frames()
	require.True(t, p.Enqueue(second))

	// The status names the incoming asset as soon as the fade starts.
	require.Eventually(t, func() bool {
		return p.Status().Track.Name == "second"
	}, 2*time.Second, 5*time.Millisecond)
	p.Skip()

	require.Eventually(t, func() bool {
		return p.Status() == Status{}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPipelineIgnoresBadAsset(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.wav")
	require.NoError(t, os.WriteFile(bad, []byte("not a wav"), 0o644))

	p := runPipeline(t, 0)

	require.True(t, p.Enqueue(Track{Name: "bad", Path: bad}))
	good := writeAsset(t, "good", 1, 42)
	require.True(t, p.Enqueue(good))

	select {
	case f := <-p.Frames():
		assert.Equal(t, int16(42), f[0])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
}
