package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WAV format constants.
const (
	HeaderSize = 44
	FormatPCM  = 1

	maxFmtSize    = 256
	openEndedSize = 0xFFFFFFFF // data size of a stream header: read to EOF
)

var (
	ErrNotWAV            = errors.New("not a RIFF/WAVE file")
	ErrUnsupportedFormat = errors.New("unsupported WAV format")
)

func header(dataSize uint32, sampleRate int) []byte {
	h := make([]byte, HeaderSize)
	blockAlign := Channels * BitDepth / 8

	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], 36+dataSize)
	copy(h[8:12], "WAVE")

	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16)
	binary.LittleEndian.PutUint16(h[20:22], FormatPCM)
	binary.LittleEndian.PutUint16(h[22:24], Channels)
	binary.LittleEndian.PutUint32(h[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(h[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(h[34:36], BitDepth)

	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], dataSize)
	return h
}

// StreamHeader returns a WAV header for a stream of unknown length. Players
// treat the maximal chunk sizes as "read until EOF".
func StreamHeader(sampleRate int) []byte {
	h := header(openEndedSize-36, sampleRate)
	binary.LittleEndian.PutUint32(h[40:44], openEndedSize)
	return h
}

// EncodeWAV writes mono 16-bit PCM samples as a complete WAV file.
func EncodeWAV(w io.Writer, samples []int16, sampleRate int) error {
	if _, err := w.Write(header(uint32(len(samples)*2), sampleRate)); err != nil {
		return err
	}
	_, err := w.Write(SamplesToBytes(samples))
	return err
}

// DecodeWAV reads a mono 16-bit PCM WAV stream. Chunks other than "fmt "
// and "data" are skipped.
func DecodeWAV(r io.Reader) ([]int16, int, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, 0, fmt.Errorf("read RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, 0, ErrNotWAV
	}

	sampleRate := 0
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return nil, 0, fmt.Errorf("read chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			if size > maxFmtSize {
				return nil, 0, fmt.Errorf("%w: fmt chunk of %d bytes", ErrUnsupportedFormat, size)
			}
			body := make([]byte, size+size%2)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, 0, fmt.Errorf("read fmt chunk: %w", err)
			}
			if size < 16 {
				return nil, 0, fmt.Errorf("%w: fmt chunk of %d bytes", ErrUnsupportedFormat, size)
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			channels := binary.LittleEndian.Uint16(body[2:4])
			bits := binary.LittleEndian.Uint16(body[14:16])
			if format != FormatPCM || channels != Channels || bits != BitDepth {
				return nil, 0, fmt.Errorf("%w: format=%d channels=%d bits=%d",
					ErrUnsupportedFormat, format, channels, bits)
			}
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))

		case "data":
			if sampleRate == 0 {
				return nil, 0, fmt.Errorf("%w: data before fmt", ErrUnsupportedFormat)
			}
			// The declared size is untrusted; grow the buffer only as bytes arrive.
			data, err := io.ReadAll(io.LimitReader(r, int64(size)))
			if err != nil {
				return nil, 0, fmt.Errorf("read data chunk: %w", err)
			}
			if size != openEndedSize && uint32(len(data)) < size {
				return nil, 0, fmt.Errorf("read data chunk: %w", io.ErrUnexpectedEOF)
			}
			return BytesToSamples(data), sampleRate, nil

		default:
			if _, err := io.CopyN(io.Discard, r, int64(size+size%2)); err != nil {
				return nil, 0, fmt.Errorf("skip %q chunk: %w", id, err)
			}
		}
	}
}

// ReadFile decodes the WAV file at path.
func ReadFile(path string) ([]int16, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	samples, rate, err := DecodeWAV(bufio.NewReader(f))
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	return samples, rate, nil
}

// WriteFileAtomic writes samples as a WAV file at path. The file is written
// to a temporary name in the same directory and renamed into place, so
// readers never observe a partial file.
func WriteFileAtomic(path string, samples []int16, sampleRate int) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriterSize(tmp, 64*1024)
	if err = EncodeWAV(bw, samples, sampleRate); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
