package stream

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/satindergrewal/easel/internal/audio"
)

// HTTPHandler serves the preview as an endless WAV stream: a header with
// open-ended sizes followed by raw PCM frames.
type HTTPHandler struct {
	broadcaster *Broadcaster
	log         *zap.Logger
}

// NewHTTPHandler creates an HTTP stream handler.
func NewHTTPHandler(b *Broadcaster, log *zap.Logger) *HTTPHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPHandler{broadcaster: b, log: log}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "close")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(audio.StreamHeader(audio.SampleRate)); err != nil {
		return
	}
	flusher.Flush()

	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	log := h.log.With(zap.String("remote", r.RemoteAddr))
	log.Info("http listener connected", zap.Int("listeners", h.broadcaster.ListenerCount()))
	defer log.Info("http listener disconnected")

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-listener.Done():
			return
		case frame := <-listener.C:
			if _, err := w.Write(audio.SamplesToBytes(frame)); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
