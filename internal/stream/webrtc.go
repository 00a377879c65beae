package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/interceptor/pkg/nack"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"go.uber.org/zap"
	"gopkg.in/hraban/opus.v2"

	"github.com/satindergrewal/easel/internal/audio"
	"github.com/satindergrewal/easel/internal/metrics"
)

const (
	iceGatherTimeout = 10 * time.Second
	opusBitrate      = 64000 // mono
)

// WebRTCHandler serves SDP negotiation for low-latency Opus preview.
type WebRTCHandler struct {
	broadcaster *Broadcaster
	api         *webrtc.API
	log         *zap.Logger

	mu    sync.Mutex
	peers []*peer
}

// peer is one negotiated or negotiating connection and the listener feeding it.
type peer struct {
	pc       *webrtc.PeerConnection
	listener *Listener
	closed   atomic.Bool
}

// NewWebRTCHandler creates a WebRTC stream handler with Opus registered and a
// NACK responder so peers can recover lost packets.
func NewWebRTCHandler(b *Broadcaster, log *zap.Logger) (*WebRTCHandler, error) {
	if log == nil {
		log = zap.NewNop()
	}

	m := &webrtc.MediaEngine{}
	if err := m.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: webrtc.RTPCodecCapability{
			MimeType:    webrtc.MimeTypeOpus,
			ClockRate:   audio.SampleRate,
			Channels:    2, // opus is always signalled as stereo
			SDPFmtpLine: "minptime=10;useinbandfec=1",
		},
		PayloadType: 111,
	}, webrtc.RTPCodecTypeAudio); err != nil {
		return nil, fmt.Errorf("register opus codec: %w", err)
	}

	ir := &interceptor.Registry{}
	responder, err := nack.NewResponderInterceptor()
	if err != nil {
		return nil, fmt.Errorf("create nack responder: %w", err)
	}
	ir.Add(responder)

	return &WebRTCHandler{
		broadcaster: b,
		api:         webrtc.NewAPI(webrtc.WithMediaEngine(m), webrtc.WithInterceptorRegistry(ir)),
		log:         log,
	}, nil
}

// PeerCount returns the number of WebRTC peers, including ones still
// negotiating.
func (h *WebRTCHandler) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

func (h *WebRTCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var offer webrtc.SessionDescription
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		http.Error(w, "invalid SDP offer", http.StatusBadRequest)
		return
	}

	pc, err := h.api.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		http.Error(w, "create peer connection failed", http.StatusInternalServerError)
		return
	}
	p := h.addPeer(pc)
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		if s == webrtc.PeerConnectionStateFailed ||
			s == webrtc.PeerConnectionStateClosed ||
			s == webrtc.PeerConnectionStateDisconnected {
			if h.closePeer(p) {
				h.log.Info("webrtc peer disconnected",
					zap.Stringer("state", s), zap.Int("peers", h.PeerCount()))
			}
		}
	})
	fail := func(msg string, code int) {
		h.closePeer(p)
		http.Error(w, msg, code)
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio",
		"easel-preview",
	)
	if err != nil {
		fail("create audio track failed", http.StatusInternalServerError)
		return
	}

	sender, err := pc.AddTrack(track)
	if err != nil {
		fail("add track failed", http.StatusInternalServerError)
		return
	}
	// Drain RTCP so the NACK responder sees incoming reports.
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()
	go h.streamToPeer(p.listener, track)

	if err := pc.SetRemoteDescription(offer); err != nil {
		fail("set remote description failed", http.StatusBadRequest)
		return
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		fail("create answer failed", http.StatusInternalServerError)
		return
	}

	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		fail("set local description failed", http.StatusInternalServerError)
		return
	}

	select {
	case <-gatherComplete:
	case <-time.After(iceGatherTimeout):
		fail("ICE gathering timed out", http.StatusGatewayTimeout)
		return
	case <-r.Context().Done():
		h.closePeer(p)
		return
	}
	h.log.Info("webrtc peer connected", zap.Int("peers", h.PeerCount()))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pc.LocalDescription())
}

// addPeer registers pc and subscribes its listener.
func (h *WebRTCHandler) addPeer(pc *webrtc.PeerConnection) *peer {
	p := &peer{pc: pc, listener: h.broadcaster.Subscribe()}
	h.mu.Lock()
	h.peers = append(h.peers, p)
	h.mu.Unlock()
	return p
}

func (h *WebRTCHandler) streamToPeer(listener *Listener, track *webrtc.TrackLocalStaticSample) {
	defer h.broadcaster.Unsubscribe(listener)

	enc, err := opus.NewEncoder(audio.SampleRate, audio.Channels, opus.AppAudio)
	if err != nil {
		h.log.Error("opus encoder", zap.Error(err))
		return
	}
	if err := enc.SetBitrate(opusBitrate); err != nil {
		h.log.Warn("opus bitrate", zap.Error(err))
	}

	opusBuf := make([]byte, 4000)
	for {
		select {
		case <-listener.Done():
			return
		case frame := <-listener.C:
			n, err := enc.Encode(frame, opusBuf)
			if err != nil {
				metrics.OpusEncodeErrorsTotal.Inc()
				h.log.Warn("opus encode", zap.Error(err))
				continue
			}
			if err := track.WriteSample(media.Sample{
				Data:     opusBuf[:n],
				Duration: audio.FrameDuration,
			}); err != nil {
				return
			}
		}
	}
}

// closePeer unsubscribes, unregisters and closes p. It reports whether this
// call did the work; later calls, including ones from the state callback that
// pc.Close triggers, are no-ops.
func (h *WebRTCHandler) closePeer(p *peer) bool {
	if !p.closed.CompareAndSwap(false, true) {
		return false
	}
	h.broadcaster.Unsubscribe(p.listener)
	h.mu.Lock()
	for i, q := range h.peers {
		if q == p {
			h.peers = append(h.peers[:i], h.peers[i+1:]...)
			break
		}
	}
	h.mu.Unlock()
	p.pc.Close()
	return true
}

// Close tears down every peer.
func (h *WebRTCHandler) Close() {
	h.mu.Lock()
	peers := append([]*peer(nil), h.peers...)
	h.mu.Unlock()
	for _, p := range peers {
		h.closePeer(p)
	}
}
