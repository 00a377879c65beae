package stream

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/satindergrewal/easel/internal/audio"
)

// Asset is a rendered file the preview server can play.
type Asset struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"` // under /assets/
	Path        string `json:"-"`
}

// ServerOptions wires the preview server.
type ServerOptions struct {
	Assets      []Asset
	AssetRoot   string // served under /assets/
	Pipeline    *audio.Pipeline
	Broadcaster *Broadcaster
	WebRTC      *WebRTCHandler // nil disables /offer
	Log         *zap.Logger
}

type server struct {
	opts   ServerOptions
	byName map[string]Asset
	log    *zap.Logger
}

// NewServer returns the preview router.
func NewServer(opts ServerOptions) http.Handler {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	s := &server{opts: opts, byName: make(map[string]Asset, len(opts.Assets)), log: opts.Log}
	for _, a := range opts.Assets {
		s.byName[a.Name] = a
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(s.logging)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/assets", s.listAssets)
		r.Post("/play", s.play)
		r.Post("/skip", s.skip)
		r.Get("/status", s.status)
	})

	r.Get("/stream", NewHTTPHandler(opts.Broadcaster, opts.Log).ServeHTTP)
	if opts.WebRTC != nil {
		r.Post("/offer", opts.WebRTC.ServeHTTP)
	}
	if opts.AssetRoot != "" {
		r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.Dir(opts.AssetRoot))))
	}
	return r
}

func (s *server) listAssets(w http.ResponseWriter, r *http.Request) {
	assets := s.opts.Assets
	if assets == nil {
		assets = []Asset{}
	}
	writeJSON(w, http.StatusOK, assets)
}

func (s *server) play(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Asset string `json:"asset"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Asset == "" {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	a, ok := s.byName[req.Asset]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown asset")
		return
	}
	if !s.opts.Pipeline.Enqueue(audio.Track{Name: a.Name, Path: a.Path}) {
		writeError(w, http.StatusServiceUnavailable, "play queue full")
		return
	}
	s.log.Info("asset queued", zap.String("asset", a.Name))
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "asset": a.Name})
}

func (s *server) skip(w http.ResponseWriter, r *http.Request) {
	s.opts.Pipeline.Skip()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *server) status(w http.ResponseWriter, r *http.Request) {
	st := s.opts.Pipeline.Status()
	peers := 0
	if s.opts.WebRTC != nil {
		peers = s.opts.WebRTC.PeerCount()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"asset":            st.Track.Name,
		"playing":          st.Playing,
		"position":         st.Position.Seconds(),
		"duration":         st.Duration.Seconds(),
		"loops":            st.Loops,
		"queue_size":       s.opts.Pipeline.QueueSize(),
		"http_listeners":   s.opts.Broadcaster.ListenerCount(),
		"webrtc_listeners": peers,
		"dropped_frames":   s.opts.Broadcaster.Dropped(),
	})
}

func (s *server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
