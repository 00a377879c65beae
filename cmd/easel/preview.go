package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satindergrewal/easel/internal/audio"
	"github.com/satindergrewal/easel/internal/render"
	"github.com/satindergrewal/easel/internal/stream"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Serve the generated catalog for auditioning",
	Long: `Starts an HTTP server that loops a chosen asset as a live WAV stream
(/stream) and over WebRTC (/offer). Assets are picked with POST /api/play.`,
	Args: cobra.NoArgs,
	RunE: runPreview,
}

func init() {
	f := previewCmd.Flags()
	f.String("preview-addr", ":8090", "listen address")
	f.Duration("crossfade", 2*time.Second, "crossfade between assets")
	f.String("output-dir", "", "directory for wellness tracks")
	f.String("test-output-dir", "", "directory for validation tracks")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	r := newRenderer()

	root := filepath.Dir(filepath.Clean(cfg.OutputDir))
	assets := previewAssets(r, root)
	if len(assets) == 0 {
		logger.Warn("no rendered assets found, run `easel generate` first", zap.String("dir", root))
	}

	pipeline := audio.NewPipeline(cfg.Crossfade, logger.Named("pipeline"))
	go pipeline.Run(ctx)

	broadcaster := stream.NewBroadcaster(logger.Named("broadcast"))
	go broadcaster.Run(ctx, pipeline.Frames())

	rtc, err := stream.NewWebRTCHandler(broadcaster, logger.Named("webrtc"))
	if err != nil {
		logger.Warn("webrtc disabled", zap.Error(err))
		rtc = nil
	} else {
		defer rtc.Close()
	}

	srv := &http.Server{
		Addr: cfg.PreviewAddr,
		Handler: stream.NewServer(stream.ServerOptions{
			Assets:      assets,
			AssetRoot:   root,
			Pipeline:    pipeline,
			Broadcaster: broadcaster,
			WebRTC:      rtc,
			Log:         logger.Named("http"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("preview listening", zap.String("addr", cfg.PreviewAddr), zap.Int("assets", len(assets)))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// previewAssets lists the catalog assets present on disk.
func previewAssets(r *render.Renderer, root string) []stream.Asset {
	names := map[string]string{}
	if m, err := render.ReadManifest(cfg.ManifestPath); err != nil {
		logger.Warn("manifest unreadable", zap.Error(err))
	} else if m != nil {
		for _, a := range m.Assets {
			names[a.Name] = a.DisplayName
		}
	}

	var out []stream.Asset
	for _, job := range r.Jobs() {
		path := r.Path(job)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		url := "/assets/" + job.Filename
		if rel, err := filepath.Rel(root, path); err == nil {
			url = "/assets/" + filepath.ToSlash(rel)
		}
		display := names[job.Name]
		if display == "" {
			display = job.Name
		}
		out = append(out, stream.Asset{
			Name:        job.Name,
			Kind:        string(job.Kind),
			DisplayName: display,
			URL:         url,
			Path:        path,
		})
	}
	return out
}
