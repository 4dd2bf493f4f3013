// Package debugserver exposes a read-only HTTP view of a running terrain
// session: heights, the resident chunk set, the path network and heightmap
// previews.
package debugserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-gl/mathgl/mgl64"

	"witchwood/internal/preview"
	"witchwood/internal/profiling"
	"witchwood/internal/world"
)

const defaultPreviewPixels = 256

// Handler serves one world.
type Handler struct {
	world *world.World
	log   *slog.Logger
}

// NewRouter returns the debug routes for w.
func NewRouter(w *world.World, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{world: w, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/height", h.GetHeight)
	r.Get("/chunks", h.GetChunks)
	r.Get("/chunks/{x}/{z}", h.GetChunk)
	r.Get("/path", h.GetPath)
	r.Get("/preview.png", h.GetPreview)
	r.Get("/profile", h.GetProfile)
	return r
}

// Serve runs handler on addr until ctx is cancelled, then shuts down.
func Serve(ctx context.Context, addr string, handler http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("debug server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "took", time.Since(start))
	})
}

// GetHeight handles GET /height?x=&z=
func (h *Handler) GetHeight(w http.ResponseWriter, r *http.Request) {
	x, err := floatParam(r, "x")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	z, err := floatParam(r, "z")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]float64{"x": x, "z": z, "height": h.world.HeightAt(x, z)})
}

// GetChunks handles GET /chunks
func (h *Handler) GetChunks(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.world.Streamer().Snapshot())
}

// GetChunk handles GET /chunks/{x}/{z}
func (h *Handler) GetChunk(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(chi.URLParam(r, "x"))
	z, errZ := strconv.Atoi(chi.URLParam(r, "z"))
	if errX != nil || errZ != nil {
		respondError(w, http.StatusBadRequest, "invalid chunk coordinate")
		return
	}
	want := world.ChunkCoord{X: x, Z: z}
	for _, info := range h.world.Streamer().Snapshot().Chunks {
		if info.Coord == want {
			respondJSON(w, http.StatusOK, info)
			return
		}
	}
	respondError(w, http.StatusNotFound, fmt.Sprintf("chunk %v is not resident", want))
}

type pathResponse struct {
	Points    [][2]float64 `json:"points"`
	Segments  [][4]float64 `json:"segments"`
	Radius    float64      `json:"radius"`
	PathWidth float64      `json:"pathWidth"`
}

// GetPath handles GET /path
func (h *Handler) GetPath(w http.ResponseWriter, r *http.Request) {
	n := h.world.Network()
	resp := pathResponse{
		Points:    make([][2]float64, 0, len(n.Points())),
		Segments:  make([][4]float64, 0, len(n.Segments())),
		Radius:    n.Radius(),
		PathWidth: n.PathWidth(),
	}
	for _, p := range n.Points() {
		resp.Points = append(resp.Points, [2]float64{p.X(), p.Y()})
	}
	for _, s := range n.Segments() {
		resp.Segments = append(resp.Segments, [4]float64{s.A.X(), s.A.Y(), s.B.X(), s.B.Y()})
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetPreview handles GET /preview.png?x=&z=&size=&px=&scale=
// x and z default to the corner of the resident area, size to its width.
func (h *Handler) GetPreview(w http.ResponseWriter, r *http.Request) {
	cfg := h.world.Config()
	span := float64(2*cfg.Stream.ViewDistance+1) * cfg.Terrain.ChunkSize
	center := h.world.Streamer().Snapshot().Viewer
	corner := center.Origin(cfg.Terrain.ChunkSize).Sub(mgl64.Vec2{
		float64(cfg.Stream.ViewDistance) * cfg.Terrain.ChunkSize,
		float64(cfg.Stream.ViewDistance) * cfg.Terrain.ChunkSize,
	})

	x, errX := floatParamOr(r, "x", corner.X())
	z, errZ := floatParamOr(r, "z", corner.Y())
	size, errS := floatParamOr(r, "size", span)
	px, errP := intParamOr(r, "px", defaultPreviewPixels)
	scale, errK := intParamOr(r, "scale", 1)
	if err := errors.Join(errX, errZ, errS, errP, errK); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if size <= 0 || px < 1 || scale < 1 {
		respondError(w, http.StatusBadRequest, "size, px and scale must be positive")
		return
	}

	img, err := preview.Render(h.world.Heights(), preview.Options{
		Origin:    mgl64.Vec2{x, z},
		Size:      size,
		Pixels:    px,
		Amplitude: cfg.Terrain.Amplitude,
		Zones:     h.world.Network(),
		Label:     fmt.Sprintf("seed %d", cfg.Seed),
	})
	if err == nil && scale > 1 {
		img, err = preview.Scale(img, px*scale, px*scale)
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := preview.WritePNG(w, img); err != nil {
		h.log.Warn("writing preview", "error", err)
	}
}

// GetProfile handles GET /profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	timings := map[string]float64{}
	for name, d := range profiling.Snapshot() {
		timings[name] = float64(d.Microseconds()) / 1000
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"timingsMs": timings,
		"counters":  profiling.Counters(),
	})
}

func floatParam(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}

func floatParamOr(r *http.Request, name string, def float64) (float64, error) {
	if r.URL.Query().Get(name) == "" {
		return def, nil
	}
	return floatParam(r, name)
}

func intParamOr(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
