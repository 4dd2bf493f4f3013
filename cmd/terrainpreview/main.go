// Command terrainpreview renders a heightmap PNG of a seeded world, or serves
// the debug endpoints for a headless streaming session.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"witchwood/internal/config"
	"witchwood/internal/debugserver"
	"witchwood/internal/preview"
	"witchwood/internal/world"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "settings file (yaml)")
		remote   = flag.String("fetch", "", "fetch settings from a go-getter source instead")
		seed     = flag.Int64("seed", 0, "override the world seed when non-zero")
		out      = flag.String("o", "terrain.png", "output PNG path")
		pixels   = flag.Int("px", 512, "rendered pixels per side")
		scale    = flag.Int("scale", 1, "upscale factor applied after rendering")
		centerX  = flag.Float64("x", 0, "world x at the image centre")
		centerZ  = flag.Float64("z", 0, "world z at the image centre")
		serve    = flag.Bool("serve", false, "run the debug server instead of writing a PNG")
		listen   = flag.String("listen", "", "debug server address (overrides settings)")
		fixed    = flag.Int("fixed", 0, "render a fixed island of this many cells instead of the streamed world")
		verbose  = flag.Bool("v", false, "debug logging")
		workers  = flag.Int("workers", 4, "mesh workers for prewarming")
		dumpYAML = flag.Bool("dump-config", false, "print the effective settings and exit")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Open(ctx, *cfgPath, *remote, "")
	if err != nil {
		log.Error("load settings", "error", err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *listen != "" {
		cfg.Debug.Listen = *listen
	}
	if *dumpYAML {
		data, err := config.Marshal(cfg)
		if err != nil {
			log.Error("marshal settings", "error", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
		return
	}

	if *fixed > 0 {
		if err := writeFixed(cfg, *fixed, *out, log); err != nil {
			log.Error("fixed terrain", "error", err)
			os.Exit(1)
		}
		return
	}

	viewer := &world.StaticViewer{Position: mgl32.Vec3{float32(*centerX), 0, float32(*centerZ)}}
	w, err := world.New(cfg, world.Collaborators{Viewer: viewer}, log)
	if err != nil {
		log.Error("create world", "error", err)
		os.Exit(1)
	}

	if *serve {
		if err := w.Prewarm(ctx, *workers); err != nil {
			log.Error("prewarm", "error", err)
			os.Exit(1)
		}
		w.Tick()
		addr := cfg.Debug.Listen
		if addr == "" {
			addr = "127.0.0.1:7070"
		}
		if err := debugserver.Serve(ctx, addr, debugserver.NewRouter(w, log), log); err != nil {
			log.Error("debug server", "error", err)
			os.Exit(1)
		}
		return
	}

	span := float64(2*cfg.Stream.ViewDistance+1) * cfg.Terrain.ChunkSize
	img, err := preview.Render(w.Heights(), preview.Options{
		Origin:    mgl64.Vec2{*centerX - span/2, *centerZ - span/2},
		Size:      span,
		Pixels:    *pixels,
		Amplitude: cfg.Terrain.Amplitude,
		Zones:     w.Network(),
		Label:     fmt.Sprintf("seed %d", cfg.Seed),
	})
	if err == nil && *scale > 1 {
		img, err = preview.Scale(img, *pixels * *scale, *pixels * *scale)
	}
	if err != nil {
		log.Error("render preview", "error", err)
		os.Exit(1)
	}
	if err := writePNG(*out, img); err != nil {
		log.Error("write preview", "error", err)
		os.Exit(1)
	}
	log.Info("wrote preview", "path", *out, "seed", cfg.Seed, "span", span)
}

// writeFixed renders the heights of a single fixed island mesh.
func writeFixed(cfg *config.Config, cells int, out string, log *slog.Logger) error {
	mesh, err := world.BuildFixedTerrain(cfg, cells, 1, log)
	if err != nil {
		return err
	}
	img, err := preview.Render(meshHeights{mesh.Vertices, cells}, preview.Options{
		Size:      float64(cells),
		Pixels:    cells + 1,
		Amplitude: cfg.Terrain.Amplitude,
		Label:     fmt.Sprintf("island %d", cfg.Seed),
	})
	if err != nil {
		return err
	}
	if img, err = preview.Scale(img, 512, 512); err != nil {
		return err
	}
	if err := writePNG(out, img); err != nil {
		return err
	}
	log.Info("wrote fixed terrain", "path", out, "triangles", mesh.TriangleCount())
	return nil
}

// meshHeights reads vertex heights back from a unit-spaced grid mesh.
type meshHeights struct {
	vertices []mgl32.Vec3
	cells    int
}

func (m meshHeights) Height(x, z float64) float64 {
	ix := min(max(int(x+0.5), 0), m.cells)
	iz := min(max(int(z+0.5), 0), m.cells)
	return float64(m.vertices[iz*(m.cells+1)+ix].Y())
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := preview.WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
