// Command terrainview flies a camera over the streamed terrain.
//
// Controls: mouse looks, WASD moves, Space/Shift rise and sink, G toggles
// walking (ground follow and boundary clamping), F toggles wireframe, Esc
// releases the cursor.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"witchwood/internal/config"
	"witchwood/internal/debugserver"
	"witchwood/internal/graphics"
	"witchwood/internal/profiling"
	"witchwood/internal/world"
)

const eyeHeight = 1.7

func init() {
	runtime.LockOSThread()
}

func main() {
	var (
		cfgPath = flag.String("config", "", "settings file (yaml)")
		remote  = flag.String("fetch", "", "fetch settings from a go-getter source instead")
		seed    = flag.Int64("seed", 0, "override the world seed when non-zero")
		listen  = flag.String("listen", "", "serve debug endpoints on this address")
		workers = flag.Int("workers", runtime.NumCPU(), "mesh workers for static terrain prewarm")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithCancel(context.Background())
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

	if err := glfw.Init(); err != nil {
		log.Error("glfw init", "error", err)
		os.Exit(1)
	}
	defer glfw.Terminate()

	window, err := setupWindow()
	if err != nil {
		log.Error("create window", "error", err)
		os.Exit(1)
	}

	r, err := graphics.NewRenderer(cfg.Terrain.ChunkSize, cfg.Terrain.Amplitude)
	if err != nil {
		log.Error("create renderer", "error", err)
		os.Exit(1)
	}
	defer r.Close()

	cam := graphics.NewCamera(graphics.WinWidth, graphics.WinHeight, mgl32.Vec3{0, float32(cfg.Terrain.Amplitude) + 5, 0})
	w, err := world.New(cfg, r.Collaborators(cam), log)
	if err != nil {
		log.Error("create world", "error", err)
		os.Exit(1)
	}
	if cfg.Stream.StaticTerrain {
		if err := w.Prewarm(ctx, *workers); err != nil {
			log.Error("prewarm", "error", err)
			os.Exit(1)
		}
	}
	if cfg.Debug.Listen != "" {
		go func() {
			if err := debugserver.Serve(ctx, cfg.Debug.Listen, debugserver.NewRouter(w, log), log); err != nil {
				log.Error("debug server", "error", err)
			}
		}()
	}

	v := &viewer{cam: cam, world: w, renderer: r}
	v.setupInputHandlers(window)
	v.run(window, log)
}

func setupWindow() (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(graphics.WinWidth, graphics.WinHeight, "witchwood", nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()

	glfw.SwapInterval(1)
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	return window, nil
}

type viewer struct {
	cam      *graphics.Camera
	world    *world.World
	renderer *graphics.Renderer
	paused   bool
	walking  bool
}

func (v *viewer) setupInputHandlers(window *glfw.Window) {
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if !v.paused {
			v.cam.HandleMouseMovement(xpos, ypos)
		}
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyF:
			v.renderer.ToggleWireframe()
		case glfw.KeyG:
			v.walking = !v.walking
			v.world.Boundary().Reset()
		case glfw.KeyEscape:
			v.paused = !v.paused
			if v.paused {
				w.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
			} else {
				w.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
				v.cam.ResetMouse()
			}
		}
	})
}

func axis(window *glfw.Window, pos, neg glfw.Key) float32 {
	var a float32
	if window.GetKey(pos) == glfw.Press {
		a++
	}
	if window.GetKey(neg) == glfw.Press {
		a--
	}
	return a
}

// move applies keyboard input. Walking keeps the eye above the ground and
// inside the clearings and paths.
func (v *viewer) move(window *glfw.Window, dt float64) {
	defer profiling.Track("viewer.Move")()
	forward := axis(window, glfw.KeyW, glfw.KeyS)
	right := axis(window, glfw.KeyD, glfw.KeyA)
	up := axis(window, glfw.KeySpace, glfw.KeyLeftShift)
	if v.walking {
		up = 0
	}
	v.cam.Move(forward, right, up, dt)
	if !v.walking {
		return
	}
	pos, _ := v.world.Boundary().Update(v.cam.Position)
	ground := v.world.HeightAt(float64(pos.X()), float64(pos.Z()))
	pos[1] = float32(ground) + eyeHeight
	v.cam.Position = pos
}

func (v *viewer) run(window *glfw.Window, log *slog.Logger) {
	frames := 0
	lastFPSCheckTime := time.Now()
	lastTime := time.Now()

	for !window.ShouldClose() {
		profiling.ResetTick()
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if !v.paused {
			v.move(window, dt)
		}
		v.world.Tick()

		func() { defer profiling.Track("renderer.Render")(); v.renderer.Render(v.cam) }()
		frames++

		if time.Since(lastFPSCheckTime) >= time.Second {
			st := v.world.Streamer().Stats()
			log.Info("frame stats",
				"fps", frames,
				"resident", st.Resident,
				"pooled", st.Pooled,
				"rebuilt", st.Rebuilt,
				"slowest", profiling.TopN(3))
			frames = 0
			lastFPSCheckTime = time.Now()
		}

		func() { defer profiling.Track("glfw.SwapBuffers")(); window.SwapBuffers() }()
		func() { defer profiling.Track("glfw.PollEvents")(); glfw.PollEvents() }()
	}
}
