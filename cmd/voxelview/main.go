// Command voxelview opens a stored world in a desktop window.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/uptrixio/platformer/internal/config"
	"github.com/uptrixio/platformer/internal/graphics"
	"github.com/uptrixio/platformer/internal/graphics/renderables/chunks"
	"github.com/uptrixio/platformer/internal/graphics/renderables/crosshair"
	"github.com/uptrixio/platformer/internal/graphics/renderables/wireframe"
	renderer "github.com/uptrixio/platformer/internal/graphics/renderer"
	"github.com/uptrixio/platformer/internal/input"
	"github.com/uptrixio/platformer/internal/noise"
	"github.com/uptrixio/platformer/internal/storage"
	"github.com/uptrixio/platformer/internal/world"
)

func init() {
	// GLFW and GL calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	cfg := config.Default()
	var (
		configPath string
		worldName  string
		seed       string
		create     bool
		fly        bool
		mode       string
		verbose    bool
		fpsLimit   int
	)
	flag.StringVar(&configPath, "config", "", "path to a YAML settings file")
	flag.StringVar(&cfg.Storage.Path, "db", cfg.Storage.Path, "sqlite database path")
	flag.IntVar(&cfg.RenderDistance, "render-distance", cfg.RenderDistance, "render distance in chunks")
	flag.IntVar(&cfg.MaxChunksPerTick, "max-chunks-per-tick", cfg.MaxChunksPerTick, "chunks generated per frame")
	flag.StringVar(&worldName, "world", "", "world to open")
	flag.StringVar(&seed, "seed", "", "seed for a world created with -create")
	flag.BoolVar(&create, "create", false, "create the world if it does not exist")
	flag.BoolVar(&fly, "fly", false, "start in fly mode (creative worlds only)")
	flag.StringVar(&mode, "mode", storage.GameModeSurvival, "game mode for a world created with -create")
	flag.IntVar(&fpsLimit, "fps", 144, "frame rate cap, 0 for none")
	flag.BoolVar(&verbose, "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if worldName == "" {
		log.Error("missing -world")
		os.Exit(2)
	}

	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	if configPath != "" {
		fromFile, err := config.Load(configPath)
		if err != nil {
			log.Error("load config", "path", configPath, "error", err)
			os.Exit(1)
		}
		config.Merge(&cfg, &fromFile, explicit)
	} else {
		cfg.Normalize()
	}

	opts := viewOptions{world: worldName, seed: seed, mode: mode, create: create, fly: fly, fpsLimit: fpsLimit}
	if err := run(cfg, opts, log); err != nil {
		log.Error("voxelview", "error", err)
		os.Exit(1)
	}
}

type viewOptions struct {
	world    string
	seed     string
	mode     string
	create   bool
	fly      bool
	fpsLimit int
}

func run(cfg config.Settings, opts viewOptions, log *slog.Logger) error {
	ctx := context.Background()

	store, err := storage.OpenSQLite(cfg.Storage.Path, cfg.Storage.Compress)
	if err != nil {
		return err
	}
	defer store.Close()

	meta, err := store.World(ctx, opts.world)
	if errors.Is(err, storage.ErrNotFound) && opts.create {
		meta, err = store.CreateWorld(ctx, opts.world, opts.seed, opts.mode)
		if err == nil {
			log.Info("created world", "world", meta.Name, "seed", meta.Seed, "mode", meta.GameMode)
		}
	}
	if err != nil {
		return err
	}

	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	window, err := setupWindow(meta.Name)
	if err != nil {
		return err
	}

	width, height := window.GetFramebufferSize()
	camera := graphics.NewCamera(width, height)
	chunkRenderer := chunks.New(cfg.RenderDistance)
	r, err := renderer.NewRenderer(camera,
		chunkRenderer,
		wireframe.New(),
		crosshair.New(),
	)
	if err != nil {
		return err
	}
	defer r.Dispose()
	r.UpdateViewport(width, height)

	w := world.New(world.Options{
		Name:     meta.Name,
		Seed:     noise.ParseSeed(meta.Seed),
		Settings: cfg,
		Store:    store,
		Consumer: chunkRenderer,
		Logger:   log,
	})
	w.OnReady(func() {
		log.Info("world ready", "chunks", w.Loaded())
		if meta.Generated {
			return
		}
		if err := store.MarkGenerated(ctx, meta.Name); err != nil {
			log.Warn("mark generated", "error", err)
		}
	})

	loop := NewGameLoop(window, r, w, input.NewInputManager(), log)
	loop.chunks = chunkRenderer
	loop.canFly = canFly(meta.GameMode)
	if opts.fly && !loop.canFly {
		log.Warn("fly mode needs a creative world", "mode", meta.GameMode)
	}
	loop.flying = opts.fly && loop.canFly
	loop.fpsLimiter = NewFPSLimiter(opts.fpsLimit)
	if p, err := store.LoadPlayer(ctx, meta.Name); err == nil {
		loop.body.Position = p.Position
		camera.Yaw, camera.Pitch = p.Yaw, p.Pitch
	} else {
		loop.body.Position = w.FindSpawn()
	}
	loop.installCallbacks()
	loop.Run()

	saveCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	// Detaching happens on this thread while the GL context is still alive.
	if err := w.Close(saveCtx); err != nil {
		log.Error("save world", "error", err)
	}
	state := storage.PlayerState{Position: loop.body.Position, Yaw: camera.Yaw, Pitch: camera.Pitch}
	if err := store.SavePlayer(saveCtx, meta.Name, state); err != nil {
		log.Error("save player", "error", err)
	}
	return nil
}

func setupWindow(title string) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(1280, 720, "voxelview - "+title, nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()

	// Initialize OpenGL bindings
	if err := gl.Init(); err != nil {
		return nil, err
	}

	// Disable V-Sync; FPSLimiter paces frames
	glfw.SwapInterval(0)
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	return window, nil
}
