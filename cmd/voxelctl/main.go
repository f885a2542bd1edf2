// Command voxelctl manages stored worlds.
//
//	voxelctl [-db path] create -name NAME [-seed SEED] [-mode survival|creative]
//	voxelctl [-db path] list
//	voxelctl [-db path] delete -name NAME
//	voxelctl [-db path] preview -name NAME [-radius R] [-size PX] [-out FILE]
//	voxelctl fetch-config -src URL -dst FILE
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/uptrixio/platformer/internal/config"
	"github.com/uptrixio/platformer/internal/noise"
	"github.com/uptrixio/platformer/internal/preview"
	"github.com/uptrixio/platformer/internal/storage"
	"github.com/uptrixio/platformer/internal/world"
)

func main() {
	dbPath := config.Default().Storage.Path
	configPath := ""
	flag.StringVar(&dbPath, "db", dbPath, "sqlite database path")
	flag.StringVar(&configPath, "config", "", "path to a YAML settings file")
	flag.Usage = usage
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	if cmd == "fetch-config" {
		if err := fetchConfig(ctx, args); err != nil {
			log.Error("fetch-config", "error", err)
			os.Exit(1)
		}
		return
	}

	settings, err := config.Load(configPath)
	if err != nil {
		log.Error("load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	store, err := storage.OpenSQLite(dbPath, settings.Storage.Compress)
	if err != nil {
		log.Error("open storage", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	switch cmd {
	case "create":
		err = create(ctx, store, args)
	case "list":
		err = list(ctx, store)
	case "delete":
		err = remove(ctx, store, args)
	case "preview":
		err = render(ctx, store, settings, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error(cmd, "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: voxelctl [-db path] [-config file] create|list|delete|preview|fetch-config [flags]\n")
	flag.PrintDefaults()
}

func create(ctx context.Context, store storage.Store, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	name := fs.String("name", "", "world name")
	seed := fs.String("seed", "", "seed text; random when empty")
	mode := fs.String("mode", storage.GameModeSurvival, "survival|creative")
	_ = fs.Parse(args)

	meta, err := store.CreateWorld(ctx, *name, *seed, *mode)
	if errors.Is(err, storage.ErrWorldExists) {
		return fmt.Errorf("world %q already exists", *name)
	}
	if err != nil {
		return err
	}
	fmt.Printf("created %s (seed %s, %s)\n", meta.Name, meta.Seed, meta.GameMode)
	return nil
}

func list(ctx context.Context, store storage.Store) error {
	worlds, err := store.ListWorlds(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSEED\tMODE\tCREATED\tGENERATED")
	for _, w := range worlds {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%v\n", w.Name, w.Seed, w.GameMode, w.CreatedAt.Local().Format(time.DateTime), w.Generated)
	}
	return tw.Flush()
}

func remove(ctx context.Context, store storage.Store, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	name := fs.String("name", "", "world name")
	_ = fs.Parse(args)

	if err := store.DeleteWorld(ctx, *name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no world named %q", *name)
		}
		return err
	}
	fmt.Printf("deleted %s\n", *name)
	return nil
}

type previewArgs struct {
	name   string
	radius int
	size   int
	out    string
}

// parsePreviewArgs reads the preview flags. The radius defaults to the
// menu render distance, the radius of a world thumbnail.
func parsePreviewArgs(settings config.Settings, args []string) (previewArgs, error) {
	var p previewArgs
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	fs.StringVar(&p.name, "name", "", "world name")
	fs.IntVar(&p.radius, "radius", settings.MenuRenderDistance, "radius in chunks")
	fs.IntVar(&p.size, "size", 256, "output edge in pixels")
	fs.StringVar(&p.out, "out", "", "output PNG; defaults to NAME.png")
	if err := fs.Parse(args); err != nil {
		return p, err
	}
	return p, nil
}

func render(ctx context.Context, store storage.Store, settings config.Settings, args []string) error {
	p, err := parsePreviewArgs(settings, args)
	if err != nil {
		return err
	}

	meta, err := store.World(ctx, p.name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no world named %q", p.name)
		}
		return err
	}
	if p.out == "" {
		p.out = meta.Name + ".png"
	}

	gen := world.NewGenerationContext(noise.ParseSeed(meta.Seed), settings.Terrain)
	img, err := preview.Render(ctx, gen, preview.Options{
		Radius: p.radius,
		Size:   p.size,
		Label:  meta.Name,
	})
	if err != nil {
		return err
	}

	f, err := os.Create(p.out)
	if err != nil {
		return err
	}
	if err := preview.WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", p.out)
	return nil
}

func fetchConfig(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fetch-config", flag.ExitOnError)
	src := fs.String("src", "", "go-getter source (URL, path, git::...)")
	dst := fs.String("dst", "config.yaml", "destination file")
	_ = fs.Parse(args)

	settings, err := config.FetchAndLoad(ctx, *src, *dst)
	if err != nil {
		return err
	}
	fmt.Printf("fetched %s: render distance %d, sea level %d\n", *dst, settings.RenderDistance, settings.Terrain.SeaLevel)
	return nil
}
