// terraingen generates fractal terrain meshes and serves them to renderers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/fractal-terrain/internal/config"
	"github.com/Faultbox/fractal-terrain/internal/debug"
	"github.com/Faultbox/fractal-terrain/internal/logger"
	"github.com/Faultbox/fractal-terrain/internal/server"
	"github.com/Faultbox/fractal-terrain/internal/terrain"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	switch args[0] {
	case "generate", "gen":
		err = cmdGenerate(cfg, args[1:], os.Stdout)
	case "serve":
		err = cmdServe(cfg)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`terraingen - fractal terrain mesh generator

Usage:
  terraingen [global options] <command> [options]

Commands:
  generate [-out mesh.trn] [-obj mesh.obj] [-preview preview.png] [-dump]
                       Generate a terrain and write it to disk
  serve                Serve the terrain over HTTP and WebSocket

Global options:
  -config <path>       Config file (default ./config.yaml or the user config dir)
  -div <n>             Cells per side, power of two
  -seed <n>            Random seed
  -roughness <f>       Perturbation per unit of offset
  -renormalize         Rescale averaged normals to unit length
  -addr <host:port>    Server listen address
  -debug               Enable debug logging
  -log-file <path>     Write logs to this file

Examples:
  terraingen -div 256 -seed 7 generate -out mesh.trn -preview preview.png
  terraingen -div 128 generate -obj mesh.obj
  terraingen -addr :8080 serve`)
}

func buildTerrain(cfg *config.Config) (*terrain.Terrain, error) {
	t, err := terrain.New(cfg.Terrain, terrain.WithLogger(logger.Named("terrain")))
	if err != nil {
		return nil, err
	}
	t.LogBuffers()
	return t, nil
}

func cmdGenerate(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	out := fs.String("out", "", "Write the mesh as a .trn container")
	obj := fs.String("obj", "", "Write the mesh as Wavefront OBJ")
	preview := fs.String("preview", "", "Write a top-down preview image (.png or .bmp)")
	heights := fs.Bool("heights", false, "Render the preview as a height map instead of band colors")
	dump := fs.Bool("dump", false, "Print vertex and face lines to stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" && *obj == "" && *preview == "" && !*dump {
		*out = "mesh.trn"
	}

	t, err := buildTerrain(cfg)
	if err != nil {
		return err
	}

	if *out != "" {
		if err := t.WriteTRN(*out); err != nil {
			return err
		}
	}

	if *obj != "" {
		if err := writeOBJ(t, *obj); err != nil {
			return err
		}
		logger.Log.Info("wrote OBJ mesh", zap.String("path", *obj))
	}

	if *preview != "" {
		if err := writePreview(cfg, t, *preview, *heights); err != nil {
			return err
		}
		logger.Log.Info("wrote preview", zap.String("path", *preview))
	}

	if *dump {
		return t.Dump(stdout)
	}
	return nil
}

func writeOBJ(t *terrain.Terrain, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := t.WriteOBJ(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func writePreview(cfg *config.Config, t *terrain.Terrain, path string, heights bool) error {
	p := debug.NewPreview(cfg.Preview.Width, cfg.Preview.Height, cfg.Preview.Format)
	if heights {
		return p.Save(path, debug.HeightImage(t.HeightField()))
	}
	img, err := debug.ColorImage(t.Buffers().Colors, t.Div())
	if err != nil {
		return err
	}
	return p.Save(path, img)
}

func cmdServe(cfg *config.Config) error {
	if err := server.CheckDiv(cfg.Server, cfg.Terrain.Div); err != nil {
		return err
	}

	t, err := buildTerrain(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server, cfg.Preview, t, logger.Named("server"))
	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
