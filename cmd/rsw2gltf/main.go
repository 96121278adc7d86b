// rsw2gltf exports Ragnarok Online worlds and models to glTF 2.0 with
// structural metadata.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/internal/config"
	"github.com/Faultbox/midgard-gltf/internal/logger"
	"github.com/Faultbox/midgard-gltf/internal/scene"
	"github.com/Faultbox/midgard-gltf/pkg/grf"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch command {
	case "export":
		err = cmdExport(ctx, args)
	case "batch":
		err = cmdBatch(ctx, args)
	case "info":
		err = cmdInfo(ctx, args)
	case "schema":
		err = cmdSchema(ctx, args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`rsw2gltf - Ragnarok Online world and model exporter

Usage:
  rsw2gltf <command> [options] <file>...

Commands:
  export <world.rsw|model.rsm>    Export one file to <out>/<name>.gltf and .bin
  batch <file>...                 Export several files concurrently
  info <file>                     Show file contents and export counts
  schema <file>                   Print the structural metadata schema

Options (every command):
  -config path      Config file (.yaml or .toml)
  -grf archive      GRF archive, repeatable
  -data dir         Extracted data directory, searched before archives
  -o dir            Output directory
  -workers n        Concurrent exports in batch mode
  -no-textures, -no-materials, -no-normals, -no-links, -no-metadata
  -flip-axis, -scale factor, -debug

Examples:
  rsw2gltf export -grf data.grf prontera.rsw
  rsw2gltf batch -o out -workers 4 prontera.rsw geffen.rsw
  rsw2gltf schema -grf data.grf data/model/prontera/wall01.rsm`)
}

// env is the state shared by every command.
type env struct {
	cfg     *config.Config
	src     scene.Source
	log     *zap.Logger
	closers []io.Closer
	args    []string
}

func (e *env) Close() {
	for _, c := range e.closers {
		c.Close()
	}
}

// setup parses flags, loads the config, starts logging and opens the game
// file sources.
func setup(name string, args []string) (*env, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		return nil, err
	}
	logger.InitWithFileConfig(cfg.Logging.Level, cfg.FileConfig(), true)

	e := &env{cfg: cfg, log: logger.Log, args: fs.Args()}
	var chain scene.Chain
	if cfg.Source.DataDir != "" {
		chain = append(chain, scene.Dir(cfg.Source.DataDir))
	}
	for _, path := range cfg.Source.GRFPaths {
		archive, err := grf.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("archive not found, skipping", zap.String("grf", path))
			continue
		}
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		logger.Debug("archive opened",
			zap.String("grf", path),
			zap.Uint32("version", archive.Version()),
			zap.Int("files", len(archive.List())))
		chain = append(chain, archive)
		e.closers = append(e.closers, archive)
	}
	e.src = chain
	return e, nil
}
