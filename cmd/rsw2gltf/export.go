package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-gltf/internal/logger"
	"github.com/Faultbox/midgard-gltf/internal/scene"
	"github.com/Faultbox/midgard-gltf/internal/textures"
	"github.com/Faultbox/midgard-gltf/pkg/export"
	"github.com/Faultbox/midgard-gltf/pkg/formats"
)

var errUnsupportedInput = errors.New("unsupported input: expected .rsw or .rsm")

// readInput reads path from disk, falling back to the game sources as given
// and under data/.
func readInput(src scene.Source, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if data, serr := src.ReadFile(path); serr == nil {
		return data, nil
	}
	if data, serr := src.ReadFile(scene.DataDir + path); serr == nil {
		return data, nil
	}
	return nil, fmt.Errorf("reading %s: %w", path, err)
}

// walk feeds the file at path into s through w.
func walk(w *scene.Walker, path string, data []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rsw":
		return w.WalkWorld(path, data)
	case ".rsm":
		return w.WalkModel(path, data)
	default:
		return fmt.Errorf("%s: %w", path, errUnsupportedInput)
	}
}

// session walks path into a new session. The converter is nil when no
// textures are exported.
func (e *env) session(ctx context.Context, path string) (*export.Session, *textures.Converter, error) {
	data, err := readInput(e.src, path)
	if err != nil {
		return nil, nil, err
	}
	opts := e.cfg.ExportOptions(formats.ModelStem(path), e.log)
	s := export.New(ctx, opts)

	var conv *textures.Converter
	if opts.Materials && opts.Textures {
		conv = textures.NewConverter(e.log)
	}
	w := scene.New(ctx, s, scene.Config{Source: e.src, Textures: conv, Logger: e.log})
	if err := walk(w, path, data); err != nil {
		return nil, nil, err
	}
	return s, conv, nil
}

// exportFile exports path into the output directory. Textures are written
// only after the asset itself.
func (e *env) exportFile(ctx context.Context, path string) (*export.Result, error) {
	s, conv, err := e.session(ctx, path)
	if err != nil {
		return nil, err
	}
	res, err := s.Finish(e.cfg.Output.Dir)
	if err != nil {
		return nil, err
	}
	if conv != nil {
		if err := conv.WriteAll(e.cfg.Output.Dir); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func printResult(path string, res *export.Result) {
	fmt.Printf("%s -> %s (%d nodes, %d meshes, %d materials, %d vertices, %d triangles)\n",
		path, res.GLTFPath, res.Nodes, res.Meshes, res.Materials, res.Vertices, res.Triangles)
}

func cmdExport(ctx context.Context, args []string) error {
	e, err := setup("export", args)
	if err != nil {
		return err
	}
	defer e.Close()

	if len(e.args) != 1 {
		return errors.New("usage: rsw2gltf export [options] <world.rsw|model.rsm>")
	}
	res, err := e.exportFile(ctx, e.args[0])
	if err != nil {
		return err
	}
	printResult(e.args[0], res)
	return nil
}

func cmdBatch(ctx context.Context, args []string) error {
	e, err := setup("batch", args)
	if err != nil {
		return err
	}
	defer e.Close()

	if len(e.args) == 0 {
		return errors.New("usage: rsw2gltf batch [options] <file>...")
	}
	if err := checkDistinctNames(e.args); err != nil {
		return err
	}

	workers := e.cfg.Batch.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger.Info("batch export", zap.Int("files", len(e.args)), zap.Int("workers", workers))

	// A failed file does not stop the others; every failure is reported.
	var (
		g        errgroup.Group
		mu       sync.Mutex
		failures []error
	)
	results := make([]*export.Result, len(e.args))
	g.SetLimit(workers)
	for i, path := range e.args {
		g.Go(func() error {
			res, err := e.exportFile(ctx, path)
			if err != nil {
				logger.Error("export failed", zap.String("file", path), zap.Error(err))
				mu.Lock()
				failures = append(failures, fmt.Errorf("%s: %w", path, err))
				mu.Unlock()
				return nil
			}
			results[i] = res
			return nil
		})
	}
	g.Wait()

	for i, res := range results {
		if res != nil {
			printResult(e.args[i], res)
		}
	}
	return errors.Join(failures...)
}

// checkDistinctNames rejects inputs that would write the same output files.
func checkDistinctNames(paths []string) error {
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		name := strings.ToLower(formats.ModelStem(p))
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("%s and %s both export as %s.gltf", prev, p, name)
		}
		seen[name] = p
	}
	return nil
}
