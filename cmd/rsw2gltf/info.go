package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/Faultbox/midgard-gltf/pkg/formats"
)

func cmdInfo(ctx context.Context, args []string) error {
	e, err := setup("info", args)
	if err != nil {
		return err
	}
	defer e.Close()

	if len(e.args) != 1 {
		return errors.New("usage: rsw2gltf info [options] <file>")
	}
	path := e.args[0]
	data, err := readInput(e.src, path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".rsw":
		rsw, err := formats.ParseRSW(data)
		if err != nil {
			return err
		}
		printWorld(path, rsw)
	case ".rsm":
		rsm, err := formats.ParseRSM(data)
		if err != nil {
			return err
		}
		printModel(path, rsm)
	default:
		return fmt.Errorf("%s: %w", path, errUnsupportedInput)
	}

	// Dry run: build in memory without textures.
	e.cfg.Export.Textures = false
	s, _, err := e.session(ctx, path)
	if err != nil {
		return err
	}
	out, err := s.Build()
	if err != nil {
		return err
	}
	doc := out.Document
	if err := doc.Check(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Println()
	fmt.Println("Export:")
	fmt.Printf("  Nodes:      %d\n", len(doc.Nodes))
	fmt.Printf("  Meshes:     %d\n", len(doc.Meshes))
	fmt.Printf("  Materials:  %d\n", len(doc.Materials))
	fmt.Printf("  Accessors:  %d\n", len(doc.Accessors))
	fmt.Printf("  Buffer:     %d bytes\n", len(out.Binary))
	fmt.Printf("  Classes:    %d\n", s.Schema().Schema().Classes.Len())
	return nil
}

func printWorld(path string, rsw *formats.RSW) {
	fmt.Printf("World:   %s\n", path)
	fmt.Printf("Version: %s\n", rsw.Version)
	fmt.Printf("Ground:  %s\n", rsw.GndFile)
	if rsw.GatFile != "" {
		fmt.Printf("Altitude: %s\n", rsw.GatFile)
	}
	fmt.Println()
	fmt.Println("Objects by type:")
	counts := rsw.CountByType()
	types := make([]formats.RSWObjectType, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		fmt.Printf("  %-10s %d\n", t, counts[t])
	}

	models := make(map[string]int)
	for _, m := range rsw.Models() {
		models[m.ModelName]++
	}
	fmt.Printf("\nDistinct models: %d\n", len(models))
}

func printModel(path string, rsm *formats.RSM) {
	fmt.Printf("Model:    %s\n", path)
	fmt.Printf("Version:  %s\n", rsm.Version)
	fmt.Printf("Shading:  %s\n", rsm.Shading)
	fmt.Printf("Alpha:    %.2f\n", rsm.Alpha)
	fmt.Printf("Textures: %d\n", len(rsm.Textures))
	for _, t := range rsm.Textures {
		fmt.Printf("  %s\n", t)
	}
	fmt.Printf("Nodes:    %d (%d vertices, %d faces)\n", len(rsm.Nodes), rsm.VertexCount(), rsm.FaceCount())
	for _, n := range rsm.Roots() {
		printNode(rsm, n, 1, map[*formats.RSMNode]bool{})
	}
}

func printNode(rsm *formats.RSM, n *formats.RSMNode, depth int, seen map[*formats.RSMNode]bool) {
	if seen[n] {
		return
	}
	seen[n] = true
	fmt.Printf("%s%s (%d vertices, %d faces)\n", strings.Repeat("  ", depth), n.Name, len(n.Vertices), len(n.Faces))
	for _, c := range rsm.Children(n.Name) {
		printNode(rsm, c, depth+1, seen)
	}
}

func cmdSchema(ctx context.Context, args []string) error {
	e, err := setup("schema", args)
	if err != nil {
		return err
	}
	defer e.Close()

	if len(e.args) != 1 {
		return errors.New("usage: rsw2gltf schema [options] <file>")
	}
	e.cfg.Export.Textures = false
	e.cfg.Export.Metadata = true
	s, _, err := e.session(ctx, e.args[0])
	if err != nil {
		return err
	}
	data, err := s.SchemaJSON()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(os.Stdout)
	return err
}
