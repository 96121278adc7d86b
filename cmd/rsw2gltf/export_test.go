package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/image/bmp"

	"github.com/Faultbox/midgard-gltf/internal/config"
	"github.com/Faultbox/midgard-gltf/internal/scene"
	"github.com/Faultbox/midgard-gltf/internal/textures"
	"github.com/Faultbox/midgard-gltf/pkg/export"
	"github.com/Faultbox/midgard-gltf/pkg/formats/formatstest"
	"github.com/Faultbox/midgard-gltf/pkg/gltf"
)

func testFiles(t *testing.T) scene.Files {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 90, G: 60, B: 30, A: 255})
	var tex bytes.Buffer
	require.NoError(t, bmp.Encode(&tex, img))

	model := formatstest.Model{
		Textures: []string{"roof.bmp"},
		Root:     "roof",
		Nodes: []formatstest.Node{{
			Name:      "roof",
			Textures:  []int32{0},
			Vertices:  [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}},
			TexCoords: [][2]float32{{0, 0}, {1, 0}, {0, 1}},
			Faces:     []formatstest.Face{{Vertices: [3]uint16{0, 1, 2}, TexCoords: [3]uint16{0, 1, 2}}},
		}},
	}
	world := formatstest.World{
		Models: []formatstest.Placement{{Name: "hut", Model: "hut.rsm", Scale: [3]float32{1, 1, 1}}},
	}
	return scene.Files{
		"data/town.rsw":         world.Bytes(),
		"data/model/hut.rsm":    model.Bytes(),
		"data/texture/roof.bmp": tex.Bytes(),
	}
}

func testEnv(t *testing.T) *env {
	t.Helper()
	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()
	return &env{cfg: cfg, src: testFiles(t), log: zap.NewNop()}
}

func TestExportFile(t *testing.T) {
	e := testEnv(t)
	res, err := e.exportFile(context.Background(), "town.rsw")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(e.cfg.Output.Dir, "town.gltf"), res.GLTFPath)
	assert.Equal(t, 1, res.Triangles)

	uri := textures.Dir + "/" + textures.FileName("data/texture/roof.bmp")
	data, err := os.ReadFile(res.GLTFPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"uri":"`+uri+`"`)
	assert.Contains(t, string(data), gltf.ExtStructuralMetadata)

	_, err = os.Stat(filepath.Join(e.cfg.Output.Dir, filepath.FromSlash(uri)))
	assert.NoError(t, err, "texture written next to the asset")
	_, err = os.Stat(res.BinPath)
	assert.NoError(t, err)
}

func TestExportFileWithoutTextures(t *testing.T) {
	e := testEnv(t)
	e.cfg.Export.Textures = false
	_, err := e.exportFile(context.Background(), "town.rsw")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(e.cfg.Output.Dir, textures.Dir))
	assert.True(t, os.IsNotExist(err))
}

func TestExportFileCanceled(t *testing.T) {
	e := testEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.exportFile(ctx, "town.rsw")
	require.ErrorIs(t, err, export.ErrCanceled)
	entries, err := os.ReadDir(e.cfg.Output.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExportFileErrors(t *testing.T) {
	e := testEnv(t)
	_, err := e.exportFile(context.Background(), "missing.rsw")
	assert.Error(t, err)

	e.src = scene.Files{"data/notes.txt": []byte("hello")}
	_, err = e.exportFile(context.Background(), "notes.txt")
	assert.ErrorIs(t, err, errUnsupportedInput)
}

func TestCheckDistinctNames(t *testing.T) {
	assert.NoError(t, checkDistinctNames([]string{"a.rsw", "b.rsw", "data/model/c.rsm"}))
	assert.Error(t, checkDistinctNames([]string{"maps/Town.rsw", "other/town.rsw"}))
}
