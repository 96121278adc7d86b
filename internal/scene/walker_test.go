package scene

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/Faultbox/midgard-gltf/internal/textures"
	"github.com/Faultbox/midgard-gltf/pkg/export"
	"github.com/Faultbox/midgard-gltf/pkg/formats"
	"github.com/Faultbox/midgard-gltf/pkg/formats/formatstest"
	"github.com/Faultbox/midgard-gltf/pkg/gltf"
	"github.com/Faultbox/midgard-gltf/pkg/math"
	"github.com/Faultbox/midgard-gltf/pkg/metadata"
)

func wallBMP(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 200, G: 180, B: 160, A: 255})
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))
	return buf.Bytes()
}

// quadModel is a textured quad "body" with a two-sided triangle "flag"
// hanging two units above it.
func quadModel() formatstest.Model {
	return formatstest.Model{
		Textures: []string{"wall.bmp"},
		Root:     "body",
		Nodes: []formatstest.Node{
			{
				Name:      "body",
				Textures:  []int32{0},
				Vertices:  [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
				TexCoords: [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
				Faces: []formatstest.Face{
					{Vertices: [3]uint16{0, 1, 2}, TexCoords: [3]uint16{0, 1, 2}},
					{Vertices: [3]uint16{0, 2, 3}, TexCoords: [3]uint16{0, 2, 3}},
				},
			},
			{
				Name:      "flag",
				Parent:    "body",
				Position:  [3]float32{0, -2, 0},
				Textures:  []int32{0},
				Vertices:  [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
				TexCoords: [][2]float32{{0, 0}, {1, 0}, {0, 1}},
				Faces: []formatstest.Face{
					{Vertices: [3]uint16{0, 1, 2}, TexCoords: [3]uint16{0, 1, 2}, TwoSide: true},
				},
			},
		},
	}
}

func newWalk(t *testing.T, files Files, mutate func(*export.Options)) (*export.Session, *Walker, *textures.Converter) {
	t.Helper()
	opts := export.DefaultOptions()
	opts.Name = "test"
	if mutate != nil {
		mutate(&opts)
	}
	s := export.New(context.Background(), opts)
	conv := textures.NewConverter(nil)
	return s, New(context.Background(), s, Config{Source: files, Textures: conv}), conv
}

func build(t *testing.T, s *export.Session) *gltf.Document {
	t.Helper()
	out, err := s.Build()
	require.NoError(t, err)
	require.NoError(t, out.Document.Check())
	return out.Document
}

func nodeNamed(t *testing.T, doc *gltf.Document, name string) (int, gltf.Node) {
	t.Helper()
	for i, n := range doc.Nodes {
		if n.Name == name {
			return i, n
		}
	}
	t.Fatalf("no node %q", name)
	return -1, gltf.Node{}
}

// positions returns the POSITION accessor of the first primitive of n.
func positions(t *testing.T, doc *gltf.Document, n gltf.Node) gltf.Accessor {
	t.Helper()
	require.NotNil(t, n.Mesh, "node %s has no mesh", n.Name)
	prim := doc.Meshes[*n.Mesh].Primitives[0]
	return doc.Accessors[prim.Attributes.Position]
}

func indexCount(doc *gltf.Document, n gltf.Node) int {
	return doc.Accessors[doc.Meshes[*n.Mesh].Primitives[0].Indices].Count
}

func TestWalkModel(t *testing.T) {
	files := Files{"data/texture/wall.bmp": wallBMP(t)}
	s, w, conv := newWalk(t, files, nil)

	require.NoError(t, w.WalkModel("data/model/quad.rsm", quadModel().Bytes()))
	doc := build(t, s)

	require.Len(t, doc.Nodes, 4)
	bodyIdx, body := nodeNamed(t, doc, "Model Nodes: quad: body")
	flagIdx, flag := nodeNamed(t, doc, "Model Nodes: quad: flag")
	assert.Equal(t, []int{bodyIdx}, doc.Nodes[1].Children)
	assert.Equal(t, []int{flagIdx}, body.Children)

	pos := positions(t, doc, body)
	assert.Equal(t, 4, pos.Count)
	assert.Equal(t, 6, indexCount(doc, body))

	// The child inherits the parent offset; Y is flipped afterwards.
	pos = positions(t, doc, flag)
	assert.Equal(t, 3, pos.Count)
	assert.Equal(t, []float32{0, 1, 0}, pos.Min)
	assert.Equal(t, []float32{1, 2, 0}, pos.Max)
	assert.Equal(t, 6, indexCount(doc, flag), "two-sided face adds the back face")

	require.Len(t, doc.Materials, 1)
	assert.Equal(t, "wall", doc.Materials[0].Name)
	require.NotNil(t, doc.Materials[0].PBRMetallicRoughness.BaseColorTexture)
	require.Len(t, doc.Images, 1)
	assert.Equal(t, textures.Dir+"/"+textures.FileName("data/texture/wall.bmp"), doc.Images[0].URI)
	assert.Equal(t, 1, conv.Len())
	prim := doc.Meshes[*body.Mesh].Primitives[0]
	assert.NotNil(t, prim.Attributes.TexCoord0)

	md := body.Extensions.StructuralMetadata
	assert.Equal(t, metadata.ClassKey(CategoryNodes, "quad"), md.Class)
	id, _ := md.Properties.Get(metadata.PropUniqueID)
	assert.True(t, id.Equal(metadata.String("quad/body")))
	verts, _ := md.Properties.Get("vertexCount")
	assert.True(t, verts.Equal(metadata.Int(4)))

	project := doc.Nodes[0].Extensions.StructuralMetadata
	assert.Equal(t, export.ProjectClass, project.Class)
	assert.Contains(t, project.Properties.Keys(), "modelFile")
}

func TestWalkModelDropsBadFaces(t *testing.T) {
	m := formatstest.Model{
		Root: "n",
		Nodes: []formatstest.Node{{
			Name:     "n",
			Vertices: [][3]float32{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {0, 0, 1}},
			Faces: []formatstest.Face{
				{Vertices: [3]uint16{0, 1, 2}}, // collinear
				{Vertices: [3]uint16{0, 1, 9}}, // out of range
				{Vertices: [3]uint16{0, 1, 3}},
			},
		}},
	}
	s, w, _ := newWalk(t, Files{}, nil)
	require.NoError(t, w.WalkModel("n.rsm", m.Bytes()))

	doc := build(t, s)
	_, n := nodeNamed(t, doc, "Model Nodes: n: n")
	assert.Equal(t, 3, indexCount(doc, n))
	require.Len(t, doc.Materials, 1)
	assert.Equal(t, "untextured", doc.Materials[0].Name)
	assert.Empty(t, doc.Images)
}

func TestWalkModelMissingTextureFallsBackToColor(t *testing.T) {
	s, w, conv := newWalk(t, Files{}, nil)
	require.NoError(t, w.WalkModel("quad.rsm", quadModel().Bytes()))

	doc := build(t, s)
	require.Len(t, doc.Materials, 1)
	assert.Nil(t, doc.Materials[0].PBRMetallicRoughness.BaseColorTexture)
	assert.Empty(t, doc.Images)
	assert.Zero(t, conv.Len())
	_, body := nodeNamed(t, doc, "Model Nodes: quad: body")
	assert.Nil(t, doc.Meshes[*body.Mesh].Primitives[0].Attributes.TexCoord0)
}

func TestWalkModelTexturesDisabled(t *testing.T) {
	files := Files{"data/texture/wall.bmp": wallBMP(t)}
	s, w, conv := newWalk(t, files, func(o *export.Options) { o.Textures = false })
	require.NoError(t, w.WalkModel("quad.rsm", quadModel().Bytes()))

	doc := build(t, s)
	assert.Empty(t, doc.Images)
	assert.Zero(t, conv.Len(), "nothing is converted")
}

func TestWalkModelTransparency(t *testing.T) {
	m := quadModel()
	m.Alpha = 128
	s, w, _ := newWalk(t, Files{}, nil)
	require.NoError(t, w.WalkModel("quad.rsm", m.Bytes()))

	doc := build(t, s)
	require.Len(t, doc.Materials, 1)
	assert.Equal(t, "BLEND", doc.Materials[0].AlphaMode)
}

func TestWalkModelRejectsInvalidData(t *testing.T) {
	_, w, _ := newWalk(t, Files{}, nil)
	err := w.WalkModel("bad.rsm", []byte("GRSM"))
	assert.ErrorIs(t, err, formats.ErrTruncatedRSMData)
}

// testWorld places quad.rsm once at (5, -3, 7) on a 100x200 map, plus a
// light.
func testWorld(scale [3]float32) formatstest.World {
	return formatstest.World{
		Ground: "test.gnd",
		Models: []formatstest.Placement{{
			Name:      "house01",
			Model:     "quad.rsm",
			AnimType:  2,
			AnimSpeed: 1.5,
			BlockType: 1,
			Position:  [3]float32{5, -3, 7},
			Scale:     scale,
		}},
		Lights: []string{"lamp"},
	}
}

func worldFiles(t *testing.T) Files {
	return Files{
		"data/test.gnd":         formatstest.Ground(10, 20, 10),
		"data/model/quad.rsm":   quadModel().Bytes(),
		"data/texture/wall.bmp": wallBMP(t),
	}
}

func TestWalkWorld(t *testing.T) {
	s, w, _ := newWalk(t, worldFiles(t), nil)
	require.NoError(t, w.WalkWorld("test.rsw", testWorld([3]float32{1, 1, 1}).Bytes()))

	doc := build(t, s)
	require.Len(t, doc.Nodes, 5, "root, axis, placement, body, flag; the light is skipped")

	placeIdx, place := nodeNamed(t, doc, "Models: quad: house01")
	assert.Equal(t, []int{placeIdx}, doc.Nodes[1].Children)
	assert.Nil(t, place.Mesh)
	_, body := nodeNamed(t, doc, "Model Nodes: quad: body")

	// Centred on the map: x + 50, -y, z + 100.
	pos := positions(t, doc, body)
	assert.Equal(t, []float32{55, 3, 107}, pos.Min)
	assert.Equal(t, []float32{56, 3, 108}, pos.Max)

	md := place.Extensions.StructuralMetadata
	wantID := uuid.NewSHA1(placementNamespace, []byte("test.rsw#0")).String()
	id, _ := md.Properties.Get(metadata.PropUniqueID)
	assert.True(t, id.Equal(metadata.String(wantID)))
	anim, _ := md.Properties.Get("animType")
	assert.True(t, anim.Equal(metadata.Int(2)))
	file, _ := md.Properties.Get("modelFile")
	assert.True(t, file.Equal(metadata.String("quad.rsm")))

	owner, ok := s.Schema().Declares(metadata.ClassKey(CategoryModels, "quad"), "animType")
	require.True(t, ok)
	assert.Equal(t, metadata.Sanitize(CategoryModels), owner)

	src, _ := doc.Asset.Extras.Get("source")
	assert.Equal(t, "test.rsw", src)
}

func TestWalkWorldSharesModelsAndTextures(t *testing.T) {
	world := testWorld([3]float32{1, 1, 1})
	second := world.Models[0]
	second.Name = "house02"
	second.Position = [3]float32{-5, 0, 0}
	world.Models = append(world.Models, second)

	s, w, conv := newWalk(t, worldFiles(t), nil)
	require.NoError(t, w.WalkWorld("test.rsw", world.Bytes()))

	doc := build(t, s)
	assert.Len(t, doc.Nodes, 8)
	assert.Len(t, doc.Materials, 1)
	assert.Equal(t, 1, conv.Len())
	assert.Len(t, w.models, 1, "the model is parsed once")
}

func faceNormal(t *testing.T, s *export.Session, node string) math.Vec3 {
	t.Helper()
	p, ok := s.Accumulator().Partition(export.PartitionKey{Node: node, Material: "rsm:wall.bmp"})
	require.True(t, ok)
	a, b, c := p.Positions[p.Indices[0]], p.Positions[p.Indices[1]], p.Positions[p.Indices[2]]
	return math.TriangleNormal(a, b, c)
}

func TestWalkWorldMirroredPlacementKeepsFacing(t *testing.T) {
	id := uuid.NewSHA1(placementNamespace, []byte("test.rsw#0")).String()

	s, w, _ := newWalk(t, worldFiles(t), nil)
	require.NoError(t, w.WalkWorld("test.rsw", testWorld([3]float32{1, 1, 1}).Bytes()))
	plain := faceNormal(t, s, id+"/body")

	s, w, _ = newWalk(t, worldFiles(t), nil)
	require.NoError(t, w.WalkWorld("test.rsw", testWorld([3]float32{-1, 1, 1}).Bytes()))
	mirrored := faceNormal(t, s, id+"/body")

	assert.InDelta(t, plain.Y, mirrored.Y, 1e-6)
}

func TestWalkWorldLinksDisabled(t *testing.T) {
	s, w, _ := newWalk(t, worldFiles(t), func(o *export.Options) { o.Links = false })
	require.NoError(t, w.WalkWorld("test.rsw", testWorld([3]float32{1, 1, 1}).Bytes()))

	doc := build(t, s)
	require.Len(t, doc.Nodes, 3)
	assert.Equal(t, "Models: quad: house01", doc.Nodes[2].Name)
	assert.Empty(t, doc.Meshes)
}

func TestWalkWorldMissingModelAndGround(t *testing.T) {
	s, w, _ := newWalk(t, Files{}, nil)
	require.NoError(t, w.WalkWorld("test.rsw", testWorld([3]float32{1, 1, 1}).Bytes()))

	doc := build(t, s)
	assert.Len(t, doc.Nodes, 3, "the placement node stays")
	assert.Empty(t, doc.Meshes)
}

func TestWalkWorldCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := export.New(ctx, export.DefaultOptions())
	w := New(ctx, s, Config{Source: worldFiles(t)})

	err := w.WalkWorld("test.rsw", testWorld([3]float32{1, 1, 1}).Bytes())
	require.ErrorIs(t, err, export.ErrCanceled)
	_, err = s.Build()
	assert.ErrorIs(t, err, export.ErrCanceled)
}

func TestFilesIgnoreCaseAndSlashes(t *testing.T) {
	f := Files{"data/Model/Tree.rsm": []byte("x")}
	data, err := f.ReadFile(`DATA\model\tree.RSM`)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)

	_, err = f.ReadFile("data/none")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChainPrefersEarlierSources(t *testing.T) {
	dir := t.TempDir()
	c := Chain{Files{"a": []byte("first")}, Dir(dir), Files{"a": []byte("second"), "b": []byte("b")}}

	data, err := c.ReadFile("a")
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
	data, err = c.ReadFile("b")
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))

	_, err = c.ReadFile("c")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = Chain(nil).ReadFile("c")
	assert.ErrorIs(t, err, ErrNotFound)
}
