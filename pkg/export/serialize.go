package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/pkg/gltf"
)

// normalToken is the attribute text left behind by primitives without
// normals. Accessor 0 always holds positions, so it never is a real normal
// reference.
var normalToken = []byte(`,"NORMAL":0`)

// Output is an assembled asset held in memory.
type Output struct {
	Document *gltf.Document
	JSON     []byte
	Binary   []byte
}

// Result describes the files written by Finish.
type Result struct {
	GLTFPath  string
	BinPath   string
	Nodes     int
	Meshes    int
	Materials int
	Vertices  int
	Triangles int
}

// BinName returns the file name of the binary buffer.
func (s *Session) BinName() string { return s.opts.Name + ".bin" }

// GLTFName returns the file name of the JSON document.
func (s *Session) GLTFName() string { return s.opts.Name + ".gltf" }

// Build lays out the buffers and assembles the document without touching the
// filesystem. It does not modify the session and returns identical bytes for
// identical callback sequences.
func (s *Session) Build() (*Output, error) {
	if s.canceled {
		return nil, ErrCanceled
	}

	parts := s.graph.sealedPartitions(s.acc)
	layout := LayoutBuffers(parts, s.opts.Normals, s.opts.Textures)
	refs := make(map[*Partition]PartitionAccessors, len(parts))
	for i, p := range parts {
		refs[p] = layout.Partitions[i]
	}

	doc := &gltf.Document{
		Asset: gltf.Asset{
			Version:   gltf.Version,
			Generator: s.opts.Generator,
			Copyright: s.opts.Copyright,
		},
		Scene:  gltf.Ptr(0),
		Scenes: []gltf.Scene{{Nodes: []int{0}}},
		Nodes:  s.graph.gltfNodes(),
	}
	if s.extras.Len() > 0 {
		doc.Asset.Extras = s.extras
	}

	stripNormals := !s.opts.Normals
	for _, m := range s.graph.meshes {
		mesh := gltf.Mesh{Name: m.name}
		for _, p := range m.parts {
			r := refs[p]
			prim := gltf.Primitive{
				Attributes: gltf.Attributes{Position: r.Position},
				Indices:    r.Indices,
			}
			if r.Normal >= 0 {
				prim.Attributes.Normal = r.Normal
			} else {
				stripNormals = true
			}
			if r.TexCoord >= 0 {
				prim.Attributes.TexCoord0 = gltf.Ptr(r.TexCoord)
			}
			if p.Key.Material != "" && s.opts.Materials {
				if idx, ok := s.mats.index(p.Key.Material); ok {
					prim.Material = gltf.Ptr(idx)
				} else {
					s.log.Debug("material not registered", zap.String("material", p.Key.Material))
				}
			}
			mesh.Primitives = append(mesh.Primitives, prim)
		}
		doc.Meshes = append(doc.Meshes, mesh)
	}

	if s.opts.Materials && s.mats.materials.Len() > 0 {
		doc.Materials = s.mats.materials.Values()
		doc.Textures, doc.Images, doc.Samplers = s.mats.gltfTextures()
	}

	if layout.ByteLength() > 0 {
		doc.Accessors = layout.Accessors
		doc.BufferViews = layout.BufferViews
		doc.Buffers = []gltf.Buffer{{URI: s.BinName(), ByteLength: layout.ByteLength()}}
	}

	if s.opts.Metadata {
		doc.ExtensionsUsed = append(doc.ExtensionsUsed, gltf.ExtStructuralMetadata)
		doc.Extensions = &gltf.Extensions{
			StructuralMetadata: &gltf.StructuralMetadata{Schema: s.schema.Schema()},
		}
	}
	if s.mats.transformUsed && doc.Materials != nil {
		doc.ExtensionsUsed = append(doc.ExtensionsUsed, gltf.ExtTextureTransform)
	}

	data, err := gltf.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	if stripNormals {
		data = bytes.ReplaceAll(data, normalToken, nil)
	}

	return &Output{Document: doc, JSON: data, Binary: layout.Data}, nil
}

// Finish builds the asset and writes <Name>.gltf and <Name>.bin into dir.
// Both files appear together or not at all. After Finish the session
// rejects further callbacks.
func (s *Session) Finish(dir string) (*Result, error) {
	if err := s.checkBoundary(); err != nil {
		return nil, err
	}
	s.closed = true

	out, err := s.Build()
	if err != nil {
		return nil, err
	}

	res := &Result{
		GLTFPath: filepath.Join(dir, s.GLTFName()),
		BinPath:  filepath.Join(dir, s.BinName()),
		Nodes:    len(out.Document.Nodes),
		Meshes:   len(out.Document.Meshes),
	}
	res.Materials = len(out.Document.Materials)
	for _, m := range s.graph.meshes {
		for _, p := range m.parts {
			res.Vertices += p.VertexCount()
			res.Triangles += p.TriangleCount()
		}
	}

	files := []pendingFile{{path: res.GLTFPath, data: out.JSON}}
	if len(out.Binary) > 0 {
		files = append([]pendingFile{{path: res.BinPath, data: out.Binary}}, files...)
	} else {
		res.BinPath = ""
	}
	if err := writeAll(dir, files); err != nil {
		return nil, err
	}

	s.log.Info("export written",
		zap.String("gltf", res.GLTFPath),
		zap.Int("nodes", res.Nodes),
		zap.Int("meshes", res.Meshes),
		zap.Int("vertices", res.Vertices),
		zap.Int("triangles", res.Triangles))
	return res, nil
}

type pendingFile struct {
	path string
	data []byte
	tmp  string
}

// writeAll stages every file as a temporary sibling and renames them into
// place only once all writes succeeded.
func writeAll(dir string, files []pendingFile) (err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{Path: dir, Err: err}
	}

	defer func() {
		if err == nil {
			return
		}
		for _, f := range files {
			if f.tmp != "" {
				os.Remove(f.tmp)
			}
		}
	}()

	for i := range files {
		f := &files[i]
		tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
		if err != nil {
			return &WriteError{Path: f.path, Err: err}
		}
		f.tmp = tmp.Name()
		if _, err := tmp.Write(f.data); err != nil {
			tmp.Close()
			return &WriteError{Path: f.path, Err: err}
		}
		if err := tmp.Close(); err != nil {
			return &WriteError{Path: f.path, Err: err}
		}
	}

	var renamed []string
	for i := range files {
		f := &files[i]
		if err := os.Rename(f.tmp, f.path); err != nil {
			for _, p := range renamed {
				os.Remove(p)
			}
			return &WriteError{Path: f.path, Err: err}
		}
		f.tmp = ""
		renamed = append(renamed, f.path)
	}
	return nil
}

// SchemaJSON encodes only the metadata schema, for inspection tools.
func (s *Session) SchemaJSON() ([]byte, error) {
	return json.Marshal(gltf.StructuralMetadata{Schema: s.schema.Schema()})
}
