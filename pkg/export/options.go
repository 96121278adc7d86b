package export

import (
	"go.uber.org/zap"
)

// Options controls what an export session emits.
type Options struct {
	// Name is the output basename: <Name>.gltf and <Name>.bin.
	Name string

	Materials bool // export materials
	Textures  bool // export texture references and texture coordinates
	Normals   bool // export normals where the geometry path provides them
	Links     bool // descend into linked sub-documents
	Metadata  bool // emit EXT_structural_metadata

	// FlipAxis rotates the scene from Z-up to glTF's Y-up.
	FlipAxis bool
	// UnitScale converts source units to meters.
	UnitScale float32
	// VertexTolerance is the dedup grid size. Zero means exact equality.
	VertexTolerance float32

	Generator string
	Copyright string
	// SchemaID defaults to the sanitized Name.
	SchemaID string

	Logger *zap.Logger
}

// DefaultOptions returns options with every feature enabled.
func DefaultOptions() Options {
	return Options{
		Name:      "scene",
		Materials: true,
		Textures:  true,
		Normals:   true,
		Links:     true,
		Metadata:  true,
		UnitScale: 1,
		Generator: "midgard-gltf",
	}
}
