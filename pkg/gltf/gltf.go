// Package gltf defines the subset of the glTF 2.0 document model the exporter
// writes, plus the EXT_structural_metadata and KHR_texture_transform payloads.
package gltf

import (
	"io"

	json "github.com/goccy/go-json"

	"github.com/Faultbox/midgard-gltf/internal/ordered"
	"github.com/Faultbox/midgard-gltf/pkg/metadata"
)

// Extension names.
const (
	ExtStructuralMetadata = "EXT_structural_metadata"
	ExtTextureTransform   = "KHR_texture_transform"
)

// Version is the asset.version written by the exporter.
const Version = "2.0"

// Accessor component types.
const (
	ComponentUnsignedInt = 5125
	ComponentFloat       = 5126
)

// Accessor element types.
const (
	TypeScalar = "SCALAR"
	TypeVec2   = "VEC2"
	TypeVec3   = "VEC3"
)

// BufferView targets.
const (
	TargetArrayBuffer        = 34962
	TargetElementArrayBuffer = 34963
)

// Material alpha modes.
const (
	AlphaOpaque = "OPAQUE"
	AlphaBlend  = "BLEND"
)

// Sampler filters and wrap modes.
const (
	FilterLinear             = 9729
	FilterLinearMipmapLinear = 9987
	WrapRepeat               = 10497
)

// Image MIME types.
const (
	MimePNG = "image/png"
)

// Document is the root glTF object.
type Document struct {
	ExtensionsUsed []string     `json:"extensionsUsed,omitempty"`
	Asset          Asset        `json:"asset"`
	Scene          *int         `json:"scene,omitempty"`
	Scenes         []Scene      `json:"scenes"`
	Nodes          []Node       `json:"nodes"`
	Meshes         []Mesh       `json:"meshes,omitempty"`
	Materials      []Material   `json:"materials,omitempty"`
	Textures       []Texture    `json:"textures,omitempty"`
	Images         []Image      `json:"images,omitempty"`
	Samplers       []Sampler    `json:"samplers,omitempty"`
	Accessors      []Accessor   `json:"accessors,omitempty"`
	BufferViews    []BufferView `json:"bufferViews,omitempty"`
	Buffers        []Buffer     `json:"buffers,omitempty"`
	Extensions     *Extensions  `json:"extensions,omitempty"`
}

// Asset is glTF.asset.
type Asset struct {
	Version   string                       `json:"version"`
	Generator string                       `json:"generator,omitempty"`
	Copyright string                       `json:"copyright,omitempty"`
	Extras    *ordered.Map[string, string] `json:"extras,omitempty"`
}

// Extensions is glTF.extensions.
type Extensions struct {
	StructuralMetadata *StructuralMetadata `json:"EXT_structural_metadata,omitempty"`
}

// StructuralMetadata is the EXT_structural_metadata root object.
type StructuralMetadata struct {
	Schema *metadata.Schema `json:"schema"`
}

// Scene is glTF.scenes' element.
type Scene struct {
	Nodes []int  `json:"nodes"`
	Name  string `json:"name,omitempty"`
}

// Node is glTF.nodes' element. Geometry is baked into world space, so only the
// root and axis nodes use the transform fields.
type Node struct {
	Name        string          `json:"name,omitempty"`
	Children    []int           `json:"children,omitempty"`
	Mesh        *int            `json:"mesh,omitempty"`
	Rotation    *[4]float32     `json:"rotation,omitempty"`    // Default is [0, 0, 0, 1].
	Scale       *[3]float32     `json:"scale,omitempty"`       // Default is [1, 1, 1].
	Translation *[3]float32     `json:"translation,omitempty"` // Default is [0, 0, 0].
	Extensions  *NodeExtensions `json:"extensions,omitempty"`
}

// NodeExtensions is node.extensions.
type NodeExtensions struct {
	StructuralMetadata *NodeMetadata `json:"EXT_structural_metadata,omitempty"`
}

// NodeMetadata assigns a schema class and property values to a node.
type NodeMetadata struct {
	Class      string                               `json:"class"`
	Properties *ordered.Map[string, metadata.Value] `json:"properties,omitempty"`
}

// Mesh is glTF.meshes' element.
type Mesh struct {
	Primitives []Primitive `json:"primitives"`
	Name       string      `json:"name,omitempty"`
}

// Attributes is mesh.primitive.attributes. NORMAL is always written; a zero
// value is never a real normal accessor because accessor 0 always holds
// positions, and the serializer strips it from the text when normals are not
// exported.
type Attributes struct {
	Position  int  `json:"POSITION"`
	Normal    int  `json:"NORMAL"`
	TexCoord0 *int `json:"TEXCOORD_0,omitempty"`
}

// Primitive is mesh.primitives' element. Mode is always triangles.
type Primitive struct {
	Attributes Attributes `json:"attributes"`
	Indices    int        `json:"indices"`
	Material   *int       `json:"material,omitempty"`
}

// Material is glTF.materials' element.
type Material struct {
	Name                 string                `json:"name,omitempty"`
	PBRMetallicRoughness *PBRMetallicRoughness `json:"pbrMetallicRoughness,omitempty"`
	AlphaMode            string                `json:"alphaMode,omitempty"`   // Default is "OPAQUE".
	DoubleSided          bool                  `json:"doubleSided,omitempty"` // Default is false.
}

// PBRMetallicRoughness is material.pbrMetallicRoughness.
type PBRMetallicRoughness struct {
	BaseColorFactor  *[4]float32  `json:"baseColorFactor,omitempty"` // Default is [1, 1, 1, 1].
	BaseColorTexture *TextureInfo `json:"baseColorTexture,omitempty"`
	MetallicFactor   *float32     `json:"metallicFactor,omitempty"`  // Default is 1.
	RoughnessFactor  *float32     `json:"roughnessFactor,omitempty"` // Default is 1.
}

// TextureInfo is textureInfo.
type TextureInfo struct {
	Index      int                    `json:"index"`
	TexCoord   int                    `json:"texCoord,omitempty"` // Default is TEXCOORD_0.
	Extensions *TextureInfoExtensions `json:"extensions,omitempty"`
}

// TextureInfoExtensions is textureInfo.extensions.
type TextureInfoExtensions struct {
	TextureTransform *TextureTransform `json:"KHR_texture_transform,omitempty"`
}

// TextureTransform is the KHR_texture_transform payload.
type TextureTransform struct {
	Offset   *[2]float32 `json:"offset,omitempty"`   // Default is [0, 0].
	Rotation float32     `json:"rotation,omitempty"` // Default is 0.
	Scale    *[2]float32 `json:"scale,omitempty"`    // Default is [1, 1].
}

// Texture is glTF.textures' element.
type Texture struct {
	Sampler *int   `json:"sampler,omitempty"`
	Source  *int   `json:"source,omitempty"`
	Name    string `json:"name,omitempty"`
}

// Image is glTF.images' element.
type Image struct {
	URI      string `json:"uri,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Sampler is glTF.samplers' element.
type Sampler struct {
	MagFilter int `json:"magFilter,omitempty"`
	MinFilter int `json:"minFilter,omitempty"`
	WrapS     int `json:"wrapS,omitempty"` // Default is 10497.
	WrapT     int `json:"wrapT,omitempty"` // Default is 10497.
}

// Accessor is glTF.accessors' element.
type Accessor struct {
	BufferView    int       `json:"bufferView"`
	ComponentType int       `json:"componentType"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Max           []float32 `json:"max,omitempty"`
	Min           []float32 `json:"min,omitempty"`
	Name          string    `json:"name,omitempty"`
}

// BufferView is glTF.bufferViews' element.
type BufferView struct {
	Buffer     int    `json:"buffer"`
	ByteOffset int    `json:"byteOffset"`
	ByteLength int    `json:"byteLength"`
	Target     int    `json:"target,omitempty"` // 0 for no hint.
	Name       string `json:"name,omitempty"`
}

// Buffer is glTF.buffers' element.
type Buffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`
}

// Marshal encodes doc as compact JSON.
func Marshal(doc *Document) ([]byte, error) {
	return json.Marshal(doc)
}

// Encode writes doc to w as compact JSON.
func Encode(w io.Writer, doc *Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Ptr returns a pointer to v, for the optional fields above.
func Ptr[T any](v T) *T {
	return &v
}
