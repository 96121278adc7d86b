package formats

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// RSM format errors.
var (
	ErrInvalidRSMMagic       = errors.New("invalid RSM magic: expected 'GRSM'")
	ErrUnsupportedRSMVersion = errors.New("unsupported RSM version")
	ErrTruncatedRSMData      = errors.New("truncated RSM data")
)

// Fixed string sizes of the v1 layout.
const (
	rsmNameSize     = 40
	rsmReservedSize = 16
)

// RSMVersion represents the RSM file version.
type RSMVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v RSMVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v RSMVersion) AtLeast(major, minor uint8) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// RSMShadingType represents the shading mode for rendering.
type RSMShadingType int32

const (
	RSMShadingNone   RSMShadingType = 0
	RSMShadingFlat   RSMShadingType = 1
	RSMShadingSmooth RSMShadingType = 2
)

// String returns a human-readable shading type name.
func (s RSMShadingType) String() string {
	switch s {
	case RSMShadingNone:
		return "None"
	case RSMShadingFlat:
		return "Flat"
	case RSMShadingSmooth:
		return "Smooth"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// RSMTexCoord is a texture coordinate with its vertex color.
type RSMTexCoord struct {
	Color [4]uint8 // RGBA, v1.2+; opaque white before
	U, V  float32
}

// RSMFace is a triangle of a node mesh.
type RSMFace struct {
	VertexIDs   [3]uint16
	TexCoordIDs [3]uint16
	TextureID   uint16 // index into RSMNode.TextureIDs
	TwoSide     int32
	SmoothGroup int32 // v1.2+
}

// RSMRotKeyframe is a rotation keyframe.
type RSMRotKeyframe struct {
	Frame      int32
	Quaternion [4]float32 // x, y, z, w
}

// RSMVecKeyframe is a position or scale keyframe.
type RSMVecKeyframe struct {
	Frame int32
	Value [3]float32
}

// RSMNode is a node of the model hierarchy.
type RSMNode struct {
	Name       string
	Parent     string  // empty for the root
	TextureIDs []int32 // indices into RSM.Textures

	Matrix   [9]float32 // 3x3, vertex-only
	Offset   [3]float32 // vertex-only
	Position [3]float32
	RotAngle float32 // radians
	RotAxis  [3]float32
	Scale    [3]float32

	Vertices  [][3]float32
	TexCoords []RSMTexCoord
	Faces     []RSMFace

	PosKeys   []RSMVecKeyframe // before v1.5
	RotKeys   []RSMRotKeyframe
	ScaleKeys []RSMVecKeyframe // v1.5+
}

// Texture resolves the model texture of face f, or "" when the face points
// outside the node's texture table.
func (n *RSMNode) Texture(rsm *RSM, f RSMFace) (int, string) {
	if int(f.TextureID) >= len(n.TextureIDs) {
		return -1, ""
	}
	id := int(n.TextureIDs[f.TextureID])
	if id < 0 || id >= len(rsm.Textures) {
		return -1, ""
	}
	return id, rsm.Textures[id]
}

// RSMVolumeBox is a collision volume.
type RSMVolumeBox struct {
	Size     [3]float32
	Position [3]float32
	Rotation [3]float32
	Flag     int32 // v1.3+
}

// RSM is a parsed v1 resource model.
type RSM struct {
	Version     RSMVersion
	AnimLength  int32 // milliseconds
	Shading     RSMShadingType
	Alpha       float32 // 0..1
	Textures    []string
	RootNode    string
	Nodes       []RSMNode
	VolumeBoxes []RSMVolumeBox
}

// ParseRSM parses a v1.x RSM model. Version 2 models use a different node
// layout and are rejected with ErrUnsupportedRSMVersion.
func ParseRSM(data []byte) (*RSM, error) {
	r := newReader(data, ErrTruncatedRSMData)

	magic := r.take(4, "magic")
	if r.err != nil {
		return nil, r.err
	}
	if string(magic) != "GRSM" {
		return nil, ErrInvalidRSMMagic
	}

	rsm := &RSM{Alpha: 1}
	rsm.Version.Major = r.u8("version")
	rsm.Version.Minor = r.u8("version")
	if r.err != nil {
		return nil, r.err
	}
	if rsm.Version.Major != 1 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, rsm.Version)
	}

	rsm.AnimLength = r.i32("animation length")
	rsm.Shading = RSMShadingType(r.i32("shading"))
	if rsm.Version.AtLeast(1, 4) {
		rsm.Alpha = float32(r.u8("alpha")) / 255
	}
	r.skip(rsmReservedSize, "reserved")

	n := r.count("texture", rsmNameSize)
	rsm.Textures = make([]string, n)
	for i := range rsm.Textures {
		rsm.Textures[i] = r.str(rsmNameSize, "texture name")
	}

	rsm.RootNode = r.str(rsmNameSize, "root node name")

	n = r.count("node", 2*rsmNameSize)
	rsm.Nodes = make([]RSMNode, n)
	for i := range rsm.Nodes {
		readRSMNode(r, rsm.Version, &rsm.Nodes[i])
		if r.err != nil {
			return nil, fmt.Errorf("parsing node %d: %w", i, r.err)
		}
	}

	// Volume boxes are optional trailing data.
	if r.remaining() >= 4 {
		boxSize := 36
		if rsm.Version.AtLeast(1, 3) {
			boxSize = 40
		}
		n = r.count("volume box", boxSize)
		rsm.VolumeBoxes = make([]RSMVolumeBox, n)
		for i := range rsm.VolumeBoxes {
			box := &rsm.VolumeBoxes[i]
			box.Size = r.vec3("volume box size")
			box.Position = r.vec3("volume box position")
			box.Rotation = r.vec3("volume box rotation")
			if rsm.Version.AtLeast(1, 3) {
				box.Flag = r.i32("volume box flag")
			}
		}
	}

	if r.err != nil {
		return nil, r.err
	}
	return rsm, nil
}

func readRSMNode(r *reader, version RSMVersion, node *RSMNode) {
	node.Name = r.str(rsmNameSize, "node name")
	node.Parent = r.str(rsmNameSize, "parent name")

	node.TextureIDs = make([]int32, r.count("node texture", 4))
	for i := range node.TextureIDs {
		node.TextureIDs[i] = r.i32("node texture id")
	}

	for i := range node.Matrix {
		node.Matrix[i] = r.f32("matrix")
	}
	node.Offset = r.vec3("offset")
	node.Position = r.vec3("position")
	node.RotAngle = r.f32("rotation angle")
	node.RotAxis = r.vec3("rotation axis")
	node.Scale = r.vec3("scale")

	node.Vertices = make([][3]float32, r.count("vertex", 12))
	for i := range node.Vertices {
		node.Vertices[i] = r.vec3("vertex")
	}

	colored := version.AtLeast(1, 2)
	tcSize := 8
	if colored {
		tcSize = 12
	}
	node.TexCoords = make([]RSMTexCoord, r.count("texcoord", tcSize))
	for i := range node.TexCoords {
		tc := &node.TexCoords[i]
		tc.Color = [4]uint8{255, 255, 255, 255}
		if colored {
			copy(tc.Color[:], r.take(4, "texcoord color"))
		}
		tc.U = r.f32("texcoord")
		tc.V = r.f32("texcoord")
	}

	faceSize := 20
	if colored {
		faceSize = 24
	}
	node.Faces = make([]RSMFace, r.count("face", faceSize))
	for i := range node.Faces {
		f := &node.Faces[i]
		for j := range f.VertexIDs {
			f.VertexIDs[j] = r.u16("face vertex")
		}
		for j := range f.TexCoordIDs {
			f.TexCoordIDs[j] = r.u16("face texcoord")
		}
		f.TextureID = r.u16("face texture")
		r.skip(2, "face padding")
		f.TwoSide = r.i32("face two-side flag")
		if colored {
			f.SmoothGroup = r.i32("face smooth group")
		}
	}

	if !version.AtLeast(1, 5) {
		node.PosKeys = readVecKeys(r, "position key")
	}

	node.RotKeys = make([]RSMRotKeyframe, r.count("rotation key", 20))
	for i := range node.RotKeys {
		node.RotKeys[i].Frame = r.i32("rotation key frame")
		node.RotKeys[i].Quaternion = r.vec4("rotation key")
	}

	if version.AtLeast(1, 5) {
		node.ScaleKeys = readVecKeys(r, "scale key")
	}
}

func readVecKeys(r *reader, what string) []RSMVecKeyframe {
	keys := make([]RSMVecKeyframe, r.count(what, 16))
	for i := range keys {
		keys[i].Frame = r.i32(what + " frame")
		keys[i].Value = r.vec3(what)
	}
	return keys
}

// NodeByName returns a node by its name, or nil if not found.
func (rsm *RSM) NodeByName(name string) *RSMNode {
	for i := range rsm.Nodes {
		if rsm.Nodes[i].Name == name {
			return &rsm.Nodes[i]
		}
	}
	return nil
}

// Children returns the nodes whose parent is name, in file order. A node
// naming itself as parent is not its own child.
func (rsm *RSM) Children(name string) []*RSMNode {
	var out []*RSMNode
	for i := range rsm.Nodes {
		n := &rsm.Nodes[i]
		if n.Parent == name && n.Name != name {
			out = append(out, n)
		}
	}
	return out
}

// Roots returns the nodes without a resolvable parent, in file order.
func (rsm *RSM) Roots() []*RSMNode {
	var out []*RSMNode
	for i := range rsm.Nodes {
		n := &rsm.Nodes[i]
		if n.Parent == "" || n.Parent == n.Name || rsm.NodeByName(n.Parent) == nil {
			out = append(out, n)
		}
	}
	return out
}

// VertexCount returns the number of vertices across all nodes.
func (rsm *RSM) VertexCount() int {
	total := 0
	for _, node := range rsm.Nodes {
		total += len(node.Vertices)
	}
	return total
}

// FaceCount returns the number of faces across all nodes.
func (rsm *RSM) FaceCount() int {
	total := 0
	for _, node := range rsm.Nodes {
		total += len(node.Faces)
	}
	return total
}

// ModelStem returns the base name of a model path without its extension,
// accepting both slash styles.
func ModelStem(p string) string {
	p = path.Base(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimSuffix(p, path.Ext(p))
}
