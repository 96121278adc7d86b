package export

import (
	"encoding/binary"
	gomath "math"

	"github.com/Faultbox/midgard-gltf/pkg/gltf"
	"github.com/Faultbox/midgard-gltf/pkg/math"
)

// Byte strides of the emitted accessors.
const (
	vec3Stride   = 12
	vec2Stride   = 8
	scalarStride = 4
)

// PartitionAccessors holds the accessor indices produced for one partition.
// Normal and TexCoord are -1 when the partition does not emit them.
type PartitionAccessors struct {
	Position int
	Normal   int
	TexCoord int
	Indices  int
}

// Layout is one merged binary buffer with the bufferViews and accessors that
// describe it. Accessor i always reads bufferView i.
type Layout struct {
	BufferViews []gltf.BufferView
	Accessors   []gltf.Accessor
	Data        []byte
	Partitions  []PartitionAccessors // parallel to the input partitions
}

// ByteLength returns the total buffer size.
func (l *Layout) ByteLength() int { return len(l.Data) }

// LayoutBuffers packs parts, in order, into a single buffer. Per partition it
// writes positions, then normals and texture coordinates when requested and
// available, then the uint32 index list. Views follow each other with no
// padding.
func LayoutBuffers(parts []*Partition, normals, texCoords bool) *Layout {
	l := &Layout{Partitions: make([]PartitionAccessors, 0, len(parts))}

	for _, p := range parts {
		refs := PartitionAccessors{Normal: -1, TexCoord: -1}

		refs.Position = l.addVec3(p.Positions, "positions", gltf.TypeVec3)
		lo, hi := bounds(p.Positions)
		l.Accessors[refs.Position].Min = lo[:]
		l.Accessors[refs.Position].Max = hi[:]
		l.Accessors[refs.Position].Name = "POSITION"

		if normals && p.HasNormals() {
			refs.Normal = l.addVec3(p.Normals, "normals", gltf.TypeVec3)
			l.Accessors[refs.Normal].Name = "NORMAL"
		}
		if texCoords && p.HasUVs() {
			refs.TexCoord = l.addVec2(p.UVs)
		}
		refs.Indices = l.addIndices(p.Indices)

		l.Partitions = append(l.Partitions, refs)
	}
	return l
}

func (l *Layout) addView(byteLength, target int, name string) int {
	l.BufferViews = append(l.BufferViews, gltf.BufferView{
		Buffer:     0,
		ByteOffset: len(l.Data) - byteLength,
		ByteLength: byteLength,
		Target:     target,
		Name:       name,
	})
	return len(l.BufferViews) - 1
}

func (l *Layout) addVec3(vs []math.Vec3, name, typ string) int {
	for _, v := range vs {
		l.Data = appendFloat(l.Data, v.X)
		l.Data = appendFloat(l.Data, v.Y)
		l.Data = appendFloat(l.Data, v.Z)
	}
	view := l.addView(len(vs)*vec3Stride, gltf.TargetArrayBuffer, name)
	l.Accessors = append(l.Accessors, gltf.Accessor{
		BufferView:    view,
		ComponentType: gltf.ComponentFloat,
		Count:         len(vs),
		Type:          typ,
	})
	return len(l.Accessors) - 1
}

func (l *Layout) addVec2(vs []math.Vec2) int {
	for _, v := range vs {
		l.Data = appendFloat(l.Data, v.X)
		l.Data = appendFloat(l.Data, v.Y)
	}
	view := l.addView(len(vs)*vec2Stride, gltf.TargetArrayBuffer, "texcoords")
	l.Accessors = append(l.Accessors, gltf.Accessor{
		BufferView:    view,
		ComponentType: gltf.ComponentFloat,
		Count:         len(vs),
		Type:          gltf.TypeVec2,
		Name:          "TEXCOORD_0",
	})
	return len(l.Accessors) - 1
}

func (l *Layout) addIndices(idx []uint32) int {
	lo, hi := uint32(gomath.MaxUint32), uint32(0)
	for _, i := range idx {
		l.Data = binary.LittleEndian.AppendUint32(l.Data, i)
		lo = min(lo, i)
		hi = max(hi, i)
	}
	view := l.addView(len(idx)*scalarStride, gltf.TargetElementArrayBuffer, "indices")
	l.Accessors = append(l.Accessors, gltf.Accessor{
		BufferView:    view,
		ComponentType: gltf.ComponentUnsignedInt,
		Count:         len(idx),
		Type:          gltf.TypeScalar,
		Min:           []float32{float32(lo)},
		Max:           []float32{float32(hi)},
		Name:          "INDICES",
	})
	return len(l.Accessors) - 1
}

func appendFloat(b []byte, f float32) []byte {
	return binary.LittleEndian.AppendUint32(b, gomath.Float32bits(f))
}

// bounds scans positions per axis.
func bounds(vs []math.Vec3) (lo, hi [3]float32) {
	if len(vs) == 0 {
		return lo, hi
	}
	minV, maxV := vs[0], vs[0]
	for _, v := range vs[1:] {
		minV = minV.Min(v)
		maxV = maxV.Max(v)
	}
	return minV.Array(), maxV.Array()
}
