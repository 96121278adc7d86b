package export

import (
	gomath "math"

	"github.com/Faultbox/midgard-gltf/pkg/math"
)

// PartitionKey identifies the geometry of one material within one node.
type PartitionKey struct {
	Node     string
	Material string
}

func (k PartitionKey) String() string {
	return k.Node + "_" + k.Material
}

// vertexKey is the dedup identity of an output vertex. With a zero
// tolerance it holds the exact transformed position; otherwise the position
// snapped to the tolerance grid.
type vertexKey struct {
	exact [3]float32
	grid  [3]int64
	uv    [2]float32
}

// Partition accumulates the deduplicated vertices and triangle indices of one
// PartitionKey. Vertex indices are dense and follow first-seen order.
type Partition struct {
	Key PartitionKey

	Positions []math.Vec3
	Normals   []math.Vec3 // parallel to Positions; meaningful only if HasNormals
	UVs       []math.Vec2 // parallel to Positions; meaningful only if HasUVs
	Indices   []uint32

	lookup  map[vertexKey]uint32
	proxy   bool // some triangles came from the proxy path
	general bool // some triangles came without normals
	uvs     bool
	sealed  bool
}

// VertexCount returns the number of unique vertices.
func (p *Partition) VertexCount() int { return len(p.Positions) }

// TriangleCount returns the number of triangles.
func (p *Partition) TriangleCount() int { return len(p.Indices) / 3 }

// HasNormals reports whether every vertex carries an authored normal.
func (p *Partition) HasNormals() bool {
	return p.proxy && !p.general && len(p.Normals) == len(p.Positions)
}

// HasUVs reports whether the partition carries texture coordinates.
func (p *Partition) HasUVs() bool { return p.uvs }

// Sealed reports whether the owning node has ended.
func (p *Partition) Sealed() bool { return p.sealed }

// Accumulator owns every partition of an export session.
type Accumulator struct {
	tolerance  float32
	partitions []*Partition
	byKey      map[PartitionKey]*Partition
	byNode     map[string][]*Partition
	sealed     map[string]bool
}

// NewAccumulator returns an accumulator deduplicating vertices on a grid of
// the given size; zero means exact componentwise equality.
func NewAccumulator(tolerance float32) *Accumulator {
	if tolerance < 0 {
		tolerance = 0
	}
	return &Accumulator{
		tolerance: tolerance,
		byKey:     make(map[PartitionKey]*Partition),
		byNode:    make(map[string][]*Partition),
		sealed:    make(map[string]bool),
	}
}

// triangle is one input triangle before the transform is applied.
type triangle struct {
	p     [3]math.Vec3
	uv    *[3]math.Vec2
	proxy bool
}

// AddTriangle transforms p0, p1, p2 by xf and appends them to the partition
// of key, reusing vertices already present.
func (a *Accumulator) AddTriangle(key PartitionKey, xf math.Mat4, p0, p1, p2 math.Vec3) {
	a.add(key, xf, triangle{p: [3]math.Vec3{p0, p1, p2}})
}

// AddTexturedTriangle is AddTriangle with per-corner texture coordinates.
// Corners sharing a position but not a coordinate stay distinct vertices.
func (a *Accumulator) AddTexturedTriangle(key PartitionKey, xf math.Mat4, p [3]math.Vec3, uv [3]math.Vec2) {
	a.add(key, xf, triangle{p: p, uv: &uv})
}

// AddProxyTriangle is AddTriangle for proxy meshes: every vertex first seen
// here gets the face normal of this triangle.
func (a *Accumulator) AddProxyTriangle(key PartitionKey, xf math.Mat4, p0, p1, p2 math.Vec3) {
	a.add(key, xf, triangle{p: [3]math.Vec3{p0, p1, p2}, proxy: true})
}

func (a *Accumulator) add(key PartitionKey, xf math.Mat4, t triangle) {
	part := a.partition(key)
	if part == nil {
		return
	}

	var world [3]math.Vec3
	for i, p := range t.p {
		world[i] = xf.TransformPoint(p)
	}

	var normal math.Vec3
	if t.proxy {
		normal = math.TriangleNormal(world[0], world[1], world[2])
		part.proxy = true
	} else {
		part.general = true
	}
	if t.uv != nil {
		part.uvs = true
	}

	for i, p := range world {
		var uv math.Vec2
		if t.uv != nil {
			uv = t.uv[i]
		}
		part.Indices = append(part.Indices, part.vertex(a.key(p, uv), p, normal, uv))
	}
}

// partition returns the open partition for key, creating it on first use.
// A node that already ended accepts no geometry, under any material.
func (a *Accumulator) partition(key PartitionKey) *Partition {
	if a.sealed[key.Node] {
		return nil
	}
	if p, ok := a.byKey[key]; ok {
		return p
	}
	p := &Partition{Key: key, lookup: make(map[vertexKey]uint32)}
	a.byKey[key] = p
	a.byNode[key.Node] = append(a.byNode[key.Node], p)
	a.partitions = append(a.partitions, p)
	return p
}

func (p *Partition) vertex(k vertexKey, pos, normal math.Vec3, uv math.Vec2) uint32 {
	if idx, ok := p.lookup[k]; ok {
		return idx
	}
	idx := uint32(len(p.Positions))
	p.lookup[k] = idx
	p.Positions = append(p.Positions, pos)
	p.Normals = append(p.Normals, normal)
	p.UVs = append(p.UVs, uv)
	return idx
}

func (a *Accumulator) key(p math.Vec3, uv math.Vec2) vertexKey {
	k := vertexKey{uv: uv.Array()}
	if a.tolerance == 0 {
		k.exact = p.Array()
		return k
	}
	for i, c := range p.Array() {
		k.grid[i] = int64(gomath.Round(float64(c) / float64(a.tolerance)))
	}
	return k
}

// Seal closes every partition of node and returns the non-empty ones in
// creation order. Sealed partitions are immutable and the node takes no
// further geometry.
func (a *Accumulator) Seal(node string) []*Partition {
	if a.sealed[node] {
		return nil
	}
	a.sealed[node] = true
	var out []*Partition
	for _, p := range a.byNode[node] {
		p.sealed = true
		p.lookup = nil
		if len(p.Indices) > 0 {
			out = append(out, p)
		}
	}
	return out
}

// Partition returns the partition stored for key.
func (a *Accumulator) Partition(key PartitionKey) (*Partition, bool) {
	p, ok := a.byKey[key]
	return p, ok
}

// Partitions returns every partition in creation order.
func (a *Accumulator) Partitions() []*Partition {
	return append([]*Partition(nil), a.partitions...)
}
