package export

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-gltf/pkg/math"
)

func addBatch(a *Accumulator, key PartitionKey, xf math.Mat4, pts []math.Vec3) {
	for i := 0; i < len(pts); i += 3 {
		a.AddTriangle(key, xf, pts[i], pts[i+1], pts[i+2])
	}
}

func TestCubeDedup(t *testing.T) {
	a := NewAccumulator(0)
	key := PartitionKey{Node: "cube", Material: "m"}
	addBatch(a, key, math.Identity(), unitCube())

	p, ok := a.Partition(key)
	require.True(t, ok)
	assert.Equal(t, 8, p.VertexCount())
	assert.Len(t, p.Indices, 36)
	assert.Equal(t, 12, p.TriangleCount())
}

func TestIndicesAreDenseInFirstSeenOrder(t *testing.T) {
	a := NewAccumulator(0)
	key := PartitionKey{Node: "n"}
	pts := []math.Vec3{{X: 0}, {X: 1}, {Y: 1}, {Y: 1}, {X: 1}, {X: 1, Y: 1}}
	addBatch(a, key, math.Identity(), pts)

	p, _ := a.Partition(key)
	assert.Equal(t, []uint32{0, 1, 2, 2, 1, 3}, p.Indices)
	assert.Equal(t, []math.Vec3{{X: 0}, {X: 1}, {Y: 1}, {X: 1, Y: 1}}, p.Positions)
}

func TestPointsAreTransformedBeforeLookup(t *testing.T) {
	a := NewAccumulator(0)
	key := PartitionKey{Node: "n"}
	a.AddTriangle(key, math.Translate(5, 0, 0), math.Vec3{}, math.Vec3{X: 1}, math.Vec3{Y: 1})
	// The same world points expressed in another local frame.
	a.AddTriangle(key, math.Identity(), math.Vec3{X: 5}, math.Vec3{X: 6}, math.Vec3{X: 5, Y: 1})

	p, _ := a.Partition(key)
	assert.Equal(t, 3, p.VertexCount())
	assert.Equal(t, math.Vec3{X: 5}, p.Positions[0])
}

func TestPartitionsSplitByMaterial(t *testing.T) {
	a := NewAccumulator(0)
	addBatch(a, PartitionKey{Node: "n", Material: "red"}, math.Identity(), trianglePoints(0))
	addBatch(a, PartitionKey{Node: "n", Material: "blue"}, math.Identity(), trianglePoints(0))
	addBatch(a, PartitionKey{Node: "m", Material: "red"}, math.Identity(), trianglePoints(0))

	parts := a.Partitions()
	require.Len(t, parts, 3)
	assert.Equal(t, "n_red", parts[0].Key.String())
	assert.Equal(t, "n_blue", parts[1].Key.String())
	assert.Equal(t, "m_red", parts[2].Key.String())
	for _, p := range parts {
		assert.Equal(t, 3, p.VertexCount())
	}
}

func TestExactEqualityKeepsNearPointsApart(t *testing.T) {
	a := NewAccumulator(0)
	key := PartitionKey{Node: "n"}
	a.AddTriangle(key, math.Identity(), math.Vec3{}, math.Vec3{X: 1}, math.Vec3{Y: 1})
	a.AddTriangle(key, math.Identity(), math.Vec3{X: 1e-6}, math.Vec3{X: 1}, math.Vec3{Y: 1})

	p, _ := a.Partition(key)
	assert.Equal(t, 4, p.VertexCount())
}

func TestToleranceMergesNearPoints(t *testing.T) {
	a := NewAccumulator(0.001)
	key := PartitionKey{Node: "n"}
	a.AddTriangle(key, math.Identity(), math.Vec3{}, math.Vec3{X: 1}, math.Vec3{Y: 1})
	a.AddTriangle(key, math.Identity(), math.Vec3{X: 1e-6}, math.Vec3{X: 1}, math.Vec3{Y: 1})

	p, _ := a.Partition(key)
	assert.Equal(t, 3, p.VertexCount())
	assert.Equal(t, math.Vec3{}, p.Positions[0], "first-seen coordinates are kept")
}

func TestTexturedVerticesSplitOnUV(t *testing.T) {
	a := NewAccumulator(0)
	key := PartitionKey{Node: "n"}
	p3 := [3]math.Vec3{{}, {X: 1}, {Y: 1}}
	a.AddTexturedTriangle(key, math.Identity(), p3, [3]math.Vec2{{}, {X: 1}, {Y: 1}})
	a.AddTexturedTriangle(key, math.Identity(), p3, [3]math.Vec2{{X: 0.5}, {X: 1}, {Y: 1}})

	p, _ := a.Partition(key)
	assert.True(t, p.HasUVs())
	assert.Equal(t, 4, p.VertexCount())
	assert.Equal(t, []uint32{0, 1, 2, 3, 1, 2}, p.Indices)
}

func TestProxyTrianglesAuthorNormals(t *testing.T) {
	a := NewAccumulator(0)
	key := PartitionKey{Node: "n"}
	a.AddProxyTriangle(key, math.Identity(), math.Vec3{}, math.Vec3{X: 1}, math.Vec3{Y: 1})
	// Shares the first two vertices; their normals stay as first authored.
	a.AddProxyTriangle(key, math.Identity(), math.Vec3{}, math.Vec3{X: 1}, math.Vec3{Z: -1})

	p, _ := a.Partition(key)
	require.True(t, p.HasNormals())
	assert.Len(t, p.Normals, 4)
	assert.Equal(t, math.Vec3{Z: 1}, p.Normals[0])
	assert.Equal(t, math.Vec3{Z: 1}, p.Normals[1])
	assert.Equal(t, math.Vec3{Y: 1}, p.Normals[3])
}

func TestGeneralTrianglesHaveNoNormals(t *testing.T) {
	a := NewAccumulator(0)
	key := PartitionKey{Node: "n"}
	addBatch(a, key, math.Identity(), trianglePoints(0))
	p, _ := a.Partition(key)
	assert.False(t, p.HasNormals())

	a.AddProxyTriangle(key, math.Identity(), math.Vec3{X: 3}, math.Vec3{X: 4}, math.Vec3{X: 3, Y: 1})
	assert.False(t, p.HasNormals(), "mixed partitions drop normals")
}

func TestSealFreezesPartitions(t *testing.T) {
	a := NewAccumulator(0)
	key := PartitionKey{Node: "n", Material: "m"}
	addBatch(a, key, math.Identity(), trianglePoints(0))

	sealed := a.Seal("n")
	require.Len(t, sealed, 1)
	assert.True(t, sealed[0].Sealed())

	addBatch(a, key, math.Identity(), trianglePoints(10))
	assert.Equal(t, 3, sealed[0].VertexCount(), "sealed partitions are immutable")
	assert.Empty(t, a.Seal("n"))
}

func TestSealedNodeRejectsNewMaterials(t *testing.T) {
	a := NewAccumulator(0)
	addBatch(a, PartitionKey{Node: "n", Material: "m"}, math.Identity(), trianglePoints(0))
	require.Len(t, a.Seal("n"), 1)

	stale := PartitionKey{Node: "n", Material: "other"}
	addBatch(a, stale, math.Identity(), trianglePoints(0))
	_, ok := a.Partition(stale)
	assert.False(t, ok, "an ended node opens no new partition")
	assert.Len(t, a.Partitions(), 1)
}

func TestSealOnlyTouchesItsNode(t *testing.T) {
	a := NewAccumulator(0)
	for i := range 100 {
		node := fmt.Sprintf("n%d", i)
		addBatch(a, PartitionKey{Node: node, Material: "a"}, math.Identity(), trianglePoints(0))
		addBatch(a, PartitionKey{Node: node, Material: "b"}, math.Identity(), trianglePoints(1))
	}

	sealed := a.Seal("n42")
	require.Len(t, sealed, 2)
	assert.Equal(t, "a", sealed[0].Key.Material)
	assert.Equal(t, "b", sealed[1].Key.Material)

	for _, p := range a.Partitions() {
		assert.Equal(t, p.Key.Node == "n42", p.Sealed(), p.Key.String())
	}
	assert.Empty(t, a.Seal("n42"))
}
