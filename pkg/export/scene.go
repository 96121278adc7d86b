package export

import (
	"github.com/Faultbox/midgard-gltf/internal/ordered"
	"github.com/Faultbox/midgard-gltf/pkg/gltf"
	"github.com/Faultbox/midgard-gltf/pkg/metadata"
)

// Reserved node keys. Element ids never start with a NUL byte.
const (
	rootKey  = "\x00root"
	xformKey = "\x00xform"

	rootName  = "rootNode"
	xformName = "xFormNode"
)

type sceneNode struct {
	name     string
	children []int
	mesh     int // -1 when the node has no geometry

	rotation    *[4]float32
	scale       *[3]float32
	translation *[3]float32

	class string // empty when no metadata is attached
	props *ordered.Map[string, metadata.Value]
}

type meshEntry struct {
	name  string
	parts []*Partition
}

// sceneGraph holds nodes keyed by source element id, in creation order, and
// the meshes attached to them.
type sceneGraph struct {
	nodes  *ordered.Map[string, *sceneNode]
	meshes []meshEntry
}

func newSceneGraph() *sceneGraph {
	g := &sceneGraph{nodes: ordered.New[string, *sceneNode]()}
	g.nodes.Add(rootKey, &sceneNode{name: rootName, mesh: -1})
	g.addNode(xformKey, xformName, rootKey)
	return g
}

// addNode creates a node under parent. It reports false, and changes
// nothing, when key already exists. A missing parent falls back to the axis
// node.
func (g *sceneGraph) addNode(key, name, parent string) (*sceneNode, bool) {
	if g.nodes.Contains(key) {
		return nil, false
	}
	n := &sceneNode{name: name, mesh: -1}
	idx, _ := g.nodes.Add(key, n)

	p, ok := g.nodes.Get(parent)
	if !ok {
		p, _ = g.nodes.Get(xformKey)
	}
	p.children = append(p.children, idx)
	return n, true
}

func (g *sceneGraph) node(key string) (*sceneNode, bool) {
	return g.nodes.Get(key)
}

// attachMesh gives key a mesh made of parts. A node holds at most one mesh.
func (g *sceneGraph) attachMesh(key string, parts []*Partition) bool {
	n, ok := g.nodes.Get(key)
	if !ok || n.mesh >= 0 || len(parts) == 0 {
		return false
	}
	n.mesh = len(g.meshes)
	g.meshes = append(g.meshes, meshEntry{name: n.name, parts: parts})
	return true
}

// sealedPartitions returns every partition attached to a mesh, in partition
// creation order.
func (g *sceneGraph) sealedPartitions(acc *Accumulator) []*Partition {
	attached := make(map[*Partition]bool)
	for _, m := range g.meshes {
		for _, p := range m.parts {
			attached[p] = true
		}
	}
	var out []*Partition
	for _, p := range acc.Partitions() {
		if attached[p] {
			out = append(out, p)
		}
	}
	return out
}

func (g *sceneGraph) gltfNodes() []gltf.Node {
	out := make([]gltf.Node, 0, g.nodes.Len())
	for _, n := range g.nodes.All() {
		gn := gltf.Node{
			Name:        n.name,
			Children:    n.children,
			Rotation:    n.rotation,
			Scale:       n.scale,
			Translation: n.translation,
		}
		if n.mesh >= 0 {
			gn.Mesh = gltf.Ptr(n.mesh)
		}
		if n.class != "" {
			md := &gltf.NodeMetadata{Class: n.class}
			if n.props != nil && n.props.Len() > 0 {
				md.Properties = n.props
			}
			gn.Extensions = &gltf.NodeExtensions{StructuralMetadata: md}
		}
		out = append(out, gn)
	}
	return out
}
