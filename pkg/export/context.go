package export

import (
	"github.com/Faultbox/midgard-gltf/pkg/math"
)

// AccumulationContext is the traversal state threaded through every session
// callback: the open element, the active material and the transform stack.
// Callbacks take a context and return the successor; a caller resumes with
// the outer context once a nested scope ends.
type AccumulationContext struct {
	node     string
	material string
	textured bool
	skip     bool
	// linkSkip is the stack depth of the link scope that started skipping,
	// or 0 when skipping was inherited from an element.
	linkSkip int
	stack    TransformStack
}

// Node returns the key of the open element, or "" outside any element.
func (ac AccumulationContext) Node() string { return ac.node }

// Material returns the active material key.
func (ac AccumulationContext) Material() string { return ac.material }

// Skipped reports whether callbacks in this context are ignored.
func (ac AccumulationContext) Skipped() bool { return ac.skip }

// Transform returns the cumulative transform.
func (ac AccumulationContext) Transform() math.Mat4 { return ac.stack.Current() }

// Document returns the linked document in scope, or "" for the host document.
func (ac AccumulationContext) Document() string { return ac.stack.Document() }

// Depth returns the transform stack depth.
func (ac AccumulationContext) Depth() int { return ac.stack.Depth() }

func (ac AccumulationContext) partition() PartitionKey {
	return PartitionKey{Node: ac.node, Material: ac.material}
}
