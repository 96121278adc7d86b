package export

import (
	"github.com/Faultbox/midgard-gltf/pkg/math"
)

// frame is one immutable entry of a TransformStack.
type frame struct {
	parent   *frame
	matrix   math.Mat4 // cumulative
	link     bool
	document string
	depth    int
}

// TransformStack is a persistent stack of cumulative transforms. Push and
// Pop return new stacks and never modify the receiver, so a stack can be
// carried by value in an AccumulationContext. The zero value is the identity.
type TransformStack struct {
	top *frame
}

// Current returns the cumulative transform at the top of the stack.
func (s TransformStack) Current() math.Mat4 {
	if s.top == nil {
		return math.Identity()
	}
	return s.top.matrix
}

// Depth returns the number of pushed frames.
func (s TransformStack) Depth() int {
	if s.top == nil {
		return 0
	}
	return s.top.depth
}

// Document returns the source document of the innermost link scope, or ""
// outside any link.
func (s TransformStack) Document() string {
	for f := s.top; f != nil; f = f.parent {
		if f.link {
			return f.document
		}
	}
	return ""
}

// Push returns a stack whose top is Current() * t.
func (s TransformStack) Push(t math.Mat4) TransformStack {
	return s.push(t, false, "")
}

// PushLink is Push for a linked sub-document; document becomes the
// document context until the matching PopLink.
func (s TransformStack) PushLink(t math.Mat4, document string) TransformStack {
	return s.push(t, true, document)
}

func (s TransformStack) push(t math.Mat4, link bool, document string) TransformStack {
	return TransformStack{top: &frame{
		parent:   s.top,
		matrix:   s.Current().Mul(t),
		link:     link,
		document: document,
		depth:    s.Depth() + 1,
	}}
}

// Pop removes a frame pushed with Push.
func (s TransformStack) Pop() (TransformStack, error) {
	return s.pop(false)
}

// PopLink removes a frame pushed with PushLink.
func (s TransformStack) PopLink() (TransformStack, error) {
	return s.pop(true)
}

func (s TransformStack) pop(link bool) (TransformStack, error) {
	if s.top == nil || s.top.link != link {
		return s, ErrUnbalancedStack
	}
	return TransformStack{top: s.top.parent}, nil
}
