package scene

import (
	"github.com/Faultbox/midgard-gltf/pkg/formats"
	"github.com/Faultbox/midgard-gltf/pkg/math"
)

// flipY converts RSM model space, where Y points down, to world space.
var flipY = math.Scale(1, -1, 1)

// nodeLocal returns the matrix a node passes to its children:
// Position * Rotation * Scale. The first rotation keyframe, when present,
// replaces the axis-angle rotation.
func nodeLocal(n *formats.RSMNode) math.Mat4 {
	m := math.Translate(n.Position[0], n.Position[1], n.Position[2])

	switch {
	case len(n.RotKeys) > 0:
		m = m.Mul(math.QuatFromArray(n.RotKeys[0].Quaternion).Normalize().ToMat4())
	case n.RotAngle != 0:
		axis := math.Vec3From(n.RotAxis)
		if axis.Length() > 1e-6 {
			m = m.Mul(math.RotateAxis(axis.Normalize(), n.RotAngle))
		}
	}

	m = m.Mul(math.Scale(n.Scale[0], n.Scale[1], n.Scale[2]))
	if len(n.ScaleKeys) > 0 {
		s := n.ScaleKeys[0].Value
		m = m.Mul(math.Scale(s[0], s[1], s[2]))
	}
	return m
}

// nodeVertex returns the offset and 3x3 matrix applied to the node's own
// vertices only.
func nodeVertex(n *formats.RSMNode) math.Mat4 {
	return math.Translate(n.Offset[0], n.Offset[1], n.Offset[2]).Mul(math.FromMat3x3(n.Matrix))
}

// placementMatrix places a model in a world whose ground spans width by
// height units. RSW positions are relative to the map centre with Y down;
// rotations are degrees applied Y, X, Z.
func placementMatrix(m *formats.RSWModel, width, height float32) math.Mat4 {
	result := math.Translate(m.Position[0]+width/2, -m.Position[1], m.Position[2]+height/2)
	result = result.Mul(math.RotateY(math.Radians(m.Rotation[1])))
	result = result.Mul(math.RotateX(math.Radians(m.Rotation[0])))
	result = result.Mul(math.RotateZ(math.Radians(m.Rotation[2])))
	return result.Mul(math.Scale(m.Scale[0], m.Scale[1], m.Scale[2]))
}

// mirrored reports whether a placement scale flips handedness, in which
// case face winding is reversed.
func mirrored(m *formats.RSWModel) bool {
	return m.Scale[0]*m.Scale[1]*m.Scale[2] < 0
}
