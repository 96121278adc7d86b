package export

import (
	"github.com/Faultbox/midgard-gltf/pkg/math"
)

// unitCube returns the 12 triangles of the cube spanning (0,0,0)..(1,1,1)
// as a flat batch of 36 points.
func unitCube() []math.Vec3 {
	c := [8]math.Vec3{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
	}
	faces := [12][3]int{
		{0, 2, 1}, {0, 3, 2}, // bottom
		{4, 5, 6}, {4, 6, 7}, // top
		{0, 1, 5}, {0, 5, 4}, // front
		{2, 3, 7}, {2, 7, 6}, // back
		{1, 2, 6}, {1, 6, 5}, // right
		{3, 0, 4}, {3, 4, 7}, // left
	}
	out := make([]math.Vec3, 0, 36)
	for _, f := range faces {
		out = append(out, c[f[0]], c[f[1]], c[f[2]])
	}
	return out
}

func trianglePoints(offset float32) []math.Vec3 {
	return []math.Vec3{
		{X: offset, Y: 0, Z: 0},
		{X: offset + 1, Y: 0, Z: 0},
		{X: offset, Y: 1, Z: 0},
	}
}
