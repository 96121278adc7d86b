// Package formatstest encodes small RSM, RSW and GND files for tests.
package formatstest

import (
	"bytes"
	"encoding/binary"
)

// Identity3 is the identity 3x3 node matrix.
var Identity3 = [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1}

// Face is one RSM triangle.
type Face struct {
	Vertices  [3]uint16
	TexCoords [3]uint16
	Texture   uint16
	TwoSide   bool
}

// Node is one RSM node. A zero Matrix or Scale is written as identity.
type Node struct {
	Name      string
	Parent    string
	Textures  []int32
	Matrix    [9]float32
	Offset    [3]float32
	Position  [3]float32
	RotAngle  float32
	RotAxis   [3]float32
	Scale     [3]float32
	Vertices  [][3]float32
	TexCoords [][2]float32
	Faces     []Face
	RotKeys   [][4]float32
}

// Model is a v1.x RSM model. Minor defaults to 5; a zero Alpha is written
// as opaque.
type Model struct {
	Minor    uint8
	Alpha    uint8
	Textures []string
	Root     string
	Nodes    []Node
}

type writer struct{ bytes.Buffer }

func (w *writer) put(v any) {
	binary.Write(&w.Buffer, binary.LittleEndian, v)
}

func (w *writer) str(s string, size int) {
	b := make([]byte, size)
	copy(b, s)
	w.Write(b)
}

// Bytes encodes m.
func (m Model) Bytes() []byte {
	minor := m.Minor
	if minor == 0 {
		minor = 5
	}
	w := &writer{}
	w.WriteString("GRSM")
	w.put([]uint8{1, minor})
	w.put(int32(0)) // animation length
	w.put(int32(1)) // flat shading
	if minor >= 4 {
		alpha := m.Alpha
		if alpha == 0 {
			alpha = 255
		}
		w.put(alpha)
	}
	w.Write(make([]byte, 16))

	w.put(int32(len(m.Textures)))
	for _, t := range m.Textures {
		w.str(t, 40)
	}
	w.str(m.Root, 40)

	w.put(int32(len(m.Nodes)))
	for _, n := range m.Nodes {
		w.node(n, minor)
	}
	w.put(int32(0)) // volume boxes
	return w.Bytes()
}

func (w *writer) node(n Node, minor uint8) {
	if n.Matrix == ([9]float32{}) {
		n.Matrix = Identity3
	}
	if n.Scale == ([3]float32{}) {
		n.Scale = [3]float32{1, 1, 1}
	}

	w.str(n.Name, 40)
	w.str(n.Parent, 40)
	w.put(int32(len(n.Textures)))
	w.put(n.Textures)
	w.put(n.Matrix)
	w.put(n.Offset)
	w.put(n.Position)
	w.put(n.RotAngle)
	w.put(n.RotAxis)
	w.put(n.Scale)

	w.put(int32(len(n.Vertices)))
	w.put(n.Vertices)

	w.put(int32(len(n.TexCoords)))
	for _, tc := range n.TexCoords {
		if minor >= 2 {
			w.put([4]uint8{255, 255, 255, 255})
		}
		w.put(tc)
	}

	w.put(int32(len(n.Faces)))
	for _, f := range n.Faces {
		w.put(f.Vertices)
		w.put(f.TexCoords)
		w.put(f.Texture)
		w.put(uint16(0))
		two := int32(0)
		if f.TwoSide {
			two = 1
		}
		w.put(two)
		if minor >= 2 {
			w.put(int32(0))
		}
	}

	if minor < 5 {
		w.put(int32(0)) // position keys
	}
	w.put(int32(len(n.RotKeys)))
	for i, q := range n.RotKeys {
		w.put(int32(i))
		w.put(q)
	}
	if minor >= 5 {
		w.put(int32(0)) // scale keys
	}
}

// Placement is a model object of a world.
type Placement struct {
	Name      string
	Model     string
	Node      string
	AnimType  int32
	AnimSpeed float32
	BlockType int32
	Position  [3]float32
	Rotation  [3]float32
	Scale     [3]float32
}

// World is an RSW world. Version defaults to 2.1.
type World struct {
	Major, Minor uint8
	Build        uint32
	Ground       string
	Models       []Placement
	Lights       []string
}

// Bytes encodes w.
func (wd World) Bytes() []byte {
	major, minor := wd.Major, wd.Minor
	if major == 0 {
		major, minor = 2, 1
	}
	at := func(ma, mi uint8) bool { return major > ma || (major == ma && minor >= mi) }

	w := &writer{}
	w.WriteString("GRSW")
	w.put([]uint8{major, minor})
	switch {
	case at(2, 5):
		w.put(wd.Build)
		w.put(uint8(0))
	case at(2, 2):
		w.put(uint8(wd.Build))
	}

	w.str("", 40) // ini
	w.str(wd.Ground, 40)
	if at(1, 4) {
		w.str("", 40) // gat
		w.str("", 40) // src
	}
	if at(1, 3) && !at(2, 6) {
		w.put([6]uint32{})
	}
	if at(1, 5) {
		w.put([8]uint32{})
		if at(1, 7) {
			w.put(float32(0.5))
		}
	}
	if at(1, 6) {
		w.put([4]int32{})
	}

	w.put(int32(len(wd.Models) + len(wd.Lights)))
	for _, m := range wd.Models {
		w.put(int32(1))
		if at(1, 3) {
			w.str(m.Name, 40)
			w.put(m.AnimType)
			w.put(m.AnimSpeed)
			w.put(m.BlockType)
		}
		if at(2, 6) && wd.Build >= 162 {
			w.put(uint8(0))
		}
		w.str(m.Model, 80)
		w.str(m.Node, 80)
		w.put(m.Position)
		w.put(m.Rotation)
		w.put(m.Scale)
	}
	for _, l := range wd.Lights {
		w.put(int32(2))
		w.str(l, 80)
		w.put([7]float32{0, 0, 0, 1, 1, 1, 10})
	}
	return w.Bytes()
}

// Ground encodes a GND header (version 1.7) followed by no tile data.
func Ground(width, height uint32, zoom float32) []byte {
	w := &writer{}
	w.WriteString("GRGN")
	w.put([]uint8{1, 7})
	w.put(width)
	w.put(height)
	w.put(zoom)
	return w.Bytes()
}
