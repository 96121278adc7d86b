package formats

import (
	"errors"
	"testing"

	"github.com/Faultbox/midgard-gltf/pkg/formats/formatstest"
)

func testModel() formatstest.Model {
	return formatstest.Model{
		Textures: []string{"wall.bmp", "roof.bmp"},
		Root:     "base",
		Nodes: []formatstest.Node{
			{
				Name:     "base",
				Textures: []int32{0, 1},
				Position: [3]float32{1, 2, 3},
				Vertices: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
				TexCoords: [][2]float32{
					{0, 0}, {1, 0}, {0, 1},
				},
				Faces: []formatstest.Face{
					{Vertices: [3]uint16{0, 1, 2}, TexCoords: [3]uint16{0, 1, 2}, Texture: 1, TwoSide: true},
				},
			},
			{
				Name:     "door",
				Parent:   "base",
				Textures: []int32{0},
				RotKeys:  [][4]float32{{0, 0, 0, 1}},
			},
		},
	}
}

func TestParseRSM_MagicValidation(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"invalid magic", []byte("XXXX\x01\x05"), ErrInvalidRSMMagic},
		{"empty data", []byte{}, ErrTruncatedRSMData},
		{"truncated magic", []byte{'G', 'R', 'S'}, ErrTruncatedRSMData},
		{"truncated header", []byte("GRSM\x01\x05\x00"), ErrTruncatedRSMData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRSM(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseRSM_VersionSupport(t *testing.T) {
	tests := []struct {
		name    string
		minor   uint8
		wantErr bool
	}{
		{"v1.1", 1, false},
		{"v1.2", 2, false},
		{"v1.3", 3, false},
		{"v1.4", 4, false},
		{"v1.5", 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel()
			m.Minor = tt.minor
			rsm, err := ParseRSM(m.Bytes())
			if (err != nil) != tt.wantErr {
				t.Fatalf("got error=%v, wantErr=%v", err, tt.wantErr)
			}
			if len(rsm.Nodes) != 2 || len(rsm.Nodes[0].Faces) != 1 {
				t.Errorf("got %d nodes, want 2 with one face on the first", len(rsm.Nodes))
			}
		})
	}
}

func TestParseRSM_RejectsVersion2(t *testing.T) {
	data := testModel().Bytes()
	data[4] = 2
	data[5] = 3

	_, err := ParseRSM(data)
	if !errors.Is(err, ErrUnsupportedRSMVersion) {
		t.Errorf("got %v, want ErrUnsupportedRSMVersion", err)
	}
}

func TestRSMVersion_AtLeast(t *testing.T) {
	tests := []struct {
		version RSMVersion
		major   uint8
		minor   uint8
		want    bool
	}{
		{RSMVersion{1, 5}, 1, 5, true},
		{RSMVersion{1, 5}, 1, 4, true},
		{RSMVersion{1, 5}, 1, 6, false},
		{RSMVersion{1, 5}, 2, 0, false},
		{RSMVersion{2, 3}, 1, 9, true},
	}

	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			if got := tt.version.AtLeast(tt.major, tt.minor); got != tt.want {
				t.Errorf("AtLeast(%d, %d) = %v, want %v", tt.major, tt.minor, got, tt.want)
			}
		})
	}
}

func TestRSMShadingType_String(t *testing.T) {
	tests := []struct {
		shading RSMShadingType
		want    string
	}{
		{RSMShadingNone, "None"},
		{RSMShadingFlat, "Flat"},
		{RSMShadingSmooth, "Smooth"},
		{RSMShadingType(99), "Unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.shading.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRSM_Structure(t *testing.T) {
	m := testModel()
	m.Alpha = 255
	rsm, err := ParseRSM(m.Bytes())
	if err != nil {
		t.Fatalf("ParseRSM failed: %v", err)
	}

	if rsm.Alpha != 1 {
		t.Errorf("Alpha = %f, want 1", rsm.Alpha)
	}
	if rsm.Shading != RSMShadingFlat {
		t.Errorf("Shading = %s, want Flat", rsm.Shading)
	}
	if len(rsm.Textures) != 2 || rsm.Textures[1] != "roof.bmp" {
		t.Errorf("Textures = %v", rsm.Textures)
	}
	if rsm.RootNode != "base" {
		t.Errorf("RootNode = %q, want base", rsm.RootNode)
	}

	base := rsm.Nodes[0]
	if base.Position != [3]float32{1, 2, 3} {
		t.Errorf("Position = %v", base.Position)
	}
	if base.Scale != [3]float32{1, 1, 1} {
		t.Errorf("Scale = %v", base.Scale)
	}
	if base.Matrix != formatstest.Identity3 {
		t.Errorf("Matrix = %v", base.Matrix)
	}
	if len(base.Vertices) != 3 || base.Vertices[1] != [3]float32{1, 0, 0} {
		t.Errorf("Vertices = %v", base.Vertices)
	}
	if base.TexCoords[2].V != 1 || base.TexCoords[2].Color != [4]uint8{255, 255, 255, 255} {
		t.Errorf("TexCoords[2] = %+v", base.TexCoords[2])
	}

	f := base.Faces[0]
	if f.TwoSide != 1 || f.TextureID != 1 {
		t.Errorf("face = %+v", f)
	}
	if id, name := base.Texture(rsm, f); id != 1 || name != "roof.bmp" {
		t.Errorf("Texture = %d %q, want 1 roof.bmp", id, name)
	}

	door := rsm.Nodes[1]
	if door.Parent != "base" || len(door.RotKeys) != 1 || door.RotKeys[0].Quaternion[3] != 1 {
		t.Errorf("door = %+v", door)
	}
}

func TestParseRSM_Truncated(t *testing.T) {
	data := testModel().Bytes()
	for _, cut := range []int{10, 40, 120, len(data) - 8} {
		if _, err := ParseRSM(data[:cut]); err == nil {
			t.Errorf("cut at %d: expected error", cut)
		}
	}
}

func TestParseRSM_InvalidCount(t *testing.T) {
	m := formatstest.Model{Nodes: []formatstest.Node{{Name: "n"}}}
	data := m.Bytes()
	// Texture count follows the 6-byte magic and version, two int32 and the
	// alpha byte plus 16 reserved bytes.
	off := 6 + 8 + 1 + 16
	data[off+3] = 0x80

	_, err := ParseRSM(data)
	if !errors.Is(err, ErrInvalidCount) {
		t.Errorf("got %v, want ErrInvalidCount", err)
	}
}

func TestRSM_Hierarchy(t *testing.T) {
	rsm, err := ParseRSM(testModel().Bytes())
	if err != nil {
		t.Fatal(err)
	}

	if n := rsm.NodeByName("door"); n == nil || n.Parent != "base" {
		t.Errorf("NodeByName(door) = %+v", n)
	}
	if rsm.NodeByName("missing") != nil {
		t.Error("NodeByName(missing) should be nil")
	}

	roots := rsm.Roots()
	if len(roots) != 1 || roots[0].Name != "base" {
		t.Errorf("Roots = %v", roots)
	}
	children := rsm.Children("base")
	if len(children) != 1 || children[0].Name != "door" {
		t.Errorf("Children(base) = %v", children)
	}

	if got := rsm.VertexCount(); got != 3 {
		t.Errorf("VertexCount = %d, want 3", got)
	}
	if got := rsm.FaceCount(); got != 1 {
		t.Errorf("FaceCount = %d, want 1", got)
	}
}

func TestRSM_SelfParentIsRoot(t *testing.T) {
	rsm := &RSM{Nodes: []RSMNode{{Name: "a", Parent: "a"}, {Name: "b", Parent: "gone"}}}
	if roots := rsm.Roots(); len(roots) != 2 {
		t.Errorf("got %d roots, want 2", len(roots))
	}
	if children := rsm.Children("a"); len(children) != 0 {
		t.Errorf("self-parented node listed as its own child")
	}
}

func TestModelStem(t *testing.T) {
	tests := map[string]string{
		`prontera\house01.rsm`: "house01",
		"a/b/tree.RSM":         "tree",
		"plain":                "plain",
	}
	for in, want := range tests {
		if got := ModelStem(in); got != want {
			t.Errorf("ModelStem(%q) = %q, want %q", in, got, want)
		}
	}
}
