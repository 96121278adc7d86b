package formats

import (
	"errors"
	"fmt"
)

// RSW format errors.
var (
	ErrInvalidRSWMagic       = errors.New("invalid RSW magic: expected 'GRSW'")
	ErrUnsupportedRSWVersion = errors.New("unsupported RSW version")
	ErrTruncatedRSWData      = errors.New("truncated RSW data")
	ErrUnknownObjectType     = errors.New("unknown RSW object type")
)

const (
	rswFileNameSize   = 40
	rswObjectNameSize = 80
)

// RSWVersion represents the RSW file version.
type RSWVersion struct {
	Major       uint8
	Minor       uint8
	BuildNumber uint32 // v2.2+
}

// String returns the version as "Major.Minor" or "Major.Minor.Build".
func (v RSWVersion) String() string {
	if v.BuildNumber > 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.BuildNumber)
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v RSWVersion) AtLeast(major, minor uint8) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// RSWObjectType is the kind of a world object.
type RSWObjectType int32

const (
	RSWObjectModel  RSWObjectType = 1
	RSWObjectLight  RSWObjectType = 2
	RSWObjectSound  RSWObjectType = 3
	RSWObjectEffect RSWObjectType = 4
)

// String returns a human-readable object type name.
func (t RSWObjectType) String() string {
	switch t {
	case RSWObjectModel:
		return "Model"
	case RSWObjectLight:
		return "Light"
	case RSWObjectSound:
		return "Sound"
	case RSWObjectEffect:
		return "Effect"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// RSWWater contains water settings (v1.3 to v2.5).
type RSWWater struct {
	Level      float32
	Type       int32
	WaveHeight float32
	WaveSpeed  float32
	WavePitch  float32
	AnimSpeed  int32
}

// RSWLight contains global lighting settings (v1.5+).
type RSWLight struct {
	Longitude int32 // degrees
	Latitude  int32 // degrees
	Diffuse   [3]float32
	Ambient   [3]float32
	Opacity   float32 // v1.7+
}

// RSWModel is a model placement.
type RSWModel struct {
	Name      string
	AnimType  int32   // v1.3+
	AnimSpeed float32 // v1.3+
	BlockType int32   // v1.3+
	ModelName string  // RSM file, relative to data/model/
	NodeName  string
	Position  [3]float32
	Rotation  [3]float32 // degrees
	Scale     [3]float32
}

// RSWLightSource is a point light.
type RSWLightSource struct {
	Name     string
	Position [3]float32
	Color    [3]float32
	Range    float32
}

// RSWSoundSource is a sound emitter.
type RSWSoundSource struct {
	Name     string
	File     string
	Position [3]float32
	Volume   float32
	Width    int32
	Height   int32
	Range    float32
	Cycle    float32 // v2.0+
}

// RSWEffectSource is a visual effect emitter.
type RSWEffectSource struct {
	Name     string
	Position [3]float32
	EffectID int32
	Delay    float32
	Param    [4]float32
}

// RSWObject is one world object; exactly one of the pointers is set.
type RSWObject struct {
	Type   RSWObjectType
	Model  *RSWModel
	Light  *RSWLightSource
	Sound  *RSWSoundSource
	Effect *RSWEffectSource
}

// Name returns the instance name of whichever object is set.
func (o RSWObject) Name() string {
	switch {
	case o.Model != nil:
		return o.Model.Name
	case o.Light != nil:
		return o.Light.Name
	case o.Sound != nil:
		return o.Sound.Name
	case o.Effect != nil:
		return o.Effect.Name
	}
	return ""
}

// RSW is a parsed resource world.
type RSW struct {
	Version RSWVersion
	IniFile string
	GndFile string
	GatFile string // v1.4+
	SrcFile string // v1.4+
	Water   RSWWater
	Light   RSWLight
	Ground  [4]int32 // top, bottom, left, right; v1.6+
	Objects []RSWObject
}

// CountByType returns the count of objects for each type.
func (rsw *RSW) CountByType() map[RSWObjectType]int {
	counts := make(map[RSWObjectType]int)
	for _, obj := range rsw.Objects {
		counts[obj.Type]++
	}
	return counts
}

// Models returns all model placements in file order.
func (rsw *RSW) Models() []*RSWModel {
	var models []*RSWModel
	for _, obj := range rsw.Objects {
		if obj.Model != nil {
			models = append(models, obj.Model)
		}
	}
	return models
}

// ParseRSW parses an RSW world, versions 1.2 to 2.6. Trailing quadtree data
// is not decoded.
func ParseRSW(data []byte) (*RSW, error) {
	r := newReader(data, ErrTruncatedRSWData)

	magic := r.take(4, "magic")
	if r.err != nil {
		return nil, r.err
	}
	if string(magic) != "GRSW" {
		return nil, ErrInvalidRSWMagic
	}

	rsw := &RSW{}
	v := &rsw.Version
	v.Major = r.u8("version")
	v.Minor = r.u8("version")
	if r.err != nil {
		return nil, r.err
	}
	if !v.AtLeast(1, 2) || v.Major > 2 || (v.Major == 2 && v.Minor > 6) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSWVersion, *v)
	}

	switch {
	case v.AtLeast(2, 5):
		v.BuildNumber = r.u32("build number")
		r.skip(1, "render flag")
	case v.AtLeast(2, 2):
		v.BuildNumber = uint32(r.u8("build number"))
	}

	rsw.IniFile = r.str(rswFileNameSize, "ini file")
	rsw.GndFile = r.str(rswFileNameSize, "gnd file")
	if v.AtLeast(1, 4) {
		rsw.GatFile = r.str(rswFileNameSize, "gat file")
		rsw.SrcFile = r.str(rswFileNameSize, "src file")
	}

	if v.AtLeast(1, 3) && !v.AtLeast(2, 6) {
		w := &rsw.Water
		w.Level = r.f32("water level")
		w.Type = r.i32("water type")
		w.WaveHeight = r.f32("wave height")
		w.WaveSpeed = r.f32("wave speed")
		w.WavePitch = r.f32("wave pitch")
		w.AnimSpeed = r.i32("water anim speed")
	}

	if v.AtLeast(1, 5) {
		l := &rsw.Light
		l.Longitude = r.i32("light longitude")
		l.Latitude = r.i32("light latitude")
		l.Diffuse = r.vec3("light diffuse")
		l.Ambient = r.vec3("light ambient")
		if v.AtLeast(1, 7) {
			l.Opacity = r.f32("shadow opacity")
		}
	}

	if v.AtLeast(1, 6) {
		for i := range rsw.Ground {
			rsw.Ground[i] = r.i32("ground bounds")
		}
	}

	n := r.count("object", 4)
	if r.err != nil {
		return nil, r.err
	}
	rsw.Objects = make([]RSWObject, 0, n)
	for i := 0; i < n; i++ {
		obj, err := readRSWObject(r, *v)
		if err != nil {
			return nil, fmt.Errorf("parsing object %d: %w", i, err)
		}
		rsw.Objects = append(rsw.Objects, obj)
	}

	return rsw, nil
}

func readRSWObject(r *reader, v RSWVersion) (RSWObject, error) {
	obj := RSWObject{Type: RSWObjectType(r.i32("object type"))}
	if r.err != nil {
		return RSWObject{}, r.err
	}

	switch obj.Type {
	case RSWObjectModel:
		m := &RSWModel{}
		if v.AtLeast(1, 3) {
			m.Name = r.str(rswFileNameSize, "model name")
			m.AnimType = r.i32("anim type")
			m.AnimSpeed = r.f32("anim speed")
			m.BlockType = r.i32("block type")
		}
		// v2.6.162+ adds a collision flag byte.
		if v.AtLeast(2, 6) && v.BuildNumber >= 162 {
			r.skip(1, "model collision flag")
		}
		m.ModelName = r.str(rswObjectNameSize, "model file name")
		m.NodeName = r.str(rswObjectNameSize, "node name")
		m.Position = r.vec3("model position")
		m.Rotation = r.vec3("model rotation")
		m.Scale = r.vec3("model scale")
		obj.Model = m

	case RSWObjectLight:
		l := &RSWLightSource{}
		l.Name = r.str(rswObjectNameSize, "light name")
		l.Position = r.vec3("light position")
		l.Color = r.vec3("light color")
		l.Range = r.f32("light range")
		obj.Light = l

	case RSWObjectSound:
		s := &RSWSoundSource{}
		s.Name = r.str(rswObjectNameSize, "sound name")
		s.File = r.str(rswObjectNameSize, "sound file")
		s.Position = r.vec3("sound position")
		s.Volume = r.f32("sound volume")
		s.Width = r.i32("sound width")
		s.Height = r.i32("sound height")
		s.Range = r.f32("sound range")
		if v.AtLeast(2, 0) {
			s.Cycle = r.f32("sound cycle")
		}
		obj.Sound = s

	case RSWObjectEffect:
		e := &RSWEffectSource{}
		e.Name = r.str(rswObjectNameSize, "effect name")
		e.Position = r.vec3("effect position")
		e.EffectID = r.i32("effect id")
		e.Delay = r.f32("effect delay")
		e.Param = r.vec4("effect param")
		obj.Effect = e

	default:
		return RSWObject{}, fmt.Errorf("%w: %d", ErrUnknownObjectType, obj.Type)
	}

	if r.err != nil {
		return RSWObject{}, r.err
	}
	return obj, nil
}
