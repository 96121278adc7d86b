package export

import (
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/internal/ordered"
	"github.com/Faultbox/midgard-gltf/pkg/gltf"
)

// Material authoring schemas that allow texture extraction.
const (
	SchemaGeneric      = "generic"
	SchemaPrismGeneric = "prism-generic"
	SchemaRSMTexture   = "rsm-texture"
)

var textureSchemas = map[string]bool{
	SchemaGeneric:      true,
	SchemaPrismGeneric: true,
	SchemaRSMTexture:   true,
}

// TextureRef points a material at an image file relative to the output.
type TextureRef struct {
	URI      string
	Offset   [2]float32
	Rotation float32    // radians
	Scale    [2]float32 // zero value means [1, 1]
}

func (t TextureRef) transform() *gltf.TextureTransform {
	scale := t.Scale
	if scale == ([2]float32{}) {
		scale = [2]float32{1, 1}
	}
	if t.Offset == ([2]float32{}) && t.Rotation == 0 && scale == ([2]float32{1, 1}) {
		return nil
	}
	tt := &gltf.TextureTransform{Rotation: t.Rotation}
	if t.Offset != ([2]float32{}) {
		tt.Offset = &t.Offset
	}
	if scale != ([2]float32{1, 1}) {
		tt.Scale = &scale
	}
	return tt
}

// MaterialInfo describes the appearance assigned to subsequent geometry.
type MaterialInfo struct {
	Key          string // stable unique id
	Name         string // reuses the cached name for Key when empty
	Color        [3]uint8
	Transparency float32 // 0 opaque .. 1 invisible
	DoubleSided  bool
	Schema       string
	Texture      *TextureRef
}

// materialTable registers materials and their images in first-seen order.
// The name cache lives here, per session.
type materialTable struct {
	materials     *ordered.Map[string, gltf.Material]
	images        *ordered.Map[string, gltf.Image]
	names         map[string]string
	transformUsed bool
	log           *zap.Logger
}

func newMaterialTable(log *zap.Logger) *materialTable {
	return &materialTable{
		materials: ordered.New[string, gltf.Material](),
		images:    ordered.New[string, gltf.Image](),
		names:     make(map[string]string),
		log:       log,
	}
}

// name resolves the display name of info through the cache.
func (t *materialTable) name(info MaterialInfo) string {
	if info.Name != "" {
		t.names[info.Key] = info.Name
		return info.Name
	}
	if n, ok := t.names[info.Key]; ok {
		return n
	}
	return info.Key
}

// register adds info once and reports whether the material is textured.
func (t *materialTable) register(info MaterialInfo, textures bool) bool {
	name := t.name(info)
	if m, ok := t.materials.Get(info.Key); ok {
		pbr := m.PBRMetallicRoughness
		return pbr != nil && pbr.BaseColorTexture != nil
	}

	opacity := 1 - clamp01(info.Transparency)
	roughness := float32(1)
	alpha := gltf.AlphaOpaque
	if opacity != 1 {
		roughness = 0.5
		alpha = gltf.AlphaBlend
	}

	m := gltf.Material{
		Name: name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{
				float32(info.Color[0]) / 255,
				float32(info.Color[1]) / 255,
				float32(info.Color[2]) / 255,
				opacity,
			},
			MetallicFactor:  gltf.Ptr(float32(0)),
			RoughnessFactor: gltf.Ptr(roughness),
		},
		AlphaMode:   alpha,
		DoubleSided: info.DoubleSided,
	}

	textured := false
	if textures && info.Texture != nil && info.Texture.URI != "" {
		if textureSchemas[info.Schema] {
			m.PBRMetallicRoughness.BaseColorTexture = t.textureInfo(*info.Texture)
			textured = true
		} else {
			t.log.Info("unrecognized material schema, exporting color only",
				zap.String("material", info.Key),
				zap.String("schema", info.Schema))
		}
	}

	t.materials.Add(info.Key, m)
	return textured
}

func (t *materialTable) textureInfo(ref TextureRef) *gltf.TextureInfo {
	img := gltf.Image{URI: ref.URI}
	if strings.HasSuffix(strings.ToLower(ref.URI), ".png") {
		img.MimeType = gltf.MimePNG
	}
	idx, _ := t.images.Add(ref.URI, img)

	info := &gltf.TextureInfo{Index: idx}
	if tt := ref.transform(); tt != nil {
		info.Extensions = &gltf.TextureInfoExtensions{TextureTransform: tt}
		t.transformUsed = true
	}
	return info
}

// index resolves a material key to its array position.
func (t *materialTable) index(key string) (int, bool) {
	return t.materials.Index(key)
}

func (t *materialTable) gltfTextures() ([]gltf.Texture, []gltf.Image, []gltf.Sampler) {
	if t.images.Len() == 0 {
		return nil, nil, nil
	}
	images := t.images.Values()
	textures := make([]gltf.Texture, len(images))
	for i := range images {
		textures[i] = gltf.Texture{Sampler: gltf.Ptr(0), Source: gltf.Ptr(i)}
	}
	samplers := []gltf.Sampler{{
		MagFilter: gltf.FilterLinear,
		MinFilter: gltf.FilterLinearMipmapLinear,
		WrapS:     gltf.WrapRepeat,
		WrapT:     gltf.WrapRepeat,
	}}
	return textures, images, samplers
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
