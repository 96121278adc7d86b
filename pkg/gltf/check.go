package gltf

import (
	"errors"
	"fmt"
)

func newErr(reason string) error {
	return errors.New("gltf: " + reason)
}

// elementSize returns the byte stride of one accessor element.
func elementSize(componentType int, typ string) (int, bool) {
	var comp int
	switch componentType {
	case ComponentFloat, ComponentUnsignedInt:
		comp = 4
	default:
		return 0, false
	}
	switch typ {
	case TypeScalar:
		return comp, true
	case TypeVec2:
		return 2 * comp, true
	case TypeVec3:
		return 3 * comp, true
	default:
		return 0, false
	}
}

// Check validates the cross references and buffer layout of d: every index
// points at an existing element, bufferViews tile the buffer without gaps or
// overlaps, and each accessor exactly covers its bufferView.
func (d *Document) Check() error {
	if d.Asset.Version != Version {
		return newErr("invalid Asset.Version")
	}
	if s := d.Scene; s != nil && (*s < 0 || *s >= len(d.Scenes)) {
		return newErr("invalid Document.Scene index")
	}
	for _, s := range d.Scenes {
		for _, n := range s.Nodes {
			if n < 0 || n >= len(d.Nodes) {
				return newErr("invalid Scene.Nodes index")
			}
		}
	}
	for i, n := range d.Nodes {
		for _, c := range n.Children {
			if c < 0 || c >= len(d.Nodes) || c == i {
				return newErr(fmt.Sprintf("invalid Node.Children index in node %d", i))
			}
		}
		if n.Mesh != nil && (*n.Mesh < 0 || *n.Mesh >= len(d.Meshes)) {
			return newErr(fmt.Sprintf("invalid Node.Mesh index in node %d", i))
		}
	}
	for i := range d.Meshes {
		if err := d.Meshes[i].check(d); err != nil {
			return err
		}
	}
	for _, t := range d.Textures {
		if t.Source != nil && (*t.Source < 0 || *t.Source >= len(d.Images)) {
			return newErr("invalid Texture.Source index")
		}
		if t.Sampler != nil && (*t.Sampler < 0 || *t.Sampler >= len(d.Samplers)) {
			return newErr("invalid Texture.Sampler index")
		}
	}
	for _, m := range d.Materials {
		if pbr := m.PBRMetallicRoughness; pbr != nil && pbr.BaseColorTexture != nil {
			if idx := pbr.BaseColorTexture.Index; idx < 0 || idx >= len(d.Textures) {
				return newErr("invalid TextureInfo.Index")
			}
		}
	}
	return d.checkLayout()
}

func (m *Mesh) check(d *Document) error {
	if len(m.Primitives) == 0 {
		return newErr("mesh without primitives")
	}
	for _, p := range m.Primitives {
		refs := []int{p.Attributes.Position, p.Indices}
		if p.Attributes.Normal != 0 {
			refs = append(refs, p.Attributes.Normal)
		}
		if p.Attributes.TexCoord0 != nil {
			refs = append(refs, *p.Attributes.TexCoord0)
		}
		for _, r := range refs {
			if r < 0 || r >= len(d.Accessors) {
				return newErr("invalid Primitive accessor index")
			}
		}
		if p.Material != nil && (*p.Material < 0 || *p.Material >= len(d.Materials)) {
			return newErr("invalid Primitive.Material index")
		}
	}
	return nil
}

func (d *Document) checkLayout() error {
	if len(d.Buffers) > 1 {
		return newErr("more than one buffer")
	}
	cursor := 0
	for i, v := range d.BufferViews {
		if v.Buffer != 0 || len(d.Buffers) == 0 {
			return newErr(fmt.Sprintf("invalid BufferView.Buffer index in view %d", i))
		}
		if v.ByteOffset != cursor {
			return newErr(fmt.Sprintf("bufferView %d starts at %d, want %d", i, v.ByteOffset, cursor))
		}
		cursor += v.ByteLength
	}
	if len(d.Buffers) == 1 && d.Buffers[0].ByteLength != cursor {
		return newErr(fmt.Sprintf("buffer length %d, views cover %d", d.Buffers[0].ByteLength, cursor))
	}
	for i, a := range d.Accessors {
		if a.BufferView < 0 || a.BufferView >= len(d.BufferViews) {
			return newErr(fmt.Sprintf("invalid Accessor.BufferView index in accessor %d", i))
		}
		size, ok := elementSize(a.ComponentType, a.Type)
		if !ok {
			return newErr(fmt.Sprintf("unsupported accessor %d format", i))
		}
		if a.Count < 1 {
			return newErr(fmt.Sprintf("invalid Accessor.Count in accessor %d", i))
		}
		if got := d.BufferViews[a.BufferView].ByteLength; got != a.Count*size {
			return newErr(fmt.Sprintf("accessor %d covers %d bytes, bufferView holds %d", i, a.Count*size, got))
		}
	}
	return nil
}
