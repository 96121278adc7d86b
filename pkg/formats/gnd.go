package formats

import (
	"errors"
	"fmt"
)

// GND format errors.
var (
	ErrInvalidGNDMagic       = errors.New("invalid GND magic: expected 'GRGN'")
	ErrUnsupportedGNDVersion = errors.New("unsupported GND version")
	ErrTruncatedGNDData      = errors.New("truncated GND data")
	ErrInvalidGNDDimensions  = errors.New("invalid GND dimensions")
)

// GNDVersion represents the GND file version.
type GNDVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v GNDVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// GNDHeader is the leading part of a ground file. Only the grid size is
// needed to place world objects, so tiles and lightmaps are not decoded.
type GNDHeader struct {
	Version GNDVersion
	Width   uint32 // tiles
	Height  uint32 // tiles
	Zoom    float32
}

// Extent returns the map size in world units.
func (g *GNDHeader) Extent() (width, height float32) {
	return float32(g.Width) * g.Zoom, float32(g.Height) * g.Zoom
}

// ParseGNDHeader parses the header of a GND file, versions 1.5 to 1.9.
func ParseGNDHeader(data []byte) (*GNDHeader, error) {
	r := newReader(data, ErrTruncatedGNDData)

	magic := r.take(4, "magic")
	if r.err != nil {
		return nil, r.err
	}
	if string(magic) != "GRGN" {
		return nil, ErrInvalidGNDMagic
	}

	g := &GNDHeader{}
	g.Version.Major = r.u8("version")
	g.Version.Minor = r.u8("version")
	if r.err != nil {
		return nil, r.err
	}
	if g.Version.Major != 1 || g.Version.Minor < 5 || g.Version.Minor > 9 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGNDVersion, g.Version)
	}

	g.Width = r.u32("width")
	g.Height = r.u32("height")
	g.Zoom = r.f32("zoom")
	if r.err != nil {
		return nil, r.err
	}
	if g.Width == 0 || g.Height == 0 || g.Width > 1024 || g.Height > 1024 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGNDDimensions, g.Width, g.Height)
	}
	return g, nil
}
