// Package formats provides parsers for the Ragnarok Online world and model
// formats the exporter reads: RSW (placed objects), RSM (node hierarchies
// with textured meshes) and the GND header (map extent).
package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/midgard-gltf/pkg/encoding"
)

// ErrInvalidCount is returned when a length prefix is negative or larger than
// the data that could possibly follow it.
var ErrInvalidCount = errors.New("invalid element count")

// reader decodes little-endian fields from a byte slice. The first failure
// sticks: later reads return zero values and err reports what broke.
type reader struct {
	data  []byte
	off   int
	err   error
	trunc error // format-specific truncation sentinel
}

func newReader(data []byte, trunc error) *reader {
	return &reader{data: data, trunc: trunc}
}

func (r *reader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.data)-r.off < n {
		r.err = fmt.Errorf("%w: reading %s", r.trunc, what)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) skip(n int, what string) {
	r.take(n, what)
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) u8(what string) uint8 {
	if b := r.take(1, what); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) u16(what string) uint16 {
	if b := r.take(2, what); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *reader) u32(what string) uint32 {
	if b := r.take(4, what); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *reader) i32(what string) int32 {
	return int32(r.u32(what))
}

func (r *reader) f32(what string) float32 {
	return gomath.Float32frombits(r.u32(what))
}

func (r *reader) vec3(what string) [3]float32 {
	return [3]float32{r.f32(what), r.f32(what), r.f32(what)}
}

func (r *reader) vec4(what string) [4]float32 {
	return [4]float32{r.f32(what), r.f32(what), r.f32(what), r.f32(what)}
}

// str reads a fixed-size, NUL-padded EUC-KR string.
func (r *reader) str(n int, what string) string {
	b := r.take(n, what)
	if b == nil {
		return ""
	}
	return encoding.FixedStringToUTF8(b)
}

// count reads an int32 length prefix for records of at least minSize bytes.
func (r *reader) count(what string, minSize int) int {
	n := r.i32(what + " count")
	if r.err != nil {
		return 0
	}
	if n < 0 || (minSize > 0 && int(n) > r.remaining()/minSize) {
		r.err = fmt.Errorf("%w: %s count %d", ErrInvalidCount, what, n)
		return 0
	}
	return int(n)
}
