package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Walls", "walls"},
		{"OST_Walls", "walls"},
		{"Walls: Basic Wall", "wallsBasicWall"},
		{"Family and Type", "familyandType"},
		{"  Comments", "comments"},
		{"3D View", "_3DView"},
		{"", "_"},
		{"---", "_"},
		{"Höhe", "hhe"},
		{"already_camel", "alreadycamel"},
		{"OST_", "_"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	for _, in := range []string{"Walls: Basic Wall", "3D View", "", "Type Id"} {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), in)
	}
}

func TestClassKey(t *testing.T) {
	assert.Equal(t, "Models: prontera house", CompoundName("Models", "prontera house"))
	assert.Equal(t, "modelspronterahouse", ClassKey("Models", "prontera house"))
	assert.Equal(t, "modelsPronteraHouse", ClassKey("Models", "Prontera House"))
}
