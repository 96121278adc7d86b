// Package textures converts model textures (BMP, TGA, PNG, JPEG) to PNG files
// next to an exported asset. Magenta pixels, the game's transparency key,
// become fully transparent.
package textures

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
)

// Dir is the output subdirectory holding converted images.
const Dir = "textures"

// namespace scopes the name-based ids of converted files.
var namespace = uuid.MustParse("6f0f2d0e-5a41-4c8e-9b53-2f6f1c7a9d10")

// IsMagentaKey reports whether c is the transparency key color.
func IsMagentaKey(c color.NRGBA) bool {
	return c.R >= 250 && c.G <= 10 && c.B >= 250
}

// Decode decodes an image by the extension of name and applies the magenta
// key.
func Decode(data []byte, name string) (*image.NRGBA, error) {
	var img *image.NRGBA
	if strings.EqualFold(path.Ext(name), ".tga") {
		tga, err := decodeTGA(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		img = tga
	} else {
		src, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		img = image.NewNRGBA(src.Bounds())
		draw.Draw(img, img.Rect, src, src.Bounds().Min, draw.Src)
	}

	for i := 0; i+3 < len(img.Pix); i += 4 {
		c := color.NRGBA{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: img.Pix[i+3]}
		if IsMagentaKey(c) {
			// Black keeps filtered edges from bleeding magenta.
			copy(img.Pix[i:i+4], []byte{0, 0, 0, 0})
		}
	}
	return img, nil
}

// FileName returns the deterministic PNG file name for a texture path. The
// readable part keeps ASCII letters, digits, '-' and '_' of the base name.
func FileName(texture string) string {
	norm := strings.ToLower(strings.ReplaceAll(texture, "\\", "/"))
	base := path.Base(norm)
	base = strings.TrimSuffix(base, path.Ext(base))

	var b strings.Builder
	for _, r := range base {
		if r < 0x80 && (r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			b.WriteRune(r)
		}
	}
	stem := b.String()
	if stem == "" {
		stem = "texture"
	}
	id := uuid.NewSHA1(namespace, []byte(norm)).String()[:8]
	return stem + "-" + id + ".png"
}

type pending struct {
	name string
	data []byte
}

// Converter collects converted textures of one export. Nothing touches the
// filesystem until WriteAll, so a canceled export leaves no images behind.
type Converter struct {
	uris    map[string]string
	failed  map[string]error
	pending []pending
	log     *zap.Logger
}

// NewConverter returns an empty converter.
func NewConverter(log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Converter{
		uris:   make(map[string]string),
		failed: make(map[string]error),
		log:    log,
	}
}

// Add converts the texture called name, once, and returns its URI relative to
// the export directory.
func (c *Converter) Add(name string, data []byte) (string, error) {
	if uri, ok := c.uris[name]; ok {
		return uri, nil
	}
	if err, ok := c.failed[name]; ok {
		return "", err
	}

	img, err := Decode(data, name)
	if err != nil {
		c.failed[name] = err
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		c.failed[name] = err
		return "", fmt.Errorf("encode %s: %w", name, err)
	}

	file := FileName(name)
	uri := Dir + "/" + file
	c.uris[name] = uri
	c.pending = append(c.pending, pending{name: file, data: buf.Bytes()})
	c.log.Debug("texture converted",
		zap.String("texture", name),
		zap.String("uri", uri),
		zap.Int("width", img.Rect.Dx()),
		zap.Int("height", img.Rect.Dy()))
	return uri, nil
}

// Len returns the number of converted textures.
func (c *Converter) Len() int {
	return len(c.pending)
}

// WriteAll writes every converted texture under dir/textures. Each file is
// renamed into place, so concurrent exports sharing dir never observe a
// partial image.
func (c *Converter) WriteAll(dir string) error {
	if len(c.pending) == 0 {
		return nil
	}
	out := filepath.Join(dir, Dir)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	for _, p := range c.pending {
		target := filepath.Join(out, p.name)
		tmp, err := os.CreateTemp(out, "."+p.name+".*.tmp")
		if err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}
		_, werr := tmp.Write(p.data)
		cerr := tmp.Close()
		if werr == nil {
			werr = cerr
		}
		if werr == nil {
			werr = os.Rename(tmp.Name(), target)
		}
		if werr != nil {
			os.Remove(tmp.Name())
			return fmt.Errorf("writing %s: %w", target, werr)
		}
	}
	c.log.Info("textures written", zap.String("dir", out), zap.Int("count", len(c.pending)))
	return nil
}
