package textures

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

var errTGATruncated = errors.New("tga: pixel data truncated")

// decodeTGA decodes uncompressed (type 2) and RLE (type 10) true-color TGA
// images, the two variants found in game data.
func decodeTGA(data []byte) (*image.NRGBA, error) {
	if len(data) < 18 {
		return nil, errors.New("tga: header too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&0x20 != 0

	if colorMapType != 0 {
		return nil, errors.New("tga: color-mapped images not supported")
	}
	if imageType != 2 && imageType != 10 {
		return nil, fmt.Errorf("tga: unsupported image type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("tga: unsupported bit depth %d", bpp)
	}
	if 18+idLength > len(data) {
		return nil, errTGATruncated
	}

	px := &tgaPixels{
		img:         image.NewNRGBA(image.Rect(0, 0, width, height)),
		data:        data[18+idLength:],
		stride:      bpp / 8,
		topToBottom: topToBottom,
	}
	if imageType == 2 {
		if len(px.data) < width*height*px.stride {
			return nil, errTGATruncated
		}
		for i := 0; i < width*height; i++ {
			px.set(i, px.next())
		}
	} else if err := px.decodeRLE(); err != nil {
		return nil, err
	}
	return px.img, nil
}

type tgaPixels struct {
	img         *image.NRGBA
	data        []byte
	off         int
	stride      int
	topToBottom bool
}

// next reads one BGR(A) pixel.
func (p *tgaPixels) next() color.NRGBA {
	d := p.data[p.off:]
	c := color.NRGBA{R: d[2], G: d[1], B: d[0], A: 255}
	if p.stride == 4 {
		c.A = d[3]
	}
	p.off += p.stride
	return c
}

func (p *tgaPixels) has() bool {
	return p.off+p.stride <= len(p.data)
}

// set stores pixel i in file order, honoring the origin bit.
func (p *tgaPixels) set(i int, c color.NRGBA) {
	w, h := p.img.Rect.Dx(), p.img.Rect.Dy()
	x, y := i%w, i/w
	if !p.topToBottom {
		y = h - 1 - y
	}
	p.img.SetNRGBA(x, y, c)
}

func (p *tgaPixels) decodeRLE() error {
	total := p.img.Rect.Dx() * p.img.Rect.Dy()
	for i := 0; i < total; {
		if p.off >= len(p.data) {
			return errTGATruncated
		}
		packet := p.data[p.off]
		p.off++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			if !p.has() {
				return errTGATruncated
			}
			c := p.next()
			for j := 0; j < count && i < total; j++ {
				p.set(i, c)
				i++
			}
			continue
		}
		for j := 0; j < count && i < total; j++ {
			if !p.has() {
				return errTGATruncated
			}
			p.set(i, p.next())
			i++
		}
	}
	return nil
}
