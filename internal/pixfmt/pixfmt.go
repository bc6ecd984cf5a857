// Package pixfmt decodes raw OV7670 frames into images for preview and
// streaming.
package pixfmt

import (
	"fmt"
	"image"
	"image/color"

	"github.com/embedfield/ov7670"
)

// Decode converts one captured frame into an NRGBA image according to the
// preset it was captured with.
func Decode(buf []byte, p ov7670.Preset) (*image.NRGBA, error) {
	if len(buf) < p.FrameBytes() {
		return nil, fmt.Errorf("pixfmt: frame is %d bytes, preset %s needs %d", len(buf), p, p.FrameBytes())
	}
	switch p.Format {
	case ov7670.FormatRGB565:
		return decodeRGB565(buf, p.Width(), p.Height()), nil
	case ov7670.FormatYUV422:
		return decodeYUV422(buf, p.Width(), p.Height()), nil
	}
	return nil, fmt.Errorf("pixfmt: unsupported format %s", p.Format)
}

// decodeRGB565 expands big-endian RGB565 to 8 bit channels, replicating the
// high bits into the low ones so full scale maps to 255.
func decodeRGB565(buf []byte, w, h int) *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint16(buf[0])<<8 | uint16(buf[1])
			buf = buf[2:]
			r := uint8(v >> 11)
			g := uint8(v >> 5 & 0x3F)
			b := uint8(v & 0x1F)
			im.SetNRGBA(x, y, color.NRGBA{
				R: r<<3 | r>>2,
				G: g<<2 | g>>4,
				B: b<<3 | b>>2,
				A: 255,
			})
		}
	}
	return im
}

// decodeYUV422 converts YUYV pairs with the BT.601 math from image/color.
func decodeYUV422(buf []byte, w, h int) *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x += 2 {
			y0, u, y1, v := buf[0], buf[1], buf[2], buf[3]
			buf = buf[4:]
			r, g, b := color.YCbCrToRGB(y0, u, v)
			im.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
			if x+1 < w {
				r, g, b = color.YCbCrToRGB(y1, u, v)
				im.SetNRGBA(x+1, y, color.NRGBA{R: r, G: g, B: b, A: 255})
			}
		}
	}
	return im
}

// Strip averages the image's columns into a 1xN preview, the shape the
// terminal strip drawer wants.
func Strip(im *image.NRGBA, n int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, n, 1))
	w := im.Rect.Dx()
	h := im.Rect.Dy()
	if w == 0 || h == 0 || n == 0 {
		return out
	}
	for i := 0; i < n; i++ {
		x0 := i * w / n
		x1 := (i + 1) * w / n
		if x1 <= x0 {
			x1 = x0 + 1
		}
		var r, g, b, cnt uint64
		for x := x0; x < x1 && x < w; x++ {
			for y := 0; y < h; y++ {
				c := im.NRGBAAt(x, y)
				r += uint64(c.R)
				g += uint64(c.G)
				b += uint64(c.B)
				cnt++
			}
		}
		if cnt == 0 {
			cnt = 1
		}
		out.SetNRGBA(i, 0, color.NRGBA{
			R: uint8(r / cnt),
			G: uint8(g / cnt),
			B: uint8(b / cnt),
			A: 255,
		})
	}
	return out
}

// Gray converts to grayscale for monochrome displays.
func Gray(im *image.NRGBA) *image.Gray {
	b := im.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, im.NRGBAAt(x, y))
		}
	}
	return out
}
