package main

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/gift"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

var (
	ErrDecode            = errors.New("image decode failed")
	ErrUnsupportedFormat = errors.WithMessage(ErrDecode, "unsupported image format")
)

// Background selects how alpha is treated. BackgroundBlack drops it, so a
// transparent pixel keeps whatever colour it stores.
type Background int

const (
	BackgroundBlack Background = iota
	BackgroundWhite
)

func ParseBackground(s string) (Background, error) {
	switch strings.ToLower(s) {
	case "", "black":
		return BackgroundBlack, nil
	case "white":
		return BackgroundWhite, nil
	}
	return 0, errors.Wrapf(ErrInvalidArgument, "unknown background %q", s)
}

func (b Background) String() string {
	if b == BackgroundWhite {
		return "white"
	}
	return "black"
}

type Options struct {
	Background Background
	Invert     bool
	// Width resamples the image to this many pixels across; 0 keeps the source width.
	Width int
}

func LoadImage(filePath string) (image.Image, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", filePath)
	}

	var img image.Image
	r := bytes.NewReader(data)
	switch ext {
	case ".svg":
		img, err = rasterizeSVG(data, 0)
	case ".png":
		img, err = png.Decode(r)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(r)
	case ".gif":
		img, err = gif.Decode(r)
	case ".bmp":
		img, err = bmp.Decode(r)
	case ".tif", ".tiff":
		img, err = tiff.Decode(r)
	case ".webp":
		img, err = webp.Decode(r)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s: %q", filePath, ext)
	}

	if err != nil {
		if errors.Is(err, ErrDecode) {
			return nil, errors.Wrap(err, filePath)
		}
		return nil, errors.Wrapf(ErrDecode, "%s: %v", filePath, err)
	}

	return img, nil
}

// ToGray reduces src to 8-bit luma using the ITU-R 601-2 weights with
// PIL's fixed-point rounding. With BackgroundBlack alpha is ignored and the
// stored colour is used as is, like PIL's convert("L"); BackgroundWhite
// composites the pixel onto white first.
func ToGray(src image.Image, bg Background) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var r, g, b uint32
			c := src.At(x, y)
			if bg == BackgroundWhite {
				// RGBA() is premultiplied, so adding the uncovered part composites onto white.
				pr, pg, pb, a := c.RGBA()
				r, g, b = (pr+0xffff-a)>>8, (pg+0xffff-a)>>8, (pb+0xffff-a)>>8
			} else {
				n := color.NRGBAModel.Convert(c).(color.NRGBA)
				r, g, b = uint32(n.R), uint32(n.G), uint32(n.B)
			}
			dst.SetGray(x-bounds.Min.X, y-bounds.Min.Y, color.Gray{luma(r, g, b)})
		}
	}

	return dst
}

func luma(r, g, b uint32) uint8 {
	return uint8((19595*r + 38470*g + 7471*b + 0x8000) >> 16)
}

// Prepare converts src into the single-channel image the encoder expects.
// src is left untouched.
func Prepare(src image.Image, opts Options) (*image.Gray, error) {
	if opts.Width < 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "width %d is negative", opts.Width)
	}

	gray := ToGray(src, opts.Background)
	bounds := gray.Bounds()
	if bounds.Empty() {
		return nil, errors.Wrapf(ErrInvalidArgument, "empty image %dx%d", bounds.Dx(), bounds.Dy())
	}

	var filters []gift.Filter
	if opts.Width > 0 && opts.Width != bounds.Dx() {
		height := int(math.Round(float64(bounds.Dy()) * float64(opts.Width) / float64(bounds.Dx())))
		if height < 1 {
			height = 1
		}
		filters = append(filters, gift.Resize(opts.Width, height, gift.NearestNeighborResampling))
	}
	if opts.Invert {
		filters = append(filters, gift.Invert())
	}
	if len(filters) == 0 {
		return gray, nil
	}

	g := gift.New(filters...)
	dst := image.NewGray(g.Bounds(bounds))
	g.Draw(dst, gray)

	return dst, nil
}
