package main

import (
	"fmt"
	"image"
	"strings"

	"github.com/pkg/errors"
)

// DefaultThreshold matches PIL's convert("1") cut-off.
const DefaultThreshold uint8 = 127

// unitsPerInch is the number of board units (0.1 mil) in one inch.
const unitsPerInch = 10000.0

var ErrInvalidArgument = errors.New("invalid argument")

// Size is the footprint extent in inches.
type Size struct {
	Width, Height float64
}

type Point struct {
	x, y int
}

// square holds the corners of one pixel, clockwise from the upper-left.
type square [4]Point

// Encoder turns grayscale images into footprint modules. Samples below
// Threshold are dark; the zero value therefore treats nothing as dark, so use
// NewEncoder for the usual cut-off.
type Encoder struct {
	Threshold uint8
}

func NewEncoder() *Encoder {
	return &Encoder{Threshold: DefaultThreshold}
}

// EncodeModule encodes img with the default threshold.
func EncodeModule(img *image.Gray, name string, scale int) (string, Size, error) {
	return NewEncoder().Encode(img, name, scale)
}

// Encode renders img as a PCBNEW library holding a single module called name.
// Every dark pixel becomes a scale x scale square in board units.
func (e *Encoder) Encode(img *image.Gray, name string, scale int) (string, Size, error) {
	if name == "" {
		return "", Size{}, errors.Wrap(ErrInvalidArgument, "empty module name")
	}
	if scale <= 0 {
		return "", Size{}, errors.Wrapf(ErrInvalidArgument, "scale factor %d is not positive", scale)
	}
	if img == nil {
		return "", Size{}, errors.Wrap(ErrInvalidArgument, "nil image")
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return "", Size{}, errors.Wrapf(ErrInvalidArgument, "empty image %dx%d", width, height)
	}

	var sb strings.Builder
	writeHeader(&sb, name)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := img.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y
			if !isDark(binarize(v, e.Threshold)) {
				continue
			}
			writePixel(&sb, pixelSquare(x, y, scale))
		}
	}

	writeFooter(&sb, name)

	return sb.String(), moduleSize(width, height, scale), nil
}

func binarize(v, threshold uint8) uint8 {
	if v < threshold {
		return 0
	}
	return 255
}

// isDark gates emission on fully black binarized samples only.
func isDark(v uint8) bool {
	return v == 0
}

func pixelSquare(x, y, scale int) square {
	x0, y0 := scale*x, scale*y
	x1, y1 := x0+scale, y0+scale
	return square{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

func writePixel(sb *strings.Builder, sq square) {
	sb.WriteString("DP 0 0 0 0 5 1 21\n")
	for _, p := range sq {
		fmt.Fprintf(sb, "Dl %d %d\n", p.x, p.y)
	}
	// The format does not close polygons implicitly.
	fmt.Fprintf(sb, "Dl %d %d\n", sq[0].x, sq[0].y)
}

func writeHeader(sb *strings.Builder, name string) {
	sb.WriteString("PCBNEW-LibModule-V1\n")
	sb.WriteString("$INDEX\n")
	sb.WriteString(name + "\n")
	sb.WriteString("$EndINDEX\n")
	sb.WriteString("$MODULE " + name + "\n")
	sb.WriteString("Po 0 0 0 15 00000000 00000000 ~~\n")
	sb.WriteString("T0 0 2866 600 600 0 120 N I 21 \"G***\"\n")
	sb.WriteString("T1 0 -2866 600 600 0 120 N I 21 \"" + name + "\"\n")
}

func writeFooter(sb *strings.Builder, name string) {
	sb.WriteString("$EndMODULE " + name + "\n")
	sb.WriteString("$EndLIBRARY\n")
}

func moduleSize(width, height, scale int) Size {
	return Size{
		Width:  float64(scale*width) / unitsPerInch,
		Height: float64(scale*height) / unitsPerInch,
	}
}
