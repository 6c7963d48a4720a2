package main

import (
	"bytes"
	"image"
	"math"
	"os"

	"github.com/pkg/errors"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// LoadSVG reads an SVG file and rasterizes it width pixels across, keeping
// the viewBox aspect ratio. A width of 0 uses the viewBox width.
func LoadSVG(filePath string, width int) (image.Image, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", filePath)
	}

	img, err := rasterizeSVG(data, width)
	if err != nil {
		return nil, errors.Wrap(err, filePath)
	}
	return img, nil
}

// rasterizeSVG draws the document onto an opaque white canvas. Partial
// viewBox units are rounded up so no edge pixels are cut off.
func rasterizeSVG(data []byte, width int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(ErrDecode, "svg: %v", err)
	}

	vw, vh := icon.ViewBox.W, icon.ViewBox.H
	if vw <= 0 || vh <= 0 {
		return nil, errors.Wrapf(ErrDecode, "svg: empty viewBox %gx%g", vw, vh)
	}

	if width <= 0 {
		width = int(math.Ceil(vw))
	}
	height := int(math.Max(1, math.Round(vh*float64(width)/vw)))

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range canvas.Pix {
		canvas.Pix[i] = 0xff
	}

	icon.SetTarget(0, 0, float64(width), float64(height))
	scanner := rasterx.NewScannerGV(width, height, canvas, canvas.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1.0)

	return canvas, nil
}
