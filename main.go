package main

import (
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	exitIO      = 1
	exitUsage   = 2
	exitDecode  = 3
	stdoutAlias = "-"
)

type config struct {
	input      string
	output     string
	name       string
	scale      int
	threshold  uint
	invert     bool
	background string
	width      int
	quiet      bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "img2mod: %v\n", err)
		return exitUsage
	}

	logger := log.New(stderr, "img2mod: ", 0)
	if cfg.quiet {
		logger.SetOutput(io.Discard)
	}

	doc, size, err := convert(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "img2mod: %v\n", err)
		if errors.Is(err, ErrDecode) {
			return exitDecode
		}
		if errors.Is(err, ErrInvalidArgument) {
			return exitUsage
		}
		return exitIO
	}

	if cfg.output == stdoutAlias {
		_, err = io.WriteString(stdout, doc)
	} else {
		logger.Printf("Writing module file to %q", cfg.output)
		err = os.WriteFile(cfg.output, []byte(doc), 0644)
	}
	if err != nil {
		fmt.Fprintf(stderr, "img2mod: failed to write output file: %v\n", err)
		return exitIO
	}

	logger.Printf("Output image size: %f x %f inches", size.Width, size.Height)
	return 0
}

func convert(cfg *config, logger *log.Logger) (string, Size, error) {
	bg, err := ParseBackground(cfg.background)
	if err != nil {
		return "", Size{}, err
	}

	logger.Printf("Reading image from %q", cfg.input)
	var src image.Image
	if cfg.width > 0 && strings.EqualFold(filepath.Ext(cfg.input), ".svg") {
		// Vector input is drawn at the requested width instead of being resampled.
		src, err = LoadSVG(cfg.input, cfg.width)
	} else {
		src, err = LoadImage(cfg.input)
	}
	if err != nil {
		return "", Size{}, err
	}
	b := src.Bounds()
	logger.Printf("Original image dimensions: %d x %d", b.Dx(), b.Dy())

	gray, err := Prepare(src, Options{Background: bg, Invert: cfg.invert, Width: cfg.width})
	if err != nil {
		return "", Size{}, err
	}

	enc := &Encoder{Threshold: uint8(cfg.threshold)}
	return enc.Encode(gray, cfg.name, cfg.scale)
}

func parseArgs(args []string, stderr io.Writer) (*config, error) {
	cfg := &config{}

	fs := flag.NewFlagSet("img2mod", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.input, "input", "", "Path to the input image (png, jpg, gif, bmp, tiff, webp, svg)")
	fs.StringVar(&cfg.output, "output", "", "Path to the output module file, \"-\" for stdout (default <name>.mod)")
	fs.StringVar(&cfg.name, "name", "LOGO", "Module name")
	fs.IntVar(&cfg.scale, "scale", 0, "Size of each output pixel, in units of 0.1 mil = 0.0001\"")
	fs.UintVar(&cfg.threshold, "threshold", uint(DefaultThreshold), "Grayscale threshold; darker samples become pixels (0-255)")
	fs.BoolVar(&cfg.invert, "invert", false, "Invert the image before thresholding")
	fs.StringVar(&cfg.background, "background", "black", "Colour transparent areas are composited onto (black or white)")
	fs.IntVar(&cfg.width, "width", 0, "Resample the image to this width in pixels before converting (0 keeps it)")
	fs.BoolVar(&cfg.quiet, "quiet", false, "Only report errors")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: img2mod -input FILE -scale N [flags]\n")
		fmt.Fprintf(fs.Output(), "       img2mod input_image output_filename module_name scale_factor\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NFlag() == 0 && fs.NArg() == 4 {
		scale, err := strconv.Atoi(fs.Arg(3))
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidArgument, "scale factor %q", fs.Arg(3))
		}
		cfg.input, cfg.output, cfg.name, cfg.scale = fs.Arg(0), fs.Arg(1), fs.Arg(2), scale
	} else if fs.NArg() > 0 {
		fs.Usage()
		return nil, errors.Errorf("unexpected arguments %q", fs.Args())
	}

	if cfg.input == "" {
		fs.Usage()
		return nil, errors.Wrap(ErrInvalidArgument, "missing input image")
	}
	if cfg.scale <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "scale factor %d is not positive", cfg.scale)
	}
	if cfg.threshold > 255 {
		return nil, errors.Wrapf(ErrInvalidArgument, "threshold %d out of range", cfg.threshold)
	}
	if cfg.output == "" {
		cfg.output = cfg.name + ".mod"
	}

	return cfg, nil
}
