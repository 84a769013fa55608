package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

var (
	// ErrSizeMismatch is returned when a loaded image does not match the
	// canvas dimensions.
	ErrSizeMismatch = errors.New("image size does not match canvas")
	// ErrUnsupportedFormat is returned for unknown file extensions.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// PersistError describes a failed save or load. The canvas is unchanged.
type PersistError struct {
	Op   string // "save" or "load"
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("canvas %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Format is a raster file format.
type Format string

const (
	PNG  Format = "png"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
)

// ParseFormat accepts a format name or file extension, with or without the
// leading dot.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "png":
		return PNG, nil
	case "bmp":
		return BMP, nil
	case "tif", "tiff":
		return TIFF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case BMP:
		return "image/bmp"
	case TIFF:
		return "image/tiff"
	}
	return "image/png"
}

// Encode writes the raster in format f.
func (c *Canvas) Encode(w io.Writer, f Format) error {
	img := c.Image()
	switch f {
	case PNG:
		return png.Encode(w, img)
	case BMP:
		return bmp.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// Save writes the raster to path, choosing the format by extension.
func (c *Canvas) Save(path string) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return &PersistError{Op: "save", Path: path, Err: err}
	}

	file, err := os.Create(path)
	if err != nil {
		return &PersistError{Op: "save", Path: path, Err: err}
	}
	if err := c.Encode(file, f); err != nil {
		file.Close()
		os.Remove(path)
		return &PersistError{Op: "save", Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return &PersistError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// Load replaces the raster with the image at path. The image must have the
// canvas dimensions. Any open stroke is discarded and the previous raster is
// pushed as one undo step.
func (c *Canvas) Load(path string) error {
	img, err := decodeFile(path)
	if err != nil {
		return &PersistError{Op: "load", Path: path, Err: err}
	}
	if err := c.Replace(img); err != nil {
		return &PersistError{Op: "load", Path: path, Err: err}
	}
	return nil
}

// Replace installs img as the raster, as Load does.
func (c *Canvas) Replace(img image.Image) error {
	b := img.Bounds()
	if b.Dx() != c.cfg.Width || b.Dy() != c.cfg.Height {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrSizeMismatch, b.Dx(), b.Dy(), c.cfg.Width, c.cfg.Height)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	c.AbandonStroke()
	c.pushSnapshot()
	copy(c.pm.Data(), rgba.Pix)
	c.forceOpaque(c.Bounds())
	c.markDirty(c.Bounds())
	return nil
}

func decodeFile(path string) (image.Image, error) {
	if _, err := FormatFromPath(path); err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}
