// Package snapshot encodes rendered frames to image files.
package snapshot

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format is an image encoding supported by Write.
type Format int

const (
	PNG Format = iota
	BMP
	TIFF
)

// ErrUnknownFormat is returned for file extensions without an encoder.
var ErrUnknownFormat = errors.New("unknown image format")

func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case BMP:
		return "bmp"
	case TIFF:
		return "tiff"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFromExt returns the format for a filename extension, with or without the leading dot.
//
// Parameters:
//   - ext: the extension, e.g. ".png"
//
// Returns:
//   - Format: the matching format
//   - error: an error wrapping ErrUnknownFormat if no encoder handles the extension
func FormatFromExt(ext string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return PNG, nil
	case "bmp":
		return BMP, nil
	case "tif", "tiff":
		return TIFF, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
}

// Write encodes img to w in the given format.
//
// Parameters:
//   - img: the frame
//   - w: the destination
//   - f: the encoding
//
// Returns:
//   - error: an encoder error
func Write(img image.Image, w io.Writer, f Format) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case BMP:
		return bmp.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, f)
	}
}

// Save writes img to filename, choosing the format from the extension.
//
// Parameters:
//   - img: the frame
//   - filename: the destination path
//
// Returns:
//   - error: an error if the extension is unknown or the file cannot be written
func Save(img image.Image, filename string) error {
	f, err := FormatFromExt(filepath.Ext(filename))
	if err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(file)
	if err := Write(img, bw, f); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}
	if err := bw.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
