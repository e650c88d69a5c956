package snapshot

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := range 3 {
		for x := range 4 {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 80), B: 200, A: 255})
		}
	}
	return img
}

func TestWriteDecodes(t *testing.T) {
	src := testImage()
	for _, f := range []Format{PNG, BMP, TIFF} {
		t.Run(f.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(src, &buf, f))

			img, name, err := image.Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, f.String(), name)
			assert.Equal(t, src.Bounds(), img.Bounds())

			r, g, b, a := img.At(3, 2).RGBA()
			assert.Equal(t, [4]uint32{180 * 0x101, 160 * 0x101, 200 * 0x101, 0xffff}, [4]uint32{r, g, b, a})
		})
	}
}

func TestFormatFromExt(t *testing.T) {
	tests := map[string]Format{".png": PNG, "BMP": BMP, ".tif": TIFF, "tiff": TIFF}
	for ext, want := range tests {
		got, err := FormatFromExt(ext)
		require.NoError(t, err, ext)
		assert.Equal(t, want, got, ext)
	}

	_, err := FormatFromExt(".jpg")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.ErrorIs(t, Write(testImage(), &bytes.Buffer{}, Format(9)), ErrUnknownFormat)
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.bmp")
	require.NoError(t, Save(testImage(), path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	_, name, err := image.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, "bmp", name)

	assert.ErrorIs(t, Save(testImage(), filepath.Join(dir, "frame.gif")), ErrUnknownFormat)
}
