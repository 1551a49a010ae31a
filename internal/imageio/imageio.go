// Package imageio loads and saves the pixel buffers the pipeline works
// on. The core never touches files; everything goes through here.
package imageio

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	imgpkg "panostitch/internal/image"
)

// jpegQuality matches the encoder default used for saved panoramas.
const jpegQuality = 92

// Load decodes an image file (JPEG, PNG or TIFF) into an RGB buffer.
func Load(path string) (*imgpkg.RGB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imageio: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imageio: decode %s: %w", path, err)
	}
	return imgpkg.FromGoImage(img), nil
}

// Save encodes img to path; the format follows the file extension
// (.png for PNG, anything else gets JPEG).
func Save(path string, img *imgpkg.RGB) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imageio: create %s: %w", path, err)
	}
	defer f.Close()

	goImg := img.ToGoImage()
	if strings.EqualFold(filepath.Ext(path), ".png") {
		if err := png.Encode(f, goImg); err != nil {
			return fmt.Errorf("imageio: encode %s: %w", path, err)
		}
		return nil
	}
	if err := jpeg.Encode(f, goImg, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("imageio: encode %s: %w", path, err)
	}
	return nil
}

// Downscale resizes img so its longer side is at most maxDim,
// preserving aspect ratio. Images already within the bound are
// returned unchanged.
func Downscale(img *imgpkg.RGB, maxDim int) *imgpkg.RGB {
	if maxDim <= 0 || (img.Width <= maxDim && img.Height <= maxDim) {
		return img
	}
	scale := float64(maxDim) / float64(max(img.Width, img.Height))
	w := int(float64(img.Width) * scale)
	h := int(float64(img.Height) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	src := img.ToGoImage()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return imgpkg.FromGoImage(dst)
}
