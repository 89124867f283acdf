// Package images derives the fixed-size product image renditions from an
// uploaded original. Renditions are scaled to fit within their bounding
// box preserving aspect ratio; they are never cropped or upscaled.
package images

import (
	"bytes"
	"fmt"
	"io"
	"path"

	"github.com/disintegration/imaging"
)

// Size is a named bounding box for a rendition.
type Size struct {
	Label  string
	Width  int
	Height int
}

// Sizes are the renditions derived for every product image, smallest first.
var Sizes = []Size{
	{Label: "small", Width: 100, Height: 100},
	{Label: "medium", Width: 300, Height: 300},
	{Label: "large", Width: 600, Height: 600},
}

// Rendition is a derived image ready to be stored under Key.
type Rendition struct {
	Label   string
	Key     string
	Content *bytes.Buffer
}

// OriginalKey returns the storage key for an uploaded original.
func OriginalKey(filename string) string {
	return path.Join("products", "original", path.Base(filename))
}

// RenditionKey returns the deterministic storage key for a rendition,
// e.g. "mug.jpg" + "small" -> "products/small/mug_small.jpg".
func RenditionKey(filename, label string) string {
	base := path.Base(filename)
	ext := path.Ext(base)
	return path.Join("products", label, fmt.Sprintf("%s_%s%s", base[:len(base)-len(ext)], label, ext))
}

// Derive decodes the original and produces all renditions in memory.
// The output format follows the original's file extension, so rendition
// keys stay consistent with the stored original.
func Derive(src io.Reader, filename string) ([]Rendition, error) {
	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		return nil, fmt.Errorf("unsupported image format %q: %w", path.Ext(filename), err)
	}

	original, err := imaging.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	renditions := make([]Rendition, 0, len(Sizes))
	for _, size := range Sizes {
		resized := imaging.Fit(original, size.Width, size.Height, imaging.Lanczos)

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, resized, format); err != nil {
			return nil, fmt.Errorf("failed to encode %s rendition: %w", size.Label, err)
		}

		renditions = append(renditions, Rendition{
			Label:   size.Label,
			Key:     RenditionKey(filename, size.Label),
			Content: &buf,
		})
	}

	return renditions, nil
}
