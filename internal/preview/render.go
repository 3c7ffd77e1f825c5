package preview

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
)

const (
	halfBlock = "▀"
	// maxAspect bounds thumbnail height to this many times its width in pixels.
	maxAspect = 4
)

// maxSourcePixels caps the decoded size of an image before it is rendered.
var maxSourcePixels = 40_000_000

// ErrImageTooLarge is returned for images whose declared dimensions exceed the render
// limit.
var ErrImageTooLarge = errors.New("image too large to preview")

var thumbnailFrameStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#93c5fd"))

// RenderImage decodes a JPEG or PNG payload and draws it as columns-wide ANSI
// half-block art, two pixel rows per terminal line.
func RenderImage(data []byte, columns int) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty image payload")
	}
	if columns <= 0 {
		columns = defaultThumbnailColumns
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxSourcePixels/cfg.Height {
		return "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	scaled := Scale(src, columns)
	return thumbnailFrameStyle.Render(halfBlocks(scaled)), nil
}

// RenderBase64 renders a base64-encoded image payload as returned by the endpoint.
func RenderBase64(encoded string, columns int) (string, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}
	return RenderImage(data, columns)
}

// Scale resizes src to width pixels, keeping its aspect ratio, with an even height of
// at most maxAspect*width.
func Scale(src image.Image, width int) *image.RGBA {
	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return image.NewRGBA(image.Rect(0, 0, width, 2))
	}
	height := bounds.Dy() * width / bounds.Dx()
	if height > maxAspect*width {
		height = maxAspect * width
	}
	if height < 2 {
		height = 2
	}
	if height%2 == 1 {
		height++
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return dst
}

func halfBlocks(img *image.RGBA) string {
	bounds := img.Bounds()
	lines := make([]string, 0, bounds.Dy()/2)
	for y := bounds.Min.Y; y+1 < bounds.Max.Y; y += 2 {
		var b strings.Builder
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			top := hexColor(img, x, y)
			bottom := hexColor(img, x, y+1)
			b.WriteString(lipgloss.NewStyle().Foreground(top).Background(bottom).Render(halfBlock))
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

func hexColor(img *image.RGBA, x, y int) lipgloss.Color {
	c := img.RGBAAt(x, y)
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
