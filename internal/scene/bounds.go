package scene

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"cogentcore.org/core/math32"
)

// ComponentBounds returns the world-space box of a primitive component and
// whether the component occupies space at all.
func ComponentBounds(c *Component) (math32.Box3, bool) {
	p, ok := c.props.(Primitive)
	if !ok {
		return math32.B3Empty(), false
	}
	t := c.WorldTransform().normalized()
	e := p.LocalExtent()
	box := math32.B3(-e.X*t.Scale.X, -e.Y*t.Scale.Y, -e.Z*t.Scale.Z, e.X*t.Scale.X, e.Y*t.Scale.Y, e.Z*t.Scale.Z)
	return box.MulQuat(t.Rotation).Translate(t.Location), true
}

const thumbnailSize = 32

// CaptureThumbnail renders a top-down occupancy image of root and the actors
// attached below it, encoded as PNG.
func (w *World) CaptureThumbnail(root *Actor) []byte {
	img := image.NewGray(image.Rect(0, 0, thumbnailSize, thumbnailSize))
	if root == nil {
		return encodeThumbnail(img)
	}

	var boxes []math32.Box3
	all := math32.B3Empty()
	stack := []*Actor{root}
	for len(stack) > 0 {
		a := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range a.components {
			if box, ok := ComponentBounds(c); ok {
				boxes = append(boxes, box)
				all.ExpandByBox(box)
			}
		}
		stack = append(stack, a.children...)
	}
	if all.IsEmpty() {
		return encodeThumbnail(img)
	}

	size := all.Size()
	span := max(size.X, size.Y, 1)
	toPixel := func(v, lo float32) int {
		px := int((v - lo) / span * (thumbnailSize - 1))
		return min(max(px, 0), thumbnailSize-1)
	}
	for _, b := range boxes {
		x0, x1 := toPixel(b.Min.X, all.Min.X), toPixel(b.Max.X, all.Min.X)
		y0, y1 := toPixel(b.Min.Y, all.Min.Y), toPixel(b.Max.Y, all.Min.Y)
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return encodeThumbnail(img)
}

func encodeThumbnail(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
