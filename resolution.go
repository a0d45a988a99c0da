package typstbot

import "math"

// Resolution policy constants. The scale returned by pixelsPerPoint keeps
// the total pixel count near desiredResolution squared regardless of the
// page's aspect ratio, while maxSize caps either linear dimension so a page
// that is nearly zero on one axis cannot blow up the other.
const (
	desiredResolution float32 = 1000.0
	maxSize           float32 = 1000.0
)

// pixelsPerPoint derives the rasterization scale for a page size. Dimensions
// are truncated to float32 before any comparison so the same inputs always
// yield the same scale. A dimension strictly greater than maxSize fails with
// TooBigError; the X axis is checked before Y. Exactly maxSize passes.
func pixelsPerPoint(size Size) (float32, error) {
	x := float32(size.Width)
	y := float32(size.Height)

	if x > maxSize {
		return 0, &TooBigError{Axis: AxisX, Size: x}
	}
	if y > maxSize {
		return 0, &TooBigError{Axis: AxisY, Size: y}
	}

	area := x * y
	return desiredResolution / float32(math.Sqrt(float64(area))), nil
}
