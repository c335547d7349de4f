package geometry

import (
	"fmt"
	"math"

	"github.com/eleven-am/trackex/internal/domain"
)

// Dims describes a marker's pixel-space bounding box.
type Dims struct {
	Min    domain.Vec2
	Max    domain.Vec2
	Width  float64
	Height float64
}

// AbsoluteCorners scales a marker's corner offsets into pixel space,
// keeping the editor's winding order.
func AbsoluteCorners(m domain.Marker, clipW, clipH int) ([]domain.Vec2, error) {
	if len(m.Corners) < 4 {
		return nil, degenerateErr(m, "has %d corners", len(m.Corners))
	}
	corners := make([]domain.Vec2, len(m.Corners))
	for i, c := range m.Corners {
		corners[i] = domain.Vec2{
			X: float64(clipW) * (m.Center.X + c.X),
			Y: float64(clipH) * (m.Center.Y + c.Y),
		}
	}
	return corners, nil
}

// MarkerDims computes the axis-aligned bounding box over a marker's
// absolute corners.
func MarkerDims(m domain.Marker, clipW, clipH int) (Dims, error) {
	corners, err := AbsoluteCorners(m, clipW, clipH)
	if err != nil {
		return Dims{}, err
	}
	d := Dims{Min: corners[0], Max: corners[0]}
	for _, c := range corners[1:] {
		d.Min.X = math.Min(d.Min.X, c.X)
		d.Min.Y = math.Min(d.Min.Y, c.Y)
		d.Max.X = math.Max(d.Max.X, c.X)
		d.Max.Y = math.Max(d.Max.Y, c.Y)
	}
	d.Width = d.Max.X - d.Min.X
	d.Height = d.Max.Y - d.Min.Y
	return d, nil
}

// Area estimates the marker pattern's pixel area. The exact form walks
// the corners as an edge cycle and sums trapezoids referenced to the
// bounding box's minimum y, which matches the shoelace result for a
// simple, consistently wound quadrilateral. The coarse form is the
// bounding box area. A collapsed bounding box is a snapshot contract
// breach and fails rather than reporting zero.
func Area(m domain.Marker, clipW, clipH int, exact bool) (float64, error) {
	dims, err := MarkerDims(m, clipW, clipH)
	if err != nil {
		return 0, err
	}
	if dims.Width == 0 || dims.Height == 0 {
		return 0, degenerateErr(m, "has a collapsed bounding box")
	}
	if !exact {
		return dims.Width * dims.Height, nil
	}

	corners, err := AbsoluteCorners(m, clipW, clipH)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := range corners {
		a := corners[i]
		b := corners[(i+1)%len(corners)]
		base := b.X - a.X
		height := ((a.Y - dims.Min.Y) + (b.Y - dims.Min.Y)) / 2
		sum += base * height
	}
	return math.Abs(sum), nil
}

// Confidence maps a marker's pixel area onto [0,1] by clamping it into
// [0,100] and dividing by 100. Full confidence therefore corresponds to
// roughly 100 px² of pattern, independent of clip resolution.
func Confidence(m domain.Marker, clipW, clipH int, exact bool) (float64, error) {
	area, err := Area(m, clipW, clipH, exact)
	if err != nil {
		return 0, err
	}
	return math.Min(100, math.Max(0, area)) / 100, nil
}

// TagCorners converts a marker's quadrilateral into consumer pixel space:
// optionally reversed winding (the editor winds opposite to the consumer),
// translated by the center, scaled to pixels, and flipped vertically once
// to move the origin from bottom-left to top-left.
func TagCorners(m domain.Marker, clipW, clipH int, fixOrder bool) (domain.Tag, error) {
	if len(m.Corners) < 4 {
		return domain.Tag{}, degenerateErr(m, "has %d corners", len(m.Corners))
	}
	w := float64(max(clipW, 1))
	h := float64(max(clipH, 1))

	corners := make([]domain.Vec2, len(m.Corners))
	copy(corners, m.Corners)
	if fixOrder {
		for i, j := 0, len(corners)-1; i < j; i, j = i+1, j-1 {
			corners[i], corners[j] = corners[j], corners[i]
		}
	}

	var tag domain.Tag
	for i := 0; i < 4; i++ {
		x := (corners[i].X + m.Center.X) * w
		y := h - (corners[i].Y+m.Center.Y)*h
		tag.Corners[i] = domain.Vec2{X: x, Y: y}
	}
	return tag, nil
}

// DetectionRect derives a top-left-origin rectangle from the marker's
// bounding box. Only the y coordinate flips; width and height carry over.
func DetectionRect(m domain.Marker, clipW, clipH int) (domain.Rect, error) {
	dims, err := MarkerDims(m, clipW, clipH)
	if err != nil {
		return domain.Rect{}, err
	}
	return domain.Rect{
		X:      dims.Min.X,
		Y:      float64(clipH) - dims.Max.Y,
		Width:  dims.Width,
		Height: dims.Height,
	}, nil
}

func degenerateErr(m domain.Marker, format string, args ...any) error {
	detail := fmt.Sprintf(format, args...)
	return fmt.Errorf("marker at clip frame %d %s: %w", m.Frame, detail, domain.ErrDegenerateMarker)
}
