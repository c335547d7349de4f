package domain

type SourceType int

const (
	SourceMovie SourceType = iota
	SourceSequence
	SourceImage
)

type Vec2 struct {
	X float64
	Y float64
}

// Clip is an immutable snapshot of one movie clip and its tracks,
// taken once per extraction pass.
type Clip struct {
	Path        string
	FrameStart  int
	FrameOffset int
	Source      SourceType
	Width       int
	Height      int
	Tracks      []Track
}

type Track struct {
	Name     string
	Locked   bool
	Selected bool
	Markers  []Marker
}

// Marker is a single-frame sample of a track's pattern. Frame is the
// clip-local frame number. Center is normalized against the clip size;
// Corners are normalized offsets from Center in the editor's winding order.
type Marker struct {
	Frame   int
	Center  Vec2
	Corners []Vec2
}
