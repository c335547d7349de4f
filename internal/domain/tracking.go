package domain

import "sort"

type Joint struct {
	X          float64
	Y          float64
	Confidence float64
}

type Pose struct {
	Joints map[int]Joint
}

func NewPose() *Pose {
	return &Pose{Joints: make(map[int]Joint)}
}

func (p *Pose) SetJoint(id int, x, y, confidence float64) {
	p.Joints[id] = Joint{X: x, Y: y, Confidence: confidence}
}

func (p *Pose) Joint(id int) (Joint, bool) {
	j, ok := p.Joints[id]
	return j, ok
}

// Rect is a pixel-space rectangle with a top-left origin.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

type Detection struct {
	ClassID int
	Box     Rect
	Score   float64
}

// Tag holds four ordered pixel-space corners of a fiducial marker.
type Tag struct {
	Corners [4]Vec2
}

type FrameData struct {
	Poses      map[string]*Pose
	Detections map[string]Detection
	Tags       map[string]Tag
}

// TrackingData is the result of one extraction pass over a clip.
// Frame keys are scene frame numbers. TagsSupported reports whether the
// tag maps carry real aggregation output or are a declared gap.
type TrackingData struct {
	PassID        string
	Poses         map[int]map[string]*Pose
	Detections    map[int]map[string]Detection
	Tags          map[int]map[string]Tag
	TagsSupported bool
}

func NewTrackingData(passID string) *TrackingData {
	return &TrackingData{
		PassID:     passID,
		Poses:      make(map[int]map[string]*Pose),
		Detections: make(map[int]map[string]Detection),
		Tags:       make(map[int]map[string]Tag),
	}
}

// Frame returns a never-nil view of one scene frame. Frames with no
// observations of a kind yield empty maps, not nil.
func (d *TrackingData) Frame(scene int) FrameData {
	f := FrameData{
		Poses:      d.Poses[scene],
		Detections: d.Detections[scene],
		Tags:       d.Tags[scene],
	}
	if f.Poses == nil {
		f.Poses = make(map[string]*Pose)
	}
	if f.Detections == nil {
		f.Detections = make(map[string]Detection)
	}
	if f.Tags == nil {
		f.Tags = make(map[string]Tag)
	}
	return f
}

// Frames returns the sorted union of scene frames that carry at least
// one observation of any kind.
func (d *TrackingData) Frames() []int {
	seen := make(map[int]bool)
	for f := range d.Poses {
		seen[f] = true
	}
	for f := range d.Detections {
		seen[f] = true
	}
	for f := range d.Tags {
		seen[f] = true
	}
	frames := make([]int, 0, len(seen))
	for f := range seen {
		frames = append(frames, f)
	}
	sort.Ints(frames)
	return frames
}
