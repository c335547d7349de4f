package assemble

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/eleven-am/trackex/internal/domain"
	"github.com/eleven-am/trackex/internal/grammar"
)

func testRegistry(t *testing.T) grammar.Registry {
	t.Helper()
	reg, err := grammar.NewRegistry([]string{"Person17", "Person26"}, []string{"APRILTAG_36H11", "ML"})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func squareMarker(frame int, cx, cy, half float64) domain.Marker {
	return domain.Marker{
		Frame:  frame,
		Center: domain.Vec2{X: cx, Y: cy},
		Corners: []domain.Vec2{
			{X: -half, Y: -half},
			{X: half, Y: -half},
			{X: half, Y: half},
			{X: -half, Y: half},
		},
	}
}

// testClip uses frame_start=5, frame_offset=2, so clip frame 10 plays at
// scene frame 14.
func testClip(tracks ...domain.Track) *domain.Clip {
	return &domain.Clip{
		Path:        "/clips/shot01.mov",
		FrameStart:  5,
		FrameOffset: 2,
		Source:      domain.SourceMovie,
		Width:       100,
		Height:      100,
		Tracks:      tracks,
	}
}

func defaultConfig() Config {
	return Config{ConfidenceThreshold: 0.9}
}

func TestPoses_GroupsTranslatesAndThresholds(t *testing.T) {
	clip := testClip(
		domain.Track{Name: "Subject.Person17.0", Markers: []domain.Marker{squareMarker(10, 0.5, 0.5, 0.05)}},
		domain.Track{Name: "Subject.Person17.1", Markers: []domain.Marker{squareMarker(10, 0.3, 0.2, 0.05)}},
		// 25 px² pattern: confidence 0.25, below the 0.9 threshold.
		domain.Track{Name: "Subject.Person17.2", Markers: []domain.Marker{squareMarker(10, 0.5, 0.5, 0.025)}},
	)
	a := New(clip, testRegistry(t), defaultConfig())

	poses, err := a.Poses()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	frame, ok := poses[14]
	if !ok {
		t.Fatalf("expected observations at scene frame 14, got frames %v", keys(poses))
	}
	pose, ok := frame["Subject.Person17"]
	if !ok {
		t.Fatalf("expected pose identity Subject.Person17, got %v", frame)
	}
	if len(pose.Joints) != 2 {
		t.Fatalf("expected 2 joints above threshold, got %d", len(pose.Joints))
	}

	j0, _ := pose.Joint(0)
	if !almostEqual(j0.X, 50) || !almostEqual(j0.Y, 50) || !almostEqual(j0.Confidence, 1.0) {
		t.Fatalf("joint 0: want (50,50,1.0) got %+v", j0)
	}
	// y flips: normalized 0.2 from the bottom is pixel 80 from the top.
	j1, _ := pose.Joint(1)
	if !almostEqual(j1.X, 30) || !almostEqual(j1.Y, 80) {
		t.Fatalf("joint 1: want (30,80) got %+v", j1)
	}
	if _, ok := pose.Joint(2); ok {
		t.Fatalf("joint 2 should have been dropped below threshold")
	}
}

func TestPoses_DottedPoseNamesAndMultipleSources(t *testing.T) {
	clip := testClip(
		domain.Track{Name: "LeftArm.Det1.Person17.3", Markers: []domain.Marker{squareMarker(1, 0.5, 0.5, 0.05)}},
		domain.Track{Name: "LeftArm.Det1.Person26.3", Markers: []domain.Marker{squareMarker(1, 0.5, 0.5, 0.05)}},
	)
	a := New(clip, testRegistry(t), defaultConfig())

	poses, err := a.Poses()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	frame := poses[5] // clip 1 -> scene 5
	if len(frame) != 2 {
		t.Fatalf("expected two pose identities, got %v", keysOf(frame))
	}
	for _, identity := range []string{"LeftArm.Det1.Person17", "LeftArm.Det1.Person26"} {
		if _, ok := frame[identity]; !ok {
			t.Fatalf("missing identity %q in %v", identity, keysOf(frame))
		}
	}
}

func TestPoses_FilterLockedSkipsUnlockedTracks(t *testing.T) {
	clip := testClip(
		domain.Track{Name: "A.Person17.0", Locked: true, Markers: []domain.Marker{squareMarker(1, 0.5, 0.5, 0.05)}},
		domain.Track{Name: "A.Person17.1", Locked: false, Markers: []domain.Marker{squareMarker(1, 0.5, 0.5, 0.05)}},
	)
	cfg := defaultConfig()
	cfg.FilterLocked = true
	a := New(clip, testRegistry(t), cfg)

	poses, err := a.Poses()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pose := poses[5]["A.Person17"]
	if pose == nil || len(pose.Joints) != 1 {
		t.Fatalf("expected only the locked joint, got %+v", pose)
	}
	if _, ok := pose.Joint(1); ok {
		t.Fatalf("unlocked joint should be skipped in filter-locked mode")
	}
}

func TestDetections_GenericTracksOnly(t *testing.T) {
	clip := testClip(
		domain.Track{Name: "Track.001", Markers: []domain.Marker{squareMarker(10, 0.5, 0.5, 0.05)}},
		domain.Track{Name: "Subject.Person17.0", Markers: []domain.Marker{squareMarker(10, 0.5, 0.5, 0.05)}},
		domain.Track{Name: "Tag.ML.7", Markers: []domain.Marker{squareMarker(10, 0.5, 0.5, 0.05)}},
	)
	a := New(clip, testRegistry(t), defaultConfig())

	detections, err := a.Detections()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	frame := detections[14]
	if len(frame) != 1 {
		t.Fatalf("expected exactly the generic track, got %v", keysOf(frame))
	}
	det, ok := frame["Track.001"]
	if !ok {
		t.Fatalf("missing detection for Track.001")
	}
	if det.ClassID != 0 || !almostEqual(det.Score, 1) {
		t.Fatalf("want class 0 score 1, got %+v", det)
	}
	want := domain.Rect{X: 45, Y: 45, Width: 10, Height: 10}
	if !almostEqual(det.Box.X, want.X) || !almostEqual(det.Box.Y, want.Y) ||
		!almostEqual(det.Box.Width, want.Width) || !almostEqual(det.Box.Height, want.Height) {
		t.Fatalf("box: want %+v got %+v", want, det.Box)
	}
}

func TestTags_ReportsNotSupported(t *testing.T) {
	a := New(testClip(), testRegistry(t), defaultConfig())

	if _, err := a.Tags(); !errors.Is(err, domain.ErrTagsNotSupported) {
		t.Fatalf("want ErrTagsNotSupported, got %v", err)
	}
}

func TestTrackingData_EmptyClip(t *testing.T) {
	a := New(testClip(), testRegistry(t), defaultConfig())

	data, err := a.TrackingData("pass-1", Include{Poses: true, Detections: true, Tags: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.PassID != "pass-1" {
		t.Fatalf("pass id: want pass-1 got %q", data.PassID)
	}
	if data.Poses == nil || data.Detections == nil || data.Tags == nil {
		t.Fatalf("result maps must never be nil: %+v", data)
	}
	if data.TagsSupported {
		t.Fatalf("tag aggregation must report unsupported")
	}

	// Any sampled frame yields empty, non-nil views.
	for _, f := range []int{-3, 0, 14} {
		view := data.Frame(f)
		if view.Poses == nil || view.Detections == nil || view.Tags == nil {
			t.Fatalf("frame %d view has nil maps", f)
		}
		if len(view.Poses)+len(view.Detections)+len(view.Tags) != 0 {
			t.Fatalf("frame %d should be empty, got %+v", f, view)
		}
	}
}

func TestTrackingData_MergesKinds(t *testing.T) {
	clip := testClip(
		domain.Track{Name: "Subject.Person17.0", Markers: []domain.Marker{squareMarker(10, 0.5, 0.5, 0.05)}},
		domain.Track{Name: "Track.001", Markers: []domain.Marker{squareMarker(10, 0.5, 0.5, 0.05)}},
	)
	a := New(clip, testRegistry(t), defaultConfig())

	data, err := a.TrackingData("pass-2", Include{Poses: true, Detections: true, Tags: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view := data.Frame(14)
	if len(view.Poses) != 1 || len(view.Detections) != 1 || len(view.Tags) != 0 {
		t.Fatalf("unexpected frame 14 contents: %+v", view)
	}
	if got := data.Frames(); !reflect.DeepEqual(got, []int{14}) {
		t.Fatalf("frames: want [14] got %v", got)
	}
}

func TestPoses_DegenerateMarkerFailsPass(t *testing.T) {
	clip := testClip(
		domain.Track{Name: "Subject.Person17.0", Markers: []domain.Marker{{
			Frame:   2,
			Center:  domain.Vec2{X: 0.5, Y: 0.5},
			Corners: []domain.Vec2{{}, {}, {}},
		}}},
	)
	a := New(clip, testRegistry(t), defaultConfig())

	_, err := a.Poses()
	if !errors.Is(err, domain.ErrDegenerateMarker) {
		t.Fatalf("want ErrDegenerateMarker, got %v", err)
	}
	if !strings.Contains(err.Error(), "Subject.Person17.0") {
		t.Fatalf("error should name the offending track: %v", err)
	}
}

func TestActiveTrackCount_CountsSelectedGenerics(t *testing.T) {
	clip := testClip(
		domain.Track{Name: "Track.001", Selected: true},
		domain.Track{Name: "Track.002", Selected: false},
		domain.Track{Name: "Subject.Person17.0", Selected: true},
		domain.Track{Name: "Tag.ML.1", Selected: true},
	)
	a := New(clip, testRegistry(t), defaultConfig())

	if got := a.ActiveTrackCount(); got != 1 {
		t.Fatalf("active track count: want 1 got %d", got)
	}
}

func TestObservations_GenericTracksKeyedByClipFrame(t *testing.T) {
	clip := testClip(
		domain.Track{Name: "Track.002", Selected: true, Markers: []domain.Marker{squareMarker(10, 0.5, 0.5, 0.05)}},
		domain.Track{Name: "Track.001", Markers: []domain.Marker{squareMarker(3, 0.5, 0.5, 0.05)}},
		domain.Track{Name: "Subject.Person17.0", Selected: true, Markers: []domain.Marker{squareMarker(3, 0.5, 0.5, 0.05)}},
	)
	a := New(clip, testRegistry(t), defaultConfig())

	obs, err := a.Observations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(obs.AllTracks, []string{"Track.001", "Track.002"}) {
		t.Fatalf("all tracks: got %v", obs.AllTracks)
	}
	if !reflect.DeepEqual(obs.SelectedTracks, []string{"Track.002"}) {
		t.Fatalf("selected tracks: got %v", obs.SelectedTracks)
	}
	// Observations stay in clip time: frame 10, not scene frame 14.
	if _, ok := obs.Detections[10]["Track.002"]; !ok {
		t.Fatalf("expected clip-frame keyed detection, got %v", obs.Detections)
	}
	if _, ok := obs.Detections[14]; ok {
		t.Fatalf("observations must not convert to scene frames")
	}
}

func keys(m map[int]map[string]*domain.Pose) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func keysOf[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func almostEqual(a, b float64) bool {
	const eps = 1e-9
	return math.Abs(a-b) <= eps
}
