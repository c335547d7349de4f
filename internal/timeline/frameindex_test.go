package timeline

import "testing"

func TestFrameIndex_StartFrames(t *testing.T) {
	idx := NewFromOffsets(5, 2)

	if got := idx.SceneStart(); got != 3 {
		t.Fatalf("scene start: want 3 got %d", got)
	}
	if got := idx.ClipStart(); got != -1 {
		t.Fatalf("clip start: want -1 got %d", got)
	}
}

func TestFrameIndex_ClipSceneConversion(t *testing.T) {
	idx := NewFromOffsets(5, 2)

	if got := idx.ClipToScene(10); got != 14 {
		t.Fatalf("clip 10 to scene: want 14 got %d", got)
	}
	if got := idx.SceneToClip(14); got != 10 {
		t.Fatalf("scene 14 to clip: want 10 got %d", got)
	}
}

func TestFrameIndex_RoundTrips(t *testing.T) {
	cases := []struct {
		name        string
		frameStart  int
		frameOffset int
	}{
		{"defaults", 1, 0},
		{"positive offset", 5, 2},
		{"negative offset", 1, -7},
		{"late start", 100, 30},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			idx := NewFromOffsets(tc.frameStart, tc.frameOffset)
			for f := -50; f <= 50; f++ {
				if got := idx.SceneToClip(idx.ClipToScene(f)); got != f {
					t.Fatalf("clip round trip at %d: got %d", f, got)
				}
				if got := idx.ClipToScene(idx.SceneToClip(f)); got != f {
					t.Fatalf("scene round trip at %d: got %d", f, got)
				}
				if got := idx.TrueToScene(idx.SceneToTrue(f)); got != f {
					t.Fatalf("true/scene round trip at %d: got %d", f, got)
				}
				if got := idx.TrueToClip(idx.ClipToTrue(f)); got != f {
					t.Fatalf("true/clip round trip at %d: got %d", f, got)
				}
			}
		})
	}
}

func TestFrameIndex_TruePivot(t *testing.T) {
	idx := NewFromOffsets(5, 2)

	// The first true frame plays at the scene and clip start frames.
	if got := idx.TrueToScene(0); got != idx.SceneStart() {
		t.Fatalf("true 0 to scene: want %d got %d", idx.SceneStart(), got)
	}
	if got := idx.TrueToClip(0); got != idx.ClipStart() {
		t.Fatalf("true 0 to clip: want %d got %d", idx.ClipStart(), got)
	}
}
