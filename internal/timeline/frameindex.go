package timeline

import "github.com/eleven-am/trackex/internal/domain"

// FrameIndex translates between the three frame-numbering systems of one
// clip: scene frames (host timeline), clip frames (1-indexed, local to the
// clip) and true frames (0-indexed canonical frames of the source media).
// True frames are the pivot; every conversion is an exact integer affine
// map, so all round trips are lossless for any frame offset.
type FrameIndex struct {
	frameStart  int
	frameOffset int
}

func New(clip *domain.Clip) FrameIndex {
	return FrameIndex{frameStart: clip.FrameStart, frameOffset: clip.FrameOffset}
}

func NewFromOffsets(frameStart, frameOffset int) FrameIndex {
	return FrameIndex{frameStart: frameStart, frameOffset: frameOffset}
}

// SceneStart returns the scene frame at which true frame 0 plays.
func (f FrameIndex) SceneStart() int {
	return f.frameStart - f.frameOffset
}

// ClipStart returns the clip frame at which true frame 0 plays.
func (f FrameIndex) ClipStart() int {
	return 1 - f.frameOffset
}

func (f FrameIndex) SceneToTrue(scene int) int {
	return scene - f.SceneStart()
}

func (f FrameIndex) ClipToTrue(clip int) int {
	return clip - f.ClipStart()
}

func (f FrameIndex) TrueToScene(trueFrame int) int {
	return trueFrame + f.SceneStart()
}

func (f FrameIndex) TrueToClip(trueFrame int) int {
	return trueFrame + f.ClipStart()
}

func (f FrameIndex) ClipToScene(clip int) int {
	return f.TrueToScene(f.ClipToTrue(clip))
}

func (f FrameIndex) SceneToClip(scene int) int {
	return f.TrueToClip(f.SceneToTrue(scene))
}
