package assemble

import (
	"errors"
	"fmt"
	"sort"

	"github.com/eleven-am/trackex/internal/domain"
	"github.com/eleven-am/trackex/internal/geometry"
	"github.com/eleven-am/trackex/internal/grammar"
	"github.com/eleven-am/trackex/internal/timeline"
)

// Config tunes one extraction pass. CoarseArea switches the confidence
// proxy from the exact trapezoid area to the bounding box area.
type Config struct {
	ConfidenceThreshold float64
	FilterLocked        bool
	CoarseArea          bool
}

// Include selects which observation kinds a pass collects.
type Include struct {
	Poses      bool
	Detections bool
	Tags       bool
}

// Assembler runs extraction passes over one clip snapshot. It holds no
// mutable state between calls; every method reads the snapshot and
// produces a fresh result, so independent clips can run concurrently.
type Assembler struct {
	clip   *domain.Clip
	frames timeline.FrameIndex
	reg    grammar.Registry
	cfg    Config
}

func New(clip *domain.Clip, reg grammar.Registry, cfg Config) *Assembler {
	return &Assembler{
		clip:   clip,
		frames: timeline.New(clip),
		reg:    reg,
		cfg:    cfg,
	}
}

// JointTracks groups the clip's joint tracks by pose name, then source,
// then joint id. FilterLocked drops unlocked tracks entirely.
func (a *Assembler) JointTracks() map[string]map[string]map[int]*domain.Track {
	groups := make(map[string]map[string]map[int]*domain.Track)
	for i := range a.clip.Tracks {
		track := &a.clip.Tracks[i]
		c := grammar.Classify(track.Name, a.reg)
		if c.Kind != grammar.KindJoint {
			continue
		}
		if a.cfg.FilterLocked && !track.Locked {
			continue
		}
		sources := groups[c.PoseName]
		if sources == nil {
			sources = make(map[string]map[int]*domain.Track)
			groups[c.PoseName] = sources
		}
		joints := sources[c.Source]
		if joints == nil {
			joints = make(map[int]*domain.Track)
			sources[c.Source] = joints
		}
		joints[c.JointID] = track
	}
	return groups
}

// Poses collects named poses keyed by scene frame. A pose's identity is
// "<pose name>.<source>"; joints below the confidence threshold are
// dropped, not zeroed.
func (a *Assembler) Poses() (map[int]map[string]*domain.Pose, error) {
	out := make(map[int]map[string]*domain.Pose)
	w, h := a.clip.Width, a.clip.Height

	for poseName, sources := range a.JointTracks() {
		for source, joints := range sources {
			identity := poseName + "." + source
			for jointID, track := range joints {
				for _, marker := range track.Markers {
					conf, err := geometry.Confidence(marker, w, h, !a.cfg.CoarseArea)
					if err != nil {
						return nil, fmt.Errorf("track %q: %w", track.Name, err)
					}
					if conf < a.cfg.ConfidenceThreshold {
						continue
					}
					scene := a.frames.ClipToScene(marker.Frame)
					x := marker.Center.X * float64(w)
					y := float64(h) - marker.Center.Y*float64(h)

					frame := out[scene]
					if frame == nil {
						frame = make(map[string]*domain.Pose)
						out[scene] = frame
					}
					pose := frame[identity]
					if pose == nil {
						pose = domain.NewPose()
						frame[identity] = pose
					}
					pose.SetJoint(jointID, x, y, conf)
				}
			}
		}
	}
	return out, nil
}

// Detections collects generic tracks as class-0, score-1 rectangles keyed
// by scene frame and track name. Joint and tag names never double-count
// as detections, even when FilterLocked already skipped them elsewhere.
func (a *Assembler) Detections() (map[int]map[string]domain.Detection, error) {
	out := make(map[int]map[string]domain.Detection)
	w, h := a.clip.Width, a.clip.Height

	for i := range a.clip.Tracks {
		track := &a.clip.Tracks[i]
		if a.cfg.FilterLocked && !track.Locked {
			continue
		}
		if grammar.Classify(track.Name, a.reg).Kind != grammar.KindGeneric {
			continue
		}
		for _, marker := range track.Markers {
			rect, err := geometry.DetectionRect(marker, w, h)
			if err != nil {
				return nil, fmt.Errorf("track %q: %w", track.Name, err)
			}
			scene := a.frames.ClipToScene(marker.Frame)
			frame := out[scene]
			if frame == nil {
				frame = make(map[string]domain.Detection)
				out[scene] = frame
			}
			frame[track.Name] = domain.Detection{ClassID: 0, Box: rect, Score: 1}
		}
	}
	return out, nil
}

// Tags is a declared gap. The per-marker corner transform lives in the
// geometry package; the aggregation step was never brought up in the
// source implementation, so it reports not-supported instead of quietly
// returning nothing.
func (a *Assembler) Tags() (map[int]map[string]domain.Tag, error) {
	return nil, domain.ErrTagsNotSupported
}

// TrackingData runs the selected extractions and folds them into one
// result. Tag extraction being unsupported is not an error here: the
// result carries empty tag maps with TagsSupported left false.
func (a *Assembler) TrackingData(passID string, include Include) (*domain.TrackingData, error) {
	data := domain.NewTrackingData(passID)

	if include.Poses {
		poses, err := a.Poses()
		if err != nil {
			return nil, fmt.Errorf("extract poses: %w", err)
		}
		data.Poses = poses
	}
	if include.Detections {
		detections, err := a.Detections()
		if err != nil {
			return nil, fmt.Errorf("extract detections: %w", err)
		}
		data.Detections = detections
	}
	if include.Tags {
		tags, err := a.Tags()
		switch {
		case err == nil:
			data.Tags = tags
			data.TagsSupported = true
		case errors.Is(err, domain.ErrTagsNotSupported):
			// Leave the empty maps in place; the flag tells callers why.
		default:
			return nil, fmt.Errorf("extract tags: %w", err)
		}
	}
	return data, nil
}

// ActiveTrackCount reports how many selected generic tracks the clip has.
func (a *Assembler) ActiveTrackCount() int {
	count := 0
	for i := range a.clip.Tracks {
		track := &a.clip.Tracks[i]
		if !track.Selected {
			continue
		}
		if grammar.Classify(track.Name, a.reg).Kind != grammar.KindGeneric {
			continue
		}
		count++
	}
	return count
}

// Observations summarizes the clip's generic tracks for host-side track
// management: every generic track name, the selected subset, and each
// marker's detection rectangle keyed by clip frame (not scene frame).
type Observations struct {
	AllTracks      []string
	SelectedTracks []string
	Detections     map[int]map[string]domain.Detection
}

func (a *Assembler) Observations() (*Observations, error) {
	obs := &Observations{Detections: make(map[int]map[string]domain.Detection)}
	w, h := a.clip.Width, a.clip.Height

	for i := range a.clip.Tracks {
		track := &a.clip.Tracks[i]
		if grammar.Classify(track.Name, a.reg).Kind != grammar.KindGeneric {
			continue
		}
		obs.AllTracks = append(obs.AllTracks, track.Name)
		if track.Selected {
			obs.SelectedTracks = append(obs.SelectedTracks, track.Name)
		}
		for _, marker := range track.Markers {
			rect, err := geometry.DetectionRect(marker, w, h)
			if err != nil {
				return nil, fmt.Errorf("track %q: %w", track.Name, err)
			}
			frame := obs.Detections[marker.Frame]
			if frame == nil {
				frame = make(map[string]domain.Detection)
				obs.Detections[marker.Frame] = frame
			}
			frame[track.Name] = domain.Detection{ClassID: 0, Box: rect, Score: 1}
		}
	}
	sort.Strings(obs.AllTracks)
	sort.Strings(obs.SelectedTracks)
	return obs, nil
}
