// Package trackex converts 2D point-tracking annotations authored in a
// movie clip editor into typed, time-indexed observation records: named
// poses with per-joint pixel coordinates and confidence, generic
// bounding-box detections, and fiducial tag footprints.
//
// trackex reads an immutable clip/track/marker snapshot and produces a
// TrackingData result keyed by scene frame, ready for a downstream
// vision or 3D-reconstruction pipeline. The engine itself is pure and
// synchronous: it performs no I/O, holds no state between passes, and
// is safe to run concurrently over independent clips.
//
// # Coordinate systems
//
// Three frame-numbering systems relate through exact integer affine
// maps: scene frames (the host timeline), clip frames (1-indexed, local
// to the clip) and true frames (0-indexed frames of the source media).
// Marker positions are normalized bottom-left-origin coordinates;
// results are pixel-space with a top-left origin, so every observation
// is flipped vertically exactly once.
//
// # Basic Usage
//
//	extractor := trackex.NewExtractor(trackex.Options{
//	    Models: []trackex.ModelEntry{
//	        {Name: "rtmpose_body", TargetClass: "Person", Keypoints: 17},
//	    },
//	    TagFamilies: []string{"APRILTAG_36H11"},
//	})
//
//	data, err := extractor.TrackingData(clip, trackex.IncludeAll)
//
// # Track name grammar
//
// Track names route observations: "<pose>.<source>.<id>" names a pose
// joint (the pose part may contain dots), "Tag.<source>.<id>" names a
// fiducial tag, and everything else is a generic detection. The valid
// source tokens derive from the registered vision models (target class
// concatenated with keypoint count, e.g. "Person17") plus the tag
// families and the "ML" catch-all; refresh them with RefreshSources
// whenever the model registry changes.
//
// # Tag extraction
//
// Per-marker tag corner transforms are implemented, but the top-level
// tag aggregation step is a declared gap: results carry empty tag maps
// with TagsSupported set to false, and Tags returns
// ErrTagsNotSupported. Callers can tell "no tags present" apart from
// "tag extraction unimplemented".
package trackex

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/eleven-am/trackex/internal/assemble"
	"github.com/eleven-am/trackex/internal/batch"
	"github.com/eleven-am/trackex/internal/domain"
	"github.com/eleven-am/trackex/internal/grammar"
	"github.com/eleven-am/trackex/internal/registry"
	"github.com/eleven-am/trackex/internal/snapshot"
	"github.com/eleven-am/trackex/internal/timeline"
)

type (
	// Clip is an immutable snapshot of one movie clip and its tracks.
	// The engine assumes exclusive read access for the duration of a
	// pass; the caller owns that exclusion.
	Clip = domain.Clip

	Track  = domain.Track
	Marker = domain.Marker
	Vec2   = domain.Vec2

	// TrackingData is the per-pass result: scene frame to named poses,
	// named detections, and tags.
	TrackingData = domain.TrackingData

	FrameData = domain.FrameData
	Pose      = domain.Pose
	Joint     = domain.Joint
	Detection = domain.Detection
	Rect      = domain.Rect
	Tag       = domain.Tag

	// ModelEntry describes one registered vision model; the set of
	// entries shapes the valid pose-source tokens.
	ModelEntry = registry.ModelEntry

	// Classification is the typed result of parsing one track name.
	Classification = grammar.Classification
	Kind           = grammar.Kind

	// FrameIndex translates between scene, clip and true frame numbers.
	FrameIndex = timeline.FrameIndex

	// Include selects which observation kinds a pass collects.
	Include = assemble.Include

	// Observations summarizes a clip's generic tracks in clip time.
	Observations = assemble.Observations

	// BatchResult pairs one clip of a batch with its pass outcome.
	BatchResult = batch.Result

	SourceType = domain.SourceType
)

const (
	KindJoint   = grammar.KindJoint
	KindTag     = grammar.KindTag
	KindGeneric = grammar.KindGeneric

	// MLSource is the catch-all token for machine-learning sourced tags.
	MLSource = registry.MLSource

	SourceMovie    = domain.SourceMovie
	SourceSequence = domain.SourceSequence
	SourceImage    = domain.SourceImage
)

var (
	ErrTagsNotSupported = domain.ErrTagsNotSupported
	ErrDegenerateMarker = domain.ErrDegenerateMarker
	ErrEmptyRegistry    = domain.ErrEmptyRegistry
	ErrRegistryOverlap  = domain.ErrRegistryOverlap
)

// IncludeAll collects every observation kind.
var IncludeAll = Include{Poses: true, Detections: true, Tags: true}

// Options configures an Extractor.
type Options struct {
	// Models is the upstream model registry snapshot. Required unless
	// ExtraPoseSources supplies tokens directly.
	Models []ModelEntry

	// TagFamilies lists the known fiducial tag families. The ML
	// catch-all is always added.
	TagFamilies []string

	// ExtraPoseSources and ExtraTagSources extend the derived token
	// sets. The pose and tag sets must stay disjoint.
	ExtraPoseSources []string
	ExtraTagSources  []string

	// ConfidenceThreshold drops pose joints whose confidence proxy
	// falls below it. Default: 0.9.
	ConfidenceThreshold float64

	// FilterLocked restricts every observation kind to locked tracks.
	FilterLocked bool

	// CoarseArea switches the confidence proxy from the exact
	// trapezoid area to the bounding box area.
	CoarseArea bool

	// Workers is the batch pool size. Default: 4.
	Workers int
}

func (o *Options) setDefaults() {
	if o.ConfidenceThreshold == 0 {
		o.ConfidenceThreshold = 0.9
	}
	if o.Workers == 0 {
		o.Workers = 4
	}
}

func (o *Options) validate() {
	if len(o.Models) == 0 && len(o.ExtraPoseSources) == 0 {
		panic("trackex: Models or ExtraPoseSources is required")
	}
}

// Extractor runs extraction passes over clip snapshots. Construction
// derives the source token registry once; RefreshSources rebuilds it
// after the upstream model registry changes. An Extractor is safe for
// concurrent passes over independent clips, but RefreshSources must not
// race with an in-progress pass.
type Extractor struct {
	opts    Options
	catalog *registry.Catalog
	reg     grammar.Registry
	regErr  error
}

// NewExtractor creates an Extractor with the given options. It panics
// when neither Models nor ExtraPoseSources is set. Registry content
// problems (empty or overlapping token sets) do not panic; they surface
// as errors from every extraction method before any pass work starts.
func NewExtractor(opts Options) *Extractor {
	opts.validate()
	opts.setDefaults()

	e := &Extractor{opts: opts, catalog: registry.NewCatalog()}
	e.rebuild()
	return e
}

// RefreshSources replaces the model registry snapshot and tag families,
// invalidates the memoized token derivations and rebuilds the grammar
// registry. It returns the registry build error, if any.
func (e *Extractor) RefreshSources(models []ModelEntry, families []string) error {
	e.catalog.Invalidate()
	e.opts.Models = models
	e.opts.TagFamilies = families
	e.rebuild()
	return e.regErr
}

func (e *Extractor) rebuild() {
	pose := e.catalog.PoseSources(e.opts.Models)
	pose = append(pose[:len(pose):len(pose)], e.opts.ExtraPoseSources...)
	tags := e.catalog.TagSources(e.opts.TagFamilies)
	tags = append(tags[:len(tags):len(tags)], e.opts.ExtraTagSources...)
	e.reg, e.regErr = grammar.NewRegistry(pose, tags)
}

// PoseSources returns the pose-source tokens currently in use.
func (e *Extractor) PoseSources() []string {
	pose := e.catalog.PoseSources(e.opts.Models)
	return append(pose[:len(pose):len(pose)], e.opts.ExtraPoseSources...)
}

// TagSources returns the tag-source tokens currently in use.
func (e *Extractor) TagSources() []string {
	tags := e.catalog.TagSources(e.opts.TagFamilies)
	return append(tags[:len(tags):len(tags)], e.opts.ExtraTagSources...)
}

// Classify parses one track name against the current token registry.
func (e *Extractor) Classify(name string) (Classification, error) {
	if e.regErr != nil {
		return Classification{}, fmt.Errorf("source registry: %w", e.regErr)
	}
	return grammar.Classify(name, e.reg), nil
}

// Frames returns the frame-number translator for a clip.
func (e *Extractor) Frames(clip *Clip) FrameIndex {
	return timeline.New(clip)
}

// TrackingData runs one extraction pass over a clip and folds the
// selected observation kinds into a single result stamped with a fresh
// pass ID. Frames with no observations of a kind carry empty mappings.
func (e *Extractor) TrackingData(clip *Clip, include Include) (*TrackingData, error) {
	a, err := e.assembler(clip)
	if err != nil {
		return nil, err
	}
	return a.TrackingData(uuid.New().String(), include)
}

// Poses extracts named poses keyed by scene frame.
func (e *Extractor) Poses(clip *Clip) (map[int]map[string]*Pose, error) {
	a, err := e.assembler(clip)
	if err != nil {
		return nil, err
	}
	return a.Poses()
}

// Detections extracts generic-track detections keyed by scene frame.
func (e *Extractor) Detections(clip *Clip) (map[int]map[string]Detection, error) {
	a, err := e.assembler(clip)
	if err != nil {
		return nil, err
	}
	return a.Detections()
}

// Tags reports ErrTagsNotSupported: tag aggregation is a declared gap.
func (e *Extractor) Tags(clip *Clip) (map[int]map[string]Tag, error) {
	a, err := e.assembler(clip)
	if err != nil {
		return nil, err
	}
	return a.Tags()
}

// ActiveTrackCount reports how many selected generic tracks a clip has.
func (e *Extractor) ActiveTrackCount(clip *Clip) (int, error) {
	a, err := e.assembler(clip)
	if err != nil {
		return 0, err
	}
	return a.ActiveTrackCount(), nil
}

// TrackObservations summarizes a clip's generic tracks in clip time.
func (e *Extractor) TrackObservations(clip *Clip) (*Observations, error) {
	a, err := e.assembler(clip)
	if err != nil {
		return nil, err
	}
	return a.Observations()
}

// Batch runs full passes over independent clips on a bounded worker
// pool. Results keep input order and failures stay per-clip. Cancelling
// the context stops dispatching further clips; an in-flight pass always
// runs to completion.
func (e *Extractor) Batch(ctx context.Context, clips []*Clip, include Include) []BatchResult {
	pool := batch.NewPool(e.opts.Workers)
	return pool.Run(ctx, clips, func(clip *Clip) (*TrackingData, error) {
		return e.TrackingData(clip, include)
	})
}

func (e *Extractor) assembler(clip *Clip) (*assemble.Assembler, error) {
	if e.regErr != nil {
		return nil, fmt.Errorf("source registry: %w", e.regErr)
	}
	cfg := assemble.Config{
		ConfidenceThreshold: e.opts.ConfidenceThreshold,
		FilterLocked:        e.opts.FilterLocked,
		CoarseArea:          e.opts.CoarseArea,
	}
	return assemble.New(clip, e.reg, cfg), nil
}

// LoadSnapshot reads and validates a clip snapshot file in the trackex
// YAML schema. Contract violations (degenerate markers, bad sizes) fail
// here with descriptive errors, before any pass begins.
func LoadSnapshot(path string) ([]*Clip, error) {
	return snapshot.Load(path)
}
