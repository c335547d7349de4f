// Package snapshot decodes clip/track/marker snapshots from YAML and
// enforces the snapshot contract before a pass ever sees the data, so
// contract breaches surface as descriptive errors instead of mid-pass
// failures.
package snapshot

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eleven-am/trackex/internal/domain"
)

type File struct {
	Clips []Clip `yaml:"clips"`
}

type Clip struct {
	Path        string  `yaml:"path"`
	FrameStart  *int    `yaml:"frame_start"`
	FrameOffset int     `yaml:"frame_offset"`
	Source      string  `yaml:"source"`
	Size        []int   `yaml:"size"`
	Tracks      []Track `yaml:"tracks"`
}

type Track struct {
	Name     string   `yaml:"name"`
	Locked   bool     `yaml:"locked"`
	Selected bool     `yaml:"selected"`
	Markers  []Marker `yaml:"markers"`
}

type Marker struct {
	Frame   int         `yaml:"frame"`
	Center  []float64   `yaml:"center"`
	Corners [][]float64 `yaml:"corners"`
}

var sourceTypes = map[string]domain.SourceType{
	"":         domain.SourceMovie,
	"movie":    domain.SourceMovie,
	"sequence": domain.SourceSequence,
	"image":    domain.SourceImage,
}

// Load reads and validates a snapshot file.
func Load(path string) ([]*domain.Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	clips, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return clips, nil
}

// Decode parses and validates snapshot YAML into domain clips.
func Decode(r io.Reader) ([]*domain.Clip, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(file.Clips) == 0 {
		return nil, fmt.Errorf("snapshot has no clips")
	}

	clips := make([]*domain.Clip, 0, len(file.Clips))
	for i, c := range file.Clips {
		clip, err := c.toDomain()
		if err != nil {
			return nil, fmt.Errorf("clip %d (%s): %w", i, c.Path, err)
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

func (c Clip) toDomain() (*domain.Clip, error) {
	source, ok := sourceTypes[c.Source]
	if !ok {
		return nil, fmt.Errorf("unknown source type %q", c.Source)
	}
	if len(c.Size) != 2 || c.Size[0] < 1 || c.Size[1] < 1 {
		return nil, fmt.Errorf("size must be two positive pixel dimensions, got %v", c.Size)
	}

	// The editor's clip frame numbering starts at 1.
	frameStart := 1
	if c.FrameStart != nil {
		frameStart = *c.FrameStart
	}

	clip := &domain.Clip{
		Path:        c.Path,
		FrameStart:  frameStart,
		FrameOffset: c.FrameOffset,
		Source:      source,
		Width:       c.Size[0],
		Height:      c.Size[1],
	}
	for _, t := range c.Tracks {
		track, err := t.toDomain()
		if err != nil {
			return nil, fmt.Errorf("track %q: %w", t.Name, err)
		}
		clip.Tracks = append(clip.Tracks, track)
	}
	return clip, nil
}

func (t Track) toDomain() (domain.Track, error) {
	track := domain.Track{Name: t.Name, Locked: t.Locked, Selected: t.Selected}
	for _, m := range t.Markers {
		marker, err := m.toDomain()
		if err != nil {
			return domain.Track{}, err
		}
		track.Markers = append(track.Markers, marker)
	}
	return track, nil
}

func (m Marker) toDomain() (domain.Marker, error) {
	if len(m.Center) != 2 {
		return domain.Marker{}, fmt.Errorf("marker at frame %d: center must be [u, v], got %v", m.Frame, m.Center)
	}
	if len(m.Corners) < 4 {
		return domain.Marker{}, fmt.Errorf("marker at frame %d has %d corners: %w", m.Frame, len(m.Corners), domain.ErrDegenerateMarker)
	}
	marker := domain.Marker{
		Frame:  m.Frame,
		Center: domain.Vec2{X: m.Center[0], Y: m.Center[1]},
	}
	for i, c := range m.Corners {
		if len(c) != 2 {
			return domain.Marker{}, fmt.Errorf("marker at frame %d: corner %d must be [dx, dy], got %v", m.Frame, i, c)
		}
		marker.Corners = append(marker.Corners, domain.Vec2{X: c[0], Y: c[1]})
	}
	return marker, nil
}
