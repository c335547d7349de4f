package grammar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eleven-am/trackex/internal/domain"
)

type Kind int

const (
	KindGeneric Kind = iota
	KindJoint
	KindTag
)

func (k Kind) String() string {
	switch k {
	case KindJoint:
		return "joint"
	case KindTag:
		return "tag"
	default:
		return "generic"
	}
}

// Classification is the typed result of parsing one track name.
// PoseName, Source and JointID are set for joints; Source and TagID for
// tags; a generic classification carries the kind alone.
type Classification struct {
	Kind     Kind
	PoseName string
	Source   string
	JointID  int
	TagID    int
}

// Registry holds the valid pose-source and tag-source tokens for one
// extraction pass. It is immutable once built; refreshing after a model
// registry change means building a new one.
type Registry struct {
	poseSources map[string]bool
	tagSources  map[string]bool
}

// NewRegistry builds a registry from explicit token slices. The two sets
// must be disjoint, which keeps the joint and tag grammars mutually
// exclusive for every accepted configuration.
func NewRegistry(poseSources, tagSources []string) (Registry, error) {
	if len(poseSources) == 0 && len(tagSources) == 0 {
		return Registry{}, domain.ErrEmptyRegistry
	}
	r := Registry{
		poseSources: make(map[string]bool, len(poseSources)),
		tagSources:  make(map[string]bool, len(tagSources)),
	}
	for _, tok := range poseSources {
		r.poseSources[tok] = true
	}
	for _, tok := range tagSources {
		if r.poseSources[tok] {
			return Registry{}, fmt.Errorf("token %q: %w", tok, domain.ErrRegistryOverlap)
		}
		r.tagSources[tok] = true
	}
	return r, nil
}

func (r Registry) IsPoseSource(token string) bool { return r.poseSources[token] }
func (r Registry) IsTagSource(token string) bool  { return r.tagSources[token] }

// tagPrefix is the literal first component of every tag track name.
const tagPrefix = "Tag"

// Classify routes a track name to a kind. Joint names take priority over
// tag names; anything that fits neither grammar, including names whose id
// component is not an integer, is generic. Classify never fails.
func Classify(name string, reg Registry) Classification {
	parts := strings.Split(name, ".")
	if c, ok := classifyJoint(parts, reg); ok {
		return c
	}
	if c, ok := classifyTag(parts, reg); ok {
		return c
	}
	return Classification{Kind: KindGeneric}
}

// classifyJoint accepts names of the form <pose name>.<source>.<id> where
// the pose name may itself contain dots.
func classifyJoint(parts []string, reg Registry) (Classification, bool) {
	if len(parts) < 3 || !reg.poseSources[parts[len(parts)-2]] {
		return Classification{}, false
	}
	id, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return Classification{}, false
	}
	return Classification{
		Kind:     KindJoint,
		PoseName: strings.Join(parts[:len(parts)-2], "."),
		Source:   parts[len(parts)-2],
		JointID:  id,
	}, true
}

// classifyTag accepts names of the form Tag.<source>.<id>.
func classifyTag(parts []string, reg Registry) (Classification, bool) {
	if len(parts) < 3 || parts[0] != tagPrefix || !reg.tagSources[parts[1]] {
		return Classification{}, false
	}
	id, err := strconv.Atoi(parts[2])
	if err != nil {
		return Classification{}, false
	}
	return Classification{Kind: KindTag, Source: parts[1], TagID: id}, true
}
