package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	gocache "github.com/patrickmn/go-cache"
)

// MLSource is the catch-all token for tracks produced by machine-learning
// detectors rather than a specific tag family.
const MLSource = "ML"

// ModelEntry is one vision model as reported by the upstream model
// registry, reduced to the attributes that shape track names.
type ModelEntry struct {
	Name        string
	TargetClass string
	Keypoints   int
}

// Catalog derives the source token lists consumed by the track name
// grammar and memoizes each derivation against a fingerprint of its
// inputs. There is no hidden global state: the caller owns the catalog
// and calls Invalidate when the upstream model registry changes.
type Catalog struct {
	cache *gocache.Cache
}

func NewCatalog() *Catalog {
	return &Catalog{cache: gocache.New(gocache.NoExpiration, 0)}
}

// PoseSources derives the valid pose-source tokens as the cross product
// of distinct target classes and distinct keypoint counts. The product
// can name combinations no registered model provides; that mirrors the
// upstream registry and keeps tracks from retired models classifiable.
func (c *Catalog) PoseSources(models []ModelEntry) []string {
	classes := make(map[string]bool)
	counts := make(map[int]bool)
	for _, m := range models {
		classes[m.TargetClass] = true
		counts[m.Keypoints] = true
	}

	classList := make([]string, 0, len(classes))
	for cl := range classes {
		classList = append(classList, cl)
	}
	sort.Strings(classList)
	countList := make([]int, 0, len(counts))
	for kp := range counts {
		countList = append(countList, kp)
	}
	sort.Ints(countList)

	key := fingerprint("pose", classList, intStrings(countList))
	if v, ok := c.cache.Get(key); ok {
		return v.([]string)
	}

	tokens := make([]string, 0, len(classList)*len(countList))
	for _, cl := range classList {
		for _, kp := range countList {
			tokens = append(tokens, fmt.Sprintf("%s%d", cl, kp))
		}
	}
	c.cache.Set(key, tokens, gocache.NoExpiration)
	return tokens
}

// TagSources derives the valid tag-source tokens: the known tag families
// plus the ML catch-all.
func (c *Catalog) TagSources(families []string) []string {
	uniq := make(map[string]bool, len(families))
	for _, f := range families {
		uniq[f] = true
	}
	list := make([]string, 0, len(uniq))
	for f := range uniq {
		list = append(list, f)
	}
	sort.Strings(list)

	key := fingerprint("tag", list, nil)
	if v, ok := c.cache.Get(key); ok {
		return v.([]string)
	}

	tokens := list
	if !uniq[MLSource] {
		tokens = append(tokens, MLSource)
	}
	c.cache.Set(key, tokens, gocache.NoExpiration)
	return tokens
}

// Invalidate drops every memoized derivation. Call after the upstream
// model registry changes.
func (c *Catalog) Invalidate() {
	c.cache.Flush()
}

func intStrings(values []int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%d", v)
	}
	return out
}

func fingerprint(kind string, a, b []string) string {
	hash := sha256.Sum256([]byte(kind + ":" + strings.Join(a, "\x00") + "|" + strings.Join(b, "\x00")))
	return "trackex:v1:" + kind + ":" + hex.EncodeToString(hash[:])
}
