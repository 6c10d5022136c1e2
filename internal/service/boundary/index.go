package boundary

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"geoenrich/internal/kml"
	"geoenrich/internal/model"
	"geoenrich/internal/service/storage"
	"geoenrich/internal/util"

	"github.com/dhconnelly/rtreego"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// boundsPad keeps points on a bounding box edge inside the R-tree query,
// rtreego treats touching rectangles as disjoint
const boundsPad = 1e-9

// entry is one indexed administrative area
type entry struct {
	order    int
	key      string
	polygons []model.Polygon
	loops    []*s2.Loop
	bound    orb.Bound
}

// Bounds implements the rtreego.Spatial interface
func (e *entry) Bounds() rtreego.Rect {
	rect, _ := rtreego.NewRectFromPoints(
		rtreego.Point{e.bound.Min[0], e.bound.Min[1]},
		rtreego.Point{e.bound.Max[0], e.bound.Max[1]},
	)
	return rect
}

func (e *entry) contains(point model.GeographicPoint, geodesic bool) bool {
	if !e.bound.Contains(point.Orb()) {
		return false
	}

	if geodesic {
		for _, loop := range e.loops {
			if util.LoopContains(loop, point.Latitude, point.Longitude) {
				return true
			}
		}
		return false
	}

	for _, polygon := range e.polygons {
		if model.PointInPolygon(point, polygon) {
			return true
		}
	}
	return false
}

// Options controls how the index answers queries
type Options struct {
	// Geodesic treats polygon edges as great-circle arcs instead of
	// straight lines in longitude/latitude space
	Geodesic bool
	// LinearScan disables the R-tree pre-filter
	LinearScan bool
}

// Builder collects polygons by key before the index is frozen. It is not
// safe for concurrent use.
type Builder struct {
	storage storage.Storage[string, []model.Polygon]
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{
		storage: storage.NewMemoryStorage[string, []model.Polygon](),
	}
}

// Put stores the polygons under key, replacing whatever was stored before.
// A key keeps the position of its first insertion.
func (b *Builder) Put(key string, polygons ...model.Polygon) {
	if len(polygons) == 0 {
		return
	}
	b.storage.Set(key, append([]model.Polygon(nil), polygons...))
}

// Build freezes the collected polygons into an Index
func (b *Builder) Build(opts Options) *Index {
	index := &Index{
		byKey: make(map[string]*entry, b.storage.Count()),
		opts:  opts,
	}

	b.storage.ForEach(func(key string, polygons []model.Polygon) bool {
		e := &entry{
			order:    len(index.entries),
			key:      key,
			polygons: polygons,
		}

		for i, polygon := range polygons {
			bound := polygon.Bound()
			if opts.Geodesic {
				loop := util.LoopFromRing(polygon.Ring())
				e.loops = append(e.loops, loop)
				bound = util.LoopBound(loop)
			}

			if i == 0 {
				e.bound = bound
			} else {
				e.bound = e.bound.Union(bound)
			}
		}
		e.bound = e.bound.Pad(boundsPad)

		index.entries = append(index.entries, e)
		index.byKey[key] = e
		return true
	})

	if !opts.LinearScan {
		spatials := make([]rtreego.Spatial, len(index.entries))
		for i, e := range index.entries {
			spatials[i] = e
		}
		index.tree = rtreego.NewTree(2, 25, 50, spatials...)
	}

	return index
}

// Index is an immutable set of keyed polygons. It is safe for concurrent
// reads once built.
type Index struct {
	entries []*entry
	byKey   map[string]*entry
	tree    *rtreego.Rtree
	opts    Options
}

// FindContainingKey returns the key of the first area, in insertion order,
// whose polygons contain the point. Points on a polygon boundary count as
// contained.
func (i *Index) FindContainingKey(point model.GeographicPoint) (string, bool) {
	if i.tree == nil {
		for _, e := range i.entries {
			if e.contains(point, i.opts.Geodesic) {
				return e.key, true
			}
		}
		return "", false
	}

	results := i.tree.SearchIntersect(rtreego.Point{point.Longitude, point.Latitude}.ToRect(boundsPad))
	if len(results) == 0 {
		return "", false
	}

	candidates := make([]*entry, len(results))
	for j, item := range results {
		candidates[j] = item.(*entry)
	}
	sort.Slice(candidates, func(a, b int) bool {
		return candidates[a].order < candidates[b].order
	})

	for _, e := range candidates {
		if e.contains(point, i.opts.Geodesic) {
			return e.key, true
		}
	}
	return "", false
}

// Len returns the number of indexed keys
func (i *Index) Len() int {
	return len(i.entries)
}

// Keys returns the indexed keys in insertion order
func (i *Index) Keys() []string {
	keys := make([]string, len(i.entries))
	for j, e := range i.entries {
		keys[j] = e.key
	}
	return keys
}

// Polygons returns the polygons stored under key
func (i *Index) Polygons(key string) ([]model.Polygon, bool) {
	e, ok := i.byKey[key]
	if !ok {
		return nil, false
	}
	return e.polygons, true
}

// LoadIndex reads a KML boundary file and builds an index from it. When some
// placemarks fail to import the partial index is returned together with the
// *kml.AggregatedImportError.
func LoadIndex(path string, kmlOpts kml.Options, opts Options) (*Index, kml.Result, error) {
	log.Println("=== Loading boundary index ===")
	totalStartTime := time.Now()

	log.Printf("Step 1: Reading placemarks from %s...", path)
	loadStart := time.Now()
	builder := NewBuilder()
	result, loadErr := kml.LoadFile(path, builder, kmlOpts)
	if loadErr != nil && !isImportError(loadErr) {
		log.Printf("ERROR: Failed to read %s after %v: %v", path, time.Since(loadStart), loadErr)
		return nil, result, fmt.Errorf("failed to load boundaries: %w", loadErr)
	}
	loadDuration := time.Since(loadStart)
	log.Printf("KML reading completed: %d placemarks, %d imported, %d skipped, %d failed in %v",
		result.Placemarks, result.Imported, result.Skipped, result.Failed, loadDuration)

	log.Println("Step 2: Building spatial index...")
	buildStart := time.Now()
	index := builder.Build(opts)
	buildDuration := time.Since(buildStart)
	log.Printf("Spatial index built: %d keys in %v (geodesic=%v, linear scan=%v)",
		index.Len(), buildDuration, opts.Geodesic, opts.LinearScan)

	totalDuration := time.Since(totalStartTime)
	log.Printf("=== Boundary index loaded in %v ===", totalDuration)
	log.Printf("  - KML reading: %v (%.1f%%)", loadDuration, percentOf(loadDuration, totalDuration))
	log.Printf("  - Spatial indexing: %v (%.1f%%)", buildDuration, percentOf(buildDuration, totalDuration))

	return index, result, loadErr
}

func isImportError(err error) bool {
	var importErr *kml.AggregatedImportError
	return errors.As(err, &importErr)
}

func percentOf(part, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part.Nanoseconds()) / float64(total.Nanoseconds()) * 100
}
