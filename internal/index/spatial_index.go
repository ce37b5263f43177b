package index

import (
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"

	"graphxings/internal/board"
	"graphxings/internal/geom"
)

// bboxPad widens every rect so degenerate (horizontal or vertical) segments
// get a positive extent and touching boxes still overlap. Padding only adds
// false positives to the prefilter.
const bboxPad = 0.5

// SegmentEntry wraps a placed edge for R-tree storage
type SegmentEntry struct {
	Edge    board.Edge
	Segment geom.Segment
	BBox    rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (s *SegmentEntry) Bounds() rtreego.Rect {
	return s.BBox
}

// SpatialIndex holds the drawn segments of all fully placed edges.
// Queries may run concurrently; Insert takes the write lock.
type SpatialIndex struct {
	mu      sync.RWMutex
	tree    *rtreego.Rtree
	entries map[board.Edge]*SegmentEntry
	width   int
	height  int
}

// NewSpatialIndex creates an empty index for a width x height board
func NewSpatialIndex(width, height int) *SpatialIndex {
	return &SpatialIndex{
		tree:    rtreego.NewTree(2, 4, 16),
		entries: make(map[board.Edge]*SegmentEntry),
		width:   width,
		height:  height,
	}
}

// Insert adds a placed edge. A second insert of the same edge is an index
// inconsistency: it is logged and ignored, and Insert reports false.
func (si *SpatialIndex) Insert(e board.Edge, seg geom.Segment) bool {
	e = board.NewEdge(e.S, e.T)
	bbox, err := segmentRect(seg)
	if err != nil {
		log.Warn().Err(err).Str("edge", e.String()).Msg("index: cannot build rect, insert skipped")
		return false
	}

	si.mu.Lock()
	defer si.mu.Unlock()
	if _, exists := si.entries[e]; exists {
		log.Warn().Str("edge", e.String()).Msg("index: duplicate insert ignored")
		return false
	}
	entry := &SegmentEntry{Edge: e, Segment: seg, BBox: bbox}
	si.entries[e] = entry
	si.tree.Insert(entry)
	return true
}

// Len returns the number of indexed edges
func (si *SpatialIndex) Len() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return len(si.entries)
}

// Contains reports whether e has been indexed
func (si *SpatialIndex) Contains(e board.Edge) bool {
	si.mu.RLock()
	defer si.mu.RUnlock()
	_, ok := si.entries[board.NewEdge(e.S, e.T)]
	return ok
}

// candidates returns the entries whose boxes overlap seg's box, minus the
// edges adjacent to (or equal to) e. Callers hold the read lock.
func (si *SpatialIndex) candidates(seg geom.Segment, e board.Edge) []*SegmentEntry {
	if len(si.entries) == 0 {
		return nil
	}
	bbox, err := segmentRect(seg)
	if err != nil {
		return nil
	}

	results := si.tree.SearchIntersect(bbox)
	entries := make([]*SegmentEntry, 0, len(results))
	for _, item := range results {
		entry := item.(*SegmentEntry)
		if entry.Edge.Adjacent(e) {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// CountCrossings returns how many indexed segments properly cross seg,
// ignoring the edges adjacent to e (the edge seg would draw)
func (si *SpatialIndex) CountCrossings(seg geom.Segment, e board.Edge) int {
	si.mu.RLock()
	defer si.mu.RUnlock()

	count := 0
	for _, entry := range si.candidates(seg, e) {
		if geom.ProperlyCross(seg, entry.Segment) {
			count++
		}
	}
	return count
}

// SumCrossingAngles returns the sum of approximate squared cosines over the
// indexed segments properly crossing seg, ignoring edges adjacent to e
func (si *SpatialIndex) SumCrossingAngles(seg geom.Segment, e board.Edge) float64 {
	si.mu.RLock()
	defer si.mu.RUnlock()

	sum := 0.0
	for _, entry := range si.candidates(seg, e) {
		if geom.ProperlyCross(seg, entry.Segment) {
			sum += geom.FastSquaredCosine(seg, entry.Segment)
		}
	}
	return sum
}

// EdgeCrossings counts crossings of an already indexed edge. Querying an
// edge that is not indexed is logged and answers 0.
func (si *SpatialIndex) EdgeCrossings(e board.Edge) int {
	e = board.NewEdge(e.S, e.T)
	si.mu.RLock()
	entry, ok := si.entries[e]
	si.mu.RUnlock()
	if !ok {
		log.Warn().Str("edge", e.String()).Msg("index: query on unindexed edge")
		return 0
	}
	return si.CountCrossings(entry.Segment, e)
}

// segmentRect computes the padded R-tree rectangle of a segment
func segmentRect(seg geom.Segment) (rtreego.Rect, error) {
	b := seg.Bound()
	return rtreego.NewRect(
		rtreego.Point{b.Min[0] - bboxPad, b.Min[1] - bboxPad},
		[]float64{b.Max[0] - b.Min[0] + 2*bboxPad, b.Max[1] - b.Min[1] + 2*bboxPad},
	)
}

// boundRect converts an orb bound to an R-tree rectangle, padded like segments
func boundRect(b orb.Bound) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{b.Min[0] - bboxPad, b.Min[1] - bboxPad},
		[]float64{b.Max[0] - b.Min[0] + 2*bboxPad, b.Max[1] - b.Min[1] + 2*bboxPad},
	)
}
