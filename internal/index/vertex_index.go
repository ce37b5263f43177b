package index

import (
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"

	"graphxings/internal/board"
	"graphxings/internal/geom"
)

// VertexEntry wraps a placed vertex for R-tree storage
type VertexEntry struct {
	Vertex board.VertexID
	At     geom.Point
	BBox   rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (v *VertexEntry) Bounds() rtreego.Rect {
	return v.BBox
}

// VertexIndex holds the coordinates of placed vertices
type VertexIndex struct {
	mu      sync.RWMutex
	tree    *rtreego.Rtree
	entries map[board.VertexID]*VertexEntry
	width   int
	height  int
}

// NewVertexIndex creates an empty vertex index for a width x height board
func NewVertexIndex(width, height int) *VertexIndex {
	return &VertexIndex{
		tree:    rtreego.NewTree(2, 4, 16),
		entries: make(map[board.VertexID]*VertexEntry),
		width:   width,
		height:  height,
	}
}

// Insert adds a placed vertex. A vertex is indexed at most once.
func (vi *VertexIndex) Insert(v board.VertexID, at geom.Point) bool {
	bbox, err := pointRect(at)
	if err != nil {
		log.Warn().Err(err).Str("vertex", string(v)).Msg("index: cannot build rect, insert skipped")
		return false
	}

	vi.mu.Lock()
	defer vi.mu.Unlock()
	if _, exists := vi.entries[v]; exists {
		log.Warn().Str("vertex", string(v)).Msg("index: duplicate vertex ignored")
		return false
	}
	entry := &VertexEntry{Vertex: v, At: at, BBox: bbox}
	vi.entries[v] = entry
	vi.tree.Insert(entry)
	return true
}

func (vi *VertexIndex) Len() int {
	vi.mu.RLock()
	defer vi.mu.RUnlock()
	return len(vi.entries)
}

// SparsestRegion returns the tile holding the fewest placed vertices among
// the tiles holding at least one. ok is false on an empty index.
func (vi *VertexIndex) SparsestRegion(tiles int) (Region, bool) {
	if tiles < 1 {
		return Region{}, false
	}
	vi.mu.RLock()
	defer vi.mu.RUnlock()

	var best Region
	found := false
	for _, cell := range tileBounds(vi.width, vi.height, tiles) {
		count := len(vi.within(cell))
		if count == 0 {
			continue
		}
		if !found || count < best.Count {
			best = Region{Bound: cell, Count: count}
			found = true
		}
	}
	return best, found
}

// Within returns the vertices placed inside b (border included), ordered
// by row and then column
func (vi *VertexIndex) Within(b orb.Bound) []VertexEntry {
	vi.mu.RLock()
	defer vi.mu.RUnlock()
	entries := vi.within(b)
	out := make([]VertexEntry, len(entries))
	for i, e := range entries {
		out[i] = *e
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].At.Y != out[j].At.Y {
			return out[i].At.Y < out[j].At.Y
		}
		return out[i].At.X < out[j].At.X
	})
	return out
}

// within filters the R-tree hits with the exact containment test. Callers
// hold the read lock.
func (vi *VertexIndex) within(b orb.Bound) []*VertexEntry {
	if len(vi.entries) == 0 {
		return nil
	}
	rect, err := boundRect(b)
	if err != nil {
		return nil
	}
	var out []*VertexEntry
	for _, item := range vi.tree.SearchIntersect(rect) {
		entry := item.(*VertexEntry)
		if b.Contains(entry.At.Orb()) {
			out = append(out, entry)
		}
	}
	return out
}

// pointRect computes the padded R-tree rectangle of a grid point
func pointRect(p geom.Point) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{float64(p.X) - bboxPad, float64(p.Y) - bboxPad},
		[]float64{2 * bboxPad, 2 * bboxPad},
	)
}
