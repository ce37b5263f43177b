package index

import (
	"github.com/paulmach/orb"

	"graphxings/internal/geom"
)

// Region is one tile of the density grid
type Region struct {
	Bound orb.Bound
	Count int
}

// Centre returns the grid coordinate closest to the region's centre
func (r Region) Centre() geom.Point {
	c := r.Bound.Center()
	return geom.Point{X: int(c[0]), Y: int(c[1])}
}

// HalfExtent returns the integer half width and half height of the region
func (r Region) HalfExtent() (int, int) {
	return int((r.Bound.Max[0] - r.Bound.Min[0]) / 2), int((r.Bound.Max[1] - r.Bound.Min[1]) / 2)
}

// DensestRegion splits the board into tiles x tiles cells and returns the one
// intersected by the most indexed segments. ok is false on an empty index.
func (si *SpatialIndex) DensestRegion(tiles int) (Region, bool) {
	return si.extremeRegion(tiles, func(count, best int) bool { return count > best })
}

// SparsestRegion returns the cell intersected by the fewest indexed segments
func (si *SpatialIndex) SparsestRegion(tiles int) (Region, bool) {
	return si.extremeRegion(tiles, func(count, best int) bool { return count < best })
}

func (si *SpatialIndex) extremeRegion(tiles int, better func(count, best int) bool) (Region, bool) {
	if tiles < 1 {
		return Region{}, false
	}
	si.mu.RLock()
	defer si.mu.RUnlock()
	if len(si.entries) == 0 {
		return Region{}, false
	}

	var best Region
	found := false
	for _, cell := range tileBounds(si.width, si.height, tiles) {
		count := si.countInBound(cell)
		if !found || better(count, best.Count) {
			best = Region{Bound: cell, Count: count}
			found = true
		}
	}
	return best, found
}

// countInBound counts indexed segments that touch the box. The R-tree
// narrows the set, the exact segment/box test confirms each hit.
func (si *SpatialIndex) countInBound(b orb.Bound) int {
	rect, err := boundRect(b)
	if err != nil {
		return 0
	}
	count := 0
	for _, item := range si.tree.SearchIntersect(rect) {
		if geom.IntersectsBound(item.(*SegmentEntry).Segment, b) {
			count++
		}
	}
	return count
}

// tileBounds partitions [0,width-1] x [0,height-1] into tiles x tiles cells
// in row-major order. Neighbouring cells share their border line.
func tileBounds(width, height, tiles int) []orb.Bound {
	w := float64(width-1) / float64(tiles)
	h := float64(height-1) / float64(tiles)
	cells := make([]orb.Bound, 0, tiles*tiles)
	for j := 0; j < tiles; j++ {
		for i := 0; i < tiles; i++ {
			cells = append(cells, orb.Bound{
				Min: orb.Point{float64(i) * w, float64(j) * h},
				Max: orb.Point{float64(i+1) * w, float64(j+1) * h},
			})
		}
	}
	return cells
}

// DensityTiles picks the grid resolution for region queries: small boards
// use 2x2, larger ones grow with the number of placed vertices up to 10x10.
func DensityTiles(width, height, placed int) int {
	if width*height <= 10000 {
		return 2
	}
	tiles := placed / 1000
	if tiles < 2 {
		tiles = 2
	}
	if tiles > 10 {
		tiles = 10
	}
	return tiles
}
