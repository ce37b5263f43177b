package strategy

import (
	"context"

	"graphxings/internal/board"
	"graphxings/internal/index"
)

// RandomSample places a neighbour of the last vertex (or any unplaced
// vertex) at the best of a handful of random free coordinates. It serves
// both roles.
type RandomSample struct{}

func (RandomSample) Name() string { return "random-sample" }

func (s RandomSample) TryFirstMove(ctx context.Context, v View) (Candidate, bool) {
	c, ok := Fallback(v)
	c.Strategy = s.Name()
	return c, ok
}

func (s RandomSample) TryMove(ctx context.Context, v View, last board.Move) (Candidate, bool) {
	vertices := limit(unplacedNeighbours(v.Board, last.Vertex), 1)
	if len(vertices) == 0 {
		vertex, ok := v.Board.RandomUnplaced(v.Rand)
		if !ok {
			return Candidate{}, false
		}
		vertices = []board.VertexID{vertex}
	}
	coords := v.Board.SampleFreeAnywhere(v.Rand, v.Params.Samples)
	return chooseExtremal(ctx, v, s.Name(), vertices, coords)
}

// DenseRegion drops a well-connected vertex into the tile crossed by the
// most segments
type DenseRegion struct{}

func (DenseRegion) Name() string { return "dense-region" }

// TryFirstMove samples around the board centre, centre cell included
func (s DenseRegion) TryFirstMove(ctx context.Context, v View) (Candidate, bool) {
	vertex, ok := v.Board.RandomUnplaced(v.Rand)
	if !ok {
		return Candidate{}, false
	}
	centre := board.Coordinate{X: v.Board.Width() / 2, Y: v.Board.Height() / 2}
	coords := v.Board.SampleFree(v.Rand, centre, v.Params.Radius, v.Params.Radius, v.Params.Samples)
	if v.Board.IsFree(centre) {
		coords = append([]board.Coordinate{centre}, coords...)
	}
	return chooseExtremal(ctx, v, s.Name(), []board.VertexID{vertex}, coords)
}

func (s DenseRegion) TryMove(ctx context.Context, v View, last board.Move) (Candidate, bool) {
	vertices := limit(unplacedNeighbours(v.Board, last.Vertex), 1)
	if len(vertices) == 0 {
		vertex, ok := mostConnectedUnplaced(v.Board)
		if !ok {
			return Candidate{}, false
		}
		vertices = []board.VertexID{vertex}
	}

	tiles := index.DensityTiles(v.Board.Width(), v.Board.Height(), v.Board.PlacedCount())
	var coords []board.Coordinate
	if region, ok := v.Index.DensestRegion(tiles); ok && region.Count > 0 {
		rx, ry := region.HalfExtent()
		coords = v.Board.SampleFree(v.Rand, region.Centre(), rx, ry, v.Params.Samples)
	} else {
		coords = v.Board.SampleFree(v.Rand, last.Coordinate, v.Params.Radius, v.Params.Radius, v.Params.Samples)
	}
	return chooseExtremal(ctx, v, s.Name(), vertices, coords)
}

// PointReflection answers a placement with a neighbour placed at its point
// reflection through the board centre, stretching the new edge across the
// drawing
type PointReflection struct{}

func (PointReflection) Name() string { return "point-reflection" }

// TryFirstMove claims the origin corner
func (s PointReflection) TryFirstMove(ctx context.Context, v View) (Candidate, bool) {
	return originMove(ctx, v, s.Name())
}

func (s PointReflection) TryMove(ctx context.Context, v View, last board.Move) (Candidate, bool) {
	anchor, neighbours, ok := anchorWithFreeNeighbours(v.Board, last.Vertex)
	if !ok {
		return Candidate{}, false
	}
	at, _ := v.Board.CoordinateOf(anchor)
	w, h := v.Board.Width(), v.Board.Height()
	reflected := board.Coordinate{X: w - at.X - 1, Y: h - at.Y - 1}

	var coords []board.Coordinate
	if v.Board.IsFree(reflected) {
		coords = []board.Coordinate{reflected}
	} else {
		coords = v.Board.SampleFree(v.Rand, reflected, w/3, h/3, v.Params.Samples)
	}
	return chooseExtremal(ctx, v, s.Name(), limit(neighbours, v.Params.Samples), coords)
}

// SparseRegion moves the least connected vertex into the tile crossed by
// the fewest segments
type SparseRegion struct{}

func (SparseRegion) Name() string { return "sparse-region" }

func (s SparseRegion) TryFirstMove(ctx context.Context, v View) (Candidate, bool) {
	return Border{}.firstCorner(ctx, v, s.Name())
}

func (s SparseRegion) TryMove(ctx context.Context, v View, last board.Move) (Candidate, bool) {
	vertex, ok := leastConnectedUnplaced(v.Board)
	if !ok {
		return Candidate{}, false
	}
	tiles := index.DensityTiles(v.Board.Width(), v.Board.Height(), v.Board.PlacedCount())
	var coords []board.Coordinate
	if region, ok := v.Index.SparsestRegion(tiles); ok {
		rx, ry := region.HalfExtent()
		coords = v.Board.SampleFree(v.Rand, region.Centre(), rx, ry, v.Params.Samples)
	} else {
		coords = v.Board.SampleFreeAnywhere(v.Rand, v.Params.Samples)
	}
	return chooseExtremal(ctx, v, s.Name(), []board.VertexID{vertex}, coords)
}

// NeighbourNearby places an unplaced neighbour of the last vertex inside
// the sampling radius around it; short edges cross little
type NeighbourNearby struct{}

func (NeighbourNearby) Name() string { return "neighbour-nearby" }

func (s NeighbourNearby) TryFirstMove(ctx context.Context, v View) (Candidate, bool) {
	return Border{}.firstCorner(ctx, v, s.Name())
}

func (s NeighbourNearby) TryMove(ctx context.Context, v View, last board.Move) (Candidate, bool) {
	anchor, neighbours, ok := anchorWithFreeNeighbours(v.Board, last.Vertex)
	if !ok {
		return Candidate{}, false
	}
	at, _ := v.Board.CoordinateOf(anchor)
	r := v.Params.Radius
	coords := make([]board.Coordinate, 0, (2*r+1)*(2*r+1))
	for y := at.Y - r; y <= at.Y+r; y++ {
		for x := at.X - r; x <= at.X+r; x++ {
			c := board.Coordinate{X: x, Y: y}
			if v.Board.IsFree(c) {
				coords = append(coords, c)
			}
		}
	}
	return chooseExtremal(ctx, v, s.Name(), neighbours[:1], coords)
}

// Border parks the least connected vertex on the outer ring of the board
type Border struct{}

func (Border) Name() string { return "border" }

func (s Border) TryFirstMove(ctx context.Context, v View) (Candidate, bool) {
	return s.firstCorner(ctx, v, s.Name())
}

func (s Border) TryMove(ctx context.Context, v View, last board.Move) (Candidate, bool) {
	vertex, ok := leastConnectedUnplaced(v.Board)
	if !ok {
		return Candidate{}, false
	}
	coords := v.Board.BorderFree(v.Rand, v.Params.Samples)
	return chooseExtremal(ctx, v, s.Name(), []board.VertexID{vertex}, coords)
}

func (Border) firstCorner(ctx context.Context, v View, name string) (Candidate, bool) {
	vertex, ok := leastConnectedUnplaced(v.Board)
	if !ok {
		return Candidate{}, false
	}
	w, h := v.Board.Width(), v.Board.Height()
	corners := []board.Coordinate{{X: 0, Y: 0}, {X: w - 1, Y: 0}, {X: 0, Y: h - 1}, {X: w - 1, Y: h - 1}}
	return chooseExtremal(ctx, v, name, []board.VertexID{vertex}, corners)
}

// BorderReflection reflects the free neighbours of a border vertex through
// the board centre. Without such a vertex it seeds one on the border.
type BorderReflection struct{}

func (BorderReflection) Name() string { return "border-reflection" }

func (s BorderReflection) TryFirstMove(ctx context.Context, v View) (Candidate, bool) {
	return originMove(ctx, v, s.Name())
}

func (s BorderReflection) TryMove(ctx context.Context, v View, last board.Move) (Candidate, bool) {
	w, h := v.Board.Width(), v.Board.Height()
	for _, vertex := range v.Board.Graph().Vertices() {
		at, ok := v.Board.CoordinateOf(vertex)
		if !ok || !onBorder(at, w, h) {
			continue
		}
		neighbours := unplacedNeighbours(v.Board, vertex)
		if len(neighbours) == 0 {
			continue
		}
		reflected := board.Coordinate{X: w - at.X - 1, Y: h - at.Y - 1}
		coords := []board.Coordinate{reflected}
		if !v.Board.IsFree(reflected) {
			coords = v.Board.SampleFree(v.Rand, reflected, w/3, h/3, v.Params.Samples)
		}
		return chooseExtremal(ctx, v, s.Name(), limit(neighbours, v.Params.Samples), coords)
	}

	unplaced := v.Board.Unplaced()
	if len(unplaced) == 0 {
		return Candidate{}, false
	}
	coords := v.Board.BorderFree(v.Rand, v.Params.Samples)
	if len(coords) == 0 {
		coords = v.Board.SampleFreeAnywhere(v.Rand, v.Params.Samples)
	}
	return chooseExtremal(ctx, v, s.Name(), unplaced[len(unplaced)-1:], coords)
}

// DiagonalCrossingAngle stretches new edges along the main diagonal by
// placing a neighbour of the last vertex near the diagonal corner farther
// from it
type DiagonalCrossingAngle struct{}

func (DiagonalCrossingAngle) Name() string { return "diagonal-crossing-angle" }

// TryFirstMove takes the board centre
func (s DiagonalCrossingAngle) TryFirstMove(ctx context.Context, v View) (Candidate, bool) {
	unplaced := v.Board.Unplaced()
	if len(unplaced) == 0 {
		return Candidate{}, false
	}
	centre := board.Coordinate{X: v.Board.Width() / 2, Y: v.Board.Height() / 2}
	coords := []board.Coordinate{centre}
	if !v.Board.IsFree(centre) {
		coords = v.Board.SampleFree(v.Rand, centre, v.Params.Radius, v.Params.Radius, v.Params.Samples)
	}
	return chooseExtremal(ctx, v, s.Name(), unplaced[:1], coords)
}

func (s DiagonalCrossingAngle) TryMove(ctx context.Context, v View, last board.Move) (Candidate, bool) {
	vertices := limit(unplacedNeighbours(v.Board, last.Vertex), 1)
	if len(vertices) == 0 {
		unplaced := v.Board.Unplaced()
		if len(unplaced) == 0 {
			return Candidate{}, false
		}
		vertices = unplaced[:1]
	}
	w, h := v.Board.Width(), v.Board.Height()
	corner := board.Coordinate{X: 0, Y: 0}
	if far := (board.Coordinate{X: w - 1, Y: h - 1}); squaredDistance(last.Coordinate, far) > squaredDistance(last.Coordinate, corner) {
		corner = far
	}
	coords := v.Board.SampleFree(v.Rand, corner, w/4, h/4, v.Params.Samples)
	if v.Board.IsFree(corner) {
		coords = append([]board.Coordinate{corner}, coords...)
	}
	return chooseExtremal(ctx, v, s.Name(), vertices, coords)
}

// VertexOnEdge draws the longest edge the board allows out of the origin,
// then threads well connected vertices along it so their edges cut across
// everything attached to the long one
type VertexOnEdge struct{}

func (VertexOnEdge) Name() string { return "vertex-on-edge" }

// TryFirstMove claims the origin corner
func (s VertexOnEdge) TryFirstMove(ctx context.Context, v View) (Candidate, bool) {
	return originMove(ctx, v, s.Name())
}

func (s VertexOnEdge) TryMove(ctx context.Context, v View, last board.Move) (Candidate, bool) {
	end := longestEdgeEnd(v.Board.Width(), v.Board.Height())
	if v.Board.PlacedCount() < 3 {
		if c, ok := s.completeEdge(ctx, v, end); ok {
			return c, true
		}
	}
	vertex, ok := mostConnectedUnplaced(v.Board)
	if !ok {
		return Candidate{}, false
	}
	coords := alongEdge(v.Board, end, v.Params.Samples)
	if len(coords) == 0 {
		return Candidate{}, false
	}
	return chooseExtremal(ctx, v, s.Name(), []board.VertexID{vertex}, coords)
}

// completeEdge places a neighbour of the origin vertex at the far end of
// the long edge, stepping back towards the origin while the end is taken
func (s VertexOnEdge) completeEdge(ctx context.Context, v View, end board.Coordinate) (Candidate, bool) {
	origin, ok := v.Board.VertexAt(board.Coordinate{X: 0, Y: 0})
	if !ok {
		return Candidate{}, false
	}
	neighbours := unplacedNeighbours(v.Board, origin)
	if len(neighbours) == 0 {
		return Candidate{}, false
	}
	at := end
	for !v.Board.IsFree(at) && (at.X > 0 || at.Y > 0) {
		at = board.Coordinate{X: max(at.X-1, 0), Y: max(at.Y-1, 0)}
	}
	return chooseExtremal(ctx, v, s.Name(), neighbours[:1], []board.Coordinate{at})
}

// longestEdgeEnd returns the far end of the longest straight edge out of
// the origin: the opposite corner when the diagonal beats the longer side
func longestEdgeEnd(w, h int) board.Coordinate {
	short, long := min(w, h), max(w, h)
	switch {
	case 2*short*short > long*long:
		return board.Coordinate{X: w - 1, Y: h - 1}
	case w > h:
		return board.Coordinate{X: w - 1, Y: 0}
	default:
		return board.Coordinate{X: 0, Y: h - 1}
	}
}

// alongEdge collects up to n free coordinates on the edge from the origin
// to end, walking inwards from both ends
func alongEdge(b *board.Board, end board.Coordinate, n int) []board.Coordinate {
	ux, uy := 0, 0
	if end.X > 0 {
		ux = 1
	}
	if end.Y > 0 {
		uy = 1
	}
	var out []board.Coordinate
	for i := 1; 2*i <= max(end.X, end.Y) && len(out) < n; i++ {
		for _, c := range []board.Coordinate{{X: i * ux, Y: i * uy}, {X: end.X - i*ux, Y: end.Y - i*uy}} {
			if b.IsFree(c) && len(out) < n {
				out = append(out, c)
			}
		}
	}
	return out
}

// GridAngle keeps new edges axis-parallel so they meet at right angles: a
// free neighbour of a vertex in the sparsest populated tile goes straight
// north, south, east or west of it
type GridAngle struct{}

func (GridAngle) Name() string { return "grid-angle" }

// TryFirstMove claims the origin corner
func (s GridAngle) TryFirstMove(ctx context.Context, v View) (Candidate, bool) {
	return originMove(ctx, v, s.Name())
}

func (s GridAngle) TryMove(ctx context.Context, v View, last board.Move) (Candidate, bool) {
	var anchors []board.VertexID
	if v.Vertices != nil {
		tiles := index.DensityTiles(v.Board.Width(), v.Board.Height(), v.Board.PlacedCount())
		if region, ok := v.Vertices.SparsestRegion(tiles); ok {
			for _, e := range v.Vertices.Within(region.Bound) {
				anchors = append(anchors, e.Vertex)
			}
		}
	}
	anchors = append(anchors, last.Vertex)

	var moves []board.Move
	for _, anchor := range anchors {
		if ctx.Err() != nil || len(moves) >= v.Params.Samples {
			break
		}
		neighbours := unplacedNeighbours(v.Board, anchor)
		if len(neighbours) == 0 {
			continue
		}
		at, ok := v.Board.CoordinateOf(anchor)
		if !ok {
			continue
		}
		if c, ok := axisFree(v.Board, at); ok {
			moves = append(moves, board.Move{Vertex: neighbours[0], Coordinate: c})
		}
	}
	return chooseAmong(ctx, v, s.Name(), moves)
}

// axisFree returns the nearest free coordinate straight north, south, east
// or west of at
func axisFree(b *board.Board, at board.Coordinate) (board.Coordinate, bool) {
	for k := 1; k < max(b.Width(), b.Height()); k++ {
		for _, c := range []board.Coordinate{
			{X: at.X, Y: at.Y - k},
			{X: at.X, Y: at.Y + k},
			{X: at.X + k, Y: at.Y},
			{X: at.X - k, Y: at.Y},
		} {
			if b.IsFree(c) {
				return c, true
			}
		}
	}
	return board.Coordinate{}, false
}

// originMove places the first unplaced vertex at (0,0)
func originMove(ctx context.Context, v View, name string) (Candidate, bool) {
	unplaced := v.Board.Unplaced()
	if len(unplaced) == 0 {
		return Candidate{}, false
	}
	return chooseExtremal(ctx, v, name, unplaced[:1], []board.Coordinate{{X: 0, Y: 0}})
}

func onBorder(c board.Coordinate, w, h int) bool {
	return c.X == 0 || c.Y == 0 || c.X == w-1 || c.Y == h-1
}

func squaredDistance(a, b board.Coordinate) int {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}
