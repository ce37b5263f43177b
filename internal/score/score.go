// Package score computes the exact crossing measures of a finished drawing.
// It uses no index: every pair of non-adjacent edges is tested.
package score

import (
	"errors"
	"fmt"

	"graphxings/internal/board"
	"graphxings/internal/geom"
)

// ErrIncompleteDrawing is returned when a vertex of the graph has no
// coordinate
var ErrIncompleteDrawing = errors.New("drawing is incomplete")

// Result holds both objectives for one drawing
type Result struct {
	Crossings int     `json:"crossings"`
	AngleSum  float64 `json:"angle_sum"`
}

// Evaluate scores a complete drawing of g
func Evaluate(g *board.Graph, placements map[board.VertexID]board.Coordinate) (Result, error) {
	segs, err := segments(g, placements)
	if err != nil {
		return Result{}, err
	}
	edges := g.Edges()
	var res Result
	for i := 0; i < len(edges); i++ {
		for j := i + 1; j < len(edges); j++ {
			if edges[i].Adjacent(edges[j]) {
				continue
			}
			if geom.ProperlyCross(segs[i], segs[j]) {
				res.Crossings++
				res.AngleSum += geom.SquaredCosine(segs[i], segs[j])
			}
		}
	}
	return res, nil
}

// VertexCrossings counts, for every vertex, the crossings of the edges
// incident to it. A crossing between edges e and f is counted once at each
// endpoint of e and once at each endpoint of f.
func VertexCrossings(g *board.Graph, placements map[board.VertexID]board.Coordinate) (map[board.VertexID]int, error) {
	segs, err := segments(g, placements)
	if err != nil {
		return nil, err
	}
	edges := g.Edges()
	out := make(map[board.VertexID]int, g.N())
	for _, v := range g.Vertices() {
		out[v] = 0
	}
	for i := 0; i < len(edges); i++ {
		for j := i + 1; j < len(edges); j++ {
			if edges[i].Adjacent(edges[j]) || !geom.ProperlyCross(segs[i], segs[j]) {
				continue
			}
			out[edges[i].S]++
			out[edges[i].T]++
			out[edges[j].S]++
			out[edges[j].T]++
		}
	}
	return out, nil
}

func segments(g *board.Graph, placements map[board.VertexID]board.Coordinate) ([]geom.Segment, error) {
	for _, v := range g.Vertices() {
		if _, ok := placements[v]; !ok {
			return nil, fmt.Errorf("vertex %s: %w", v, ErrIncompleteDrawing)
		}
	}
	edges := g.Edges()
	segs := make([]geom.Segment, len(edges))
	for i, e := range edges {
		segs[i] = geom.Segment{P1: placements[e.S], P2: placements[e.T]}
	}
	return segs, nil
}
