package strategy

import (
	"context"
	"fmt"

	"graphxings/internal/board"
	"graphxings/internal/budget"
	"graphxings/internal/geom"
	"graphxings/internal/index"
)

// Role is the objective direction a side holds in a round
type Role int

const (
	Maximizer Role = iota
	Minimizer
)

func (r Role) String() string {
	if r == Minimizer {
		return "minimizer"
	}
	return "maximizer"
}

// ParseRole accepts "max"/"maximizer" and "min"/"minimizer"
func ParseRole(s string) (Role, error) {
	switch s {
	case "max", "maximizer", "MAX":
		return Maximizer, nil
	case "min", "minimizer", "MIN":
		return Minimizer, nil
	}
	return Maximizer, fmt.Errorf("unknown role %q", s)
}

// Objective is the geometric score of a round
type Objective int

const (
	Crossings Objective = iota
	CrossingAngles
)

func (o Objective) String() string {
	if o == CrossingAngles {
		return "crossing-angles"
	}
	return "crossings"
}

// ParseObjective accepts "crossings" and "crossing-angles"
func ParseObjective(s string) (Objective, error) {
	switch s {
	case "", "crossings":
		return Crossings, nil
	case "crossing-angles", "angles":
		return CrossingAngles, nil
	}
	return Crossings, fmt.Errorf("unknown objective %q", s)
}

// Better reports whether quality a beats b for the role. Equal qualities
// never win, so earlier candidates keep ties.
func Better(role Role, a, b float64) bool {
	if role == Minimizer {
		return a < b
	}
	return a > b
}

// Candidate is a scored move that has not been applied
type Candidate struct {
	Move     board.Move `json:"move"`
	Quality  float64    `json:"quality"`
	Strategy string     `json:"strategy"`
}

// View is what a strategy task may read. Board and Index are shared and
// must only be queried; Rand belongs to the task.
type View struct {
	Board     *board.Board
	Index     *index.SpatialIndex
	Vertices  *index.VertexIndex // may be nil
	Role      Role
	Objective Objective
	Params    budget.SampleParams
	Rand      board.Rand
}

// Evaluator returns the scorer for this view
func (v View) Evaluator() Evaluator {
	return Evaluator{Board: v.Board, Index: v.Index, Objective: v.Objective}
}

// Strategy produces at most one candidate per move. Implementations must
// not mutate the board or the index. ctx is cancelled when the scheduler
// stops waiting; checking it is cooperative.
type Strategy interface {
	Name() string
	TryFirstMove(ctx context.Context, v View) (Candidate, bool)
	TryMove(ctx context.Context, v View, last board.Move) (Candidate, bool)
}

// Evaluator scores a prospective placement against the index
type Evaluator struct {
	Board     *board.Board
	Index     *index.SpatialIndex
	Objective Objective
}

// Score sums, over every edge of v whose other endpoint is placed, the
// crossings (or crossing angles) the new segment would create
func (e Evaluator) Score(v board.VertexID, c board.Coordinate) float64 {
	total := 0.0
	for _, edge := range e.Board.Graph().Incident(v) {
		other, ok := e.Board.CoordinateOf(edge.Other(v))
		if !ok {
			continue
		}
		seg := geom.Segment{P1: c, P2: other}
		if e.Objective == CrossingAngles {
			total += e.Index.SumCrossingAngles(seg, edge)
		} else {
			total += float64(e.Index.CountCrossings(seg, edge))
		}
	}
	return total
}

// Fallback picks a uniformly random unplaced vertex at a uniformly random
// free coordinate and scores it. It fails only when no move exists.
func Fallback(v View) (Candidate, bool) {
	vertex, ok := v.Board.RandomUnplaced(v.Rand)
	if !ok {
		return Candidate{}, false
	}
	c, ok := v.Board.RandomFree(v.Rand)
	if !ok {
		return Candidate{}, false
	}
	return Candidate{
		Move:     board.Move{Vertex: vertex, Coordinate: c},
		Quality:  v.Evaluator().Score(vertex, c),
		Strategy: "fallback",
	}, true
}

// chooseExtremal evaluates every vertex/coordinate pair and keeps the best
// one for the role. It stops early on cancellation and, for minimizers, on
// a zero score.
func chooseExtremal(ctx context.Context, v View, name string, vertices []board.VertexID, coords []board.Coordinate) (Candidate, bool) {
	sel := newSelector(v, name)
	for _, vertex := range vertices {
		for _, c := range coords {
			if ctx.Err() != nil || sel.consider(vertex, c) {
				return sel.best, sel.found
			}
		}
	}
	return sel.best, sel.found
}

// chooseAmong is chooseExtremal over explicit moves
func chooseAmong(ctx context.Context, v View, name string, moves []board.Move) (Candidate, bool) {
	sel := newSelector(v, name)
	for _, m := range moves {
		if ctx.Err() != nil || sel.consider(m.Vertex, m.Coordinate) {
			break
		}
	}
	return sel.best, sel.found
}

type selector struct {
	view  View
	eval  Evaluator
	name  string
	best  Candidate
	found bool
}

func newSelector(v View, name string) *selector {
	return &selector{view: v, eval: v.Evaluator(), name: name}
}

// consider scores one legal placement and reports whether the search can
// stop: a minimizer cannot beat zero
func (s *selector) consider(vertex board.VertexID, c board.Coordinate) bool {
	if !s.view.Board.Placeable(vertex, c) {
		return false
	}
	q := s.eval.Score(vertex, c)
	if !s.found || Better(s.view.Role, q, s.best.Quality) {
		s.best = Candidate{Move: board.Move{Vertex: vertex, Coordinate: c}, Quality: q, Strategy: s.name}
		s.found = true
	}
	return s.view.Role == Minimizer && q == 0
}

// unplacedNeighbours lists the unplaced vertices adjacent to v
func unplacedNeighbours(b *board.Board, v board.VertexID) []board.VertexID {
	var out []board.VertexID
	for _, e := range b.Graph().Incident(v) {
		u := e.Other(v)
		if !b.IsPlaced(u) {
			out = append(out, u)
		}
	}
	return out
}

// anchorWithFreeNeighbours returns a placed vertex that still has unplaced
// neighbours, preferring from. ok is false when no such vertex exists.
func anchorWithFreeNeighbours(b *board.Board, from board.VertexID) (board.VertexID, []board.VertexID, bool) {
	if ns := unplacedNeighbours(b, from); len(ns) > 0 {
		return from, ns, true
	}
	for _, v := range b.Graph().Vertices() {
		if !b.IsPlaced(v) {
			continue
		}
		if ns := unplacedNeighbours(b, v); len(ns) > 0 {
			return v, ns, true
		}
	}
	return "", nil, false
}

// mostConnectedUnplaced returns the unplaced vertex with the most placed
// neighbours, ties going to graph order
func mostConnectedUnplaced(b *board.Board) (board.VertexID, bool) {
	var best board.VertexID
	bestCount := -1
	for _, v := range b.Unplaced() {
		count := 0
		for _, e := range b.Graph().Incident(v) {
			if b.IsPlaced(e.Other(v)) {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = v, count
		}
	}
	return best, bestCount >= 0
}

// leastConnectedUnplaced returns the unplaced vertex with the fewest placed
// neighbours
func leastConnectedUnplaced(b *board.Board) (board.VertexID, bool) {
	var best board.VertexID
	bestCount := -1
	for _, v := range b.Unplaced() {
		count := 0
		for _, e := range b.Graph().Incident(v) {
			if b.IsPlaced(e.Other(v)) {
				count++
			}
		}
		if bestCount < 0 || count < bestCount {
			best, bestCount = v, count
		}
	}
	return best, bestCount >= 0
}

func limit[T any](xs []T, n int) []T {
	if n > 0 && len(xs) > n {
		return xs[:n]
	}
	return xs
}
