package strategy

import (
	"context"
	"math/rand"
	"testing"

	"graphxings/internal/board"
	"graphxings/internal/budget"
	"graphxings/internal/geom"
	"graphxings/internal/index"
)

func cycleBoard(t *testing.T, w, h int) *board.Board {
	t.Helper()
	g, err := board.NewGraph(
		[]board.VertexID{"a", "b", "c", "d"},
		[]board.Edge{board.NewEdge("a", "b"), board.NewEdge("b", "c"), board.NewEdge("c", "d"), board.NewEdge("d", "a")},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := board.New(g, w, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return b
}

// place applies moves and indexes the completed edges
func place(t *testing.T, b *board.Board, idx *index.SpatialIndex, moves ...board.Move) {
	t.Helper()
	for _, m := range moves {
		if err := b.Apply(m); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, e := range b.Graph().Incident(m.Vertex) {
			if seg, ok := b.SegmentOf(e); ok {
				idx.Insert(e, seg)
			}
		}
	}
}

// track places moves on the view's board and feeds both indexes
func track(t *testing.T, v View, moves ...board.Move) {
	t.Helper()
	place(t, v.Board, v.Index, moves...)
	for _, m := range moves {
		v.Vertices.Insert(m.Vertex, m.Coordinate)
	}
}

func move(v board.VertexID, x, y int) board.Move {
	return board.Move{Vertex: v, Coordinate: geom.Point{X: x, Y: y}}
}

func view(b *board.Board, idx *index.SpatialIndex, role Role, seed int64) View {
	return View{
		Board:     b,
		Index:     idx,
		Vertices:  index.NewVertexIndex(b.Width(), b.Height()),
		Role:      role,
		Objective: Crossings,
		Params:    budget.SampleParams{Samples: 10, Radius: 2},
		Rand:      rand.New(rand.NewSource(seed)),
	}
}

func TestBetterIsStrict(t *testing.T) {
	if Better(Maximizer, 1, 1) || Better(Minimizer, 1, 1) {
		t.Fatalf("expected equal qualities never to win")
	}
	if !Better(Maximizer, 2, 1) || !Better(Minimizer, 1, 2) {
		t.Fatalf("expected role direction to be respected")
	}
}

func TestParseRoleAndObjective(t *testing.T) {
	if r, err := ParseRole("min"); err != nil || r != Minimizer {
		t.Fatalf("expected minimizer, got %v (%v)", r, err)
	}
	if _, err := ParseRole("sideways"); err == nil {
		t.Fatalf("expected an error for an unknown role")
	}
	if o, err := ParseObjective("crossing-angles"); err != nil || o != CrossingAngles {
		t.Fatalf("expected crossing-angles, got %v (%v)", o, err)
	}
}

func TestEvaluatorCountsOnlyPlacedNeighbours(t *testing.T) {
	b := cycleBoard(t, 4, 4)
	idx := index.NewSpatialIndex(4, 4)
	place(t, b, idx, move("a", 0, 0), move("b", 3, 3), move("c", 0, 3))

	eval := Evaluator{Board: b, Index: idx, Objective: Crossings}
	// d-c crosses a-b; d-a touches nothing
	if got := eval.Score("d", geom.Point{X: 3, Y: 0}); got != 1 {
		t.Fatalf("expected 1 crossing for d@(3,0), got %v", got)
	}
	if got := eval.Score("d", geom.Point{X: 1, Y: 3}); got != 0 {
		t.Fatalf("expected 0 crossings for d@(1,3), got %v", got)
	}
}

func TestFallbackIsLegalOnCrowdedBoard(t *testing.T) {
	b := cycleBoard(t, 2, 2)
	idx := index.NewSpatialIndex(2, 2)
	place(t, b, idx, move("a", 0, 0), move("b", 1, 1), move("c", 0, 1))

	for seed := int64(0); seed < 10; seed++ {
		c, ok := Fallback(view(b, idx, Maximizer, seed))
		if !ok {
			t.Fatalf("expected a fallback move")
		}
		if c.Move != move("d", 1, 0) {
			t.Fatalf("expected the only legal move d@(1,0), got %v", c.Move)
		}
	}

	place(t, b, idx, move("d", 1, 0))
	if _, ok := Fallback(view(b, idx, Maximizer, 1)); ok {
		t.Fatalf("expected no fallback on a complete board")
	}
}

func TestMinimizerStopsAtZero(t *testing.T) {
	b := cycleBoard(t, 4, 4)
	idx := index.NewSpatialIndex(4, 4)
	place(t, b, idx, move("a", 0, 0), move("b", 3, 3), move("c", 0, 3))

	coords := []geom.Point{{X: 2, Y: 3}, {X: 3, Y: 0}, {X: 1, Y: 3}}
	c, ok := chooseExtremal(context.Background(), view(b, idx, Minimizer, 1), "test", []board.VertexID{"d"}, coords)
	if !ok || c.Move.Coordinate != (geom.Point{X: 2, Y: 3}) || c.Quality != 0 {
		t.Fatalf("expected the first zero-crossing coordinate, got %+v", c)
	}

	c, ok = chooseExtremal(context.Background(), view(b, idx, Maximizer, 1), "test", []board.VertexID{"d"}, coords)
	if !ok || c.Move.Coordinate != (geom.Point{X: 3, Y: 0}) || c.Quality != 1 {
		t.Fatalf("expected the crossing coordinate for the maximizer, got %+v", c)
	}
}

func TestChooseExtremalHonoursCancellation(t *testing.T) {
	b := cycleBoard(t, 4, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := chooseExtremal(ctx, view(b, index.NewSpatialIndex(4, 4), Maximizer, 1), "test", []board.VertexID{"a"}, []geom.Point{{X: 1, Y: 1}}); ok {
		t.Fatalf("expected no candidate after cancellation")
	}
}

func TestRegisteredStrategiesProposeLegalMoves(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	g := board.RandomGraph(rng, 30, 60)

	for name := range registry {
		s, err := Lookup(name)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Name() != name {
			t.Fatalf("expected strategy %q to report its registered name, got %q", name, s.Name())
		}
		for _, role := range []Role{Maximizer, Minimizer} {
			for _, objective := range []Objective{Crossings, CrossingAngles} {
				b, err := board.New(g, 12, 12)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				v := view(b, index.NewSpatialIndex(12, 12), role, 4)
				v.Objective = objective

				c, ok := s.TryFirstMove(context.Background(), v)
				if !ok || !b.Placeable(c.Move.Vertex, c.Move.Coordinate) {
					t.Fatalf("%s/%s/%s: expected a legal first move, got %+v (%v)", name, role, objective, c, ok)
				}
				if c.Strategy != name {
					t.Fatalf("%s: expected the candidate to carry its strategy name, got %q", name, c.Strategy)
				}
				last := c.Move
				track(t, v, last)

				for i := 0; i < 20; i++ {
					c, ok := s.TryMove(context.Background(), v, last)
					if !ok {
						fb, _ := Fallback(v)
						c = fb
					} else if c.Strategy != name {
						t.Fatalf("%s: expected the candidate to carry its strategy name, got %q", name, c.Strategy)
					}
					if !b.Placeable(c.Move.Vertex, c.Move.Coordinate) {
						t.Fatalf("%s/%s/%s: expected a legal move, got %+v", name, role, objective, c)
					}
					track(t, v, c.Move)
					last = c.Move
				}
			}
		}
	}
}

func TestLongestEdgeEnd(t *testing.T) {
	cases := []struct {
		w, h int
		want board.Coordinate
	}{
		{10, 10, board.Coordinate{X: 9, Y: 9}},
		{14, 10, board.Coordinate{X: 13, Y: 9}},
		{30, 10, board.Coordinate{X: 29, Y: 0}},
		{10, 30, board.Coordinate{X: 0, Y: 29}},
	}
	for _, tc := range cases {
		if got := longestEdgeEnd(tc.w, tc.h); got != tc.want {
			t.Fatalf("%dx%d: expected %v, got %v", tc.w, tc.h, tc.want, got)
		}
	}
}

func TestVertexOnEdgeDrawsTheLongEdgeFirst(t *testing.T) {
	b := cycleBoard(t, 10, 10)
	v := view(b, index.NewSpatialIndex(10, 10), Maximizer, 1)
	track(t, v, move("a", 0, 0))

	c, ok := VertexOnEdge{}.TryMove(context.Background(), v, move("a", 0, 0))
	if !ok || c.Move.Coordinate != (board.Coordinate{X: 9, Y: 9}) {
		t.Fatalf("expected a neighbour of a at the far corner, got %+v (%v)", c, ok)
	}
	if c.Move.Vertex != "b" && c.Move.Vertex != "d" {
		t.Fatalf("expected a neighbour of a, got %s", c.Move.Vertex)
	}
	track(t, v, c.Move)

	// the third vertex lands on the diagonal
	c, ok = VertexOnEdge{}.TryMove(context.Background(), v, c.Move)
	if !ok || c.Move.X != c.Move.Y && c.Move.X+c.Move.Y != 18 {
		t.Fatalf("expected a coordinate on the long edge, got %+v (%v)", c, ok)
	}
}

func TestGridAnglePlacesAxisParallel(t *testing.T) {
	b := cycleBoard(t, 10, 10)
	v := view(b, index.NewSpatialIndex(10, 10), Minimizer, 1)
	v.Objective = CrossingAngles
	track(t, v, move("a", 5, 5))

	c, ok := GridAngle{}.TryMove(context.Background(), v, move("a", 5, 5))
	if !ok {
		t.Fatalf("expected a candidate")
	}
	if c.Move.Vertex != "b" && c.Move.Vertex != "d" {
		t.Fatalf("expected a neighbour of a, got %s", c.Move.Vertex)
	}
	if c.Move.Coordinate != (board.Coordinate{X: 5, Y: 4}) {
		t.Fatalf("expected the free cell north of a, got %v", c.Move.Coordinate)
	}
}

func TestDiagonalCrossingAngleAimsAtTheFarCorner(t *testing.T) {
	b := cycleBoard(t, 12, 12)
	v := view(b, index.NewSpatialIndex(12, 12), Maximizer, 1)
	v.Objective = CrossingAngles
	track(t, v, move("a", 1, 1))

	c, ok := DiagonalCrossingAngle{}.TryMove(context.Background(), v, move("a", 1, 1))
	if !ok {
		t.Fatalf("expected a candidate")
	}
	if c.Move.Vertex != "b" && c.Move.Vertex != "d" {
		t.Fatalf("expected a neighbour of a, got %s", c.Move.Vertex)
	}
	if c.Move.X < 8 || c.Move.Y < 8 {
		t.Fatalf("expected a coordinate near (11,11), got %v", c.Move.Coordinate)
	}
}

func TestBorderReflectionMirrorsBorderVertices(t *testing.T) {
	b := cycleBoard(t, 10, 10)
	v := view(b, index.NewSpatialIndex(10, 10), Maximizer, 1)
	track(t, v, move("a", 0, 3))

	c, ok := BorderReflection{}.TryMove(context.Background(), v, move("a", 0, 3))
	if !ok || c.Move.Coordinate != (board.Coordinate{X: 9, Y: 6}) {
		t.Fatalf("expected a neighbour of a at (9,6), got %+v (%v)", c, ok)
	}
}

func TestBuildRejectsUnknownNames(t *testing.T) {
	if _, err := Build([]string{"border", "teleport"}); err == nil {
		t.Fatalf("expected an error for an unknown strategy")
	}
	ss, err := Build([]string{"border", "random-sample"})
	if err != nil || len(ss) != 2 || ss[0].Name() != "border" {
		t.Fatalf("expected strategies in configured order, got %v (%v)", ss, err)
	}
}
