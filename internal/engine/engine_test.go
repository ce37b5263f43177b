package engine

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"graphxings/internal/board"
	"graphxings/internal/config"
	"graphxings/internal/geom"
	"graphxings/internal/score"
	"graphxings/internal/strategy"
)

type fixedStrategy struct {
	name    string
	move    board.Move
	quality float64
}

func (s fixedStrategy) Name() string { return s.name }

func (s fixedStrategy) TryFirstMove(ctx context.Context, v strategy.View) (strategy.Candidate, bool) {
	return strategy.Candidate{Move: s.move, Quality: s.quality, Strategy: s.name}, true
}

func (s fixedStrategy) TryMove(ctx context.Context, v strategy.View, last board.Move) (strategy.Candidate, bool) {
	return s.TryFirstMove(ctx, v)
}

type panicStrategy struct{}

func (panicStrategy) Name() string { return "panics" }

func (panicStrategy) TryFirstMove(ctx context.Context, v strategy.View) (strategy.Candidate, bool) {
	panic("boom")
}

func (panicStrategy) TryMove(ctx context.Context, v strategy.View, last board.Move) (strategy.Candidate, bool) {
	panic("boom")
}

// blockingStrategy ignores cancellation and only returns once release is
// closed
type blockingStrategy struct {
	release chan struct{}
	move    board.Move
}

func (blockingStrategy) Name() string { return "blocking" }

func (s blockingStrategy) TryFirstMove(ctx context.Context, v strategy.View) (strategy.Candidate, bool) {
	<-s.release
	return strategy.Candidate{Move: s.move, Quality: 1e9, Strategy: "blocking"}, true
}

func (s blockingStrategy) TryMove(ctx context.Context, v strategy.View, last board.Move) (strategy.Candidate, bool) {
	return s.TryFirstMove(ctx, v)
}

// scriptedStrategy proposes its moves in order with a quality no fallback
// can beat
type scriptedStrategy struct {
	moves []board.Move
	next  *int
}

func (scriptedStrategy) Name() string { return "scripted" }

func (s scriptedStrategy) TryFirstMove(ctx context.Context, v strategy.View) (strategy.Candidate, bool) {
	m := s.moves[*s.next]
	*s.next++
	return strategy.Candidate{Move: m, Quality: 1e9, Strategy: "scripted"}, true
}

func (s scriptedStrategy) TryMove(ctx context.Context, v strategy.View, last board.Move) (strategy.Candidate, bool) {
	return s.TryFirstMove(ctx, v)
}

// fillingStrategy places every remaining vertex behind the scheduler's
// back and abstains, so the fallback can no longer be applied
type fillingStrategy struct{}

func (fillingStrategy) Name() string { return "filling" }

func (fillingStrategy) TryFirstMove(ctx context.Context, v strategy.View) (strategy.Candidate, bool) {
	for _, vertex := range v.Board.Unplaced() {
		for y := 0; y < v.Board.Height(); y++ {
			c := board.Coordinate{X: 0, Y: y}
			if v.Board.IsFree(c) {
				_ = v.Board.Apply(board.Move{Vertex: vertex, Coordinate: c})
				break
			}
		}
	}
	return strategy.Candidate{}, false
}

func (s fillingStrategy) TryMove(ctx context.Context, v strategy.View, last board.Move) (strategy.Candidate, bool) {
	return s.TryFirstMove(ctx, v)
}

// stepClock returns a clock that advances by step on every reading
func stepClock(step time.Duration) func() time.Time {
	now := time.Unix(0, 0)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func cycle(t *testing.T) *board.Graph {
	t.Helper()
	g, err := board.NewGraph(
		[]board.VertexID{"a", "b", "c", "d"},
		[]board.Edge{board.NewEdge("a", "b"), board.NewEdge("b", "c"), board.NewEdge("c", "d"), board.NewEdge("d", "a")},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return g
}

func move(v board.VertexID, x, y int) board.Move {
	return board.Move{Vertex: v, Coordinate: board.Coordinate{X: x, Y: y}}
}

func newAgent(t *testing.T, cfg config.Config, opts ...Option) *Agent {
	t.Helper()
	a, err := NewAgent("test", cfg, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return a
}

func TestDecideMoveWithoutRound(t *testing.T) {
	a := newAgent(t, config.Default())
	if _, err := a.DecideMove(context.Background(), nil); !errors.Is(err, ErrNoRound) {
		t.Fatalf("expected ErrNoRound, got %v", err)
	}
}

func TestFallbackWithZeroStrategies(t *testing.T) {
	a := newAgent(t, config.Default(), WithStrategies())
	if err := a.InitializeRound(cycle(t), 4, 4, strategy.Maximizer, strategy.Crossings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, err := a.DecideMove(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c, ok := a.Round().Board().CoordinateOf(m.Vertex); !ok || c != m.Coordinate {
		t.Fatalf("expected fallback move %v to be applied", m)
	}
	if got := a.Round().Tracker().Wins()["fallback"]; got != 1 {
		t.Fatalf("expected the fallback to be selected, got wins %v", a.Round().Tracker().Wins())
	}
}

func TestSelectionIsExtremalAndOrderIndependent(t *testing.T) {
	strategies := []strategy.Strategy{
		fixedStrategy{"low", move("a", 0, 0), 3},
		fixedStrategy{"first-high", move("a", 1, 0), 7},
		fixedStrategy{"second-high", move("a", 2, 0), 7},
		fixedStrategy{"mid", move("a", 3, 0), 5},
	}
	for i := 0; i < 20; i++ {
		a := newAgent(t, config.Default(), WithStrategies(strategies...))
		if err := a.InitializeRound(cycle(t), 4, 4, strategy.Maximizer, strategy.Crossings); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		m, err := a.DecideMove(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m != move("a", 1, 0) {
			t.Fatalf("run %d: expected the first of the tied best candidates, got %v", i, m)
		}
	}
}

func TestMinimizerTieKeepsFallback(t *testing.T) {
	// nothing is placed, so every candidate scores 0 like the fallback
	a := newAgent(t, config.Default(), WithStrategies(fixedStrategy{"zero", move("a", 0, 0), 0}))
	if err := a.InitializeRound(cycle(t), 4, 4, strategy.Minimizer, strategy.Crossings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := a.DecideMove(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := a.Round().Tracker().Wins()["fallback"]; got != 1 {
		t.Fatalf("expected the fallback to win the tie, got wins %v", a.Round().Tracker().Wins())
	}
}

func TestPanickingStrategyAbstains(t *testing.T) {
	a := newAgent(t, config.Default(), WithStrategies(panicStrategy{}, fixedStrategy{"ok", move("b", 2, 2), 5}))
	if err := a.InitializeRound(cycle(t), 4, 4, strategy.Maximizer, strategy.Crossings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, err := a.DecideMove(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != move("b", 2, 2) {
		t.Fatalf("expected the surviving strategy's move, got %v", m)
	}
}

func TestIllegalCandidateIsIgnored(t *testing.T) {
	a := newAgent(t, config.Default(), WithStrategies(fixedStrategy{"outside", move("a", 9, 9), 100}))
	if err := a.InitializeRound(cycle(t), 4, 4, strategy.Maximizer, strategy.Crossings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, err := a.DecideMove(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.Round().Board().InBounds(m.Coordinate) {
		t.Fatalf("expected an in-bounds move, got %v", m)
	}
}

func TestSlowStrategyIsAbandoned(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	cfg := config.Default()
	cfg.TimeLimitMs = 400
	cfg.SafetyMarginMs = 200
	cfg.IncreaseHeadroomMs = 50
	cfg.DecreaseHeadroomMs = 10
	a := newAgent(t, cfg, WithStrategies(blockingStrategy{release: release, move: move("a", 0, 0)}))
	if err := a.InitializeRound(cycle(t), 4, 4, strategy.Maximizer, strategy.Crossings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := time.Now()
	if _, err := a.DecideMove(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if took := time.Since(start); took > 2*time.Second {
		t.Fatalf("expected the scheduler to stop waiting at its slice, took %s", took)
	}
	if got := a.Round().Tracker().Wins()["blocking"]; got != 0 {
		t.Fatalf("expected the abandoned strategy to be ignored")
	}
}

func TestOpponentIllegalMoveIsRejected(t *testing.T) {
	a := newAgent(t, config.Default())
	if err := a.InitializeRound(cycle(t), 4, 4, strategy.Minimizer, strategy.Crossings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := move("a", 4, 0)
	if _, err := a.DecideMove(context.Background(), &bad); !errors.Is(err, board.ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
}

func TestRejectedSelectionIsOurs(t *testing.T) {
	cfg := config.Default()
	cfg.Deterministic = true
	a := newAgent(t, cfg, WithStrategies(fillingStrategy{}))
	if err := a.InitializeRound(cycle(t), 4, 4, strategy.Maximizer, strategy.Crossings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := a.DecideMove(context.Background(), nil)
	if !errors.Is(err, ErrSelectedMove) {
		t.Fatalf("expected ErrSelectedMove, got %v", err)
	}
	if errors.Is(err, board.ErrIllegalMove) {
		t.Fatalf("expected our own rejection to be distinct from an illegal opponent move, got %v", err)
	}
}

func TestFourCycleScenario(t *testing.T) {
	next := 0
	script := scriptedStrategy{moves: []board.Move{move("a", 0, 0), move("c", 0, 3)}, next: &next}
	a := newAgent(t, config.Default(), WithStrategies(script))
	if err := a.InitializeRound(cycle(t), 4, 4, strategy.Maximizer, strategy.Crossings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if m, err := a.DecideMove(ctx, nil); err != nil || m != move("a", 0, 0) {
		t.Fatalf("expected a@(0,0), got %v (%v)", m, err)
	}
	b := move("b", 3, 3)
	if m, err := a.DecideMove(ctx, &b); err != nil || m != move("c", 0, 3) {
		t.Fatalf("expected c@(0,3), got %v (%v)", m, err)
	}

	idx := a.Round().Index()
	seg, _ := a.Round().Board().SegmentOf(board.NewEdge("a", "b"))
	if seg.P1 != (board.Coordinate{X: 0, Y: 0}) || seg.P2 != (board.Coordinate{X: 3, Y: 3}) {
		t.Fatalf("expected a-b drawn from (0,0) to (3,3), got %v", seg)
	}
	cd := board.NewEdge("c", "d")
	if got := idx.CountCrossings(geom.Segment{P1: geom.Point{X: 0, Y: 3}, P2: geom.Point{X: 3, Y: 0}}, cd); got != 1 {
		t.Fatalf("expected the prospective diagonal to cross once, got %d", got)
	}

	if err := a.Observe(move("d", 3, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := a.FinishRound()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Crossings != 1 {
		t.Fatalf("expected exactly 1 crossing, got %d", res.Crossings)
	}
}

// playRound alternates two agents until the graph is drawn and returns the
// final placements
func playRound(t *testing.T, first, second *Agent, g *board.Graph) map[board.VertexID]board.Coordinate {
	t.Helper()
	ctx := context.Background()
	var last *board.Move
	agents := []*Agent{first, second}
	for turn := 0; turn < g.N(); turn++ {
		m, err := agents[turn%2].DecideMove(ctx, last)
		if err != nil {
			t.Fatalf("turn %d: unexpected error: %v", turn, err)
		}
		last = &m
	}
	if err := agents[g.N()%2].Observe(*last); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return first.Round().Board().Placements()
}

func TestIndexAgreesWithAuthoritativeScorer(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, deterministic := range []bool{true, false} {
		g := board.RandomGraph(rng, 16, 30)
		cfg := config.Default()
		cfg.Deterministic = deterministic
		cfg.Seed = 42

		maxi, mini := newAgent(t, cfg), newAgent(t, cfg)
		if err := maxi.InitializeRound(g, 10, 10, strategy.Maximizer, strategy.Crossings); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := mini.InitializeRound(g, 10, 10, strategy.Minimizer, strategy.Crossings); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		placements := playRound(t, maxi, mini, g)

		want, err := score.VertexCrossings(g, placements)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, agent := range []*Agent{maxi, mini} {
			r := agent.Round()
			if r.Index().Len() != g.M() {
				t.Fatalf("expected all %d edges indexed, got %d", g.M(), r.Index().Len())
			}
			for _, v := range g.Vertices() {
				got := 0
				for _, e := range g.Incident(v) {
					got += r.Index().EdgeCrossings(e)
				}
				if got != want[v] {
					t.Fatalf("vertex %s: index counts %d crossings, scorer %d", v, got, want[v])
				}
			}
		}
		if _, err := maxi.FinishRound(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestDeterministicModeReplays(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	g := board.RandomGraph(rng, 12, 20)
	cfg := config.Default()
	cfg.Deterministic = true
	cfg.Seed = 7

	var runs [2]map[board.VertexID]board.Coordinate
	for i := range runs {
		maxi, mini := newAgent(t, cfg), newAgent(t, cfg)
		if err := maxi.InitializeRound(g, 8, 8, strategy.Maximizer, strategy.CrossingAngles); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := mini.InitializeRound(g, 8, 8, strategy.Minimizer, strategy.CrossingAngles); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		runs[i] = playRound(t, maxi, mini, g)
	}
	for v, c := range runs[0] {
		if runs[1][v] != c {
			t.Fatalf("vertex %s: expected %v on replay, got %v", v, c, runs[1][v])
		}
	}
}

func TestDeterministicModeIgnoresMoveDurations(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	g := board.RandomGraph(rng, 16, 30)
	cfg := config.Default()
	cfg.Deterministic = true
	cfg.Seed = 7

	steps := []time.Duration{time.Millisecond, 12 * time.Second}
	runs := make([]map[board.VertexID]board.Coordinate, len(steps))
	for i, step := range steps {
		maxi := newAgent(t, cfg, WithClock(stepClock(step)))
		mini := newAgent(t, cfg, WithClock(stepClock(step)))
		if err := maxi.InitializeRound(g, 10, 10, strategy.Maximizer, strategy.Crossings); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := mini.InitializeRound(g, 10, 10, strategy.Minimizer, strategy.Crossings); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// the slow clock runs out of allowance; moves are still returned
		agents := []*Agent{maxi, mini}
		var last *board.Move
		for turn := 0; turn < g.N(); turn++ {
			m, err := agents[turn%2].DecideMove(context.Background(), last)
			if err != nil && !errors.Is(err, ErrTimeoutExceeded) {
				t.Fatalf("step %s turn %d: unexpected error: %v", step, turn, err)
			}
			if p := agents[turn%2].Round().Tracker().Params(); p.Samples != cfg.InitialSamples {
				t.Fatalf("step %s turn %d: expected %d samples, got %d", step, turn, cfg.InitialSamples, p.Samples)
			}
			last = &m
		}
		runs[i] = mini.Round().Board().Placements()
	}
	if len(runs[0]) != g.N() {
		t.Fatalf("expected %d placements, got %d", g.N(), len(runs[0]))
	}
	for v, c := range runs[0] {
		if runs[1][v] != c {
			t.Fatalf("vertex %s: expected %v with either clock, got %v", v, c, runs[1][v])
		}
	}
}

func TestStrategyListFollowsRoleAndObjective(t *testing.T) {
	cfg := config.Default()
	cases := []struct {
		role      strategy.Role
		objective strategy.Objective
		want      []string
	}{
		{strategy.Maximizer, strategy.Crossings, cfg.MaximizerStrategies},
		{strategy.Minimizer, strategy.Crossings, cfg.MinimizerStrategies},
		{strategy.Maximizer, strategy.CrossingAngles, cfg.AngleMaximizerStrategies},
		{strategy.Minimizer, strategy.CrossingAngles, cfg.AngleMinimizerStrategies},
	}
	for _, tc := range cases {
		a := newAgent(t, cfg)
		if err := a.InitializeRound(cycle(t), 4, 4, tc.role, tc.objective); err != nil {
			t.Fatalf("%s/%s: unexpected error: %v", tc.role, tc.objective, err)
		}
		got := a.Round().Strategies()
		if len(got) != len(tc.want) {
			t.Fatalf("%s/%s: expected %v, got %d strategies", tc.role, tc.objective, tc.want, len(got))
		}
		for i, s := range got {
			if s.Name() != tc.want[i] {
				t.Fatalf("%s/%s: expected %v, got %s at %d", tc.role, tc.objective, tc.want, s.Name(), i)
			}
		}
	}
}

func TestRoundIndexesPlacedVertices(t *testing.T) {
	a := newAgent(t, config.Default())
	if err := a.InitializeRound(cycle(t), 4, 4, strategy.Minimizer, strategy.CrossingAngles); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opening := move("a", 0, 0)
	if _, err := a.DecideMove(context.Background(), &opening); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := a.Round().Vertices().Len(); got != 2 {
		t.Fatalf("expected 2 indexed vertices, got %d", got)
	}
}
