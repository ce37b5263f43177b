package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"graphxings/internal/board"
	"graphxings/internal/strategy"
)

type result struct {
	order     int
	candidate strategy.Candidate
}

// DecideMove applies the opponent's last move (nil when this agent opens
// the round) and returns this agent's move. The returned move has already
// been applied to the round. When the round allowance is used up the move
// is returned together with ErrTimeoutExceeded.
func (a *Agent) DecideMove(ctx context.Context, last *board.Move) (board.Move, error) {
	r := a.round
	if r == nil {
		return board.Move{}, ErrNoRound
	}
	r.tracker.StartTimer()

	if last != nil {
		if err := r.apply(*last); err != nil {
			r.tracker.StopTimer()
			r.logger.Error().Err(err).Str("vertex", string(last.Vertex)).Msg("opponent move rejected")
			return board.Move{}, fmt.Errorf("opponent move: %w", err)
		}
	}

	unplaced := r.board.Graph().N() - r.board.PlacedCount()
	r.tracker.SetMovesRemaining((unplaced + 1) / 2)
	params := r.tracker.NextParams()
	slice := r.tracker.RecommendedSlice()

	view := strategy.View{
		Board:     r.board,
		Index:     r.index,
		Vertices:  r.vertices,
		Role:      r.role,
		Objective: r.objective,
		Params:    params,
		Rand:      r.rng,
	}
	fallback, ok := strategy.Fallback(view)
	if !ok {
		r.tracker.StopTimer()
		return board.Move{}, ErrNoMove
	}

	var results []result
	if r.concurrent {
		results = r.runConcurrent(ctx, view, last, slice-r.tracker.Since())
	} else {
		results = r.runSequential(ctx, view, last)
	}
	best := r.selectBest(fallback, results)

	if err := r.apply(best.Move); err != nil {
		// only reachable if the board changed under the scheduler
		r.tracker.StopTimer()
		r.logger.Error().Err(err).Str("vertex", string(best.Move.Vertex)).Msg("selected move rejected")
		return board.Move{}, fmt.Errorf("%w: %v", ErrSelectedMove, err)
	}
	r.tracker.RecordWin(best.Strategy)
	d, _ := r.tracker.StopTimer()

	r.logger.Debug().
		Str("vertex", string(best.Move.Vertex)).
		Int("x", best.Move.X).
		Int("y", best.Move.Y).
		Float64("quality", best.Quality).
		Str("strategy", best.Strategy).
		Int("completed", len(results)).
		Dur("slice", slice).
		Dur("took", d).
		Str("sampling", params.Adjustment.String()).
		Msg("move decided")

	if r.tracker.Exceeded() {
		r.logger.Error().Dur("elapsed", r.tracker.Elapsed()).Msg("time allowance exceeded")
		return best.Move, ErrTimeoutExceeded
	}
	return best.Move, nil
}

// selectBest keeps the fallback unless a completed candidate is strictly
// better. Candidates are visited in strategy order, so ties go to the
// fallback and then to the earliest configured strategy.
func (r *Round) selectBest(fallback strategy.Candidate, results []result) strategy.Candidate {
	sort.Slice(results, func(i, j int) bool { return results[i].order < results[j].order })
	best := fallback
	for _, res := range results {
		c := res.candidate
		if !r.board.Placeable(c.Move.Vertex, c.Move.Coordinate) {
			r.logger.Warn().Str("strategy", c.Strategy).Msg("strategy proposed an illegal move, ignored")
			continue
		}
		if strategy.Better(r.role, c.Quality, best.Quality) {
			best = c
		}
	}
	return best
}

// runConcurrent starts one goroutine per strategy and waits for all of them
// or for the deadline, whichever comes first. Tasks still running at the
// deadline are abandoned: their context is cancelled but nothing waits for
// them, and a result they send later lands in the buffered channel unread.
func (r *Round) runConcurrent(ctx context.Context, view strategy.View, last *board.Move, timeout time.Duration) []result {
	if timeout < 0 {
		timeout = 0
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out := make(chan result, len(r.strategies))
	var g errgroup.Group
	for i, s := range r.strategies {
		taskView := view
		taskView.Rand = frand.NewCustom(r.rng.Bytes(32), 1024, 12)
		g.Go(func() error {
			if c, ok := r.runTask(ctx, s, taskView, last); ok {
				out <- result{order: i, candidate: c}
			}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		r.logger.Debug().Dur("timeout", timeout).Msg("deadline reached, abandoning unfinished strategies")
	}

	results := make([]result, 0, len(r.strategies))
	for {
		select {
		case res := <-out:
			results = append(results, res)
		default:
			return results
		}
	}
}

// runSequential runs every strategy to completion on the calling goroutine
// with RNGs drawn from the round seed, so a seeded round replays exactly
func (r *Round) runSequential(ctx context.Context, view strategy.View, last *board.Move) []result {
	results := make([]result, 0, len(r.strategies))
	for i, s := range r.strategies {
		taskView := view
		taskView.Rand = frand.NewCustom(r.rng.Bytes(32), 1024, 12)
		if c, ok := r.runTask(ctx, s, taskView, last); ok {
			results = append(results, result{order: i, candidate: c})
		}
	}
	return results
}

// runTask runs one strategy and converts a panic into an abstention
func (r *Round) runTask(ctx context.Context, s strategy.Strategy, view strategy.View, last *board.Move) (c strategy.Candidate, ok bool) {
	start := time.Now()
	defer func() {
		r.tracker.RecordStrategy(s.Name(), time.Since(start))
		if rec := recover(); rec != nil {
			r.logger.Warn().Str("strategy", s.Name()).Interface("panic", rec).Msg("strategy panicked, abstaining")
			c, ok = strategy.Candidate{}, false
		}
	}()
	if last == nil {
		c, ok = s.TryFirstMove(ctx, view)
	} else {
		c, ok = s.TryMove(ctx, view, *last)
	}
	if ok && c.Strategy == "" {
		c.Strategy = s.Name()
	}
	if ctx.Err() != nil {
		r.logger.Debug().Str("strategy", s.Name()).Msg("strategy finished after deadline")
	}
	return c, ok
}
