package budget

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Adjustment is the feedback signal for sampling effort
type Adjustment int

const (
	Keep Adjustment = iota
	Increase
	Decrease
)

func (a Adjustment) String() string {
	switch a {
	case Increase:
		return "increase"
	case Decrease:
		return "decrease"
	default:
		return "keep"
	}
}

// SampleParams controls how much work a strategy does in one move
type SampleParams struct {
	Adjustment Adjustment
	Samples    int
	Radius     int
}

// Settings are the fixed limits a Tracker works within
type Settings struct {
	TimeLimit        time.Duration
	SafetyMargin     time.Duration
	MinSlice         time.Duration
	IncreaseHeadroom time.Duration
	DecreaseHeadroom time.Duration
	InitialSamples   int
	MinSamples       int
	MaxSamples       int
	InitialRadius    int
	MaxRadius        int

	// FixedSampling holds the sampling parameters at their initial values
	// so that seeded rounds do not depend on the clock
	FixedSampling bool
}

// Tracker turns the round's global time allowance into per-move slices.
// StartTimer/StopTimer bracket exactly one move decision.
type Tracker struct {
	settings  Settings
	now       func() time.Time
	timing    bool
	started   time.Time
	elapsed   time.Duration
	last      time.Duration
	remaining int
	params    SampleParams
	history   []float64 // seconds per move

	mu         sync.Mutex
	strategies map[string]time.Duration
	wins       map[string]int
}

// New creates a tracker for one round. now may be nil to use the wall clock.
func New(settings Settings, movesRemaining int, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		settings:   settings,
		now:        now,
		remaining:  movesRemaining,
		params:     SampleParams{Samples: settings.InitialSamples, Radius: settings.InitialRadius},
		strategies: make(map[string]time.Duration),
		wins:       make(map[string]int),
	}
}

// StartTimer moves the tracker from Idle to Timing. It reports false when a
// move is already being timed.
func (t *Tracker) StartTimer() bool {
	if t.timing {
		return false
	}
	t.timing = true
	t.started = t.now()
	return true
}

// StopTimer closes the current move and adds its duration to the round
// total. It reports false when no move is being timed.
func (t *Tracker) StopTimer() (time.Duration, bool) {
	if !t.timing {
		return 0, false
	}
	d := t.now().Sub(t.started)
	if d < 0 {
		d = 0
	}
	t.timing = false
	t.last = d
	t.elapsed += d
	t.history = append(t.history, d.Seconds())
	return d, true
}

// Since returns how long the current move has been timed
func (t *Tracker) Since() time.Duration {
	if !t.timing {
		return 0
	}
	return t.now().Sub(t.started)
}

// SetMovesRemaining records how many own moves are left, this one included
func (t *Tracker) SetMovesRemaining(n int) {
	t.remaining = n
}

func (t *Tracker) MovesRemaining() int { return t.remaining }

// Elapsed returns the accumulated decision time of the round
func (t *Tracker) Elapsed() time.Duration { return t.elapsed }

// Last returns the duration of the previous move
func (t *Tracker) Last() time.Duration { return t.last }

// Exceeded reports whether the round's allowance has been used up
func (t *Tracker) Exceeded() bool {
	return t.elapsed > t.settings.TimeLimit
}

// RecommendedSlice divides the time left (minus the safety margin) evenly
// over the remaining moves, never going below the minimum slice
func (t *Tracker) RecommendedSlice() time.Duration {
	moves := t.remaining
	if moves < 1 {
		moves = 1
	}
	slice := (t.settings.TimeLimit - t.settings.SafetyMargin - t.elapsed) / time.Duration(moves)
	if slice < t.settings.MinSlice {
		return t.settings.MinSlice
	}
	return slice
}

// SampleAdjustment compares the available slice with the last move's
// duration
func (t *Tracker) SampleAdjustment() Adjustment {
	headroom := t.RecommendedSlice() - t.last
	switch {
	case headroom > t.settings.IncreaseHeadroom:
		return Increase
	case headroom < t.settings.DecreaseHeadroom:
		return Decrease
	default:
		return Keep
	}
}

// NextParams applies the current adjustment to the sampling parameters.
// Call once per move, after StartTimer.
func (t *Tracker) NextParams() SampleParams {
	adj := t.SampleAdjustment()
	if t.settings.FixedSampling {
		adj = Keep
	}
	p := t.params
	p.Adjustment = adj
	switch adj {
	case Increase:
		p.Samples++
		p.Radius++
	case Decrease:
		p.Samples--
		p.Radius--
	}
	p.Samples = clamp(p.Samples, t.settings.MinSamples, t.settings.MaxSamples)
	p.Radius = clamp(p.Radius, 1, t.settings.MaxRadius)
	t.params = p
	return p
}

// Params returns the most recent sampling parameters
func (t *Tracker) Params() SampleParams { return t.params }

// RecordStrategy adds one strategy run to its stopwatch. Safe for
// concurrent use.
func (t *Tracker) RecordStrategy(name string, d time.Duration) {
	t.mu.Lock()
	t.strategies[name] += d
	t.mu.Unlock()
}

// RecordWin counts a strategy whose candidate was selected
func (t *Tracker) RecordWin(name string) {
	t.mu.Lock()
	t.wins[name]++
	t.mu.Unlock()
}

// Wins returns a copy of the selection counters
func (t *Tracker) Wins() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(t.wins))
	for k, v := range t.wins {
		out[k] = v
	}
	return out
}

// Report logs the round's timing summary
func (t *Tracker) Report(logger zerolog.Logger) {
	ev := logger.Info().
		Dur("elapsed", t.elapsed).
		Dur("last", t.last).
		Int("moves", len(t.history))
	if len(t.history) > 0 {
		ev = ev.Float64("mean_s", stat.Mean(t.history, nil)).
			Float64("max_s", floats.Max(t.history))
	}
	if len(t.history) > 1 {
		ev = ev.Float64("stddev_s", stat.StdDev(t.history, nil))
	}
	ev.Msg("round timing")

	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.strategies))
	for name := range t.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		logger.Info().
			Str("strategy", name).
			Dur("time", t.strategies[name]).
			Int("selected", t.wins[name]).
			Msg("strategy usage")
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
