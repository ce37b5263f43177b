package engine

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"graphxings/internal/board"
	"graphxings/internal/budget"
	"graphxings/internal/config"
	"graphxings/internal/index"
	"graphxings/internal/score"
	"graphxings/internal/strategy"
)

var (
	// ErrTimeoutExceeded is returned alongside a move once the round's
	// accumulated decision time is above the allowance
	ErrTimeoutExceeded = errors.New("time allowance exceeded")
	// ErrNoRound is returned when no round has been initialized
	ErrNoRound = errors.New("no round in progress")
	// ErrNoMove is returned when the board has no unplaced vertex or no
	// free coordinate left
	ErrNoMove = errors.New("no legal move left")
	// ErrSelectedMove is returned when this agent's own chosen move could
	// not be applied to its board
	ErrSelectedMove = errors.New("selected move rejected")
)

// Option customizes an Agent
type Option func(*Agent)

// WithStrategies replaces the configured strategy lists for both roles
func WithStrategies(ss ...strategy.Strategy) Option {
	return func(a *Agent) {
		a.override = ss
		a.overridden = true
	}
}

// WithClock sets the clock used for move timing
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

// Agent plays rounds with one configuration. It drives at most one Round
// at a time and is not safe for concurrent use.
type Agent struct {
	name       string
	cfg        config.Config
	now        func() time.Time
	override   []strategy.Strategy
	overridden bool
	round      *Round
}

// NewAgent validates cfg and builds an agent
func NewAgent(name string, cfg config.Config, opts ...Option) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("agent %s: %w", name, err)
	}
	a := &Agent{name: name, cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Agent) Name() string { return a.name }

// Round returns the round in progress, or nil
func (a *Agent) Round() *Round { return a.round }

// InitializeRound discards any previous round state and starts a fresh
// round on an empty width x height board
func (a *Agent) InitializeRound(g *board.Graph, width, height int, role strategy.Role, objective strategy.Objective) error {
	a.round = nil

	b, err := board.New(g, width, height)
	if err != nil {
		return fmt.Errorf("initialize round: %w", err)
	}
	strategies := a.override
	if !a.overridden {
		names := a.cfg.StrategyNames(role == strategy.Maximizer, objective == strategy.CrossingAngles)
		if strategies, err = strategy.Build(names); err != nil {
			return fmt.Errorf("initialize round: %w", err)
		}
	}

	id := uuid.New()
	logger := log.With().
		Str("agent", a.name).
		Str("round", id.String()).
		Str("role", role.String()).
		Logger()
	r := &Round{
		id:         id,
		role:       role,
		objective:  objective,
		board:      b,
		index:      index.NewSpatialIndex(width, height),
		vertices:   index.NewVertexIndex(width, height),
		tracker:    budget.New(trackerSettings(a.cfg), (g.N()+1)/2, a.now),
		strategies: strategies,
		rng:        roundRNG(a.cfg),
		concurrent: !a.cfg.Deterministic,
		logger:     logger,
	}
	r.logger.Info().
		Int("vertices", g.N()).
		Int("edges", g.M()).
		Int("width", width).
		Int("height", height).
		Str("objective", objective.String()).
		Int("strategies", len(strategies)).
		Msg("round initialized")
	a.round = r
	return nil
}

// Observe applies an opponent move without deciding a reply, typically the
// last move of a round
func (a *Agent) Observe(m board.Move) error {
	r := a.round
	if r == nil {
		return ErrNoRound
	}
	if err := r.apply(m); err != nil {
		return fmt.Errorf("opponent move: %w", err)
	}
	return nil
}

// FinishRound logs the round's timing report, scores the final drawing and
// releases the round
func (a *Agent) FinishRound() (score.Result, error) {
	r := a.round
	if r == nil {
		return score.Result{}, ErrNoRound
	}
	a.round = nil
	r.tracker.Report(r.logger)
	res, err := score.Evaluate(r.board.Graph(), r.board.Placements())
	if err != nil {
		return score.Result{}, err
	}
	r.logger.Info().
		Int("crossings", res.Crossings).
		Float64("angle_sum", res.AngleSum).
		Msg("round finished")
	return res, nil
}

// Round is the state of one agent in one round. It is owned by the agent
// that created it.
type Round struct {
	id         uuid.UUID
	role       strategy.Role
	objective  strategy.Objective
	board      *board.Board
	index      *index.SpatialIndex
	vertices   *index.VertexIndex
	tracker    *budget.Tracker
	strategies []strategy.Strategy
	rng        *frand.RNG
	concurrent bool
	logger     zerolog.Logger
}

func (r *Round) ID() uuid.UUID                   { return r.id }
func (r *Round) Role() strategy.Role             { return r.role }
func (r *Round) Objective() strategy.Objective   { return r.objective }
func (r *Round) Board() *board.Board             { return r.board }
func (r *Round) Index() *index.SpatialIndex      { return r.index }
func (r *Round) Vertices() *index.VertexIndex    { return r.vertices }
func (r *Round) Tracker() *budget.Tracker        { return r.tracker }
func (r *Round) Strategies() []strategy.Strategy { return r.strategies }

// apply places a move, indexes the vertex and every edge it completes
func (r *Round) apply(m board.Move) error {
	if err := r.board.Apply(m); err != nil {
		return err
	}
	r.vertices.Insert(m.Vertex, m.Coordinate)
	for _, e := range r.board.Graph().Incident(m.Vertex) {
		seg, ok := r.board.SegmentOf(e)
		if !ok {
			continue
		}
		r.index.Insert(e, seg)
	}
	return nil
}

func trackerSettings(cfg config.Config) budget.Settings {
	return budget.Settings{
		TimeLimit:        cfg.TimeLimit(),
		SafetyMargin:     cfg.SafetyMargin(),
		MinSlice:         cfg.MinSlice(),
		IncreaseHeadroom: cfg.IncreaseHeadroom(),
		DecreaseHeadroom: cfg.DecreaseHeadroom(),
		InitialSamples:   cfg.InitialSamples,
		MinSamples:       cfg.MinSamples,
		MaxSamples:       cfg.MaxSamples,
		InitialRadius:    cfg.InitialRadius,
		MaxRadius:        cfg.MaxRadius,
		FixedSampling:    cfg.Deterministic,
	}
}

// roundRNG seeds the round's generator from the configured seed in
// deterministic mode and from system entropy otherwise
func roundRNG(cfg config.Config) *frand.RNG {
	if cfg.Deterministic {
		seed := make([]byte, 32)
		binary.LittleEndian.PutUint64(seed, cfg.Seed)
		return frand.NewCustom(seed, 1024, 12)
	}
	seed := frand.Entropy256()
	return frand.NewCustom(seed[:], 1024, 12)
}
