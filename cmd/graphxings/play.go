package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"graphxings/internal/board"
	"graphxings/internal/config"
	"graphxings/internal/engine"
	"graphxings/internal/strategy"
)

type playOptions struct {
	cfg       config.Config
	graphFile string
	saveGraph string
	vertices  int
	edges     int
	width     int
	height    int
	objective string
}

// roundOutcome is the result of one round from the referee's view
type roundOutcome struct {
	maximizer string
	score     float64
	forfeit   string // agent that lost by forfeit, if any
	reason    error
}

func play(opts playOptions) error {
	objective, err := strategy.ParseObjective(opts.objective)
	if err != nil {
		return err
	}

	var g *board.Graph
	if opts.graphFile != "" {
		if g, err = board.LoadGraph(opts.graphFile); err != nil {
			return err
		}
	} else {
		g = board.RandomGraph(frand.New(), opts.vertices, opts.edges)
	}
	if opts.saveGraph != "" {
		if err := board.SaveGraph(g, opts.saveGraph); err != nil {
			return err
		}
	}
	if g.N() > opts.width*opts.height {
		return fmt.Errorf("%d vertices do not fit on a %dx%d board", g.N(), opts.width, opts.height)
	}

	p1, err := engine.NewAgent("player-1", opts.cfg)
	if err != nil {
		return err
	}
	p2, err := engine.NewAgent("player-2", opts.cfg)
	if err != nil {
		return err
	}

	// roles swap between the two rounds; the maximizer moves first
	outcomes := make([]roundOutcome, 0, 2)
	for _, pair := range [][2]*engine.Agent{{p1, p2}, {p2, p1}} {
		out, err := playRound(context.Background(), pair[0], pair[1], g, opts.width, opts.height, objective)
		if err != nil {
			return err
		}
		outcomes = append(outcomes, out)
	}

	for i, out := range outcomes {
		ev := log.Info().Int("round", i+1).Str("maximizer", out.maximizer)
		if out.forfeit != "" {
			ev.Str("forfeit", out.forfeit).AnErr("reason", out.reason).Msg("round forfeited")
			continue
		}
		ev.Float64("score", out.score).Msg("round scored")
	}
	log.Info().Str("winner", winner(outcomes)).Msg("match finished")
	return nil
}

// playRound runs one round and scores it. Illegal moves and exhausted time
// allowances end the round as a forfeit.
func playRound(ctx context.Context, maxi, mini *engine.Agent, g *board.Graph, width, height int, objective strategy.Objective) (roundOutcome, error) {
	out := roundOutcome{maximizer: maxi.Name()}
	if err := maxi.InitializeRound(g, width, height, strategy.Maximizer, objective); err != nil {
		return out, err
	}
	if err := mini.InitializeRound(g, width, height, strategy.Minimizer, objective); err != nil {
		return out, err
	}

	agents := [2]*engine.Agent{maxi, mini}
	var last *board.Move
	for turn := 0; turn < g.N(); turn++ {
		agent := agents[turn%2]
		m, err := agent.DecideMove(ctx, last)
		if err != nil {
			out.forfeit = forfeiter(err, agent.Name(), agents[(turn+1)%2].Name())
			out.reason = err
			return out, nil
		}
		last = &m
	}
	if err := agents[g.N()%2].Observe(*last); err != nil {
		out.forfeit = agents[(g.N()+1)%2].Name()
		out.reason = err
		return out, nil
	}

	res, err := maxi.FinishRound()
	if err != nil {
		return out, err
	}
	if _, err := mini.FinishRound(); err != nil {
		return out, err
	}
	out.score = float64(res.Crossings)
	if objective == strategy.CrossingAngles {
		out.score = res.AngleSum
	}
	return out, nil
}

// forfeiter names the agent charged with a failed DecideMove. Only a
// rejected opponent move is the opponent's fault; our own rejected
// selection, timeouts and empty boards are charged to the deciding agent.
func forfeiter(err error, agent, opponent string) string {
	if errors.Is(err, board.ErrIllegalMove) && !errors.Is(err, engine.ErrSelectedMove) {
		return opponent
	}
	return agent
}

// winner compares the two rounds: each agent is maximizer once, and the
// larger score earned as maximizer wins
func winner(outcomes []roundOutcome) string {
	if len(outcomes) != 2 {
		return "none"
	}
	a, b := outcomes[0], outcomes[1]
	switch {
	case a.forfeit != "" && b.forfeit != "":
		return "none"
	case a.forfeit != "":
		return other(a.forfeit, a.maximizer, b.maximizer)
	case b.forfeit != "":
		return other(b.forfeit, a.maximizer, b.maximizer)
	case a.score > b.score:
		return a.maximizer
	case b.score > a.score:
		return b.maximizer
	}
	return "draw"
}

func other(name, x, y string) string {
	if name == x {
		return y
	}
	return x
}
