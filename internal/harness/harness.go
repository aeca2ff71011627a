package harness

import (
	"go.uber.org/zap"

	"github.com/emberfall/emberfall/internal/game/actor"
	"github.com/emberfall/emberfall/internal/game/combat"
	"github.com/emberfall/emberfall/internal/game/effect"
	"github.com/emberfall/emberfall/internal/game/resolve"
)

// Factory builds a fresh roster for one simulation run. Runs must not share
// actors; the engines mutate hit points in place.
type Factory func() ([]*actor.Actor, error)

// CombatMetrics aggregates the outcomes of repeated combat encounters.
type CombatMetrics struct {
	Runs              int
	Victories         int
	Defeats           int
	Stalemates        int
	WinRate           float64
	AvgRounds         float64
	AvgSurvivorLosses float64
}

// RunCombat resolves the same encounter runs times with fresh rosters and
// aggregates the results.
//
// Precondition: runs > 0; party and hostiles must return non-empty rosters.
func RunCombat(runs int, party, hostiles Factory, eng *combat.Engine, mods combat.Modifiers, logger *zap.Logger) (*CombatMetrics, error) {
	m := &CombatMetrics{Runs: runs}

	totalRounds := 0
	totalLosses := 0
	for i := 0; i < runs; i++ {
		p, err := party()
		if err != nil {
			return nil, err
		}
		h, err := hostiles()
		if err != nil {
			return nil, err
		}

		sum, err := eng.Resolve(p, h, mods, nil)
		if err != nil {
			return nil, err
		}

		switch sum.Result {
		case combat.Victory:
			m.Victories++
		case combat.Defeat:
			m.Defeats++
		default:
			m.Stalemates++
		}
		totalRounds += sum.Rounds
		for _, s := range sum.Survivors {
			if s.Down {
				totalLosses++
			}
		}
	}

	m.WinRate = float64(m.Victories) / float64(runs)
	m.AvgRounds = float64(totalRounds) / float64(runs)
	m.AvgSurvivorLosses = float64(totalLosses) / float64(runs)

	logger.Info("combat simulation complete",
		zap.Int("runs", m.Runs),
		zap.Float64("win_rate", m.WinRate),
		zap.Float64("avg_rounds", m.AvgRounds),
		zap.Float64("avg_losses", m.AvgSurvivorLosses),
	)
	return m, nil
}

// ActionMetrics aggregates the outcomes of repeated action resolutions.
type ActionMetrics struct {
	Runs       int
	Outcomes   map[effect.OutcomeLabel]int
	SuccessPct float64
	// Ledger holds the resources accumulated across all runs when an
	// Applier was supplied.
	Ledger *Ledger
}

// RunAction resolves actionID runs times with fresh parties. When applier is
// non-nil every run's effects (and deferred combat effects) are applied to
// that run's party and the shared ledger.
//
// Precondition: runs > 0.
func RunAction(runs int, party Factory, r *resolve.Resolver, actionID string, ctx resolve.Context, applier *Applier, logger *zap.Logger) (*ActionMetrics, error) {
	m := &ActionMetrics{
		Runs:     runs,
		Outcomes: make(map[effect.OutcomeLabel]int),
		Ledger:   NewLedger(),
	}

	succeeded := 0
	for i := 0; i < runs; i++ {
		p, err := party()
		if err != nil {
			return nil, err
		}

		out, err := r.ResolveAction(p, actionID, ctx)
		if err != nil {
			return nil, err
		}

		m.Outcomes[out.Label]++
		if out.Label.Succeeded() {
			succeeded++
		}
		if applier != nil {
			applier.ApplyDeferred(p, out.Deferred)
			applier.Apply(p, m.Ledger, out.Effects)
		}
	}

	m.SuccessPct = 100 * float64(succeeded) / float64(runs)

	logger.Info("action simulation complete",
		zap.String("action", actionID),
		zap.Int("runs", m.Runs),
		zap.Float64("success_pct", m.SuccessPct),
	)
	return m, nil
}
