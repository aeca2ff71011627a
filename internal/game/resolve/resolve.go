// Package resolve is the front door of the action resolution core. It looks
// an action up in the content library, routes it to the decision engine or
// the combat engine by type, and normalizes whichever result comes back into
// a single (label, effects) shape so callers never branch on action type.
package resolve

import (
	"go.uber.org/zap"

	"github.com/emberfall/emberfall/internal/game/actor"
	"github.com/emberfall/emberfall/internal/game/blueprint"
	"github.com/emberfall/emberfall/internal/game/combat"
	"github.com/emberfall/emberfall/internal/game/decision"
	"github.com/emberfall/emberfall/internal/game/effect"
)

// Context carries the per-invocation environment for a resolution.
type Context struct {
	// Danger is the node danger level, fed to both engines.
	Danger int
	// Fog is the weather flag, fed to the combat engine.
	Fog bool
	// Modifiers are named flat chance adjustments for decision checks.
	Modifiers map[string]float64
}

// NormalizedOutcome is the uniform result of any action, combat or not.
//
// Invariant: Label and Effects are always set (Effects may be empty, never
// nil semantics the caller must special-case); Combat is non-nil only for
// combat actions.
type NormalizedOutcome struct {
	Label   effect.OutcomeLabel
	Effects effect.Set
	Combat  *combat.Summary
	// Deferred holds stat mutations an engine computed but did not apply,
	// such as stress from wounds taken in combat.
	Deferred []combat.DeferredEffect
}

// Resolver routes actions to engines.
type Resolver struct {
	lib       *blueprint.Library
	decisions *decision.Engine
	combats   *combat.Engine
	logger    *zap.Logger
}

// NewResolver creates a Resolver.
//
// Precondition: all arguments must be non-nil.
func NewResolver(lib *blueprint.Library, decisions *decision.Engine, combats *combat.Engine, logger *zap.Logger) *Resolver {
	return &Resolver{lib: lib, decisions: decisions, combats: combats, logger: logger}
}

// ResolveAction resolves actionID for the party and returns a normalized
// outcome. Combat actions spawn the declared encounter, run it, and map the
// result: victory to the success payload, defeat to the failure payload, and
// a round-cap stalemate to a failure label with the stalemate payload (empty
// unless the action declares one). Every other action type takes a decision
// check.
//
// Postcondition: On success the outcome always carries a label and an
// effects set. Unknown action IDs and malformed definitions return a
// ConfigError before any dice are drawn.
func (r *Resolver) ResolveAction(party []*actor.Actor, actionID string, ctx Context) (*NormalizedOutcome, error) {
	a, ok := r.lib.Actions.Get(actionID)
	if !ok {
		return nil, blueprint.NewConfigError("resolve", "unknown action %q", actionID)
	}

	switch a.Type {
	case blueprint.ActionCombat:
		return r.resolveCombat(party, a, ctx)
	case blueprint.ActionQuest, blueprint.ActionBaseJob, blueprint.ActionChoice:
		return r.resolveDecision(party, a, ctx)
	default:
		return nil, blueprint.NewConfigError("resolve", "action %q has unknown type %q", a.ID, a.Type)
	}
}

func (r *Resolver) resolveDecision(party []*actor.Actor, a *blueprint.Action, ctx Context) (*NormalizedOutcome, error) {
	label, effects, err := r.decisions.Resolve(party, a, decision.Context{
		Danger:    ctx.Danger,
		Modifiers: ctx.Modifiers,
	}, nil)
	if err != nil {
		return nil, err
	}
	return &NormalizedOutcome{Label: label, Effects: effects}, nil
}

func (r *Resolver) resolveCombat(party []*actor.Actor, a *blueprint.Action, ctx Context) (*NormalizedOutcome, error) {
	if a.Encounter == nil {
		return nil, blueprint.NewConfigError("resolve", "combat action %q declares no encounter", a.ID)
	}

	danger := ctx.Danger
	if a.Encounter.Danger > 0 {
		danger = a.Encounter.Danger
	}
	fog := ctx.Fog || a.Encounter.Fog

	hostiles, err := r.lib.SpawnEncounter(a.Encounter)
	if err != nil {
		return nil, err
	}

	sum, err := r.combats.Resolve(party, hostiles, combat.Modifiers{Danger: danger, Fog: fog}, nil)
	if err != nil {
		return nil, err
	}

	out := &NormalizedOutcome{Combat: sum, Deferred: sum.Deferred}
	switch sum.Result {
	case combat.Victory:
		out.Label = effect.OutcomeSuccess
		out.Effects = a.OnSuccess.Clone()
	case combat.Defeat:
		out.Label = effect.OutcomeFailure
		out.Effects = a.OnFailure.Clone()
	default:
		// A stalemate is a failure that forfeits the failure payload: the
		// party withdrew, nothing was won or lost beyond the wounds taken.
		out.Label = effect.OutcomeFailure
		out.Effects = a.OnStalemate.Clone()
	}

	r.logger.Debug("action resolved",
		zap.String("action", a.ID),
		zap.Stringer("outcome", out.Label),
		zap.Stringer("combat", sum.Result),
		zap.Int("rounds", sum.Rounds),
	)
	return out, nil
}
