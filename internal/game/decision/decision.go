// Package decision implements the stochastic skill-check resolver. Given a
// party, an action definition, and a context of modifiers it computes a
// success chance, takes one d100 draw, and returns an outcome label with the
// matching effects payload. It never applies effects and never mutates an
// actor; for a fixed draw it is a pure function of its inputs.
package decision

import (
	"go.uber.org/zap"

	"github.com/emberfall/emberfall/internal/config"
	"github.com/emberfall/emberfall/internal/game/actor"
	"github.com/emberfall/emberfall/internal/game/blueprint"
	"github.com/emberfall/emberfall/internal/game/dice"
	"github.com/emberfall/emberfall/internal/game/effect"
)

// Context carries the per-invocation modifiers that are not part of the
// action definition or the party.
type Context struct {
	// Danger is the node danger level; each level subtracts the configured penalty.
	Danger int
	// Modifiers are named flat chance adjustments (item bonuses, weather, ...).
	Modifiers map[string]float64
}

// Event is the structured record handed to the observer after each resolution.
type Event struct {
	ActionID string
	Party    []string
	Chance   float64
	Roll     int
	Label    effect.OutcomeLabel
}

// Observer receives one Event per resolution. May be nil.
type Observer func(Event)

// Engine resolves non-combat actions.
type Engine struct {
	cfg    config.ResolutionConfig
	traits *blueprint.Registry[blueprint.Trait]
	src    dice.Source
	logger *zap.Logger
}

// NewEngine creates a decision Engine.
//
// Precondition: src and logger must be non-nil; traits may be nil when no
// trait registry is loaded (trait bonuses then resolve to zero).
func NewEngine(cfg config.ResolutionConfig, traits *blueprint.Registry[blueprint.Trait], src dice.Source, logger *zap.Logger) *Engine {
	return &Engine{cfg: cfg, traits: traits, src: src, logger: logger}
}

// Eligible reports whether the party can take the action at all: the party
// meets the minimum size and each non-empty prerequisite block has some
// member meeting at least one of its requirements. Mirrors the "locked
// choice" rule: an ineligible action is hidden, not failed.
func (e *Engine) Eligible(party []*actor.Actor, a *blueprint.Action) bool {
	if len(party) < a.RequiredSurvivors {
		return false
	}
	if len(a.Prerequisites.Skills) > 0 {
		met := false
		for _, s := range party {
			for skill, level := range a.Prerequisites.Skills {
				if s.SkillLevel(skill) >= level {
					met = true
				}
			}
		}
		if !met {
			return false
		}
	}
	if len(a.Prerequisites.Attributes) > 0 {
		met := false
		for _, s := range party {
			for attr, val := range a.Prerequisites.Attributes {
				if s.Attr(attr) >= val {
					met = true
				}
			}
		}
		if !met {
			return false
		}
	}
	return true
}

// Chance computes the clamped success chance for the party on the action.
// Additive model: base chance, minus difficulty, plus each member's skill
// levels and relevant attribute points at the configured rates, plus trait
// check bonuses and context modifiers, minus the danger penalty; the result
// is clamped to [floor, ceiling] so extreme stat gaps never reach certainty.
//
// Postcondition: On success the returned value is within
// [FloorPercent, CeilingPercent]. Returns a ConfigError when the party is
// empty, the action names no stat or skill, or a named attribute cannot be
// read from a party member. No draw is taken.
func (e *Engine) Chance(party []*actor.Actor, a *blueprint.Action, ctx Context) (float64, error) {
	if len(party) == 0 {
		return 0, blueprint.NewConfigError("decision", "action %q resolved with an empty party", a.ID)
	}
	if len(a.Skills) == 0 && len(a.Attributes) == 0 {
		return 0, blueprint.NewConfigError("decision", "action %q names no stat or skill to check", a.ID)
	}

	chance := e.cfg.BaseChance
	if a.BaseChance > 0 {
		chance = a.BaseChance
	}
	chance -= float64(a.Difficulty) * e.cfg.DifficultyPenalty

	for _, s := range party {
		for skill := range a.Skills {
			chance += float64(s.SkillLevel(skill)) * e.cfg.SkillBonusPerLevel
		}
		for _, attr := range a.Attributes {
			val, ok := s.Attributes[attr]
			if !ok {
				return 0, blueprint.NewConfigError("decision",
					"action %q requires attribute %q, which actor %q does not have", a.ID, attr, s.Name)
			}
			chance += float64(val) * e.cfg.AttributeBonusPerPoint
		}
		chance += e.traitBonus(s)
	}

	for _, mod := range ctx.Modifiers {
		chance += mod
	}
	chance -= float64(ctx.Danger) * e.cfg.DangerPenaltyPerLevel

	return dice.Clamp(chance, e.cfg.FloorPercent, e.cfg.CeilingPercent), nil
}

func (e *Engine) traitBonus(s *actor.Actor) float64 {
	if e.traits == nil {
		return 0
	}
	total := 0.0
	for _, name := range s.Traits {
		if def, ok := e.traits.Get(name); ok {
			total += def.CheckBonus
		}
	}
	return total
}

// Resolve computes the success chance, takes one d100 draw, and returns the
// outcome label with the matching effects payload, unmodified. When the
// action declares critical tiers, a natural roll at or above the configured
// success threshold is a critical success and a natural roll at or below the
// failure threshold is a critical failure, regardless of the computed chance;
// the critical payload is the declared variant when present, otherwise the
// base payload doubled.
//
// Postcondition: No actor state changes. Configuration errors return before
// any draw with a nil effects payload.
func (e *Engine) Resolve(party []*actor.Actor, a *blueprint.Action, ctx Context, obs Observer) (effect.OutcomeLabel, effect.Set, error) {
	chance, err := e.Chance(party, a, ctx)
	if err != nil {
		return effect.OutcomeFailure, nil, err
	}

	roll := dice.D100(e.src)
	label := e.classify(a, chance, roll)
	effects := e.payload(a, label)

	names := make([]string, len(party))
	for i, s := range party {
		names[i] = s.Name
	}
	ev := Event{ActionID: a.ID, Party: names, Chance: chance, Roll: roll, Label: label}
	e.logger.Debug("decision resolved",
		zap.String("action", ev.ActionID),
		zap.Strings("party", ev.Party),
		zap.Float64("chance", ev.Chance),
		zap.Int("roll", ev.Roll),
		zap.Stringer("outcome", ev.Label),
	)
	if obs != nil {
		obs(ev)
	}

	return label, effects, nil
}

func (e *Engine) classify(a *blueprint.Action, chance float64, roll int) effect.OutcomeLabel {
	if a.Critical {
		// Natural rolls inside the critical bands override the computed
		// chance; the floor/ceiling clamp would otherwise mask them.
		if roll >= e.cfg.CritSuccessThreshold {
			return effect.OutcomeCriticalSuccess
		}
		if roll <= e.cfg.CritFailureThreshold {
			return effect.OutcomeCriticalFailure
		}
	}
	if float64(roll) <= chance {
		return effect.OutcomeSuccess
	}
	return effect.OutcomeFailure
}

func (e *Engine) payload(a *blueprint.Action, label effect.OutcomeLabel) effect.Set {
	switch label {
	case effect.OutcomeCriticalSuccess:
		if len(a.OnCriticalSuccess) > 0 {
			return a.OnCriticalSuccess.Clone()
		}
		return a.OnSuccess.Scaled(2)
	case effect.OutcomeCriticalFailure:
		if len(a.OnCriticalFailure) > 0 {
			return a.OnCriticalFailure.Clone()
		}
		return a.OnFailure.Scaled(2)
	case effect.OutcomeSuccess:
		return a.OnSuccess.Clone()
	default:
		return a.OnFailure.Clone()
	}
}
