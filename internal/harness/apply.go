// Package harness drives the resolution engines: it applies effect payloads
// to actors and resource ledgers, and runs repeated simulations to collect
// outcome statistics. The engines themselves never mutate anything beyond
// combat hit points; everything else funnels through the Applier here.
package harness

import (
	"go.uber.org/zap"

	"github.com/emberfall/emberfall/internal/game/actor"
	"github.com/emberfall/emberfall/internal/game/combat"
	"github.com/emberfall/emberfall/internal/game/dice"
	"github.com/emberfall/emberfall/internal/game/effect"
	"github.com/emberfall/emberfall/internal/scripting"
)

// injuryExpr is the damage rolled when an injury chance effect lands.
const injuryExpr = "1d6"

// Ledger accumulates non-actor outcome state: resources, items, experience.
type Ledger struct {
	Resources map[string]float64
}

// NewLedger returns an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{Resources: make(map[string]float64)}
}

// Add accumulates amount under name, clamping the balance at zero so a
// failure payload can never drive a stock negative.
func (l *Ledger) Add(name string, amount float64) {
	l.Resources[name] += amount
	if l.Resources[name] < 0 {
		l.Resources[name] = 0
	}
}

// Applier applies effect sets to a party and a ledger. It is the single
// place actor state changes outside of combat hit points.
type Applier struct {
	roller  *dice.Roller
	scripts *scripting.Manager
	pack    string
	logger  *zap.Logger
}

// NewApplier creates an Applier. scripts may be nil, in which case custom
// effects are logged and skipped; pack names the script pack custom effect
// hooks are dispatched to.
func NewApplier(roller *dice.Roller, scripts *scripting.Manager, pack string, logger *zap.Logger) *Applier {
	return &Applier{roller: roller, scripts: scripts, pack: pack, logger: logger}
}

// Apply applies every effect in the set, in order, to the party and ledger.
//
// Target semantics: "party" addresses every living member, an actor ID
// addresses that member, and anything else is a ledger key for resource
// kinds. Per-survivor scaling only multiplies ledger amounts by party size;
// actor-targeted kinds already reach each member through their target, so
// each member takes the flat amount.
//
// Postcondition: Actor invariants hold afterwards (HP and stress stay inside
// their bounds); ledger balances never go negative.
func (a *Applier) Apply(party []*actor.Actor, ledger *Ledger, effects effect.Set) {
	for _, eff := range effects {
		amount := eff.Amount

		switch eff.Kind {
		case effect.KindDamage, effect.KindHeal, effect.KindStressDelta:
			for _, s := range a.targets(party, eff.Target) {
				a.applyToActor(s, eff.Kind, amount)
			}
		case effect.KindStatDelta:
			// Target names the attribute; the whole party shifts.
			for _, s := range party {
				s.Attributes[eff.Target] += amount
			}
		case effect.KindResourceDelta, effect.KindItemGrant, effect.KindExperience:
			if eff.PerSurvivor {
				amount *= len(party)
			}
			ledger.Add(eff.Target, float64(amount))
		case effect.KindInjuryChance:
			a.applyInjuries(party, float64(amount))
		case effect.KindCustom:
			a.applyCustom(party, eff.Target, float64(amount))
		default:
			a.logger.Warn("unhandled effect kind", zap.Stringer("kind", eff.Kind))
		}
	}
}

// ApplyDeferred applies the per-actor effects a combat summary deferred.
func (a *Applier) ApplyDeferred(party []*actor.Actor, deferred []combat.DeferredEffect) {
	for _, d := range deferred {
		for _, s := range party {
			if s.ID == d.ActorID {
				a.applyToActor(s, d.Effect.Kind, d.Effect.Amount)
				break
			}
		}
	}
}

func (a *Applier) targets(party []*actor.Actor, target string) []*actor.Actor {
	if target == "party" || target == "" {
		living := make([]*actor.Actor, 0, len(party))
		for _, s := range party {
			if s.Alive() {
				living = append(living, s)
			}
		}
		return living
	}
	for _, s := range party {
		if s.ID == target {
			return []*actor.Actor{s}
		}
	}
	return nil
}

func (a *Applier) applyToActor(s *actor.Actor, kind effect.Kind, amount int) {
	switch kind {
	case effect.KindDamage:
		s.ApplyDamage(amount)
	case effect.KindHeal:
		s.Heal(amount)
	case effect.KindStressDelta:
		if amount >= 0 {
			s.GainStress(amount)
		} else {
			s.ReduceStress(-amount)
		}
	}
}

// applyInjuries runs one injury check per living member; each failed check
// rolls injury damage against that member.
func (a *Applier) applyInjuries(party []*actor.Actor, chance float64) {
	chance = dice.Clamp(chance, 0, 100)
	for _, s := range party {
		if !s.Alive() {
			continue
		}
		if a.roller.Check(chance) {
			res, err := a.roller.RollExpr(injuryExpr)
			if err != nil {
				a.logger.Error("injury roll failed", zap.Error(err))
				return
			}
			s.ApplyDamage(res.Total())
		}
	}
}

// applyCustom dispatches a custom effect to its Lua hook, once per living
// member, and applies the hp/stress deltas the hook returns.
func (a *Applier) applyCustom(party []*actor.Actor, hook string, amount float64) {
	if a.scripts == nil {
		a.logger.Warn("custom effect with no script manager", zap.String("hook", hook))
		return
	}
	for _, s := range party {
		if !s.Alive() {
			continue
		}
		deltas, err := a.scripts.CallActorHook(a.pack, hook, snapshot(s), amount)
		if err != nil {
			a.logger.Warn("custom effect hook failed", zap.String("hook", hook), zap.Error(err))
			continue
		}
		if hp, ok := deltas["hp"]; ok {
			if hp >= 0 {
				s.Heal(int(hp))
			} else {
				s.ApplyDamage(int(-hp))
			}
		}
		if stress, ok := deltas["stress"]; ok {
			a.applyToActor(s, effect.KindStressDelta, int(stress))
		}
	}
}

func snapshot(s *actor.Actor) scripting.ActorInfo {
	traits := make([]string, len(s.Traits))
	copy(traits, s.Traits)
	return scripting.ActorInfo{
		ID:        s.ID,
		Name:      s.Name,
		HP:        s.CurrentHP,
		MaxHP:     s.MaxHP,
		Stress:    s.CurrentStress,
		MaxStress: s.MaxStress,
		Down:      !s.Alive(),
		Traits:    traits,
	}
}
