// Package combat implements round-based encounter resolution between a
// survivor party and a group of hostiles. Attacks alternate in phases until
// one side is fully down or the round cap expires; the engine reports every
// attack through an observer and returns a summary with deferred stress
// effects instead of mutating survivor stress itself.
package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/emberfall/emberfall/internal/config"
	"github.com/emberfall/emberfall/internal/game/actor"
	"github.com/emberfall/emberfall/internal/game/blueprint"
	"github.com/emberfall/emberfall/internal/game/dice"
	"github.com/emberfall/emberfall/internal/game/effect"
)

// Result names how an encounter ended.
type Result int

const (
	// Stalemate means the round cap expired with both sides standing.
	Stalemate Result = iota
	// Victory means every hostile is down.
	Victory
	// Defeat means every survivor is down.
	Defeat
)

func (r Result) String() string {
	switch r {
	case Victory:
		return "victory"
	case Defeat:
		return "defeat"
	default:
		return "stalemate"
	}
}

// Modifiers are the environmental inputs to an encounter.
type Modifiers struct {
	// Danger is the node danger level. Levels above 1 scale hostile HP up.
	Danger int
	// Fog penalizes survivor accuracy, and hostile accuracy against
	// survivors trained in stealth.
	Fog bool
}

// AttackEvent records one attack attempt, hit or miss.
type AttackEvent struct {
	Round        int
	AttackerID   string
	AttackerName string
	DefenderID   string
	DefenderName string
	Chance       float64
	Roll         int
	Hit          bool
	Crit         bool
	Damage       int
	DefenderHP   int
	DefenderDown bool
}

// Observer receives each AttackEvent as it happens. May be nil.
type Observer func(AttackEvent)

// Snapshot is the end-of-combat state of one participant.
type Snapshot struct {
	ID        string
	Name      string
	CurrentHP int
	MaxHP     int
	Down      bool
}

// DeferredEffect is a mutation the engine computed but did not apply. The
// caller owns actor state changes outside of HP.
type DeferredEffect struct {
	ActorID string
	Effect  effect.Effect
}

// Summary is the full account of a resolved encounter.
type Summary struct {
	Result    Result
	Rounds    int
	Survivors []Snapshot
	Hostiles  []Snapshot
	Log       []AttackEvent
	Deferred  []DeferredEffect
}

// Engine resolves combat encounters.
type Engine struct {
	cfg    config.CombatConfig
	src    dice.Source
	logger *zap.Logger
}

// NewEngine creates a combat Engine.
//
// Precondition: src and logger must be non-nil.
func NewEngine(cfg config.CombatConfig, src dice.Source, logger *zap.Logger) *Engine {
	return &Engine{cfg: cfg, src: src, logger: logger}
}

// Resolve runs an encounter to completion. Each round the surviving members
// of the party attack first in roster order, then the standing hostiles
// respond, also in roster order. Down actors neither act nor are targeted.
// Hit-point damage is applied in place on the passed actors; every other
// consequence (survivor stress from wounds taken) is returned in
// Summary.Deferred for the caller to apply.
//
// Precondition: both rosters must be non-empty; every actor needs a parseable
// damage expression.
// Postcondition: Returns a Summary whose Result is Victory, Defeat, or
// Stalemate, with Rounds <= the configured round cap. Hostile max HP is
// scaled for danger before round one.
func (e *Engine) Resolve(survivors, hostiles []*actor.Actor, mods Modifiers, obs Observer) (*Summary, error) {
	if len(survivors) == 0 {
		return nil, blueprint.NewConfigError("combat", "encounter has no survivors")
	}
	if len(hostiles) == 0 {
		return nil, blueprint.NewConfigError("combat", "encounter has no hostiles")
	}

	if mods.Danger > 1 {
		bonus := (mods.Danger - 1) * e.cfg.HostileHPPerDangerLevel
		for _, h := range hostiles {
			h.MaxHP += bonus
			h.CurrentHP += bonus
		}
	}

	stress := make(map[string]int)
	var log []AttackEvent

	rounds := 0
	result := Stalemate
	for round := 1; round <= e.cfg.RoundCap; round++ {
		rounds = round

		e.phase(round, survivors, hostiles, mods, stress, &log, obs)
		if allDown(hostiles) {
			result = Victory
			break
		}

		e.phase(round, hostiles, survivors, mods, stress, &log, obs)
		if allDown(survivors) {
			result = Defeat
			break
		}
	}

	summary := &Summary{
		Result:    result,
		Rounds:    rounds,
		Survivors: snapshots(survivors),
		Hostiles:  snapshots(hostiles),
		Log:       log,
		Deferred:  deferredStress(survivors, stress),
	}

	e.logger.Debug("combat resolved",
		zap.Stringer("result", summary.Result),
		zap.Int("rounds", summary.Rounds),
		zap.Int("attacks", len(summary.Log)),
	)
	return summary, nil
}

// phase runs one side's attacks for the round.
func (e *Engine) phase(round int, attackers, defenders []*actor.Actor, mods Modifiers, stress map[string]int, log *[]AttackEvent, obs Observer) {
	for _, att := range attackers {
		if !att.Alive() {
			continue
		}
		target := lowestHPTarget(defenders)
		if target == nil {
			return
		}

		chance := e.hitChance(att, target, mods)
		roll := dice.D100(e.src)
		ev := AttackEvent{
			Round:        round,
			AttackerID:   att.ID,
			AttackerName: att.Name,
			DefenderID:   target.ID,
			DefenderName: target.Name,
			Chance:       chance,
			Roll:         roll,
		}

		if float64(roll) <= chance {
			ev.Hit = true
			dmg, crit, err := e.rollDamage(att)
			if err != nil {
				// Unparseable damage expressions are caught at content load;
				// a bad expression on a hand-built actor still lands here.
				e.logger.Warn("damage roll failed",
					zap.String("attacker", att.ID),
					zap.String("expression", att.DamageExpr),
					zap.Error(err),
				)
			} else {
				ev.Crit = crit
				ev.Damage = target.ApplyDamage(dmg)
				if target.Kind == actor.KindSurvivor && ev.Damage > 0 {
					stress[target.ID] += int(float64(ev.Damage) * e.cfg.StressPerDamage)
				}
			}
		}

		ev.DefenderHP = target.CurrentHP
		ev.DefenderDown = !target.Alive()
		*log = append(*log, ev)
		if obs != nil {
			obs(ev)
		}
	}
}

// hitChance computes the attacker's clamped chance to hit the target.
//
// Survivors start from their base hit chance plus the better of their weapon
// skill paths (small arms with agility, or melee with strength), unskilled
// survivors fall back to the average of the two attributes; the target's
// defense rating applies at half weight. Hostiles start lower, take the
// target's full defense rating as a penalty, and suffer in fog against
// stealth-trained survivors.
func (e *Engine) hitChance(att, target *actor.Actor, mods Modifiers) float64 {
	var chance float64
	if att.Kind == actor.KindSurvivor {
		chance = e.cfg.SurvivorBaseHitChance + e.weaponBonus(att)
		chance -= float64(target.DefenseRating()) * 0.5
		if mods.Fog {
			chance -= e.cfg.FogHitPenalty
		}
	} else {
		chance = e.cfg.HostileBaseHitChance
		chance -= float64(target.DefenseRating())
		if mods.Fog && target.SkillLevel(actor.SkillStealth) > 0 {
			chance -= e.cfg.FogStealthPenalty
		}
	}
	return dice.Clamp(chance, 0, 100)
}

// weaponBonus returns the best weapon-skill contribution for a survivor.
func (e *Engine) weaponBonus(att *actor.Actor) float64 {
	smallArms := float64(att.SkillLevel(actor.SkillSmallArms))*e.cfg.SkillHitBonusPerLevel +
		float64(att.Attr(actor.Agility))*e.cfg.AttributeHitBonusPerPoint
	melee := float64(att.SkillLevel(actor.SkillMeleeWeaponry))*e.cfg.SkillHitBonusPerLevel +
		float64(att.Attr(actor.Strength))*e.cfg.AttributeHitBonusPerPoint

	if att.SkillLevel(actor.SkillSmallArms) == 0 && att.SkillLevel(actor.SkillMeleeWeaponry) == 0 {
		// Untrained attackers average the two attributes at half the
		// per-point rate, so the config knob still tunes them.
		avg := float64(att.Attr(actor.Agility)+att.Attr(actor.Strength)) / 2
		return avg * e.cfg.AttributeHitBonusPerPoint / 2
	}
	if smallArms >= melee {
		return smallArms
	}
	return melee
}

// rollDamage rolls the attacker's damage expression plus offense bonus, then
// checks for a critical hit which doubles the total.
func (e *Engine) rollDamage(att *actor.Actor) (int, bool, error) {
	res, err := dice.RollExpr(att.DamageExpr, e.src)
	if err != nil {
		return 0, false, fmt.Errorf("rolling %q for %s: %w", att.DamageExpr, att.ID, err)
	}
	dmg := res.Total() + att.OffenseBonus()

	critChance := e.cfg.HostileCritChance
	if att.Kind == actor.KindSurvivor {
		critChance = e.cfg.SurvivorCritChance
	}
	if dice.Check(critChance, e.src) {
		return dmg * 2, true, nil
	}
	return dmg, false, nil
}

// lowestHPTarget picks the living defender with the least current HP;
// ties resolve to roster order. Deterministic so replays with a seeded
// source reproduce exactly.
func lowestHPTarget(defenders []*actor.Actor) *actor.Actor {
	var target *actor.Actor
	for _, d := range defenders {
		if !d.Alive() {
			continue
		}
		if target == nil || d.CurrentHP < target.CurrentHP {
			target = d
		}
	}
	return target
}

func allDown(side []*actor.Actor) bool {
	for _, a := range side {
		if a.Alive() {
			return false
		}
	}
	return true
}

func snapshots(side []*actor.Actor) []Snapshot {
	out := make([]Snapshot, len(side))
	for i, a := range side {
		out[i] = Snapshot{
			ID:        a.ID,
			Name:      a.Name,
			CurrentHP: a.CurrentHP,
			MaxHP:     a.MaxHP,
			Down:      !a.Alive(),
		}
	}
	return out
}

// deferredStress converts accumulated wound stress into per-survivor
// deferred effects, in roster order.
func deferredStress(survivors []*actor.Actor, stress map[string]int) []DeferredEffect {
	var out []DeferredEffect
	for _, s := range survivors {
		if amt, ok := stress[s.ID]; ok && amt > 0 {
			out = append(out, DeferredEffect{
				ActorID: s.ID,
				Effect:  effect.Effect{Kind: effect.KindStressDelta, Target: s.ID, Amount: amt},
			})
		}
	}
	return out
}
