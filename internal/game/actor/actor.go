// Package actor defines the combat-capable entity model shared by survivors
// and hostiles. The resolution engines borrow read access to an Actor and, in
// combat, reduce its health for the duration of the encounter; every other
// mutation happens through the methods here, driven by the caller applying a
// returned effects payload.
package actor

import "fmt"

// Kind distinguishes survivors from hostile entities.
type Kind int

const (
	KindSurvivor Kind = iota
	KindHostile
)

// Canonical attribute names. Every survivor carries all seven.
const (
	Strength     = "STR"
	Agility      = "AGI"
	Intellect    = "INT"
	Perception   = "PER"
	Charisma     = "CHR"
	Constitution = "CON"
	Sanity       = "SAN"
)

// AttributeNames lists the canonical attributes in display order.
var AttributeNames = []string{
	Strength, Agility, Intellect, Perception, Charisma, Constitution, Sanity,
}

// Skill names the combat engine keys on. The skill catalog itself is
// content-defined; these three have hardcoded combat semantics.
const (
	SkillSmallArms     = "small_arms"
	SkillMeleeWeaponry = "melee_weaponry"
	SkillStealth       = "stealth"
)

const (
	baseMaxHP     = 40
	baseMaxStress = 40

	// A point of CON shaves 5% off incoming damage, capped at half.
	damageReductionPerCON = 5
	damageReductionCap    = 50

	// A point of SAN shaves 5% off incoming stress, capped at half.
	stressMitigationPerSAN = 5
	stressMitigationCap    = 50
)

// Actor is one combat participant.
//
// Invariant: 0 <= CurrentHP <= MaxHP and 0 <= CurrentStress <= MaxStress
// after any method call. An Actor with CurrentHP == 0 is down and excluded
// from further combat rounds.
type Actor struct {
	ID   string
	Name string
	Kind Kind

	// Attributes maps canonical attribute names to values (1-10 for
	// survivors). Hostiles may carry an empty map; reads default to zero.
	Attributes map[string]int
	// Skills maps skill names to non-negative levels.
	Skills map[string]int
	// Traits holds active trait tags.
	Traits []string

	MaxHP     int
	CurrentHP int

	MaxStress     int
	CurrentStress int

	// DamageExpr is the dice expression this actor rolls for damage.
	DamageExpr string
	// Defense reduces the chance of being hit. For survivors it is derived
	// from agility; for hostiles it comes from the blueprint.
	Defense int
	// Speed is the hostile movement rating. Unused by survivors.
	Speed int
}

// survivorDamageExpr is the unarmed/improvised baseline for survivors; the
// strength offense bonus is added on top by OffenseBonus.
const survivorDamageExpr = "2d4+5"

// NewSurvivor creates a survivor with the seven canonical attributes.
// Max health is 40 + CON*10 and max stress 40 + SAN*10; stress starts at zero.
//
// Precondition: attrs must contain every canonical attribute name.
// Postcondition: Returns a full-health Actor or an error naming the missing attribute.
func NewSurvivor(id, name string, attrs map[string]int) (*Actor, error) {
	for _, key := range AttributeNames {
		if _, ok := attrs[key]; !ok {
			return nil, fmt.Errorf("actor: survivor %q missing attribute %q", name, key)
		}
	}
	copied := make(map[string]int, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}

	a := &Actor{
		ID:         id,
		Name:       name,
		Kind:       KindSurvivor,
		Attributes: copied,
		Skills:     make(map[string]int),
		MaxHP:      baseMaxHP + copied[Constitution]*10,
		MaxStress:  baseMaxStress + copied[Sanity]*10,
		DamageExpr: survivorDamageExpr,
	}
	a.CurrentHP = a.MaxHP
	return a, nil
}

// Attr returns the named attribute value, or zero when the actor does not
// carry it (hostiles have no attribute spread).
func (a *Actor) Attr(name string) int { return a.Attributes[name] }

// SkillLevel returns the actor's level in the named skill; zero means untrained.
func (a *Actor) SkillLevel(name string) int { return a.Skills[name] }

// LearnSkill sets the actor's level in the named skill.
//
// Precondition: level >= 0.
func (a *Actor) LearnSkill(name string, level int) {
	if a.Skills == nil {
		a.Skills = make(map[string]int)
	}
	a.Skills[name] = level
}

// AddTrait appends a trait tag if not already present.
func (a *Actor) AddTrait(name string) {
	for _, t := range a.Traits {
		if t == name {
			return
		}
	}
	a.Traits = append(a.Traits, name)
}

// HasTrait reports whether the actor carries the named trait.
func (a *Actor) HasTrait(name string) bool {
	for _, t := range a.Traits {
		if t == name {
			return true
		}
	}
	return false
}

// Alive reports whether the actor can still act.
//
// Postcondition: Returns true iff CurrentHP > 0.
func (a *Actor) Alive() bool { return a.CurrentHP > 0 }

// DefenseRating is the combat defense value used by hit-chance formulas:
// hostiles use their blueprint defense, survivors dodge on agility.
func (a *Actor) DefenseRating() int {
	if a.Kind == KindHostile {
		return a.Defense
	}
	return a.Attr(Agility) * 2
}

// OffenseBonus is the flat damage added on top of the actor's damage roll.
// Survivors add twice their strength; hostile blueprints bake the bonus into
// their damage expression.
func (a *Actor) OffenseBonus() int {
	if a.Kind == KindSurvivor {
		return a.Attr(Strength) * 2
	}
	return 0
}

// ApplyDamage reduces CurrentHP by amount after constitution-based reduction
// (survivors only: 5% per CON point, capped at 50%, rounded down), flooring
// health at zero. Returns the damage actually applied.
//
// Precondition: amount >= 0.
// Postcondition: CurrentHP >= 0; a down actor takes no further damage.
func (a *Actor) ApplyDamage(amount int) int {
	if !a.Alive() {
		return 0
	}
	actual := amount
	if a.Kind == KindSurvivor {
		reduction := a.Attr(Constitution) * damageReductionPerCON
		if reduction > damageReductionCap {
			reduction = damageReductionCap
		}
		actual = amount - amount*reduction/100
	}
	a.CurrentHP -= actual
	if a.CurrentHP < 0 {
		a.CurrentHP = 0
	}
	return actual
}

// Heal restores health up to MaxHP. Down actors cannot be healed back up by
// the resolution core; revival is the caller's concern.
func (a *Actor) Heal(amount int) {
	if !a.Alive() {
		return
	}
	a.CurrentHP += amount
	if a.CurrentHP > a.MaxHP {
		a.CurrentHP = a.MaxHP
	}
}

// GainStress adds stress after sanity-based mitigation (5% per SAN point,
// capped at 50%, rounded down), clamping at MaxStress. Returns the stress
// actually applied.
//
// Precondition: amount >= 0.
func (a *Actor) GainStress(amount int) int {
	if !a.Alive() {
		return 0
	}
	mitigation := a.Attr(Sanity) * stressMitigationPerSAN
	if mitigation > stressMitigationCap {
		mitigation = stressMitigationCap
	}
	actual := amount - amount*mitigation/100
	a.CurrentStress += actual
	if a.CurrentStress > a.MaxStress {
		a.CurrentStress = a.MaxStress
	}
	return actual
}

// ReduceStress removes stress, flooring at zero.
//
// Precondition: amount >= 0.
func (a *Actor) ReduceStress(amount int) {
	if !a.Alive() {
		return
	}
	a.CurrentStress -= amount
	if a.CurrentStress < 0 {
		a.CurrentStress = 0
	}
}

func (a *Actor) String() string {
	return fmt.Sprintf("%s (HP %d/%d)", a.Name, a.CurrentHP, a.MaxHP)
}
