// Package effect defines the contract between the resolution engines and the
// components that apply consequences. Engines produce effects; they never
// apply them. The kind set is closed so applying code can switch exhaustively
// instead of probing untyped keys.
package effect

import "fmt"

// Kind identifies what an Effect does when applied.
// The zero value (KindUnknown) is intentionally invalid.
type Kind int

const (
	KindUnknown Kind = iota
	// KindDamage reduces health by Amount.
	KindDamage
	// KindHeal restores health by Amount.
	KindHeal
	// KindStressDelta adjusts stress by Amount (negative relieves).
	KindStressDelta
	// KindResourceDelta adjusts the named shared resource by Amount.
	KindResourceDelta
	// KindItemGrant adds Amount of the named item.
	KindItemGrant
	// KindStatDelta adjusts the named attribute by Amount.
	KindStatDelta
	// KindExperience awards Amount experience points.
	KindExperience
	// KindInjuryChance rolls Amount percent per survivor for a lasting injury.
	KindInjuryChance
	// KindCustom runs the named Lua effect hook.
	KindCustom
)

var kindNames = map[Kind]string{
	KindDamage:        "damage",
	KindHeal:          "heal",
	KindStressDelta:   "stress_delta",
	KindResourceDelta: "resource_delta",
	KindItemGrant:     "item_grant",
	KindStatDelta:     "stat_delta",
	KindExperience:    "experience",
	KindInjuryChance:  "injury_chance",
	KindCustom:        "custom",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

// String returns the wire name of the kind.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// ParseKind resolves a wire name to a Kind.
//
// Postcondition: Returns a valid Kind or an error; never KindUnknown with nil error.
func ParseKind(name string) (Kind, error) {
	if k, ok := kindsByName[name]; ok {
		return k, nil
	}
	return KindUnknown, fmt.Errorf("effect: unknown kind %q", name)
}

// UnmarshalYAML decodes a Kind from its wire name.
func (k *Kind) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	parsed, err := ParseKind(name)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalYAML encodes a Kind as its wire name.
func (k Kind) MarshalYAML() (any, error) { return k.String(), nil }

// Effect is one consequence to be applied by the caller exactly once.
type Effect struct {
	Kind Kind `yaml:"kind" validate:"required"`
	// Target names the resource, item, attribute, or Lua hook the kind acts
	// on. Empty for kinds that act on the actor directly.
	Target string `yaml:"target,omitempty"`
	// Amount is the magnitude. For KindInjuryChance it is a percent.
	Amount int `yaml:"amount,omitempty"`
	// PerSurvivor scales ledger amounts (resources, items, experience) by
	// party size. Actor-targeted kinds already reach each member and ignore it.
	PerSurvivor bool `yaml:"per_survivor,omitempty"`
}

func (e Effect) String() string {
	if e.Target != "" {
		return fmt.Sprintf("%s(%s %+d)", e.Kind, e.Target, e.Amount)
	}
	return fmt.Sprintf("%s(%+d)", e.Kind, e.Amount)
}

// Set is an ordered effects payload.
type Set []Effect

// Scaled returns a copy of the set with every Amount multiplied by factor.
// Used for critical outcomes, which double rewards or consequences.
//
// Postcondition: The receiver is unchanged.
func (s Set) Scaled(factor int) Set {
	if len(s) == 0 {
		return nil
	}
	out := make(Set, len(s))
	for i, e := range s {
		e.Amount *= factor
		out[i] = e
	}
	return out
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	if len(s) == 0 {
		return nil
	}
	out := make(Set, len(s))
	copy(out, s)
	return out
}
