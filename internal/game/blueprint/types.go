// Package blueprint holds the static content registries: hostiles, actions,
// traits, skills, and map nodes, loaded once from YAML at startup and read
// many times. The resolution core never mutates a blueprint; combat spawns
// independent hostile instances instead.
package blueprint

import "github.com/emberfall/emberfall/internal/game/effect"

// Hostile is the static definition of a hostile entity type.
type Hostile struct {
	ID          string `yaml:"id" validate:"required"`
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description"`
	// BaseHP is the health a fresh instance spawns with.
	BaseHP int `yaml:"base_hp" validate:"gte=1"`
	// Damage is the dice expression rolled when this hostile hits.
	Damage string `yaml:"damage" validate:"required"`
	// Speed is the movement rating (reserved for initiative variants).
	Speed int `yaml:"speed" validate:"gte=0"`
	// Defense reduces the chance of being hit.
	Defense int      `yaml:"defense" validate:"gte=0"`
	Traits  []string `yaml:"traits"`
}

// ActionType declares how an action resolves.
type ActionType string

const (
	// ActionQuest is an away-from-base expedition resolved by the decision engine.
	ActionQuest ActionType = "quest"
	// ActionBaseJob is an at-base task resolved by the decision engine.
	ActionBaseJob ActionType = "base_job"
	// ActionChoice is a one-off decision prompt option.
	ActionChoice ActionType = "choice"
	// ActionCombat routes to the combat engine with the declared encounter.
	ActionCombat ActionType = "combat"
)

// EncounterSpec describes the hostile roster a combat action assembles.
type EncounterSpec struct {
	// Hostiles maps hostile blueprint IDs to instance counts.
	Hostiles map[string]int `yaml:"hostiles" validate:"required,min=1"`
	// Danger scales hostile health above level 1.
	Danger int `yaml:"danger" validate:"gte=0"`
	// Fog applies the environment hit penalties.
	Fog bool `yaml:"fog"`
}

// Prerequisites gate an action's availability. The skill and attribute
// blocks are each satisfied when some member meets any one of the block's
// requirements; a party that satisfies neither block cannot take the action.
type Prerequisites struct {
	Skills     map[string]int `yaml:"skills"`
	Attributes map[string]int `yaml:"attributes"`
}

// Action is the static descriptor of one resolvable action.
type Action struct {
	ID          string     `yaml:"id" validate:"required"`
	Name        string     `yaml:"name" validate:"required"`
	Description string     `yaml:"description"`
	Type        ActionType `yaml:"type" validate:"required"`

	// BaseChance overrides the configured default success chance when > 0.
	BaseChance float64 `yaml:"base_chance" validate:"gte=0,lte=100"`
	// Difficulty is subtracted from the success chance at the configured rate.
	Difficulty int `yaml:"difficulty" validate:"gte=0"`
	// Critical opts this action into the critical success/failure tiers.
	Critical bool `yaml:"critical"`

	// RequiredSurvivors is the minimum party size.
	RequiredSurvivors int `yaml:"required_survivors"`
	// Skills maps recommended skill names to reference levels; every party
	// member's level in each adds to the success chance.
	Skills map[string]int `yaml:"skills"`
	// Attributes names the stats whose values add to the success chance.
	// The decision engine rejects names a survivor cannot supply.
	Attributes []string `yaml:"attributes"`

	Prerequisites Prerequisites `yaml:"prerequisites"`

	// Encounter must be set for ActionCombat and is ignored otherwise.
	Encounter *EncounterSpec `yaml:"encounter"`

	OnSuccess         effect.Set `yaml:"on_success"`
	OnFailure         effect.Set `yaml:"on_failure"`
	OnCriticalSuccess effect.Set `yaml:"on_critical_success"`
	OnCriticalFailure effect.Set `yaml:"on_critical_failure"`
	// OnStalemate is the neutral payload for drawn combat. Usually empty.
	OnStalemate effect.Set `yaml:"on_stalemate"`
}

// Trait is a character quirk that modifies resolution.
type Trait struct {
	ID          string `yaml:"id" validate:"required"`
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description"`
	// PointCost is positive for benefits; drawbacks are negative and refund points.
	PointCost int `yaml:"point_cost"`
	// CheckBonus is the flat percent added to decision checks (may be negative).
	CheckBonus float64 `yaml:"check_bonus"`
	// StressGainMod scales incoming stress (e.g. -0.20 for 20% less).
	StressGainMod float64 `yaml:"stress_gain_mod"`
	// AttributeMods are applied at character creation.
	AttributeMods map[string]int `yaml:"attribute_mods"`
	// Conflicts lists traits that cannot be taken together with this one.
	Conflicts []string `yaml:"conflicts"`
}

// Skill is a learnable proficiency.
type Skill struct {
	ID          string `yaml:"id" validate:"required"`
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description"`
	// Attribute is the governing stat.
	Attribute string `yaml:"attribute" validate:"required"`
	// Prereqs are the minimum attribute values needed to learn level 1.
	Prereqs map[string]int `yaml:"prereqs"`
	// Cost is the character-creation point cost for level 1.
	Cost int `yaml:"cost" validate:"gte=0"`
	// MaxLevel caps training.
	MaxLevel int `yaml:"max_level" validate:"gte=1"`
}

// Node is one location on the overworld map.
type Node struct {
	ID          string `yaml:"id" validate:"required"`
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description"`
	Danger      int    `yaml:"danger" validate:"gte=0,lte=5"`
	// Hazard is the environmental hazard tag ("Fog", "Fire", "Plague Cloud"), if any.
	Hazard string `yaml:"hazard"`
	// Connected lists reachable node IDs.
	Connected []string `yaml:"connected"`
	// Quests lists action IDs available at this node.
	Quests []string `yaml:"quests"`
	// Resources maps resource names to scavengeable quantities.
	Resources map[string]int `yaml:"resources"`
}
