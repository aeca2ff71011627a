package blueprint

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/emberfall/emberfall/internal/game/actor"
	"github.com/emberfall/emberfall/internal/game/dice"
)

// Library bundles every content registry. Lifecycle: Load once at startup,
// pass by reference into the engines, read forever after.
type Library struct {
	Hostiles *Registry[Hostile]
	Actions  *Registry[Action]
	Traits   *Registry[Trait]
	Skills   *Registry[Skill]
	Nodes    *Registry[Node]
}

// Load reads every registry from its subdirectory under root:
// hostiles/, actions/, traits/, skills/, nodes/.
//
// Precondition: root must contain all five subdirectories.
// Postcondition: Returns a fully populated Library or an error naming the
// registry that failed.
func Load(root string) (*Library, error) {
	hostiles, err := LoadDirectory(filepath.Join(root, "hostiles"), func(h *Hostile) string { return h.ID })
	if err != nil {
		return nil, fmt.Errorf("loading hostiles: %w", err)
	}
	// Damage expressions must parse now, not mid-combat.
	var exprErr error
	hostiles.All(func(id string, h *Hostile) {
		if _, err := dice.Parse(h.Damage); err != nil && exprErr == nil {
			exprErr = fmt.Errorf("loading hostiles: %q damage: %w", id, err)
		}
	})
	if exprErr != nil {
		return nil, exprErr
	}

	actions, err := LoadDirectory(filepath.Join(root, "actions"), func(a *Action) string { return a.ID })
	if err != nil {
		return nil, fmt.Errorf("loading actions: %w", err)
	}
	traits, err := LoadDirectory(filepath.Join(root, "traits"), func(t *Trait) string { return t.ID })
	if err != nil {
		return nil, fmt.Errorf("loading traits: %w", err)
	}
	skills, err := LoadDirectory(filepath.Join(root, "skills"), func(s *Skill) string { return s.ID })
	if err != nil {
		return nil, fmt.Errorf("loading skills: %w", err)
	}
	nodes, err := LoadDirectory(filepath.Join(root, "nodes"), func(n *Node) string { return n.ID })
	if err != nil {
		return nil, fmt.Errorf("loading nodes: %w", err)
	}

	return &Library{
		Hostiles: hostiles,
		Actions:  actions,
		Traits:   traits,
		Skills:   skills,
		Nodes:    nodes,
	}, nil
}

// Spawn creates a fresh full-health Actor instance from a hostile blueprint.
// Each instance gets its own UUID so encounter logs can tell siblings apart;
// mutating an instance never touches the blueprint or another instance.
func Spawn(h *Hostile) *actor.Actor {
	traits := make([]string, len(h.Traits))
	copy(traits, h.Traits)
	return &actor.Actor{
		ID:         h.ID + "-" + uuid.NewString(),
		Name:       h.Name,
		Kind:       actor.KindHostile,
		Skills:     map[string]int{},
		Traits:     traits,
		MaxHP:      h.BaseHP,
		CurrentHP:  h.BaseHP,
		DamageExpr: h.Damage,
		Defense:    h.Defense,
		Speed:      h.Speed,
	}
}

// SpawnEncounter assembles the hostile roster a combat action declares, in
// sorted blueprint-ID order so rosters are deterministic.
//
// Postcondition: Returns at least one Actor, or a ConfigError naming the
// unknown hostile ID.
func (l *Library) SpawnEncounter(spec *EncounterSpec) ([]*actor.Actor, error) {
	if spec == nil || len(spec.Hostiles) == 0 {
		return nil, NewConfigError("spawn encounter", "encounter declares no hostiles")
	}

	ids := make([]string, 0, len(spec.Hostiles))
	for id := range spec.Hostiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var roster []*actor.Actor
	for _, id := range ids {
		bp, ok := l.Hostiles.Get(id)
		if !ok {
			return nil, NewConfigError("spawn encounter", "unknown hostile %q", id)
		}
		for range spec.Hostiles[id] {
			roster = append(roster, Spawn(bp))
		}
	}
	if len(roster) == 0 {
		return nil, NewConfigError("spawn encounter", "encounter spawns zero hostiles")
	}
	return roster, nil
}
