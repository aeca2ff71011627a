package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emberfall/emberfall/internal/game/actor"
	"github.com/emberfall/emberfall/internal/game/combat"
	"github.com/emberfall/emberfall/internal/game/dice"
	"github.com/emberfall/emberfall/internal/game/effect"
	"github.com/emberfall/emberfall/internal/scripting"
)

func newSurvivor(t testing.TB, name string, attrs map[string]int) *actor.Actor {
	t.Helper()
	full := map[string]int{
		actor.Strength: 5, actor.Agility: 5, actor.Intellect: 5, actor.Perception: 5,
		actor.Charisma: 5, actor.Constitution: 5, actor.Sanity: 5,
	}
	for k, v := range attrs {
		full[k] = v
	}
	s, err := actor.NewSurvivor(name, name, full)
	require.NoError(t, err)
	return s
}

func newApplier(t testing.TB) *Applier {
	t.Helper()
	roller := dice.NewRoller(dice.NewPCGSource(7), zap.NewNop())
	return NewApplier(roller, nil, "core", zap.NewNop())
}

func TestApplyDamageHealStress(t *testing.T) {
	a := newApplier(t)
	mara := newSurvivor(t, "mara", nil)
	joel := newSurvivor(t, "joel", nil)
	party := []*actor.Actor{mara, joel}

	// 20 damage to the party lands as 15 each after CON 5 reduction.
	a.Apply(party, NewLedger(), effect.Set{{Kind: effect.KindDamage, Target: "party", Amount: 20}})
	assert.Equal(t, 75, mara.CurrentHP)
	assert.Equal(t, 75, joel.CurrentHP)

	// Heal only mara by ID.
	a.Apply(party, NewLedger(), effect.Set{{Kind: effect.KindHeal, Target: "mara", Amount: 10}})
	assert.Equal(t, 85, mara.CurrentHP)
	assert.Equal(t, 75, joel.CurrentHP)

	// Stress gains mitigate through SAN 5 (25%); negatives reduce directly.
	a.Apply(party, NewLedger(), effect.Set{{Kind: effect.KindStressDelta, Target: "mara", Amount: 20}})
	assert.Equal(t, 15, mara.CurrentStress)
	a.Apply(party, NewLedger(), effect.Set{{Kind: effect.KindStressDelta, Target: "mara", Amount: -10}})
	assert.Equal(t, 5, mara.CurrentStress)
}

func TestApplySkipsDownActors(t *testing.T) {
	a := newApplier(t)
	mara := newSurvivor(t, "mara", nil)
	mara.ApplyDamage(1000)
	require.False(t, mara.Alive())

	a.Apply([]*actor.Actor{mara}, NewLedger(), effect.Set{{Kind: effect.KindDamage, Target: "party", Amount: 20}})
	assert.Equal(t, 0, mara.CurrentHP)
}

func TestApplyResourcesClampAtZero(t *testing.T) {
	a := newApplier(t)
	ledger := NewLedger()
	party := []*actor.Actor{newSurvivor(t, "mara", nil)}

	a.Apply(party, ledger, effect.Set{
		{Kind: effect.KindResourceDelta, Target: "food", Amount: 10},
		{Kind: effect.KindResourceDelta, Target: "food", Amount: -25},
		{Kind: effect.KindItemGrant, Target: "bandage", Amount: 2},
		{Kind: effect.KindExperience, Target: "xp", Amount: 50},
	})
	assert.Equal(t, 0.0, ledger.Resources["food"])
	assert.Equal(t, 2.0, ledger.Resources["bandage"])
	assert.Equal(t, 50.0, ledger.Resources["xp"])
}

func TestApplyPerSurvivorScaling(t *testing.T) {
	a := newApplier(t)
	ledger := NewLedger()
	party := []*actor.Actor{
		newSurvivor(t, "mara", nil),
		newSurvivor(t, "joel", nil),
		newSurvivor(t, "tess", nil),
	}

	a.Apply(party, ledger, effect.Set{
		{Kind: effect.KindResourceDelta, Target: "food", Amount: 4, PerSurvivor: true},
	})
	assert.Equal(t, 12.0, ledger.Resources["food"])
}

func TestApplyPerSurvivorDamageIsFlatPerMember(t *testing.T) {
	a := newApplier(t)
	party := []*actor.Actor{
		newSurvivor(t, "mara", map[string]int{actor.Constitution: 0}),
		newSurvivor(t, "joel", map[string]int{actor.Constitution: 0}),
		newSurvivor(t, "tess", map[string]int{actor.Constitution: 0}),
	}

	// Party-targeted kinds already hit every member; the per-survivor flag
	// must not compound on top of that.
	a.Apply(party, NewLedger(), effect.Set{
		{Kind: effect.KindDamage, Target: "party", Amount: 10, PerSurvivor: true},
	})
	for _, s := range party {
		assert.Equal(t, s.MaxHP-10, s.CurrentHP, s.Name)
	}
}

func TestApplyStatDelta(t *testing.T) {
	a := newApplier(t)
	mara := newSurvivor(t, "mara", nil)

	a.Apply([]*actor.Actor{mara}, NewLedger(), effect.Set{
		{Kind: effect.KindStatDelta, Target: actor.Strength, Amount: 1},
	})
	assert.Equal(t, 6, mara.Attr(actor.Strength))
}

func TestApplyInjuryChanceCertain(t *testing.T) {
	a := newApplier(t)
	mara := newSurvivor(t, "mara", nil)

	a.Apply([]*actor.Actor{mara}, NewLedger(), effect.Set{
		{Kind: effect.KindInjuryChance, Target: "party", Amount: 100},
	})
	assert.Less(t, mara.CurrentHP, mara.MaxHP, "a certain injury must deal damage")
}

func TestApplyInjuryChanceNever(t *testing.T) {
	a := newApplier(t)
	mara := newSurvivor(t, "mara", nil)

	a.Apply([]*actor.Actor{mara}, NewLedger(), effect.Set{
		{Kind: effect.KindInjuryChance, Target: "party", Amount: 0},
	})
	assert.Equal(t, mara.MaxHP, mara.CurrentHP)
}

func TestApplyCustomEffectViaScript(t *testing.T) {
	dir := t.TempDir()
	script := `
		function campfire_rest(target, amount)
			return { hp = amount, stress = -amount }
		end
	`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "effects.lua"), []byte(script), 0644))

	logger := zap.NewNop()
	roller := dice.NewRoller(dice.NewPCGSource(7), logger)
	scripts := scripting.NewManager(roller, logger)
	t.Cleanup(scripts.Close)
	require.NoError(t, scripts.LoadPack("core", dir, 0))

	a := NewApplier(roller, scripts, "core", logger)
	mara := newSurvivor(t, "mara", nil)
	mara.ApplyDamage(40)
	mara.GainStress(20)
	hpBefore, stressBefore := mara.CurrentHP, mara.CurrentStress

	a.Apply([]*actor.Actor{mara}, NewLedger(), effect.Set{
		{Kind: effect.KindCustom, Target: "campfire_rest", Amount: 10},
	})
	assert.Equal(t, hpBefore+10, mara.CurrentHP)
	assert.Equal(t, stressBefore-10, mara.CurrentStress)
}

func TestApplyCustomEffectWithoutScriptsIsNoOp(t *testing.T) {
	a := newApplier(t)
	mara := newSurvivor(t, "mara", nil)

	a.Apply([]*actor.Actor{mara}, NewLedger(), effect.Set{
		{Kind: effect.KindCustom, Target: "campfire_rest", Amount: 10},
	})
	assert.Equal(t, mara.MaxHP, mara.CurrentHP)
}

func TestApplyDeferred(t *testing.T) {
	a := newApplier(t)
	mara := newSurvivor(t, "mara", nil)
	joel := newSurvivor(t, "joel", nil)

	a.ApplyDeferred([]*actor.Actor{mara, joel}, []combat.DeferredEffect{
		{ActorID: "mara", Effect: effect.Effect{Kind: effect.KindStressDelta, Amount: 20}},
	})
	// SAN 5 mitigates 25% of the 20.
	assert.Equal(t, 15, mara.CurrentStress)
	assert.Equal(t, 0, joel.CurrentStress)
}
