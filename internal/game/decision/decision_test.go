package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/emberfall/emberfall/internal/config"
	"github.com/emberfall/emberfall/internal/game/actor"
	"github.com/emberfall/emberfall/internal/game/blueprint"
	"github.com/emberfall/emberfall/internal/game/effect"
)

// fixedSource always produces the same d100 roll.
type fixedSource struct {
	roll int
}

func (f *fixedSource) Intn(n int) int {
	if f.roll-1 < n {
		return f.roll - 1
	}
	return n - 1
}

// survivorT is the subset of testing.TB needed by newSurvivor, so it also
// accepts *rapid.T (which does not implement Go 1.26's full testing.TB).
type survivorT interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
}

func newSurvivor(t survivorT, name string, attrs map[string]int) *actor.Actor {
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

func scavengeAction() *blueprint.Action {
	return &blueprint.Action{
		ID:         "scavenge-food",
		Name:       "Scavenge Food",
		Type:       blueprint.ActionQuest,
		Difficulty: 3,
		Skills:     map[string]int{"scavenging": 1},
		Attributes: []string{actor.Strength},
		OnSuccess:  effect.Set{{Kind: effect.KindResourceDelta, Target: "food", Amount: 10}},
		OnFailure:  effect.Set{{Kind: effect.KindStressDelta, Target: "party", Amount: 5}},
	}
}

func TestChanceExampleScenario(t *testing.T) {
	// STR 5 and difficulty 3: 50 + 5*2 - 3*5 = 45.
	e := NewEngine(config.Default().Resolution, nil, &fixedSource{roll: 1}, zap.NewNop())
	s := newSurvivor(t, "mara", map[string]int{actor.Strength: 5})

	a := scavengeAction()
	a.Skills = nil // isolate the attribute term

	chance, err := e.Chance([]*actor.Actor{s}, a, Context{})
	require.NoError(t, err)
	assert.InDelta(t, 45.0, chance, 0.001)
}

func TestChanceSkillAndDangerTerms(t *testing.T) {
	e := NewEngine(config.Default().Resolution, nil, &fixedSource{roll: 1}, zap.NewNop())
	s := newSurvivor(t, "mara", map[string]int{actor.Strength: 5})
	s.LearnSkill("scavenging", 2)

	// 45 + 2*5 (skill) - 2*5 (danger) = 45.
	chance, err := e.Chance([]*actor.Actor{s}, scavengeAction(), Context{Danger: 2})
	require.NoError(t, err)
	assert.InDelta(t, 45.0, chance, 0.001)
}

func TestChanceContextModifiers(t *testing.T) {
	e := NewEngine(config.Default().Resolution, nil, &fixedSource{roll: 1}, zap.NewNop())
	s := newSurvivor(t, "mara", map[string]int{actor.Strength: 5})

	a := scavengeAction()
	a.Skills = nil
	ctx := Context{Modifiers: map[string]float64{"toolkit": 10, "storm": -5}}

	chance, err := e.Chance([]*actor.Actor{s}, a, ctx)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, chance, 0.001)
}

func TestChanceTraitBonus(t *testing.T) {
	reg := blueprint.NewRegistry(map[string]*blueprint.Trait{
		"brave": {ID: "brave", Name: "Brave", CheckBonus: 5},
	})
	e := NewEngine(config.Default().Resolution, reg, &fixedSource{roll: 1}, zap.NewNop())
	s := newSurvivor(t, "mara", map[string]int{actor.Strength: 5})
	s.AddTrait("brave")

	a := scavengeAction()
	a.Skills = nil

	chance, err := e.Chance([]*actor.Actor{s}, a, Context{})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, chance, 0.001)
}

func TestChanceConfigErrors(t *testing.T) {
	e := NewEngine(config.Default().Resolution, nil, &fixedSource{roll: 1}, zap.NewNop())
	s := newSurvivor(t, "mara", nil)

	t.Run("empty party", func(t *testing.T) {
		_, err := e.Chance(nil, scavengeAction(), Context{})
		require.Error(t, err)
		assert.True(t, blueprint.IsConfigError(err))
	})

	t.Run("no stat or skill named", func(t *testing.T) {
		a := scavengeAction()
		a.Skills = nil
		a.Attributes = nil
		_, err := e.Chance([]*actor.Actor{s}, a, Context{})
		require.Error(t, err)
		assert.True(t, blueprint.IsConfigError(err))
	})

	t.Run("unknown attribute", func(t *testing.T) {
		a := scavengeAction()
		a.Attributes = []string{"LCK"}
		_, err := e.Chance([]*actor.Actor{s}, a, Context{})
		require.Error(t, err)
		assert.True(t, blueprint.IsConfigError(err))
		assert.Contains(t, err.Error(), "LCK")
	})
}

func TestChanceClampedProperty(t *testing.T) {
	cfg := config.Default().Resolution
	e := NewEngine(cfg, nil, &fixedSource{roll: 1}, zap.NewNop())

	rapid.Check(t, func(t *rapid.T) {
		str := rapid.IntRange(1, 10).Draw(t, "str")
		skill := rapid.IntRange(0, 10).Draw(t, "skill")
		difficulty := rapid.IntRange(0, 20).Draw(t, "difficulty")
		danger := rapid.IntRange(0, 10).Draw(t, "danger")

		s := newSurvivor(t, "mara", map[string]int{actor.Strength: str})
		s.LearnSkill("scavenging", skill)

		a := scavengeAction()
		a.Difficulty = difficulty

		chance, err := e.Chance([]*actor.Actor{s}, a, Context{Danger: danger})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, chance, cfg.FloorPercent)
		assert.LessOrEqual(t, chance, cfg.CeilingPercent)
	})
}

func TestChanceMonotonicInSkill(t *testing.T) {
	e := NewEngine(config.Default().Resolution, nil, &fixedSource{roll: 1}, zap.NewNop())

	prev := -1.0
	for level := 0; level <= 10; level++ {
		s := newSurvivor(t, "mara", map[string]int{actor.Strength: 5})
		s.LearnSkill("scavenging", level)
		chance, err := e.Chance([]*actor.Actor{s}, scavengeAction(), Context{})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, chance, prev, "level %d", level)
		prev = chance
	}
}

func TestResolveRepeatedCallsIdentical(t *testing.T) {
	s := newSurvivor(t, "mara", map[string]int{actor.Strength: 5})
	a := scavengeAction()

	// Same inputs and the same draw produce the same outcome and payload.
	eng := NewEngine(config.Default().Resolution, nil, &fixedSource{roll: 30}, zap.NewNop())
	label1, effects1, err := eng.Resolve([]*actor.Actor{s}, a, Context{}, nil)
	require.NoError(t, err)
	label2, effects2, err := eng.Resolve([]*actor.Actor{s}, a, Context{}, nil)
	require.NoError(t, err)

	assert.Equal(t, label1, label2)
	assert.Equal(t, effects1, effects2)
}

func TestResolveNeverMutatesParty(t *testing.T) {
	e := NewEngine(config.Default().Resolution, nil, &fixedSource{roll: 30}, zap.NewNop())
	s := newSurvivor(t, "mara", map[string]int{actor.Strength: 5})
	hpBefore, stressBefore := s.CurrentHP, s.CurrentStress

	_, _, err := e.Resolve([]*actor.Actor{s}, scavengeAction(), Context{}, nil)
	require.NoError(t, err)
	assert.Equal(t, hpBefore, s.CurrentHP)
	assert.Equal(t, stressBefore, s.CurrentStress)
}

func TestResolveSuccessAndFailurePayloads(t *testing.T) {
	s := newSurvivor(t, "mara", map[string]int{actor.Strength: 5})
	a := scavengeAction()

	// Chance is 50 with the skill term: roll 50 succeeds, roll 51 fails.
	s.LearnSkill("scavenging", 1)

	eng := NewEngine(config.Default().Resolution, nil, &fixedSource{roll: 50}, zap.NewNop())
	label, effects, err := eng.Resolve([]*actor.Actor{s}, a, Context{}, nil)
	require.NoError(t, err)
	assert.Equal(t, effect.OutcomeSuccess, label)
	require.Len(t, effects, 1)
	assert.Equal(t, effect.KindResourceDelta, effects[0].Kind)

	eng = NewEngine(config.Default().Resolution, nil, &fixedSource{roll: 51}, zap.NewNop())
	label, effects, err = eng.Resolve([]*actor.Actor{s}, a, Context{}, nil)
	require.NoError(t, err)
	assert.Equal(t, effect.OutcomeFailure, label)
	require.Len(t, effects, 1)
	assert.Equal(t, effect.KindStressDelta, effects[0].Kind)
}

func TestResolveCriticalBands(t *testing.T) {
	s := newSurvivor(t, "mara", map[string]int{actor.Strength: 5})

	t.Run("natural high roll upgrades", func(t *testing.T) {
		a := scavengeAction()
		a.Critical = true
		eng := NewEngine(config.Default().Resolution, nil, &fixedSource{roll: 97}, zap.NewNop())

		label, effects, err := eng.Resolve([]*actor.Actor{s}, a, Context{}, nil)
		require.NoError(t, err)
		assert.Equal(t, effect.OutcomeCriticalSuccess, label)
		// No declared critical payload: the base payload is doubled.
		require.Len(t, effects, 1)
		assert.Equal(t, 20, effects[0].Amount)
	})

	t.Run("natural low roll downgrades", func(t *testing.T) {
		a := scavengeAction()
		a.Critical = true
		a.OnCriticalFailure = effect.Set{{Kind: effect.KindInjuryChance, Target: "party", Amount: 25}}
		eng := NewEngine(config.Default().Resolution, nil, &fixedSource{roll: 3}, zap.NewNop())

		label, effects, err := eng.Resolve([]*actor.Actor{s}, a, Context{}, nil)
		require.NoError(t, err)
		assert.Equal(t, effect.OutcomeCriticalFailure, label)
		require.Len(t, effects, 1)
		assert.Equal(t, effect.KindInjuryChance, effects[0].Kind)
	})

	t.Run("bands ignored without the critical flag", func(t *testing.T) {
		a := scavengeAction()
		eng := NewEngine(config.Default().Resolution, nil, &fixedSource{roll: 97}, zap.NewNop())

		label, _, err := eng.Resolve([]*actor.Actor{s}, a, Context{}, nil)
		require.NoError(t, err)
		assert.Equal(t, effect.OutcomeFailure, label)
	})
}

func TestResolveObserver(t *testing.T) {
	s := newSurvivor(t, "mara", map[string]int{actor.Strength: 5})
	eng := NewEngine(config.Default().Resolution, nil, &fixedSource{roll: 30}, zap.NewNop())

	var got Event
	_, _, err := eng.Resolve([]*actor.Actor{s}, scavengeAction(), Context{}, func(ev Event) { got = ev })
	require.NoError(t, err)
	assert.Equal(t, "scavenge-food", got.ActionID)
	assert.Equal(t, []string{"mara"}, got.Party)
	assert.Equal(t, 30, got.Roll)
	assert.Equal(t, effect.OutcomeSuccess, got.Label)
}

func TestEligible(t *testing.T) {
	eng := NewEngine(config.Default().Resolution, nil, &fixedSource{roll: 1}, zap.NewNop())
	s := newSurvivor(t, "mara", nil)

	t.Run("party too small", func(t *testing.T) {
		a := scavengeAction()
		a.RequiredSurvivors = 2
		assert.False(t, eng.Eligible([]*actor.Actor{s}, a))
	})

	t.Run("skill prerequisite", func(t *testing.T) {
		a := scavengeAction()
		a.Prerequisites.Skills = map[string]int{"mechanics": 2}
		assert.False(t, eng.Eligible([]*actor.Actor{s}, a))

		fixer := newSurvivor(t, "joel", nil)
		fixer.LearnSkill("mechanics", 2)
		assert.True(t, eng.Eligible([]*actor.Actor{s, fixer}, a))
	})

	t.Run("one of several skills suffices", func(t *testing.T) {
		a := scavengeAction()
		a.Prerequisites.Skills = map[string]int{"mechanics": 2, "electronics": 2}

		fixer := newSurvivor(t, "joel", nil)
		fixer.LearnSkill("mechanics", 2)
		assert.True(t, eng.Eligible([]*actor.Actor{fixer}, a))
	})

	t.Run("attribute prerequisite", func(t *testing.T) {
		a := scavengeAction()
		a.Prerequisites.Attributes = map[string]int{actor.Strength: 8}
		assert.False(t, eng.Eligible([]*actor.Actor{s}, a))

		strong := newSurvivor(t, "tank", map[string]int{actor.Strength: 8})
		assert.True(t, eng.Eligible([]*actor.Actor{s, strong}, a))
	})
}
