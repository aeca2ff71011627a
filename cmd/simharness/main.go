// Package main provides the simulation harness binary: it loads content and
// configuration, assembles the resolution engines, and runs repeated action
// or combat simulations, reporting aggregate outcome statistics.
package main

import (
	"flag"
	"log"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/emberfall/emberfall/internal/config"
	"github.com/emberfall/emberfall/internal/game/actor"
	"github.com/emberfall/emberfall/internal/game/blueprint"
	"github.com/emberfall/emberfall/internal/game/combat"
	"github.com/emberfall/emberfall/internal/game/decision"
	"github.com/emberfall/emberfall/internal/game/dice"
	"github.com/emberfall/emberfall/internal/game/resolve"
	"github.com/emberfall/emberfall/internal/harness"
	"github.com/emberfall/emberfall/internal/observability"
	"github.com/emberfall/emberfall/internal/scripting"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/sim.yaml", "path to configuration file")
	contentRoot := flag.String("content", "content", "root directory of content YAML")
	scriptDir := flag.String("scripts", "content/scripts/effects", "directory of effect hook scripts; empty = scripting disabled")
	actionID := flag.String("action", "scavenge-food", "action to simulate")
	runs := flag.Int("runs", 0, "simulation runs; 0 = use configured default")
	danger := flag.Int("danger", 1, "node danger level")
	fog := flag.Bool("fog", false, "resolve under fog")
	seed := flag.Uint64("seed", 0, "deterministic dice seed; 0 = random")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	var src dice.Source
	if *seed != 0 {
		src = dice.NewPCGSource(*seed)
		logger.Info("using seeded dice", zap.Uint64("seed", *seed))
	} else {
		src = dice.NewPCGSource(rand.Uint64())
	}
	roller := dice.NewRoller(src, logger)

	contentStart := time.Now()
	lib, err := blueprint.Load(*contentRoot)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("hostiles", lib.Hostiles.Len()),
		zap.Int("actions", lib.Actions.Len()),
		zap.Int("traits", lib.Traits.Len()),
		zap.Int("skills", lib.Skills.Len()),
		zap.Int("nodes", lib.Nodes.Len()),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	var scripts *scripting.Manager
	if *scriptDir != "" {
		scripts = scripting.NewManager(roller, logger)
		defer scripts.Close()
		if err := scripts.LoadPack("core", *scriptDir, 0); err != nil {
			logger.Fatal("loading effect scripts", zap.Error(err))
		}
	}

	decisions := decision.NewEngine(cfg.Resolution, lib.Traits, src, logger)
	combats := combat.NewEngine(cfg.Combat, src, logger)
	resolver := resolve.NewResolver(lib, decisions, combats, logger)
	applier := harness.NewApplier(roller, scripts, "core", logger)

	runCount := *runs
	if runCount <= 0 {
		runCount = cfg.Harness.Runs
	}

	party := func() ([]*actor.Actor, error) {
		return demoParty()
	}
	ctx := resolve.Context{Danger: *danger, Fog: *fog}

	metrics, err := harness.RunAction(runCount, party, resolver, *actionID, ctx, applier, logger)
	if err != nil {
		logger.Fatal("running simulation", zap.Error(err))
	}

	for label, count := range metrics.Outcomes {
		logger.Info("outcome tally",
			zap.Stringer("outcome", label),
			zap.Int("count", count),
		)
	}
	for name, amount := range metrics.Ledger.Resources {
		logger.Info("ledger balance",
			zap.String("resource", name),
			zap.Float64("amount", amount),
		)
	}
	logger.Info("simulation complete",
		zap.String("action", *actionID),
		zap.Int("runs", metrics.Runs),
		zap.Float64("success_pct", metrics.SuccessPct),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// demoParty builds the reference three-survivor party used when no roster
// source is wired in.
func demoParty() ([]*actor.Actor, error) {
	mara, err := actor.NewSurvivor("mara", "Mara", map[string]int{
		actor.Strength: 6, actor.Agility: 7, actor.Intellect: 5, actor.Perception: 6,
		actor.Charisma: 4, actor.Constitution: 5, actor.Sanity: 6,
	})
	if err != nil {
		return nil, err
	}
	mara.LearnSkill(actor.SkillSmallArms, 2)
	mara.LearnSkill("scavenging", 1)

	joel, err := actor.NewSurvivor("joel", "Joel", map[string]int{
		actor.Strength: 8, actor.Agility: 4, actor.Intellect: 4, actor.Perception: 5,
		actor.Charisma: 5, actor.Constitution: 7, actor.Sanity: 5,
	})
	if err != nil {
		return nil, err
	}
	joel.LearnSkill(actor.SkillMeleeWeaponry, 3)

	tess, err := actor.NewSurvivor("tess", "Tess", map[string]int{
		actor.Strength: 4, actor.Agility: 8, actor.Intellect: 7, actor.Perception: 8,
		actor.Charisma: 6, actor.Constitution: 4, actor.Sanity: 7,
	})
	if err != nil {
		return nil, err
	}
	tess.LearnSkill(actor.SkillStealth, 2)
	tess.LearnSkill("medicine", 1)

	return []*actor.Actor{mara, joel, tess}, nil
}
