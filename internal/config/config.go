// Package config provides Viper-based configuration loading for the simulator.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ResolutionConfig holds the tunables of the decision engine's chance model.
type ResolutionConfig struct {
	// BaseChance is the default success chance (percent) for actions that do
	// not declare their own.
	BaseChance float64 `mapstructure:"base_chance"`
	// FloorPercent is the minimum computed success chance. No stat gap may
	// push an action below it.
	FloorPercent float64 `mapstructure:"floor_percent"`
	// CeilingPercent is the maximum computed success chance.
	CeilingPercent float64 `mapstructure:"ceiling_percent"`
	// SkillBonusPerLevel is the chance bonus (percent) per relevant skill level.
	SkillBonusPerLevel float64 `mapstructure:"skill_bonus_per_level"`
	// AttributeBonusPerPoint is the chance bonus (percent) per relevant attribute point.
	AttributeBonusPerPoint float64 `mapstructure:"attribute_bonus_per_point"`
	// DifficultyPenalty is the chance penalty (percent) per point of action difficulty.
	DifficultyPenalty float64 `mapstructure:"difficulty_penalty"`
	// DangerPenaltyPerLevel is the chance penalty (percent) per level of node danger.
	DangerPenaltyPerLevel float64 `mapstructure:"danger_penalty_per_level"`
	// CritSuccessThreshold is the minimum d100 roll that upgrades a success
	// to a critical success (for actions with critical tiers).
	CritSuccessThreshold int `mapstructure:"crit_success_threshold"`
	// CritFailureThreshold is the maximum d100 roll that downgrades a failure
	// to a critical failure (for actions with critical tiers).
	CritFailureThreshold int `mapstructure:"crit_failure_threshold"`
}

// CombatConfig holds the combat engine tunables.
type CombatConfig struct {
	// RoundCap is the maximum number of rounds before combat is declared a
	// stalemate. Guarantees termination under degenerate damage/defense ratios.
	RoundCap int `mapstructure:"round_cap"`
	// SurvivorBaseHitChance is the base percent chance for a survivor to hit.
	SurvivorBaseHitChance float64 `mapstructure:"survivor_base_hit_chance"`
	// HostileBaseHitChance is the base percent chance for a hostile to hit.
	HostileBaseHitChance float64 `mapstructure:"hostile_base_hit_chance"`
	// SkillHitBonusPerLevel is the hit chance bonus per relevant weapon skill level.
	SkillHitBonusPerLevel float64 `mapstructure:"skill_hit_bonus_per_level"`
	// AttributeHitBonusPerPoint is the hit chance bonus per relevant attribute point.
	AttributeHitBonusPerPoint float64 `mapstructure:"attribute_hit_bonus_per_point"`
	// SurvivorCritChance is the percent chance a survivor hit deals double damage.
	SurvivorCritChance float64 `mapstructure:"survivor_crit_chance"`
	// HostileCritChance is the percent chance a hostile hit deals double damage.
	HostileCritChance float64 `mapstructure:"hostile_crit_chance"`
	// HostileHPPerDangerLevel is the bonus HP hostiles gain per danger level above 1.
	HostileHPPerDangerLevel int `mapstructure:"hostile_hp_per_danger_level"`
	// FogHitPenalty is the hit chance penalty survivors suffer in fog.
	FogHitPenalty float64 `mapstructure:"fog_hit_penalty"`
	// FogStealthPenalty is the hit chance penalty hostiles suffer in fog
	// against a target trained in Stealth.
	FogStealthPenalty float64 `mapstructure:"fog_stealth_penalty"`
	// StressPerDamage is the stress a survivor accrues per point of damage taken.
	StressPerDamage float64 `mapstructure:"stress_per_damage"`
}

// HarnessConfig holds batch-simulation settings.
type HarnessConfig struct {
	// Runs is the number of simulated combats per harness invocation.
	Runs int `mapstructure:"runs"`
}

// Config is the top-level simulator configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Resolution ResolutionConfig `mapstructure:"resolution"`
	Combat     CombatConfig     `mapstructure:"combat"`
	Harness    HarnessConfig    `mapstructure:"harness"`
}

// Load reads the configuration file at path, applies EMBERFALL_-prefixed
// environment overrides and defaults, and validates the result.
//
// Postcondition: Returns a validated Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix("EMBERFALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper unmarshals and validates a Config from an already-populated Viper.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the built-in configuration without reading any file.
// Useful for tests and for harness runs that need no overrides.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Unmarshalling pure defaults cannot fail.
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("resolution.base_chance", 50.0)
	v.SetDefault("resolution.floor_percent", 5.0)
	v.SetDefault("resolution.ceiling_percent", 95.0)
	v.SetDefault("resolution.skill_bonus_per_level", 5.0)
	v.SetDefault("resolution.attribute_bonus_per_point", 2.0)
	v.SetDefault("resolution.difficulty_penalty", 5.0)
	v.SetDefault("resolution.danger_penalty_per_level", 5.0)
	v.SetDefault("resolution.crit_success_threshold", 95)
	v.SetDefault("resolution.crit_failure_threshold", 5)

	v.SetDefault("combat.round_cap", 100)
	v.SetDefault("combat.survivor_base_hit_chance", 70.0)
	v.SetDefault("combat.hostile_base_hit_chance", 50.0)
	v.SetDefault("combat.skill_hit_bonus_per_level", 5.0)
	v.SetDefault("combat.attribute_hit_bonus_per_point", 2.0)
	v.SetDefault("combat.survivor_crit_chance", 10.0)
	v.SetDefault("combat.hostile_crit_chance", 5.0)
	v.SetDefault("combat.hostile_hp_per_danger_level", 10)
	v.SetDefault("combat.fog_hit_penalty", 15.0)
	v.SetDefault("combat.fog_stealth_penalty", 20.0)
	v.SetDefault("combat.stress_per_damage", 0.5)

	v.SetDefault("harness.runs", 100)
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if the configuration is valid, or an error
// describing every violation.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateResolution(c.Resolution); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCombat(c.Combat); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Harness.Runs < 1 {
		errs = append(errs, fmt.Sprintf("harness.runs must be >= 1, got %d", c.Harness.Runs))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	var errs []string
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", l.Level))
	}
	if l.Format != "json" && l.Format != "console" {
		errs = append(errs, fmt.Sprintf("logging.format must be json or console, got %q", l.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateResolution(r ResolutionConfig) error {
	var errs []string
	if r.FloorPercent < 0 || r.FloorPercent > 100 {
		errs = append(errs, fmt.Sprintf("resolution.floor_percent must be 0-100, got %g", r.FloorPercent))
	}
	if r.CeilingPercent < 0 || r.CeilingPercent > 100 {
		errs = append(errs, fmt.Sprintf("resolution.ceiling_percent must be 0-100, got %g", r.CeilingPercent))
	}
	if r.FloorPercent > r.CeilingPercent {
		errs = append(errs, "resolution.floor_percent must not exceed resolution.ceiling_percent")
	}
	if r.BaseChance < 0 || r.BaseChance > 100 {
		errs = append(errs, fmt.Sprintf("resolution.base_chance must be 0-100, got %g", r.BaseChance))
	}
	if r.CritSuccessThreshold < 1 || r.CritSuccessThreshold > 100 {
		errs = append(errs, fmt.Sprintf("resolution.crit_success_threshold must be 1-100, got %d", r.CritSuccessThreshold))
	}
	if r.CritFailureThreshold < 0 || r.CritFailureThreshold >= r.CritSuccessThreshold {
		errs = append(errs, fmt.Sprintf("resolution.crit_failure_threshold must be in [0, crit_success_threshold), got %d", r.CritFailureThreshold))
	}
	if r.SkillBonusPerLevel < 0 || r.AttributeBonusPerPoint < 0 || r.DifficultyPenalty < 0 || r.DangerPenaltyPerLevel < 0 {
		errs = append(errs, "resolution bonus and penalty rates must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCombat(c CombatConfig) error {
	var errs []string
	if c.RoundCap < 1 {
		errs = append(errs, fmt.Sprintf("combat.round_cap must be >= 1, got %d", c.RoundCap))
	}
	for name, v := range map[string]float64{
		"combat.survivor_base_hit_chance": c.SurvivorBaseHitChance,
		"combat.hostile_base_hit_chance":  c.HostileBaseHitChance,
		"combat.survivor_crit_chance":     c.SurvivorCritChance,
		"combat.hostile_crit_chance":      c.HostileCritChance,
	} {
		if v < 0 || v > 100 {
			errs = append(errs, fmt.Sprintf("%s must be 0-100, got %g", name, v))
		}
	}
	if c.HostileHPPerDangerLevel < 0 {
		errs = append(errs, fmt.Sprintf("combat.hostile_hp_per_danger_level must be >= 0, got %d", c.HostileHPPerDangerLevel))
	}
	if c.StressPerDamage < 0 {
		errs = append(errs, fmt.Sprintf("combat.stress_per_damage must be >= 0, got %g", c.StressPerDamage))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
