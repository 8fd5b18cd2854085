// Package config loads progression settings from PROGRESSION_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/progression/internal/engine"
	"github.com/roach88/progression/internal/model"
)

// Config holds every setting the CLI and the engine read at startup.
type Config struct {
	DBPath      string `env:"PROGRESSION_DB_PATH" envDefault:"progression.db"`
	CatalogPath string `env:"PROGRESSION_CATALOG_PATH"`

	DailySlots       int   `env:"PROGRESSION_DAILY_SLOTS" envDefault:"5"`
	WeeklySlots      int   `env:"PROGRESSION_WEEKLY_SLOTS" envDefault:"5"`
	DailyMaxRerolls  int   `env:"PROGRESSION_DAILY_MAX_REROLLS" envDefault:"3"`
	WeeklyMaxRerolls int   `env:"PROGRESSION_WEEKLY_MAX_REROLLS" envDefault:"2"`
	DailyRerollCost  int64 `env:"PROGRESSION_DAILY_REROLL_COST" envDefault:"50"`
	WeeklyRerollCost int64 `env:"PROGRESSION_WEEKLY_REROLL_COST" envDefault:"150"`

	JanitorInterval time.Duration `env:"PROGRESSION_JANITOR_INTERVAL" envDefault:"1h"`
}

// ParseEnv loads configuration from the process environment.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// ParseMap loads configuration from vars instead of the process environment.
func ParseMap(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("PROGRESSION_DB_PATH must not be empty"))
	}
	if c.DailySlots < 1 {
		errs = append(errs, fmt.Errorf("PROGRESSION_DAILY_SLOTS must be positive, got %d", c.DailySlots))
	}
	if c.WeeklySlots < 1 {
		errs = append(errs, fmt.Errorf("PROGRESSION_WEEKLY_SLOTS must be positive, got %d", c.WeeklySlots))
	}
	if c.DailyMaxRerolls < 0 {
		errs = append(errs, fmt.Errorf("PROGRESSION_DAILY_MAX_REROLLS must not be negative, got %d", c.DailyMaxRerolls))
	}
	if c.WeeklyMaxRerolls < 0 {
		errs = append(errs, fmt.Errorf("PROGRESSION_WEEKLY_MAX_REROLLS must not be negative, got %d", c.WeeklyMaxRerolls))
	}
	if c.DailyRerollCost < 0 {
		errs = append(errs, fmt.Errorf("PROGRESSION_DAILY_REROLL_COST must not be negative, got %d", c.DailyRerollCost))
	}
	if c.WeeklyRerollCost < 0 {
		errs = append(errs, fmt.Errorf("PROGRESSION_WEEKLY_REROLL_COST must not be negative, got %d", c.WeeklyRerollCost))
	}
	if c.JanitorInterval <= 0 {
		errs = append(errs, fmt.Errorf("PROGRESSION_JANITOR_INTERVAL must be positive, got %s", c.JanitorInterval))
	}
	return errors.Join(errs...)
}

// Rules returns the quest rules of questType. Reroll costs are in gems.
func (c Config) Rules(questType model.PeriodType) engine.QuestRules {
	if questType == model.PeriodWeekly {
		return engine.QuestRules{
			Slots:      c.WeeklySlots,
			MaxRerolls: c.WeeklyMaxRerolls,
			RerollCost: model.Reward{Gems: c.WeeklyRerollCost},
		}
	}
	return engine.QuestRules{
		Slots:      c.DailySlots,
		MaxRerolls: c.DailyMaxRerolls,
		RerollCost: model.Reward{Gems: c.DailyRerollCost},
	}
}

// EngineOptions returns the engine options that apply c's rules.
func (c Config) EngineOptions() []engine.Option {
	opts := make([]engine.Option, 0, len(model.PeriodTypes))
	for _, pt := range model.PeriodTypes {
		opts = append(opts, engine.WithRules(pt, c.Rules(pt)))
	}
	return opts
}
