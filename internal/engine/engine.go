package engine

import (
	"log/slog"
	"strings"

	"github.com/roach88/progression/internal/catalog"
	"github.com/roach88/progression/internal/ladder"
	"github.com/roach88/progression/internal/model"
	"github.com/roach88/progression/internal/store"
)

// QuestRules configures one quest type.
type QuestRules struct {
	// Slots is how many instances a set holds.
	Slots int
	// MaxRerolls caps rerolls per user per period.
	MaxRerolls int
	// RerollCost is what the caller's ledger must cover for one reroll.
	RerollCost model.Reward
}

// DefaultRules are applied to quest types without an explicit WithRules.
var DefaultRules = map[model.PeriodType]QuestRules{
	model.PeriodDaily:  {Slots: 5, MaxRerolls: 3, RerollCost: model.Reward{Gems: 50}},
	model.PeriodWeekly: {Slots: 5, MaxRerolls: 2, RerollCost: model.Reward{Gems: 150}},
}

// Engine is the progression service.
//
// Thread-safety: all methods are safe for concurrent use. Correctness under
// concurrent calls for the same user comes from the store, not from locks.
type Engine struct {
	store   *store.Store
	catalog *catalog.Catalog
	scaler  *ladder.Scaler
	clock   Clock
	ids     IDGenerator
	log     *slog.Logger
	rules   map[model.PeriodType]QuestRules
	cache   *generationCache
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithClock sets the clock that selects the current period.
// Default: SystemClock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithIDGenerator sets the settlement id source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithRules overrides the rules of one quest type.
func WithRules(questType model.PeriodType, r QuestRules) Option {
	return func(e *Engine) {
		e.rules[questType] = r
	}
}

// New creates an Engine over s generating from c.
func New(s *store.Store, c *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		catalog: c,
		scaler:  ladder.NewScaler(c.BadgeTiers()),
		clock:   SystemClock{},
		ids:     UUIDv7Generator{},
		log:     slog.Default(),
		rules:   make(map[model.PeriodType]QuestRules, len(DefaultRules)),
		cache:   newGenerationCache(),
	}
	for pt, r := range DefaultRules {
		e.rules[pt] = r
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Rules returns the rules in effect for questType.
func (e *Engine) Rules(questType model.PeriodType) QuestRules {
	return e.rules[questType]
}

// Catalog returns the catalog the engine generates from.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Scaler returns the achievement ladder scaler.
func (e *Engine) Scaler() *ladder.Scaler {
	return e.scaler
}

// CurrentPeriod returns the id of the period questType is in right now.
func (e *Engine) CurrentPeriod(questType model.PeriodType) string {
	return model.PeriodID(questType, e.clock.Now())
}

func validateUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return newError(CodeValidation, "", "user id is required")
	}
	return nil
}

func validateQuestType(userID string, questType model.PeriodType) error {
	if !questType.IsValid() {
		return newError(CodeValidation, userID, "unknown quest type %q", questType)
	}
	return nil
}
