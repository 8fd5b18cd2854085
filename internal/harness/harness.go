package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/progression/internal/catalog"
	"github.com/roach88/progression/internal/engine"
	"github.com/roach88/progression/internal/model"
	"github.com/roach88/progression/internal/store"
	"github.com/roach88/progression/internal/testutil"
)

// Harness drives one engine through a scenario.
type Harness struct {
	store   *store.Store
	engine  *engine.Engine
	janitor *engine.Janitor
	clock   *testutil.ManualClock
	user    string
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and load the catalog
// 2. Build the engine with a manual clock and sequential settlement ids
// 3. Execute setup steps; any failure aborts the run
// 4. Execute flow steps with expect validation
// 5. Evaluate assertions and return the result
func Run(scenario *Scenario) (*Result, error) {
	start, err := scenario.StartTime()
	if err != nil {
		return nil, err
	}

	cat, err := loadCatalog(scenario.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewManualClock(start)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	opts := []engine.Option{
		engine.WithClock(clock),
		engine.WithIDGenerator(testutil.NewSequentialIDGenerator("settlement")),
		engine.WithLogger(logger),
	}
	for pt, r := range scenario.Rules {
		opts = append(opts, engine.WithRules(pt, engine.QuestRules{
			Slots:      r.Slots,
			MaxRerolls: r.MaxRerolls,
			RerollCost: r.RerollCost,
		}))
	}
	eng := engine.New(st, cat, opts...)

	h := &Harness{
		store:   st,
		engine:  eng,
		janitor: engine.NewJanitor(eng, time.Hour),
		clock:   clock,
		user:    scenario.User,
		logger:  logger,
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Setup {
		ev := h.execute(ctx, "setup", i, step)
		result.AddTrace(ev)
		if ev.Code != CodeOK {
			return nil, fmt.Errorf("setup step %d (%s) failed with %s: %v", i, step.Action, ev.Code, ev.Result)
		}
	}

	for i, step := range scenario.Flow {
		ev := h.execute(ctx, "flow", i, step)
		result.AddTrace(ev)
		if msg := checkExpect(i, step, ev); msg != "" {
			result.AddError(msg)
		}
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

// execute runs one step and records it. Engine errors become trace codes;
// malformed args are reported as VALIDATION.
func (h *Harness) execute(ctx context.Context, phase string, index int, step Step) TraceEvent {
	ev := TraceEvent{Step: index, Phase: phase, Action: step.Action, Args: step.Args, Code: CodeOK}

	out, err := h.dispatch(ctx, step)
	if err != nil {
		ev.Code = string(engine.CodeValidation)
		if code := engine.CodeOf(err); code != "" {
			ev.Code = string(code)
		}
		ev.Result = map[string]any{"message": err.Error()}
	} else if out != nil {
		normalized, nerr := normalize(out)
		if nerr != nil {
			ev.Code = "HARNESS"
			ev.Result = map[string]any{"message": nerr.Error()}
		} else {
			ev.Result = normalized
		}
	}

	h.logger.Info("step completed",
		"phase", phase,
		"step", index,
		"action", step.Action,
		"code", ev.Code,
	)
	return ev
}

func (h *Harness) dispatch(ctx context.Context, step Step) (any, error) {
	a := args(step.Args)
	switch step.Action {
	case ActionQuests:
		pt, err := a.questType()
		if err != nil {
			return nil, err
		}
		qs, err := h.engine.Quests(ctx, h.user, pt)
		if err != nil {
			return nil, err
		}
		return map[string]any{"count": len(qs), "quests": qs}, nil

	case ActionTrack:
		key, err := a.str("key")
		if err != nil {
			return nil, err
		}
		amount, err := a.integer("amount", 1)
		if err != nil {
			return nil, err
		}
		r, err := h.engine.Track(ctx, h.user, key, amount)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"quests":       r.Quests,
			"achievements": r.Achievements,
			"completed":    len(r.Completed()),
		}, nil

	case ActionIncrementQuest:
		pt, id, err := h.slotInstance(ctx, a)
		if err != nil {
			return nil, err
		}
		amount, err := a.integer("amount", 1)
		if err != nil {
			return nil, err
		}
		return h.engine.IncrementQuest(ctx, h.user, pt, id, amount)

	case ActionIncrementAchievement:
		id, err := a.str("id")
		if err != nil {
			return nil, err
		}
		amount, err := a.integer("amount", 1)
		if err != nil {
			return nil, err
		}
		return h.engine.IncrementAchievement(ctx, h.user, id, amount)

	case ActionReroll:
		pt, err := a.questType()
		if err != nil {
			return nil, err
		}
		slot, err := a.integer("slot", 1)
		if err != nil {
			return nil, err
		}
		afford, err := a.boolean("afford", true)
		if err != nil {
			return nil, err
		}
		return h.engine.RerollSlot(ctx, h.user, pt, int(slot), func(context.Context, model.Reward) error {
			if !afford {
				return errors.New("balance too low")
			}
			return nil
		})

	case ActionRerollStatus:
		pt, err := a.questType()
		if err != nil {
			return nil, err
		}
		s, err := h.engine.RerollStatus(ctx, h.user, pt)
		if err != nil {
			return nil, err
		}
		return map[string]any{"used": s.Used, "max": s.Max, "remaining": s.Remaining(), "cost": s.Cost}, nil

	case ActionClaim:
		return h.engine.ClaimAll(ctx, h.user)

	case ActionClaimQuest:
		_, id, err := h.slotInstance(ctx, a)
		if err != nil {
			return nil, err
		}
		return h.engine.ClaimQuest(ctx, h.user, id)

	case ActionAchievements:
		st, err := h.engine.Achievements(ctx, h.user)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]engine.AchievementStatus, len(st))
		for _, s := range st {
			byID[s.ID] = s
		}
		return byID, nil

	case ActionAdvance:
		days, err := a.integer("days", 0)
		if err != nil {
			return nil, err
		}
		hours, err := a.integer("hours", 0)
		if err != nil {
			return nil, err
		}
		now := h.clock.Advance(time.Duration(days)*24*time.Hour + time.Duration(hours)*time.Hour)
		return map[string]any{
			"now":    now.Format(time.RFC3339),
			"daily":  h.engine.CurrentPeriod(model.PeriodDaily),
			"weekly": h.engine.CurrentPeriod(model.PeriodWeekly),
		}, nil

	case ActionSweep:
		r, err := h.janitor.Sweep(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"total": r.Total(), "removed": r.Removed, "cache_entries": r.CacheEntries}, nil

	default:
		return nil, fmt.Errorf("unknown action %q", step.Action)
	}
}

// slotInstance resolves {type, slot} to the instance id at that 1-based
// slot, or {type, template} to the instance of that template.
func (h *Harness) slotInstance(ctx context.Context, a args) (model.PeriodType, string, error) {
	pt, err := a.questType()
	if err != nil {
		return "", "", err
	}
	set, err := h.engine.GetOrGenerate(ctx, h.user, pt)
	if err != nil {
		return "", "", err
	}
	if _, ok := a["template"]; ok {
		templateID, err := a.str("template")
		if err != nil {
			return "", "", err
		}
		for _, inst := range set.Instances {
			if inst.TemplateID == templateID {
				return pt, inst.InstanceID, nil
			}
		}
		return "", "", fmt.Errorf("template %q is not in the current %s set", templateID, pt)
	}
	slot, err := a.integer("slot", 1)
	if err != nil {
		return "", "", err
	}
	if slot < 1 || int(slot) > len(set.Instances) {
		return "", "", fmt.Errorf("slot %d out of range 1..%d", slot, len(set.Instances))
	}
	return pt, set.Instances[slot-1].InstanceID, nil
}

// normalize turns a typed result into plain maps, slices, strings, bools
// and float64 numbers, the same shapes expectations compare against.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return out, nil
}

func checkExpect(index int, step Step, ev TraceEvent) string {
	if step.Expect == nil {
		return ""
	}
	if ev.Code != step.Expect.Code {
		return fmt.Sprintf("flow[%d] %s: expected code %s, got %s (%v)", index, step.Action, step.Expect.Code, ev.Code, ev.Result)
	}
	if len(step.Expect.Result) > 0 && !matchSubset(ev.Result, step.Expect.Result) {
		return fmt.Sprintf("flow[%d] %s: result %v does not contain %v", index, step.Action, ev.Result, step.Expect.Result)
	}
	return ""
}

// args reads typed values out of a YAML args map.
type args map[string]any

func (a args) str(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", fmt.Errorf("arg %q is required", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("arg %q must be a string, got %T", key, v)
	}
	return s, nil
}

func (a args) integer(key string, def int64) (int64, error) {
	v, ok := a[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n == float64(int64(n)) {
			return int64(n), nil
		}
	}
	return 0, fmt.Errorf("arg %q must be an integer, got %v", key, v)
}

func (a args) boolean(key string, def bool) (bool, error) {
	v, ok := a[key]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("arg %q must be a boolean, got %T", key, v)
	}
	return b, nil
}

func (a args) questType() (model.PeriodType, error) {
	if _, ok := a["type"]; !ok {
		return model.PeriodDaily, nil
	}
	s, err := a.str("type")
	if err != nil {
		return "", err
	}
	return model.ParsePeriodType(s)
}
