package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/roach88/progression/internal/model"
)

func replacement(periodID string) model.QuestInstance {
	return model.QuestInstance{
		InstanceID:  model.InstanceID(periodID, "z"),
		TemplateID:  "z",
		Category:    "other",
		TrackingKey: "key_z",
		Goal:        3,
		Reward:      model.Reward{Coins: 1, Items: []model.Item{}},
		Difficulty:  model.DifficultyEasy,
	}
}

func TestRerollCount_Zero(t *testing.T) {
	s := createTestStore(t)

	n, err := s.RerollCount(context.Background(), "alice", model.PeriodDaily, testPeriod)
	if err != nil {
		t.Fatalf("RerollCount() failed: %v", err)
	}
	if n != 0 {
		t.Errorf("RerollCount() = %d, want 0", n)
	}
}

func TestApplyReroll(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	set := mustCreateSet(t, s, createTestSet("alice", testPeriod, 5, 10))

	got, err := s.ApplyReroll(ctx, RerollChange{
		Set:           set,
		Slot:          1,
		Replacement:   replacement(testPeriod),
		ExpectedCount: 0,
		MaxRerolls:    3,
	})
	if err != nil {
		t.Fatalf("ApplyReroll() failed: %v", err)
	}
	if got.Version != 2 || got.Instances[1].TemplateID != "z" || got.Instances[0].TemplateID != "a" {
		t.Errorf("returned set = %+v", got)
	}

	stored, _, _ := s.ReadQuestSet(ctx, "alice", model.PeriodDaily, testPeriod)
	if stored.Instances[1].TemplateID != "z" || stored.Version != 2 {
		t.Errorf("stored set = %+v", stored)
	}
	n, _ := s.RerollCount(ctx, "alice", model.PeriodDaily, testPeriod)
	if n != 1 {
		t.Errorf("RerollCount() = %d, want 1", n)
	}
	if set.Instances[1].TemplateID != "b" {
		t.Error("ApplyReroll() mutated the caller's set")
	}
}

func TestApplyReroll_Conflicts(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, s *Store, set *model.QuestSet, change *RerollChange)
	}{
		{
			name: "counter moved",
			setup: func(t *testing.T, s *Store, set *model.QuestSet, change *RerollChange) {
				change.ExpectedCount = 1
			},
		},
		{
			name: "cap reached",
			setup: func(t *testing.T, s *Store, set *model.QuestSet, change *RerollChange) {
				change.MaxRerolls = 0
			},
		},
		{
			name: "set version moved",
			setup: func(t *testing.T, s *Store, set *model.QuestSet, change *RerollChange) {
				if _, err := s.ReplaceQuestSet(context.Background(), *set); err != nil {
					t.Fatalf("ReplaceQuestSet() failed: %v", err)
				}
			},
		},
		{
			name: "instance started",
			setup: func(t *testing.T, s *Store, set *model.QuestSet, change *RerollChange) {
				old := set.Instances[change.Slot]
				if _, _, err := s.IncrementQuest(context.Background(), set.UserID, set.QuestType, set.PeriodID, old.InstanceID, old.Goal, 1); err != nil {
					t.Fatalf("IncrementQuest() failed: %v", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := createTestStore(t)
			ctx := context.Background()
			set := mustCreateSet(t, s, createTestSet("alice", testPeriod, 5, 10))
			change := RerollChange{
				Set:           set,
				Slot:          0,
				Replacement:   replacement(testPeriod),
				ExpectedCount: 0,
				MaxRerolls:    3,
			}
			tt.setup(t, s, &set, &change)

			_, err := s.ApplyReroll(ctx, change)
			if !errors.Is(err, ErrConflict) {
				t.Fatalf("ApplyReroll() error = %v, want ErrConflict", err)
			}

			n, _ := s.RerollCount(ctx, "alice", model.PeriodDaily, testPeriod)
			if n != 0 {
				t.Errorf("counter = %d after a rejected reroll, want 0", n)
			}
			stored, _, _ := s.ReadQuestSet(ctx, "alice", model.PeriodDaily, testPeriod)
			if stored.Instances[0].TemplateID != "a" {
				t.Errorf("slot replaced despite conflict: %+v", stored.Instances[0])
			}
		})
	}
}

func TestApplyReroll_SlotOutOfRange(t *testing.T) {
	s := createTestStore(t)
	set := mustCreateSet(t, s, createTestSet("alice", testPeriod, 5))

	_, err := s.ApplyReroll(context.Background(), RerollChange{Set: set, Slot: 4, MaxRerolls: 3})
	if err == nil || errors.Is(err, ErrConflict) {
		t.Errorf("error = %v, want a non-conflict range error", err)
	}
}

func TestApplyReroll_ConcurrentSingleWinner(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	set := mustCreateSet(t, s, createTestSet("alice", testPeriod, 5, 10))

	const workers = 8
	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ApplyReroll(ctx, RerollChange{
				Set:         set,
				Slot:        0,
				Replacement: replacement(testPeriod),
				MaxRerolls:  3,
			})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, ErrConflict):
				conflicts.Add(1)
			default:
				t.Errorf("ApplyReroll() failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 || conflicts.Load() != workers-1 {
		t.Errorf("wins = %d conflicts = %d", wins.Load(), conflicts.Load())
	}
	n, _ := s.RerollCount(ctx, "alice", model.PeriodDaily, testPeriod)
	if n != 1 {
		t.Errorf("counter = %d, want 1", n)
	}
}
