package store

import (
	"context"
	"sync"
	"testing"
)

func TestIncrementAchievement(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	total, err := s.IncrementAchievement(ctx, "alice", "roller", 150)
	if err != nil {
		t.Fatalf("IncrementAchievement() failed: %v", err)
	}
	if total != 150 {
		t.Errorf("total = %d, want 150", total)
	}

	total, err = s.IncrementAchievement(ctx, "alice", "roller", 50)
	if err != nil {
		t.Fatalf("IncrementAchievement() failed: %v", err)
	}
	if total != 200 {
		t.Errorf("total = %d, want 200", total)
	}
}

func TestIncrementAchievement_Concurrent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	const workers, per = 10, 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < per; j++ {
				if _, err := s.IncrementAchievement(ctx, "alice", "roller", 1); err != nil {
					t.Errorf("IncrementAchievement() failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	got, err := s.ReadAchievements(ctx, "alice")
	if err != nil {
		t.Fatalf("ReadAchievements() failed: %v", err)
	}
	if got["roller"].Progress != workers*per {
		t.Errorf("progress = %d, want %d", got["roller"].Progress, workers*per)
	}
}

func TestReadAchievements(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	s.IncrementAchievement(ctx, "alice", "roller", 1200)
	s.IncrementAchievement(ctx, "alice", "devotee", 5)
	s.IncrementAchievement(ctx, "bob", "roller", 1)

	err := s.InTx(ctx, func(tx *Tx) error {
		for _, idx := range []int{0, 1} {
			if _, err := tx.ClaimMilestone(ctx, "alice", "roller", idx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("InTx() failed: %v", err)
	}

	got, err := s.ReadAchievements(ctx, "alice")
	if err != nil {
		t.Fatalf("ReadAchievements() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d achievements, want 2", len(got))
	}
	roller := got["roller"]
	if roller.Progress != 1200 || roller.ClaimedCount() != 2 || !roller.Claimed[1] {
		t.Errorf("roller = %+v", roller)
	}
	devotee := got["devotee"]
	if devotee.Claimed == nil || devotee.ClaimedCount() != 0 {
		t.Errorf("devotee = %+v, want an empty non-nil claimed set", devotee)
	}
}

func TestReadAchievements_Empty(t *testing.T) {
	s := createTestStore(t)

	got, err := s.ReadAchievements(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ReadAchievements() failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ReadAchievements() = %v, want an empty map", got)
	}
}

func TestClaimMilestone_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	var first, second bool
	err := s.InTx(ctx, func(tx *Tx) error {
		var err error
		if first, err = tx.ClaimMilestone(ctx, "alice", "roller", 3); err != nil {
			return err
		}
		second, err = tx.ClaimMilestone(ctx, "alice", "roller", 3)
		return err
	})
	if err != nil {
		t.Fatalf("InTx() failed: %v", err)
	}
	if !first || second {
		t.Errorf("inserted = %v then %v, want true then false", first, second)
	}

	err = s.InTx(ctx, func(tx *Tx) error {
		got, err := tx.ReadAchievements(ctx, "alice")
		if err != nil {
			return err
		}
		if !got["roller"].Claimed[3] {
			t.Error("claimed tier 3 missing inside transaction")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("InTx() failed: %v", err)
	}
}
