package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/progression/internal/model"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSet builds a daily set of instances with the given goals.
func createTestSet(userID, periodID string, goals ...int64) model.QuestSet {
	set := model.QuestSet{
		UserID:    userID,
		QuestType: model.PeriodDaily,
		PeriodID:  periodID,
	}
	for i, g := range goals {
		templateID := string(rune('a' + i))
		set.Instances = append(set.Instances, model.QuestInstance{
			InstanceID:  model.InstanceID(periodID, templateID),
			TemplateID:  templateID,
			Category:    "test",
			Description: "Do it",
			TrackingKey: "key_" + templateID,
			Goal:        g,
			Reward:      model.Reward{Coins: 10 * g, Items: []model.Item{}},
			Difficulty:  model.DifficultyEasy,
		})
	}
	return set
}

// mustCreateSet stores set and returns the stored copy.
func mustCreateSet(t *testing.T, s *Store, set model.QuestSet) model.QuestSet {
	t.Helper()
	stored, err := s.CreateQuestSet(context.Background(), set)
	if err != nil {
		t.Fatalf("CreateQuestSet() failed: %v", err)
	}
	return stored
}

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
