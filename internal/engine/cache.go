package engine

import (
	"sync"

	"github.com/roach88/progression/internal/model"
)

type cacheKey struct {
	userID    string
	questType model.PeriodType
	periodID  string
	slots     int
}

// generationCache memoizes generator output. Generation is pure, so entries
// can only go unused, never stale; the janitor drops expired periods.
type generationCache struct {
	mu      sync.Mutex
	entries map[cacheKey][]model.QuestInstance
}

func newGenerationCache() *generationCache {
	return &generationCache{entries: make(map[cacheKey][]model.QuestInstance)}
}

func (c *generationCache) get(k cacheKey) ([]model.QuestInstance, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	return cloneInstances(v), true
}

func (c *generationCache) put(k cacheKey, v []model.QuestInstance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[k] = cloneInstances(v)
}

// prune removes entries of questType older than currentPeriodID and returns
// how many were dropped.
func (c *generationCache) prune(questType model.PeriodType, currentPeriodID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if k.questType == questType && k.periodID < currentPeriodID {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *generationCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cloneInstances(v []model.QuestInstance) []model.QuestInstance {
	out := make([]model.QuestInstance, len(v))
	copy(out, v)
	return out
}
