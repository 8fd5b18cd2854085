package model

import (
	"fmt"
	"time"
)

// PeriodType names a reset window family. Quest types and period types are
// the same thing: daily quests live in daily periods.
type PeriodType string

const (
	PeriodDaily  PeriodType = "daily"
	PeriodWeekly PeriodType = "weekly"
)

// PeriodTypes lists every supported type in settlement order.
var PeriodTypes = []PeriodType{PeriodDaily, PeriodWeekly}

// IsValid reports whether p is a supported period type.
func (p PeriodType) IsValid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly:
		return true
	default:
		return false
	}
}

// ParsePeriodType validates s as a period type.
func ParsePeriodType(s string) (PeriodType, error) {
	p := PeriodType(s)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown quest type %q (want daily or weekly)", s)
	}
	return p, nil
}

// PeriodID returns the identifier of the period containing t.
//
// Daily periods are UTC dates ("2024-01-01"); weekly periods are ISO weeks
// ("2024-W01"). Both forms sort lexicographically in time order.
func PeriodID(p PeriodType, t time.Time) string {
	t = t.UTC()
	switch p {
	case PeriodWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	default:
		return t.Format("2006-01-02")
	}
}
