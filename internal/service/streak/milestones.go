package streak

import (
	"fmt"
	"sort"

	"github.com/stylay/checkin-service/internal/config"
	"github.com/stylay/checkin-service/internal/models"
)

// Milestone is one entry of the reward table: reaching exactly Days of streak
// awards the reward described by Kind/Currency/Label.
type Milestone struct {
	Days     int                  `json:"days"`
	Kind     models.MilestoneKind `json:"kind"`
	Currency int64                `json:"currency"`
	Label    string               `json:"label"`
}

// MilestoneTable is the immutable, process-wide reward configuration. It is
// built once at startup from config and read-only thereafter.
type MilestoneTable struct {
	milestones  []Milestone // sorted by Days ascending
	byDays      map[int]Milestone
	loyaltyDays int // 0 when no loyalty_badge milestone is configured
}

// NewMilestoneTable validates and indexes the configured milestone entries.
func NewMilestoneTable(entries []config.MilestoneConfig) (*MilestoneTable, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("milestone table must not be empty")
	}

	table := &MilestoneTable{
		milestones: make([]Milestone, 0, len(entries)),
		byDays:     make(map[int]Milestone, len(entries)),
	}

	for _, e := range entries {
		if e.Days <= 0 {
			return nil, fmt.Errorf("milestone day count must be positive, got %d", e.Days)
		}
		if _, dup := table.byDays[e.Days]; dup {
			return nil, fmt.Errorf("duplicate milestone for day %d", e.Days)
		}

		kind := models.MilestoneKind(e.Kind)
		switch kind {
		case models.MilestoneCurrency:
			if e.Currency <= 0 {
				return nil, fmt.Errorf("currency milestone at day %d must award a positive amount", e.Days)
			}
		case models.MilestoneLoyaltyBadge:
			if e.Currency != 0 {
				return nil, fmt.Errorf("loyalty badge milestone at day %d must not award currency", e.Days)
			}
		default:
			return nil, fmt.Errorf("unknown milestone kind %q at day %d", e.Kind, e.Days)
		}

		m := Milestone{Days: e.Days, Kind: kind, Currency: e.Currency, Label: e.Label}
		table.milestones = append(table.milestones, m)
		table.byDays[e.Days] = m
	}

	sort.Slice(table.milestones, func(i, j int) bool {
		return table.milestones[i].Days < table.milestones[j].Days
	})

	// The loyalty threshold is the first badge milestone in streak order.
	for _, m := range table.milestones {
		if m.Kind == models.MilestoneLoyaltyBadge {
			table.loyaltyDays = m.Days
			break
		}
	}

	return table, nil
}

// Lookup returns the milestone for an exact streak length, if configured.
func (t *MilestoneTable) Lookup(days int) (Milestone, bool) {
	m, ok := t.byDays[days]
	return m, ok
}

// Next returns the smallest milestone strictly greater than the given streak.
func (t *MilestoneTable) Next(days int) (Milestone, bool) {
	for _, m := range t.milestones {
		if m.Days > days {
			return m, true
		}
	}
	return Milestone{}, false
}

// LoyaltyThreshold returns the streak length that permanently grants the
// loyalty badge. ok is false when no badge milestone is configured.
func (t *MilestoneTable) LoyaltyThreshold() (int, bool) {
	return t.loyaltyDays, t.loyaltyDays > 0
}

// All returns the milestones in ascending streak order.
func (t *MilestoneTable) All() []Milestone {
	out := make([]Milestone, len(t.milestones))
	copy(out, t.milestones)
	return out
}
