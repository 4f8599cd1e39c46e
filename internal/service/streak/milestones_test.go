package streak

import (
	"testing"

	"github.com/stylay/checkin-service/internal/config"
)

func TestNewMilestoneTable_Validation(t *testing.T) {
	tests := []struct {
		name    string
		entries []config.MilestoneConfig
		wantErr bool
	}{
		{"default table", config.DefaultMilestones(), false},
		{"empty table", nil, true},
		{"zero days", []config.MilestoneConfig{{Days: 0, Kind: "currency", Currency: 100}}, true},
		{"duplicate days", []config.MilestoneConfig{
			{Days: 7, Kind: "currency", Currency: 100},
			{Days: 7, Kind: "currency", Currency: 200},
		}, true},
		{"currency without amount", []config.MilestoneConfig{{Days: 7, Kind: "currency"}}, true},
		{"badge with amount", []config.MilestoneConfig{{Days: 40, Kind: "loyalty_badge", Currency: 50}}, true},
		{"unknown kind", []config.MilestoneConfig{{Days: 7, Kind: "confetti", Currency: 100}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMilestoneTable(tt.entries)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMilestoneTable() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMilestoneTable_Lookup(t *testing.T) {
	table, err := NewMilestoneTable(config.DefaultMilestones())
	if err != nil {
		t.Fatalf("NewMilestoneTable() failed: %v", err)
	}

	m, ok := table.Lookup(7)
	if !ok || m.Currency != 200 {
		t.Errorf("Expected day 7 to award 200, got %+v (ok=%v)", m, ok)
	}

	if _, ok := table.Lookup(8); ok {
		t.Error("Day 8 must not be a milestone")
	}
}

func TestMilestoneTable_Next(t *testing.T) {
	table, err := NewMilestoneTable(config.DefaultMilestones())
	if err != nil {
		t.Fatalf("NewMilestoneTable() failed: %v", err)
	}

	next, ok := table.Next(7)
	if !ok || next.Days != 14 {
		t.Errorf("Expected next milestone after 7 to be 14, got %+v (ok=%v)", next, ok)
	}

	if _, ok := table.Next(40); ok {
		t.Error("No milestone beyond the last entry")
	}
}

func TestMilestoneTable_LoyaltyThreshold(t *testing.T) {
	table, err := NewMilestoneTable(config.DefaultMilestones())
	if err != nil {
		t.Fatalf("NewMilestoneTable() failed: %v", err)
	}

	threshold, ok := table.LoyaltyThreshold()
	if !ok || threshold != 40 {
		t.Errorf("Expected loyalty threshold 40, got %d (ok=%v)", threshold, ok)
	}

	currencyOnly, err := NewMilestoneTable([]config.MilestoneConfig{
		{Days: 7, Kind: "currency", Currency: 100, Label: "week"},
	})
	if err != nil {
		t.Fatalf("NewMilestoneTable() failed: %v", err)
	}
	if _, ok := currencyOnly.LoyaltyThreshold(); ok {
		t.Error("Table without badge milestone must report no threshold")
	}
}
