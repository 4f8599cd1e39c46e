package streak

import "testing"

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0K"},
		{1500, "1.5K"},
		{999949, "999.9K"},
		{999999, "999999"},
		{1000000, "1.0M"},
		{2500000, "2.5M"},
		{1250, "1.2K"}, // half rounds to even
		{1350, "1.4K"},
	}

	for _, tt := range tests {
		if got := FormatCurrency(tt.amount); got != tt.want {
			t.Errorf("FormatCurrency(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
