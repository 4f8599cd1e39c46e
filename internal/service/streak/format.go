package streak

import (
	"fmt"
	"strconv"
)

// FormatCurrency renders a currency amount for display: millions as "X.YM",
// thousands as "X.YK", anything below 1000 as the plain integer. One decimal
// place, rounded half to even (Go's %.1f). Amounts just under a million whose
// rounding would overshoot the unit ("1000.0K") fall back to the plain
// integer, so 999999 stays "999999" while 1000000 becomes "1.0M".
func FormatCurrency(amount int64) string {
	switch {
	case amount >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(amount)/1_000_000)
	case amount >= 1_000:
		s := fmt.Sprintf("%.1fK", float64(amount)/1_000)
		if s == "1000.0K" {
			return strconv.FormatInt(amount, 10)
		}
		return s
	default:
		return strconv.FormatInt(amount, 10)
	}
}
