package collector

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseInterval converts a bar interval such as "15m", "1h", "1d" or "1wk"
// into a duration.
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	units := []struct {
		suffix string
		unit   time.Duration
	}{
		{"wk", 7 * 24 * time.Hour},
		{"mo", 30 * 24 * time.Hour},
		{"w", 7 * 24 * time.Hour},
		{"d", 24 * time.Hour},
		{"h", time.Hour},
		{"m", time.Minute},
	}
	for _, u := range units {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(s, u.suffix))
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid interval %q", s)
		}
		return time.Duration(n) * u.unit, nil
	}
	return 0, fmt.Errorf("invalid interval %q", s)
}
