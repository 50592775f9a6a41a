// Package timeframe converts human timeframe literals such as "30m" or "1w"
// into whole seconds.
package timeframe

import (
	"math"
	"strconv"
	"strings"

	"github.com/baechuer/redis-idle-scan/internal/domain"
)

var unitSeconds = map[byte]int64{
	's': 1,
	'm': 60,
	'h': 60 * 60,
	'd': 24 * 60 * 60,
	'w': 7 * 24 * 60 * 60,
}

// Parse returns the number of seconds denoted by s, which must be
// <number><unit> with unit one of s, m, h, d, w.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return 0, domain.ErrInvalidTimeframe(s)
	}

	mult, ok := unitSeconds[s[len(s)-1]]
	if !ok {
		return 0, domain.ErrInvalidTimeframe(s)
	}

	digits := s[:len(s)-1]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, domain.ErrInvalidTimeframe(s)
		}
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n > math.MaxInt64/mult {
		return 0, domain.ErrInvalidTimeframe(s)
	}
	return n * mult, nil
}
