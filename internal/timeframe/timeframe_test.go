package timeframe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/redis-idle-scan/internal/domain"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"0s", 0},
		{"45s", 45},
		{"30m", 1800},
		{"2h", 7200},
		{"1d", 86400},
		{"1w", 604800},
		{" 3d ", 259200},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []string{
		"",
		"s",
		"10",
		"10y",
		"-5m",
		"1.5h",
		"w1",
		"99999999999999999999s",
		"9999999999999999w",
	}

	for _, in := range cases {
		_, err := Parse(in)
		if assert.Error(t, err, "input %q", in) {
			assert.True(t, domain.Is(err, "invalid_timeframe"), "input %q", in)
		}
	}
}
