package scan

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/redis-idle-scan/internal/domain"
)

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions("redis.local")

	assert.Equal(t, "redis.local", o.Host)
	assert.Equal(t, 6379, o.Port)
	assert.Equal(t, "*", o.Pattern)
	assert.Equal(t, int64(1000), o.ScanBatch)
	assert.Zero(t, o.ScanLimit)
	assert.Zero(t, o.SelectLimit)
	assert.NoError(t, o.Validate())
}

func TestOptions_Validate_AcceptsResolvableNames(t *testing.T) {
	for _, host := range []string{"redis_1", "cache.internal", "10.0.0.5", "::1"} {
		assert.NoError(t, DefaultOptions(host).Validate(), host)
	}
}

func TestOptions_Validate(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*Options)
		field string
	}{
		{"missing host", func(o *Options) { o.Host = "" }, "Host"},
		{"port zero", func(o *Options) { o.Port = 0 }, "Port"},
		{"port too big", func(o *Options) { o.Port = 70000 }, "Port"},
		{"negative db", func(o *Options) { o.DB = -1 }, "DB"},
		{"empty pattern", func(o *Options) { o.Pattern = "" }, "Pattern"},
		{"zero batch", func(o *Options) { o.ScanBatch = 0 }, "ScanBatch"},
		{"negative scan limit", func(o *Options) { o.ScanLimit = -1 }, "ScanLimit"},
		{"negative bound", func(o *Options) { o.MinIdle = i64(-5) }, "MinIdle"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := DefaultOptions("localhost")
			tc.mut(&o)

			err := o.Validate()
			require.Error(t, err)

			var de *domain.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, domain.KindValidation, de.Kind)
			assert.Equal(t, tc.field, de.Meta["field"])
		})
	}
}

func TestOptions_ValidateAcceptsIPs(t *testing.T) {
	for _, host := range []string{"127.0.0.1", "::1", "cache-01.internal"} {
		o := DefaultOptions(host)
		assert.NoError(t, o.Validate(), host)
	}
}

func TestOptions_NeedsTTL(t *testing.T) {
	o := DefaultOptions("localhost")
	o.MaxIdle = i64(10)
	o.MinIdle = i64(1)
	assert.False(t, o.NeedsTTL())

	withNoExpiry := o
	withNoExpiry.NoExpiry = true
	assert.True(t, withNoExpiry.NeedsTTL())

	withMax := o
	withMax.MaxTTL = i64(0)
	assert.True(t, withMax.NeedsTTL())

	withMin := o
	withMin.MinTTL = i64(60)
	assert.True(t, withMin.NeedsTTL())
}

func TestOptions_Source(t *testing.T) {
	o := DefaultOptions("10.0.0.5")
	o.Port = 6380
	assert.Equal(t, "10.0.0.5:6380", o.Source())

	o.MasterName = "mymaster"
	assert.Equal(t, "mymaster", o.Source())

	v6 := DefaultOptions("::1")
	assert.Equal(t, "[::1]:6379", v6.Source())
}

func TestOptions_MarshalZerologObject_Defaults(t *testing.T) {
	var buf bytes.Buffer
	lg := zerolog.New(&buf)
	lg.Info().EmbedObject(DefaultOptions("localhost")).Msg("summary")

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, float64(0), got["scanLimit"])
	assert.Equal(t, float64(0), got["limit"])
	assert.Equal(t, false, got["noExpiry"])
	assert.NotContains(t, got, "minTTL")
}

func TestOptions_MarshalZerologObject(t *testing.T) {
	o := DefaultOptions("localhost")
	o.Password = "hunter2"
	o.SelectLimit = 5
	o.MinIdle = i64(604800)
	o.NoExpiry = true

	var buf bytes.Buffer
	lg := zerolog.New(&buf)
	lg.Info().EmbedObject(o).Msg("summary")

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "localhost", got["host"])
	assert.Equal(t, float64(6379), got["port"])
	assert.Equal(t, float64(0), got["db"])
	assert.Equal(t, "*", got["pattern"])
	assert.Equal(t, float64(1000), got["scanBatch"])
	assert.Equal(t, float64(5), got["limit"])
	assert.Equal(t, float64(604800), got["minIdle"])
	assert.Equal(t, true, got["noExpiry"])

	// unbounded limits are written as 0 so the record describes the whole run
	assert.Equal(t, float64(0), got["scanLimit"])
	assert.NotContains(t, got, "maxIdle")
	assert.NotContains(t, got, "masterName")
	assert.NotContains(t, buf.String(), "hunter2")
}
