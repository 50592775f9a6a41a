package scan

import (
	"errors"
	"net"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/baechuer/redis-idle-scan/internal/domain"
)

const (
	DefaultPattern      = "*"
	DefaultScanBatch    = 1000
	DefaultPort         = 6379
	DefaultSentinelPort = 26379
)

var validate = validator.New()

// Options is the effective configuration of one scan. It is built and
// validated once before connecting and never mutated afterwards.
type Options struct {
	Host       string `validate:"required"`
	Port       int    `validate:"min=1,max=65535"`
	MasterName string
	Password   string
	DB         int `validate:"min=0"`

	Pattern   string `validate:"required"`
	ScanBatch int64  `validate:"min=1"`
	// ScanLimit caps keys examined; 0 means unbounded.
	ScanLimit int64 `validate:"min=0"`
	// SelectLimit caps keys selected; 0 means unbounded.
	SelectLimit int64 `validate:"min=0"`

	// Bounds in seconds; nil means the clause is not configured.
	MaxIdle *int64 `validate:"omitempty,min=0"`
	MinIdle *int64 `validate:"omitempty,min=0"`
	MaxTTL  *int64 `validate:"omitempty,min=0"`
	MinTTL  *int64 `validate:"omitempty,min=0"`

	NoExpiry bool
}

// DefaultOptions returns Options for host with every default filled in.
func DefaultOptions(host string) Options {
	return Options{
		Host:      host,
		Port:      DefaultPort,
		Pattern:   DefaultPattern,
		ScanBatch: DefaultScanBatch,
	}
}

// Validate checks o against the option schema.
func (o Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		reason := fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return domain.ErrInvalidField(fe.Field(), reason)
	}
	return domain.Wrap(domain.KindValidation, "invalid_options", "invalid options", err)
}

// NeedsTTL reports whether any clause depends on the key's TTL, in which
// case the fetcher must request it alongside the idle time.
func (o Options) NeedsTTL() bool {
	return o.NoExpiry || o.MaxTTL != nil || o.MinTTL != nil
}

// Source identifies the scanned server in emitted records.
func (o Options) Source() string {
	if o.MasterName != "" {
		return o.MasterName
	}
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// MarshalZerologObject flattens the options into a log record. Limits are
// always written, 0 meaning unbounded; unset bounds are omitted. Password is
// never written.
func (o Options) MarshalZerologObject(e *zerolog.Event) {
	e.Str("host", o.Host).Int("port", o.Port)
	if o.MasterName != "" {
		e.Str("masterName", o.MasterName)
	}
	e.Int("db", o.DB).
		Str("pattern", o.Pattern).
		Int64("scanBatch", o.ScanBatch).
		Int64("scanLimit", o.ScanLimit).
		Int64("limit", o.SelectLimit).
		Bool("noExpiry", o.NoExpiry)
	optInt64(e, "maxIdle", o.MaxIdle)
	optInt64(e, "minIdle", o.MinIdle)
	optInt64(e, "maxTTL", o.MaxTTL)
	optInt64(e, "minTTL", o.MinTTL)
}

func optInt64(e *zerolog.Event, key string, v *int64) {
	if v != nil {
		e.Int64(key, *v)
	}
}
