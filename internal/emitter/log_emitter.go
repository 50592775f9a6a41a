// Package emitter writes scan results as a stream of JSON log records, one
// per selected key followed by a single summary record.
package emitter

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/baechuer/redis-idle-scan/internal/scan"
)

// LogEmitter implements scan.Emitter on top of a zerolog JSON logger.
type LogEmitter struct {
	out *stickyWriter
	lg  zerolog.Logger
}

var _ scan.Emitter = (*LogEmitter)(nil)

func NewLogEmitter(w io.Writer) *LogEmitter {
	out := &stickyWriter{w: w}
	return &LogEmitter{
		out: out,
		lg:  zerolog.New(out).With().Timestamp().Logger(),
	}
}

// Selected writes {name, key, idletime, ttl?}.
func (e *LogEmitter) Selected(_ context.Context, ev scan.SelectedKeyEvent) error {
	rec := e.lg.Info().
		Str("name", ev.Source).
		Str("key", ev.Key).
		Int64("idletime", ev.IdleTime)
	if ev.TTL != nil {
		rec = rec.Int64("ttl", *ev.TTL)
	}
	rec.Msg("selected")
	return e.out.Err()
}

// Summary writes {keysScanned, keysSelected, <options>}.
func (e *LogEmitter) Summary(_ context.Context, ev scan.SummaryEvent) error {
	e.lg.Info().
		Str("name", ev.Options.Source()).
		Int64("keysScanned", ev.KeysScanned).
		Int64("keysSelected", ev.KeysSelected).
		EmbedObject(ev.Options).
		Msg("summary")
	return e.out.Err()
}

// stickyWriter remembers the first write error so that a closed stdout
// aborts the scan instead of silently dropping records.
type stickyWriter struct {
	w   io.Writer
	mu  sync.Mutex
	err error
}

func (s *stickyWriter) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if err != nil {
		s.mu.Lock()
		if s.err == nil {
			s.err = err
		}
		s.mu.Unlock()
	}
	return n, err
}

func (s *stickyWriter) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
