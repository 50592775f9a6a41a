package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/baechuer/redis-idle-scan/internal/domain"
	"github.com/baechuer/redis-idle-scan/internal/workerpool"
)

// State is the lifecycle phase of a Scanner.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateDraining
	StateFinished
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateDraining:
		return "draining"
	case StateFinished:
		return "finished"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Pager enumerates the key space one page at a time. done is true on the
// last page; keys may be empty on any page.
type Pager interface {
	NextPage(ctx context.Context) (keys []string, done bool, err error)
}

// Fetcher retrieves metadata for a page in one round trip. The result is
// positionally aligned with keys.
type Fetcher interface {
	Fetch(ctx context.Context, keys []string, withTTL bool) ([]KeyRecord, error)
}

// Recorder observes scan progress. *metrics.Metrics implements it.
type Recorder interface {
	PageDispatched(n int)
	BatchResolved(d time.Duration, err error)
	KeySelected()
	SetInFlight(n int)
}

type nopRecorder struct{}

func (nopRecorder) PageDispatched(int) {}
func (nopRecorder) BatchResolved(time.Duration, error) {}
func (nopRecorder) KeySelected() {}
func (nopRecorder) SetInFlight(int) {}

var errAlreadyRun = errors.New("scanner already run")

// Scanner drives one scan: sequential page enumeration, concurrent
// fetch-and-filter per page, and a single terminal summary or error.
//
// All scan state is guarded by mu. Batch resolution, including event
// emission, happens under mu, so emitted events are serialized in the order
// batches resolve and the summary can only follow them.
type Scanner struct {
	opts        Options
	pager       Pager
	fetcher     Fetcher
	rec         Recorder
	lg          zerolog.Logger
	maxInFlight int

	mu            sync.Mutex
	state         State
	keysScanned   int64
	keysSelected  int64
	atSelectLimit bool
	inFlight      int
	err           error
	terminal      sync.Once
}

// ScannerOption customizes a Scanner.
type ScannerOption func(*Scanner)

func WithLogger(lg zerolog.Logger) ScannerOption {
	return func(s *Scanner) { s.lg = lg }
}

func WithRecorder(r Recorder) ScannerOption {
	return func(s *Scanner) {
		if r != nil {
			s.rec = r
		}
	}
}

// WithMaxInFlight caps concurrent batch fetches; n <= 0 leaves them unbounded.
func WithMaxInFlight(n int) ScannerOption {
	return func(s *Scanner) { s.maxInFlight = n }
}

func NewScanner(opts Options, pager Pager, fetcher Fetcher, options ...ScannerOption) *Scanner {
	s := &Scanner{
		opts:    opts,
		pager:   pager,
		fetcher: fetcher,
		rec:     nopRecorder{},
		lg:      zerolog.Nop(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// State returns the current lifecycle phase.
func (s *Scanner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run performs the scan, handing results to emit as they are produced.
// It returns the summary that was emitted, or the error that aborted the
// scan; in the latter case no summary is emitted. A Scanner runs once.
func (s *Scanner) Run(ctx context.Context, emit Emitter) (SummaryEvent, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return SummaryEvent{}, errAlreadyRun
	}
	s.state = StateScanning
	s.mu.Unlock()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	pool := workerpool.New(s.maxInFlight)
	needsTTL := s.opts.NeedsTTL()

	s.lg.Debug().
		Str("pattern", s.opts.Pattern).
		Int64("scan_batch", s.opts.ScanBatch).
		Bool("needs_ttl", needsTTL).
		Int("max_in_flight", pool.Size()).
		Msg("scan started")

	for {
		if err := ctx.Err(); err != nil {
			s.fail(cancel, s.classify(ctx, err, domain.ErrScanFailed))
			break
		}

		keys, done, err := s.pager.NextPage(ctx)
		if err != nil {
			s.fail(cancel, s.classify(ctx, err, domain.ErrScanFailed))
			break
		}

		submit, stop := s.dispatch(keys)
		if submit {
			page := keys
			pool.Submit(func() { s.resolve(ctx, cancel, page, needsTTL, emit) })
		}
		if stop || done {
			break
		}
	}

	s.mu.Lock()
	if s.state == StateScanning {
		s.state = StateDraining
		s.lg.Debug().Int("in_flight", s.inFlight).Int64("keys_scanned", s.keysScanned).Msg("draining")
	}
	s.mu.Unlock()

	pool.Wait()

	return s.finish(ctx, cancel, emit)
}

// Stream runs the scan in the background and returns its events: selected
// keys as they resolve, then one terminal event carrying either the summary
// or the error. The channel is closed after the terminal event. Callers
// must drain the channel or cancel ctx.
func (s *Scanner) Stream(ctx context.Context) <-chan Event {
	ch := make(chan Event)
	go func() {
		defer close(ch)
		if _, err := s.Run(ctx, NewChanEmitter(ch)); err != nil {
			select {
			case ch <- Event{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return ch
}

// dispatch accounts for a page about to be fetched. It reports whether the
// page needs a fetch and whether enumeration must stop after it.
func (s *Scanner) dispatch(keys []string) (submit, stop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return false, true
	}

	n := len(keys)
	s.keysScanned += int64(n)
	if n > 0 {
		s.inFlight++
		s.rec.PageDispatched(n)
		s.rec.SetInFlight(s.inFlight)
	}

	s.lg.Debug().Int("page_keys", n).Int64("keys_scanned", s.keysScanned).Msg("page dispatched")

	stop = s.atSelectLimit || (s.opts.ScanLimit > 0 && s.keysScanned >= s.opts.ScanLimit)
	return n > 0, stop
}

// resolve fetches metadata for one page and emits the keys it selects.
func (s *Scanner) resolve(ctx context.Context, cancel context.CancelCauseFunc, keys []string, needsTTL bool, emit Emitter) {
	start := time.Now()
	records, err := s.fetcher.Fetch(ctx, keys, needsTTL)
	s.rec.BatchResolved(time.Since(start), err)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight--
	s.rec.SetInFlight(s.inFlight)

	if s.err != nil {
		return
	}
	if err != nil {
		s.failLocked(cancel, s.classify(ctx, err, domain.ErrFetchFailed))
		return
	}
	if len(records) != len(keys) {
		s.failLocked(cancel, domain.ErrFetchFailed(fmt.Errorf("got %d results for %d keys", len(records), len(keys))))
		return
	}

	source := s.opts.Source()
	for _, r := range records {
		if s.atSelectLimit {
			break
		}
		if r.Gone || !Select(r, s.opts) {
			continue
		}

		ev := SelectedKeyEvent{Source: source, Key: r.Key, IdleTime: r.IdleTime}
		if needsTTL {
			ttl := r.TTL
			ev.TTL = &ttl
		}
		if err := emit.Selected(ctx, ev); err != nil {
			s.failLocked(cancel, s.classify(ctx, err, domain.ErrEmitFailed))
			return
		}

		s.keysSelected++
		s.rec.KeySelected()
		if s.opts.SelectLimit > 0 && s.keysSelected >= s.opts.SelectLimit {
			s.atSelectLimit = true
		}
	}
}

// finish fires the terminal latch once every batch has resolved.
func (s *Scanner) finish(ctx context.Context, cancel context.CancelCauseFunc, emit Emitter) (SummaryEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err == nil && ctx.Err() != nil {
		s.failLocked(cancel, domain.ErrInterrupted(context.Cause(ctx)))
	}
	if s.err != nil {
		return SummaryEvent{}, s.err
	}

	var (
		summary SummaryEvent
		err     error
	)
	s.terminal.Do(func() {
		summary = SummaryEvent{
			KeysScanned:  s.keysScanned,
			KeysSelected: s.keysSelected,
			Options:      s.opts,
		}
		if emitErr := emit.Summary(ctx, summary); emitErr != nil {
			err = domain.ErrEmitFailed(emitErr)
			s.err = err
			s.state = StateFailed
			return
		}
		s.state = StateFinished
		s.lg.Debug().
			Int64("keys_scanned", summary.KeysScanned).
			Int64("keys_selected", summary.KeysSelected).
			Msg("scan finished")
	})
	if err != nil {
		return SummaryEvent{}, err
	}
	return summary, nil
}

func (s *Scanner) fail(cancel context.CancelCauseFunc, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLocked(cancel, err)
}

// failLocked fires the error side of the terminal latch. Only the first
// error is kept; in-flight work is cancelled through the context.
func (s *Scanner) failLocked(cancel context.CancelCauseFunc, err error) {
	s.terminal.Do(func() {
		s.err = err
		s.state = StateFailed
		cancel(err)
		s.lg.Debug().Err(err).Int("in_flight", s.inFlight).Msg("scan aborted")
	})
}

// classify maps a raw failure to a domain error. Failures caused by the
// caller cancelling ctx are reported as interruptions.
func (s *Scanner) classify(ctx context.Context, err error, wrap func(error) *domain.Error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	if ctx.Err() != nil {
		return domain.ErrInterrupted(context.Cause(ctx))
	}
	return wrap(err)
}
