package scan

import "context"

// SelectedKeyEvent is emitted once for every key that passes the filter.
type SelectedKeyEvent struct {
	Source   string
	Key      string
	IdleTime int64
	// TTL is nil when no TTL clause is configured.
	TTL *int64
}

// SummaryEvent is the terminal record of a successful scan.
type SummaryEvent struct {
	KeysScanned  int64
	KeysSelected int64
	Options      Options
}

// Emitter receives scan results as they are produced. Calls are serialized
// by the Scanner; Summary is called at most once and always last.
type Emitter interface {
	Selected(ctx context.Context, ev SelectedKeyEvent) error
	Summary(ctx context.Context, ev SummaryEvent) error
}

// Event is one item of the stream returned by Scanner.Stream. Exactly one
// of Selected, Summary or Err is set; Summary and Err are terminal.
type Event struct {
	Selected *SelectedKeyEvent
	Summary  *SummaryEvent
	Err      error
}

// ChanEmitter forwards events to an unbuffered channel so the consumer's
// pace throttles the scan.
type ChanEmitter struct {
	ch chan<- Event
}

func NewChanEmitter(ch chan<- Event) *ChanEmitter {
	return &ChanEmitter{ch: ch}
}

func (c *ChanEmitter) Selected(ctx context.Context, ev SelectedKeyEvent) error {
	return c.send(ctx, Event{Selected: &ev})
}

func (c *ChanEmitter) Summary(ctx context.Context, ev SummaryEvent) error {
	return c.send(ctx, Event{Summary: &ev})
}

func (c *ChanEmitter) send(ctx context.Context, ev Event) error {
	select {
	case c.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
