// Package dialog turns native browser dialogs, which the driver pushes at an
// unpredictable moment, into a value the test flow can wait for with a bound.
package dialog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/networkteam/uiharness/driver"
)

// DefaultTimeout is the upper bound of Wait. Tests must tolerate it as the worst
// case latency of an interaction that raises no dialog.
const DefaultTimeout = 30 * time.Second

// PollInterval is the granularity at which a polling wait would check for the
// dialog. Wait is notification based and only uses it to report iterations in logs.
const PollInterval = 100 * time.Millisecond

// ErrTimeout is reported by Expectation.Err when no dialog fired within the bound.
var ErrTimeout = errors.New("no dialog observed within bounded wait")

// Expectation states. A dialog handler and Wait race for the transition out of
// stateOpen, whoever wins decides the result.
const (
	stateOpen int32 = iota
	stateClaimed
	stateExpired
)

// Event is the record of one native dialog.
type Event struct {
	Message string
	Kind    string
}

type options struct {
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures an Expectation.
type Option func(*options)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Expectation is a one-shot registration for the next dialog of a page.
// It must be created before the action that raises the dialog.
type Expectation struct {
	timeout time.Duration
	logger  *slog.Logger

	sub driver.Subscription
	// registered is closed once sub is set
	registered chan struct{}

	state atomic.Int32
	done  chan struct{}
	event Event
	// ackErr is the error accepting the dialog, if any
	ackErr error

	mu  sync.Mutex
	err error
}

// Expect registers a handler that records, accepts and then forgets the next
// dialog raised by page. With several outstanding expectations on one page the
// earliest one receives the dialog.
func Expect(page driver.Page, opts ...Option) *Expectation {
	o := options{
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Expectation{
		timeout:    o.timeout,
		logger:     o.logger,
		registered: make(chan struct{}),
		done:       make(chan struct{}),
	}
	e.sub = page.OnDialog(e.handle)
	close(e.registered)
	return e
}

func (e *Expectation) handle(d driver.Dialog) {
	if !e.state.CompareAndSwap(stateOpen, stateClaimed) {
		// Expired or already fired, but this handler still owns the dialog
		if err := d.Dismiss(); err != nil {
			e.logger.Warn("Failed to dismiss dialog", slog.String("message", d.Message()), slog.Any("error", err))
		}
		return
	}

	e.event = Event{Message: d.Message(), Kind: d.Kind()}
	e.ackErr = d.Accept()
	if e.ackErr != nil {
		e.logger.Warn("Failed to accept dialog", slog.String("message", e.event.Message), slog.Any("error", e.ackErr))
	}
	<-e.registered
	e.sub.Unsubscribe()
	close(e.done)
}

// Wait blocks until the dialog was handled, the timeout elapsed or ctx is done,
// whichever comes first. It never returns an error: ok is false when no dialog
// was observed and the event is then empty. A dialog claimed before the bound
// is waited for until it is accepted, so the result always agrees with Fired.
func (e *Expectation) Wait(ctx context.Context) (event Event, ok bool) {
	start := time.Now()
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	var err error
	select {
	case <-e.done:
		return e.event, true
	case <-timer.C:
		err = ErrTimeout
	case <-ctx.Done():
		err = ctx.Err()
	}

	e.sub.Unsubscribe()
	if !e.state.CompareAndSwap(stateOpen, stateExpired) && e.state.Load() == stateClaimed {
		<-e.done
		return e.event, true
	}

	e.setErr(err)
	if errors.Is(err, ErrTimeout) {
		e.logger.Info("No dialog within bounded wait",
			slog.Duration("timeout", e.timeout),
			slog.Int("iterations", int(time.Since(start)/PollInterval)),
		)
	}
	return Event{}, false
}

// Cancel removes the registration without waiting. A dialog raised afterwards
// is not handled by this expectation.
func (e *Expectation) Cancel() {
	e.sub.Unsubscribe()
	e.state.CompareAndSwap(stateOpen, stateExpired)
}

// Fired reports whether the dialog was handled.
func (e *Expectation) Fired() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Message returns the dialog message or "" if no dialog was handled yet.
func (e *Expectation) Message() string {
	if !e.Fired() {
		return ""
	}
	return e.event.Message
}

// Err returns why the last Wait returned without a dialog, or the error
// accepting the dialog.
func (e *Expectation) Err() error {
	if e.Fired() {
		return e.ackErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *Expectation) setErr(err error) {
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
}

// Await registers for the next dialog, runs action and waits for the dialog.
// Errors of action are returned unmodified, the registration is removed in that case.
func Await(ctx context.Context, page driver.Page, action func() error, opts ...Option) (Event, bool, error) {
	e := Expect(page, opts...)
	if err := action(); err != nil {
		e.Cancel()
		return Event{}, false, err
	}
	event, ok := e.Wait(ctx)
	return event, ok, nil
}
