// Package drivertest provides an in-memory implementation of the driver
// interfaces for unit tests. It never starts a browser.
package drivertest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/networkteam/uiharness/driver"
)

var (
	// ErrNotFound is returned when an action targets a selector without an element.
	ErrNotFound = errors.New("drivertest: no element matches selector")
	// ErrTimeout is returned by Locator.WaitFor when the state is not reached in time.
	ErrTimeout = errors.New("drivertest: timeout waiting for element state")
	// ErrClosed is returned when acting on a closed page or context.
	ErrClosed = errors.New("drivertest: target closed")
)

// Engine is a fake driver.Engine returning Browser on launch.
type Engine struct {
	Browser   *Browser
	LaunchErr error

	mu       sync.Mutex
	launches []driver.LaunchOptions
	stopped  bool
}

var _ driver.Engine = (*Engine)(nil)

// NewEngine creates an engine with a connected browser.
func NewEngine() *Engine {
	return &Engine{Browser: NewBrowser()}
}

func (e *Engine) Launch(opts driver.LaunchOptions) (driver.Browser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.LaunchErr != nil {
		return nil, e.LaunchErr
	}
	e.launches = append(e.launches, opts)
	return e.Browser, nil
}

func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped = true
	return nil
}

// Launches returns the options of every launch so far.
func (e *Engine) Launches() []driver.LaunchOptions {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]driver.LaunchOptions(nil), e.launches...)
}

// Stopped reports whether Stop was called.
func (e *Engine) Stopped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopped
}

// Browser is a fake driver.Browser that tracks open contexts.
type Browser struct {
	// NewContextErr fails the next NewContext calls.
	NewContextErr error
	// Setup is called for every new page, before it is returned. Tests use it to
	// populate elements.
	Setup func(p *Page)

	mu        sync.Mutex
	open      map[*Context]struct{}
	created   []*Context
	connected bool
}

var _ driver.Browser = (*Browser)(nil)

// NewBrowser creates a connected browser without contexts.
func NewBrowser() *Browser {
	return &Browser{
		open:      make(map[*Context]struct{}),
		connected: true,
	}
}

func (b *Browser) NewContext(opts driver.ContextOptions) (driver.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return nil, ErrClosed
	}
	if b.NewContextErr != nil {
		return nil, b.NewContextErr
	}
	c := &Context{browser: b, opts: opts}
	b.open[c] = struct{}{}
	b.created = append(b.created, c)
	return c, nil
}

func (b *Browser) Contexts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.open)
}

// Created returns every context created so far, open or closed.
func (b *Browser) Created() []*Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Context(nil), b.created...)
}

func (b *Browser) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// Disconnect simulates a crashed browser process.
func (b *Browser) Disconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = false
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = false
	b.open = make(map[*Context]struct{})
	return nil
}

func (b *Browser) release(c *Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.open, c)
}

// Context is a fake driver.Context.
type Context struct {
	// StopTracingErr is returned by StopTracing after tracing was stopped.
	StopTracingErr error
	// NewPageErr fails NewPage.
	NewPageErr error

	browser *Browser
	opts    driver.ContextOptions

	mu         sync.Mutex
	pages      []*Page
	tracing    bool
	traceOpts  driver.TraceOptions
	traceStops []string
	closed     bool
}

var _ driver.Context = (*Context)(nil)

// Options returns the options the context was created with.
func (c *Context) Options() driver.ContextOptions {
	return c.opts
}

func (c *Context) NewPage() (driver.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.NewPageErr != nil {
		return nil, c.NewPageErr
	}

	p := newPage()
	if c.opts.RecordVideoDir != "" {
		if err := os.MkdirAll(c.opts.RecordVideoDir, 0o755); err != nil {
			return nil, err
		}
		raw := filepath.Join(c.opts.RecordVideoDir, uuid.Must(uuid.NewV4()).String()+".webm")
		if err := os.WriteFile(raw, []byte("webm"), 0o644); err != nil {
			return nil, err
		}
		p.video = &Video{raw: raw}
	}
	if c.browser.Setup != nil {
		c.browser.Setup(p)
	}
	c.pages = append(c.pages, p)
	return p, nil
}

// Pages returns the pages opened in this context.
func (c *Context) Pages() []*Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Page(nil), c.pages...)
}

func (c *Context) StartTracing(opts driver.TraceOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tracing {
		return errors.New("drivertest: tracing already started")
	}
	c.tracing = true
	c.traceOpts = opts
	return nil
}

// TraceOptions returns the options of the last StartTracing call.
func (c *Context) TraceOptions() driver.TraceOptions {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.traceOpts
}

// Tracing reports whether tracing is active.
func (c *Context) Tracing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracing
}

// TraceStops returns the paths passed to StopTracing.
func (c *Context) TraceStops() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.traceStops...)
}

func (c *Context) StopTracing(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.tracing {
		return errors.New("drivertest: tracing not started")
	}
	c.tracing = false
	c.traceStops = append(c.traceStops, path)
	if c.StopTracingErr != nil {
		return c.StopTracingErr
	}
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("trace:"+c.traceOpts.Name), 0o644)
}

func (c *Context) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	pages := append([]*Page(nil), c.pages...)
	c.mu.Unlock()

	for _, p := range pages {
		_ = p.Close()
	}
	c.browser.release(c)
	return nil
}

// Closed reports whether the context was closed.
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Video is a fake recording backed by a file in the recording directory.
type Video struct {
	// SaveAsErr fails SaveAs.
	SaveAsErr error

	mu      sync.Mutex
	raw     string
	deleted bool
}

var _ driver.Video = (*Video)(nil)

// Path returns the raw recording path.
func (v *Video) Path() string {
	return v.raw
}

func (v *Video) SaveAs(path string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.SaveAsErr != nil {
		return v.SaveAsErr
	}
	if v.deleted {
		return fmt.Errorf("drivertest: video %s already deleted", v.raw)
	}
	data, err := os.ReadFile(v.raw)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (v *Video) Delete() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.deleted = true
	if err := os.Remove(v.raw); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// pollInterval is how often WaitFor re-checks element state.
const pollInterval = 5 * time.Millisecond
