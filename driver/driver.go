// Package driver defines the capabilities the harness needs from a browser
// automation engine and provides an implementation backed by playwright-go.
package driver

import "time"

// State is an element state a Locator can wait for.
type State string

const (
	StateAttached State = "attached"
	StateDetached State = "detached"
	StateVisible  State = "visible"
	StateHidden   State = "hidden"
)

// BrowserKind selects the browser engine to launch.
type BrowserKind string

const (
	Chromium BrowserKind = "chromium"
	Firefox  BrowserKind = "firefox"
	WebKit   BrowserKind = "webkit"
)

// LaunchOptions configure a browser launch. They are fixed for the lifetime of the browser.
type LaunchOptions struct {
	Browser  BrowserKind
	Headless bool
	// SlowMo delays every driver operation, useful when watching a headed run.
	SlowMo time.Duration
}

// ContextOptions configure a new isolated browser context.
type ContextOptions struct {
	// RecordVideoDir enables screen recording of every page into this directory.
	// Empty disables recording.
	RecordVideoDir string
}

// TraceOptions configure trace capture on a context.
type TraceOptions struct {
	Name        string
	Screenshots bool
	Snapshots   bool
}

// Engine is the process-wide handle to the automation runtime.
type Engine interface {
	Launch(opts LaunchOptions) (Browser, error)
	Stop() error
}

// Browser is a launched browser process shared by all sessions.
type Browser interface {
	NewContext(opts ContextOptions) (Context, error)
	// Contexts returns the number of contexts currently open.
	Contexts() int
	IsConnected() bool
	Close() error
}

// Context is an isolated cookie/storage/cache scope inside a browser.
type Context interface {
	NewPage() (Page, error)
	StartTracing(opts TraceOptions) error
	// StopTracing ends trace capture. The trace is written to path unless path is empty,
	// in which case it is discarded.
	StopTracing(path string) error
	Close() error
}

// Page is a single navigable document inside a context.
type Page interface {
	Goto(url string) error
	URL() string
	Locator(selector string) Locator
	// OnDialog registers handler for native dialogs raised by the page.
	// The handler is called on the driver's event goroutine. Each dialog goes to
	// the earliest registered handler only, which must accept or dismiss it.
	OnDialog(handler func(Dialog)) Subscription
	// OnConsole registers handler for console messages for the lifetime of the page.
	OnConsole(handler func(ConsoleMessage))
	// Video returns the recording of this page or nil if recording is disabled.
	Video() Video
	Close() error
}

// Locator resolves elements lazily at the time of each action.
type Locator interface {
	Locator(selector string) Locator
	Fill(value string) error
	Click() error
	IsVisible() (bool, error)
	TextContent() (string, error)
	GetAttribute(name string) (string, error)
	WaitFor(state State, timeout time.Duration) error
}

// Dialog is a native alert, confirm, prompt or beforeunload dialog.
type Dialog interface {
	Message() string
	Kind() string
	Accept() error
	Dismiss() error
}

// ConsoleMessage is a message the page wrote to the browser console.
type ConsoleMessage struct {
	Type string
	Text string
	Time time.Time
}

// Video is the screen recording of a page.
type Video interface {
	SaveAs(path string) error
	Delete() error
}

// Subscription is returned by Page.OnDialog and removes the handler when unsubscribed.
type Subscription interface {
	Unsubscribe()
}
