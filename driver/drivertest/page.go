package drivertest

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/networkteam/uiharness/driver"
)

// Chain joins selectors the way nested Locator calls address an element.
func Chain(selectors ...string) string {
	return strings.Join(selectors, " >> ")
}

// Page is a fake driver.Page holding elements keyed by selector.
type Page struct {
	// GotoErr fails Goto.
	GotoErr error

	mu       sync.Mutex
	url      string
	elements map[string]*Element
	video    *Video
	closed   bool

	hub      *driver.DialogHub
	dispatch sync.WaitGroup

	consoleHandlers []func(driver.ConsoleMessage)
}

var _ driver.Page = (*Page)(nil)

func newPage() *Page {
	return &Page{
		url:      "about:blank",
		elements: make(map[string]*Element),
		hub:      driver.NewDialogHub(nil),
	}
}

// NewPage creates a standalone page without context or recording.
func NewPage() *Page {
	return newPage()
}

// AddElement registers el under selector and returns it.
func (p *Page) AddElement(selector string, el *Element) *Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[selector] = el
	return el
}

// RemoveElement detaches the element registered under selector.
func (p *Page) RemoveElement(selector string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.elements, selector)
}

// Element returns the element registered under selector or nil.
func (p *Page) Element(selector string) *Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.elements[selector]
}

func (p *Page) Goto(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.GotoErr != nil {
		return p.GotoErr
	}
	p.url = url
	return nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Locator(selector string) driver.Locator {
	return &Locator{page: p, selector: selector}
}

func (p *Page) OnDialog(handler func(driver.Dialog)) driver.Subscription {
	return p.hub.Subscribe(handler)
}

// DialogHandlers returns the number of registered dialog handlers.
func (p *Page) DialogHandlers() int {
	return p.hub.Len()
}

// RaiseDialog delivers a native dialog on a separate goroutine, the way a driver
// pushes events, and returns it for inspection.
func (p *Page) RaiseDialog(kind, message string) *Dialog {
	d := &Dialog{kind: kind, message: message}
	p.Raise(d)
	return d
}

// Raise delivers d on a separate goroutine. Configure d before raising it.
func (p *Page) Raise(d *Dialog) {
	p.dispatch.Add(1)
	go func() {
		defer p.dispatch.Done()
		p.hub.Dispatch(d)
	}()
}

// WaitDialogs blocks until every raised dialog has been dispatched.
func (p *Page) WaitDialogs() {
	p.dispatch.Wait()
}

func (p *Page) OnConsole(handler func(driver.ConsoleMessage)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.consoleHandlers = append(p.consoleHandlers, handler)
}

// Console writes a console message, handlers are called synchronously.
func (p *Page) Console(kind, text string) {
	p.mu.Lock()
	handlers := append([]func(driver.ConsoleMessage){}, p.consoleHandlers...)
	p.mu.Unlock()

	msg := driver.ConsoleMessage{Type: kind, Text: text, Time: time.Now()}
	for _, h := range handlers {
		h(msg)
	}
}

func (p *Page) Video() driver.Video {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.video == nil {
		return nil
	}
	return p.video
}

// RawVideo returns the fake recording or nil.
func (p *Page) RawVideo() *Video {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.video
}

func (p *Page) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.hub.Close()
	return nil
}

// Closed reports whether the page was closed.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) resolve(selector string) (*Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	el, ok := p.elements[selector]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return el, nil
}

// Element is a fake DOM element.
type Element struct {
	// OnClick runs synchronously inside Click, e.g. to raise a dialog.
	OnClick func()
	// OnFill runs synchronously inside Fill with the new value.
	OnFill func(value string)

	mu      sync.Mutex
	visible bool
	value   string
	text    string
	attrs   map[string]string
	clicks  int
}

// NewElement creates a visible element with the given text content.
func NewElement(text string) *Element {
	return &Element{visible: true, text: text, attrs: make(map[string]string)}
}

// SetVisible changes the element visibility.
func (e *Element) SetVisible(visible bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.visible = visible
}

func (e *Element) isVisible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visible
}

// SetText changes the element text content.
func (e *Element) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
}

// SetAttribute sets an attribute value.
func (e *Element) SetAttribute(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs[name] = value
}

// Value returns the last filled value.
func (e *Element) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Clicks returns how often the element was clicked.
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// Locator is a fake driver.Locator resolving its selector on every action.
type Locator struct {
	page     *Page
	selector string
}

var _ driver.Locator = (*Locator)(nil)

// Selector returns the chained selector of the locator.
func (l *Locator) Selector() string {
	return l.selector
}

func (l *Locator) Locator(selector string) driver.Locator {
	return &Locator{page: l.page, selector: Chain(l.selector, selector)}
}

func (l *Locator) Fill(value string) error {
	el, err := l.page.resolve(l.selector)
	if err != nil {
		return err
	}
	el.mu.Lock()
	el.value = value
	onFill := el.OnFill
	el.mu.Unlock()
	if onFill != nil {
		onFill(value)
	}
	return nil
}

func (l *Locator) Click() error {
	el, err := l.page.resolve(l.selector)
	if err != nil {
		return err
	}
	el.mu.Lock()
	el.clicks++
	onClick := el.OnClick
	el.mu.Unlock()
	if onClick != nil {
		onClick()
	}
	return nil
}

func (l *Locator) IsVisible() (bool, error) {
	el, err := l.page.resolve(l.selector)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return el.isVisible(), nil
}

func (l *Locator) TextContent() (string, error) {
	el, err := l.page.resolve(l.selector)
	if err != nil {
		return "", err
	}
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.text, nil
}

func (l *Locator) GetAttribute(name string) (string, error) {
	el, err := l.page.resolve(l.selector)
	if err != nil {
		return "", err
	}
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.attrs[name], nil
}

func (l *Locator) WaitFor(state driver.State, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if l.reached(state) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s to be %s", ErrTimeout, l.selector, state)
		}
		time.Sleep(pollInterval)
	}
}

func (l *Locator) reached(state driver.State) bool {
	el, err := l.page.resolve(l.selector)
	exists := err == nil
	switch state {
	case driver.StateAttached:
		return exists
	case driver.StateDetached:
		return !exists
	case driver.StateHidden:
		return !exists || !el.isVisible()
	default:
		return exists && el.isVisible()
	}
}

// Dialog is a fake native dialog recording how it was handled.
type Dialog struct {
	// AcceptErr fails Accept.
	AcceptErr error
	// AcceptDelay makes Accept take that long, like a slow driver round trip.
	AcceptDelay time.Duration

	kind    string
	message string

	mu        sync.Mutex
	accepted  int
	dismissed int
}

var _ driver.Dialog = (*Dialog)(nil)

// NewDialog creates a dialog that is not attached to any page.
func NewDialog(kind, message string) *Dialog {
	return &Dialog{kind: kind, message: message}
}

func (d *Dialog) Message() string { return d.message }
func (d *Dialog) Kind() string    { return d.kind }

func (d *Dialog) Accept() error {
	if d.AcceptDelay > 0 {
		time.Sleep(d.AcceptDelay)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accepted++
	if d.accepted+d.dismissed > 1 {
		return errors.New("drivertest: dialog already handled")
	}
	return d.AcceptErr
}

func (d *Dialog) Dismiss() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dismissed++
	if d.accepted+d.dismissed > 1 {
		return errors.New("drivertest: dialog already handled")
	}
	return nil
}

// Accepted returns how often Accept was called.
func (d *Dialog) Accepted() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.accepted
}

// Dismissed returns how often Dismiss was called.
func (d *Dialog) Dismissed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dismissed
}
