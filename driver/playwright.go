package driver

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightEngine implements Engine with playwright-go.
type PlaywrightEngine struct {
	pw     *playwright.Playwright
	logger *slog.Logger
}

// Install downloads the playwright driver and the given browsers.
func Install(browsers ...BrowserKind) error {
	names := make([]string, 0, len(browsers))
	for _, b := range browsers {
		names = append(names, string(b))
	}
	return playwright.Install(&playwright.RunOptions{Browsers: names})
}

// NewPlaywrightEngine starts the playwright driver process.
func NewPlaywrightEngine(logger *slog.Logger) (*PlaywrightEngine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}
	return &PlaywrightEngine{pw: pw, logger: logger}, nil
}

var _ Engine = (*PlaywrightEngine)(nil)

// Launch starts a browser of the requested kind.
func (e *PlaywrightEngine) Launch(opts LaunchOptions) (Browser, error) {
	var browserType playwright.BrowserType
	switch opts.Browser {
	case Chromium, "":
		browserType = e.pw.Chromium
	case Firefox:
		browserType = e.pw.Firefox
	case WebKit:
		browserType = e.pw.WebKit
	default:
		return nil, fmt.Errorf("unknown browser %q", opts.Browser)
	}

	launchOptions := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.SlowMo > 0 {
		launchOptions.SlowMo = playwright.Float(float64(opts.SlowMo / time.Millisecond))
	}

	browser, err := browserType.Launch(launchOptions)
	if err != nil {
		return nil, fmt.Errorf("launching %s: %w", browserType.Name(), err)
	}
	return &playwrightBrowser{browser: browser, logger: e.logger}, nil
}

// Stop shuts down the playwright driver.
func (e *PlaywrightEngine) Stop() error {
	return e.pw.Stop()
}

type playwrightBrowser struct {
	browser playwright.Browser
	logger  *slog.Logger
}

func (b *playwrightBrowser) NewContext(opts ContextOptions) (Context, error) {
	var contextOptions playwright.BrowserNewContextOptions
	if opts.RecordVideoDir != "" {
		contextOptions.RecordVideo = &playwright.RecordVideo{Dir: opts.RecordVideoDir}
	}
	ctx, err := b.browser.NewContext(contextOptions)
	if err != nil {
		return nil, err
	}
	return &playwrightContext{
		ctx:       ctx,
		recording: opts.RecordVideoDir != "",
		logger:    b.logger,
	}, nil
}

func (b *playwrightBrowser) Contexts() int {
	return len(b.browser.Contexts())
}

func (b *playwrightBrowser) IsConnected() bool {
	return b.browser.IsConnected()
}

func (b *playwrightBrowser) Close() error {
	return b.browser.Close()
}

type playwrightContext struct {
	ctx       playwright.BrowserContext
	recording bool
	logger    *slog.Logger
}

func (c *playwrightContext) NewPage() (Page, error) {
	page, err := c.ctx.NewPage()
	if err != nil {
		return nil, err
	}

	hub := NewDialogHub(c.logger)
	// A single engine listener per page, handlers come and go on the hub
	page.OnDialog(func(d playwright.Dialog) {
		hub.Dispatch(playwrightDialog{d})
	})

	return &playwrightPage{page: page, hub: hub, recording: c.recording}, nil
}

func (c *playwrightContext) StartTracing(opts TraceOptions) error {
	return c.ctx.Tracing().Start(playwright.TracingStartOptions{
		Name:        playwright.String(opts.Name),
		Screenshots: playwright.Bool(opts.Screenshots),
		Snapshots:   playwright.Bool(opts.Snapshots),
	})
}

func (c *playwrightContext) StopTracing(path string) error {
	if path == "" {
		return c.ctx.Tracing().Stop()
	}
	return c.ctx.Tracing().Stop(path)
}

func (c *playwrightContext) Close() error {
	return c.ctx.Close()
}

type playwrightPage struct {
	page      playwright.Page
	hub       *DialogHub
	recording bool
}

func (p *playwrightPage) Goto(url string) error {
	_, err := p.page.Goto(url)
	return err
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Locator(selector string) Locator {
	return playwrightLocator{p.page.Locator(selector)}
}

func (p *playwrightPage) OnDialog(handler func(Dialog)) Subscription {
	return p.hub.Subscribe(handler)
}

func (p *playwrightPage) OnConsole(handler func(ConsoleMessage)) {
	p.page.OnConsole(func(m playwright.ConsoleMessage) {
		handler(ConsoleMessage{Type: m.Type(), Text: m.Text(), Time: time.Now()})
	})
}

func (p *playwrightPage) Video() Video {
	// playwright-go returns a typed nil when recording is off
	if !p.recording {
		return nil
	}
	return p.page.Video()
}

func (p *playwrightPage) Close() error {
	err := p.page.Close()
	p.hub.Close()
	return err
}

type playwrightLocator struct {
	locator playwright.Locator
}

func (l playwrightLocator) Locator(selector string) Locator {
	return playwrightLocator{l.locator.Locator(selector)}
}

func (l playwrightLocator) Fill(value string) error {
	return l.locator.Fill(value)
}

func (l playwrightLocator) Click() error {
	return l.locator.Click()
}

func (l playwrightLocator) IsVisible() (bool, error) {
	return l.locator.IsVisible()
}

func (l playwrightLocator) TextContent() (string, error) {
	return l.locator.TextContent()
}

func (l playwrightLocator) GetAttribute(name string) (string, error) {
	return l.locator.GetAttribute(name)
}

func (l playwrightLocator) WaitFor(state State, timeout time.Duration) error {
	return l.locator.WaitFor(playwright.LocatorWaitForOptions{
		State:   waitForSelectorState(state),
		Timeout: playwright.Float(float64(timeout / time.Millisecond)),
	})
}

func waitForSelectorState(state State) *playwright.WaitForSelectorState {
	switch state {
	case StateAttached:
		return playwright.WaitForSelectorStateAttached
	case StateDetached:
		return playwright.WaitForSelectorStateDetached
	case StateHidden:
		return playwright.WaitForSelectorStateHidden
	default:
		return playwright.WaitForSelectorStateVisible
	}
}

type playwrightDialog struct {
	dialog playwright.Dialog
}

func (d playwrightDialog) Message() string { return d.dialog.Message() }
func (d playwrightDialog) Kind() string    { return d.dialog.Type() }
func (d playwrightDialog) Accept() error   { return d.dialog.Accept() }
func (d playwrightDialog) Dismiss() error  { return d.dialog.Dismiss() }
