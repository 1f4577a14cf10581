// Package session owns the isolated browser context of each test case, its
// trace and screen recording, and routes them to the artifact store on teardown.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/networkteam/uiharness/artifact"
	"github.com/networkteam/uiharness/driver"
	"github.com/networkteam/uiharness/internal/ringbuffer"
)

// DefaultConsoleBuffer is the number of console messages kept per session.
const DefaultConsoleBuffer = 500

// ErrEngineUnavailable is returned by Open when no connected browser is available.
var ErrEngineUnavailable = errors.New("browser engine unavailable")

// Manager opens and tracks sessions on a shared browser.
type Manager struct {
	browser driver.Browser
	store   *artifact.Store
	logger  *slog.Logger

	consoleBuffer uint64

	sessions   map[uuid.UUID]*Session
	sessionsMu sync.Mutex
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// Browser is the launched browser shared by all sessions. Required.
	Browser driver.Browser
	// Store decides where artifacts go. Required.
	Store *artifact.Store
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// ConsoleBuffer is the number of most recent console messages kept for a
	// failed test.
	// Default: DefaultConsoleBuffer
	ConsoleBuffer uint64
}

// NewManager creates a Manager.
func NewManager(opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	consoleBuffer := opts.ConsoleBuffer
	if consoleBuffer == 0 {
		consoleBuffer = DefaultConsoleBuffer
	}
	return &Manager{
		browser:       opts.Browser,
		store:         opts.Store,
		logger:        logger,
		consoleBuffer: consoleBuffer,
		sessions:      make(map[uuid.UUID]*Session),
	}
}

// Open creates an isolated context recording video into the staging directory,
// starts tracing tagged with testName and opens the page of the session.
func (m *Manager) Open(testName string) (*Session, error) {
	if m.browser == nil || !m.browser.IsConnected() {
		return nil, ErrEngineUnavailable
	}

	ctx, err := m.browser.NewContext(driver.ContextOptions{
		RecordVideoDir: m.store.StagingDir(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating context for %s: %w", testName, err)
	}

	if err := ctx.StartTracing(driver.TraceOptions{
		Name:        testName,
		Screenshots: true,
		Snapshots:   true,
	}); err != nil {
		m.closeContext(ctx, testName)
		return nil, fmt.Errorf("starting trace for %s: %w", testName, err)
	}

	page, err := ctx.NewPage()
	if err != nil {
		_ = ctx.StopTracing("")
		m.closeContext(ctx, testName)
		return nil, fmt.Errorf("opening page for %s: %w", testName, err)
	}

	s := &Session{
		id:       uuid.Must(uuid.NewV7()),
		testName: testName,
		opened:   time.Now(),
		ctx:      ctx,
		page:     page,
		console:  ringbuffer.New[driver.ConsoleMessage](m.consoleBuffer),
		manager:  m,
		logger:   m.logger.With(slog.String("test", testName)),
	}
	page.OnConsole(s.console.Add)

	m.sessionsMu.Lock()
	m.sessions[s.id] = s
	m.sessionsMu.Unlock()

	s.logger.Debug("Opened session", slog.String("session", s.id.String()))
	return s, nil
}

// OpenSessions returns the number of sessions not closed yet.
func (m *Manager) OpenSessions() int {
	m.sessionsMu.Lock()
	defer m.sessionsMu.Unlock()
	return len(m.sessions)
}

// Close tears down every session still open as failed, so their artifacts are kept.
// It is meant for aborted runs, regular teardown closes each session itself.
func (m *Manager) Close() error {
	m.sessionsMu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.sessionsMu.Unlock()

	var errs []error
	for _, s := range open {
		m.logger.Warn("Closing leftover session", slog.String("test", s.testName))
		errs = append(errs, s.Close(Failed))
	}
	return errors.Join(errs...)
}

func (m *Manager) forget(id uuid.UUID) {
	m.sessionsMu.Lock()
	delete(m.sessions, id)
	m.sessionsMu.Unlock()
}

func (m *Manager) closeContext(ctx driver.Context, testName string) {
	if err := ctx.Close(); err != nil {
		m.logger.Warn("Failed to close context", slog.String("test", testName), slog.Any("error", err))
	}
}
