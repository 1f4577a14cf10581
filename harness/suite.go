// Package harness wires engine, browser, artifact store and session manager
// into a suite that hands out one session per test.
package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/networkteam/uiharness/artifact"
	"github.com/networkteam/uiharness/config"
	"github.com/networkteam/uiharness/driver"
	"github.com/networkteam/uiharness/pages"
	"github.com/networkteam/uiharness/session"
)

// Options configure a Suite.
type Options struct {
	Config config.Config
	// Engine overrides the playwright engine, e.g. with drivertest.Engine.
	// Default: driver.NewPlaywrightEngine
	Engine driver.Engine
	// Console receives the text log.
	// Default: os.Stderr
	Console io.Writer
}

// Suite is the process-wide state of a test run: one engine, one browser, one
// results directory. Launch it once, e.g. in TestMain.
type Suite struct {
	cfg     config.Config
	engine  driver.Engine
	browser driver.Browser
	store   *artifact.Store
	manager *session.Manager
	logger  *slog.Logger
	logFile *os.File
}

// Launch resets the results directory, starts the engine and launches the browser.
func Launch(opts Options) (*Suite, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := cfg.Level()

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	store := artifact.NewStore(artifact.StoreOptions{
		Root:   cfg.ResultsDir,
		Logger: NewLogger(level, console, nil),
	})
	if err := store.Reset(); err != nil {
		return nil, fmt.Errorf("resetting results: %w", err)
	}

	// The log file lives in the results directory, so it is opened after the reset
	logFile, err := os.Create(filepath.Join(store.Root(), LogFileName))
	if err != nil {
		return nil, fmt.Errorf("creating log file: %w", err)
	}
	logger := NewLogger(level, console, logFile)
	store.SetLogger(logger)

	s := &Suite{
		cfg:     cfg,
		store:   store,
		logger:  logger,
		logFile: logFile,
	}

	s.engine = opts.Engine
	if s.engine == nil {
		s.engine, err = driver.NewPlaywrightEngine(logger)
		if err != nil {
			logFile.Close()
			return nil, err
		}
	}

	s.browser, err = s.engine.Launch(cfg.LaunchOptions())
	if err != nil {
		_ = s.engine.Stop()
		logFile.Close()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	s.manager = session.NewManager(session.ManagerOptions{
		Browser:       s.browser,
		Store:         s.store,
		Logger:        logger,
		ConsoleBuffer: cfg.ConsoleBuffer,
	})

	logger.Info("Launched browser",
		slog.String("browser", string(cfg.Browser)),
		slog.Bool("headless", cfg.Headless),
		slog.String("results", cfg.ResultsDir),
	)
	return s, nil
}

// Session opens a session for t and closes it when t finishes, keeping
// artifacts if t failed. Teardown runs even if the test body stops early.
func (s *Suite) Session(t testing.TB) *session.Session {
	t.Helper()

	sess, err := s.manager.Open(t.Name())
	if err != nil {
		t.Fatalf("opening session: %v", err)
		return nil
	}
	t.Cleanup(func() {
		if err := sess.Close(session.OutcomeOf(t.Failed())); err != nil {
			t.Errorf("closing session: %v", err)
		}
	})
	return sess
}

// Bound returns the page value page objects of sess are built from.
func (s *Suite) Bound(sess *session.Session) pages.Bound {
	return pages.NewBound(sess.Page(), s.cfg.BaseURL, s.cfg.WaitTimeout)
}

// Config returns the configuration the suite was launched with.
func (s *Suite) Config() config.Config {
	return s.cfg
}

// Store returns the artifact store of the run.
func (s *Suite) Store() *artifact.Store {
	return s.store
}

// Manager returns the session manager.
func (s *Suite) Manager() *session.Manager {
	return s.manager
}

// Logger returns the harness logger.
func (s *Suite) Logger() *slog.Logger {
	return s.logger
}

// OpenContexts returns the number of contexts the browser reports as open.
func (s *Suite) OpenContexts() int {
	return s.browser.Contexts()
}

// Close tears down leftover sessions, closes the browser and stops the engine.
func (s *Suite) Close() error {
	var errs []error
	if n := s.manager.OpenSessions(); n > 0 {
		errs = append(errs, fmt.Errorf("%d sessions still open at suite end", n))
	}
	errs = append(errs, s.manager.Close())
	if n := s.browser.Contexts(); n > 0 {
		errs = append(errs, fmt.Errorf("%d browser contexts leaked", n))
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing browser: %w", err))
	}
	if err := s.engine.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stopping engine: %w", err))
	}

	err := errors.Join(errs...)
	if err != nil {
		s.logger.Error("Suite closed with errors", slog.Any("error", err))
	} else {
		s.logger.Info("Suite closed")
	}
	s.logFile.Close()
	return err
}
