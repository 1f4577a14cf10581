package session

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/networkteam/uiharness/artifact"
	"github.com/networkteam/uiharness/driver"
	"github.com/networkteam/uiharness/internal/ringbuffer"
)

// Session is the isolated browsing context of one test case and its single page.
// A Session must not be shared between test cases.
type Session struct {
	id       uuid.UUID
	testName string
	opened   time.Time

	ctx     driver.Context
	page    driver.Page
	console *ringbuffer.RingBuffer[driver.ConsoleMessage]

	manager *Manager
	logger  *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// ID identifies the session in logs.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// TestName returns the name the session was opened for.
func (s *Session) TestName() string {
	return s.testName
}

// Page returns the active page. It must not be used after Close.
func (s *Session) Page() driver.Page {
	return s.page
}

// Close ends the session. With outcome Failed the trace, the recording and the
// console messages are kept in the artifact store, with Passed all are discarded. Artifact failures
// are logged and never returned. The context is always closed; calling Close
// again does nothing.
func (s *Session) Close(outcome Outcome) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.close(outcome)
	})
	return s.closeErr
}

func (s *Session) close(outcome Outcome) error {
	defer s.manager.forget(s.id)

	store := s.manager.store
	var errs []error

	// Closing the page finalizes the recording
	if err := s.page.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing page: %w", err))
	}

	if outcome == Failed {
		_ = store.Persist(artifact.KindTrace, store.TracePath(s.testName), s.ctx.StopTracing)
	} else if err := s.ctx.StopTracing(""); err != nil {
		s.logger.Warn("Failed to stop trace", slog.Any("error", err))
	}

	if video := s.page.Video(); video != nil {
		if outcome == Failed {
			_ = store.Persist(artifact.KindVideo, store.FailedVideoPath(s.testName), video.SaveAs)
		}
		if err := video.Delete(); err != nil {
			s.logger.Warn("Failed to delete raw recording", slog.Any("error", err))
		}
	}

	if outcome == Failed && s.console.Len() > 0 {
		_ = store.Persist(artifact.KindConsole, store.ConsolePath(s.testName), s.writeConsole)
	}

	if err := s.ctx.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing context: %w", err))
	}

	s.logger.Debug("Closed session",
		slog.String("session", s.id.String()),
		slog.String("outcome", outcome.String()),
		slog.Duration("duration", time.Since(s.opened)),
	)
	return errors.Join(errs...)
}

// writeConsole writes one line per console message, oldest first.
func (s *Session) writeConsole(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if dropped := s.console.Dropped(); dropped > 0 {
		fmt.Fprintf(w, "(%d earlier messages dropped)\n", dropped)
	}
	for _, msg := range s.console.All() {
		fmt.Fprintf(w, "%s %-7s %s\n", msg.Time.Format(time.RFC3339Nano), msg.Type, msg.Text)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}
