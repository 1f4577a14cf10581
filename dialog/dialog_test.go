package dialog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/networkteam/uiharness/dialog"
	"github.com/networkteam/uiharness/driver/drivertest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestExpect_CapturesAndAccepts(t *testing.T) {
	t.Parallel()

	page := drivertest.NewPage()
	expectation := dialog.Expect(page, dialog.WithTimeout(time.Second))

	raised := page.RaiseDialog("alert", "Sign up successful.")

	event, ok := expectation.Wait(context.Background())
	require.True(t, ok)
	assert.Equal(t, "Sign up successful.", event.Message)
	assert.Equal(t, "alert", event.Kind)
	assert.Equal(t, "Sign up successful.", expectation.Message())
	assert.True(t, expectation.Fired())
	assert.NoError(t, expectation.Err())

	page.WaitDialogs()
	assert.Equal(t, 1, raised.Accepted())
	assert.Equal(t, 0, page.DialogHandlers(), "handler must deregister itself after firing")
}

func TestExpect_FiresAtMostOnce(t *testing.T) {
	t.Parallel()

	page := drivertest.NewPage()
	expectation := dialog.Expect(page, dialog.WithTimeout(time.Second))

	first := page.RaiseDialog("alert", "User does not exist.")
	_, ok := expectation.Wait(context.Background())
	require.True(t, ok)
	page.WaitDialogs()

	// An unrelated dialog later in the same session is not acknowledged by the
	// stale expectation, it falls back to the driver default
	second := page.RaiseDialog("confirm", "Unrelated")
	page.WaitDialogs()

	assert.Equal(t, 1, first.Accepted())
	assert.Equal(t, 0, second.Accepted())
	assert.Equal(t, 1, second.Dismissed())
	assert.Equal(t, "User does not exist.", expectation.Message())
}

func TestExpect_SecondDialogNeedsFreshRegistration(t *testing.T) {
	t.Parallel()

	page := drivertest.NewPage()

	first := dialog.Expect(page, dialog.WithTimeout(time.Second))
	page.RaiseDialog("alert", "Wrong password.")
	event, ok := first.Wait(context.Background())
	require.True(t, ok)
	assert.Equal(t, "Wrong password.", event.Message)

	second := dialog.Expect(page, dialog.WithTimeout(time.Second))
	raised := page.RaiseDialog("alert", "User does not exist.")
	event, ok = second.Wait(context.Background())
	require.True(t, ok)
	assert.Equal(t, "User does not exist.", event.Message)

	page.WaitDialogs()
	assert.Equal(t, 1, raised.Accepted())
	assert.Equal(t, "Wrong password.", first.Message())
}

func TestWait_BoundedTimeout(t *testing.T) {
	t.Parallel()

	page := drivertest.NewPage()
	timeout := 200 * time.Millisecond
	expectation := dialog.Expect(page, dialog.WithTimeout(timeout))

	start := time.Now()
	event, ok := expectation.Wait(context.Background())
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.Empty(t, event.Message)
	assert.Empty(t, expectation.Message())
	assert.ErrorIs(t, expectation.Err(), dialog.ErrTimeout)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+time.Second)
	assert.Equal(t, 0, page.DialogHandlers(), "timed out expectation must deregister")
}

func TestWait_DefaultBound(t *testing.T) {
	t.Parallel()
	if testing.Short() {
		t.Skip("Skipping 30s bounded wait in short mode")
	}

	page := drivertest.NewPage()
	expectation := dialog.Expect(page)

	start := time.Now()
	_, ok := expectation.Wait(context.Background())
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.GreaterOrEqual(t, elapsed, 30*time.Second)
	assert.Less(t, elapsed, 31*time.Second)
}

func TestWait_DialogAfterTimeoutIsNotAccepted(t *testing.T) {
	t.Parallel()

	page := drivertest.NewPage()
	expectation := dialog.Expect(page, dialog.WithTimeout(50*time.Millisecond))

	_, ok := expectation.Wait(context.Background())
	require.False(t, ok)

	late := page.RaiseDialog("alert", "too late")
	page.WaitDialogs()

	assert.Equal(t, 0, late.Accepted())
	assert.Equal(t, 1, late.Dismissed())
	assert.False(t, expectation.Fired())
}

func TestWait_ContextCancelled(t *testing.T) {
	t.Parallel()

	page := drivertest.NewPage()
	expectation := dialog.Expect(page)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, ok := expectation.Wait(ctx)

	assert.False(t, ok)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.ErrorIs(t, expectation.Err(), context.Canceled)
	assert.Equal(t, 0, page.DialogHandlers())
}

func TestWait_AlreadyFired(t *testing.T) {
	t.Parallel()

	page := drivertest.NewPage()
	expectation := dialog.Expect(page, dialog.WithTimeout(time.Second))

	page.RaiseDialog("alert", "early")
	page.WaitDialogs()

	// Waiting after the dialog was handled returns immediately
	start := time.Now()
	event, ok := expectation.Wait(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "early", event.Message)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestAwait_ActionRaisesDialog(t *testing.T) {
	t.Parallel()

	page := drivertest.NewPage()
	button := page.AddElement("#signInModal >> button.btn.btn-primary", drivertest.NewElement("Sign up"))
	button.OnClick = func() {
		page.RaiseDialog("alert", "This user already exist.")
	}

	event, ok, err := dialog.Await(context.Background(), page, func() error {
		return page.Locator("#signInModal").Locator("button.btn.btn-primary").Click()
	}, dialog.WithTimeout(time.Second))

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "This user already exist.", event.Message)
	assert.Equal(t, 1, button.Clicks())
	page.WaitDialogs()
}

func TestAwait_ActionError(t *testing.T) {
	t.Parallel()

	page := drivertest.NewPage()
	actionErr := errors.New("element not found")

	_, ok, err := dialog.Await(context.Background(), page, func() error {
		return actionErr
	})

	assert.Same(t, actionErr, err, "action errors are returned unmodified")
	assert.False(t, ok)
	assert.Equal(t, 0, page.DialogHandlers())
}

func TestExpect_AcceptFailure(t *testing.T) {
	t.Parallel()

	page := drivertest.NewPage()
	expectation := dialog.Expect(page, dialog.WithTimeout(time.Second))

	acceptErr := errors.New("target closed")
	raised := drivertest.NewDialog("alert", "contested")
	raised.AcceptErr = acceptErr
	page.Raise(raised)

	event, ok := expectation.Wait(context.Background())
	require.True(t, ok)
	assert.Equal(t, "contested", event.Message)
	assert.ErrorIs(t, expectation.Err(), acceptErr)
	page.WaitDialogs()
}

func TestWait_SlowAcceptAcrossTimeout(t *testing.T) {
	t.Parallel()

	page := drivertest.NewPage()
	expectation := dialog.Expect(page, dialog.WithTimeout(100*time.Millisecond))

	// The dialog is claimed before the bound but accepting outlasts it
	raised := drivertest.NewDialog("alert", "Sign up successful.")
	raised.AcceptDelay = 300 * time.Millisecond
	page.Raise(raised)

	event, ok := expectation.Wait(context.Background())
	page.WaitDialogs()

	require.True(t, ok, "a dialog that was accepted must be reported")
	assert.Equal(t, "Sign up successful.", event.Message)
	assert.Equal(t, expectation.Message(), event.Message)
	assert.True(t, expectation.Fired())
	assert.NoError(t, expectation.Err())
	assert.Equal(t, 1, raised.Accepted())
	assert.Equal(t, 0, raised.Dismissed())
}

func TestExpect_OverlappingExpectations(t *testing.T) {
	t.Parallel()

	page := drivertest.NewPage()
	first := dialog.Expect(page, dialog.WithTimeout(time.Second))
	second := dialog.Expect(page, dialog.WithTimeout(100*time.Millisecond))

	raised := page.RaiseDialog("alert", "Wrong password.")

	event, ok := first.Wait(context.Background())
	require.True(t, ok)
	assert.Equal(t, "Wrong password.", event.Message)

	// The dialog belongs to the earlier registration only
	_, ok = second.Wait(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, second.Err(), dialog.ErrTimeout)

	page.WaitDialogs()
	assert.Equal(t, 1, raised.Accepted())
	assert.Equal(t, 0, raised.Dismissed())
	assert.Equal(t, 0, page.DialogHandlers())
}

func TestCancel_ThenWaitReturnsWithoutDialog(t *testing.T) {
	t.Parallel()

	page := drivertest.NewPage()
	expectation := dialog.Expect(page, dialog.WithTimeout(50*time.Millisecond))
	expectation.Cancel()

	late := page.RaiseDialog("alert", "after cancel")
	page.WaitDialogs()

	_, ok := expectation.Wait(context.Background())
	assert.False(t, ok)
	assert.False(t, expectation.Fired())
	assert.Equal(t, 1, late.Dismissed())
}
