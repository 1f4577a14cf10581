//go:build acceptance
// +build acceptance

package acceptance

import (
	"fmt"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/uiharness/pages"
	"github.com/networkteam/uiharness/session"
)

// TestFixtures bundles the session of a test and the main page, already opened.
type TestFixtures struct {
	Session  *session.Session
	Bound    pages.Bound
	MainPage *pages.MainPage
}

// WithTestFixtures opens a session, navigates to the main page and calls the
// test function. The session is closed by t.Cleanup with the test outcome.
func WithTestFixtures(t *testing.T, fn func(t *testing.T, f *TestFixtures)) {
	t.Helper()

	sess := suite.Session(t)
	bound := suite.Bound(sess)

	mainPage := pages.NewMainPage(bound)
	require.NoError(t, mainPage.Goto())

	fn(t, &TestFixtures{
		Session:  sess,
		Bound:    bound,
		MainPage: mainPage,
	})
}

// uniqueLogin returns a login no earlier run has registered.
func uniqueLogin(t *testing.T) string {
	t.Helper()

	seed, err := uuid.NewV4()
	require.NoError(t, err)
	return fmt.Sprintf("%s.%s", knownLogin, seed.String()[:8])
}
