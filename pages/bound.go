// Package pages implements the page objects of the storefront under test.
//
// Each page object binds its locators to one driver.Page at construction and
// exposes single driver actions as named methods. Page objects never assert;
// assertions belong to the tests.
package pages

import (
	"strings"
	"time"

	"github.com/networkteam/uiharness/driver"
)

// DefaultBaseURL is the storefront the page objects were written for.
const DefaultBaseURL = "https://www.demoblaze.com"

// DefaultWaitTimeout bounds element state waits.
const DefaultWaitTimeout = 10 * time.Second

// Bound is the page value shared by all page objects of a session.
type Bound struct {
	Page        driver.Page
	BaseURL     string
	WaitTimeout time.Duration
}

// NewBound binds page objects to page. An empty baseURL uses DefaultBaseURL,
// a zero waitTimeout uses DefaultWaitTimeout.
func NewBound(page driver.Page, baseURL string, waitTimeout time.Duration) Bound {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if waitTimeout == 0 {
		waitTimeout = DefaultWaitTimeout
	}
	return Bound{
		Page:        page,
		BaseURL:     strings.TrimSuffix(baseURL, "/"),
		WaitTimeout: waitTimeout,
	}
}

// URL resolves path against the base URL.
func (b Bound) URL(path string) string {
	return b.BaseURL + "/" + strings.TrimPrefix(path, "/")
}

// CurrentURL returns the URL of the page.
func (b Bound) CurrentURL() string {
	return b.Page.URL()
}

func (b Bound) waitFor(locator driver.Locator, state driver.State) error {
	return locator.WaitFor(state, b.WaitTimeout)
}
