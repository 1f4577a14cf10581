package pages

import "github.com/networkteam/uiharness/driver"

// UsernameSelector is the welcome link shown once a user is logged in.
const UsernameSelector = "#nameofuser"

// LoggedInMainPage is the main page after a successful login.
type LoggedInMainPage struct {
	Bound

	welcome driver.Locator
}

// NewLoggedInMainPage binds to the page a successful login leaves behind.
func NewLoggedInMainPage(b Bound) *LoggedInMainPage {
	return &LoggedInMainPage{
		Bound:   b,
		welcome: b.Page.Locator(UsernameSelector),
	}
}

// Username returns the "Welcome <login>" text of the navigation bar.
func (p *LoggedInMainPage) Username() (string, error) {
	return p.welcome.TextContent()
}

// WaitForUsername waits until the welcome link is visible.
func (p *LoggedInMainPage) WaitForUsername() error {
	return p.waitFor(p.welcome, driver.StateVisible)
}
