package pages

import "github.com/networkteam/uiharness/driver"

const (
	// MainPagePath is the landing page relative to the base URL.
	MainPagePath = "/index.html"

	// CartButtonSelector is the "Cart" link of the navigation bar.
	CartButtonSelector = "#cartur"
)

// MainPage is the storefront landing page before login.
type MainPage struct {
	Bound

	signUpButton driver.Locator
	loginButton  driver.Locator
	cartButton   driver.Locator
}

// NewMainPage binds the navigation bar locators of the landing page to b.
func NewMainPage(b Bound) *MainPage {
	return &MainPage{
		Bound:        b,
		signUpButton: b.Page.Locator("#signin2"),
		loginButton:  b.Page.Locator("#login2"),
		cartButton:   b.Page.Locator(CartButtonSelector),
	}
}

// URL is the address Goto navigates to.
func (p *MainPage) URL() string {
	return p.Bound.URL(MainPagePath)
}

// Goto navigates to URL.
func (p *MainPage) Goto() error {
	return p.Page.Goto(p.URL())
}

// OpenSignUpForm opens the sign-up modal. Use NewSignUpForm to fill it.
func (p *MainPage) OpenSignUpForm() error {
	return p.signUpButton.Click()
}

// OpenLoginForm opens the login modal.
func (p *MainPage) OpenLoginForm() error {
	return p.loginButton.Click()
}

// OpenCart follows the cart link, which leaves the main page.
func (p *MainPage) OpenCart() error {
	return p.cartButton.Click()
}
