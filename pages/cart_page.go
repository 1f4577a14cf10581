package pages

import "github.com/networkteam/uiharness/driver"

const (
	// CartPagePath is the cart relative to the base URL.
	CartPagePath = "/cart.html"

	// OrderFormSelector is the place-order modal.
	OrderFormSelector = "#orderModal"
	// The purchase confirmation is a sweet-alert overlay, not a native dialog.
	AlertSelector = ".sweet-alert"

	// PurchaseSuccessfulMessage is the heading of the confirmation alert.
	PurchaseSuccessfulMessage = "Thank you for your purchase!"
)

// CartPage is the cart with its place-order modal.
type CartPage struct {
	Bound

	orderForm        driver.Locator
	placeOrderButton driver.Locator
	nameField        driver.Locator
	countryField     driver.Locator
	cityField        driver.Locator
	creditCardField  driver.Locator
	monthField       driver.Locator
	yearField        driver.Locator
	purchaseButton   driver.Locator
	alert            driver.Locator
}

// NewCartPage binds the cart and its order modal to b.
func NewCartPage(b Bound) *CartPage {
	orderForm := b.Page.Locator(OrderFormSelector)
	return &CartPage{
		Bound:            b,
		orderForm:        orderForm,
		placeOrderButton: b.Page.Locator("#page-wrapper button"),
		nameField:        b.Page.Locator("#name"),
		countryField:     b.Page.Locator("#country"),
		cityField:        b.Page.Locator("#city"),
		creditCardField:  b.Page.Locator("#card"),
		monthField:       b.Page.Locator("#month"),
		yearField:        b.Page.Locator("#year"),
		purchaseButton:   orderForm.Locator(modalConfirmButtonSelector),
		alert:            b.Page.Locator(AlertSelector),
	}
}

// URL is the address of the cart.
func (p *CartPage) URL() string {
	return p.Bound.URL(CartPagePath)
}

// Goto navigates to the cart directly.
func (p *CartPage) Goto() error {
	return p.Page.Goto(p.URL())
}

// PlaceOrder opens the order modal.
func (p *CartPage) PlaceOrder() error {
	return p.placeOrderButton.Click()
}

// FillName types the name of the buyer.
func (p *CartPage) FillName(name string) error {
	return p.nameField.Fill(name)
}

// FillCountry types the country.
func (p *CartPage) FillCountry(country string) error {
	return p.countryField.Fill(country)
}

// FillCity types the city.
func (p *CartPage) FillCity(city string) error {
	return p.cityField.Fill(city)
}

// FillCreditCard types the card number.
func (p *CartPage) FillCreditCard(card string) error {
	return p.creditCardField.Fill(card)
}

// FillMonth types the expiry month.
func (p *CartPage) FillMonth(month string) error {
	return p.monthField.Fill(month)
}

// FillYear types the expiry year.
func (p *CartPage) FillYear(year string) error {
	return p.yearField.Fill(year)
}

// Purchase confirms the order form.
func (p *CartPage) Purchase() error {
	return p.purchaseButton.Click()
}

// IsOrderFormVisible reports whether the order modal is shown right now.
func (p *CartPage) IsOrderFormVisible() (bool, error) {
	return p.orderForm.IsVisible()
}

// WaitForAlert waits for the purchase confirmation.
func (p *CartPage) WaitForAlert() error {
	return p.waitFor(p.alert, driver.StateVisible)
}

// AlertText returns the heading of the confirmation.
func (p *CartPage) AlertText() (string, error) {
	return p.alert.Locator("h2").TextContent()
}

// ConfirmAlert clicks OK. The storefront then returns to the main page.
func (p *CartPage) ConfirmAlert() error {
	return p.alert.Locator("button.confirm").Click()
}
