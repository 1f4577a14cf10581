package pages

import "github.com/networkteam/uiharness/driver"

// Dialog messages raised by the sign-up and login forms.
const (
	SignUpSuccessfulMessage = "Sign up successful."
	UserExistsMessage       = "This user already exist."
	UserDoesNotExistMessage = "User does not exist."
	WrongPasswordMessage    = "Wrong password."
)

// Modal roots of the two forms.
const (
	SignUpFormSelector = "#signInModal"
	LoginFormSelector  = "#logInModal"

	// Both modals use the same confirm button class, so each form scopes it
	// under its own modal root.
	modalConfirmButtonSelector = "button.btn.btn-primary"
)

// SignUpForm is the sign-up modal of the main page.
type SignUpForm struct {
	Bound

	form          driver.Locator
	loginField    driver.Locator
	passwordField driver.Locator
	signUpButton  driver.Locator
}

// NewSignUpForm binds to the sign-up modal. The modal has to be opened
// through MainPage.OpenSignUpForm first.
func NewSignUpForm(b Bound) *SignUpForm {
	form := b.Page.Locator(SignUpFormSelector)
	return &SignUpForm{
		Bound:         b,
		form:          form,
		loginField:    b.Page.Locator("#sign-username"),
		passwordField: b.Page.Locator("#sign-password"),
		signUpButton:  form.Locator(modalConfirmButtonSelector),
	}
}

// FillLogin types login into the username field.
func (f *SignUpForm) FillLogin(login string) error {
	return f.loginField.Fill(login)
}

// FillPassword types password into the password field.
func (f *SignUpForm) FillPassword(password string) error {
	return f.passwordField.Fill(password)
}

// SignUp submits the form. The page answers with a native dialog.
func (f *SignUpForm) SignUp() error {
	return f.signUpButton.Click()
}

// IsVisible reports the visibility of the modal at the time of the call.
func (f *SignUpForm) IsVisible() (bool, error) {
	return f.form.IsVisible()
}

// AriaHidden returns the aria-hidden attribute the modal toggles when it closes.
func (f *SignUpForm) AriaHidden() (string, error) {
	return f.form.GetAttribute("aria-hidden")
}

// WaitForState waits until the modal reaches state.
func (f *SignUpForm) WaitForState(state driver.State) error {
	return f.waitFor(f.form, state)
}

// LoginForm is the login modal of the main page.
type LoginForm struct {
	Bound

	form          driver.Locator
	loginField    driver.Locator
	passwordField driver.Locator
	loginButton   driver.Locator
}

// NewLoginForm binds to the login modal.
func NewLoginForm(b Bound) *LoginForm {
	form := b.Page.Locator(LoginFormSelector)
	return &LoginForm{
		Bound:         b,
		form:          form,
		loginField:    b.Page.Locator("#loginusername"),
		passwordField: b.Page.Locator("#loginpassword"),
		loginButton:   form.Locator(modalConfirmButtonSelector),
	}
}

// FillLogin types login into the username field.
func (f *LoginForm) FillLogin(login string) error {
	return f.loginField.Fill(login)
}

// FillPassword types password into the password field.
func (f *LoginForm) FillPassword(password string) error {
	return f.passwordField.Fill(password)
}

// LogIn submits the form. Failures are answered with a native dialog.
func (f *LoginForm) LogIn() error {
	return f.loginButton.Click()
}

// IsVisible reports the visibility of the modal at the time of the call.
func (f *LoginForm) IsVisible() (bool, error) {
	return f.form.IsVisible()
}

// AriaHidden returns the aria-hidden attribute the modal toggles when it closes.
func (f *LoginForm) AriaHidden() (string, error) {
	return f.form.GetAttribute("aria-hidden")
}

// WaitForState waits until the modal reaches state.
func (f *LoginForm) WaitForState(state driver.State) error {
	return f.waitFor(f.form, state)
}
