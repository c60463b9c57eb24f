package pages

import (
	"context"
	"fmt"

	"github.com/cityledger/ticketsuite/pkg/locator"
)

// login screen
var (
	UsernameField = locator.New("username field",
		locator.ID("username"), locator.XPath("//input[@id='username']"), locator.Name("username"))
	PasswordField = locator.New("password field",
		locator.ID("password"), locator.XPath("//input[@id='password']"), locator.Name("password"))
	LoginButton = locator.New("login button",
		locator.ID("loginButton"), locator.XPath("//input[@id='loginButton']"))
	DatabaseIcon = locator.New("database icon",
		locator.XPath("//i[@class='fa fa-database']"), locator.CSS("i.fa-database"))
)

// Login signs in on the client's landing page.
type Login struct {
	env Env
	url string
}

// NewLogin makes the login page object for the login page at url.
func NewLogin(env Env, url string) *Login {
	return &Login{env: env, url: url}
}

// URL returns the login page address.
func (p *Login) URL() string { return p.url }

// OpenAndLogin opens the login page, signs in and enters the application through the database icon.
// The password is typed without clearing the field and never appears in logs.
func (p *Login) OpenAndLogin(ctx context.Context, username, password string) error {
	return p.env.Log.Step("Login", func() error {
		act, w := p.env.Actions, p.env.Waits
		if err := act.Page().Goto(p.url); err != nil {
			return fmt.Errorf("open login page: %w", err)
		}
		if err := act.Type(ctx, UsernameField, username, w.Default, true); err != nil {
			return fmt.Errorf("enter username: %w", err)
		}
		if err := act.TypeSecret(ctx, PasswordField, password, w.Default, false); err != nil {
			return fmt.Errorf("enter password: %w", err)
		}
		if err := act.Click(ctx, LoginButton, w.Default); err != nil {
			return fmt.Errorf("submit login: %w", err)
		}
		if _, err := p.env.waitVisible(ctx, DatabaseIcon, w.Default); err != nil {
			return fmt.Errorf("wait for application entry: %w", err)
		}
		if err := act.Click(ctx, DatabaseIcon, w.Default); err != nil {
			return fmt.Errorf("enter application: %w", err)
		}
		// the application may open in a new tab
		if err := act.Page().SwitchToLatestTab(); err != nil {
			p.env.Log.Debug("no new tab after database icon: %v", err)
		}
		p.env.Log.Print("now on %s", act.Page().URL())
		return nil
	})
}
