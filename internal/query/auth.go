package query

import (
	"context"
	"fmt"
	"net/http"

	"github.com/BuzzLyutic/focusflow/internal/gateway"
	"github.com/BuzzLyutic/focusflow/internal/model"
)

// FormError carries a message meant to be shown next to the form that
// produced it.
type FormError struct {
	Message string
	Err     error
}

func (e *FormError) Error() string { return e.Message }
func (e *FormError) Unwrap() error { return e.Err }

func (c *Client) Login(ctx context.Context, email, password string) (model.User, error) {
	var resp model.AuthResponse
	err := c.api.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   model.LoginInput{Email: email, Password: password},
	}, &resp)
	if err != nil {
		msg := gateway.Message(err, "Login failed")
		c.notify(LevelError, msg)
		return model.User{}, &FormError{Message: msg, Err: err}
	}

	if err := c.session.SetAuth(resp.User, resp.Token); err != nil {
		return model.User{}, fmt.Errorf("save session: %w", err)
	}
	c.dropAll()
	c.notify(LevelSuccess, fmt.Sprintf("Welcome back, %s!", resp.User.Username))
	return resp.User, nil
}

// Register creates an account. It does not sign the user in.
func (c *Client) Register(ctx context.Context, username, email, password string) (model.User, error) {
	var resp model.AuthResponse
	err := c.api.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Body:   model.RegisterInput{Username: username, Email: email, Password: password},
	}, &resp)
	if err != nil {
		msg := gateway.Message(err, "Registration failed")
		c.notify(LevelError, msg)
		return model.User{}, &FormError{Message: msg, Err: err}
	}

	c.notify(LevelSuccess, "Account created! You can now sign in.")
	return resp.User, nil
}

func (c *Client) Logout() error {
	if err := c.session.Logout(); err != nil {
		return err
	}
	c.dropAll()
	c.notify(LevelInfo, "Logged out successfully")
	return nil
}

// dropAll forgets every cached view so one user's data never leaks into the
// next session.
func (c *Client) dropAll() {
	c.tasks.InvalidateAll()
	c.stats.InvalidateAll()
	c.categories.InvalidateAll()
}
