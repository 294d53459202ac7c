package wiki

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/olgasafonova/mwapi/metrics"
)

// CredentialsFunc returns the login name and bot password to use for the
// wiki at baseURL. An empty username selects the first configured account.
type CredentialsFunc func(baseURL, username string) (lgname, lgpassword string, err error)

// Login authenticates the session with action=login and returns the
// response's login object.
//
// When lgpassword is empty, the name and password come from the client's
// credentials source (Config, then the credentials file), with lgname
// selecting the account. A WrongToken result is retried once with a fresh
// login token; any other non-Success result is a *LoginError.
func (c *Client) Login(ctx context.Context, lgname, lgpassword string, params url.Values) (map[string]any, error) {
	if lgpassword == "" {
		var err error
		lgname, lgpassword, err = c.credentials(c.config.BaseURL, lgname)
		if err != nil {
			metrics.AuthFailures.WithLabelValues("credentials").Inc()
			return nil, fmt.Errorf("failed to load credentials: %w", err)
		}
	}
	return c.login(ctx, lgname, lgpassword, ensureParams(params), true)
}

func (c *Client) login(ctx context.Context, lgname, lgpassword string, params url.Values, retryWrongToken bool) (map[string]any, error) {
	token, err := c.tokens.Get(ctx, "login")
	if err != nil {
		return nil, fmt.Errorf("failed to get login token: %w", err)
	}

	params.Set("action", "login")
	params.Set("lgname", lgname)
	params.Set("lgpassword", lgpassword)
	params.Set("lgtoken", token)

	resp, err := c.Post(ctx, params)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			metrics.AuthFailures.WithLabelValues("api_error").Inc()
		}
		return nil, fmt.Errorf("login request failed: %w", err)
	}

	login := getMap(resp["login"])
	result := getNestedString(resp, "login", "result")
	switch result {
	case "Success":
		c.tokens.Clear()
		c.setUser(getString(login["lgusername"]))
		c.logger.Info("Successfully logged in", "username", c.User(), "url", c.config.BaseURL)
		return login, nil
	case "WrongToken":
		if retryWrongToken {
			c.logger.Info("login token rejected, retrying with a fresh token")
			c.tokens.Invalidate("login")
			return c.login(ctx, lgname, lgpassword, params, false)
		}
	}

	metrics.AuthFailures.WithLabelValues("login_result").Inc()
	return nil, &LoginError{Result: result, Response: resp}
}

// Logout ends the session and forgets the user and every cached token
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.Post(ctx, url.Values{"action": {"logout"}}); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	c.tokens.Clear()
	c.setUser("")
	c.logger.Info("Logged out", "url", c.config.BaseURL)
	return nil
}
