package auth

import (
	"context"
	"errors"

	"github.com/Lolobw32/ecom-oslan/internal/kv"
)

// KeyToken is the session storage key holding the signed-in user's token.
const KeyToken = "auth_token"

type Authority interface {
	SignIn(ctx context.Context, email, password string) (User, string, error)
	SignUp(ctx context.Context, email, password string) (User, string, error)
	Verify(token string) (User, error)
}

// Client is the auth view of one browser session: it keeps the token in the
// session storage the way the browser SDK keeps it in local storage.
type Client struct {
	authority Authority
	store     kv.Storage
}

func NewClient(authority Authority, store kv.Storage) *Client {
	return &Client{authority: authority, store: store}
}

func (c *Client) SignIn(ctx context.Context, email, password string) (User, error) {
	u, token, err := c.authority.SignIn(ctx, email, password)
	if err != nil {
		return User{}, err
	}
	if err := c.store.Set(ctx, KeyToken, token); err != nil {
		return User{}, err
	}
	return u, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string) (User, error) {
	u, token, err := c.authority.SignUp(ctx, email, password)
	if err != nil {
		return u, err
	}
	if err := c.store.Set(ctx, KeyToken, token); err != nil {
		return User{}, err
	}
	return u, nil
}

// CurrentUser returns nil when nobody is signed in. A stale token is dropped.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	token, ok, err := c.store.Get(ctx, KeyToken)
	if err != nil {
		return nil, err
	}
	if !ok || token == "" {
		return nil, nil
	}

	u, err := c.authority.Verify(token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			_ = c.store.Delete(ctx, KeyToken)
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (c *Client) Token(ctx context.Context) string {
	token, _, _ := c.store.Get(ctx, KeyToken)
	return token
}

func (c *Client) SignOut(ctx context.Context) error {
	return c.store.Delete(ctx, KeyToken)
}
