package apiclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/iurnickita/clarsix/internal/model"
	"github.com/iurnickita/clarsix/internal/token"
)

// Login - вход по форме (username, password), единственный запрос не в JSON.
func (c *client) Login(ctx context.Context, username, password string) (token.Pair, error) {
	req := c.request(ctx, "").
		SetFormData(map[string]string{
			"username": username,
			"password": password,
		})

	var pair token.Pair
	if _, err := c.do(req, http.MethodPost, "/auth/token", &pair); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return token.Pair{}, ErrInvalidCredentials
		}
		return token.Pair{}, err
	}
	if pair.AccessToken == "" {
		return token.Pair{}, token.ErrNoToken
	}
	return pair, nil
}

func (c *client) Register(ctx context.Context, reqData RegisterRequest) (model.User, error) {
	req := c.request(ctx, "").SetBody(reqData)

	var user model.User
	_, err := c.do(req, http.MethodPost, "/auth/create-user", &user)
	return user, err
}

func (c *client) CurrentUser(ctx context.Context, accessToken string) (model.User, error) {
	var user model.User
	_, err := c.do(c.request(ctx, accessToken), http.MethodGet, "/auth/users/me", &user)
	return user, err
}

func (c *client) UpdateUser(ctx context.Context, accessToken string, reqData ProfileUpdate) (model.User, error) {
	req := c.request(ctx, accessToken).SetBody(reqData)

	var user model.User
	_, err := c.do(req, http.MethodPut, "/auth/update-user", &user)
	return user, err
}

func (c *client) Users(ctx context.Context, accessToken string) ([]model.User, error) {
	var users []model.User
	_, err := c.do(c.request(ctx, accessToken), http.MethodGet, "/auth/users", &users)
	return users, err
}

func (c *client) BusinessUsers(ctx context.Context, accessToken string) ([]model.User, error) {
	var users []model.User
	_, err := c.do(c.request(ctx, accessToken), http.MethodGet, "/auth/business-users", &users)
	return users, err
}

func (c *client) RateUser(ctx context.Context, accessToken string, userID model.ID, rating int) error {
	req := c.request(ctx, accessToken).
		SetPathParam("userId", userID.String()).
		SetBody(map[string]int{"rating": rating})

	_, err := c.do(req, http.MethodPost, "/auth/rate-user/{userId}", nil)
	return err
}
