package auth

import (
	"context"
	"errors"
	"strconv"
)

// noopVerifier trusts the bearer token as a numeric user ID.
type noopVerifier struct{}

func (noopVerifier) Verify(_ context.Context, token string) (AuthenticatedUser, error) {
	if token == "" {
		return AuthenticatedUser{}, errors.New("token must not be empty")
	}
	userID, err := strconv.ParseInt(token, 10, 64)
	if err != nil || userID <= 0 {
		return AuthenticatedUser{}, errors.New("token must be a positive user id in noop mode")
	}
	return AuthenticatedUser{UserID: userID, Token: token}, nil
}

func (noopVerifier) Issue(userID int64) (string, error) {
	return strconv.FormatInt(userID, 10), nil
}
