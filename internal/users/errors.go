package users

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserDisabled     = errors.New("user is disabled")
	ErrWrongCredentials = errors.New("wrong username or password")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrEmailRegistered  = errors.New("email already registered")
	ErrTokenInvalid     = errors.New("verification token is invalid or expired")
	ErrApiKeyInvalid    = errors.New("api key is invalid or inactive")
)
