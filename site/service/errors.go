package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("service: invalid email or password")
	ErrUserNotFound       = errors.New("service: user not found")
	ErrNoSession          = errors.New("service: no session in context")
)
