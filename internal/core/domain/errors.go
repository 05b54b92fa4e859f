package domain

import "errors"

// Authentication errors. InvalidCredentials and SessionInvalid never say
// which half of the credential pair was wrong.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailTaken          = errors.New("email already registered")
	ErrUserNotFound        = errors.New("user not found")
	ErrNoEmailFromProvider = errors.New("identity provider returned no verified email")
	ErrSessionInvalid      = errors.New("session invalid")
	ErrForbidden           = errors.New("access forbidden")
	ErrUnavailable         = errors.New("service unavailable")
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrSessionNotFound  = errors.New("session not found")
	ErrUnknownProvider  = errors.New("unknown identity provider")
	ErrInvalidOAuthFlow = errors.New("invalid oauth state")
)
