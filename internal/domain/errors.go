package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrValidation          = errors.New("invalid request")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrTransient           = errors.New("transient backend failure")
)
