package model

import "errors"

var (
	// User related errors
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrOperatorNotFound = errors.New("dive operator not found")
)
