// Package repository holds the MySQL-backed stores: the user
// directory and the token store.  Sentinel errors defined here let
// handlers map failure scenarios to HTTP responses without inspecting
// driver error strings themselves.
package repository

import "errors"

// ErrEmailExists is returned when registering with an email that is
// already taken.  Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when a lookup matches no user row.
var ErrUserNotFound = errors.New("user not found")
