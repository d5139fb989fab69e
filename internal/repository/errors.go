package repository

import "errors"

// ErrNotFound indicates an entity was not located.
var ErrNotFound = errors.New("repository: not found")

// ErrEmptyCart indicates checkout was attempted on a cart with no lines.
var ErrEmptyCart = errors.New("repository: cart is empty")
