package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateID is returned when a payment id is already stored.
	ErrDuplicateID = errors.New("payment id already exists")

	// ErrDuplicateTranID is returned when a gateway transaction id is already
	// recorded on another payment.
	ErrDuplicateTranID = errors.New("transaction id already in use")
)
