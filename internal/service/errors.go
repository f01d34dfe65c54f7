package service

import "errors"

var (
	// ErrInvalidStatus is returned when a target status is not one of the known statuses.
	ErrInvalidStatus = errors.New("invalid payment status")

	// ErrInvalidPaymentID is returned when payment ID is empty.
	ErrInvalidPaymentID = errors.New("invalid payment id")

	// ErrInvalidTranID is returned when transaction ID is empty.
	ErrInvalidTranID = errors.New("invalid transaction id")

	// ErrNoTransactionID is returned when validating a payment that never reached the gateway.
	ErrNoTransactionID = errors.New("payment has no transaction id")

	// ErrLockTimeout is returned when another write holds the payment for too long.
	ErrLockTimeout = errors.New("payment is locked by another update")
)
