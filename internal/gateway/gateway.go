// Package gateway queries external payment processors for the authoritative
// status of a transaction.
package gateway

import (
	"context"
	"errors"
	"strings"
)

// ErrUnavailable is returned when the gateway cannot be reached, times out,
// or answers with something that is not a transaction status.
var ErrUnavailable = errors.New("payment gateway unavailable")

// ErrUnknownTransaction is returned by adapters when the gateway has no record
// of the transaction id.
var ErrUnknownTransaction = errors.New("transaction not known to gateway")

// Status is a gateway-native status string, e.g. "VALID" or "succeeded".
type Status string

// normalized is the lookup form of a status used by Mapping.
func (s Status) normalized() string {
	return strings.ToLower(strings.TrimSpace(string(s)))
}

// Adapter queries one payment gateway.
type Adapter interface {
	// QueryStatus returns the gateway's current status for tranID.
	QueryStatus(ctx context.Context, tranID string) (Status, error)

	// Name identifies the gateway and selects its status mapping.
	Name() string
}
