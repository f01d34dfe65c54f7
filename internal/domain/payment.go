package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// PaymentStatuses lists every status in display order.
var PaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusCompleted,
	PaymentStatusFailed,
	PaymentStatusCancelled,
}

// ParsePaymentStatus parses a status value case-insensitively.
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	status := PaymentStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", false
	}
	return status, true
}

// IsValid reports whether s is one of the four known statuses.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether s is a settled state. Terminal states are only
// left through an operator override or a validation that finds different
// gateway truth.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusCancelled
}

// TransitionSource records what caused a status change.
type TransitionSource string

const (
	// TransitionManual is an operator setting the status directly.
	TransitionManual TransitionSource = "manual"
	// TransitionGateway is a validation applying gateway truth.
	TransitionGateway TransitionSource = "gateway"
)

// PaymentMethod represents how the customer paid.
type PaymentMethod string

const (
	PaymentMethodBkash           PaymentMethod = "bkash"
	PaymentMethodNagad           PaymentMethod = "nagad"
	PaymentMethodCard            PaymentMethod = "card"
	PaymentMethodMobileBanking   PaymentMethod = "mobile_banking"
	PaymentMethodInternetBanking PaymentMethod = "internet_banking"
	PaymentMethodATM             PaymentMethod = "atm"
	PaymentMethodRocket          PaymentMethod = "rocket"
	PaymentMethodUpay            PaymentMethod = "upay"
)

var paymentMethodNames = map[PaymentMethod]string{
	PaymentMethodBkash:           "bKash",
	PaymentMethodNagad:           "Nagad",
	PaymentMethodCard:            "Card",
	PaymentMethodMobileBanking:   "Mobile Banking",
	PaymentMethodInternetBanking: "Internet Banking",
	PaymentMethodATM:             "ATM",
	PaymentMethodRocket:          "Rocket",
	PaymentMethodUpay:            "Upay",
}

// ParsePaymentMethod parses a payment method value case-insensitively.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	method := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	if !method.IsValid() {
		return "", false
	}
	return method, true
}

// IsValid reports whether m is a supported payment method.
func (m PaymentMethod) IsValid() bool {
	_, ok := paymentMethodNames[m]
	return ok
}

// DisplayName returns the human readable method name shown in the console.
func (m PaymentMethod) DisplayName() string {
	if name, ok := paymentMethodNames[m]; ok {
		return name
	}
	return string(m)
}

// PaymentItem is one purchased line of a payment.
type PaymentItem struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// Payment is a single payment attempt for an order.
type Payment struct {
	ID            string
	OrderID       string
	TranID        string // Gateway transaction id, empty until the gateway is involved
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Amount        decimal.Decimal
	Currency      string
	Status        PaymentStatus
	PaymentMethod PaymentMethod
	Items         []PaymentItem
	CreatedAt     time.Time
	PaymentDate   *time.Time // Set once the status first leaves pending
	UpdatedAt     time.Time
}

// Validation errors for new payments.
var (
	ErrMissingOrderID = errors.New("order id is required")
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrUnknownMethod  = errors.New("unknown payment method")
	ErrNoItems        = errors.New("payment must contain at least one item")
	ErrNotPending     = errors.New("new payments must be pending")
)

// Validate checks the invariants of a payment at creation time.
func (p *Payment) Validate() error {
	if strings.TrimSpace(p.OrderID) == "" {
		return ErrMissingOrderID
	}
	if p.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if !p.PaymentMethod.IsValid() {
		return ErrUnknownMethod
	}
	if len(p.Items) == 0 {
		return ErrNoItems
	}
	if p.Status != PaymentStatusPending {
		return ErrNotPending
	}
	return nil
}

// HasTranID reports whether a gateway transaction has been recorded.
func (p *Payment) HasTranID() bool {
	return strings.TrimSpace(p.TranID) != ""
}

// ApplyStatus sets the status and bookkeeping timestamps. The payment date is
// stamped the first time the status leaves pending and is never cleared.
func (p *Payment) ApplyStatus(status PaymentStatus, now time.Time) {
	p.Status = status
	p.UpdatedAt = now
	if p.PaymentDate == nil && status != PaymentStatusPending {
		stamped := now
		p.PaymentDate = &stamped
	}
}

// Clone returns a deep copy of the payment.
func (p *Payment) Clone() *Payment {
	c := *p
	if p.Items != nil {
		c.Items = make([]PaymentItem, len(p.Items))
		copy(c.Items, p.Items)
	}
	if p.PaymentDate != nil {
		d := *p.PaymentDate
		c.PaymentDate = &d
	}
	return &c
}
