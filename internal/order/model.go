package order

import "time"

type Status string

// Status values are persisted verbatim; dashboards and the mobile client
// filter on these exact strings.
const (
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusPending         Status = "pending"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
)

// Terminal reports whether no further transition may leave this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type PaymentMethod string

const (
	MethodCash      PaymentMethod = "cash"
	MethodShopeepay PaymentMethod = "shopeepay"
	MethodTransfer  PaymentMethod = "transfer"
	MethodEMoney    PaymentMethod = "e-money"
	MethodManual    PaymentMethod = "manual"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodShopeepay, MethodTransfer, MethodEMoney, MethodManual:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// ManualCustomerEmail marks orders entered by staff on a customer's
// behalf; such orders have no account behind them.
const ManualCustomerEmail = "manual"

// LineItem is a denormalized snapshot of the menu item at order time.
// Later menu edits or deletions never rewrite historical orders.
type LineItem struct {
	MenuID   uint   `json:"menuId"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
	Subtotal int    `json:"subtotal"`
}

type Order struct {
	ID            uint          `json:"id"`
	CustomerEmail string        `json:"customerEmail"`
	CustomerName  string        `json:"customerName"`
	Items         []LineItem    `json:"items"`
	TotalAmount   int           `json:"totalAmount"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	PaymentProof  *string       `json:"paymentProof,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	CancelReason  string        `json:"cancelReason,omitempty"`
	IsManualOrder bool          `json:"isManualOrder"`

	CreatedAt         time.Time  `json:"createdAt"`
	AwaitingPaymentAt *time.Time `json:"awaitingPaymentAt,omitempty"`
	ExpiryTime        *time.Time `json:"expiryTime,omitempty"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	CancelledAt       *time.Time `json:"cancelledAt,omitempty"`
}

// newAwaitingPaymentOrder and newQueuedOrder are the only ways a fresh
// order comes into existence, so an order carrying a payment window in
// any state other than awaiting_payment is unrepresentable at creation
// and every later transition clears or keeps the window atomically with
// the status column.

func newAwaitingPaymentOrder(email, name string, items []LineItem, method PaymentMethod, notes string, manual bool, window time.Duration, now time.Time) *Order {
	expiry := now.Add(window)
	awaitingAt := now
	return &Order{
		CustomerEmail:     email,
		CustomerName:      name,
		Items:             items,
		TotalAmount:       sumSubtotals(items),
		PaymentMethod:     method,
		Status:            StatusAwaitingPayment,
		PaymentStatus:     PaymentPending,
		Notes:             notes,
		IsManualOrder:     manual,
		CreatedAt:         now,
		AwaitingPaymentAt: &awaitingAt,
		ExpiryTime:        &expiry,
	}
}

func newQueuedOrder(email, name string, items []LineItem, method PaymentMethod, notes string, manual bool, now time.Time) *Order {
	return &Order{
		CustomerEmail: email,
		CustomerName:  name,
		Items:         items,
		TotalAmount:   sumSubtotals(items),
		PaymentMethod: method,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		Notes:         notes,
		IsManualOrder: manual,
		CreatedAt:     now,
	}
}

func sumSubtotals(items []LineItem) int {
	total := 0
	for _, item := range items {
		total += item.Subtotal
	}
	return total
}

// OrderFilterInput narrows listing queries; all fields optional.
type OrderFilterInput struct {
	Status   *Status
	DateFrom *time.Time
	DateTo   *time.Time
}
