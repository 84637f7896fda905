package domain

import (
	"errors"
	"strings"
)

// Status is a transaction's settlement state.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
)

// AllStatuses lists every status, in display order.
var AllStatuses = []Status{StatusPending, StatusCompleted, StatusFailed}

// ParseStatus maps a case-insensitive string to a Status.
func ParseStatus(s string) (Status, bool) {
	for _, st := range AllStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// Transaction is a ledger row as exchanged with the API.
// ID is empty only for client-constructed rows that have not been persisted;
// it is set once a server round-trip occurs. TransactionID is the
// human-facing reference (e.g. "TXN-00042") and is the dedup key fallback.
type Transaction struct {
	ID            string  `json:"id,omitempty"`
	TransactionID string  `json:"transactionId"`
	UserName      string  `json:"userName"`
	Status        Status  `json:"status"`
	Amount        float64 `json:"amount"`
	Date          string  `json:"date"`
}

// Key returns the identity used for cache updates and cross-page dedup:
// the persisted ID when present, else the transaction reference.
func (t Transaction) Key() string {
	if t.ID != "" {
		return t.ID
	}
	return t.TransactionID
}

// Validate validates the transaction for persistence.
func (t *Transaction) Validate() error {
	if t.TransactionID == "" {
		return errors.New("transactionId is required")
	}
	if t.UserName == "" {
		return errors.New("userName is required")
	}
	if _, ok := ParseStatus(string(t.Status)); !ok {
		return errors.New("status must be Pending, Completed, or Failed")
	}
	if t.Amount < 0 {
		return errors.New("amount must not be negative")
	}
	if t.Date == "" {
		return errors.New("date is required")
	}
	return nil
}
