package domain

import (
	"time"

	userdomain "txdash/internal/user/domain"
)

// Actions recorded in the audit trail.
const (
	ActionLogin             = "LOGIN"
	ActionViewTransactions  = "VIEW_TRANSACTIONS"
	ActionCreateTransaction = "CREATE_TRANSACTION"
	ActionUpdateTransaction = "UPDATE_TRANSACTION"
	ActionDeleteTransaction = "DELETE_TRANSACTION"
	ActionFilterApplied     = "FILTER_APPLIED"
)

// Entry is one audit event: who did what to which entity. EntityID and
// Meta are empty for actions without a target (e.g. LOGIN).
type Entry struct {
	ID        string          `json:"id"`
	Actor     string          `json:"actor"`
	Role      userdomain.Role `json:"role"`
	Action    string          `json:"action"`
	EntityID  string          `json:"entityId,omitempty"`
	Meta      string          `json:"meta,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
