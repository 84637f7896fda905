package engine

import (
	"context"

	userdomain "txdash/internal/user/domain"
)

// Actions the dashboard authorizes through policy.
const (
	ActionReadTransactions  = "transactions:read"
	ActionWriteTransactions = "transactions:write"
	ActionReadAudit         = "audit:read"
	ActionManagePresets     = "presets:manage"
)

// Evaluator decides whether a user may perform an action.
type Evaluator interface {
	Allow(ctx context.Context, user *userdomain.User, action string) (bool, error)
}
