package engine

import (
	"context"
	"testing"

	userdomain "txdash/internal/user/domain"
)

func TestOPAEvaluator_HealthCheck(t *testing.T) {
	e, err := NewOPAEvaluator("")
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	if err := e.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestOPAEvaluator_RejectsBadPolicy(t *testing.T) {
	if _, err := NewOPAEvaluator("package broken\nallow if {"); err == nil {
		t.Fatal("NewOPAEvaluator with broken rego should fail")
	}
}

func TestOPAEvaluator_Allow(t *testing.T) {
	e, err := NewOPAEvaluator("")
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	admin := &userdomain.User{ID: "u-1", Role: userdomain.RoleAdmin}
	regular := &userdomain.User{ID: "u-2", Role: userdomain.RoleUser}

	tests := []struct {
		name   string
		user   *userdomain.User
		action string
		want   bool
	}{
		{"admin reads audit", admin, ActionReadAudit, true},
		{"user denied audit", regular, ActionReadAudit, false},
		{"user reads transactions", regular, ActionReadTransactions, true},
		{"user writes transactions", regular, ActionWriteTransactions, true},
		{"user manages presets", regular, ActionManagePresets, true},
		{"anonymous denied", nil, ActionReadTransactions, false},
		{"unknown action denied", admin, "unknown:action", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Allow(context.Background(), tt.user, tt.action)
			if err != nil {
				t.Fatalf("Allow: %v", err)
			}
			if got != tt.want {
				t.Errorf("Allow(%v, %s) = %v, want %v", tt.user, tt.action, got, tt.want)
			}
		})
	}
}
