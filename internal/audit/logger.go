// Package audit records who did what against the dashboard's entities.
// Writes are best-effort: a failed audit insert never fails the request
// that triggered it.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"txdash/internal/audit/domain"
	auditrepo "txdash/internal/audit/repository"
	userdomain "txdash/internal/user/domain"
)

// Logger writes audit entries through the repository. An optional emit
// hook mirrors every entry to telemetry.
type Logger struct {
	repo auditrepo.Repository
	emit func(domain.Entry)
}

// NewLogger returns a Logger persisting to repo. emit may be nil.
func NewLogger(repo auditrepo.Repository, emit func(domain.Entry)) *Logger {
	return &Logger{repo: repo, emit: emit}
}

// Record writes one audit entry. Best-effort: errors are logged, not
// returned.
func (l *Logger) Record(ctx context.Context, actor string, role userdomain.Role, action, entityID, meta string) {
	if l == nil || l.repo == nil {
		return
	}
	entry := domain.Entry{
		ID:        uuid.New().String(),
		Actor:     actor,
		Role:      role,
		Action:    action,
		EntityID:  entityID,
		Meta:      meta,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, &entry); err != nil {
		log.Printf("audit: failed to record %s for %s: %v", action, actor, err)
		return
	}
	if l.emit != nil {
		l.emit(entry)
	}
}
