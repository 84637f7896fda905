package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	auditdomain "txdash/internal/audit/domain"
)

// NewAuditEmitter returns a hook that mirrors audit entries as OTel log
// records via the given LoggerProvider. If provider is nil, the hook is
// a no-op. Wire it into audit.NewLogger.
func NewAuditEmitter(provider *sdklog.LoggerProvider) func(auditdomain.Entry) {
	if provider == nil {
		return func(auditdomain.Entry) {}
	}
	logger := provider.Logger("txdash.audit")
	return func(e auditdomain.Entry) {
		rec := otellog.Record{}
		rec.SetTimestamp(e.CreatedAt)
		if rec.Timestamp().IsZero() {
			rec.SetTimestamp(time.Now().UTC())
		}
		rec.SetBody(otellog.StringValue(e.Action))
		rec.AddAttributes(
			otellog.String("audit.id", e.ID),
			otellog.String("audit.actor", e.Actor),
			otellog.String("audit.role", string(e.Role)),
		)
		if e.EntityID != "" {
			rec.AddAttributes(otellog.String("audit.entity_id", e.EntityID))
		}
		if e.Meta != "" {
			rec.AddAttributes(otellog.String("audit.meta", e.Meta))
		}
		logger.Emit(context.Background(), rec)
	}
}
