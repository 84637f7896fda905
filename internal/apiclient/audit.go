package apiclient

import (
	"context"
	"net/http"

	auditdomain "txdash/internal/audit/domain"
	"txdash/internal/cache"
	"txdash/internal/query"
)

// ListAudit fetches one page of the audit trail. Admin-only; other
// roles get a 403.
func (c *Client) ListAudit(ctx context.Context, q query.Query) (cache.Result[auditdomain.Entry], error) {
	var out cache.Result[auditdomain.Entry]
	err := c.do(ctx, http.MethodGet, "/api/audit", listParams(q), nil, &out)
	return out, err
}

// AuditFetcher adapts ListAudit for the query engine's infinite view.
func (c *Client) AuditFetcher() query.FetchFunc[auditdomain.Entry] {
	return func(ctx context.Context, q query.Query) (cache.Result[auditdomain.Entry], error) {
		res, err := c.ListAudit(ctx, q)
		return res, permanent(err)
	}
}
