package apiclient

import (
	"context"
	"net/http"

	"txdash/internal/cache"
	"txdash/internal/query"
	txdomain "txdash/internal/transaction/domain"
)

// ListTransactions fetches one page of transactions for a query.
func (c *Client) ListTransactions(ctx context.Context, q query.Query) (cache.Result[txdomain.Transaction], error) {
	var out cache.Result[txdomain.Transaction]
	err := c.do(ctx, http.MethodGet, "/api/transactions", listParams(q), nil, &out)
	return out, err
}

// CreateTransaction creates a transaction and returns the stored form.
func (c *Client) CreateTransaction(ctx context.Context, t txdomain.Transaction) (txdomain.Transaction, error) {
	var out txdomain.Transaction
	err := c.do(ctx, http.MethodPost, "/api/transactions", nil, t, &out)
	return out, err
}

// UpdateTransaction replaces a transaction by id.
func (c *Client) UpdateTransaction(ctx context.Context, t txdomain.Transaction) (txdomain.Transaction, error) {
	var out txdomain.Transaction
	err := c.do(ctx, http.MethodPut, "/api/transactions/"+t.ID, nil, t, &out)
	return out, err
}

// DeleteTransaction removes a transaction by id.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/transactions/"+id, nil, nil, nil)
}

// TransactionFetcher adapts ListTransactions for the query engine,
// marking rejections as non-retryable.
func (c *Client) TransactionFetcher() query.FetchFunc[txdomain.Transaction] {
	return func(ctx context.Context, q query.Query) (cache.Result[txdomain.Transaction], error) {
		res, err := c.ListTransactions(ctx, q)
		return res, permanent(err)
	}
}
