package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	auditdomain "txdash/internal/audit/domain"
	"txdash/internal/cache"
	"txdash/internal/filter"
	"txdash/internal/policy/engine"
	txdomain "txdash/internal/transaction/domain"
	txrepo "txdash/internal/transaction/repository"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// validationFields is the order used to pick the error reported when a
// filter fails validation on several fields at once.
var validationFields = []string{"from", "to", "minAmount", "maxAmount"}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, engine.ActionReadTransactions) {
		return
	}

	params := r.URL.Query()
	model := filter.Parse(params)
	if result := filter.Validate(model, ""); !result.Valid {
		for _, field := range validationFields {
			if msg, ok := result.Errors[field]; ok {
				respondError(w, http.StatusBadRequest, msg)
				return
			}
		}
		respondError(w, http.StatusBadRequest, "invalid filters")
		return
	}

	page, limit := pagination(params.Get("page"), params.Get("limit"))
	q := txrepo.ListQuery{
		Filters: model,
		Sort:    params.Get("sort"),
		Dir:     params.Get("dir"),
		Page:    page,
		Limit:   limit,
	}
	rows, total, err := s.transactions.List(r.Context(), q)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "list transactions failed")
		return
	}

	user := userFrom(r.Context())
	if filter.HasActiveFilters(model) {
		s.auditLog.Record(r.Context(), user.Email, user.Role, auditdomain.ActionFilterApplied, "", filter.Serialize(model).Encode())
	} else {
		s.auditLog.Record(r.Context(), user.Email, user.Role, auditdomain.ActionViewTransactions, "", "")
	}

	respondJSON(w, http.StatusOK, listResult(rows, total, page, limit))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, engine.ActionWriteTransactions) {
		return
	}

	var t txdomain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t.ID = uuid.New().String()
	if t.TransactionID == "" {
		t.TransactionID = "TXN-" + uuid.New().String()[:8]
	}
	if err := t.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.transactions.Create(r.Context(), &t); err != nil {
		respondError(w, http.StatusInternalServerError, "create transaction failed")
		return
	}

	user := userFrom(r.Context())
	s.auditLog.Record(r.Context(), user.Email, user.Role, auditdomain.ActionCreateTransaction, t.ID, t.TransactionID)
	respondJSON(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, engine.ActionWriteTransactions) {
		return
	}

	var t txdomain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t.ID = r.PathValue("id")
	if err := t.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.transactions.Update(r.Context(), &t); err != nil {
		if errors.Is(err, txrepo.ErrNotFound) {
			respondError(w, http.StatusNotFound, "transaction not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "update transaction failed")
		return
	}

	user := userFrom(r.Context())
	s.auditLog.Record(r.Context(), user.Email, user.Role, auditdomain.ActionUpdateTransaction, t.ID, t.TransactionID)
	respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, engine.ActionWriteTransactions) {
		return
	}

	id := r.PathValue("id")
	if err := s.transactions.Delete(r.Context(), id); err != nil {
		if errors.Is(err, txrepo.ErrNotFound) {
			respondError(w, http.StatusNotFound, "transaction not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "delete transaction failed")
		return
	}

	user := userFrom(r.Context())
	s.auditLog.Record(r.Context(), user.Email, user.Role, auditdomain.ActionDeleteTransaction, id, "")
	respondJSON(w, http.StatusNoContent, nil)
}

// pagination parses and clamps the advisory page/limit parameters.
func pagination(pageStr, limitStr string) (page, limit int) {
	page = 1
	if v, err := strconv.Atoi(pageStr); err == nil && v > 1 {
		page = v
	}
	limit = defaultLimit
	if v, err := strconv.Atoi(limitStr); err == nil && v > 0 {
		limit = v
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func listResult[T any](rows []T, total int64, page, limit int) cache.Result[T] {
	if rows == nil {
		rows = []T{}
	}
	return cache.Result[T]{
		Data: rows,
		Meta: cache.Meta{
			Total: int(total),
			Page:  page,
			Limit: limit,
			Pages: int(math.Ceil(float64(total) / float64(limit))),
		},
	}
}
