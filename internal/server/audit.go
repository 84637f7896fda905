package server

import (
	"net/http"

	auditdomain "txdash/internal/audit/domain"
	auditrepo "txdash/internal/audit/repository"
	"txdash/internal/policy/engine"
)

// handleListAudit serves the admin-only audit trail, newest first. The
// client consumes it through the infinite-accumulation view.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, engine.ActionReadAudit) {
		return
	}

	params := r.URL.Query()
	page, limit := pagination(params.Get("page"), params.Get("limit"))

	entries, total, err := s.auditRepo.List(r.Context(), auditrepo.ListQuery{
		Search: params.Get("search"),
		Action: params.Get("action"),
		From:   params.Get("from"),
		To:     params.Get("to"),
		Limit:  int32(limit),
		Offset: int32((page - 1) * limit),
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "list audit failed")
		return
	}
	if entries == nil {
		entries = []auditdomain.Entry{}
	}
	respondJSON(w, http.StatusOK, listResult(entries, total, page, limit))
}
