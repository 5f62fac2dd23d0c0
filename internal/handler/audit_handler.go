package handler

import (
	"net/http"
	"strings"

	"go-video-backend/internal/middleware"
	"go-video-backend/internal/model"
	"go-video-backend/internal/service"
	"go-video-backend/pkg/apierror"
)

type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(service *service.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// List returns the caller's own audit trail.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	query := r.URL.Query()
	items, meta, err := h.service.Query(r.Context(), model.AuditQuery{
		UserID: claims.UserID(),
		Action: strings.TrimSpace(query.Get("action")),
		Page:   parseIntOrDefault(query.Get("page"), 1),
		Limit:  parseIntOrDefault(query.Get("limit"), 50),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.AuditListData{Items: items}, &meta)
}
