package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/lingocards-backend/pkg/ctxutil"
)

// reprojector rebuilds projection rows written under an older algorithm
// revision.
type reprojector interface {
	RebuildProjections(ctx context.Context) (int, error)
}

// AdminHandler serves admin REST endpoints.
type AdminHandler struct {
	study reprojector
	log   *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(study reprojector, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{study: study, log: logger.With("handler", "admin")}
}

// Reproject handles POST /admin/reproject. Safe to call repeatedly; a
// second run finds nothing stale.
func (h *AdminHandler) Reproject(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	n, err := h.study.RebuildProjections(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "reproject failed",
			slog.Int("reprojected", n), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"reprojected": n})
}

func (h *AdminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := ctxutil.UserIDFromCtx(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	if !ctxutil.IsAdminFromCtx(r.Context()) {
		writeError(w, http.StatusForbidden, "admin access required")
		return false
	}
	return true
}
