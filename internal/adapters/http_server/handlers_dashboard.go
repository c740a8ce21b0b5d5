package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hostel_hub/internal/domain"
)

// dashboardSummary serves /dashboard/{role}; Guard has already checked that
// {role} is the caller's own namespace.
func (h *Handlers) dashboardSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Dashboard.Summary(r.Context(), actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// dashboardSection serves the per-role lists under /dashboard/{role}/{section}.
func (h *Handlers) dashboardSection(w http.ResponseWriter, r *http.Request) {
	var (
		ctx     = r.Context()
		who     = actor(r)
		section = chi.URLParam(r, "section")
		items   any
		err     error
	)
	switch {
	case section == "bookings":
		items, err = h.Bookings.List(ctx, who, 0)
	case section == "payments":
		items, err = h.Payments.History(ctx, who, 0)
	case section == "favorites" && who.Role == domain.RoleStudent:
		items, err = h.Favorites.List(ctx, who)
	case section == "properties" && who.Role.CanManageListings():
		items, err = h.Dashboard.ManagedHostels(ctx, who)
	default:
		writeProblem(w, http.StatusNotFound, "Not Found", "unknown dashboard section")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"section": section, "items": items})
}
