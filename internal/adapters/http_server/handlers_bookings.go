package httpserver

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hostel_hub/internal/app"
	"hostel_hub/internal/domain"
)

func listLimit(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return n
}

func (h *Handlers) requestBooking(w http.ResponseWriter, r *http.Request) {
	var in app.BookingRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	b, err := h.Bookings.Request(r.Context(), actor(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/bookings/"+b.ID)
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handlers) listBookings(w http.ResponseWriter, r *http.Request) {
	out, err := h.Bookings.List(r.Context(), actor(r), listLimit(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.Bookings.Get(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type bookingAction func(ctx context.Context, actor domain.Identity, id string) (domain.Booking, error)

func (h *Handlers) bookingTransition(fn bookingAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := fn(r.Context(), actor(r), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func (h *Handlers) confirmBooking(w http.ResponseWriter, r *http.Request) {
	h.bookingTransition(h.Bookings.Confirm)(w, r)
}

func (h *Handlers) rejectBooking(w http.ResponseWriter, r *http.Request) {
	h.bookingTransition(h.Bookings.Reject)(w, r)
}

func (h *Handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	h.bookingTransition(h.Bookings.Cancel)(w, r)
}

func (h *Handlers) recordPayment(w http.ResponseWriter, r *http.Request) {
	var in app.PaymentRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.Payments.Record(r.Context(), actor(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handlers) paymentHistory(w http.ResponseWriter, r *http.Request) {
	out, err := h.Payments.History(r.Context(), actor(r), listLimit(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handlers) listFavorites(w http.ResponseWriter, r *http.Request) {
	out, err := h.Favorites.List(r.Context(), actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handlers) addFavorite(w http.ResponseWriter, r *http.Request) {
	if err := h.Favorites.Add(r.Context(), actor(r), chi.URLParam(r, "hostelID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) removeFavorite(w http.ResponseWriter, r *http.Request) {
	if err := h.Favorites.Remove(r.Context(), actor(r), chi.URLParam(r, "hostelID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
