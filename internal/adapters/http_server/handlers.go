package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hostel_hub/internal/app"
	"hostel_hub/internal/domain"
)

const maxJSONBody = 1 << 20

type Handlers struct {
	Auth      *app.AuthService
	Profiles  *app.ProfileService
	Hostels   *app.HostelService
	Bookings  *app.BookingService
	Payments  *app.PaymentService
	Favorites *app.FavoriteService
	Dashboard *app.DashboardService
	Landing   *app.LandingService

	CookieSecure bool
}

type problem struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Group(func(r chi.Router) {
		r.Use(Authenticate(h.Auth))

		r.Route("/v1/auth", func(r chi.Router) {
			r.Post("/signup", h.signUp)
			r.Post("/login", h.login)
			r.Post("/logout", h.logout)
			r.Post("/password-reset", h.passwordReset)
			r.Get("/me", h.me)
		})

		r.Get("/v1/profile", h.getProfile)
		r.Patch("/v1/profile", h.updateProfile)
		r.Post("/v1/profile/avatar", h.uploadAvatar)

		r.Route("/v1/hostels", func(r chi.Router) {
			r.Get("/", h.searchHostels)
			r.Post("/", h.startDraft)
			r.Get("/{id}", h.getHostel)
			r.Delete("/{id}", h.deleteDraft)
			r.Get("/{id}/wizard", h.wizardState)
			r.Put("/{id}/steps/{step}", h.saveStep)
			r.Post("/{id}/publish", h.publish)
			r.Post("/{id}/archive", h.archive)
			r.Post("/{id}/images", h.uploadImage)
		})

		r.Route("/v1/bookings", func(r chi.Router) {
			r.Get("/", h.listBookings)
			r.Post("/", h.requestBooking)
			r.Get("/{id}", h.getBooking)
			r.Post("/{id}/confirm", h.confirmBooking)
			r.Post("/{id}/reject", h.rejectBooking)
			r.Post("/{id}/cancel", h.cancelBooking)
		})

		r.Get("/v1/payments", h.paymentHistory)
		r.Post("/v1/payments", h.recordPayment)

		r.Get("/v1/favorites", h.listFavorites)
		r.Put("/v1/favorites/{hostelID}", h.addFavorite)
		r.Delete("/v1/favorites/{hostelID}", h.removeFavorite)

		r.Get("/v1/landing", h.landing)
		r.Post("/v1/contact", h.contact)

		r.Route(app.DashboardRoot, func(r chi.Router) {
			r.Use(Guard)
			r.Get("/", h.dashboardSummary)
			r.Get("/{role}", h.dashboardSummary)
			r.Get("/{role}/{section}", h.dashboardSection)
		})
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemBody(w, problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

func writeProblemBody(w http.ResponseWriter, p problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeProblemBody(w, problem{
			Type: "about:blank", Title: "Validation Failed", Status: http.StatusUnprocessableEntity,
			Detail: "one or more fields are invalid", Errors: verr.Map(),
		})
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "resource not found")
	case errors.Is(err, domain.ErrUnauthenticated):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "sign in to continue")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeProblem(w, http.StatusForbidden, "Forbidden", "you are not allowed to do this")
	case errors.Is(err, domain.ErrEmailTaken), errors.Is(err, domain.ErrConflict):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, domain.ErrUnavailable):
		writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", "this feature is not configured")
	default:
		log.Error().Err(err).Str("route", routePattern(r)).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "something went wrong")
	}
}

// decodeJSON reads a bounded JSON body into dst and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeProblem(w, http.StatusBadRequest, "Bad Request", "request body is empty")
			return false
		}
		writeProblem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCacheable writes v with a weak ETag and answers 304 when the client
// already holds that version.
func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "something went wrong")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write cacheable body")
	}
}

// uploadedFile returns the multipart "file" part, bounded to the image limit.
func uploadedFile(w http.ResponseWriter, r *http.Request) (io.ReadCloser, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, app.MaxImageBytes+(1<<20))
	f, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, domain.NewValidationError(domain.FieldError{Field: "file", Message: "file is required"}))
		return nil, false
	}
	return f, true
}
