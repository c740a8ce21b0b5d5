package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hostel_hub/internal/app"
	"hostel_hub/internal/domain"
)

func (h *Handlers) searchHostels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := app.SearchParams{
		Q:       q.Get("q"),
		City:    q.Get("city"),
		Type:    q.Get("type"),
		Gender:  q.Get("gender"),
		Amenity: q.Get("amenity"),
		Cursor:  q.Get("cursor"),
	}
	var fields []domain.FieldError
	int64Param := func(name string) *int64 {
		v := q.Get(name)
		if v == "" {
			return nil
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			fields = append(fields, domain.FieldError{Field: name, Message: name + " must be an integer"})
			return nil
		}
		return &n
	}
	p.MinPrice = int64Param("min_price")
	p.MaxPrice = int64Param("max_price")
	if l := int64Param("limit"); l != nil {
		p.Limit = int(*l)
	}
	if len(fields) > 0 {
		writeError(w, r, domain.NewValidationError(fields...))
		return
	}

	page, err := h.Hostels.Search(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, page)
}

func (h *Handlers) getHostel(w http.ResponseWriter, r *http.Request) {
	hostel, err := h.Hostels.Get(r.Context(), IdentityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, hostel)
}

func (h *Handlers) startDraft(w http.ResponseWriter, r *http.Request) {
	var in app.Basics
	if !decodeJSON(w, r, &in) {
		return
	}
	hostel, err := h.Hostels.StartDraft(r.Context(), actor(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/hostels/"+hostel.ID+"/wizard")
	writeJSON(w, http.StatusCreated, hostel)
}

func (h *Handlers) wizardState(w http.ResponseWriter, r *http.Request) {
	st, err := h.Hostels.State(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// stepPayload returns an empty payload value for a wizard step number.
func stepPayload(step int) (any, bool) {
	switch step {
	case domain.StepBasics:
		return &app.Basics{}, true
	case domain.StepLocation:
		return &app.Location{}, true
	case domain.StepPricing:
		return &app.Pricing{}, true
	case domain.StepAmenities:
		return &app.AmenitiesStep{}, true
	}
	return nil, false
}

func (h *Handlers) saveStep(w http.ResponseWriter, r *http.Request) {
	step, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "unknown wizard step")
		return
	}
	dst, ok := stepPayload(step)
	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "unknown wizard step")
		return
	}
	if !decodeJSON(w, r, dst) {
		return
	}
	hostel, err := h.Hostels.SaveStep(r.Context(), actor(r), chi.URLParam(r, "id"), step, deref(dst))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hostel)
}

// deref turns the decoded step pointer back into the value the service
// switches on.
func deref(v any) any {
	switch p := v.(type) {
	case *app.Basics:
		return *p
	case *app.Location:
		return *p
	case *app.Pricing:
		return *p
	case *app.AmenitiesStep:
		return *p
	}
	return v
}

func (h *Handlers) publish(w http.ResponseWriter, r *http.Request) {
	hostel, err := h.Hostels.Publish(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hostel)
}

func (h *Handlers) archive(w http.ResponseWriter, r *http.Request) {
	hostel, err := h.Hostels.Archive(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hostel)
}

func (h *Handlers) deleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.Hostels.DeleteDraft(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) uploadImage(w http.ResponseWriter, r *http.Request) {
	if IdentityFrom(r.Context()) == nil {
		writeError(w, r, domain.ErrUnauthenticated)
		return
	}
	f, ok := uploadedFile(w, r)
	if !ok {
		return
	}
	defer f.Close()
	hostel, err := h.Hostels.UploadImage(r.Context(), actor(r), chi.URLParam(r, "id"), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hostel)
}

func (h *Handlers) landing(w http.ResponseWriter, r *http.Request) {
	out, err := h.Landing.Landing(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) contact(w http.ResponseWriter, r *http.Request) {
	var in app.ContactForm
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.Landing.Contact(r.Context(), in); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "received"})
}
