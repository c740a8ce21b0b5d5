package httpserver

import (
	"net/http"

	"hostel_hub/internal/app"
	"hostel_hub/internal/domain"
)

func (h *Handlers) setSession(w http.ResponseWriter, s app.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) signUp(w http.ResponseWriter, r *http.Request) {
	var in app.NewAccount
	if !decodeJSON(w, r, &in) {
		return
	}
	sess, err := h.Auth.SignUp(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.setSession(w, sess)
	writeJSON(w, http.StatusCreated, sess)
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var in app.Credentials
	if !decodeJSON(w, r, &in) {
		return
	}
	sess, err := h.Auth.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.setSession(w, sess)
	writeJSON(w, http.StatusOK, sess)
}

// logout clears the session cookie; tokens are stateless and simply expire.
func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) passwordReset(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.Auth.RequestPasswordReset(r.Context(), in.Email); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) me(w http.ResponseWriter, r *http.Request) {
	acc, err := h.Auth.Me(r.Context(), actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (h *Handlers) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.Profiles.Get(r.Context(), actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in app.ProfileUpdate
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.Profiles.Update(r.Context(), actor(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	// reject before reading a multipart body nobody may upload
	if IdentityFrom(r.Context()) == nil {
		writeError(w, r, domain.ErrUnauthenticated)
		return
	}
	f, ok := uploadedFile(w, r)
	if !ok {
		return
	}
	defer f.Close()
	p, err := h.Profiles.UploadAvatar(r.Context(), actor(r), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
