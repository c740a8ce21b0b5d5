package app

import (
	"net/http"
	"net/url"
	"strings"

	"hostel_hub/internal/domain"
)

const (
	DashboardRoot = "/dashboard"
	LoginPath     = "/login"
)

// Decision is the outcome of guarding a dashboard path.
type Decision struct {
	Allow    bool
	Redirect string
	Status   int
}

func allow() Decision { return Decision{Allow: true, Status: http.StatusOK} }

func redirect(to string) Decision { return Decision{Redirect: to, Status: http.StatusFound} }

// DashboardPath is the single dashboard namespace a role may enter.
func DashboardPath(r domain.Role) string {
	return DashboardRoot + "/" + string(r)
}

// ResolveDashboard maps the caller to exactly one permitted dashboard
// namespace. Anonymous callers go to the login page with a return path;
// everyone else is either allowed into their own namespace or redirected
// to it.
func ResolveDashboard(id *domain.Identity, path string) Decision {
	if id == nil {
		return redirect(LoginPath + "?next=" + url.QueryEscape(path))
	}
	if !id.Role.Valid() {
		return redirect(LoginPath)
	}
	own := DashboardPath(id.Role)

	ns, ok := dashboardNamespace(path)
	if !ok || ns == "" {
		return redirect(own)
	}
	if domain.Role(ns) == id.Role {
		return allow()
	}
	return redirect(own)
}

// dashboardNamespace returns the first segment after /dashboard.
func dashboardNamespace(path string) (string, bool) {
	p := strings.TrimSuffix(path, "/")
	if p == DashboardRoot {
		return "", true
	}
	rest, ok := strings.CutPrefix(p, DashboardRoot+"/")
	if !ok {
		return "", false
	}
	ns, _, _ := strings.Cut(rest, "/")
	return ns, true
}

// Authorize is the API counterpart of ResolveDashboard: no redirects,
// just an error the transport maps to 401 or 403.
func Authorize(id *domain.Identity, allowed ...domain.Role) error {
	if id == nil || !id.Role.Valid() {
		return domain.ErrUnauthenticated
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, r := range allowed {
		if r == id.Role {
			return nil
		}
	}
	return domain.ErrForbidden
}
