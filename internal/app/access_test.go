package app

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel_hub/internal/domain"
)

func TestResolveDashboard(t *testing.T) {
	student := &domain.Identity{UserID: "s1", Role: domain.RoleStudent}
	agent := &domain.Identity{UserID: "a1", Role: domain.RoleAgent}
	broken := &domain.Identity{UserID: "x1", Role: domain.Role("admin")}

	cases := []struct {
		name     string
		id       *domain.Identity
		path     string
		allow    bool
		redirect string
	}{
		{"anonymous", nil, "/dashboard/student/bookings", false, "/login?next=%2Fdashboard%2Fstudent%2Fbookings"},
		{"unknown role", broken, "/dashboard/student", false, "/login"},
		{"root goes home", student, "/dashboard", false, "/dashboard/student"},
		{"root slash goes home", student, "/dashboard/", false, "/dashboard/student"},
		{"own namespace", student, "/dashboard/student", true, ""},
		{"own section", student, "/dashboard/student/favorites", true, ""},
		{"foreign namespace", student, "/dashboard/business", false, "/dashboard/student"},
		{"foreign section", agent, "/dashboard/student/payments", false, "/dashboard/agent"},
		{"unknown namespace", agent, "/dashboard/admin", false, "/dashboard/agent"},
		{"outside dashboard", agent, "/settings", false, "/dashboard/agent"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := ResolveDashboard(tc.id, tc.path)
			assert.Equal(t, tc.allow, d.Allow)
			assert.Equal(t, tc.redirect, d.Redirect)
			if tc.allow {
				assert.Equal(t, http.StatusOK, d.Status)
			} else {
				assert.Equal(t, http.StatusFound, d.Status)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	business := &domain.Identity{UserID: "b1", Role: domain.RoleBusiness}

	require.ErrorIs(t, Authorize(nil), domain.ErrUnauthenticated)
	require.ErrorIs(t, Authorize(&domain.Identity{}), domain.ErrUnauthenticated)
	require.NoError(t, Authorize(business))
	require.NoError(t, Authorize(business, domain.RoleBusiness, domain.RoleAgent))
	require.ErrorIs(t, Authorize(business, domain.RoleStudent), domain.ErrForbidden)
}
