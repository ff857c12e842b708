package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chipsfactory/prodreport/internal/common"
	"github.com/chipsfactory/prodreport/internal/server/models"
)

func session(role models.Role) *models.Session {
	return &models.Session{ID: "s", Username: "u", Role: role}
}

func TestAuthorize_Hierarchy(t *testing.T) {
	tests := []struct {
		name     string
		have     models.Role
		required models.Role
		wantErr  error
	}{
		{"viewer can view", models.RoleViewer, models.RoleViewer, nil},
		{"viewer cannot analyze", models.RoleViewer, models.RoleAnalyst, common.ErrDenied},
		{"viewer cannot admin", models.RoleViewer, models.RoleAdmin, common.ErrDenied},
		{"analyst can view", models.RoleAnalyst, models.RoleViewer, nil},
		{"analyst cannot admin", models.RoleAnalyst, models.RoleAdmin, common.ErrDenied},
		{"admin can everything", models.RoleAdmin, models.RoleAdmin, nil},
		{"admin can view", models.RoleAdmin, models.RoleViewer, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(session(tc.have), tc.required)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestAuthorize_NilSession(t *testing.T) {
	assert.ErrorIs(t, Authorize(nil, models.RoleViewer), common.ErrUnauthenticated)
}

func TestAuthorize_UnknownRoleDenied(t *testing.T) {
	assert.ErrorIs(t, Authorize(session(models.Role("root")), models.RoleViewer), common.ErrDenied)
}
