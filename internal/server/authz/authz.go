// Package authz is the single authorization gate. Every operation that reads
// or mutates session-scoped state calls Authorize as a precondition.
//
// Policy: roles form a total order, viewer < analyst < admin, and a session
// passes when its role is at or above the required one. A denial carries no
// information about whether the requested resource exists.
package authz

import (
	"github.com/chipsfactory/prodreport/internal/common"
	"github.com/chipsfactory/prodreport/internal/server/models"
)

var rank = map[models.Role]int{
	models.RoleViewer:  0,
	models.RoleAnalyst: 1,
	models.RoleAdmin:   2,
}

// Authorize returns nil when the session holds the required role or higher.
// A nil session yields ErrUnauthenticated; an insufficient role, ErrDenied.
func Authorize(session *models.Session, required models.Role) error {
	if session == nil {
		return common.ErrUnauthenticated
	}

	have, ok := rank[session.Role]
	if !ok {
		return common.ErrDenied
	}
	need, ok := rank[required]
	if !ok {
		return common.ErrDenied
	}

	if have < need {
		return common.ErrDenied
	}
	return nil
}
