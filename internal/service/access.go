package service

import (
	"github.com/google/uuid"
	"github.com/washpoint/api/internal/enum"
)

// Actor is the authenticated identity performing an operation. OutletID is
// nil for SUPERADMIN users, who are not bound to an outlet.
type Actor struct {
	ID       uuid.UUID
	Role     string
	OutletID *uuid.UUID
}

// AssertOutletAccess is the single access policy for outlet-scoped resources:
// SUPERADMIN may touch any outlet, everyone else only their own.
func AssertOutletAccess(actor Actor, outletID uuid.UUID) error {
	if actor.Role == enum.UserRoleSuperadmin {
		return nil
	}
	if actor.OutletID == nil || *actor.OutletID != outletID {
		return ErrOutletForbidden
	}
	return nil
}

// ScopeOutletFilter resolves the outlet filter for list/report operations.
// An explicit filter is checked against the actor's outlet; with no filter,
// non-superadmin actors default to their own outlet and superadmins see all
// (returns nil).
func ScopeOutletFilter(actor Actor, requested *uuid.UUID) (*uuid.UUID, error) {
	if requested != nil {
		if err := AssertOutletAccess(actor, *requested); err != nil {
			return nil, err
		}
		return requested, nil
	}
	if actor.Role == enum.UserRoleSuperadmin {
		return nil, nil
	}
	if actor.OutletID == nil {
		return nil, ErrOutletScopeRequired
	}
	return actor.OutletID, nil
}
