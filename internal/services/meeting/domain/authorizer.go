package domain

import "context"

// Role names the grant role an actor holds within an organization.
type Role string

const (
	// RoleFacilitator may run every meeting and agenda command.
	RoleFacilitator Role = "facilitator"
	// RoleObserver may read meetings and agendas but not change them.
	RoleObserver Role = "observer"
)

// IsValid reports whether the role is one the service recognizes.
func (r Role) IsValid() bool {
	switch r {
	case RoleFacilitator, RoleObserver:
		return true
	default:
		return false
	}
}

// CanMutate reports whether the role may run commands that change state.
func (r Role) CanMutate() bool {
	return r == RoleFacilitator
}

// Actor identifies the authorized caller of a facade operation.
type Actor struct {
	ID   string
	Role Role
}

// Authorizer validates caller credentials against an organization scope.
// Implementations fail closed: any parse failure or claim mismatch is
// reported as ErrUnauthorized, never as a pass.
type Authorizer interface {
	Authorize(ctx context.Context, credential string, orgID string) (Actor, error)
}
