package services

import (
	"context"
	"fmt"
)

// Member is a platform-side member profile.
type Member struct {
	ID       string
	Username string
}

// PlatformClient is the boundary to the external chat platform. It is only
// ever called after the corresponding ledger write has committed (or, for
// role creation, before any write happens at all), so a failure here never
// needs to reverse persistent state.
type PlatformClient interface {
	Member(ctx context.Context, userID string) (Member, error)
	CreateRole(ctx context.Context, name string) (string, error)
	GrantRole(ctx context.Context, userID, roleID string) error
	HasRole(ctx context.Context, userID, roleID string) (bool, error)
}

// RoleSyncError reports that a ledger write committed but the platform-side
// role mirror did not. The membership record stays the source of truth; the
// caller may retry the grant independently.
type RoleSyncError struct {
	UserID string
	RoleID string
	Err    error
}

func (e *RoleSyncError) Error() string {
	return fmt.Sprintf("grant role %s to %s: %v", e.RoleID, e.UserID, e.Err)
}

func (e *RoleSyncError) Unwrap() error {
	return e.Err
}
