package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"outreach-hq/src/lib"
	"outreach-hq/src/models"
)

// GroupStore is the slice of the persistence gateway the ledger uses.
type GroupStore interface {
	CreateGroup(ctx context.Context, group models.Group, roleID string) error
	CountGroupsForEvent(ctx context.Context, eventID string) (int, error)
	ListGroupsForEvent(ctx context.Context, eventID string) ([]models.Group, error)
	FindGroupByRole(ctx context.Context, roleID string) (models.Group, error)
	FindGroupByLeader(ctx context.Context, eventID, leaderID string) (models.Group, error)
	BindingForGroup(ctx context.Context, groupID string) (models.GroupRoleBinding, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	AddMember(ctx context.Context, groupID, userID string, at time.Time) error
	ListMembers(ctx context.Context, groupID string) ([]models.GroupMember, error)
	AddStats(ctx context.Context, groupID string, delta models.Stats) error
}

// LedgerService owns group creation and roster mutation for the current
// event. Roster mutations are authorized here: the group's leader may
// always mutate, and so may anyone holding one of the configured
// coordinator roles.
type LedgerService struct {
	groups           GroupStore
	events           EventStore
	users            UserStore
	platform         PlatformClient
	metrics          *lib.Metrics
	coordinatorRoles []string
	rolePrefix       string
}

func NewLedgerService(
	groups GroupStore,
	events EventStore,
	users UserStore,
	platform PlatformClient,
	metrics *lib.Metrics,
	coordinatorRoles []string,
	rolePrefix string,
) *LedgerService {
	return &LedgerService{
		groups:           groups,
		events:           events,
		users:            users,
		platform:         platform,
		metrics:          metrics,
		coordinatorRoles: coordinatorRoles,
		rolePrefix:       rolePrefix,
	}
}

// GroupResult is a committed ledger mutation plus the outcome of mirroring
// it to the platform. SyncErr non-nil means the write stands but the role
// grant needs a retry.
type GroupResult struct {
	Group   models.Group
	RoleID  string
	SyncErr error
}

// CreateGroup opens a group under the current event with leaderID as its
// first member. The platform role is created before any ledger write so
// the binding can be inserted in the same transaction as the group.
func (s *LedgerService) CreateGroup(ctx context.Context, leaderID string) (GroupResult, error) {
	event, err := s.events.FindActiveEvent(ctx)
	if err != nil {
		return GroupResult{}, err
	}

	member, err := s.platform.Member(ctx, leaderID)
	if err != nil {
		return GroupResult{}, err
	}
	now := time.Now().UTC()
	if err := s.users.UpsertUser(ctx, models.User{ID: member.ID, Username: member.Username, UpdatedAt: now}); err != nil {
		return GroupResult{}, err
	}

	// Display numbering only. Two concurrent creations can read the same
	// count and both succeed; the uuid is the stable identifier.
	count, err := s.groups.CountGroupsForEvent(ctx, event.ID)
	if err != nil {
		return GroupResult{}, err
	}

	group := models.Group{
		ID:        uuid.NewString(),
		EventID:   event.ID,
		LeaderID:  leaderID,
		Seq:       count + 1,
		CreatedAt: now,
	}

	roleID, err := s.platform.CreateRole(ctx, fmt.Sprintf("%s %d", s.rolePrefix, group.Seq))
	if err != nil {
		return GroupResult{}, fmt.Errorf("create platform role: %w", err)
	}

	if err := s.groups.CreateGroup(ctx, group, roleID); err != nil {
		return GroupResult{}, err
	}
	s.metrics.Inc("groups_created_total")

	return GroupResult{
		Group:   group,
		RoleID:  roleID,
		SyncErr: s.grantRole(ctx, leaderID, roleID),
	}, nil
}

// AddMember adds userID to a group. With roleRef set the group is resolved
// from its bound role; otherwise from the actor's own leadership in the
// current event. The storage constraint on (group, user) is the final word
// on duplicates.
func (s *LedgerService) AddMember(ctx context.Context, actorID, userID, roleRef string) (GroupResult, error) {
	group, roleID, err := s.resolveForMutation(ctx, actorID, roleRef)
	if err != nil {
		return GroupResult{}, err
	}

	already, err := s.groups.IsMember(ctx, group.ID, userID)
	if err != nil {
		return GroupResult{}, err
	}
	if already {
		return GroupResult{}, models.ErrAlreadyMember
	}

	member, err := s.platform.Member(ctx, userID)
	if err != nil {
		return GroupResult{}, err
	}
	now := time.Now().UTC()
	if err := s.users.UpsertUser(ctx, models.User{ID: member.ID, Username: member.Username, UpdatedAt: now}); err != nil {
		return GroupResult{}, err
	}

	if err := s.groups.AddMember(ctx, group.ID, userID, now); err != nil {
		return GroupResult{}, err
	}
	s.metrics.Inc("members_added_total")

	return GroupResult{
		Group:   group,
		RoleID:  roleID,
		SyncErr: s.grantRole(ctx, userID, roleID),
	}, nil
}

// UpdateStats applies engagement-counter deltas to a group, under the same
// resolution and authorization rules as AddMember.
func (s *LedgerService) UpdateStats(ctx context.Context, actorID, roleRef string, delta models.Stats) (models.Group, error) {
	group, _, err := s.resolveForMutation(ctx, actorID, roleRef)
	if err != nil {
		return models.Group{}, err
	}

	if err := s.groups.AddStats(ctx, group.ID, delta); err != nil {
		return models.Group{}, err
	}
	s.metrics.Inc("stats_updated_total")

	group.Stats.Vegan += delta.Vegan
	group.Stats.Considered += delta.Considered
	group.Stats.Thanked += delta.Thanked
	group.Stats.Documentary += delta.Documentary
	group.Stats.Educated += delta.Educated
	return group, nil
}

// Groups lists the current event's groups in creation order.
func (s *LedgerService) Groups(ctx context.Context) ([]models.Group, error) {
	event, err := s.events.FindActiveEvent(ctx)
	if err != nil {
		return nil, err
	}
	return s.groups.ListGroupsForEvent(ctx, event.ID)
}

// Members returns the roster of a group in join order.
func (s *LedgerService) Members(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	if _, err := s.groups.BindingForGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.groups.ListMembers(ctx, groupID)
}

// resolveForMutation finds the target group and its bound role, then checks
// that the actor may mutate its roster.
func (s *LedgerService) resolveForMutation(ctx context.Context, actorID, roleRef string) (models.Group, string, error) {
	var (
		group  models.Group
		roleID string
		err    error
	)

	if roleRef != "" {
		group, err = s.groups.FindGroupByRole(ctx, roleRef)
		if err != nil {
			return models.Group{}, "", err
		}
		roleID = roleRef
	} else {
		event, err := s.events.FindActiveEvent(ctx)
		if err != nil {
			return models.Group{}, "", err
		}
		group, err = s.groups.FindGroupByLeader(ctx, event.ID, actorID)
		if err != nil {
			if errors.Is(err, models.ErrGroupNotFound) {
				return models.Group{}, "", models.ErrNotALeader
			}
			return models.Group{}, "", err
		}
		binding, err := s.groups.BindingForGroup(ctx, group.ID)
		if err != nil {
			return models.Group{}, "", err
		}
		roleID = binding.RoleID
	}

	ok, err := s.authorized(ctx, actorID, group)
	if err != nil {
		return models.Group{}, "", err
	}
	if !ok {
		return models.Group{}, "", models.ErrNotAuthorized
	}
	return group, roleID, nil
}

func (s *LedgerService) authorized(ctx context.Context, actorID string, group models.Group) (bool, error) {
	if actorID == group.LeaderID {
		return true, nil
	}
	for _, coordinatorRole := range s.coordinatorRoles {
		ok, err := s.platform.HasRole(ctx, actorID, coordinatorRole)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (s *LedgerService) grantRole(ctx context.Context, userID, roleID string) error {
	if err := s.platform.GrantRole(ctx, userID, roleID); err != nil {
		s.metrics.Inc("role_sync_failures_total")
		return &RoleSyncError{UserID: userID, RoleID: roleID, Err: err}
	}
	return nil
}
