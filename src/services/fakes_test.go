package services

import (
	"context"
	"sort"
	"time"

	"outreach-hq/src/models"
)

// fakeEventStore mimics the storage constraints: one open event, start is
// one-shot.
type fakeEventStore struct {
	active    *models.Event
	createErr error
	created   []models.Event
}

func (f *fakeEventStore) CreateEvent(_ context.Context, event models.Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.active != nil {
		return models.ErrActiveEventExists
	}
	f.created = append(f.created, event)
	cp := event
	f.active = &cp
	return nil
}

func (f *fakeEventStore) FindActiveEvent(_ context.Context) (models.Event, error) {
	if f.active == nil {
		return models.Event{}, models.ErrNoActiveEvent
	}
	return *f.active, nil
}

func (f *fakeEventStore) StartEvent(_ context.Context, eventID string, at time.Time) error {
	if f.active == nil || f.active.ID != eventID || f.active.StartTime != nil {
		return models.ErrEventAlreadyStarted
	}
	f.active.StartTime = &at
	return nil
}

func (f *fakeEventStore) EndEvent(_ context.Context, eventID string, at time.Time) error {
	if f.active == nil || f.active.ID != eventID {
		return models.ErrEventAlreadyEnded
	}
	f.active.EndTime = &at
	f.active = nil
	return nil
}

type fakeUserStore struct {
	upserted []models.User
}

func (f *fakeUserStore) UpsertUser(_ context.Context, user models.User) error {
	f.upserted = append(f.upserted, user)
	return nil
}

// fakeGroupStore keeps groups, memberships, and bindings in memory with the
// same uniqueness behavior as the real tables.
type fakeGroupStore struct {
	groups   []models.Group
	bindings map[string]string          // group id -> role id
	members  map[string]map[string]bool // group id -> user ids
}

func newFakeGroupStore() *fakeGroupStore {
	return &fakeGroupStore{
		bindings: make(map[string]string),
		members:  make(map[string]map[string]bool),
	}
}

func (f *fakeGroupStore) CreateGroup(_ context.Context, group models.Group, roleID string) error {
	for _, g := range f.groups {
		if g.EventID == group.EventID && g.LeaderID == group.LeaderID {
			return models.ErrLeaderHasGroup
		}
	}
	f.groups = append(f.groups, group)
	f.bindings[group.ID] = roleID
	f.members[group.ID] = map[string]bool{group.LeaderID: true}
	return nil
}

func (f *fakeGroupStore) CountGroupsForEvent(_ context.Context, eventID string) (int, error) {
	count := 0
	for _, g := range f.groups {
		if g.EventID == eventID {
			count++
		}
	}
	return count, nil
}

func (f *fakeGroupStore) ListGroupsForEvent(_ context.Context, eventID string) ([]models.Group, error) {
	out := make([]models.Group, 0)
	for _, g := range f.groups {
		if g.EventID == eventID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGroupStore) FindGroupByRole(_ context.Context, roleID string) (models.Group, error) {
	for groupID, bound := range f.bindings {
		if bound != roleID {
			continue
		}
		for _, g := range f.groups {
			if g.ID == groupID {
				return g, nil
			}
		}
	}
	return models.Group{}, models.ErrGroupNotFound
}

func (f *fakeGroupStore) FindGroupByLeader(_ context.Context, eventID, leaderID string) (models.Group, error) {
	for _, g := range f.groups {
		if g.EventID == eventID && g.LeaderID == leaderID {
			return g, nil
		}
	}
	return models.Group{}, models.ErrGroupNotFound
}

func (f *fakeGroupStore) BindingForGroup(_ context.Context, groupID string) (models.GroupRoleBinding, error) {
	roleID, ok := f.bindings[groupID]
	if !ok {
		return models.GroupRoleBinding{}, models.ErrGroupNotFound
	}
	return models.GroupRoleBinding{GroupID: groupID, RoleID: roleID}, nil
}

func (f *fakeGroupStore) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	return f.members[groupID][userID], nil
}

func (f *fakeGroupStore) AddMember(_ context.Context, groupID, userID string, _ time.Time) error {
	users, ok := f.members[groupID]
	if !ok {
		return models.ErrGroupNotFound
	}
	if users[userID] {
		return models.ErrAlreadyMember
	}
	users[userID] = true
	return nil
}

func (f *fakeGroupStore) ListMembers(_ context.Context, groupID string) ([]models.GroupMember, error) {
	out := make([]models.GroupMember, 0)
	for userID := range f.members[groupID] {
		out = append(out, models.GroupMember{GroupID: groupID, UserID: userID})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (f *fakeGroupStore) AddStats(_ context.Context, groupID string, delta models.Stats) error {
	for i, g := range f.groups {
		if g.ID == groupID {
			f.groups[i].Stats.Vegan += delta.Vegan
			f.groups[i].Stats.Considered += delta.Considered
			f.groups[i].Stats.Thanked += delta.Thanked
			f.groups[i].Stats.Documentary += delta.Documentary
			f.groups[i].Stats.Educated += delta.Educated
			return nil
		}
	}
	return models.ErrGroupNotFound
}

type grant struct {
	userID string
	roleID string
}

type fakePlatform struct {
	members       map[string]Member
	roles         map[string]map[string]bool // user id -> role ids held
	nextRoleID    string
	createRoleErr error
	grantErr      error
	createdRoles  []string
	grants        []grant
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		members:    make(map[string]Member),
		roles:      make(map[string]map[string]bool),
		nextRoleID: "role-1",
	}
}

func (f *fakePlatform) Member(_ context.Context, userID string) (Member, error) {
	member, ok := f.members[userID]
	if !ok {
		return Member{}, models.ErrMemberNotFound
	}
	return member, nil
}

func (f *fakePlatform) CreateRole(_ context.Context, name string) (string, error) {
	if f.createRoleErr != nil {
		return "", f.createRoleErr
	}
	f.createdRoles = append(f.createdRoles, name)
	return f.nextRoleID, nil
}

func (f *fakePlatform) GrantRole(_ context.Context, userID, roleID string) error {
	if f.grantErr != nil {
		return f.grantErr
	}
	f.grants = append(f.grants, grant{userID: userID, roleID: roleID})
	return nil
}

func (f *fakePlatform) HasRole(_ context.Context, userID, roleID string) (bool, error) {
	return f.roles[userID][roleID], nil
}

func (f *fakePlatform) addMember(userID, username string) {
	f.members[userID] = Member{ID: userID, Username: username}
}

func (f *fakePlatform) giveRole(userID, roleID string) {
	if f.roles[userID] == nil {
		f.roles[userID] = make(map[string]bool)
	}
	f.roles[userID][roleID] = true
}
