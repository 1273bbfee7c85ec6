package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"outreach-hq/src/lib"
	"outreach-hq/src/models"
)

const testEventID = "event-1"

type ledgerFixture struct {
	svc      *LedgerService
	groups   *fakeGroupStore
	events   *fakeEventStore
	users    *fakeUserStore
	platform *fakePlatform
}

func newLedgerFixture(coordinatorRoles ...string) *ledgerFixture {
	events := &fakeEventStore{active: &models.Event{
		ID:        testEventID,
		LeaderID:  "mod-1",
		EventType: models.EventTypeOutreach,
		CreatedAt: time.Now().UTC(),
	}}
	groups := newFakeGroupStore()
	users := &fakeUserStore{}
	platform := newFakePlatform()

	return &ledgerFixture{
		svc:      NewLedgerService(groups, events, users, platform, lib.NewMetrics(), coordinatorRoles, "Outreach Group"),
		groups:   groups,
		events:   events,
		users:    users,
		platform: platform,
	}
}

// seedGroup places an existing group with a bound role directly in the
// store, bypassing the service.
func (f *ledgerFixture) seedGroup(id, leaderID, roleID string, seq int) models.Group {
	group := models.Group{ID: id, EventID: testEventID, LeaderID: leaderID, Seq: seq, CreatedAt: time.Now().UTC()}
	f.groups.groups = append(f.groups.groups, group)
	f.groups.bindings[id] = roleID
	f.groups.members[id] = map[string]bool{leaderID: true}
	return group
}

func TestCreateGroup(t *testing.T) {
	f := newLedgerFixture()
	f.platform.addMember("leader-a", "Leader A")
	f.seedGroup("g-1", "leader-1", "role-old-1", 1)
	f.seedGroup("g-2", "leader-2", "role-old-2", 2)
	f.platform.nextRoleID = "role-3"

	result, err := f.svc.CreateGroup(context.Background(), "leader-a")
	if err != nil {
		t.Fatalf("CreateGroup returned error: %v", err)
	}
	if result.SyncErr != nil {
		t.Fatalf("unexpected sync error: %v", result.SyncErr)
	}
	if result.Group.Seq != 3 {
		t.Fatalf("seq = %d, want 3", result.Group.Seq)
	}
	if len(f.platform.createdRoles) != 1 || f.platform.createdRoles[0] != "Outreach Group 3" {
		t.Fatalf("created roles = %v", f.platform.createdRoles)
	}
	if !f.groups.members[result.Group.ID]["leader-a"] {
		t.Fatalf("leader should be the first member")
	}
	if f.groups.bindings[result.Group.ID] != "role-3" {
		t.Fatalf("binding = %q, want role-3", f.groups.bindings[result.Group.ID])
	}
	if len(f.platform.grants) != 1 || f.platform.grants[0] != (grant{userID: "leader-a", roleID: "role-3"}) {
		t.Fatalf("grants = %v", f.platform.grants)
	}
}

func TestCreateGroupRequiresActiveEvent(t *testing.T) {
	f := newLedgerFixture()
	f.events.active = nil
	f.platform.addMember("leader-a", "Leader A")

	if _, err := f.svc.CreateGroup(context.Background(), "leader-a"); !errors.Is(err, models.ErrNoActiveEvent) {
		t.Fatalf("CreateGroup error = %v, want ErrNoActiveEvent", err)
	}
}

func TestCreateGroupRoleCreationFailureWritesNothing(t *testing.T) {
	f := newLedgerFixture()
	f.platform.addMember("leader-a", "Leader A")
	f.platform.createRoleErr = fmt.Errorf("platform unavailable")

	if _, err := f.svc.CreateGroup(context.Background(), "leader-a"); err == nil {
		t.Fatalf("expected error when role creation fails")
	}
	if len(f.groups.groups) != 0 {
		t.Fatalf("no group should exist after role creation failure")
	}
}

func TestCreateGroupGrantFailureKeepsLedgerWrite(t *testing.T) {
	f := newLedgerFixture()
	f.platform.addMember("leader-a", "Leader A")
	f.platform.grantErr = fmt.Errorf("member gone")

	result, err := f.svc.CreateGroup(context.Background(), "leader-a")
	if err != nil {
		t.Fatalf("CreateGroup returned error: %v", err)
	}
	var syncErr *RoleSyncError
	if !errors.As(result.SyncErr, &syncErr) {
		t.Fatalf("SyncErr = %v, want RoleSyncError", result.SyncErr)
	}
	if len(f.groups.groups) != 1 {
		t.Fatalf("committed group must survive a failed grant")
	}
}

func TestAddMemberByLeader(t *testing.T) {
	f := newLedgerFixture()
	f.seedGroup("g-1", "leader-a", "role-1", 1)
	f.platform.addMember("user-1", "User One")

	result, err := f.svc.AddMember(context.Background(), "leader-a", "user-1", "")
	if err != nil {
		t.Fatalf("AddMember returned error: %v", err)
	}
	if result.SyncErr != nil {
		t.Fatalf("unexpected sync error: %v", result.SyncErr)
	}
	if !f.groups.members["g-1"]["user-1"] {
		t.Fatalf("membership row missing")
	}
	if len(f.users.upserted) != 1 || f.users.upserted[0].ID != "user-1" {
		t.Fatalf("expected user profile upsert, got %v", f.users.upserted)
	}
	if len(f.platform.grants) != 1 || f.platform.grants[0] != (grant{userID: "user-1", roleID: "role-1"}) {
		t.Fatalf("grants = %v", f.platform.grants)
	}
}

func TestAddMemberTwice(t *testing.T) {
	f := newLedgerFixture()
	f.seedGroup("g-1", "leader-a", "role-1", 1)
	f.platform.addMember("user-1", "User One")

	if _, err := f.svc.AddMember(context.Background(), "leader-a", "user-1", ""); err != nil {
		t.Fatalf("first AddMember returned error: %v", err)
	}
	if _, err := f.svc.AddMember(context.Background(), "leader-a", "user-1", ""); !errors.Is(err, models.ErrAlreadyMember) {
		t.Fatalf("second AddMember error = %v, want ErrAlreadyMember", err)
	}
	if len(f.platform.grants) != 1 {
		t.Fatalf("duplicate add must not grant again; grants = %v", f.platform.grants)
	}
}

func TestAddMemberNotALeader(t *testing.T) {
	f := newLedgerFixture()
	f.seedGroup("g-1", "leader-a", "role-1", 1)
	f.platform.addMember("user-1", "User One")

	if _, err := f.svc.AddMember(context.Background(), "stranger", "user-1", ""); !errors.Is(err, models.ErrNotALeader) {
		t.Fatalf("AddMember error = %v, want ErrNotALeader", err)
	}
	if len(f.groups.members["g-1"]) != 1 {
		t.Fatalf("no membership row should be created")
	}
}

func TestAddMemberByRoleRequiresAuthorization(t *testing.T) {
	f := newLedgerFixture("coordinator-role")
	f.seedGroup("g-1", "leader-a", "role-1", 1)
	f.platform.addMember("user-1", "User One")

	if _, err := f.svc.AddMember(context.Background(), "stranger", "user-1", "role-1"); !errors.Is(err, models.ErrNotAuthorized) {
		t.Fatalf("AddMember error = %v, want ErrNotAuthorized", err)
	}
	if len(f.groups.members["g-1"]) != 1 {
		t.Fatalf("no membership row should be created")
	}
}

func TestAddMemberCoordinatorOverride(t *testing.T) {
	f := newLedgerFixture("coordinator-role")
	f.seedGroup("g-1", "leader-a", "role-1", 1)
	f.platform.addMember("user-1", "User One")
	f.platform.giveRole("coordinator-c", "coordinator-role")

	result, err := f.svc.AddMember(context.Background(), "coordinator-c", "user-1", "role-1")
	if err != nil {
		t.Fatalf("AddMember returned error: %v", err)
	}
	if !f.groups.members["g-1"]["user-1"] {
		t.Fatalf("membership row missing")
	}
	if result.RoleID != "role-1" {
		t.Fatalf("role id = %q, want role-1", result.RoleID)
	}
}

func TestAddMemberUnknownRole(t *testing.T) {
	f := newLedgerFixture()
	f.seedGroup("g-1", "leader-a", "role-1", 1)

	if _, err := f.svc.AddMember(context.Background(), "leader-a", "user-1", "role-unbound"); !errors.Is(err, models.ErrGroupNotFound) {
		t.Fatalf("AddMember error = %v, want ErrGroupNotFound", err)
	}
}

func TestAddMemberGrantFailureKeepsMembership(t *testing.T) {
	f := newLedgerFixture()
	f.seedGroup("g-1", "leader-a", "role-1", 1)
	f.platform.addMember("user-1", "User One")
	f.platform.grantErr = fmt.Errorf("member left the guild")

	result, err := f.svc.AddMember(context.Background(), "leader-a", "user-1", "")
	if err != nil {
		t.Fatalf("AddMember returned error: %v", err)
	}
	if result.SyncErr == nil {
		t.Fatalf("expected sync error reported")
	}
	if !f.groups.members["g-1"]["user-1"] {
		t.Fatalf("membership must stand after a failed grant")
	}
}

func TestUpdateStats(t *testing.T) {
	f := newLedgerFixture()
	f.seedGroup("g-1", "leader-a", "role-1", 1)

	group, err := f.svc.UpdateStats(context.Background(), "leader-a", "", models.Stats{Vegan: 2, Educated: 5})
	if err != nil {
		t.Fatalf("UpdateStats returned error: %v", err)
	}
	if group.Stats.Vegan != 2 || group.Stats.Educated != 5 {
		t.Fatalf("unexpected stats: %+v", group.Stats)
	}

	group, err = f.svc.UpdateStats(context.Background(), "leader-a", "", models.Stats{Vegan: 1})
	if err != nil {
		t.Fatalf("second UpdateStats returned error: %v", err)
	}
	if group.Stats.Vegan != 3 {
		t.Fatalf("stats must accumulate; vegan = %d, want 3", group.Stats.Vegan)
	}
}

func TestUpdateStatsUnauthorized(t *testing.T) {
	f := newLedgerFixture("coordinator-role")
	f.seedGroup("g-1", "leader-a", "role-1", 1)

	if _, err := f.svc.UpdateStats(context.Background(), "stranger", "role-1", models.Stats{Vegan: 1}); !errors.Is(err, models.ErrNotAuthorized) {
		t.Fatalf("UpdateStats error = %v, want ErrNotAuthorized", err)
	}
	if f.groups.groups[0].Stats.Vegan != 0 {
		t.Fatalf("unauthorized update must not change stats")
	}
}

func TestGroupsListsCurrentEventOnly(t *testing.T) {
	f := newLedgerFixture()
	f.seedGroup("g-1", "leader-a", "role-1", 1)
	f.groups.groups = append(f.groups.groups, models.Group{ID: "g-old", EventID: "event-0", LeaderID: "leader-a", Seq: 1})

	groups, err := f.svc.Groups(context.Background())
	if err != nil {
		t.Fatalf("Groups returned error: %v", err)
	}
	if len(groups) != 1 || groups[0].ID != "g-1" {
		t.Fatalf("groups = %v, want only g-1", groups)
	}
}

func TestLeaderOfPastEventDoesNotResolve(t *testing.T) {
	f := newLedgerFixture()
	// leader-old led a group in a previous event only.
	f.groups.groups = append(f.groups.groups, models.Group{ID: "g-old", EventID: "event-0", LeaderID: "leader-old", Seq: 1})
	f.groups.bindings["g-old"] = "role-old"
	f.groups.members["g-old"] = map[string]bool{"leader-old": true}
	f.platform.addMember("user-1", "User One")

	if _, err := f.svc.AddMember(context.Background(), "leader-old", "user-1", ""); !errors.Is(err, models.ErrNotALeader) {
		t.Fatalf("AddMember error = %v, want ErrNotALeader", err)
	}
}
