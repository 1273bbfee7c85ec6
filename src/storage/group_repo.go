package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"outreach-hq/src/models"
)

// GroupRepo persists groups, their memberships, and their role bindings.
// Membership idempotency is held by the (group_id, user_id) primary key,
// not by any prior read.
type GroupRepo struct {
	pool *pgxpool.Pool
}

func NewGroupRepo(pool *pgxpool.Pool) *GroupRepo {
	return &GroupRepo{pool: pool}
}

// CreateGroup inserts the group, the leader's membership, and the role
// binding as one transaction. A group never exists without its leader row
// or its binding.
func (r *GroupRepo) CreateGroup(ctx context.Context, group models.Group, roleID string) error {
	return withTx(ctx, r.pool, func(ctx context.Context) error {
		q := db(ctx, r.pool)

		_, err := q.Exec(ctx, `
			INSERT INTO groups (id, event_id, leader_id, seq, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, group.ID, group.EventID, group.LeaderID, group.Seq, group.CreatedAt)
		if err != nil {
			if isUniqueViolation(err, "groups_event_id_leader_id_key") {
				return models.ErrLeaderHasGroup
			}
			return fmt.Errorf("insert group: %w", err)
		}

		_, err = q.Exec(ctx, `
			INSERT INTO group_members (group_id, user_id, added_at)
			VALUES ($1, $2, $3)
		`, group.ID, group.LeaderID, group.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert leader membership: %w", err)
		}

		_, err = q.Exec(ctx, `
			INSERT INTO group_roles (group_id, role_id, created_at)
			VALUES ($1, $2, $3)
		`, group.ID, roleID, group.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert role binding: %w", err)
		}
		return nil
	})
}

func (r *GroupRepo) CountGroupsForEvent(ctx context.Context, eventID string) (int, error) {
	var count int
	err := db(ctx, r.pool).QueryRow(ctx, `
		SELECT COUNT(*) FROM groups WHERE event_id = $1
	`, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count groups: %w", err)
	}
	return count, nil
}

func (r *GroupRepo) ListGroupsForEvent(ctx context.Context, eventID string) ([]models.Group, error) {
	rows, err := db(ctx, r.pool).Query(ctx, `
		SELECT id, event_id, leader_id, seq, vegan, considered, thanked, documentary, educated, created_at
		FROM groups
		WHERE event_id = $1
		ORDER BY seq ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	groups := make([]models.Group, 0)
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// FindGroupByRole resolves a group from its bound platform role.
func (r *GroupRepo) FindGroupByRole(ctx context.Context, roleID string) (models.Group, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		SELECT g.id, g.event_id, g.leader_id, g.seq, g.vegan, g.considered, g.thanked, g.documentary, g.educated, g.created_at
		FROM groups g
		JOIN group_roles gr ON gr.group_id = g.id
		WHERE gr.role_id = $1
	`, roleID)
	return scanGroupRow(row)
}

// FindGroupByLeader is scoped to one event so a leader's group from a past
// campaign never matches.
func (r *GroupRepo) FindGroupByLeader(ctx context.Context, eventID, leaderID string) (models.Group, error) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		SELECT id, event_id, leader_id, seq, vegan, considered, thanked, documentary, educated, created_at
		FROM groups
		WHERE event_id = $1 AND leader_id = $2
	`, eventID, leaderID)
	return scanGroupRow(row)
}

func (r *GroupRepo) BindingForGroup(ctx context.Context, groupID string) (models.GroupRoleBinding, error) {
	var binding models.GroupRoleBinding
	err := db(ctx, r.pool).QueryRow(ctx, `
		SELECT group_id, role_id, created_at FROM group_roles WHERE group_id = $1
	`, groupID).Scan(&binding.GroupID, &binding.RoleID, &binding.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return models.GroupRoleBinding{}, models.ErrGroupNotFound
		}
		return models.GroupRoleBinding{}, fmt.Errorf("find role binding: %w", err)
	}
	return binding, nil
}

func (r *GroupRepo) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var exists bool
	err := db(ctx, r.pool).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)
	`, groupID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return exists, nil
}

// AddMember inserts the membership row. The composite primary key is the
// authoritative idempotency guard: a duplicate insert comes back as
// models.ErrAlreadyMember regardless of what any earlier read said.
func (r *GroupRepo) AddMember(ctx context.Context, groupID, userID string, at time.Time) error {
	_, err := db(ctx, r.pool).Exec(ctx, `
		INSERT INTO group_members (group_id, user_id, added_at)
		VALUES ($1, $2, $3)
	`, groupID, userID, at)
	if err != nil {
		if isUniqueViolation(err, "") {
			return models.ErrAlreadyMember
		}
		if isForeignKeyViolation(err) {
			return models.ErrGroupNotFound
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

func (r *GroupRepo) ListMembers(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	rows, err := db(ctx, r.pool).Query(ctx, `
		SELECT group_id, user_id, added_at
		FROM group_members
		WHERE group_id = $1
		ORDER BY added_at ASC
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := make([]models.GroupMember, 0)
	for rows.Next() {
		var m models.GroupMember
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.AddedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddStats increments the engagement counters by the given deltas.
func (r *GroupRepo) AddStats(ctx context.Context, groupID string, delta models.Stats) error {
	tag, err := db(ctx, r.pool).Exec(ctx, `
		UPDATE groups SET
			vegan = vegan + $2,
			considered = considered + $3,
			thanked = thanked + $4,
			documentary = documentary + $5,
			educated = educated + $6
		WHERE id = $1
	`, groupID, delta.Vegan, delta.Considered, delta.Thanked, delta.Documentary, delta.Educated)
	if err != nil {
		return fmt.Errorf("update stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrGroupNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (models.Group, error) {
	var g models.Group
	err := row.Scan(&g.ID, &g.EventID, &g.LeaderID, &g.Seq,
		&g.Stats.Vegan, &g.Stats.Considered, &g.Stats.Thanked, &g.Stats.Documentary, &g.Stats.Educated,
		&g.CreatedAt)
	if err != nil {
		return models.Group{}, fmt.Errorf("scan group: %w", err)
	}
	return g, nil
}

func scanGroupRow(row rowScanner) (models.Group, error) {
	group, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Group{}, models.ErrGroupNotFound
		}
		return models.Group{}, err
	}
	return group, nil
}
