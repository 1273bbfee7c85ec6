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

// EventRepo persists campaign events. The single-open-event rule is held by
// the partial unique index one_open_event, so concurrent creations race at
// the constraint and exactly one wins.
type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

func (r *EventRepo) CreateEvent(ctx context.Context, event models.Event) error {
	_, err := db(ctx, r.pool).Exec(ctx, `
		INSERT INTO events (id, leader_id, event_type, start_time, end_time, created_at)
		VALUES ($1, $2, $3, $4, NULL, $5)
	`, event.ID, event.LeaderID, event.EventType, event.StartTime, event.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "one_open_event") {
			return models.ErrActiveEventExists
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// FindActiveEvent returns the unique event with a null end time, or
// models.ErrNoActiveEvent.
func (r *EventRepo) FindActiveEvent(ctx context.Context) (models.Event, error) {
	var event models.Event
	err := db(ctx, r.pool).QueryRow(ctx, `
		SELECT id, leader_id, event_type, start_time, end_time, created_at
		FROM events
		WHERE end_time IS NULL
	`).Scan(&event.ID, &event.LeaderID, &event.EventType, &event.StartTime, &event.EndTime, &event.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Event{}, models.ErrNoActiveEvent
		}
		return models.Event{}, fmt.Errorf("find active event: %w", err)
	}
	return event, nil
}

func (r *EventRepo) StartEvent(ctx context.Context, eventID string, at time.Time) error {
	tag, err := db(ctx, r.pool).Exec(ctx, `
		UPDATE events SET start_time = $2
		WHERE id = $1 AND start_time IS NULL AND end_time IS NULL
	`, eventID, at)
	if err != nil {
		return fmt.Errorf("start event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrEventAlreadyStarted
	}
	return nil
}

func (r *EventRepo) EndEvent(ctx context.Context, eventID string, at time.Time) error {
	tag, err := db(ctx, r.pool).Exec(ctx, `
		UPDATE events SET end_time = $2
		WHERE id = $1 AND end_time IS NULL
	`, eventID, at)
	if err != nil {
		return fmt.Errorf("end event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrEventAlreadyEnded
	}
	return nil
}

// SeedEventTypes inserts any missing campaign type rows. Safe to run on
// every boot.
func (r *EventRepo) SeedEventTypes(ctx context.Context, names []string) error {
	for _, name := range names {
		_, err := db(ctx, r.pool).Exec(ctx, `
			INSERT INTO event_types (name) VALUES ($1)
			ON CONFLICT (name) DO NOTHING
		`, name)
		if err != nil {
			return fmt.Errorf("seed event type %q: %w", name, err)
		}
	}
	return nil
}
