package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"outreach-hq/src/lib"
	"outreach-hq/src/models"
)

// EventStore is the slice of the persistence gateway the state machine uses.
type EventStore interface {
	CreateEvent(ctx context.Context, event models.Event) error
	FindActiveEvent(ctx context.Context) (models.Event, error)
	StartEvent(ctx context.Context, eventID string, at time.Time) error
	EndEvent(ctx context.Context, eventID string, at time.Time) error
}

// UserStore upserts platform member profiles ahead of foreign-key writes.
type UserStore interface {
	UpsertUser(ctx context.Context, user models.User) error
}

// CampaignService is the event lifecycle state machine: at most one open
// event, created pending, optionally started, eventually ended. The open
// slot is guarded by a storage constraint, so Create never trusts a prior
// read.
type CampaignService struct {
	events   EventStore
	users    UserStore
	platform PlatformClient
	metrics  *lib.Metrics
}

func NewCampaignService(events EventStore, users UserStore, platform PlatformClient, metrics *lib.Metrics) *CampaignService {
	return &CampaignService{
		events:   events,
		users:    users,
		platform: platform,
		metrics:  metrics,
	}
}

// Create opens a new event led by actorID. startNow marks it started
// immediately. Returns models.ErrActiveEventExists while another event is
// open and models.ErrMemberNotFound if the actor has no platform presence.
func (s *CampaignService) Create(ctx context.Context, actorID string, startNow bool) (models.Event, error) {
	member, err := s.platform.Member(ctx, actorID)
	if err != nil {
		return models.Event{}, err
	}

	now := time.Now().UTC()
	if err := s.users.UpsertUser(ctx, models.User{ID: member.ID, Username: member.Username, UpdatedAt: now}); err != nil {
		return models.Event{}, err
	}

	event := models.Event{
		ID:        uuid.NewString(),
		LeaderID:  actorID,
		EventType: models.EventTypeOutreach,
		CreatedAt: now,
	}
	if startNow {
		event.StartTime = &now
	}

	if err := s.events.CreateEvent(ctx, event); err != nil {
		return models.Event{}, err
	}
	s.metrics.Inc("events_created_total")
	return event, nil
}

func (s *CampaignService) Start(ctx context.Context) (models.Event, error) {
	event, err := s.events.FindActiveEvent(ctx)
	if err != nil {
		return models.Event{}, err
	}
	if event.Started() {
		return models.Event{}, models.ErrEventAlreadyStarted
	}

	now := time.Now().UTC()
	if err := s.events.StartEvent(ctx, event.ID, now); err != nil {
		return models.Event{}, err
	}
	event.StartTime = &now
	s.metrics.Inc("events_started_total")
	return event, nil
}

func (s *CampaignService) End(ctx context.Context) (models.Event, error) {
	event, err := s.events.FindActiveEvent(ctx)
	if err != nil {
		return models.Event{}, err
	}

	now := time.Now().UTC()
	if err := s.events.EndEvent(ctx, event.ID, now); err != nil {
		return models.Event{}, err
	}
	event.EndTime = &now
	s.metrics.Inc("events_ended_total")
	return event, nil
}

// Current returns the unique open event or models.ErrNoActiveEvent.
func (s *CampaignService) Current(ctx context.Context) (models.Event, error) {
	return s.events.FindActiveEvent(ctx)
}
