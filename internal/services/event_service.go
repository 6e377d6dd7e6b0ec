package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/univeil/univeil/internal/models"
	pgrepo "github.com/univeil/univeil/internal/repositories/postgres"
	"github.com/univeil/univeil/internal/utils"
	"gorm.io/datatypes"
)

type EventService interface {
	Create(ctx context.Context, userID, title, description, location string, startsAt time.Time, metadataJSON []byte) (*models.Event, error)
	ListUpcoming(ctx context.Context, limit int) ([]models.Event, error)
	RSVP(ctx context.Context, userID, eventID string) error
	CancelRSVP(ctx context.Context, userID, eventID string) error
}

type eventService struct {
	events pgrepo.EventRepository
}

func NewEventService(events pgrepo.EventRepository) EventService {
	return &eventService{events: events}
}

func (s *eventService) Create(ctx context.Context, userID, title, description, location string, startsAt time.Time, metadataJSON []byte) (*models.Event, error) {
	const op = "EventService.Create"

	title = strings.TrimSpace(title)
	if userID == "" || title == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and title are required", nil)
	}
	if startsAt.Before(time.Now().UTC()) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "starts_at must be in the future", nil)
	}

	e := &models.Event{
		ID:          uuid.NewString(),
		CreatedBy:   userID,
		Title:       title,
		Description: description,
		Location:    location,
		StartsAt:    startsAt.UTC(),
		Metadata:    datatypes.JSON(metadataJSON),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.events.Create(ctx, e); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create event", err)
	}
	return e, nil
}

func (s *eventService) ListUpcoming(ctx context.Context, limit int) ([]models.Event, error) {
	const op = "EventService.ListUpcoming"

	rows, err := s.events.ListUpcoming(ctx, time.Now().UTC(), limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list events", err)
	}
	return rows, nil
}

func (s *eventService) RSVP(ctx context.Context, userID, eventID string) error {
	const op = "EventService.RSVP"

	if userID == "" || eventID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id and event_id are required", nil)
	}
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "event not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to get event", err)
	}
	if err := s.events.RSVP(ctx, eventID, userID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to rsvp", err)
	}
	return nil
}

func (s *eventService) CancelRSVP(ctx context.Context, userID, eventID string) error {
	const op = "EventService.CancelRSVP"

	if userID == "" || eventID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id and event_id are required", nil)
	}
	if err := s.events.CancelRSVP(ctx, eventID, userID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to cancel rsvp", err)
	}
	return nil
}
