package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/univeil/univeil/internal/models"
	"github.com/univeil/univeil/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepository interface {
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	ListUpcoming(ctx context.Context, after time.Time, limit int) ([]models.Event, error)
	RSVP(ctx context.Context, eventID, userID string) error
	CancelRSVP(ctx context.Context, eventID, userID string) error
}

type eventRepo struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

func (r *eventRepo) Create(ctx context.Context, e *models.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*models.Event, error) {
	var e models.Event
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &e, err
}

func (r *eventRepo) ListUpcoming(ctx context.Context, after time.Time, limit int) ([]models.Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []models.Event
	err := r.db.WithContext(ctx).
		Where("starts_at >= ?", after).
		Order("starts_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *eventRepo) RSVP(ctx context.Context, eventID, userID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.EventRSVP{EventID: eventID, UserID: userID, CreatedAt: time.Now().UTC()}).Error
}

func (r *eventRepo) CancelRSVP(ctx context.Context, eventID, userID string) error {
	return r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Delete(&models.EventRSVP{}).Error
}
