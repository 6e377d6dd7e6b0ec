package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/univeil/univeil/internal/models"
	"github.com/univeil/univeil/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BlindSessionRepository interface {
	Create(ctx context.Context, s *models.BlindSession) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.BlindSession, error)
	LatestForUser(ctx context.Context, userID string) (*models.BlindSession, error)
	AppendMessage(ctx context.Context, sessionID string, msg models.BlindMessage) (*models.BlindSession, error)
	End(ctx context.Context, sessionID, reason string, endedAt time.Time) error
	SetChoice(ctx context.Context, sessionID string, slot int, choice string, revealed bool) error
	Extend(ctx context.Context, sessionID string, expiresAt time.Time) error
	ListExpiredActive(ctx context.Context, now time.Time) ([]models.BlindSession, error)
	ListChoicePhaseOlderThan(ctx context.Context, cutoff time.Time) ([]models.BlindSession, error)
	SetEndReason(ctx context.Context, sessionID, reason string) error
}

type blindRepo struct {
	col *mongo.Collection
}

func NewBlindSessionRepo(db *mongo.Database) BlindSessionRepository {
	return &blindRepo{col: db.Collection("blind_sessions")}
}

func (r *blindRepo) Create(ctx context.Context, s *models.BlindSession) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.Messages == nil {
		s.Messages = []models.BlindMessage{}
	}
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *blindRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.BlindSession, error) {
	var s models.BlindSession
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *blindRepo) LatestForUser(ctx context.Context, userID string) (*models.BlindSession, error) {
	var s models.BlindSession
	err := r.col.FindOne(ctx,
		bson.M{"$or": bson.A{
			bson.M{"user1_id": userID},
			bson.M{"user2_id": userID},
		}},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

// AppendMessage pushes the message and returns the updated document so the
// caller can hand the full transcript back in one round trip.
func (r *blindRepo) AppendMessage(ctx context.Context, sessionID string, msg models.BlindMessage) (*models.BlindSession, error) {
	var s models.BlindSession
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$push": bson.M{"messages": msg}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

// End is idempotent: a session already ended keeps its original reason.
func (r *blindRepo) End(ctx context.Context, sessionID, reason string, endedAt time.Time) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "status": bson.M{"$ne": models.BlindStatusEnded}},
		bson.M{"$set": bson.M{
			"status":     models.BlindStatusEnded,
			"end_reason": reason,
			"ended_at":   endedAt.UTC(),
		}},
	)
	return err
}

func (r *blindRepo) SetChoice(ctx context.Context, sessionID string, slot int, choice string, revealed bool) error {
	field, revField := "user1_choice", "user1_revealed"
	if slot == 2 {
		field, revField = "user2_choice", "user2_revealed"
	}
	set := bson.M{field: choice}
	if revealed {
		set[revField] = true
	}
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": set},
	)
	return err
}

// Extend resurrects an ended session into the identified, extended phase.
func (r *blindRepo) Extend(ctx context.Context, sessionID string, expiresAt time.Time) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{
			"$set":   bson.M{"status": models.BlindStatusExtended, "expires_at": expiresAt.UTC()},
			"$unset": bson.M{"end_reason": "", "ended_at": ""},
		},
	)
	return err
}

func (r *blindRepo) ListExpiredActive(ctx context.Context, now time.Time) ([]models.BlindSession, error) {
	cur, err := r.col.Find(ctx, bson.M{
		"status":     bson.M{"$in": bson.A{models.BlindStatusActive, models.BlindStatusExtended}},
		"expires_at": bson.M{"$lte": now.UTC()},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.BlindSession
	err = cur.All(ctx, &out)
	return out, err
}

// ListChoicePhaseOlderThan finds expired sessions whose mutual choice never
// resolved within the decision window.
func (r *blindRepo) ListChoicePhaseOlderThan(ctx context.Context, cutoff time.Time) ([]models.BlindSession, error) {
	cur, err := r.col.Find(ctx, bson.M{
		"status":     models.BlindStatusEnded,
		"end_reason": models.EndReasonExpired,
		"ended_at":   bson.M{"$lte": cutoff.UTC()},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.BlindSession
	err = cur.All(ctx, &out)
	return out, err
}

func (r *blindRepo) SetEndReason(ctx context.Context, sessionID, reason string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{"end_reason": reason}},
	)
	return err
}
