package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureMongoIndexes() error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}
	db := MongoDatabase()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// blind_sessions indexes
	sessions := db.Collection("blind_sessions")
	_, err := sessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_session_id").
				SetUnique(true),
		},
		// status poll looks up a user's most recent session by either slot
		{
			Keys:    bson.D{{Key: "user1_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_user1_created"),
		},
		{
			Keys:    bson.D{{Key: "user2_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_user2_created"),
		},
		// sweeper scans sessions by status and deadline
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("by_status_expires"),
		},
	})
	return err
}
