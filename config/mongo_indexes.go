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

	activity := db.Collection("activity_log")
	_, err := activity.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// history of one record, newest first
		{
			Keys: bson.D{
				{Key: "subject_type", Value: 1},
				{Key: "subject_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("by_subject_created"),
		},
		// everything one actor did
		{
			Keys:    bson.D{{Key: "causer_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_causer_created"),
		},
		{
			Keys:    bson.D{{Key: "log_name", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_log_created"),
		},
	})
	return err
}
