package mongo

import (
	"context"
	"time"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ActivityCollection = "activity_log"

type ActivityRepository interface {
	Insert(ctx context.Context, a *models.Activity) error
	ListForSubject(ctx context.Context, subjectType string, subjectID uint, limit int64) ([]models.Activity, error)
	ListByCauser(ctx context.Context, causerID uint, limit int64) ([]models.Activity, error)
}

type activityRepo struct {
	col *mongo.Collection
}

func NewActivityRepo(db *mongo.Database) ActivityRepository {
	return &activityRepo{col: db.Collection(ActivityCollection)}
}

func (r *activityRepo) Insert(ctx context.Context, a *models.Activity) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, a)
	return err
}

func (r *activityRepo) ListForSubject(ctx context.Context, subjectType string, subjectID uint, limit int64) ([]models.Activity, error) {
	return r.find(ctx, bson.M{"subject_type": subjectType, "subject_id": subjectID}, limit)
}

func (r *activityRepo) ListByCauser(ctx context.Context, causerID uint, limit int64) ([]models.Activity, error) {
	return r.find(ctx, bson.M{"causer_id": causerID}, limit)
}

func (r *activityRepo) find(ctx context.Context, filter bson.M, limit int64) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 50
	}

	cur, err := r.col.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Activity
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
