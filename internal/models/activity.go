package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity is one "who did what to which record" entry in the activity log.
type Activity struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LogName     string             `bson:"log_name" json:"log_name"`       // documents|catalog|applications
	Event       string             `bson:"event" json:"event"`             // ex: document.verified
	Description string             `bson:"description" json:"description"` // human readable
	SubjectType string             `bson:"subject_type" json:"subject_type"`
	SubjectID   uint               `bson:"subject_id" json:"subject_id"`
	CausedBy    uint               `bson:"causer_id" json:"caused_by"`
	Properties  map[string]any     `bson:"properties,omitempty" json:"properties,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
