package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/skinsight/internal/domain"
	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionCollectionName = "analysis_sessions"

// MongoSessionRepository implements domain.SessionRepository using MongoDB
type MongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new MongoDB session repository
func NewMongoSessionRepository(db *mongo.Database) *MongoSessionRepository {
	collection := db.Collection(sessionCollectionName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Newest first for support lookups
	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	}
	_, _ = collection.Indexes().CreateOne(ctx, indexModel)

	return &MongoSessionRepository{
		collection: collection,
	}
}

// Save upserts a session, assigning a ULID when the caller did not.
// A retake under an existing id replaces the analysis but keeps the payment state.
func (r *MongoSessionRepository) Save(ctx context.Context, session *domain.AnalysisSession) error {
	if session.ID == "" {
		session.ID = ulid.Make().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	raw, err := bson.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode analysis session: %w", err)
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("failed to encode analysis session: %w", err)
	}
	delete(fields, "_id")
	delete(fields, "paid")
	delete(fields, "paid_at")

	update := bson.M{
		"$set":         fields,
		"$setOnInsert": bson.M{"paid": false},
	}
	// a retake may switch between stored and inline photos
	unset := bson.M{}
	if session.ImageURL == "" {
		unset["image_url"] = ""
	}
	if session.UserImage == "" {
		unset["user_image"] = ""
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored domain.AnalysisSession
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": session.ID}, update, opts).Decode(&stored); err != nil {
		return fmt.Errorf("failed to save analysis session: %w", err)
	}
	session.Paid = stored.Paid
	session.PaidAt = stored.PaidAt
	return nil
}

// GetByID retrieves a session by its ID
func (r *MongoSessionRepository) GetByID(ctx context.Context, id string) (*domain.AnalysisSession, error) {
	var session domain.AnalysisSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find analysis session: %w", err)
	}
	return &session, nil
}

// MarkPaid unlocks the full report of a session
func (r *MongoSessionRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"paid":    true,
			"paid_at": paidAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to mark session paid: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
