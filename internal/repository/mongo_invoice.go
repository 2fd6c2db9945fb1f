package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/skinsight/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoInvoiceRepository implements domain.InvoiceRepository
type MongoInvoiceRepository struct {
	collection *mongo.Collection
}

// NewMongoInvoiceRepository creates a new invoice repository
func NewMongoInvoiceRepository(db *mongo.Database) *MongoInvoiceRepository {
	coll := db.Collection("invoices")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"reference": 1}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "status", Value: 1}}},
	})

	return &MongoInvoiceRepository{
		collection: coll,
	}
}

func (r *MongoInvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	now := time.Now().UTC()
	invoice.CreatedAt = now
	invoice.UpdatedAt = now

	objID := primitive.NewObjectID()
	invoice.ID = objID.Hex()

	doc := bson.M{
		"_id":               objID,
		"session_id":        invoice.SessionID,
		"email":             invoice.Email,
		"amount":            invoice.Amount,
		"currency":          invoice.Currency,
		"status":            invoice.Status,
		"reference":         invoice.Reference,
		"authorization_url": invoice.AuthorizationURL,
		"access_code":       invoice.AccessCode,
		"created_at":        invoice.CreatedAt,
		"updated_at":        invoice.UpdatedAt,
	}

	_, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// GetByReference finds an invoice by its Paystack transaction reference
func (r *MongoInvoiceRepository) GetByReference(ctx context.Context, reference string) (*domain.Invoice, error) {
	var raw bson.M
	if err := r.collection.FindOne(ctx, bson.M{"reference": reference}).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice by reference: %w", err)
	}
	return mapBsonToInvoice(raw), nil
}

// GetPendingBySession finds an existing pending invoice for reuse
func (r *MongoInvoiceRepository) GetPendingBySession(ctx context.Context, sessionID string) (*domain.Invoice, error) {
	filter := bson.M{
		"session_id": sessionID,
		"status":     domain.InvoiceStatusPending,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var raw bson.M
	if err := r.collection.FindOne(ctx, filter, opts).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get pending invoice: %w", err)
	}
	return mapBsonToInvoice(raw), nil
}

func (r *MongoInvoiceRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid invoice id: %w", err)
	}

	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapBsonToInvoice(raw bson.M) *domain.Invoice {
	invoice := &domain.Invoice{}

	if oid, ok := raw["_id"].(primitive.ObjectID); ok {
		invoice.ID = oid.Hex()
	}
	if sessionID, ok := raw["session_id"].(string); ok {
		invoice.SessionID = sessionID
	}
	if email, ok := raw["email"].(string); ok {
		invoice.Email = email
	}
	if amount, ok := raw["amount"].(int64); ok {
		invoice.Amount = amount
	} else if amount, ok := raw["amount"].(int32); ok {
		invoice.Amount = int64(amount)
	}
	if currency, ok := raw["currency"].(string); ok {
		invoice.Currency = currency
	}
	if status, ok := raw["status"].(string); ok {
		invoice.Status = status
	}
	if reference, ok := raw["reference"].(string); ok {
		invoice.Reference = reference
	}
	if authURL, ok := raw["authorization_url"].(string); ok {
		invoice.AuthorizationURL = authURL
	}
	if accessCode, ok := raw["access_code"].(string); ok {
		invoice.AccessCode = accessCode
	}
	if created, ok := raw["created_at"].(primitive.DateTime); ok {
		invoice.CreatedAt = created.Time()
	}
	if updated, ok := raw["updated_at"].(primitive.DateTime); ok {
		invoice.UpdatedAt = updated.Time()
	}

	return invoice
}
