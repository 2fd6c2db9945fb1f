package domain

import (
	"context"
	"time"
)

// Invoice status constants
const (
	InvoiceStatusPending = "pending"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusFailed  = "failed"
)

// Invoice is a payment intent for unlocking a session's full report
type Invoice struct {
	ID               string    `bson:"_id,omitempty" json:"id"`
	SessionID        string    `bson:"session_id" json:"session_id"`
	Email            string    `bson:"email" json:"email"`
	Amount           int64     `bson:"amount" json:"amount"` // kobo
	Currency         string    `bson:"currency" json:"currency"`
	Status           string    `bson:"status" json:"status"`
	Reference        string    `bson:"reference" json:"reference"`
	AuthorizationURL string    `bson:"authorization_url" json:"authorization_url"`
	AccessCode       string    `bson:"access_code" json:"access_code"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updated_at"`
}

// InvoiceRepository defines operations for managing invoices
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *Invoice) error
	GetByReference(ctx context.Context, reference string) (*Invoice, error)
	GetPendingBySession(ctx context.Context, sessionID string) (*Invoice, error)
	UpdateStatus(ctx context.Context, id string, status string) error
}

// PaymentService sells the full report of a session
type PaymentService interface {
	// Checkout creates or returns the pending invoice for a session
	Checkout(ctx context.Context, sessionID, email string) (*Invoice, error)

	// Verify settles an invoice from the provider's view of the transaction
	Verify(ctx context.Context, reference string) (*Invoice, error)

	// HandleWebhook authenticates and applies a provider event, returning a short outcome message
	HandleWebhook(ctx context.Context, body []byte, signature string) (string, error)
}
