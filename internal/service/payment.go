package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/mansoorceksport/skinsight/internal/config"
	"github.com/mansoorceksport/skinsight/internal/domain"
	"github.com/mansoorceksport/skinsight/internal/infrastructure/paystack"
	"github.com/mansoorceksport/skinsight/internal/logger"
)

// CheckoutSession is what the customer needs to pay
type CheckoutSession struct {
	AuthorizationURL string
	AccessCode       string
}

// PaymentStatus is the provider's view of a transaction
type PaymentStatus struct {
	Reference string
	Status    string // a domain.InvoiceStatus* value
	Amount    int64
	PaidAt    time.Time
}

// PaymentProvider defines the interface for payment gateway integrations
type PaymentProvider interface {
	// Initialize starts a hosted checkout for the invoice
	Initialize(ctx context.Context, invoice *domain.Invoice) (*CheckoutSession, error)

	// Verify fetches the current status of a transaction
	Verify(ctx context.Context, reference string) (*PaymentStatus, error)

	// VerifySignature authenticates a webhook body
	VerifySignature(body []byte, signature string) bool
}

// NewPaymentProvider returns the Paystack adapter, or a mock when no secret key is configured
func NewPaymentProvider(cfg config.PaystackConfig, log *zap.Logger) PaymentProvider {
	log = logger.OrNop(log)
	if cfg.SecretKey == "" {
		log.Info("using mock Paystack client (no credentials configured)")
		return &MockPaystackClient{}
	}

	log.Info("using Paystack client", zap.String("base_url", cfg.BaseURL))
	return &PaystackAdapter{client: paystack.NewClient(paystack.Config{
		SecretKey:   cfg.SecretKey,
		BaseURL:     cfg.BaseURL,
		CallbackURL: cfg.CallbackURL,
	}, log)}
}

// PaystackAdapter adapts paystack.Client to PaymentProvider
type PaystackAdapter struct {
	client *paystack.Client
}

func (a *PaystackAdapter) Initialize(ctx context.Context, invoice *domain.Invoice) (*CheckoutSession, error) {
	auth, err := a.client.InitializeTransaction(ctx, paystack.InitializeRequest{
		Email:     invoice.Email,
		Amount:    invoice.Amount,
		Currency:  invoice.Currency,
		Reference: invoice.Reference,
		Metadata:  paystack.Metadata{"session_id": invoice.SessionID},
	})
	if err != nil {
		return nil, fmt.Errorf("payment provider error: %w", err)
	}
	return &CheckoutSession{AuthorizationURL: auth.AuthorizationURL, AccessCode: auth.AccessCode}, nil
}

func (a *PaystackAdapter) Verify(ctx context.Context, reference string) (*PaymentStatus, error) {
	tx, err := a.client.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("payment provider error: %w", err)
	}
	return statusFromTransaction(tx), nil
}

func (a *PaystackAdapter) VerifySignature(body []byte, signature string) bool {
	return a.client.VerifySignature(body, signature)
}

// MockPaystackClient settles every payment immediately; used in development
type MockPaystackClient struct{}

func (m *MockPaystackClient) Initialize(ctx context.Context, invoice *domain.Invoice) (*CheckoutSession, error) {
	return &CheckoutSession{
		AuthorizationURL: "https://checkout.paystack.com/mock-" + invoice.Reference,
		AccessCode:       "mock-" + invoice.Reference,
	}, nil
}

func (m *MockPaystackClient) Verify(ctx context.Context, reference string) (*PaymentStatus, error) {
	return &PaymentStatus{
		Reference: reference,
		Status:    domain.InvoiceStatusPaid,
		PaidAt:    time.Now().UTC(),
	}, nil
}

// VerifySignature accepts any non-empty signature
func (m *MockPaystackClient) VerifySignature(body []byte, signature string) bool {
	return signature != ""
}

func statusFromTransaction(tx *paystack.Transaction) *PaymentStatus {
	status := &PaymentStatus{
		Reference: tx.Reference,
		Status:    domain.InvoiceStatusPending,
		Amount:    tx.Amount,
	}
	switch tx.Status {
	case paystack.StatusSuccess:
		status.Status = domain.InvoiceStatusPaid
	case paystack.StatusFailed, paystack.StatusAbandoned:
		status.Status = domain.InvoiceStatusFailed
	}
	if tx.PaidAt != nil {
		status.PaidAt = tx.PaidAt.UTC()
	}
	return status
}

// Webhook outcomes
const (
	WebhookAcknowledged     = "event acknowledged"
	WebhookAlreadyProcessed = "already processed"
	WebhookProcessed        = "payment processed"
)

// PaymentService sells the full report of a session
type PaymentService struct {
	provider PaymentProvider
	invoices domain.InvoiceRepository
	sessions domain.SessionRepository
	cache    domain.CacheRepository
	price    int64
	currency string
	logger   *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	provider PaymentProvider,
	invoices domain.InvoiceRepository,
	sessions domain.SessionRepository,
	cache domain.CacheRepository,
	cfg config.PaystackConfig,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		provider: provider,
		invoices: invoices,
		sessions: sessions,
		cache:    cache,
		price:    cfg.ReportPrice,
		currency: cfg.Currency,
		logger:   logger.OrNop(log),
	}
}

// Checkout creates or returns the pending invoice for a session.
// email falls back to the address captured with the session.
func (s *PaymentService) Checkout(ctx context.Context, sessionID, email string) (*domain.Invoice, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Paid {
		return nil, domain.ErrAlreadyPaid
	}

	email = strings.TrimSpace(email)
	if email == "" {
		email = session.UserInfo.Email
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required for checkout", domain.ErrInvalidRecipient)
	}

	// Reuse the active checkout
	existing, err := s.invoices.GetPendingBySession(ctx, sessionID)
	if err == nil && existing != nil {
		return existing, nil
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing invoices: %w", err)
	}

	invoice := &domain.Invoice{
		SessionID: sessionID,
		Email:     email,
		Amount:    s.price,
		Currency:  s.currency,
		Status:    domain.InvoiceStatusPending,
		Reference: "sk_" + strings.ToLower(ulid.Make().String()),
	}

	checkout, err := s.provider.Initialize(ctx, invoice)
	if err != nil {
		return nil, err
	}
	invoice.AuthorizationURL = checkout.AuthorizationURL
	invoice.AccessCode = checkout.AccessCode

	if err := s.invoices.Create(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	s.logger.Info("checkout created",
		zap.String("session_id", sessionID),
		zap.String("reference", invoice.Reference),
		zap.Int64("amount", invoice.Amount),
	)
	return invoice, nil
}

// Verify asks the provider about a reference and settles the invoice
func (s *PaymentService) Verify(ctx context.Context, reference string) (*domain.Invoice, error) {
	invoice, err := s.invoices.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if invoice.Status == domain.InvoiceStatusPaid {
		return invoice, nil
	}

	status, err := s.provider.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	if err := s.apply(ctx, invoice, status); err != nil {
		return nil, err
	}
	return invoice, nil
}

// HandleWebhook processes a Paystack event. Redelivered events are acknowledged
// without side effects.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) (string, error) {
	if !s.provider.VerifySignature(body, signature) {
		return "", domain.ErrInvalidSignature
	}

	var event paystack.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	s.logger.Info("webhook received",
		zap.String("event", event.Event),
		zap.String("reference", event.Data.Reference),
		zap.String("status", event.Data.Status),
	)

	if event.Event != paystack.EventChargeSuccess {
		return WebhookAcknowledged, nil
	}

	invoice, err := s.invoices.GetByReference(ctx, event.Data.Reference)
	if err != nil {
		return "", err
	}

	// Prevent duplicate processing
	if invoice.Status == domain.InvoiceStatusPaid {
		return WebhookAlreadyProcessed, nil
	}

	if err := s.apply(ctx, invoice, statusFromTransaction(&event.Data)); err != nil {
		return "", err
	}
	return WebhookProcessed, nil
}

// apply moves the invoice to the provider's status and unlocks the session when paid
func (s *PaymentService) apply(ctx context.Context, invoice *domain.Invoice, status *PaymentStatus) error {
	switch status.Status {
	case domain.InvoiceStatusPaid:
		if status.Amount != 0 && status.Amount < invoice.Amount {
			s.logger.Warn("paid amount below invoice amount",
				zap.String("reference", invoice.Reference),
				zap.Int64("paid", status.Amount),
				zap.Int64("expected", invoice.Amount),
			)
			if err := s.setStatus(ctx, invoice, domain.InvoiceStatusFailed); err != nil {
				return err
			}
			return domain.ErrAmountMismatch
		}
		// The session is unlocked before the invoice is marked paid;
		// paid invoices short-circuit redeliveries
		paidAt := status.PaidAt
		if paidAt.IsZero() {
			paidAt = time.Now().UTC()
		}
		if err := s.sessions.MarkPaid(ctx, invoice.SessionID, paidAt); err != nil {
			return fmt.Errorf("failed to unlock session: %w", err)
		}
		if err := s.setStatus(ctx, invoice, domain.InvoiceStatusPaid); err != nil {
			return err
		}
		if err := s.cache.InvalidateSession(ctx, invoice.SessionID); err != nil {
			s.logger.Warn("failed to invalidate session cache", zap.String("session_id", invoice.SessionID), zap.Error(err))
		}

		s.logger.Info("payment processed",
			zap.String("reference", invoice.Reference),
			zap.String("session_id", invoice.SessionID),
		)
	case domain.InvoiceStatusFailed:
		return s.setStatus(ctx, invoice, domain.InvoiceStatusFailed)
	}
	return nil
}

func (s *PaymentService) setStatus(ctx context.Context, invoice *domain.Invoice, status string) error {
	if err := s.invoices.UpdateStatus(ctx, invoice.ID, status); err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	invoice.Status = status
	return nil
}
