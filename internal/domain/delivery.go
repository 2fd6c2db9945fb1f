package domain

import (
	"context"
	"time"
)

// DeliveryChannel is how a report reaches the user
type DeliveryChannel string

const (
	ChannelWhatsApp DeliveryChannel = "whatsapp"
	ChannelEmail    DeliveryChannel = "email"
)

// EmailMessage is a rendered email ready to send
type EmailMessage struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// EmailSender sends transactional email
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// DeliveryRequest asks for a session's report to be sent
type DeliveryRequest struct {
	SessionID string          `json:"-"`
	Channel   DeliveryChannel `json:"channel"`
	// Recipient overrides the phone or email captured with the session
	Recipient string `json:"recipient,omitempty"`
}

// DeliveryResult describes what was sent. For WhatsApp the caller opens Link.
type DeliveryResult struct {
	Channel   DeliveryChannel `json:"channel"`
	Recipient string          `json:"recipient"`
	Link      string          `json:"link,omitempty"`
	ReportURL string          `json:"reportUrl"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// DeliveryService sends reports and resolves signed report links
type DeliveryService interface {
	Deliver(ctx context.Context, req DeliveryRequest) (*DeliveryResult, error)
	ResolveReportToken(ctx context.Context, token string) (*AnalysisSession, error)
}
