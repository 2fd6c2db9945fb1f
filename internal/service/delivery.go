package service

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/mansoorceksport/skinsight/internal/domain"
	"github.com/mansoorceksport/skinsight/internal/logger"
	"github.com/mansoorceksport/skinsight/internal/metrics"
)

const (
	whatsAppBaseURL = "https://wa.me/"
	topConcerns     = 3
	minPhoneDigits  = 8
)

//go:embed templates/report_email.html
var reportEmailHTML string

var reportEmailTemplate = template.Must(template.New("report_email").Parse(reportEmailHTML))

// DeliveryConfig holds the delivery settings
type DeliveryConfig struct {
	ReportBaseURL      string
	RequirePayment     bool
	DefaultCountryCode string
}

// ReportDeliveryService implements domain.DeliveryService
type ReportDeliveryService struct {
	analysis domain.AnalysisService
	tokens   *ReportTokenService
	email    domain.EmailSender
	config   DeliveryConfig
	logger   *zap.Logger
}

// NewReportDeliveryService creates a new delivery service
func NewReportDeliveryService(
	analysis domain.AnalysisService,
	tokens *ReportTokenService,
	email domain.EmailSender,
	cfg DeliveryConfig,
	log *zap.Logger,
) *ReportDeliveryService {
	cfg.ReportBaseURL = strings.TrimRight(cfg.ReportBaseURL, "/")
	return &ReportDeliveryService{
		analysis: analysis,
		tokens:   tokens,
		email:    email,
		config:   cfg,
		logger:   logger.OrNop(log),
	}
}

// Deliver sends a session's report over the requested channel
func (s *ReportDeliveryService) Deliver(ctx context.Context, req domain.DeliveryRequest) (*domain.DeliveryResult, error) {
	if req.Channel != domain.ChannelWhatsApp && req.Channel != domain.ChannelEmail {
		return nil, domain.ErrUnsupportedChannel
	}

	session, err := s.analysis.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if s.config.RequirePayment && !session.Paid {
		metrics.ReportDeliveries.WithLabelValues(string(req.Channel), "payment_required").Inc()
		return nil, domain.ErrPaymentRequired
	}

	token, expiresAt, err := s.tokens.Generate(session.ID)
	if err != nil {
		return nil, err
	}
	result := &domain.DeliveryResult{
		Channel:   req.Channel,
		ReportURL: s.ReportURL(token),
		ExpiresAt: expiresAt,
	}

	switch req.Channel {
	case domain.ChannelWhatsApp:
		err = s.deliverWhatsApp(session, req.Recipient, result)
	case domain.ChannelEmail:
		err = s.deliverEmail(ctx, session, req.Recipient, result)
	}
	if err != nil {
		metrics.ReportDeliveries.WithLabelValues(string(req.Channel), "failed").Inc()
		return nil, err
	}

	metrics.ReportDeliveries.WithLabelValues(string(req.Channel), "sent").Inc()
	s.logger.Info("report delivered",
		zap.String("session_id", session.ID),
		zap.String("channel", string(req.Channel)),
	)
	return result, nil
}

// ResolveReportToken returns the session a signed report link points at
func (s *ReportDeliveryService) ResolveReportToken(ctx context.Context, token string) (*domain.AnalysisSession, error) {
	sessionID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	return s.analysis.GetSession(ctx, sessionID)
}

// ReportURL is the public link for a report token
func (s *ReportDeliveryService) ReportURL(token string) string {
	return s.config.ReportBaseURL + "/v1/reports/" + token
}

func (s *ReportDeliveryService) deliverWhatsApp(session *domain.AnalysisSession, recipient string, result *domain.DeliveryResult) error {
	if recipient == "" {
		recipient = session.UserInfo.Phone
	}
	phone, err := NormalizePhone(recipient, s.config.DefaultCountryCode)
	if err != nil {
		return err
	}

	result.Recipient = phone
	result.Link = WhatsAppLink(phone, ReportMessage(session, result.ReportURL))
	return nil
}

func (s *ReportDeliveryService) deliverEmail(ctx context.Context, session *domain.AnalysisSession, recipient string, result *domain.DeliveryResult) error {
	if recipient == "" {
		recipient = session.UserInfo.Email
	}
	recipient = strings.TrimSpace(recipient)
	if !strings.Contains(recipient, "@") {
		return fmt.Errorf("%w: %q is not an email address", domain.ErrInvalidRecipient, recipient)
	}

	html, err := RenderReportEmail(session, result.ReportURL, result.ExpiresAt)
	if err != nil {
		return err
	}

	msg := domain.EmailMessage{
		To:       recipient,
		Subject:  "Your Skinsight skin report",
		HTMLBody: html,
		TextBody: ReportMessage(session, result.ReportURL),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return err
	}

	result.Recipient = recipient
	return nil
}

// NormalizePhone keeps the digits of phone, drops an international 00 prefix
// and swaps a leading trunk 0 for countryCode
func NormalizePhone(phone, countryCode string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case strings.HasPrefix(strings.TrimSpace(phone), "+"):
	case strings.HasPrefix(digits, "00"):
		digits = digits[2:]
	case strings.HasPrefix(digits, "0"):
		digits = countryCode + digits[1:]
	}
	if len(digits) < minPhoneDigits {
		return "", fmt.Errorf("%w: %q is not a phone number", domain.ErrInvalidRecipient, phone)
	}
	return digits, nil
}

// WhatsAppLink builds a wa.me deep link with a prefilled message
func WhatsAppLink(phone, message string) string {
	return whatsAppBaseURL + phone + "?text=" + url.QueryEscape(message)
}

// ReportMessage is the plain-text summary of a session
func ReportMessage(session *domain.AnalysisSession, reportURL string) string {
	var b strings.Builder

	name := session.UserInfo.Name
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s, here is your Skinsight result.\n", name)
	if session.AIResult != nil {
		fmt.Fprintf(&b, "Skin type: %s (%d%% confidence)\n", session.AIResult.SkinType, session.AIResult.Confidence)
	}

	concerns := make([]string, 0, topConcerns)
	for i, score := range session.Scores {
		if i == topConcerns {
			break
		}
		concerns = append(concerns, fmt.Sprintf("%s %d", MetricLabel(score.Name), score.Value))
	}
	if len(concerns) > 0 {
		fmt.Fprintf(&b, "Top concerns: %s\n", strings.Join(concerns, ", "))
	}

	fmt.Fprintf(&b, "Full report: %s", reportURL)
	return b.String()
}

// MetricLabel turns a camelCase metric name into lower-case words
func MetricLabel(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte(' ')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

type emailScore struct {
	Label string
	Value int
	Hex   string
}

type emailProducts struct {
	Issue     string
	Treatment domain.TreatmentType
	Items     []domain.EnhancedProduct
}

type emailData struct {
	Name            string
	SkinType        domain.SkinType
	Confidence      int
	Fallback        bool
	Scores          []emailScore
	Recommendations []string
	Products        []emailProducts
	ReportURL       string
	ExpiresAt       string
}

var scoreHex = map[domain.ScoreColor]string{
	domain.ScoreColorGreen:  "#2e7d32",
	domain.ScoreColorOrange: "#ef6c00",
	domain.ScoreColorRed:    "#c62828",
}

// RenderReportEmail renders the HTML email body for a session
func RenderReportEmail(session *domain.AnalysisSession, reportURL string, expiresAt time.Time) (string, error) {
	data := emailData{
		Name:            session.UserInfo.Name,
		Recommendations: session.Recommendations,
		ReportURL:       reportURL,
		ExpiresAt:       expiresAt.UTC().Format("2 January 2006"),
	}
	if session.AIResult != nil {
		data.SkinType = session.AIResult.SkinType
		data.Confidence = session.AIResult.Confidence
		data.Fallback = session.AIResult.Fallback
	}
	for _, score := range session.Scores {
		data.Scores = append(data.Scores, emailScore{
			Label: MetricLabel(score.Name),
			Value: score.Value,
			Hex:   scoreHex[score.Color],
		})
	}
	for _, rec := range session.ProductRecommendations {
		data.Products = append(data.Products, emailProducts{
			Issue:     strings.ReplaceAll(rec.IssueTargeted, "_", " "),
			Treatment: rec.TreatmentType,
			Items:     rec.Products,
		})
	}

	var buf bytes.Buffer
	if err := reportEmailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render report email: %w", err)
	}
	return buf.String(), nil
}
