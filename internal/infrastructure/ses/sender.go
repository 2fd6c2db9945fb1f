package ses

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"github.com/mansoorceksport/skinsight/internal/domain"
	"github.com/mansoorceksport/skinsight/internal/logger"
)

const charset = "UTF-8"

// API is the subset of the SES client used here
type API interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Sender implements domain.EmailSender over Amazon SES
type Sender struct {
	api    API
	from   string
	logger *zap.Logger
}

// NewSender loads the default AWS config for region
func NewSender(ctx context.Context, region, from string, log *zap.Logger) (*Sender, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return NewSenderWithAPI(ses.NewFromConfig(cfg), from, log), nil
}

// NewSenderWithAPI wraps an existing SES client
func NewSenderWithAPI(api API, from string, log *zap.Logger) *Sender {
	return &Sender{api: api, from: from, logger: logger.OrNop(log)}
}

func (s *Sender) Send(ctx context.Context, msg domain.EmailMessage) error {
	body := &types.Body{}
	if msg.HTMLBody != "" {
		body.Html = &types.Content{Charset: aws.String(charset), Data: aws.String(msg.HTMLBody)}
	}
	if msg.TextBody != "" {
		body.Text = &types.Content{Charset: aws.String(charset), Data: aws.String(msg.TextBody)}
	}

	out, err := s.api.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(s.from),
		Destination: &types.Destination{ToAddresses: []string{msg.To}},
		Message: &types.Message{
			Subject: &types.Content{Charset: aws.String(charset), Data: aws.String(msg.Subject)},
			Body:    body,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent", zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}

// LogSender only logs messages; used when SES is not configured
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{logger: logger.OrNop(log)}
}

func (s *LogSender) Send(ctx context.Context, msg domain.EmailMessage) error {
	s.logger.Info("email not sent, SES is not configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
