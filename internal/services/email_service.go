package services

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	pkglogger "github.com/BradenHooton/revue/pkg/logger"
)

// EmailService sends account notifications. Delivery is best effort; callers
// log failures and carry on.
type EmailService interface {
	SendWelcomeEmail(ctx context.Context, email, name string) error
	SendPasswordChangedEmail(ctx context.Context, email, name string) error
}

// sesSender is the part of *ses.Client used here.
type sesSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	client      sesSender
	fromAddress string
	appURL      string
	logger      *slog.Logger
}

func NewAWSSESEmailService(ctx context.Context, region, fromAddress, appURL string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newSESEmailService(ses.NewFromConfig(cfg), fromAddress, appURL, logger), nil
}

func newSESEmailService(client sesSender, fromAddress, appURL string, logger *slog.Logger) *AWSSESEmailService {
	return &AWSSESEmailService{
		client:      client,
		fromAddress: fromAddress,
		appURL:      appURL,
		logger:      logger,
	}
}

func (s *AWSSESEmailService) SendWelcomeEmail(ctx context.Context, email, name string) error {
	text := fmt.Sprintf(`Hi %s,

Welcome to Revue. Your account is ready. Sign in at %s and paste some code to get your first review.

This is an automated message. Please do not reply to this email.
`, name, s.appURL)

	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Welcome to Revue. Your account is ready.</p>
<p><a href="%s">Sign in</a> and paste some code to get your first review.</p>
<p style="color:#666;font-size:12px">This is an automated message. Please do not reply to this email.</p>`,
		html.EscapeString(name), html.EscapeString(s.appURL))

	return s.send(ctx, email, "Welcome to Revue", body, text)
}

func (s *AWSSESEmailService) SendPasswordChangedEmail(ctx context.Context, email, name string) error {
	text := fmt.Sprintf(`Hi %s,

The password for your Revue account was just changed. If this was not you, contact an administrator immediately.
`, name)

	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>The password for your Revue account was just changed.</p>
<p><strong>If this was not you</strong>, contact an administrator immediately.</p>`,
		html.EscapeString(name))

	return s.send(ctx, email, "Your Revue password was changed", body, text)
}

func (s *AWSSESEmailService) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(htmlBody)},
				Text: &types.Content{Data: aws.String(textBody)},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		slog.String("email", pkglogger.SanitizedEmail(to)),
		slog.String("subject", subject),
		slog.String("message_id", aws.ToString(result.MessageId)))
	return nil
}

// NoopEmailService is used when EMAIL_FROM is unset.
type NoopEmailService struct{}

func (NoopEmailService) SendWelcomeEmail(context.Context, string, string) error { return nil }

func (NoopEmailService) SendPasswordChangedEmail(context.Context, string, string) error { return nil }
