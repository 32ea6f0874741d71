package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/BradenHooton/revue/internal/metrics"
	"github.com/BradenHooton/revue/internal/models"
)

// Messages returned as review text when the model cannot answer.
const (
	QuotaExceededMessage = "The AI service is currently over its usage quota. Please try again in a few minutes or check your API usage limits."
	ReviewFailedMessage  = "An error occurred while processing your request. Please try again later."
)

// ErrReviewerNotConfigured is returned by a reviewer with no API key.
var ErrReviewerNotConfigured = errors.New("ai reviewer not configured")

// ErrQuotaExceeded marks a rate-limited model call.
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// Reviewer sends a prompt to a generative model and returns its text.
type Reviewer interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiReviewer calls the Gemini API through the genai SDK.
type GeminiReviewer struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiReviewer bounds each call by timeout when it is positive.
func NewGeminiReviewer(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiReviewer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiReviewer{client: client, model: model, timeout: timeout}, nil
}

func (g *GeminiReviewer) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		if isQuotaError(err) {
			return "", fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return "", err
	}
	return responseText(resp), nil
}

func isQuotaError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code == http.StatusTooManyRequests
	}
	return strings.Contains(err.Error(), "429")
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// UnconfiguredReviewer stands in when GEMINI_API_KEY is unset.
type UnconfiguredReviewer struct{}

func (UnconfiguredReviewer) Generate(context.Context, string) (string, error) {
	return "", ErrReviewerNotConfigured
}

// ReviewService builds review prompts and degrades model failures into
// readable text.
type ReviewService struct {
	reviewer Reviewer
	logger   *slog.Logger
}

func NewReviewService(reviewer Reviewer, logger *slog.Logger) *ReviewService {
	if reviewer == nil {
		reviewer = UnconfiguredReviewer{}
	}
	return &ReviewService{reviewer: reviewer, logger: logger}
}

// BuildReviewPrompt prefixes code with the caller's identity.
func BuildReviewPrompt(identity *models.Identity, code string) string {
	userContext := "Anonymous user"
	if identity != nil {
		userContext = fmt.Sprintf("User: %s (%s)", identity.Name, identity.Email)
	}
	return userContext + "\n\nPlease review the following code:\n\n" + code
}

// Review always yields text: model failures become QuotaExceededMessage or
// ReviewFailedMessage. An error is returned only if ctx is already done.
func (s *ReviewService) Review(ctx context.Context, identity *models.Identity, code string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := s.reviewer.Generate(ctx, BuildReviewPrompt(identity, code))
	switch {
	case err == nil:
		metrics.IncReview("ok")
		return text, nil
	case errors.Is(err, ErrQuotaExceeded):
		s.logger.Warn("ai review quota exceeded", slog.Any("error", err))
		metrics.IncReview("quota")
		return QuotaExceededMessage, nil
	default:
		s.logger.Error("ai review failed", slog.Any("error", err))
		metrics.IncReview("error")
		return ReviewFailedMessage, nil
	}
}
