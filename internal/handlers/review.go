package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/revue/internal/auth"
	"github.com/BradenHooton/revue/internal/models"
	pkghttp "github.com/BradenHooton/revue/pkg/http"
)

// ReviewServiceInterface produces review text for submitted code.
type ReviewServiceInterface interface {
	Review(ctx context.Context, identity *models.Identity, code string) (string, error)
}

type ReviewHandler struct {
	service ReviewServiceInterface
	logger  *slog.Logger
	now     func() time.Time
}

func NewReviewHandler(service ReviewServiceInterface, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{service: service, logger: logger, now: time.Now}
}

type ReviewRequest struct {
	Code string `json:"code" validate:"required,min=1,max=10000"`
}

type ReviewResponse struct {
	Success   bool      `json:"success"`
	Review    string    `json:"review"`
	Timestamp time.Time `json:"timestamp"`
}

// Review handles POST /api/ai/review. Model failures still produce a 200
// with explanatory review text.
func (h *ReviewHandler) Review(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := pkghttp.DecodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteValidationError(w, err.Error())
		return
	}

	review, err := h.service.Review(r.Context(), auth.GetIdentity(r.Context()), req.Code)
	if err != nil {
		h.logger.Error("code review failed", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "An error occurred while processing your code review")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ReviewResponse{
		Success:   true,
		Review:    review,
		Timestamp: h.now().UTC(),
	})
}
