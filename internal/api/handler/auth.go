package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/soundtrail/soundtrail/internal/api/models"
	"github.com/soundtrail/soundtrail/internal/api/response"
	"github.com/soundtrail/soundtrail/internal/auth"
)

// AuthHandler handles the token exchange endpoint.
type AuthHandler struct {
	authService *auth.Service
}

func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Token handles POST /v1/auth/token - exchange client credentials for an
// access token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var input models.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if input.UserID == "" {
		response.BadRequest(w, r, "validation failed", []models.FieldError{
			{Field: "userId", Message: "userId is required"},
		})
		return
	}

	token, expiresAt, err := h.authService.ExchangeToken(input.UserID, input.ClientSecret)
	if err != nil {
		if errors.Is(err, auth.ErrBadClientSecret) {
			response.Unauthorized(w, r, "invalid client secret")
			return
		}
		response.InternalError(w, r, "could not issue token")
		return
	}

	response.JSON(w, r, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   models.Timestamp(expiresAt),
	})
}
