package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/evanshaw/shopd/internal/domain"
	"github.com/evanshaw/shopd/internal/handler"
	"github.com/go-playground/validator/v10"
)

// AuthHandler serves token authentication. Tokens are opaque keys sent
// back by clients as "Authorization: Token <key>".
type AuthHandler struct {
	users    domain.UserService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewAuthHandler(users domain.UserService, validate *validator.Validate, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		validate: validate,
		logger:   logger,
	}
}

type tokenLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenLoginResponse struct {
	AuthToken string `json:"auth_token"`
}

// TokenLogin handles POST /api/auth/token/login/ and exchanges
// credentials for the user's token. Repeated logins return the same
// token.
func (h *AuthHandler) TokenLogin(w http.ResponseWriter, r *http.Request) {
	var req tokenLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.RespondError(w, r, domain.Invalid("auth.token_login", "Invalid request body."))
		return
	}

	if err := handler.ValidateStruct(h.validate, "auth.token_login", req); err != nil {
		handler.RespondError(w, r, err)
		return
	}

	token, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handler.RespondError(w, r, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, tokenLoginResponse{AuthToken: token})
}
