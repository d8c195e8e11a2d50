package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mbessonov/audioscribe/internal/crypto"
	"github.com/mbessonov/audioscribe/internal/models"
	"github.com/mbessonov/audioscribe/internal/server/middleware"
	"github.com/mbessonov/audioscribe/internal/server/storage"
	"github.com/mbessonov/audioscribe/internal/server/token"
	"github.com/mbessonov/audioscribe/internal/validation"
	"github.com/mbessonov/audioscribe/pkg/api"
)

// TokenService issues, validates, and rotates token pairs
type TokenService interface {
	IssuePair(userID string) (*token.Pair, error)
	Validate(tokenString, expectedKind string) (*token.Claims, error)
	Refresh(refreshToken string) (*token.Pair, *token.Claims, error)
}

// AuthHandler handles registration, login, and token lifecycle requests
type AuthHandler struct {
	logger      *slog.Logger
	userStorage storage.UserStorage
	tokens      TokenService
	denylist    storage.TokenDenylist
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(logger *slog.Logger, userStorage storage.UserStorage, tokens TokenService, denylist storage.TokenDenylist) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		userStorage: userStorage,
		tokens:      tokens,
		denylist:    denylist,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode register request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	email := validation.NormalizeEmail(req.Email)
	if err := validation.ValidateEmail(email); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.userStorage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			h.logger.WarnContext(ctx, "registration with taken email", slog.String("email", email))
			sendError(h.logger, w, "email already taken", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", email))

	sendJSON(h.logger, w, userResponse(user), http.StatusCreated)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	email := validation.NormalizeEmail(req.Email)

	user, err := h.userStorage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "login failed: user not found", slog.String("email", email))
			sendError(h.logger, w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	ok, err := crypto.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		// Unparseable stored hash is a data-integrity failure, not a
		// wrong password
		h.logger.ErrorContext(ctx, "stored password hash is malformed",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !ok {
		h.logger.WarnContext(ctx, "login failed: wrong password", slog.String("user_id", user.ID))
		sendError(h.logger, w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	pair, err := h.tokens.IssuePair(user.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue token pair", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	sendJSON(h.logger, w, tokenResponse(pair), http.StatusOK)
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode refresh request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.RefreshToken == "" {
		sendError(h.logger, w, "refresh_token is required", http.StatusBadRequest)
		return
	}

	pair, oldClaims, err := h.tokens.Refresh(req.RefreshToken)
	if err != nil {
		h.logger.WarnContext(ctx, "refresh rejected", slog.Any("error", err))
		h.sendAuthError(w, err)
		return
	}

	// Tokens minted above carry no server-side state, so discarding the
	// pair on a revoked jti costs nothing
	revoked, err := h.denylist.IsRevoked(ctx, oldClaims.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check denylist", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}
	if revoked {
		h.logger.WarnContext(ctx, "refresh with revoked token",
			slog.String("user_id", oldClaims.Subject))
		sendError(h.logger, w, "invalid refresh token", http.StatusUnauthorized)
		return
	}

	h.logger.InfoContext(ctx, "token pair refreshed", slog.String("user_id", oldClaims.Subject))

	sendJSON(h.logger, w, tokenResponse(pair), http.StatusOK)
}

// Logout handles POST /api/v1/auth/logout (bearer auth).
// Revokes the presented refresh token for the rest of its lifetime.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	claims, err := h.tokens.Validate(req.RefreshToken, token.KindRefresh)
	if err != nil {
		h.logger.WarnContext(ctx, "logout with invalid refresh token",
			slog.String("user_id", userID),
			slog.Any("error", err))
		h.sendAuthError(w, err)
		return
	}

	if claims.Subject != userID {
		h.logger.WarnContext(ctx, "logout refresh token belongs to another user",
			slog.String("user_id", userID))
		sendError(h.logger, w, "invalid refresh token", http.StatusUnauthorized)
		return
	}

	if err := h.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke refresh token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user logged out", slog.String("user_id", userID))

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/me (bearer auth)
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.userStorage.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// Token outlived the account
			sendError(h.logger, w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, userResponse(user), http.StatusOK)
}

// sendAuthError maps token validation failures onto 401 replies with
// stable messages. Kinds stay distinct for the caller without exposing
// anything beyond the failure class.
func (h *AuthHandler) sendAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, token.ErrExpired):
		sendError(h.logger, w, "token expired", http.StatusUnauthorized)
	case errors.Is(err, token.ErrWrongKind):
		sendError(h.logger, w, "wrong token kind", http.StatusUnauthorized)
	default:
		sendError(h.logger, w, "invalid token", http.StatusUnauthorized)
	}
}

// userResponse builds the public user summary
func userResponse(user *models.User) api.UserResponse {
	return api.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

// tokenResponse builds the token pair reply
func tokenResponse(pair *token.Pair) api.TokenResponse {
	return api.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}
}
