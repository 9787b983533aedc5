package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eveauth/eve-auth-api/internal/auth"
	"github.com/eveauth/eve-auth-api/internal/config"
	"github.com/eveauth/eve-auth-api/internal/model"
	"github.com/eveauth/eve-auth-api/internal/queue"
	"github.com/eveauth/eve-auth-api/internal/repository"
	queue_publisher "github.com/eveauth/eve-auth-api/internal/service"
	"github.com/eveauth/eve-auth-api/internal/token"
	"github.com/eveauth/eve-auth-api/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.  Credential
// verification (bcrypt) happens here at the boundary; the issuer and
// validator never see passwords.
type AuthHandler struct {
	Cfg       config.Config
	Users     *repository.UserRepo
	Tokens    auth.TokenStore
	Issuer    *auth.Issuer
	Validator *auth.Validator
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t auth.TokenStore, iss *auth.Issuer, val *auth.Validator) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Issuer: iss, Validator: val}
}

// ----- DTOs -----

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// loginResponse is the stable session contract: both TTLs and
// issued_at are always present.
type loginResponse struct {
	AccessToken           string           `json:"access_token"`
	RefreshToken          string           `json:"refresh_token"`
	TokenType             string           `json:"token_type"`
	AccessTokenExpiresIn  int64            `json:"access_token_expires_in"`  // seconds
	RefreshTokenExpiresIn int64            `json:"refresh_token_expires_in"` // seconds
	IssuedAt              time.Time        `json:"issued_at"`
	User                  model.PublicUser `json:"user"`
}

func sessionResponse(s *auth.Session) loginResponse {
	return loginResponse{
		AccessToken:           s.AccessToken,
		RefreshToken:          s.RefreshToken,
		TokenType:             s.TokenType,
		AccessTokenExpiresIn:  int64(s.AccessTTL / time.Second),
		RefreshTokenExpiresIn: int64(s.RefreshTTL / time.Second),
		IssuedAt:              s.IssuedAt,
		User:                  s.User,
	}
}

// Register creates a user and issues a session immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	sess, err := h.Issuer.Issue(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	h.publishIssued(ctx, c, sess)
	return c.JSON(http.StatusCreated, sessionResponse(sess))
}

// Login verifies credentials and issues a new pair.  The previous live
// pair is revoked in the same store transaction that records the new
// one.  Unknown email and wrong password collapse to one message.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	sess, err := h.Issuer.Issue(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	h.publishIssued(ctx, c, sess)
	return c.JSON(http.StatusOK, sessionResponse(sess))
}

// Refresh exchanges a live refresh token for a fresh pair.  The
// presented token (and any other live token of either kind) is revoked
// by the issuance transaction, so a refresh token is single-use.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Tokens.Find(ctx, model.TokenKindRefresh, token.Hash(raw))
	if errors.Is(err, auth.ErrTokenNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !rec.Live(time.Now().UTC()) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}

	u, err := h.Users.GetByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	sess, err := h.Issuer.Issue(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	h.publishIssued(ctx, c, sess)
	return c.JSON(http.StatusOK, sessionResponse(sess))
}

// Logout revokes every live token of both kinds for the user.  The
// user is resolved either from a Bearer access token or from a
// refresh_token in the body, so a session can be ended even after the
// short-lived access token has expired.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var userID uint64
	resolved := false

	if header := c.Request().Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		raw := strings.TrimPrefix(header, "Bearer ")
		if claims, err := h.Validator.Validate(ctx, raw); err == nil {
			if uid, err := claims.UserID(); err == nil {
				userID = uid
				resolved = true
			}
		}
	}

	if !resolved {
		var req refreshReq
		_ = c.Bind(&req)
		raw := strings.TrimSpace(req.RefreshToken)
		if raw == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
		}
		rec, err := h.Tokens.Find(ctx, model.TokenKindRefresh, token.Hash(raw))
		if err != nil || !rec.Live(time.Now().UTC()) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		userID = rec.UserID
	}

	for _, kind := range []model.TokenKind{model.TokenKindAccess, model.TokenKindRefresh} {
		if err := h.Tokens.RevokeAllLive(ctx, userID, kind); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
	}

	_ = queue_publisher.PublishSessionRevoked(ctx, queue.SessionRevokedEvent{
		UserID:    userID,
		RevokedAt: time.Now().UTC().Format(time.RFC3339),
		Reason:    "logout",
		SourceIP:  c.RealIP(),
	})
	return c.NoContent(http.StatusNoContent)
}

// Me returns the identity carried by the validated access token.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get("user_id"),
		"email":   c.Get("email"),
	})
}

// GetUser returns the public projection of the user named in the path,
// but only when the presented token belongs to that same user.  Any
// mismatch is a plain 401; a 403/404 split would reveal which account
// ids exist.
func (h *AuthHandler) GetUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	header := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Validator.ValidateForUser(ctx, raw, id); err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "token check unavailable"})
	}

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, u.Public())
}

// publishIssued emits the audit event for a new session.  Failures are
// ignored: the broker is best-effort and must never fail a login.
func (h *AuthHandler) publishIssued(ctx context.Context, c echo.Context, s *auth.Session) {
	_ = queue_publisher.PublishSessionIssued(ctx, queue.SessionIssuedEvent{
		UserID:           s.User.ID,
		Email:            s.User.Email,
		IssuedAt:         s.IssuedAt.Format(time.RFC3339),
		AccessExpiresAt:  s.IssuedAt.Add(s.AccessTTL).Format(time.RFC3339),
		RefreshExpiresAt: s.IssuedAt.Add(s.RefreshTTL).Format(time.RFC3339),
		SourceIP:         c.RealIP(),
	})
}
