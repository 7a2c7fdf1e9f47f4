package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/respond"
	"github.com/vidtube/backend/internal/services"
)

// RefreshTokenCookie is the cookie that carries the refresh token.
const RefreshTokenCookie = "refreshToken"

// UserHandler implements the /api/v1/users endpoints.
type UserHandler struct {
	Accounts     AccountService
	Channels     ChannelViews
	Uploads      Uploads
	CookieSecure bool
}

type registerRequest struct {
	FullName string `json:"fullName" validate:"required,max=100"`
	UserName string `json:"userName" validate:"required,alphanum,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	UserName string `json:"userName" validate:"required_without=Email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type updateProfileRequest struct {
	FullName string `json:"fullName" validate:"omitempty,max=100"`
	Email    string `json:"email" validate:"omitempty,email"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type sessionResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Register handles POST /api/v1/users/register (multipart).
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Uploads.parse(w, r); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	var staged []string
	defer func() { cleanup(r, staged...) }()

	req := registerRequest{
		FullName: strings.TrimSpace(r.FormValue("fullName")),
		UserName: strings.TrimSpace(r.FormValue("userName")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	if err := validateStruct(req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	avatar, err := h.Uploads.stage(r, "avatar")
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	staged = append(staged, avatar)
	if avatar == "" {
		respond.Error(ctx, w, apperr.BadRequest("avatar file is required"))
		return
	}
	cover, err := h.Uploads.stage(r, "coverImage")
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	staged = append(staged, cover)

	user, err := h.Accounts.Register(ctx, services.RegisterInput{
		FullName:   req.FullName,
		UserName:   req.UserName,
		Email:      req.Email,
		Password:   req.Password,
		AvatarPath: avatar,
		CoverPath:  cover,
	})
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	logging.FromContext(ctx).Info("user registered", "user_id", user.ID)
	respond.Success(ctx, w, http.StatusCreated, user, "User registered successfully. Check your email to verify the account")
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	user, tokens, err := h.Accounts.Login(ctx, services.LoginInput{Email: req.Email, UserName: req.UserName, Password: req.Password})
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	h.setSessionCookies(w, tokens)
	respond.Success(ctx, w, http.StatusOK, sessionResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "User logged in successfully")
}

// Logout handles POST /api/v1/users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	if err := h.Accounts.Logout(ctx, identity.UserID); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	h.clearSessionCookies(w)
	respond.Success(ctx, w, http.StatusOK, map[string]any{}, "User logged out")
}

// Refresh handles POST /api/v1/users/refresh-token. The token is read from the
// refresh cookie, falling back to the JSON body.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var token string
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		token = strings.TrimSpace(cookie.Value)
	}
	if token == "" && r.ContentLength != 0 {
		var req refreshRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respond.Error(ctx, w, err)
			return
		}
		token = strings.TrimSpace(req.RefreshToken)
	}

	tokens, err := h.Accounts.Refresh(ctx, token)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	h.setSessionCookies(w, tokens)
	respond.Success(ctx, w, http.StatusOK, tokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, "Access token refreshed")
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	if err := h.Accounts.ChangePassword(ctx, identity.UserID, req.OldPassword, req.NewPassword); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, map[string]any{}, "Password changed successfully")
}

// CurrentUser handles GET /api/v1/users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	user, err := h.Accounts.CurrentUser(ctx, identity.UserID)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, user, "Current user fetched successfully")
}

// UpdateProfile handles PATCH /api/v1/users/update-profile (JSON or multipart).
func (h UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	var (
		req    updateProfileRequest
		input  services.UpdateProfileInput
		staged []string
	)
	defer func() { cleanup(r, staged...) }()

	if isMultipart(r) {
		if err := h.Uploads.parse(w, r); err != nil {
			respond.Error(ctx, w, err)
			return
		}
		req = updateProfileRequest{FullName: strings.TrimSpace(r.FormValue("fullName")), Email: strings.TrimSpace(r.FormValue("email"))}
		if err := validateStruct(req); err != nil {
			respond.Error(ctx, w, err)
			return
		}
		for _, field := range []string{"avatar", "coverImage"} {
			path, err := h.Uploads.stage(r, field)
			if err != nil {
				respond.Error(ctx, w, err)
				return
			}
			staged = append(staged, path)
		}
		input.AvatarPath, input.CoverPath = staged[0], staged[1]
	} else if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	input.FullName, input.Email = req.FullName, req.Email

	user, err := h.Accounts.UpdateProfile(ctx, identity.UserID, input)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, user, "Profile updated successfully")
}

// ChannelProfile handles GET /api/v1/users/c/{username}.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	profile, err := h.Channels.ChannelProfile(ctx, chi.URLParam(r, "username"), identity.UserID)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, profile, "Channel fetched successfully")
}

// WatchHistory handles GET /api/v1/users/watch-history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	page, err := pagination.FromQuery(r.URL.Query())
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	videos, err := h.Channels.WatchHistory(ctx, identity.UserID)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, pagination.Paginate(videos, page), "Watch history fetched successfully")
}

// AddToHistory handles POST /api/v1/videos/history/{videoId}.
func (h UserHandler) AddToHistory(w http.ResponseWriter, r *http.Request) {
	h.editHistory(w, r, h.Accounts.AddToWatchHistory, "Video added to watch history")
}

// RemoveFromHistory handles DELETE /api/v1/videos/history/{videoId}.
func (h UserHandler) RemoveFromHistory(w http.ResponseWriter, r *http.Request) {
	h.editHistory(w, r, h.Accounts.RemoveFromWatchHistory, "Video removed from watch history")
}

func (h UserHandler) editHistory(w http.ResponseWriter, r *http.Request, edit func(ctx context.Context, userID, videoID string) error, message string) {
	ctx := r.Context()
	identity, err := requester(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}
	videoID, err := pathID(r, "videoId")
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	if err := edit(ctx, identity.UserID, videoID); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, map[string]string{"videoId": videoID}, message)
}

// Verify handles GET /api/v1/users/verify/{iv}/{token}.
func (h UserHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Accounts.VerifyEmail(ctx, actionToken(r)); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, map[string]any{}, "Account verified successfully")
}

// ResendVerification handles POST /api/v1/users/verification.
func (h UserHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	if err := h.Accounts.ResendVerification(ctx, req.Email); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, map[string]any{}, "If the account exists and is unverified, a verification email has been sent")
}

// ForgotPassword handles POST /api/v1/users/forgot-password.
func (h UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	if err := h.Accounts.ForgotPassword(ctx, req.Email); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, map[string]any{}, "If the account exists, a password reset email has been sent")
}

// ValidateResetLink handles GET /api/v1/users/reset-password/{iv}/{token}, the
// link mailed by ForgotPassword. The client posts the new password to the same path.
func (h UserHandler) ValidateResetLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tok := actionToken(r)
	if err := h.Accounts.CheckResetToken(ctx, tok); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, tok, "Reset link is valid, submit a new password")
}

// ResetPassword handles POST /api/v1/users/reset-password/{iv}/{token}.
func (h UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	if err := h.Accounts.ResetPassword(ctx, actionToken(r), req.NewPassword); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	respond.Success(ctx, w, http.StatusOK, map[string]any{}, "Password reset successfully")
}

func actionToken(r *http.Request) auth.ActionToken {
	return auth.ActionToken{IV: chi.URLParam(r, "iv"), Token: chi.URLParam(r, "token")}
}

func (h UserHandler) setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, h.cookie(middleware.AccessTokenCookie, tokens.AccessToken, tokens.AccessExpiresAt))
	http.SetCookie(w, h.cookie(RefreshTokenCookie, tokens.RefreshToken, tokens.RefreshExpiresAt))
}

func (h UserHandler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie} {
		cookie := h.cookie(name, "", time.Unix(0, 0))
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
	}
}

func (h UserHandler) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
