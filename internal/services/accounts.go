package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/mail"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// UserRepository captures the persistence operations required by account flows.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByLogin(ctx context.Context, email, username string) (models.User, error)
	UpdateProfile(ctx context.Context, user models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string, clearSession bool) error
	MarkVerified(ctx context.Context, id string) error
	AppendWatchHistory(ctx context.Context, id, userID, videoID string, at time.Time) error
	RemoveWatchHistory(ctx context.Context, userID, videoID string) error
}

// Tokens issues and redeems session and action tokens.
type Tokens interface {
	IssueTokenPair(ctx context.Context, user models.User) (models.SessionTokens, error)
	Rotate(ctx context.Context, oldRefreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, userID string) error
	IssueActionToken(userID string, purpose auth.Purpose) (auth.ActionToken, error)
	RedeemActionToken(tok auth.ActionToken, purpose auth.Purpose) (string, error)
}

// AccountDeps wires an AccountService.
type AccountDeps struct {
	Users         UserRepository
	Tokens        Tokens
	Media         MediaStore
	Mailer        mail.Sender
	PublicBaseURL string
	Now           func() time.Time
}

// AccountService implements registration, login and profile management.
type AccountService struct {
	users   UserRepository
	tokens  Tokens
	media   MediaStore
	mailer  mail.Sender
	baseURL string
	now     clock
}

func NewAccountService(deps AccountDeps) *AccountService {
	return &AccountService{
		users:   deps.Users,
		tokens:  deps.Tokens,
		media:   deps.Media,
		mailer:  deps.Mailer,
		baseURL: strings.TrimSuffix(deps.PublicBaseURL, "/"),
		now:     deps.Now,
	}
}

// RegisterInput carries a registration form. AvatarPath and CoverPath are staged uploads.
type RegisterInput struct {
	FullName   string
	UserName   string
	Email      string
	Password   string
	AvatarPath string
	CoverPath  string
}

// Register creates an unverified account and emails a verification link.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.UserName = strings.ToLower(strings.TrimSpace(in.UserName))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	missing := map[string]string{}
	for field, value := range map[string]string{"fullName": in.FullName, "userName": in.UserName, "email": in.Email, "password": in.Password} {
		if value == "" {
			missing[field] = field + " is required"
		}
	}
	if len(missing) > 0 {
		return models.User{}, apperr.Validation(missing)
	}
	if in.AvatarPath == "" {
		return models.User{}, apperr.BadRequest("avatar file is required")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}

	if _, err := s.users.FindByLogin(ctx, in.Email, in.UserName); err == nil {
		return models.User{}, apperr.Conflict("user with email or username already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, apperr.Internal("check existing user", err)
	}

	avatar, err := s.media.Store(ctx, in.AvatarPath, folderAvatars)
	if err != nil {
		return models.User{}, apperr.Internal("avatar upload failed", err)
	}

	var cover string
	if in.CoverPath != "" {
		asset, err := s.media.Store(ctx, in.CoverPath, folderCovers)
		if err != nil {
			logging.FromContext(ctx).Warn("cover image upload failed", slog.String("error", err.Error()))
		} else {
			cover = asset.URL
		}
	}

	now := s.now.now()
	user := models.User{
		ID:         uuid.NewString(),
		UserName:   in.UserName,
		Email:      in.Email,
		FullName:   in.FullName,
		Avatar:     avatar.URL,
		CoverImage: cover,
		Password:   hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, apperr.Conflict("user with email or username already exists")
		}
		return models.User{}, apperr.Internal("create user", err)
	}

	s.sendActionLink(ctx, user, auth.PurposeVerifyEmail)
	return user, nil
}

// LoginInput identifies the account by email or username.
type LoginInput struct {
	Email    string
	UserName string
	Password string
}

// Login checks credentials and issues a fresh token pair.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (models.User, models.SessionTokens, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.ToLower(strings.TrimSpace(in.UserName))
	if email == "" && username == "" {
		return models.User{}, models.SessionTokens{}, apperr.BadRequest("username or email is required")
	}
	if in.Password == "" {
		return models.User{}, models.SessionTokens{}, apperr.BadRequest("password is required")
	}

	user, err := s.users.FindByLogin(ctx, email, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, models.SessionTokens{}, apperr.Unauthenticated("invalid user credentials")
		}
		return models.User{}, models.SessionTokens{}, apperr.Internal("load user", err)
	}
	if !auth.CheckPassword(user.Password, in.Password) {
		return models.User{}, models.SessionTokens{}, apperr.Unauthenticated("invalid user credentials")
	}
	if !user.Verified {
		return models.User{}, models.SessionTokens{}, apperr.Unauthenticated("verify your account before logging in")
	}

	tokens, err := s.tokens.IssueTokenPair(ctx, user)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}
	return user, tokens, nil
}

// Logout clears the stored refresh token.
func (s *AccountService) Logout(ctx context.Context, userID string) error {
	return s.tokens.Revoke(ctx, userID)
}

// Refresh rotates a refresh token into a new pair.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	return s.tokens.Rotate(ctx, refreshToken)
}

// ChangePassword replaces the password after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return translate(err, "load user", "user not found")
	}
	if !auth.CheckPassword(user.Password, oldPassword) {
		return apperr.BadRequest("invalid old password")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return translate(s.users.UpdatePassword(ctx, userID, hash, false), "update password", "user not found")
}

// CurrentUser loads the authenticated user's record.
func (s *AccountService) CurrentUser(ctx context.Context, userID string) (models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, translate(err, "load user", "user not found")
	}
	return user, nil
}

// UpdateProfileInput lists optional profile changes. Empty values are left unchanged.
type UpdateProfileInput struct {
	FullName   string
	Email      string
	AvatarPath string
	CoverPath  string
}

// UpdateProfile applies the requested changes. Failed optional uploads leave
// the current image in place.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.FullName == "" && in.Email == "" && in.AvatarPath == "" && in.CoverPath == "" {
		return models.User{}, apperr.BadRequest("provide at least one field to update")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, translate(err, "load user", "user not found")
	}

	if in.FullName != "" {
		user.FullName = in.FullName
	}
	if in.Email != "" {
		user.Email = in.Email
	}
	logger := logging.FromContext(ctx)
	if in.AvatarPath != "" {
		if asset, err := s.media.Store(ctx, in.AvatarPath, folderAvatars); err != nil {
			logger.Warn("avatar upload failed", slog.String("error", err.Error()))
		} else {
			user.Avatar = asset.URL
		}
	}
	if in.CoverPath != "" {
		if asset, err := s.media.Store(ctx, in.CoverPath, folderCovers); err != nil {
			logger.Warn("cover image upload failed", slog.String("error", err.Error()))
		} else {
			user.CoverImage = asset.URL
		}
	}
	user.UpdatedAt = s.now.now()

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, apperr.Conflict("email already in use")
		}
		return models.User{}, translate(err, "update profile", "user not found")
	}
	return user, nil
}

// VerifyEmail redeems a verification link.
func (s *AccountService) VerifyEmail(ctx context.Context, tok auth.ActionToken) error {
	userID, err := s.tokens.RedeemActionToken(tok, auth.PurposeVerifyEmail)
	if err != nil {
		return err
	}
	if err := s.users.MarkVerified(ctx, userID); err != nil {
		return translate(err, "mark verified", "invalid link")
	}
	return nil
}

// ResendVerification emails a new link when email belongs to an unverified account.
// Unknown addresses are not reported.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	user, ok, err := s.findByEmail(ctx, email)
	if err != nil || !ok || user.Verified {
		return err
	}
	s.sendActionLink(ctx, user, auth.PurposeVerifyEmail)
	return nil
}

// ForgotPassword emails a reset link when email belongs to an account.
// Unknown addresses are not reported.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	user, ok, err := s.findByEmail(ctx, email)
	if err != nil || !ok {
		return err
	}
	s.sendActionLink(ctx, user, auth.PurposeResetPassword)
	return nil
}

// CheckResetToken reports whether a reset link is still usable without consuming it.
func (s *AccountService) CheckResetToken(ctx context.Context, tok auth.ActionToken) error {
	userID, err := s.tokens.RedeemActionToken(tok, auth.PurposeResetPassword)
	if err != nil {
		return err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return translate(err, "load user", "invalid link")
	}
	return nil
}

// ResetPassword redeems a reset link, sets the new password and ends the current session.
func (s *AccountService) ResetPassword(ctx context.Context, tok auth.ActionToken, newPassword string) error {
	userID, err := s.tokens.RedeemActionToken(tok, auth.PurposeResetPassword)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return translate(s.users.UpdatePassword(ctx, userID, hash, true), "reset password", "invalid link")
}

// AddToWatchHistory appends videoID to the user's history.
func (s *AccountService) AddToWatchHistory(ctx context.Context, userID, videoID string) error {
	err := s.users.AppendWatchHistory(ctx, uuid.NewString(), userID, videoID, s.now.now())
	return translate(err, "append watch history", "video not found")
}

// RemoveFromWatchHistory drops every history entry for videoID.
func (s *AccountService) RemoveFromWatchHistory(ctx context.Context, userID, videoID string) error {
	return translate(s.users.RemoveWatchHistory(ctx, userID, videoID), "remove watch history", "video not in watch history")
}

func (s *AccountService) findByEmail(ctx context.Context, email string) (models.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return models.User{}, false, apperr.BadRequest("email is required")
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, false, nil
		}
		return models.User{}, false, apperr.Internal("load user", err)
	}
	return user, true, nil
}

// sendActionLink emails a verification or reset link. Failures are logged, never returned.
func (s *AccountService) sendActionLink(ctx context.Context, user models.User, purpose auth.Purpose) {
	logger := logging.FromContext(ctx)
	if s.mailer == nil {
		logger.Warn("mailer not configured, link not sent", slog.String("purpose", string(purpose)))
		return
	}

	tok, err := s.tokens.IssueActionToken(user.ID, purpose)
	if err != nil {
		logger.Error("issue action token", slog.String("purpose", string(purpose)), slog.String("error", err.Error()))
		return
	}

	var msg mail.Message
	switch purpose {
	case auth.PurposeResetPassword:
		msg = mail.PasswordResetMessage(user.Email, s.baseURL+"/api/v1/users/reset-password/"+tok.IV+"/"+tok.Token)
	default:
		msg = mail.VerificationMessage(user.Email, s.baseURL+"/api/v1/users/verify/"+tok.IV+"/"+tok.Token)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		logger.Warn("send mail", slog.String("purpose", string(purpose)), slog.String("error", err.Error()))
	}
}
