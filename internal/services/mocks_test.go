package services

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/mail"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Create(ctx context.Context, user models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUsers) FindByID(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUsers) FindByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUsers) FindByLogin(ctx context.Context, email, username string) (models.User, error) {
	args := m.Called(ctx, email, username)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUsers) UpdateProfile(ctx context.Context, user models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUsers) UpdatePassword(ctx context.Context, id, passwordHash string, clearSession bool) error {
	return m.Called(ctx, id, passwordHash, clearSession).Error(0)
}

func (m *mockUsers) MarkVerified(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUsers) AppendWatchHistory(ctx context.Context, id, userID, videoID string, at time.Time) error {
	return m.Called(ctx, id, userID, videoID, at).Error(0)
}

func (m *mockUsers) RemoveWatchHistory(ctx context.Context, userID, videoID string) error {
	return m.Called(ctx, userID, videoID).Error(0)
}

type mockTokens struct{ mock.Mock }

func (m *mockTokens) IssueTokenPair(ctx context.Context, user models.User) (models.SessionTokens, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(models.SessionTokens), args.Error(1)
}

func (m *mockTokens) Rotate(ctx context.Context, old string) (models.SessionTokens, error) {
	args := m.Called(ctx, old)
	return args.Get(0).(models.SessionTokens), args.Error(1)
}

func (m *mockTokens) Revoke(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockTokens) IssueActionToken(userID string, purpose auth.Purpose) (auth.ActionToken, error) {
	args := m.Called(userID, purpose)
	return args.Get(0).(auth.ActionToken), args.Error(1)
}

func (m *mockTokens) RedeemActionToken(tok auth.ActionToken, purpose auth.Purpose) (string, error) {
	args := m.Called(tok, purpose)
	return args.String(0), args.Error(1)
}

type mockMedia struct{ mock.Mock }

func (m *mockMedia) Store(ctx context.Context, localPath, folder string) (media.Asset, error) {
	args := m.Called(ctx, localPath, folder)
	return args.Get(0).(media.Asset), args.Error(1)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (r *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

type mockVideos struct{ mock.Mock }

func (m *mockVideos) Create(ctx context.Context, video models.Video) error {
	return m.Called(ctx, video).Error(0)
}

func (m *mockVideos) FindByID(ctx context.Context, id string) (models.Video, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Video), args.Error(1)
}

func (m *mockVideos) Update(ctx context.Context, video models.Video) error {
	return m.Called(ctx, video).Error(0)
}

func (m *mockVideos) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockVideos) TogglePublished(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockVideos) IncrementViews(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockVideos) List(ctx context.Context, filter models.VideoFilter) ([]models.Video, error) {
	args := m.Called(ctx, filter)
	videos, _ := args.Get(0).([]models.Video)
	return videos, args.Error(1)
}

type mockComments struct{ mock.Mock }

func (m *mockComments) Create(ctx context.Context, comment models.Comment) error {
	return m.Called(ctx, comment).Error(0)
}

func (m *mockComments) FindByID(ctx context.Context, id string) (models.Comment, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Comment), args.Error(1)
}

func (m *mockComments) Update(ctx context.Context, comment models.Comment) error {
	return m.Called(ctx, comment).Error(0)
}

func (m *mockComments) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockComments) ListByVideo(ctx context.Context, videoID string, limit, offset int) ([]models.Comment, error) {
	args := m.Called(ctx, videoID, limit, offset)
	comments, _ := args.Get(0).([]models.Comment)
	return comments, args.Error(1)
}

type mockTweets struct{ mock.Mock }

func (m *mockTweets) Create(ctx context.Context, tweet models.Tweet) error {
	return m.Called(ctx, tweet).Error(0)
}

func (m *mockTweets) FindByID(ctx context.Context, id string) (models.Tweet, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Tweet), args.Error(1)
}

func (m *mockTweets) Update(ctx context.Context, tweet models.Tweet) error {
	return m.Called(ctx, tweet).Error(0)
}

func (m *mockTweets) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockTweets) ListByOwner(ctx context.Context, ownerID string) ([]models.Tweet, error) {
	args := m.Called(ctx, ownerID)
	tweets, _ := args.Get(0).([]models.Tweet)
	return tweets, args.Error(1)
}

type mockLikes struct{ mock.Mock }

func (m *mockLikes) Toggle(ctx context.Context, target models.LikeTarget, targetID, userID string) (bool, error) {
	args := m.Called(ctx, target, targetID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockLikes) CountForVideo(ctx context.Context, videoID string) (int64, error) {
	args := m.Called(ctx, videoID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLikes) LikedVideos(ctx context.Context, userID string) ([]models.Video, error) {
	args := m.Called(ctx, userID)
	videos, _ := args.Get(0).([]models.Video)
	return videos, args.Error(1)
}

func (m *mockLikes) LikedTweets(ctx context.Context, userID string) ([]models.Tweet, error) {
	args := m.Called(ctx, userID)
	tweets, _ := args.Get(0).([]models.Tweet)
	return tweets, args.Error(1)
}

type mockSubscriptions struct{ mock.Mock }

func (m *mockSubscriptions) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	args := m.Called(ctx, subscriberID, channelID)
	return args.Bool(0), args.Error(1)
}

func (m *mockSubscriptions) ListSubscribers(ctx context.Context, channelID string) ([]models.OwnerSummary, error) {
	args := m.Called(ctx, channelID)
	users, _ := args.Get(0).([]models.OwnerSummary)
	return users, args.Error(1)
}

func (m *mockSubscriptions) ListChannels(ctx context.Context, subscriberID string) ([]models.OwnerSummary, error) {
	args := m.Called(ctx, subscriberID)
	users, _ := args.Get(0).([]models.OwnerSummary)
	return users, args.Error(1)
}

type mockPlaylists struct{ mock.Mock }

func (m *mockPlaylists) Create(ctx context.Context, playlist models.Playlist) error {
	return m.Called(ctx, playlist).Error(0)
}

func (m *mockPlaylists) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Playlist), args.Error(1)
}

func (m *mockPlaylists) Update(ctx context.Context, playlist models.Playlist) error {
	return m.Called(ctx, playlist).Error(0)
}

func (m *mockPlaylists) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockPlaylists) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	args := m.Called(ctx, ownerID)
	playlists, _ := args.Get(0).([]models.Playlist)
	return playlists, args.Error(1)
}

func (m *mockPlaylists) AddVideo(ctx context.Context, playlistID, videoID string) error {
	return m.Called(ctx, playlistID, videoID).Error(0)
}

func (m *mockPlaylists) RemoveVideo(ctx context.Context, playlistID, videoID string) error {
	return m.Called(ctx, playlistID, videoID).Error(0)
}
