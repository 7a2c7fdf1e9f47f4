package views

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	args := m.Called(ctx, username, viewerID)
	return args.Get(0).(models.ChannelProfile), args.Error(1)
}

func (m *mockStore) WatchHistory(ctx context.Context, userID string) ([]models.Video, error) {
	args := m.Called(ctx, userID)
	videos, _ := args.Get(0).([]models.Video)
	return videos, args.Error(1)
}

func (m *mockStore) VideoTotals(ctx context.Context, ownerID string) (int64, int64, bool, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Bool(2), args.Error(3)
}

func (m *mockStore) SubscriberTotal(ctx context.Context, channelID string) (int64, bool, error) {
	args := m.Called(ctx, channelID)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *mockStore) LikeTotal(ctx context.Context, ownerID string) (int64, bool, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func TestChannelProfileNormalizesUsername(t *testing.T) {
	store := new(mockStore)
	store.On("ChannelProfile", mock.Anything, "alice", "viewer").
		Return(models.ChannelProfile{UserName: "alice", SubscribersCount: 3, ChannelsSubscribedToCount: 2, IsSubscribed: true}, nil)

	profile, err := NewAggregator(store).ChannelProfile(context.Background(), "  Alice ", "viewer")
	require.NoError(t, err)
	assert.Equal(t, int64(3), profile.SubscribersCount)
	assert.Equal(t, int64(2), profile.ChannelsSubscribedToCount)
	assert.True(t, profile.IsSubscribed)
	store.AssertExpectations(t)
}

func TestChannelProfileErrors(t *testing.T) {
	store := new(mockStore)
	store.On("ChannelProfile", mock.Anything, "ghost", "").Return(models.ChannelProfile{}, repositories.ErrNotFound)
	store.On("ChannelProfile", mock.Anything, "broken", "").Return(models.ChannelProfile{}, errors.New("boom"))
	agg := NewAggregator(store)

	_, err := agg.ChannelProfile(context.Background(), "   ", "")
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	_, err = agg.ChannelProfile(context.Background(), "ghost", "")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = agg.ChannelProfile(context.Background(), "broken", "")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestWatchHistory(t *testing.T) {
	store := new(mockStore)
	store.On("WatchHistory", mock.Anything, "u1").Return([]models.Video{
		{ID: "v1", Owner: &models.OwnerSummary{UserName: "bob"}},
	}, nil)

	history, err := NewAggregator(store).WatchHistory(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "bob", history[0].Owner.UserName)
}

func TestChannelStatsCombinesTotals(t *testing.T) {
	store := new(mockStore)
	store.On("VideoTotals", mock.Anything, "u1").Return(int64(4), int64(120), true, nil)
	store.On("SubscriberTotal", mock.Anything, "u1").Return(int64(7), true, nil)
	store.On("LikeTotal", mock.Anything, "u1").Return(int64(9), true, nil)

	stats, err := NewAggregator(store).ChannelStats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.ChannelStats{TotalVideos: 4, TotalViews: 120, TotalSubscribers: 7, TotalLikes: 9}, stats)
	store.AssertExpectations(t)
}

func TestChannelStatsDefaultsToZeroWithoutRows(t *testing.T) {
	store := new(mockStore)
	store.On("VideoTotals", mock.Anything, "u1").Return(int64(0), int64(0), false, nil)
	store.On("SubscriberTotal", mock.Anything, "u1").Return(int64(0), false, nil)
	store.On("LikeTotal", mock.Anything, "u1").Return(int64(0), false, nil)

	stats, err := NewAggregator(store).ChannelStats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.ChannelStats{}, stats)
}

func TestChannelStatsFailsWhenAnyAggregationFails(t *testing.T) {
	store := new(mockStore)
	store.On("VideoTotals", mock.Anything, "u1").Return(int64(1), int64(1), true, nil)
	store.On("SubscriberTotal", mock.Anything, "u1").Return(int64(0), false, errors.New("timeout"))
	store.On("LikeTotal", mock.Anything, "u1").Return(int64(0), false, nil)

	_, err := NewAggregator(store).ChannelStats(context.Background(), "u1")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

type countingStats struct {
	stats models.ChannelStats
	err   error
	calls int
}

func (c *countingStats) ChannelStats(context.Context, string) (models.ChannelStats, error) {
	c.calls++
	return c.stats, c.err
}

func TestCachingStatsMemory(t *testing.T) {
	base := &countingStats{stats: models.ChannelStats{TotalVideos: 2}}
	cache := NewMemoryCache()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	stats := NewCachingStats(base, cache, time.Minute)

	for i := 0; i < 2; i++ {
		got, err := stats.ChannelStats(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.TotalVideos)
	}
	assert.Equal(t, 1, base.calls)

	now = now.Add(2 * time.Minute)
	_, err := stats.ChannelStats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, base.calls, "expected cache miss after expiry")
}

func TestCachingStatsDoesNotCacheErrors(t *testing.T) {
	base := &countingStats{err: errors.New("db down")}
	stats := NewCachingStats(base, NewMemoryCache(), time.Minute)

	_, err := stats.ChannelStats(context.Background(), "u1")
	require.Error(t, err)
	_, err = stats.ChannelStats(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, 2, base.calls)
}

func TestCachingStatsRedis(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	base := &countingStats{stats: models.ChannelStats{TotalSubscribers: 5}}
	stats := NewCachingStats(base, NewRedisCache(client), 30*time.Second)

	got, err := stats.ChannelStats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.TotalSubscribers)
	assert.True(t, server.Exists("vidtube:stats:u1"))

	got, err = stats.ChannelStats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.TotalSubscribers)
	assert.Equal(t, 1, base.calls)

	server.FastForward(time.Minute)
	_, err = stats.ChannelStats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, base.calls)
}

func TestCachingStatsRedisUnavailableFallsThrough(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	server.Close()

	base := &countingStats{stats: models.ChannelStats{TotalLikes: 1}}
	got, err := NewCachingStats(base, NewRedisCache(client), time.Minute).ChannelStats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.TotalLikes)
}
