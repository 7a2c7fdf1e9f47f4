//go:build integration

package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidtube/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateFindAndUpdate(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice")

	dup := user
	dup.ID = uuid.NewString()
	dup.UserName = "alice-two"
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict when creating duplicate email, got %v", err)
	}

	fetched, err := repo.FindByLogin(ctx, "", "alice")
	if err != nil {
		t.Fatalf("find by login: %v", err)
	}
	if fetched.ID != user.ID || fetched.Password != user.Password || fetched.Verified {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}

	updated := fetched
	updated.FullName = "Alice Cooper"
	updated.Email = "cooper@example.com"
	updated.UpdatedAt = time.Now().UTC().Add(time.Minute)
	if err := repo.UpdateProfile(ctx, updated); err != nil {
		t.Fatalf("update profile: %v", err)
	}

	fetched, err = repo.FindByEmail(ctx, updated.Email)
	if err != nil {
		t.Fatalf("find by updated email: %v", err)
	}
	if fetched.FullName != "Alice Cooper" {
		t.Fatalf("expected updated fields to persist, got %+v", fetched)
	}

	if err := repo.SetRefreshToken(ctx, user.ID, "refresh-1"); err != nil {
		t.Fatalf("set refresh token: %v", err)
	}
	if err := repo.UpdatePassword(ctx, user.ID, "new-hash", true); err != nil {
		t.Fatalf("update password: %v", err)
	}
	if err := repo.MarkVerified(ctx, user.ID); err != nil {
		t.Fatalf("mark verified: %v", err)
	}

	fetched, err = repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if fetched.Password != "new-hash" || fetched.RefreshToken != "" || !fetched.Verified {
		t.Fatalf("expected password reset to clear the session, got %+v", fetched)
	}

	if err := repo.SetRefreshToken(ctx, uuid.NewString(), "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestPostgresVideoRepository_ListSearchAndSort(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, users, "owner")
	repo := NewPostgresVideoRepository(testPool)

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	titles := []string{"Go Concurrency", "Cooking pasta", "Advanced go generics"}
	for i, title := range titles {
		video := models.Video{
			ID:          uuid.NewString(),
			OwnerID:     owner.ID,
			Title:       title,
			Description: "episode",
			VideoFile:   "https://cdn.example.com/v.mp4",
			Thumbnail:   "https://cdn.example.com/t.png",
			Duration:    float64(60 * (i + 1)),
			IsPublished: i != 1,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, video); err != nil {
			t.Fatalf("create video: %v", err)
		}
	}

	found, err := repo.List(ctx, models.VideoFilter{Query: "GO", PublishedOnly: true, SortBy: "createdAt", SortDesc: true, Limit: 10})
	if err != nil {
		t.Fatalf("list videos: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 matching videos, got %d", len(found))
	}
	if found[0].Title != "Advanced go generics" || found[1].Title != "Go Concurrency" {
		t.Fatalf("unexpected ordering: %q, %q", found[0].Title, found[1].Title)
	}
	if found[0].Owner == nil || found[0].Owner.UserName != "owner" {
		t.Fatalf("expected owner summary, got %+v", found[0].Owner)
	}

	published, err := repo.TogglePublished(ctx, found[0].ID)
	if err != nil {
		t.Fatalf("toggle publish: %v", err)
	}
	if published {
		t.Fatal("expected toggle to unpublish video")
	}
}

func TestPostgresEngagement_TogglesAndStats(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	channel := createTestUser(t, users, "channel")
	viewer := createTestUser(t, users, "viewer")
	other := createTestUser(t, users, "other")

	videos := NewPostgresVideoRepository(testPool)
	video := models.Video{
		ID: uuid.NewString(), OwnerID: channel.ID, Title: "t", Description: "d",
		VideoFile: "f", Thumbnail: "th", Views: 7, IsPublished: true,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	if err := videos.Create(ctx, video); err != nil {
		t.Fatalf("create video: %v", err)
	}

	likes := NewPostgresLikeRepository(testPool)
	for i, want := range []bool{true, false, true} {
		liked, err := likes.Toggle(ctx, models.LikeTargetVideo, video.ID, viewer.ID)
		if err != nil {
			t.Fatalf("toggle like %d: %v", i, err)
		}
		if liked != want {
			t.Fatalf("toggle %d: expected liked=%v, got %v", i, want, liked)
		}
	}

	subs := NewPostgresSubscriptionRepository(testPool)
	for _, subscriber := range []models.User{viewer, other} {
		if _, err := subs.Toggle(ctx, subscriber.ID, channel.ID); err != nil {
			t.Fatalf("subscribe: %v", err)
		}
	}

	views := NewPostgresViewRepository(testPool)
	profile, err := views.ChannelProfile(ctx, "channel", viewer.ID)
	if err != nil {
		t.Fatalf("channel profile: %v", err)
	}
	if profile.SubscribersCount != 2 || profile.ChannelsSubscribedToCount != 0 || !profile.IsSubscribed {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	anonymous, err := views.ChannelProfile(ctx, "channel", "")
	if err != nil {
		t.Fatalf("anonymous channel profile: %v", err)
	}
	if anonymous.IsSubscribed {
		t.Fatal("anonymous viewer must not be subscribed")
	}

	count, views7, found, err := views.VideoTotals(ctx, channel.ID)
	if err != nil || !found || count != 1 || views7 != 7 {
		t.Fatalf("unexpected video totals: %d %d %v %v", count, views7, found, err)
	}
	likeTotal, _, err := views.LikeTotal(ctx, channel.ID)
	if err != nil || likeTotal != 1 {
		t.Fatalf("unexpected like total: %d %v", likeTotal, err)
	}
	if _, found, err := views.VideoTotals(ctx, viewer.ID); err != nil || found {
		t.Fatalf("expected no video totals for viewer, got found=%v err=%v", found, err)
	}

	if err := users.AppendWatchHistory(ctx, uuid.NewString(), viewer.ID, video.ID, time.Now().UTC()); err != nil {
		t.Fatalf("append watch history: %v", err)
	}
	history, err := views.WatchHistory(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(history) != 1 || history[0].Owner.UserName != "channel" {
		t.Fatalf("unexpected watch history: %+v", history)
	}
}

func TestPostgresPlaylistRepository_Membership(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, users, "curator")

	videos := NewPostgresVideoRepository(testPool)
	video := models.Video{
		ID: uuid.NewString(), OwnerID: owner.ID, Title: "t", Description: "d",
		VideoFile: "f", Thumbnail: "th", CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	if err := videos.Create(ctx, video); err != nil {
		t.Fatalf("create video: %v", err)
	}

	repo := NewPostgresPlaylistRepository(testPool)
	playlist := models.Playlist{ID: uuid.NewString(), OwnerID: owner.ID, Name: "favs", CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, playlist); err != nil {
		t.Fatalf("create playlist: %v", err)
	}
	if err := repo.AddVideo(ctx, playlist.ID, video.ID); err != nil {
		t.Fatalf("add video: %v", err)
	}
	if err := repo.AddVideo(ctx, playlist.ID, video.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate add, got %v", err)
	}

	lists, err := repo.ListByOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list playlists: %v", err)
	}
	if len(lists) != 1 || len(lists[0].Videos) != 1 {
		t.Fatalf("unexpected playlists: %+v", lists)
	}

	if err := repo.RemoveVideo(ctx, playlist.ID, video.ID); err != nil {
		t.Fatalf("remove video: %v", err)
	}
	if err := repo.RemoveVideo(ctx, playlist.ID, video.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second remove, got %v", err)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE playlist_videos, playlists, likes, subscriptions, tweets, comments, watch_history, videos, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, username string) models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.NewString(),
		UserName:  username,
		Email:     username + "@example.com",
		FullName:  username,
		Avatar:    "https://cdn.example.com/" + username + ".png",
		Password:  "password-hash",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}
