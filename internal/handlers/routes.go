package handlers

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vidtube/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Accounts      AccountService
	Channels      ChannelViews
	Videos        VideoService
	Comments      CommentService
	Likes         LikeService
	Subscriptions SubscriptionService
	Playlists     PlaylistService
	Tweets        TweetService
	Dashboard     DashboardService

	Verifier    middleware.AccessVerifier
	AuthLimiter middleware.RateLimiter
	DB          Pinger

	TrustedProxies []netip.Prefix

	Uploads      Uploads
	CookieSecure bool
	CORSOrigin   string
	Logger       *slog.Logger
}

// NewRouter wires every endpoint and the shared middleware chain.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	users := UserHandler{Accounts: deps.Accounts, Channels: deps.Channels, Uploads: deps.Uploads, CookieSecure: deps.CookieSecure}
	videos := VideoHandler{Videos: deps.Videos, Uploads: deps.Uploads}
	comments := CommentHandler{Comments: deps.Comments}
	likes := LikeHandler{Likes: deps.Likes}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions}
	playlists := PlaylistHandler{Playlists: deps.Playlists}
	tweets := TweetHandler{Tweets: deps.Tweets}
	dashboard := DashboardHandler{Dashboard: deps.Dashboard}
	health := HealthHandler{DB: deps.DB}

	requireAuth := middleware.Authenticate(deps.Verifier)
	limit := func(scope string) func(http.Handler) http.Handler {
		return middleware.RateLimit(deps.AuthLimiter, scope)
	}

	r := chi.NewRouter()
	r.Use(middleware.TrustProxies(deps.TrustedProxies))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(deps.CORSOrigin))
	r.Use(middleware.Metrics)

	r.Get("/healthz", health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.With(limit("register")).Post("/register", users.Register)
			r.With(limit("login")).Post("/login", users.Login)
			r.Post("/refresh-token", users.Refresh)
			r.Get("/verify/{iv}/{token}", users.Verify)
			r.With(limit("verification")).Post("/verification", users.ResendVerification)
			r.With(limit("forgot-password")).Post("/forgot-password", users.ForgotPassword)
			r.Get("/reset-password/{iv}/{token}", users.ValidateResetLink)
			r.Post("/reset-password/{iv}/{token}", users.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", users.Logout)
				r.Post("/change-password", users.ChangePassword)
				r.Get("/current-user", users.CurrentUser)
				r.Patch("/update-profile", users.UpdateProfile)
				r.Get("/c/{username}", users.ChannelProfile)
				r.Get("/watch-history", users.WatchHistory)
			})
		})

		r.Route("/videos", func(r chi.Router) {
			r.Get("/all-video", videos.ListPublished)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/", videos.ListOwn)
				r.Post("/", videos.Publish)
				r.Get("/v/{videoId}", videos.Get)
				r.Patch("/update-video/{videoId}", videos.Update)
				r.Delete("/delete-video/{videoId}", videos.Delete)
				r.Post("/toggle-video/{videoId}", videos.TogglePublish)
				r.Post("/history/{videoId}", users.AddToHistory)
				r.Delete("/history/{videoId}", users.RemoveFromHistory)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/{videoId}", comments.List)
			r.Post("/{videoId}", comments.Add)
			r.Patch("/c/{commentId}", comments.Update)
			r.Delete("/c/{commentId}", comments.Delete)
		})

		r.Route("/likes", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/toggle/v/{videoId}", likes.ToggleVideo)
			r.Post("/toggle/c/{commentId}", likes.ToggleComment)
			r.Post("/toggle/t/{tweetId}", likes.ToggleTweet)
			r.Get("/videos", likes.LikedVideos)
			r.Get("/tweets", likes.LikedTweets)
			r.Get("/count/v/{videoId}", likes.VideoLikeCount)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/c/{channelId}", subscriptions.Toggle)
			r.Get("/c/{channelId}", subscriptions.Channels)
			r.Get("/u/{channelId}", subscriptions.Subscribers)
		})

		r.Route("/playlists", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", playlists.Create)
			r.Get("/user/{userId}", playlists.ListByUser)
			r.Patch("/add/{videoId}/{playlistId}", playlists.AddVideo)
			r.Patch("/remove/{videoId}/{playlistId}", playlists.RemoveVideo)
			r.Get("/{playlistId}", playlists.Get)
			r.Patch("/{playlistId}", playlists.Update)
			r.Delete("/{playlistId}", playlists.Delete)
		})

		r.Route("/tweets", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", tweets.Create)
			r.Get("/user/{userId}", tweets.ListByUser)
			r.Patch("/{tweetId}", tweets.Update)
			r.Delete("/{tweetId}", tweets.Delete)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/stats", dashboard.Stats)
			r.Get("/videos", dashboard.Videos)
		})
	})

	return r
}
