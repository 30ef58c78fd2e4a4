package main

import (
	"log"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-ticket-booking/internal/catalog"
	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/database"
	"github.com/iliyamo/movie-ticket-booking/internal/handler"
	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
	"github.com/iliyamo/movie-ticket-booking/internal/payment"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
	"github.com/iliyamo/movie-ticket-booking/internal/router"
	"github.com/iliyamo/movie-ticket-booking/internal/scheduler"
	"github.com/iliyamo/movie-ticket-booking/internal/service"
)

func main() {
	cfg := config.Load()
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("app", "server").Logger()

	store, err := database.Open(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}

	movieRepo := repository.NewMovieRepo(store.Collection(database.MoviesCollection))
	showRepo := repository.NewShowRepo(store.Collection(database.ShowsCollection))
	bookingRepo := repository.NewBookingRepo(store.Collection(database.BookingsCollection))
	userRepo := repository.NewUserRepo(store.Collection(database.UsersCollection))

	// Redis is optional: without it the cache and rate limiter become
	// pass-throughs and the API keeps serving.
	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn().Msg("redis unavailable; response cache and rate limiting disabled")
	}
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	rateMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	payments := payment.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	tmdb := catalog.NewTMDBClient(cfg.TMDBBaseURL, cfg.TMDBKey)
	events := scheduler.NewRabbitPublisher(cfg.RabbitURL)
	reconciler := service.NewReconciler(bookingRepo, payments, logger)

	identityWebhook, err := handler.NewIdentityWebhookHandler(cfg.IdentityWebhookSecret, userRepo, logger)
	if err != nil {
		log.Fatalf("identity webhook secret: %v", err)
	}

	handlers := router.Handlers{
		Bookings: &handler.BookingHandler{
			Shows: showRepo, Movies: movieRepo, Bookings: bookingRepo,
			Payments: payments, Events: events, Reconciler: reconciler,
			ClientOrigin: cfg.ClientOrigin, Log: logger,
		},
		Shows: &handler.ShowHandler{
			Catalog: tmdb, Movies: movieRepo, Shows: showRepo, Events: events, Log: logger,
		},
		Admin: &handler.AdminHandler{
			Bookings: bookingRepo, Shows: showRepo, Movies: movieRepo, Users: userRepo, Log: logger,
		},
		Users: &handler.UserHandler{
			Bookings: bookingRepo, Shows: showRepo, Movies: movieRepo, Users: userRepo, Log: logger,
		},
		PaymentWebhook: &handler.PaymentWebhookHandler{
			Payments: payments, Bookings: bookingRepo, Events: events, Log: logger,
		},
		IdentityWebhook: identityWebhook,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLogger(logger))
	router.Register(e, handlers, cfg.JWTSecret, cfg.AdminEmail, cacheMW, rateMW)

	addr := ":" + cfg.Port
	logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
