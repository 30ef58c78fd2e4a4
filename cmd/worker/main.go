// The worker processes deferred tasks emitted by the API server: delayed
// payment re-checks, booking confirmation email and new-show notifications.
// It shares the server's configuration and store but runs as a separate
// process so a mail or broker stall never slows request handling.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/database"
	"github.com/iliyamo/movie-ticket-booking/internal/mailer"
	"github.com/iliyamo/movie-ticket-booking/internal/payment"
	"github.com/iliyamo/movie-ticket-booking/internal/queue"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
	"github.com/iliyamo/movie-ticket-booking/internal/service"
)

func main() {
	cfg := config.Load()
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("app", "worker").Logger()

	store, err := database.Open(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}

	bookingRepo := repository.NewBookingRepo(store.Collection(database.BookingsCollection))
	showRepo := repository.NewShowRepo(store.Collection(database.ShowsCollection))
	movieRepo := repository.NewMovieRepo(store.Collection(database.MoviesCollection))
	userRepo := repository.NewUserRepo(store.Collection(database.UsersCollection))

	payments := payment.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	reconciler := service.NewReconciler(bookingRepo, payments, logger)
	mail := mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)

	consumer := queue.NewConsumer(cfg.RabbitURL, reconciler, queue.Stores{
		Bookings: bookingRepo,
		Shows:    showRepo,
		Movies:   movieRepo,
		Users:    userRepo,
	}, mail, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Msg("worker started")
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
	logger.Info().Msg("worker stopped")
}
