// Package queue contains the background consumer that processes deferred
// tasks emitted by the API server: delayed payment re-checks, booking
// confirmation email and new-show notifications.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/movie-ticket-booking/internal/mailer"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
	"github.com/iliyamo/movie-ticket-booking/internal/scheduler"
	"github.com/iliyamo/movie-ticket-booking/internal/service"
)

// Stores is the read access the consumer needs to assemble notification
// content.  The interfaces are satisfied by the Mongo repositories and by
// fakes in tests.
type Stores struct {
	Bookings interface {
		GetByID(ctx context.Context, id primitive.ObjectID) (*model.Booking, error)
	}
	Shows interface {
		GetByID(ctx context.Context, id primitive.ObjectID) (*model.Show, error)
	}
	Movies interface {
		GetByID(ctx context.Context, id string) (*model.Movie, error)
	}
	Users interface {
		GetByID(ctx context.Context, id string) (*model.User, error)
		ListAll(ctx context.Context) ([]model.User, error)
	}
}

// Consumer connects to the broker, declares the task queues and processes
// deliveries.  It runs a reconnect loop with exponential backoff and only
// stops when its context is cancelled; processing errors are logged and the
// offending message rejected without requeue to avoid tight loops.
type Consumer struct {
	url        string
	reconciler *service.Reconciler
	stores     Stores
	mail       mailer.Sender
	log        zerolog.Logger
}

// NewConsumer wires a consumer.
func NewConsumer(url string, reconciler *service.Reconciler, stores Stores, mail mailer.Sender, log zerolog.Logger) *Consumer {
	return &Consumer{url: url, reconciler: reconciler, stores: stores, mail: mail, log: log}
}

// Start runs the consume loop until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn().Err(err).Dur("retry_in", backoff).Msg("worker: broker dial failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := c.consumeLoop(ctx, conn); err != nil {
			c.log.Warn().Err(err).Msg("worker: consume loop ended, reconnecting")
		}
		_ = conn.Close()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		c.log.Warn().Err(err).Msg("worker: set QoS failed")
	}
	if err := scheduler.DeclareQueues(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(scheduler.TaskQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleDelivery(ctx, d.Body); err != nil {
				c.log.Error().Err(err).Msg("worker: task failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, body []byte) error {
	var task scheduler.Task
	if err := json.Unmarshal(body, &task); err != nil {
		return fmt.Errorf("unmarshal task: %w", err)
	}
	c.log.Info().Str("type", task.Type).Str("booking_id", task.BookingID).Msg("worker: task received")

	switch task.Type {
	case scheduler.TaskPaymentRecheck:
		return c.recheckPayment(ctx, task)
	case scheduler.TaskBookingConfirmed:
		return c.sendConfirmation(ctx, task)
	case scheduler.TaskShowAdded:
		return c.notifyShowAdded(ctx, task)
	default:
		// Unknown tasks are acked so a rolled-back deploy does not wedge
		// the queue.
		c.log.Warn().Str("type", task.Type).Msg("worker: unknown task type")
		return nil
	}
}

// recheckPayment runs the deferred polling half of payment reconciliation.
func (c *Consumer) recheckPayment(ctx context.Context, task scheduler.Task) error {
	id, err := primitive.ObjectIDFromHex(task.BookingID)
	if err != nil {
		return fmt.Errorf("bad booking id %q: %w", task.BookingID, err)
	}
	_, err = c.reconciler.Reconcile(ctx, id)
	if errors.Is(err, repository.ErrBookingNotFound) {
		// Booking removed since scheduling; nothing to converge.
		return nil
	}
	return err
}

// sendConfirmation emails the user their tickets for a paid booking.
func (c *Consumer) sendConfirmation(ctx context.Context, task scheduler.Task) error {
	id, err := primitive.ObjectIDFromHex(task.BookingID)
	if err != nil {
		return fmt.Errorf("bad booking id %q: %w", task.BookingID, err)
	}
	booking, err := c.stores.Bookings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !booking.IsPaid {
		c.log.Warn().Str("booking_id", task.BookingID).Msg("worker: confirmation requested for unpaid booking")
		return nil
	}
	show, err := c.stores.Shows.GetByID(ctx, booking.ShowID)
	if err != nil {
		return err
	}
	movie, err := c.stores.Movies.GetByID(ctx, show.MovieID)
	if err != nil {
		return err
	}
	user, err := c.stores.Users.GetByID(ctx, booking.UserID)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Payment confirmation: %q booked!", movie.Title)
	body := fmt.Sprintf(
		`<div><h2>Hi %s,</h2><p>Your booking for <strong>%s</strong> is confirmed.</p>`+
			`<p>Date: %s<br/>Time: %s<br/>Seats: %s</p><p>Enjoy the show!</p></div>`,
		user.Name, movie.Title,
		show.ShowDateTime.Format("2006-01-02"), show.ShowDateTime.Format("15:04"),
		seatList(booking.BookedSeats),
	)
	return c.mail.Send(user.Email, subject, body)
}

// notifyShowAdded fans a new-show announcement out to every synced user.
// Individual failures are logged and skipped so one bad address does not
// block the rest.
func (c *Consumer) notifyShowAdded(ctx context.Context, task scheduler.Task) error {
	users, err := c.stores.Users.ListAll(ctx)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("New show added: %s", task.MovieTitle)
	body := fmt.Sprintf(
		`<div><h2>New show on sale</h2><p><strong>%s</strong> is now available for booking. Grab your seats!</p></div>`,
		task.MovieTitle,
	)
	for _, u := range users {
		if u.Email == "" {
			continue
		}
		if err := c.mail.Send(u.Email, subject, body); err != nil {
			c.log.Warn().Err(err).Str("user_id", u.ID).Msg("worker: show notification failed")
		}
	}
	return nil
}

func seatList(seats []string) string {
	out := ""
	for i, s := range seats {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
