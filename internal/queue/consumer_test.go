package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/payment"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
	"github.com/iliyamo/movie-ticket-booking/internal/scheduler"
	"github.com/iliyamo/movie-ticket-booking/internal/service"
)

type memBookings struct {
	byID map[primitive.ObjectID]*model.Booking
}

func (m *memBookings) GetByID(_ context.Context, id primitive.ObjectID) (*model.Booking, error) {
	b, found := m.byID[id]
	if !found {
		return nil, repository.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *memBookings) MarkPaid(_ context.Context, id primitive.ObjectID) error {
	b, found := m.byID[id]
	if !found {
		return repository.ErrBookingNotFound
	}
	if !b.IsPaid {
		b.IsPaid = true
		b.SessionID = nil
		b.PaymentLink = nil
	}
	return nil
}

func (m *memBookings) ClearPaymentSession(_ context.Context, id primitive.ObjectID) error {
	b, found := m.byID[id]
	if !found {
		return repository.ErrBookingNotFound
	}
	b.SessionID = nil
	b.PaymentLink = nil
	return nil
}

type memShows struct {
	byID map[primitive.ObjectID]*model.Show
}

func (m *memShows) GetByID(_ context.Context, id primitive.ObjectID) (*model.Show, error) {
	s, found := m.byID[id]
	if !found {
		return nil, repository.ErrShowNotFound
	}
	return s, nil
}

type memMovies struct {
	byID map[string]*model.Movie
}

func (m *memMovies) GetByID(_ context.Context, id string) (*model.Movie, error) {
	mv, found := m.byID[id]
	if !found {
		return nil, repository.ErrMovieNotFound
	}
	return mv, nil
}

type memUsers struct {
	byID map[string]*model.User
}

func (m *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	u, found := m.byID[id]
	if !found {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) ListAll(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range m.byID {
		out = append(out, *u)
	}
	return out, nil
}

type memPayments struct {
	sessions map[string]*payment.Session
}

func (m *memPayments) CreateSession(context.Context, payment.SessionRequest) (*payment.Session, error) {
	panic("not used")
}

func (m *memPayments) GetSession(_ context.Context, id string) (*payment.Session, error) {
	s, found := m.sessions[id]
	if !found {
		return nil, payment.ErrSessionNotFound
	}
	return s, nil
}

func (m *memPayments) VerifyWebhook([]byte, string) (*payment.WebhookEvent, error) {
	panic("not used")
}

type memMailer struct {
	sent []sentMail
	fail map[string]error
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *memMailer) Send(to, subject, body string) error {
	if err := m.fail[to]; err != nil {
		return err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type consumerFixture struct {
	consumer *Consumer
	bookings *memBookings
	shows    *memShows
	movies   *memMovies
	users    *memUsers
	payments *memPayments
	mail     *memMailer
}

func newConsumerFixture() *consumerFixture {
	bookings := &memBookings{byID: map[primitive.ObjectID]*model.Booking{}}
	shows := &memShows{byID: map[primitive.ObjectID]*model.Show{}}
	movies := &memMovies{byID: map[string]*model.Movie{}}
	users := &memUsers{byID: map[string]*model.User{}}
	payments := &memPayments{sessions: map[string]*payment.Session{}}
	mail := &memMailer{fail: map[string]error{}}

	reconciler := service.NewReconciler(bookings, payments, zerolog.Nop())
	consumer := NewConsumer("amqp://unused", reconciler, Stores{
		Bookings: bookings,
		Shows:    shows,
		Movies:   movies,
		Users:    users,
	}, mail, zerolog.Nop())

	return &consumerFixture{
		consumer: consumer, bookings: bookings, shows: shows,
		movies: movies, users: users, payments: payments, mail: mail,
	}
}

func taskBody(t *testing.T, task scheduler.Task) []byte {
	t.Helper()
	body, err := json.Marshal(task)
	require.NoError(t, err)
	return body
}

func TestHandleDeliveryPaymentRecheck(t *testing.T) {
	f := newConsumerFixture()

	sessionID := "cs_test_1"
	link := "https://checkout.example.com/1"
	id := primitive.NewObjectID()
	f.bookings.byID[id] = &model.Booking{ID: id, UserID: "u1", SessionID: &sessionID, PaymentLink: &link}
	f.payments.sessions[sessionID] = &payment.Session{ID: sessionID, Status: payment.StatusComplete, Paid: true}

	body := taskBody(t, scheduler.Task{Type: scheduler.TaskPaymentRecheck, BookingID: id.Hex()})
	require.NoError(t, f.consumer.handleDelivery(context.Background(), body))

	assert.True(t, f.bookings.byID[id].IsPaid)
	assert.Nil(t, f.bookings.byID[id].SessionID)
}

func TestHandleDeliveryRecheckMissingBooking(t *testing.T) {
	f := newConsumerFixture()

	// The booking was deleted between scheduling and the re-check; the task
	// is acked, not retried.
	body := taskBody(t, scheduler.Task{Type: scheduler.TaskPaymentRecheck, BookingID: primitive.NewObjectID().Hex()})
	assert.NoError(t, f.consumer.handleDelivery(context.Background(), body))
}

func TestHandleDeliveryConfirmationEmail(t *testing.T) {
	f := newConsumerFixture()

	showID := primitive.NewObjectID()
	f.movies.byID["603"] = &model.Movie{ID: "603", Title: "The Matrix"}
	f.shows.byID[showID] = &model.Show{
		ID: showID, MovieID: "603",
		ShowDateTime: time.Date(2026, 9, 10, 18, 0, 0, 0, time.UTC),
	}
	f.users.byID["u1"] = &model.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}

	id := primitive.NewObjectID()
	f.bookings.byID[id] = &model.Booking{
		ID: id, UserID: "u1", ShowID: showID,
		BookedSeats: []string{"A1", "A2"}, Amount: 20, IsPaid: true,
	}

	body := taskBody(t, scheduler.Task{Type: scheduler.TaskBookingConfirmed, BookingID: id.Hex()})
	require.NoError(t, f.consumer.handleDelivery(context.Background(), body))

	require.Len(t, f.mail.sent, 1)
	mail := f.mail.sent[0]
	assert.Equal(t, "ada@example.com", mail.to)
	assert.Contains(t, mail.subject, "The Matrix")
	assert.Contains(t, mail.body, "A1, A2")
	assert.Contains(t, mail.body, "2026-09-10")
}

func TestHandleDeliveryConfirmationSkipsUnpaid(t *testing.T) {
	f := newConsumerFixture()

	id := primitive.NewObjectID()
	f.bookings.byID[id] = &model.Booking{ID: id, UserID: "u1", IsPaid: false}

	body := taskBody(t, scheduler.Task{Type: scheduler.TaskBookingConfirmed, BookingID: id.Hex()})
	require.NoError(t, f.consumer.handleDelivery(context.Background(), body))
	assert.Empty(t, f.mail.sent)
}

func TestHandleDeliveryShowAddedFansOut(t *testing.T) {
	f := newConsumerFixture()

	f.users.byID["u1"] = &model.User{ID: "u1", Email: "u1@example.com"}
	f.users.byID["u2"] = &model.User{ID: "u2", Email: "u2@example.com"}
	f.users.byID["u3"] = &model.User{ID: "u3"} // never synced an address
	f.mail.fail["u2@example.com"] = errors.New("mailbox full")

	body := taskBody(t, scheduler.Task{Type: scheduler.TaskShowAdded, MovieTitle: "Inception"})
	require.NoError(t, f.consumer.handleDelivery(context.Background(), body))

	// One failed address does not stop the fan-out.
	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "u1@example.com", f.mail.sent[0].to)
	assert.Contains(t, f.mail.sent[0].subject, "Inception")
}

func TestHandleDeliveryUnknownTaskAcked(t *testing.T) {
	f := newConsumerFixture()

	body := taskBody(t, scheduler.Task{Type: "task.from.the.future"})
	assert.NoError(t, f.consumer.handleDelivery(context.Background(), body))
}

func TestHandleDeliveryMalformedBody(t *testing.T) {
	f := newConsumerFixture()
	assert.Error(t, f.consumer.handleDelivery(context.Background(), []byte("not json")))
}
