package handler

// In-memory doubles for the store and port interfaces, shared by the
// handler tests.  They record mutations so tests can assert on ordering
// and on the absence of writes.

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/payment"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
	"github.com/iliyamo/movie-ticket-booking/internal/scheduler"
)

type fakeShowStore struct {
	shows    map[primitive.ObjectID]*model.Show
	created  []model.Show
	released map[primitive.ObjectID][]string
	deletes  *[]string // shared reset-order recorder
}

func newFakeShowStore() *fakeShowStore {
	return &fakeShowStore{
		shows:    map[primitive.ObjectID]*model.Show{},
		released: map[primitive.ObjectID][]string{},
	}
}

func (f *fakeShowStore) CreateMany(_ context.Context, shows []model.Show) error {
	for _, s := range shows {
		s.ID = primitive.NewObjectID()
		f.created = append(f.created, s)
		copied := s
		f.shows[s.ID] = &copied
	}
	return nil
}

func (f *fakeShowStore) GetByID(_ context.Context, id primitive.ObjectID) (*model.Show, error) {
	s, found := f.shows[id]
	if !found {
		return nil, repository.ErrShowNotFound
	}
	return s, nil
}

func (f *fakeShowStore) ListByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*model.Show, error) {
	out := map[primitive.ObjectID]*model.Show{}
	for _, id := range ids {
		if s, found := f.shows[id]; found {
			out[id] = s
		}
	}
	return out, nil
}

func (f *fakeShowStore) ListUpcoming(_ context.Context) ([]model.Show, error) {
	var out []model.Show
	for _, s := range f.shows {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeShowStore) ListUpcomingByMovie(_ context.Context, movieID string) ([]model.Show, error) {
	var out []model.Show
	for _, s := range f.shows {
		if s.MovieID == movieID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeShowStore) ReserveSeats(_ context.Context, showID primitive.ObjectID, seats []string, userID string) error {
	s, found := f.shows[showID]
	if !found {
		return repository.ErrShowNotFound
	}
	for _, seat := range seats {
		if _, taken := s.OccupiedSeats[seat]; taken {
			return repository.ErrSeatsUnavailable
		}
	}
	for _, seat := range seats {
		s.OccupiedSeats[seat] = userID
	}
	return nil
}

func (f *fakeShowStore) ReleaseSeats(_ context.Context, showID primitive.ObjectID, seats []string) error {
	f.released[showID] = append(f.released[showID], seats...)
	if s, found := f.shows[showID]; found {
		for _, seat := range seats {
			delete(s.OccupiedSeats, seat)
		}
	}
	return nil
}

func (f *fakeShowStore) DeleteAll(_ context.Context) error {
	f.shows = map[primitive.ObjectID]*model.Show{}
	if f.deletes != nil {
		*f.deletes = append(*f.deletes, "shows")
	}
	return nil
}

type fakeMovieStore struct {
	movies  map[string]*model.Movie
	deletes *[]string
}

func newFakeMovieStore() *fakeMovieStore {
	return &fakeMovieStore{movies: map[string]*model.Movie{}}
}

func (f *fakeMovieStore) GetByID(_ context.Context, id string) (*model.Movie, error) {
	m, found := f.movies[id]
	if !found {
		return nil, repository.ErrMovieNotFound
	}
	return m, nil
}

func (f *fakeMovieStore) Create(_ context.Context, m *model.Movie) error {
	f.movies[m.ID] = m
	return nil
}

func (f *fakeMovieStore) SetTrailerKey(_ context.Context, id, key string) error {
	if m, found := f.movies[id]; found {
		m.TrailerKey = &key
	}
	return nil
}

func (f *fakeMovieStore) ListByIDs(_ context.Context, ids []string) (map[string]*model.Movie, error) {
	out := map[string]*model.Movie{}
	for _, id := range ids {
		if m, found := f.movies[id]; found {
			out[id] = m
		}
	}
	return out, nil
}

func (f *fakeMovieStore) DeleteAll(_ context.Context) error {
	f.movies = map[string]*model.Movie{}
	if f.deletes != nil {
		*f.deletes = append(*f.deletes, "movies")
	}
	return nil
}

type fakeBookingStore struct {
	bookings map[primitive.ObjectID]*model.Booking
	deletes  *[]string
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: map[primitive.ObjectID]*model.Booking{}}
}

func (f *fakeBookingStore) Create(_ context.Context, b *model.Booking) error {
	b.ID = primitive.NewObjectID()
	f.bookings[b.ID] = b
	return nil
}

func (f *fakeBookingStore) GetByID(_ context.Context, id primitive.ObjectID) (*model.Booking, error) {
	b, found := f.bookings[id]
	if !found {
		return nil, repository.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBookingStore) SetPaymentSession(_ context.Context, id primitive.ObjectID, link, sessionID string) error {
	if b, found := f.bookings[id]; found {
		b.PaymentLink = &link
		b.SessionID = &sessionID
	}
	return nil
}

func (f *fakeBookingStore) MarkPaid(_ context.Context, id primitive.ObjectID) error {
	b, found := f.bookings[id]
	if !found {
		return repository.ErrBookingNotFound
	}
	if !b.IsPaid {
		b.IsPaid = true
		b.PaymentLink = nil
		b.SessionID = nil
	}
	return nil
}

func (f *fakeBookingStore) Delete(_ context.Context, id primitive.ObjectID) error {
	delete(f.bookings, id)
	return nil
}

func (f *fakeBookingStore) ClearPaymentSession(_ context.Context, id primitive.ObjectID) error {
	if b, found := f.bookings[id]; found {
		b.PaymentLink = nil
		b.SessionID = nil
	}
	return nil
}

func (f *fakeBookingStore) ListByUser(_ context.Context, userID string) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) ListAll(_ context.Context) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range f.bookings {
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeBookingStore) PaidStats(_ context.Context) (int64, float64, error) {
	var count int64
	var revenue float64
	for _, b := range f.bookings {
		if b.IsPaid {
			count++
			revenue += b.Amount
		}
	}
	return count, revenue, nil
}

func (f *fakeBookingStore) DeleteAll(_ context.Context) error {
	f.bookings = map[primitive.ObjectID]*model.Booking{}
	if f.deletes != nil {
		*f.deletes = append(*f.deletes, "bookings")
	}
	return nil
}

type fakeUserStore struct {
	users map[string]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*model.User{}}
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	u, found := f.users[id]
	if !found {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) ListByIDs(_ context.Context, ids []string) (map[string]*model.User, error) {
	out := map[string]*model.User{}
	for _, id := range ids {
		if u, found := f.users[id]; found {
			out[id] = u
		}
	}
	return out, nil
}

func (f *fakeUserStore) Upsert(_ context.Context, u *model.User) error {
	if existing, found := f.users[u.ID]; found {
		existing.Name, existing.Email, existing.Image = u.Name, u.Email, u.Image
		return nil
	}
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeUserStore) Delete(_ context.Context, id string) error {
	delete(f.users, id)
	return nil
}

func (f *fakeUserStore) Count(_ context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

func (f *fakeUserStore) ToggleFavorite(_ context.Context, userID, movieID string) (bool, error) {
	u, found := f.users[userID]
	if !found {
		return false, repository.ErrUserNotFound
	}
	for i, id := range u.Favorites {
		if id == movieID {
			u.Favorites = append(u.Favorites[:i], u.Favorites[i+1:]...)
			return false, nil
		}
	}
	u.Favorites = append(u.Favorites, movieID)
	return true, nil
}

type fakePayments struct {
	sessions    map[string]*payment.Session
	createdReqs []payment.SessionRequest
	createErr   error
}

func newFakePayments() *fakePayments {
	return &fakePayments{sessions: map[string]*payment.Session{}}
}

func (f *fakePayments) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createdReqs = append(f.createdReqs, req)
	s := &payment.Session{
		ID:     "cs_test_" + req.Metadata["bookingId"],
		URL:    "https://checkout.example.com/" + req.Metadata["bookingId"],
		Status: payment.StatusOpen,
	}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakePayments) GetSession(_ context.Context, id string) (*payment.Session, error) {
	s, found := f.sessions[id]
	if !found {
		return nil, payment.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakePayments) VerifyWebhook([]byte, string) (*payment.WebhookEvent, error) {
	panic("not used by these tests")
}

type fakeEvents struct {
	published []scheduler.Task
	delayed   []scheduler.Task
	delays    []time.Duration
}

func (f *fakeEvents) Publish(_ context.Context, task scheduler.Task) error {
	f.published = append(f.published, task)
	return nil
}

func (f *fakeEvents) PublishDelayed(_ context.Context, task scheduler.Task, delay time.Duration) error {
	f.delayed = append(f.delayed, task)
	f.delays = append(f.delays, delay)
	return nil
}

// request builds an authenticated echo context around a JSON body.
func request(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextUserID, "user_1")
	return c, rec
}

// decode parses a handler response body into a generic map.
func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
