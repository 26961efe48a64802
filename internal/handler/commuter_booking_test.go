package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/udaraamarasekara/busbook/internal/repository"
)

func newBookingHandlerWithMock(t *testing.T) (*BookingHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	h := NewBookingHandler(repository.NewTripRepo(db), repository.NewBookingRepo(db))
	return h, mock, func() { db.Close() }
}

func newBookingContext(method, target, body string, userID uint64, idemKey string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	return c, rec
}

func TestBookSeatsConflictNamesTakenSeat(t *testing.T) {
	h, mock, done := newBookingHandlerWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT b.seat_count").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_count"}).AddRow(40))
	// Seat 3 is already booked; the batch must fail as a whole even
	// though seat 4 is free.
	mock.ExpectQuery("SELECT seat FROM bookings").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"seat"}).AddRow(1).AddRow(3))
	mock.ExpectRollback()

	c, rec := newBookingContext(http.MethodPost, "/v1/bookings", `{"trip":5,"seats":[3,4]}`, 9, "")
	if err := h.BookSeats(c); err != nil {
		t.Fatalf("BookSeats returned error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "seat 3 already booked") {
		t.Fatalf("body %s, want it to name seat 3", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookSeatsRejectsSeatOutOfRange(t *testing.T) {
	h, mock, done := newBookingHandlerWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT b.seat_count").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_count"}).AddRow(40))
	mock.ExpectRollback()

	c, rec := newBookingContext(http.MethodPost, "/v1/bookings", `{"trip":5,"seats":[41]}`, 9, "")
	if err := h.BookSeats(c); err != nil {
		t.Fatalf("BookSeats returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "invalid seat: 41") {
		t.Fatalf("body %s, want it to name seat 41", rec.Body.String())
	}
}

func TestBookSeatsRejectsSeatZero(t *testing.T) {
	h, mock, done := newBookingHandlerWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT b.seat_count").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_count"}).AddRow(40))
	mock.ExpectRollback()

	c, rec := newBookingContext(http.MethodPost, "/v1/bookings", `{"trip":5,"seats":[0]}`, 9, "")
	if err := h.BookSeats(c); err != nil {
		t.Fatalf("BookSeats returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "invalid seat: 0") {
		t.Fatalf("body %s, want it to name seat 0", rec.Body.String())
	}
}

func TestBookSeatsMissingTripReturns404(t *testing.T) {
	h, mock, done := newBookingHandlerWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT b.seat_count").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_count"}))
	mock.ExpectRollback()

	c, rec := newBookingContext(http.MethodPost, "/v1/bookings", `{"trip":99,"seats":[1]}`, 9, "")
	if err := h.BookSeats(c); err != nil {
		t.Fatalf("BookSeats returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body %s", rec.Code, rec.Body.String())
	}
}

func TestBookSeatsReplaysIdempotencyKey(t *testing.T) {
	h, mock, done := newBookingHandlerWithMock(t)
	defer done()

	created := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	// The key has been seen before: the original group is returned and
	// no transaction is opened.
	mock.ExpectQuery("FROM booking_groups").
		WithArgs(uint64(9), "retry-1").
		WillReturnRows(sqlmock.NewRows([]string{"ref"}).AddRow("g-1"))
	mock.ExpectQuery("FROM bookings WHERE group_ref").
		WithArgs("g-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "trip", "seat", "user", "group_ref", "created_at"}).
			AddRow(10, 5, 2, 9, "g-1", created).
			AddRow(11, 5, 3, 9, "g-1", created))

	c, rec := newBookingContext(http.MethodPost, "/v1/bookings", `{"trip":5,"seats":[2,3]}`, 9, "retry-1")
	if err := h.BookSeats(c); err != nil {
		t.Fatalf("BookSeats returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"replayed":true`) {
		t.Fatalf("body %s, want replayed flag", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelBookingOfAnotherUserIsForbidden(t *testing.T) {
	h, mock, done := newBookingHandlerWithMock(t)
	defer done()

	created := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bookings WHERE id").
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "trip", "seat", "user", "group_ref", "created_at"}).
			AddRow(10, 5, 2, 8, "g-1", created))
	mock.ExpectRollback()

	c, rec := newBookingContext(http.MethodDelete, "/v1/bookings/10", "", 9, "")
	c.SetParamNames("id")
	c.SetParamValues("10")
	if err := h.CancelBooking(c); err != nil {
		t.Fatalf("CancelBooking returned error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403; body %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelBookingRejectsMalformedID(t *testing.T) {
	h, _, done := newBookingHandlerWithMock(t)
	defer done()

	c, rec := newBookingContext(http.MethodDelete, "/v1/bookings/abc", "", 9, "")
	c.SetParamNames("id")
	c.SetParamValues("abc")
	if err := h.CancelBooking(c); err != nil {
		t.Fatalf("CancelBooking returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}
}
