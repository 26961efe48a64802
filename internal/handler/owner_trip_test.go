package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/udaraamarasekara/busbook/internal/repository"
)

// newOwnerContext builds an echo context carrying the authenticated user
// id the way the JWT middleware does.
func newOwnerContext(method, target, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	return c, rec
}

func futureWindow() (string, string) {
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	end := start.Add(2 * time.Hour)
	return start.Format(time.RFC3339), end.Format(time.RFC3339)
}

func newOwnerHandlerWithMock(t *testing.T) (*OwnerHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	h := NewOwnerHandler(
		repository.NewBusRepo(db),
		repository.NewRouteRepo(db),
		repository.NewTripRepo(db),
		repository.NewBookingRepo(db),
	)
	return h, mock, func() { db.Close() }
}

func TestCreateTripChecksOwnershipBeforeWindow(t *testing.T) {
	h, mock, done := newOwnerHandlerWithMock(t)
	defer done()

	// Bus 7 belongs to user 8, caller is 9. The window in the body is
	// garbage, but ownership is checked first so the answer must be 403,
	// not 400.
	mock.ExpectQuery("FROM busses WHERE id").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner", "route", "busno", "permit_no", "seat_count"}).
			AddRow(7, 8, 1, "NB-1234", "P-1", 40))

	body := `{"bus":7,"start_at":"not-a-time","end_at":"also-not","start_from":"Colombo"}`
	c, rec := newOwnerContext(http.MethodPost, "/v1/trips", body, 9)
	if err := h.CreateTrip(c); err != nil {
		t.Fatalf("CreateTrip returned error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403; body %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateTripRejectsWrongDepartureTown(t *testing.T) {
	h, mock, done := newOwnerHandlerWithMock(t)
	defer done()

	mock.ExpectQuery("FROM busses WHERE id").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner", "route", "busno", "permit_no", "seat_count"}).
			AddRow(7, 9, 1, "NB-1234", "P-1", 40))
	mock.ExpectQuery("FROM routes WHERE id").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "town_one", "town_two"}).
			AddRow(1, "Colombo", "Kandy"))

	startAt, endAt := futureWindow()
	body := fmt.Sprintf(`{"bus":7,"start_at":%q,"end_at":%q,"start_from":"Galle"}`, startAt, endAt)
	c, rec := newOwnerContext(http.MethodPost, "/v1/trips", body, 9)
	if err := h.CreateTrip(c); err != nil {
		t.Fatalf("CreateTrip returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "check route again") {
		t.Fatalf("body %s, want it to contain %q", rec.Body.String(), "check route again")
	}
}

func TestCreateTripRejectsOverlap(t *testing.T) {
	h, mock, done := newOwnerHandlerWithMock(t)
	defer done()

	startAt, endAt := futureWindow()

	mock.ExpectQuery("FROM busses WHERE id").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner", "route", "busno", "permit_no", "seat_count"}).
			AddRow(7, 9, 1, "NB-1234", "P-1", 40))
	mock.ExpectQuery("FROM routes WHERE id").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "town_one", "town_two"}).
			AddRow(1, "Colombo", "Kandy"))
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	existingStart := time.Now().UTC().Add(23 * time.Hour)
	mock.ExpectQuery("FROM trips").
		WillReturnRows(sqlmock.NewRows([]string{"id", "bus", "start_at", "end_at", "start_from"}).
			AddRow(3, 7, existingStart, existingStart.Add(2*time.Hour), "Colombo"))
	mock.ExpectRollback()

	body := fmt.Sprintf(`{"bus":7,"start_at":%q,"end_at":%q,"start_from":"Colombo"}`, startAt, endAt)
	c, rec := newOwnerContext(http.MethodPost, "/v1/trips", body, 9)
	if err := h.CreateTrip(c); err != nil {
		t.Fatalf("CreateTrip returned error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Error    string            `json:"error"`
		Overlaps []json.RawMessage `json:"overlaps"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error != "check time again" {
		t.Fatalf("error = %q, want %q", resp.Error, "check time again")
	}
	if len(resp.Overlaps) != 1 {
		t.Fatalf("got %d overlaps, want 1", len(resp.Overlaps))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateTripSchedulesWhenFree(t *testing.T) {
	h, mock, done := newOwnerHandlerWithMock(t)
	defer done()

	startAt, endAt := futureWindow()

	mock.ExpectQuery("FROM busses WHERE id").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner", "route", "busno", "permit_no", "seat_count"}).
			AddRow(7, 9, 1, "NB-1234", "P-1", 40))
	mock.ExpectQuery("FROM routes WHERE id").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "town_one", "town_two"}).
			AddRow(1, "Colombo", "Kandy"))
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery("FROM trips").
		WillReturnRows(sqlmock.NewRows([]string{"id", "bus", "start_at", "end_at", "start_from"}))
	mock.ExpectExec("INSERT INTO trips").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	body := fmt.Sprintf(`{"bus":7,"start_at":%q,"end_at":%q,"start_from":"Kandy"}`, startAt, endAt)
	c, rec := newOwnerContext(http.MethodPost, "/v1/trips", body, 9)
	if err := h.CreateTrip(c); err != nil {
		t.Fatalf("CreateTrip returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"id":42`) {
		t.Fatalf("body %s, want it to contain the new trip id 42", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
