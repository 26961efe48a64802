package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"

	"github.com/udaraamarasekara/busbook/internal/repository"
	"github.com/udaraamarasekara/busbook/internal/utils"
)

func newAuthHandlerWithMock(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	// bcrypt min cost keeps the tests fast
	h := NewAuthHandler(repository.NewUserRepo(db), "test-secret", 15, 4)
	return h, mock, func() { db.Close() }
}

func postJSON(target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, mock, done := newAuthHandlerWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.lk' for key 'email'"})

	c, rec := postJSON("/v1/auth/register", `{"name":"Amal","email":"a@b.lk","password":"secret"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "user already exists") {
		t.Fatalf("body %s, want user already exists", rec.Body.String())
	}
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	h, _, done := newAuthHandlerWithMock(t)
	defer done()

	c, rec := postJSON("/v1/auth/register", `{"name":"Amal"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterByAdminRejectsUnknownRole(t *testing.T) {
	h, _, done := newAuthHandlerWithMock(t)
	defer done()

	c, rec := postJSON("/v1/admin/users", `{"name":"Amal","email":"a@b.lk","password":"secret","role":"driver"}`)
	if err := h.RegisterByAdmin(c); err != nil {
		t.Fatalf("RegisterByAdmin returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "invalid role") {
		t.Fatalf("body %s, want invalid role", rec.Body.String())
	}
}

func TestLoginUnknownUser(t *testing.T) {
	h, mock, done := newAuthHandlerWithMock(t)
	defer done()

	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("nobody@b.lk").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at"}))

	c, rec := postJSON("/v1/auth/login", `{"email":"nobody@b.lk","password":"secret"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body %s", rec.Code, rec.Body.String())
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h, mock, done := newAuthHandlerWithMock(t)
	defer done()

	hash, err := utils.HashPassword("right-password", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("a@b.lk").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at"}).
			AddRow(9, "Amal", "a@b.lk", hash, "commuter", time.Now()))

	c, rec := postJSON("/v1/auth/login", `{"email":"a@b.lk","password":"wrong"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401; body %s", rec.Code, rec.Body.String())
	}
}

func TestLoginIssuesToken(t *testing.T) {
	h, mock, done := newAuthHandlerWithMock(t)
	defer done()

	hash, err := utils.HashPassword("right-password", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("a@b.lk").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at"}).
			AddRow(9, "Amal", "a@b.lk", hash, "commuter", time.Now()))

	c, rec := postJSON("/v1/auth/login", `{"email":"a@b.lk","password":"right-password"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"token"`) {
		t.Fatalf("body %s, want a token", rec.Body.String())
	}
}
