package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"barkeep/internal/bar"
	"barkeep/internal/cache"
	"barkeep/internal/catalog"
	"barkeep/internal/db/mock"
	"barkeep/internal/usage"
	"barkeep/models"
)

func withTestSessionManager(t *testing.T) (*scs.SessionManager, func()) {
	t.Helper()
	original := sessionManager
	sm := scs.New()
	sessionManager = sm
	return sm, func() {
		sessionManager = original
	}
}

// withTestDatabase installs a seeded mock database together with the catalog
// store and bar service built on it.
func withTestDatabase(t *testing.T) (*gorm.DB, func()) {
	t.Helper()
	originalDB, originalSvc, originalStore := database, barService, catalogStore

	db, err := mock.New(context.Background())
	if err != nil {
		t.Fatalf("failed to open mock database: %v", err)
	}
	scheduler := usage.NewScheduler(usage.Options{Workers: 2, Timeout: time.Second})
	store := catalog.New(db)

	database = db
	catalogStore = store
	barService = bar.NewService(store, cache.NewLists(), scheduler)
	return db, func() {
		database, barService, catalogStore = originalDB, originalSvc, originalStore
		scheduler.Close()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

// loadSession attaches a fresh session to the request.
func loadSession(t *testing.T, sm *scs.SessionManager, req *http.Request) *http.Request {
	t.Helper()
	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session context: %v", err)
	}
	return req.WithContext(ctx)
}

func TestActiveSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if ActiveSession(req) {
		t.Fatal("expected inactive session when manager is nil")
	}

	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	req = loadSession(t, sm, req)
	sm.Put(req.Context(), sessionAuthenticatedKey, true)
	sm.Put(req.Context(), sessionUserIDKey, 42)

	if !ActiveSession(req) {
		t.Fatal("expected active session when flags are set")
	}
}

func TestCurrentUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := currentUserID(req); ok {
		t.Fatal("expected currentUserID to fail without session manager")
	}

	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	req = loadSession(t, sm, req)
	if _, ok := currentUserID(req); ok {
		t.Fatal("expected false when user id not set")
	}

	sm.Put(req.Context(), sessionUserIDKey, 7)
	id, ok := currentUserID(req)
	if !ok || id != 7 {
		t.Fatalf("expected user id 7, got %d (ok=%t)", id, ok)
	}
}

func TestEstablishSession(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	req := loadSession(t, sm, httptest.NewRequest(http.MethodGet, "/app", nil))

	user := &models.User{Model: gorm.Model{ID: 3}, Email: "user@example.com", Name: "User"}
	if err := establishSession(req, user); err != nil {
		t.Fatalf("establishSession returned error: %v", err)
	}

	if !sm.GetBool(req.Context(), sessionAuthenticatedKey) {
		t.Fatal("expected session authenticated flag to be true")
	}
	if got := sm.GetInt(req.Context(), sessionUserIDKey); got != 3 {
		t.Fatalf("expected session user id 3, got %d", got)
	}
	if got := sm.GetString(req.Context(), sessionUserEmailKey); got != "user@example.com" {
		t.Fatalf("unexpected email %q", got)
	}
	if got := sm.GetString(req.Context(), sessionUserNameKey); got != "User" {
		t.Fatalf("unexpected name %q", got)
	}
}

func TestEstablishSessionWithoutManager(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	if err := establishSession(req, &models.User{}); err == nil {
		t.Fatal("expected error when session manager is nil")
	}
}

func TestCreateUser(t *testing.T) {
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	user, err := createUser(context.Background(), db, "Example@Email.com", "  Test User  ", "password123")
	if err != nil {
		t.Fatalf("createUser returned error: %v", err)
	}
	if user.Email != "example@email.com" {
		t.Fatalf("expected email to be lowercased, got %q", user.Email)
	}
	if user.Name != "Test User" {
		t.Fatalf("expected trimmed name, got %q", user.Name)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")); err != nil {
		t.Fatalf("password hash does not match original: %v", err)
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", "example@email.com").Count(&count).Error; err != nil || count != 1 {
		t.Fatalf("expected user persisted, count=%d err=%v", count, err)
	}
}

func TestCreateUserWithoutDatabase(t *testing.T) {
	if _, err := createUser(context.Background(), nil, "test@example.com", "User", "password"); !errors.Is(err, gorm.ErrInvalidDB) {
		t.Fatalf("expected ErrInvalidDB, got %v", err)
	}
}

func TestEnsureOwner(t *testing.T) {
	db, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)
	ctx := context.Background()

	if err := EnsureOwner(ctx, db, "Bar@Example.com", "Bar Owner", "negroni"); err != nil {
		t.Fatalf("EnsureOwner returned error: %v", err)
	}
	if err := EnsureOwner(ctx, db, "bar@example.com", "Someone Else", "other"); err != nil {
		t.Fatalf("second EnsureOwner returned error: %v", err)
	}

	var users []models.User
	if err := db.Where("email = ?", "bar@example.com").Find(&users).Error; err != nil {
		t.Fatalf("load owners: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected exactly one owner, got %d", len(users))
	}
	if users[0].Name != "Bar Owner" {
		t.Fatalf("expected the first owner to be kept, got %q", users[0].Name)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(users[0].PasswordHash), []byte("negroni")); err != nil {
		t.Fatalf("owner password was replaced: %v", err)
	}
}

func TestFindUserByEmail(t *testing.T) {
	_, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := findUserByEmail(req, "missing@example.com"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for missing user, got %v", err)
	}

	user, err := findUserByEmail(req, strings.ToUpper(mock.OwnerEmail))
	if err != nil {
		t.Fatalf("findUserByEmail returned error: %v", err)
	}
	if user.Email != mock.OwnerEmail {
		t.Fatalf("expected seeded owner, got %q", user.Email)
	}
}

func TestAuthenticate(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	_, dbCleanup := withTestDatabase(t)
	t.Cleanup(dbCleanup)

	req := loadSession(t, sm, httptest.NewRequest(http.MethodPost, "/login", nil))

	user, ok := authenticate(req, mock.OwnerEmail, mock.OwnerPassword)
	if !ok {
		t.Fatal("expected authentication to succeed")
	}
	if user.Email != mock.OwnerEmail {
		t.Fatalf("unexpected user %q", user.Email)
	}
	if !sm.GetBool(req.Context(), sessionAuthenticatedKey) {
		t.Fatal("expected session authenticated flag to be true")
	}

	if _, ok := authenticate(req, mock.OwnerEmail, "wrong"); ok {
		t.Fatal("expected authentication failure with bad password")
	}
	if message := sm.PopString(req.Context(), sessionLoginMessageKey); message == "" {
		t.Fatal("expected login failure message to be set")
	}
}

func TestRequireAuthentication(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := RequireAuthentication(next)

	tests := []struct {
		name     string
		path     string
		signedIn bool
		want     int
	}{
		{name: "api without session", path: "/app/api/ingredients", want: http.StatusUnauthorized},
		{name: "page without session", path: "/app", want: http.StatusSeeOther},
		{name: "api with session", path: "/app/api/ingredients", signedIn: true, want: http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := loadSession(t, sm, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if tt.signedIn {
				sm.Put(req.Context(), sessionAuthenticatedKey, true)
				sm.Put(req.Context(), sessionUserIDKey, 1)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestRedirectToLogin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	w := httptest.NewRecorder()
	redirectToLogin(w, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 redirect, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	req := loadSession(t, sm, httptest.NewRequest(http.MethodPost, "/logout", nil))
	sm.Put(req.Context(), sessionAuthenticatedKey, true)
	sm.Put(req.Context(), sessionUserIDKey, 1)

	w := httptest.NewRecorder()
	Logout(w, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after logout, got %d", w.Code)
	}
	if ActiveSession(req) {
		t.Fatal("expected session to be cleared")
	}

	w = httptest.NewRecorder()
	Logout(w, httptest.NewRequest(http.MethodPut, "/logout", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for PUT, got %d", w.Code)
	}
}

func TestNotificationsDrainQueue(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	req := loadSession(t, sm, httptest.NewRequest(http.MethodGet, "/app/api/notifications", nil))
	pushNotification(req, "first")
	pushNotification(req, "second")

	w := httptest.NewRecorder()
	Notifications(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, `"first","second"`) {
		t.Fatalf("unexpected notifications body %s", body)
	}

	w = httptest.NewRecorder()
	Notifications(w, req)
	if body := w.Body.String(); !strings.Contains(body, `"notifications":[]`) {
		t.Fatalf("expected queue to be drained, got %s", body)
	}
}
