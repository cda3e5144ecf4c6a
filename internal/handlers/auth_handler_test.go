package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"flux/internal/config"
	apperrors "flux/internal/errors"
	"flux/internal/logger"
	"flux/internal/middleware"
	"flux/internal/models"
	"flux/internal/pagination"
	"flux/internal/services"
	"flux/internal/validator"
)

const (
	testUserID  = "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b"
	otherUserID = "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5c"
)

// --- mock services ---

type mockUserService struct {
	registerFn       func(input services.RegisterInput) (*models.User, error)
	authenticateFn   func(email, password string) (*models.User, error)
	getUserByIDFn    func(id string) (*models.User, error)
	getUserByEmailFn func(email string) (*models.User, error)
	getOwnProfileFn  func(actorID, id string) (*models.User, error)
	listUsersFn      func(page pagination.PageRequest) (*pagination.Page[models.UserProfile], error)
	updateUserFn     func(actorID, id string, update services.UserUpdate) (*models.User, error)
	deleteUserFn     func(actorID, id string) error
}

func (m *mockUserService) Register(_ context.Context, input services.RegisterInput) (*models.User, error) {
	if m.registerFn != nil {
		return m.registerFn(input)
	}
	return &models.User{}, nil
}

func (m *mockUserService) Authenticate(_ context.Context, email, password string) (*models.User, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(email, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(email)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetOwnProfile(_ context.Context, actorID, id string) (*models.User, error) {
	if m.getOwnProfileFn != nil {
		return m.getOwnProfileFn(actorID, id)
	}
	return &models.User{}, nil
}

func (m *mockUserService) ListUsers(_ context.Context, page pagination.PageRequest) (*pagination.Page[models.UserProfile], error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(page)
	}
	p := pagination.NewPage([]models.UserProfile{}, page, 0)
	return &p, nil
}

func (m *mockUserService) UpdateUser(_ context.Context, actorID, id string, update services.UserUpdate) (*models.User, error) {
	if m.updateUserFn != nil {
		return m.updateUserFn(actorID, id, update)
	}
	return &models.User{}, nil
}

func (m *mockUserService) DeleteUser(_ context.Context, actorID, id string) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(actorID, id)
	}
	return nil
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	config.Set(&config.Config{JWTSecret: "handler-test-secret", JWTExpirationDur: time.Hour})
	validator.Register()
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.POST("/auth/logout", handler.Logout)
	return r
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	return doRequestWithHeaders(r, method, path, body, nil)
}

func doRequestWithHeaders(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	if result["success"] != false {
		t.Errorf("expected success=false, got %v", result["success"])
	}
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func dataObject(t *testing.T, result map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := result["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected data object, got: %v", result["data"])
	}
	return data
}

func sampleUser() *models.User {
	return &models.User{
		Base:        models.Base{ID: testUserID},
		Name:        "Ada",
		LastName:    "Lovelace",
		DateOfBirth: time.Date(1990, 12, 10, 0, 0, 0, 0, time.UTC),
		Email:       "ada@example.com",
		Password:    "$2a$10$hash",
	}
}

// --- tests ---

func TestAuthHandler_Register(t *testing.T) {
	validBody := `{"name":"ada","lastName":"lovelace","dateOfBirth":"1990-12-10","email":"Ada@Example.com","password":"secret1"}`

	t.Run("returns 201 with token and profile", func(t *testing.T) {
		var got services.RegisterInput
		userSvc := &mockUserService{
			registerFn: func(input services.RegisterInput) (*models.User, error) {
				got = input
				return sampleUser(), nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc))

		rec := doRequest(r, http.MethodPost, "/auth/register", validBody)
		assertStatus(t, rec, http.StatusCreated)

		if got.Email != "Ada@Example.com" || got.Password != "secret1" {
			t.Errorf("unexpected input passed to service: %+v", got)
		}
		if !got.DateOfBirth.Equal(time.Date(1990, 12, 10, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("expected date of birth 1990-12-10, got %v", got.DateOfBirth)
		}

		result := parseJSON(t, rec)
		if result["success"] != true {
			t.Errorf("expected success=true, got %v", result["success"])
		}
		data := dataObject(t, result)
		token, _ := data["token"].(string)
		email, err := middleware.ParseToken(token)
		if err != nil {
			t.Fatalf("token does not parse: %v", err)
		}
		if email != "ada@example.com" {
			t.Errorf("expected token subject ada@example.com, got %q", email)
		}
		user := data["user"].(map[string]interface{})
		if _, leaked := user["password"]; leaked {
			t.Error("profile must not expose the password")
		}
		if user["dateOfBirth"] != "1990-12-10" {
			t.Errorf("expected dateOfBirth 1990-12-10, got %v", user["dateOfBirth"])
		}
	})

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"lastName":"l","dateOfBirth":"1990-12-10","email":"a@b.com","password":"secret1"}`},
		{"invalid email", `{"name":"a","lastName":"l","dateOfBirth":"1990-12-10","email":"not-an-email","password":"secret1"}`},
		{"short password", `{"name":"a","lastName":"l","dateOfBirth":"1990-12-10","email":"a@b.com","password":"123"}`},
		{"future date of birth", `{"name":"a","lastName":"l","dateOfBirth":"2999-01-01","email":"a@b.com","password":"secret1"}`},
		{"malformed date of birth", `{"name":"a","lastName":"l","dateOfBirth":"10/12/1990","email":"a@b.com","password":"secret1"}`},
		{"malformed JSON", `{"name":`},
	}
	for _, tc := range tests {
		t.Run("returns 400 for "+tc.name, func(t *testing.T) {
			called := false
			userSvc := &mockUserService{
				registerFn: func(services.RegisterInput) (*models.User, error) {
					called = true
					return sampleUser(), nil
				},
			}
			r := setupAuthRouter(NewAuthHandler(userSvc))

			rec := doRequest(r, http.MethodPost, "/auth/register", tc.body)
			assertStatus(t, rec, http.StatusBadRequest)
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
			if called {
				t.Error("service must not be called for invalid input")
			}
		})
	}

	t.Run("returns 409 for duplicate email", func(t *testing.T) {
		userSvc := &mockUserService{
			registerFn: func(services.RegisterInput) (*models.User, error) {
				return nil, apperrors.ErrDuplicateEmail
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc))

		rec := doRequest(r, http.MethodPost, "/auth/register", validBody)
		assertStatus(t, rec, http.StatusConflict)
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_EMAIL")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns 200 with token on valid credentials", func(t *testing.T) {
		userSvc := &mockUserService{
			authenticateFn: func(email, password string) (*models.User, error) {
				if email != "ada@example.com" || password != "secret1" {
					t.Errorf("unexpected credentials %q/%q", email, password)
				}
				return sampleUser(), nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc))

		rec := doRequest(r, http.MethodPost, "/auth/login", `{"email":" ada@example.com ","password":"secret1"}`)
		assertStatus(t, rec, http.StatusOK)

		data := dataObject(t, parseJSON(t, rec))
		if data["token"] == "" || data["token"] == nil {
			t.Error("expected a token")
		}
	})

	t.Run("returns 401 on invalid credentials", func(t *testing.T) {
		userSvc := &mockUserService{
			authenticateFn: func(string, string) (*models.User, error) {
				return nil, apperrors.ErrInvalidCredentials
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc))

		rec := doRequest(r, http.MethodPost, "/auth/login", `{"email":"ada@example.com","password":"wrong"}`)
		assertStatus(t, rec, http.StatusUnauthorized)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("returns 400 when password is missing", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}))

		rec := doRequest(r, http.MethodPost, "/auth/login", `{"email":"ada@example.com"}`)
		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	r := setupAuthRouter(NewAuthHandler(&mockUserService{}))

	rec := doRequest(r, http.MethodPost, "/auth/logout", "")
	assertStatus(t, rec, http.StatusOK)

	result := parseJSON(t, rec)
	if result["success"] != true {
		t.Errorf("expected success=true, got %v", result["success"])
	}
	if result["data"] != nil {
		t.Errorf("expected null data, got %v", result["data"])
	}
	if _, ok := result["timestamp"].(string); !ok {
		t.Errorf("expected timestamp string, got %v", result["timestamp"])
	}
}
