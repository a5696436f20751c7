package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/postboard/internal/auth"
	"github.com/hitoshi/postboard/internal/middleware"
	"github.com/hitoshi/postboard/internal/model"
)

func decodeError(t *testing.T, resp *http.Response) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

func TestAuthHandler_Register_ReturnsUserWithoutPassword(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var got auth.RegisterInput
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
			got = in
			return &model.User{
				ID:           1,
				Username:     in.Username,
				Email:        in.Email,
				PasswordHash: "$2a$12$hash",
				CreatedAt:    created,
			}, nil
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register",
		strings.NewReader(`{"username":"alice","email":"alice@x.com","password":"password123"}`))
	w := httptest.NewRecorder()

	h.Register(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got.Username != "alice" || got.Email != "alice@x.com" || got.Password != "password123" {
		t.Errorf("service received %+v", got)
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	for _, key := range []string{"password", "password_hash"} {
		if _, ok := raw[key]; ok {
			t.Errorf("response must not contain %q", key)
		}
	}
	if raw["username"] != "alice" {
		t.Errorf("username = %v, want alice", raw["username"])
	}
	if raw["admin"] != false {
		t.Errorf("admin = %v, want false", raw["admin"])
	}
	if v, ok := raw["last_login"]; !ok || v != nil {
		t.Errorf("last_login = %v (present=%v), want null", v, ok)
	}
}

func TestAuthHandler_Register_Conflict_Returns400(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
			return nil, model.NewConflictError()
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register",
		strings.NewReader(`{"username":"alice","email":"alice@x.com","password":"password123"}`))
	w := httptest.NewRecorder()

	h.Register(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	body := decodeError(t, resp)
	if body.Code != model.ErrCodeConflict {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeConflict)
	}
	if body.Message != "User already exists" {
		t.Errorf("message = %q, want %q", body.Message, "User already exists")
	}
}

func TestAuthHandler_Register_InvalidJSON_Returns400(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(svc)

	for _, body := range []string{"", "{", "[1,2]", `{"username": 1}`} {
		t.Run(body, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(body))
			w := httptest.NewRecorder()

			h.Register(w, req)

			resp := w.Result()
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
			}
			if got := decodeError(t, resp).Code; got != model.ErrCodeInvalidRequest {
				t.Errorf("code = %q, want %q", got, model.ErrCodeInvalidRequest)
			}
		})
	}
}

func TestAuthHandler_Register_ValidationError_Returns422WithFields(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
			return nil, model.NewValidationError([]model.FieldError{
				{Field: "username", Reason: "must be at least 3 characters"},
			})
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register",
		strings.NewReader(`{"username":"al","email":"alice@x.com","password":"password123"}`))
	w := httptest.NewRecorder()

	h.Register(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
	body := decodeError(t, resp)
	if len(body.Fields) != 1 || body.Fields[0].Field != "username" {
		t.Errorf("fields = %+v, want username", body.Fields)
	}
}

func TestAuthHandler_Register_UnhashablePassword_Returns422(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
			return nil, auth.ErrInvalidPassword
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register",
		strings.NewReader(`{"username":"alice","email":"alice@x.com","password":""}`))
	w := httptest.NewRecorder()

	h.Register(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
	body := decodeError(t, resp)
	if len(body.Fields) != 1 || body.Fields[0].Field != "password" || body.Fields[0].Reason != "must be 1 to 72 bytes" {
		t.Errorf("fields = %+v, want password: must be 1 to 72 bytes", body.Fields)
	}
}

func TestAuthHandler_Register_InternalError_Returns500(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
			return nil, errors.New("connection refused")
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register",
		strings.NewReader(`{"username":"alice","email":"alice@x.com","password":"password123"}`))
	w := httptest.NewRecorder()

	h.Register(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}
	body := decodeError(t, resp)
	if strings.Contains(body.Message, "connection refused") {
		t.Error("internal error details must not leak into the response")
	}
}

func TestAuthHandler_Login_ReturnsTokens(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, in auth.LoginInput) (*auth.TokenPair, error) {
			if in.Email != "alice@x.com" || in.Password != "password123" {
				t.Errorf("service received %+v", in)
			}
			return &auth.TokenPair{
				AccessToken:  "access.jwt",
				RefreshToken: "refresh.jwt",
				TokenType:    auth.BearerTokenType,
				ExpiresIn:    30 * time.Minute,
			}, nil
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		strings.NewReader(`{"email":"alice@x.com","password":"password123"}`))
	w := httptest.NewRecorder()

	h.Login(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.AccessToken != "access.jwt" || body.RefreshToken != "refresh.jwt" {
		t.Errorf("tokens = %+v", body)
	}
	if body.TokenType != "Bearer" {
		t.Errorf("token_type = %q, want Bearer", body.TokenType)
	}
	if body.ExpiresIn != 1800 {
		t.Errorf("expires_in = %d, want 1800", body.ExpiresIn)
	}
}

func TestAuthHandler_Login_InvalidCredentials_Returns400(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, in auth.LoginInput) (*auth.TokenPair, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		strings.NewReader(`{"email":"alice@x.com","password":"wrong"}`))
	w := httptest.NewRecorder()

	h.Login(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if got := decodeError(t, resp).Message; got != "Invalid credentials" {
		t.Errorf("message = %q, want %q", got, "Invalid credentials")
	}
}

func TestAuthHandler_Refresh_ReturnsAccessTokenOnly(t *testing.T) {
	svc := &mockAuthService{
		refreshFn: func(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
			if refreshToken != "refresh.jwt" {
				t.Errorf("refresh token = %q", refreshToken)
			}
			return &auth.TokenPair{AccessToken: "new.access", TokenType: auth.BearerTokenType, ExpiresIn: time.Minute}, nil
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", strings.NewReader(`{"refresh_token":"refresh.jwt"}`))
	w := httptest.NewRecorder()

	h.Refresh(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if raw["access_token"] != "new.access" {
		t.Errorf("access_token = %v", raw["access_token"])
	}
	if _, ok := raw["refresh_token"]; ok {
		t.Error("refresh_token should be omitted on refresh")
	}
}

func TestAuthHandler_Refresh_Rejected_Returns401(t *testing.T) {
	svc := &mockAuthService{
		refreshFn: func(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
			return nil, auth.ErrUnauthenticated
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", strings.NewReader(`{"refresh_token":"access.jwt"}`))
	w := httptest.NewRecorder()

	h.Refresh(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	if got := resp.Header.Get("WWW-Authenticate"); got != "Bearer" {
		t.Errorf("WWW-Authenticate = %q, want Bearer", got)
	}
}

func TestAuthHandler_Refresh_MissingToken_Returns422(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	h.Refresh(w, req)

	if w.Result().StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnprocessableEntity)
	}
}

func TestAuthHandler_Logout_ReturnsMessage(t *testing.T) {
	var loggedOut *model.User
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, user *model.User) error {
			loggedOut = user
			return nil
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req = req.WithContext(middleware.ContextWithUser(req.Context(), &model.User{ID: 5}))
	w := httptest.NewRecorder()

	h.Logout(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var body messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Message != "User logged out successfully" {
		t.Errorf("message = %q", body.Message)
	}
	if loggedOut == nil || loggedOut.ID != 5 {
		t.Errorf("logged out user = %+v, want ID 5", loggedOut)
	}
}

func TestAuthHandler_Logout_NoUser_Returns401(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil))

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestAuthHandler_Me_ReturnsCurrentUser(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req = req.WithContext(middleware.ContextWithUser(req.Context(), &model.User{ID: 9, Username: "bob", Admin: true}))
	w := httptest.NewRecorder()

	h.Me(w, req)

	var body userResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.ID != 9 || body.Username != "bob" || !body.Admin {
		t.Errorf("user = %+v", body)
	}
}

func TestAuthHandler_ListUsers(t *testing.T) {
	svc := &mockAuthService{
		listUsersFn: func(ctx context.Context) ([]*model.User, error) {
			return []*model.User{
				{ID: 1, Username: "admin", Admin: true},
				{ID: 2, Username: "alice"},
			}, nil
		},
	}
	h := NewAuthHandler(svc)

	w := httptest.NewRecorder()
	h.ListUsers(w, httptest.NewRequest(http.MethodGet, "/v1/auth/", nil))

	var body []userResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(body) != 2 || body[0].Username != "admin" || body[1].Username != "alice" {
		t.Errorf("users = %+v", body)
	}
}

func TestAuthHandler_ListUsers_Empty_ReturnsArray(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := httptest.NewRecorder()
	h.ListUsers(w, httptest.NewRequest(http.MethodGet, "/v1/auth/", nil))

	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}
