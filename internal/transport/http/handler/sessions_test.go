package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/teachmatch/accounts-api/internal/application/session"
	"github.com/teachmatch/accounts-api/internal/domain"
)

func TestLogin_InvalidBody(t *testing.T) {
	h := NewSessionHandler(&mockSessionSvc{})
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/login", bytes.NewBufferString("not-json"))
	rr := httptest.NewRecorder()
	h.Login(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := &mockSessionSvc{}
	svc.On("Login", mock.Anything, mock.Anything).Return(nil, domain.ErrUnauthorized)
	h := NewSessionHandler(svc)

	r := postJSON("/v1/sessions/login", session.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	rr := httptest.NewRecorder()
	h.Login(rr, r)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	var resp DetailEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Invalid credentials", resp.Detail)
	svc.AssertExpectations(t)
}

func TestLogin_HappyPath(t *testing.T) {
	svc := &mockSessionSvc{}
	u := &domain.User{UserID: "u1", Email: "alice@example.com"}
	svc.On("Login", mock.Anything, mock.Anything).Return(&session.LoginResult{
		Bearer:       "access-token",
		RefreshToken: "refresh-token",
		Session:      &domain.Session{SessionID: "s1", UserID: "u1", User: u},
	}, nil)
	h := NewSessionHandler(svc)

	r := postJSON("/v1/sessions/login", session.LoginRequest{Email: "alice@example.com", Password: "secret1234"})
	rr := httptest.NewRecorder()
	h.Login(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp AuthEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "access-token", resp.Access)
	assert.Equal(t, "refresh-token", resp.Refresh)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	svc.AssertExpectations(t)
}

func TestRefresh_MissingToken(t *testing.T) {
	h := NewSessionHandler(&mockSessionSvc{})
	r := postJSON("/v1/sessions/refresh", map[string]string{})
	rr := httptest.NewRecorder()
	h.Refresh(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRefresh_HappyPath(t *testing.T) {
	svc := &mockSessionSvc{}
	svc.On("Refresh", mock.Anything, "old-refresh").Return("new-access", "new-refresh", nil)
	h := NewSessionHandler(svc)

	r := postJSON("/v1/sessions/refresh", map[string]string{"refresh": "old-refresh"})
	rr := httptest.NewRecorder()
	h.Refresh(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp AuthEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "new-access", resp.Access)
	assert.Equal(t, "new-refresh", resp.Refresh)
	svc.AssertExpectations(t)
}

func TestGetCurrent_MissingClaims(t *testing.T) {
	h := NewSessionHandler(&mockSessionSvc{})
	r := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	rr := httptest.NewRecorder()
	h.GetCurrent(rr, r)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogout_HappyPath(t *testing.T) {
	svc := &mockSessionSvc{}
	svc.On("Logout", mock.Anything, "s1").Return(nil)
	h := NewSessionHandler(svc)

	r := withClaims(httptest.NewRequest(http.MethodPost, "/v1/sessions/logout", nil), "u1", domain.RoleStudent, "s1")
	rr := httptest.NewRecorder()
	h.Logout(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp DetailEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Logged out", resp.Detail)
	svc.AssertExpectations(t)
}
