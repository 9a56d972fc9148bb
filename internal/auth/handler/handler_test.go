package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hqdung24/Nestjs-auth/internal/auth"
	"github.com/hqdung24/Nestjs-auth/internal/auth/provider"
	"github.com/hqdung24/Nestjs-auth/internal/auth/resolver"
	"github.com/hqdung24/Nestjs-auth/internal/auth/token"
	"github.com/hqdung24/Nestjs-auth/internal/directory"
)

type fakeVerifier struct {
	claims *auth.FederatedClaims
	err    error
}

func (f *fakeVerifier) Verify(context.Context, string) (*auth.FederatedClaims, error) {
	return f.claims, f.err
}

type fakeResolver struct {
	user  *directory.User
	isNew bool
	err   error
}

func (f *fakeResolver) ResolveFederated(context.Context, *auth.FederatedClaims) (*directory.User, bool, error) {
	return f.user, f.isNew, f.err
}

func (f *fakeResolver) ResolveLocal(context.Context, string, string) (*directory.User, error) {
	return f.user, f.err
}

func (f *fakeResolver) RegisterLocal(context.Context, resolver.Registration) (*directory.User, error) {
	return f.user, f.err
}

type fakeIssuer struct {
	pair       *token.Pair
	issueErr   error
	refreshErr error
	gotRefresh string
}

func (f *fakeIssuer) IssueFor(context.Context, *directory.User) (*token.Pair, error) {
	return f.pair, f.issueErr
}

func (f *fakeIssuer) Refresh(_ context.Context, refreshToken string) (*token.Pair, error) {
	f.gotRefresh = refreshToken
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.pair, nil
}

func testUser() *directory.User {
	return &directory.User{
		ID:        "u-1",
		FirstName: "A",
		LastName:  "X",
		Email:     "a@x.com",
		Role:      "user",
		IsActive:  true,
		CreatedAt: time.Now(),
	}
}

func newTestRouter(v *fakeVerifier, r *fakeResolver, i *fakeIssuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(v, r, i, provider.NewRegistry(), nil)
	router := gin.New()
	h.RegisterRoutes(router)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestFederated_NewAccount(t *testing.T) {
	pair := &token.Pair{AccessToken: "at", RefreshToken: "rt"}
	router := newTestRouter(
		&fakeVerifier{claims: &auth.FederatedClaims{SubjectID: "g-123", Email: "a@x.com"}},
		&fakeResolver{user: testUser(), isNew: true},
		&fakeIssuer{pair: pair},
	)

	w := postJSON(t, router, "/auth/federated", gin.H{"token": "raw-assertion"})

	assert.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		User         struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "at", body.AccessToken)
	assert.Equal(t, "rt", body.RefreshToken)
	assert.Equal(t, "u-1", body.User.ID)
	assert.Equal(t, "a@x.com", body.User.Email)

	// refresh token mirrored into an HttpOnly cookie
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, refreshCookieName, cookies[0].Name)
	assert.Equal(t, "rt", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestFederated_ExistingAccount(t *testing.T) {
	router := newTestRouter(
		&fakeVerifier{claims: &auth.FederatedClaims{SubjectID: "g-123", Email: "a@x.com"}},
		&fakeResolver{user: testUser(), isNew: false},
		&fakeIssuer{pair: &token.Pair{AccessToken: "at", RefreshToken: "rt"}},
	)

	w := postJSON(t, router, "/auth/federated", gin.H{"token": "raw-assertion"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFederated_ErrorKindsAreDistinguishable(t *testing.T) {
	cases := []struct {
		name       string
		verifyErr  error
		resolveErr error
		wantStatus int
		wantKind   string
	}{
		{"invalid assertion", auth.ErrInvalidAssertion, nil, http.StatusUnauthorized, "invalid_assertion"},
		{"verifier unavailable", auth.ErrVerifierUnavailable, nil, http.StatusServiceUnavailable, "verifier_unavailable"},
		{"incomplete claims", nil, auth.ErrIncompleteClaims, http.StatusUnprocessableEntity, "incomplete_claims"},
		{"email conflict", nil, auth.ErrEmailAlreadyRegistered, http.StatusConflict, "email_already_registered"},
		{"directory unavailable", nil, auth.ErrDirectoryUnavailable, http.StatusServiceUnavailable, "directory_unavailable"},
		{"conflict retry exhausted", nil, auth.ErrConflictRetryExhausted, http.StatusConflict, "conflict_retry_exhausted"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := &fakeVerifier{claims: &auth.FederatedClaims{SubjectID: "g-1"}, err: tc.verifyErr}
			r := &fakeResolver{user: testUser(), err: tc.resolveErr}
			router := newTestRouter(v, r, &fakeIssuer{pair: &token.Pair{}})

			w := postJSON(t, router, "/auth/federated", gin.H{"token": "raw"})

			assert.Equal(t, tc.wantStatus, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.wantKind, body["error"])
		})
	}
}

func TestFederated_MissingToken(t *testing.T) {
	router := newTestRouter(&fakeVerifier{}, &fakeResolver{}, &fakeIssuer{})

	w := postJSON(t, router, "/auth/federated", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_Success(t *testing.T) {
	router := newTestRouter(
		&fakeVerifier{},
		&fakeResolver{user: testUser()},
		&fakeIssuer{pair: &token.Pair{AccessToken: "at", RefreshToken: "rt"}},
	)

	w := postJSON(t, router, "/auth/login", gin.H{
		"identifier": "a@x.com",
		"password":   "correct horse",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogin_BadPasswordVsUnknownUser(t *testing.T) {
	badPassword := newTestRouter(&fakeVerifier{}, &fakeResolver{err: auth.ErrInvalidCredentials}, &fakeIssuer{})
	w := postJSON(t, badPassword, "/auth/login", gin.H{"identifier": "a@x.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	unknown := newTestRouter(&fakeVerifier{}, &fakeResolver{err: auth.ErrUserNotFound}, &fakeIssuer{})
	w = postJSON(t, unknown, "/auth/login", gin.H{"identifier": "b@x.com", "password": "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegister_Conflict(t *testing.T) {
	router := newTestRouter(&fakeVerifier{}, &fakeResolver{err: auth.ErrEmailAlreadyRegistered}, &fakeIssuer{})

	w := postJSON(t, router, "/auth/register", gin.H{
		"firstName": "A",
		"lastName":  "X",
		"email":     "a@x.com",
		"password":  "correct horse",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRefresh_FromBody(t *testing.T) {
	issuer := &fakeIssuer{pair: &token.Pair{AccessToken: "at2", RefreshToken: "rt2"}}
	router := newTestRouter(&fakeVerifier{}, &fakeResolver{}, issuer)

	w := postJSON(t, router, "/auth/refresh", gin.H{"refreshToken": "rt1"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rt1", issuer.gotRefresh)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "at2", body["accessToken"])
	assert.NotContains(t, body, "user")
}

func TestRefresh_FallsBackToCookie(t *testing.T) {
	issuer := &fakeIssuer{pair: &token.Pair{AccessToken: "at2", RefreshToken: "rt2"}}
	router := newTestRouter(&fakeVerifier{}, &fakeResolver{}, issuer)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "cookie-rt"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cookie-rt", issuer.gotRefresh)
}

func TestRefresh_SupersededAndExpired(t *testing.T) {
	superseded := &fakeIssuer{refreshErr: auth.ErrTokenSuperseded}
	router := newTestRouter(&fakeVerifier{}, &fakeResolver{}, superseded)
	w := postJSON(t, router, "/auth/refresh", gin.H{"refreshToken": "old"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "token_superseded", body["error"])

	expired := &fakeIssuer{refreshErr: auth.ErrTokenExpired}
	router = newTestRouter(&fakeVerifier{}, &fakeResolver{}, expired)
	w = postJSON(t, router, "/auth/refresh", gin.H{"refreshToken": "stale"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "token_expired", body["error"])
}

func TestRefresh_MissingToken(t *testing.T) {
	router := newTestRouter(&fakeVerifier{}, &fakeResolver{}, &fakeIssuer{})

	w := postJSON(t, router, "/auth/refresh", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOAuthLogin_UnknownProvider(t *testing.T) {
	router := newTestRouter(&fakeVerifier{}, &fakeResolver{}, &fakeIssuer{})

	req := httptest.NewRequest(http.MethodGet, "/oauth/login/linkedin", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
