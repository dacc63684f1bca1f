package apifake_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/campaign-tracker/internal/apifake"
	cterrors "github.com/jrsteele09/campaign-tracker/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
	User         struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

func post(t *testing.T, hc *http.Client, url string, body any, bearer string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := hc.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, hc *http.Client, url, bearer string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := hc.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func login(t *testing.T, hc *http.Client, url string) loginResponse {
	t.Helper()
	resp := post(t, hc, url+"/auth/login", map[string]string{"username": "alice", "password": "pw"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lr loginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lr))
	return lr
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Message
}

func TestLoginAndProtectedRoute(t *testing.T) {
	s, ts := apifake.NewHTTPTest(t)
	require.NoError(t, s.AddUser("alice", "pw"))

	bad := post(t, http.DefaultClient, ts.URL+"/auth/login", map[string]string{"username": "alice", "password": "nope"}, "")
	require.Equal(t, http.StatusUnauthorized, bad.StatusCode)

	lr := login(t, http.DefaultClient, ts.URL)
	require.NotEmpty(t, lr.AccessToken)
	require.NotEmpty(t, lr.RefreshToken)
	require.Equal(t, "alice", lr.User.Username)
	require.Greater(t, lr.ExpiresAt, time.Now().Unix())

	require.Equal(t, http.StatusUnauthorized, get(t, http.DefaultClient, ts.URL+"/journal", "").StatusCode)
	require.Equal(t, http.StatusOK, get(t, http.DefaultClient, ts.URL+"/journal", lr.AccessToken).StatusCode)
	require.Equal(t, 2, s.Calls(apifake.RouteLogin))
	require.Equal(t, 2, s.Calls(apifake.RouteJournalList))
}

func TestExpireAccessTokens(t *testing.T) {
	s, ts := apifake.NewHTTPTest(t)
	require.NoError(t, s.AddUser("alice", "pw"))
	lr := login(t, http.DefaultClient, ts.URL)

	s.ExpireAccessTokens()
	require.Equal(t, http.StatusUnauthorized, get(t, http.DefaultClient, ts.URL+"/auth/me", lr.AccessToken).StatusCode)
}

func TestRefreshRotatesToken(t *testing.T) {
	s, ts := apifake.NewHTTPTest(t)
	require.NoError(t, s.AddUser("alice", "pw"))
	lr := login(t, http.DefaultClient, ts.URL)

	resp := post(t, http.DefaultClient, ts.URL+"/auth/refresh", map[string]string{"refreshToken": lr.RefreshToken}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var refreshed loginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&refreshed))
	require.NotEqual(t, lr.RefreshToken, refreshed.RefreshToken)

	reused := post(t, http.DefaultClient, ts.URL+"/auth/refresh", map[string]string{"refreshToken": lr.RefreshToken}, "")
	require.Equal(t, http.StatusUnauthorized, reused.StatusCode)
}

func TestCookieOnlyRefresh(t *testing.T) {
	s, ts := apifake.NewHTTPTest(t, apifake.WithCookieOnlyRefresh())
	require.NoError(t, s.AddUser("alice", "pw"))
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	hc := &http.Client{Jar: jar}

	lr := login(t, hc, ts.URL)
	require.Empty(t, lr.RefreshToken)

	resp := post(t, hc, ts.URL+"/auth/refresh", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	logout := post(t, hc, ts.URL+"/auth/refresh/logout", nil, "")
	require.Equal(t, http.StatusNoContent, logout.StatusCode)
	require.Equal(t, http.StatusUnauthorized, post(t, hc, ts.URL+"/auth/refresh", nil, "").StatusCode)
}

func TestFailureHooks(t *testing.T) {
	s, ts := apifake.NewHTTPTest(t)
	require.NoError(t, s.AddUser("alice", "pw"))
	lr := login(t, http.DefaultClient, ts.URL)

	s.SetFailRefresh(true)
	require.Equal(t, http.StatusUnauthorized, post(t, http.DefaultClient, ts.URL+"/auth/refresh", map[string]string{"refreshToken": lr.RefreshToken}, "").StatusCode)

	s.SetFailLogout(true)
	require.Equal(t, http.StatusInternalServerError, post(t, http.DefaultClient, ts.URL+"/auth/logout", nil, "").StatusCode)

	s.SetOmitAccessToken(true)
	require.Empty(t, login(t, http.DefaultClient, ts.URL).AccessToken)
}

func TestRegister(t *testing.T) {
	s, ts := apifake.NewHTTPTest(t)
	resp := post(t, http.DefaultClient, ts.URL+"/auth/register", map[string]string{"username": "bob", "password": "pw"}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var lr loginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lr))
	require.Empty(t, lr.AccessToken)
	require.Equal(t, "bob", lr.User.Username)

	dup := post(t, http.DefaultClient, ts.URL+"/auth/register", map[string]string{"username": "bob", "password": "pw"}, "")
	require.Equal(t, http.StatusConflict, dup.StatusCode)
	require.Equal(t, 2, s.Calls(apifake.RouteRegister))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, ts := apifake.NewHTTPTest(t, apifake.WithMetrics(reg))
	get(t, http.DefaultClient, ts.URL+"/journal", "")

	count, err := testutil.GatherAndCount(reg, "campaign_fakeapi_requests_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestErrorMessages(t *testing.T) {
	var skew atomic.Int64
	now := func() time.Time { return time.Now().Add(time.Duration(skew.Load())) }
	s, ts := apifake.NewHTTPTest(t, apifake.WithNowFunc(now), apifake.WithAccessTokenTTL(time.Minute))
	require.NoError(t, s.AddUser("alice", "pw"))

	bad := post(t, http.DefaultClient, ts.URL+"/auth/login", map[string]string{"username": "alice", "password": "nope"}, "")
	require.Equal(t, cterrors.ErrInvalidCredentials.Error(), errorMessage(t, bad))

	bogus := get(t, http.DefaultClient, ts.URL+"/auth/me", "not-a-jwt")
	require.Equal(t, http.StatusUnauthorized, bogus.StatusCode)
	require.Equal(t, cterrors.ErrInvalidToken.Error(), errorMessage(t, bogus))

	lr := login(t, http.DefaultClient, ts.URL)
	skew.Store(int64(time.Hour))
	expired := get(t, http.DefaultClient, ts.URL+"/auth/me", lr.AccessToken)
	require.Equal(t, http.StatusUnauthorized, expired.StatusCode)
	require.Equal(t, cterrors.ErrTokenExpired.Error(), errorMessage(t, expired))

	unknown := post(t, http.DefaultClient, ts.URL+"/auth/refresh", map[string]string{"refreshToken": "unknown"}, "")
	require.Equal(t, http.StatusUnauthorized, unknown.StatusCode)
	require.Equal(t, cterrors.ErrInvalidRefreshToken.Error(), errorMessage(t, unknown))

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/auth/register", bytes.NewBufferString("{"))
	require.NoError(t, err)
	malformed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer malformed.Body.Close()
	require.Equal(t, http.StatusBadRequest, malformed.StatusCode)
	require.Equal(t, cterrors.ErrInvalidRequest.Error(), errorMessage(t, malformed))
}
