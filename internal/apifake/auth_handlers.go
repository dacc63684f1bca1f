package apifake

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	cterrors "github.com/jrsteele09/campaign-tracker/internal/errors"
)

var errUsernameTaken = errors.New("username already taken")

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	Status       string      `json:"status"`
	Message      string      `json:"message,omitempty"`
	User         *publicUser `json:"user,omitempty"`
	AccessToken  string      `json:"accessToken,omitempty"`
	RefreshToken string      `json:"refreshToken,omitempty"`
	ExpiresAt    int64       `json:"expiresAt,omitempty"`
}

func (s *Server) createUser(username, password string) (*user, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, cterrors.ErrMissingCredentials
	}
	hash, err := hashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; exists {
		return nil, errUsernameTaken
	}
	u := &user{ID: uuid.NewString(), Username: username, PasswordHash: hash, DateJoined: s.now()}
	s.users[username] = u
	return u, nil
}

// session issues a token pair for u and sets the refresh cookie. Callers hold s.mu.
func (s *Server) session(w http.ResponseWriter, u *user) (*authResponse, error) {
	access, expiry, err := s.issueAccessToken(u)
	if err != nil {
		return nil, err
	}
	refresh := s.issueRefreshToken(u.Username)
	setRefreshCookie(w, refresh, 7*24*time.Hour)

	resp := &authResponse{
		Status:      "success",
		User:        u.public(),
		AccessToken: access,
		ExpiresAt:   expiry.Unix(),
	}
	if !s.cookieOnly {
		resp.RefreshToken = refresh
	}
	return resp, nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, cterrors.ErrInvalidRequest.Error())
		return
	}
	u, err := s.createUser(req.Username, req.Password)
	switch {
	case errors.Is(err, cterrors.ErrMissingCredentials):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, errUsernameTaken):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.registerLogsIn {
		writeJSON(w, http.StatusCreated, authResponse{Status: "success", User: u.public()})
		return
	}
	resp, err := s.session(w, u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, cterrors.ErrInvalidRequest.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.TrimSpace(req.Username)]
	if !ok || !checkPasswordHash(req.Password, u.PasswordHash) {
		writeError(w, http.StatusUnauthorized, cterrors.ErrInvalidCredentials.Error())
		return
	}

	resp, err := s.session(w, u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if s.omitAccessToken {
		resp.AccessToken = ""
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[usernameFrom(r)]
	writeJSON(w, http.StatusOK, authResponse{Status: "success", User: u.public()})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	gate := s.refreshGate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	token := refreshTokenFrom(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRefresh {
		writeError(w, http.StatusUnauthorized, "refresh token expired")
		return
	}
	username, ok := s.refreshTokens[token]
	if token == "" || !ok {
		writeError(w, http.StatusUnauthorized, cterrors.ErrInvalidRefreshToken.Error())
		return
	}
	delete(s.refreshTokens, token)

	resp, err := s.session(w, s.users[username])
	if err != nil {
		writeError(w, http.StatusInternalServerError, "refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := refreshTokenFrom(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLogout {
		writeError(w, http.StatusInternalServerError, "logout unavailable")
		return
	}
	delete(s.refreshTokens, token)
	setRefreshCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// refreshTokenFrom prefers the JSON body and falls back to the cookie.
func refreshTokenFrom(r *http.Request) string {
	var req refreshRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func setRefreshCookie(w http.ResponseWriter, value string, maxAge time.Duration) {
	cookie := &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/auth",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		cookie.MaxAge = -1
	} else {
		cookie.MaxAge = int(maxAge.Seconds())
	}
	http.SetCookie(w, cookie)
}
