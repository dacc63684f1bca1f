// Package apifake is an in-memory stand-in for the campaign tracker API. It
// backs the test suites and the devapi command, and exposes hooks to force
// the failure modes the client has to survive.
package apifake

import (
	"crypto/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const refreshCookieName = "refresh_token"

// Route names used by Calls.
const (
	RouteLogin         = "POST /auth/login"
	RouteRegister      = "POST /auth/register"
	RouteMe            = "GET /auth/me"
	RouteRefresh       = "POST /auth/refresh"
	RouteLogout        = "POST /auth/logout"
	RouteRefreshLogout = "POST /auth/refresh/logout"
	RouteJournalList   = "GET /journal"
	RouteJournalCreate = "POST /journal"
	RouteJournalUpdate = "PUT /journal/{id}"
	RouteJournalDelete = "DELETE /journal/{id}"
	RouteCompList      = "GET /compendium"
	RouteCompGet       = "GET /compendium/{key}"
	RouteCompCreate    = "POST /compendium"
	RouteCompUpdate    = "PUT /compendium/{id}"
	RouteCompDelete    = "DELETE /compendium/{id}"
)

// Server is an http.Handler implementing the remote API.
type Server struct {
	router *mux.Router
	logger zerolog.Logger
	now    func() time.Time

	mu            sync.Mutex
	users         map[string]*user  // username -> user
	refreshTokens map[string]string // refresh token -> username
	journal       map[string]map[string]*journalEntry
	compendium    map[string]map[string]*compendiumEntry
	secret        []byte
	generation    int
	accessTTL     time.Duration
	bcryptCost    int
	calls         map[string]int

	failRefresh       bool
	failLogout        bool
	omitAccessToken   bool
	cookieOnly        bool
	registerLogsIn    bool
	refreshGate       chan struct{}
	requestsCollector *prometheus.CounterVec
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithAccessTokenTTL sets how long issued access tokens stay valid.
func WithAccessTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = ttl
	}
}

func WithBcryptCost(cost int) Option {
	return func(s *Server) {
		s.bcryptCost = cost
	}
}

// WithCookieOnlyRefresh keeps refresh tokens out of response bodies, so
// clients must rely on the httpOnly cookie.
func WithCookieOnlyRefresh() Option {
	return func(s *Server) {
		s.cookieOnly = true
	}
}

// WithRegisterLogsIn makes /auth/register return a session like /auth/login.
func WithRegisterLogsIn() Option {
	return func(s *Server) {
		s.registerLogsIn = true
	}
}

// WithMetrics counts handled requests by route and status on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *Server) {
		s.requestsCollector = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "campaign_fakeapi_requests_total",
			Help: "Requests handled by the fake API, by route and status.",
		}, []string{"route", "status"})
	}
}

// New builds a server with a random signing secret.
func New(options ...Option) *Server {
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)

	s := &Server{
		logger:        zerolog.Nop(),
		now:           time.Now,
		users:         make(map[string]*user),
		refreshTokens: make(map[string]string),
		journal:       make(map[string]map[string]*journalEntry),
		compendium:    make(map[string]map[string]*compendiumEntry),
		secret:        secret,
		accessTTL:     15 * time.Minute,
		bcryptCost:    bcrypt.DefaultCost,
		calls:         make(map[string]int),
	}
	for _, opt := range options {
		opt(s)
	}
	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) initRoutes() {
	r := mux.NewRouter()
	r.Use(s.countingMiddleware, s.loggingMiddleware)

	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/auth/me", ChainMiddleware(s.handleMe, s.requireAuth)).Methods(http.MethodGet)
	r.HandleFunc("/auth/refresh", s.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh/logout", s.handleLogout).Methods(http.MethodPost)

	r.HandleFunc("/journal", ChainMiddleware(s.handleJournalList, s.requireAuth)).Methods(http.MethodGet)
	r.HandleFunc("/journal", ChainMiddleware(s.handleJournalCreate, s.requireAuth)).Methods(http.MethodPost)
	r.HandleFunc("/journal/{id}", ChainMiddleware(s.handleJournalUpdate, s.requireAuth)).Methods(http.MethodPut)
	r.HandleFunc("/journal/{id}", ChainMiddleware(s.handleJournalDelete, s.requireAuth)).Methods(http.MethodDelete)

	r.HandleFunc("/compendium", ChainMiddleware(s.handleCompendiumList, s.requireAuth)).Methods(http.MethodGet)
	r.HandleFunc("/compendium/{key}", ChainMiddleware(s.handleCompendiumGet, s.requireAuth)).Methods(http.MethodGet)
	r.HandleFunc("/compendium", ChainMiddleware(s.handleCompendiumCreate, s.requireAuth)).Methods(http.MethodPost)
	r.HandleFunc("/compendium/{id}", ChainMiddleware(s.handleCompendiumUpdate, s.requireAuth)).Methods(http.MethodPut)
	r.HandleFunc("/compendium/{id}", ChainMiddleware(s.handleCompendiumDelete, s.requireAuth)).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	s.router = r
}

// AddUser registers an account directly, bypassing /auth/register.
func (s *Server) AddUser(username, password string) error {
	_, err := s.createUser(username, password)
	return err
}

// Calls returns how many requests matched route, e.g. RouteRefresh.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// ExpireAccessTokens invalidates every access token issued so far.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
}

// RevokeRefreshTokens forgets every refresh token issued so far.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshTokens = make(map[string]string)
}

// SetFailRefresh makes /auth/refresh answer 401 while set.
func (s *Server) SetFailRefresh(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

// SetFailLogout makes the logout endpoints answer 500 while set.
func (s *Server) SetFailLogout(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLogout = fail
}

// SetOmitAccessToken makes /auth/login succeed without an accessToken field.
func (s *Server) SetOmitAccessToken(omit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitAccessToken = omit
}

// HoldRefresh blocks /auth/refresh handlers until the returned release is called.
func (s *Server) HoldRefresh() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.refreshGate = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.refreshGate == gate {
				s.refreshGate = nil
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}
