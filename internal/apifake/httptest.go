package apifake

import (
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// NewHTTPTest starts s behind an httptest.Server closed at the end of the
// test. bcrypt runs at its minimum cost unless options say otherwise.
func NewHTTPTest(tb testing.TB, options ...Option) (*Server, *httptest.Server) {
	tb.Helper()
	s := New(append([]Option{WithBcryptCost(bcrypt.MinCost)}, options...)...)
	ts := httptest.NewServer(s)
	tb.Cleanup(ts.Close)
	return s, ts
}
