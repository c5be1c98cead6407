package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/urlshortcut/urlshortcut/internal/auth"
	"github.com/urlshortcut/urlshortcut/internal/model"
	"github.com/urlshortcut/urlshortcut/internal/service"
)

var errUnexpectedCall = errors.New("unexpected call")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubOwners struct {
	register func(service.RegisterOwnerInput) (*model.Owner, error)
	get      func(principal, id string) (*service.OwnerDetails, error)
	update   func(principal, id, password string) (bool, error)
	del      func(principal, id string) error
}

func (s *stubOwners) Register(_ context.Context, in service.RegisterOwnerInput) (*model.Owner, error) {
	if s.register == nil {
		return nil, errUnexpectedCall
	}
	return s.register(in)
}

func (s *stubOwners) Get(_ context.Context, principal, id string) (*service.OwnerDetails, error) {
	if s.get == nil {
		return nil, errUnexpectedCall
	}
	return s.get(principal, id)
}

func (s *stubOwners) UpdatePassword(_ context.Context, principal, id, password string) (bool, error) {
	if s.update == nil {
		return false, errUnexpectedCall
	}
	return s.update(principal, id, password)
}

func (s *stubOwners) Delete(_ context.Context, principal, id string) error {
	if s.del == nil {
		return errUnexpectedCall
	}
	return s.del(principal, id)
}

type stubTokens struct {
	issue func(id, password string) (*model.IssuedToken, error)
}

func (s *stubTokens) Issue(_ context.Context, id, password string) (*model.IssuedToken, error) {
	if s.issue == nil {
		return nil, errUnexpectedCall
	}
	return s.issue(id, password)
}

type stubURLs struct {
	create  func(principal string, in service.CreateURLInput) (*model.ShortURL, error)
	get     func(principal, id string) (*service.URLDetails, error)
	del     func(principal, id string) error
	resolve func(id string) (*model.ShortURL, error)
}

func (s *stubURLs) Create(_ context.Context, principal string, in service.CreateURLInput) (*model.ShortURL, error) {
	if s.create == nil {
		return nil, errUnexpectedCall
	}
	return s.create(principal, in)
}

func (s *stubURLs) Get(_ context.Context, principal, id string) (*service.URLDetails, error) {
	if s.get == nil {
		return nil, errUnexpectedCall
	}
	return s.get(principal, id)
}

func (s *stubURLs) Delete(_ context.Context, principal, id string) error {
	if s.del == nil {
		return errUnexpectedCall
	}
	return s.del(principal, id)
}

func (s *stubURLs) Resolve(_ context.Context, id string) (*model.ShortURL, error) {
	if s.resolve == nil {
		return nil, errUnexpectedCall
	}
	return s.resolve(id)
}

var testTokenConfig = auth.TokenConfig{
	Issuer:    "localhost",
	Algorithm: "HS256",
	Secret:    []byte(strings.Repeat("0123456789abcdef", 4)),
	TTL:       time.Hour,
}

// testAPI is a router wired to stub services and a real token verifier.
type testAPI struct {
	handler http.Handler
	issuer  *auth.TokenIssuer
	owners  *stubOwners
	tokens  *stubTokens
	urls    *stubURLs
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	issuer, err := auth.NewTokenIssuer(testTokenConfig)
	require.NoError(t, err)
	verifier, err := auth.NewTokenVerifier(testTokenConfig)
	require.NoError(t, err)

	api := &testAPI{
		issuer: issuer,
		owners: &stubOwners{},
		tokens: &stubTokens{},
		urls:   &stubURLs{},
	}
	api.handler = NewRouter(RouterConfig{
		Logger:   discardLogger(),
		Verifier: verifier,
		Owners:   api.owners,
		Tokens:   api.tokens,
		URLs:     api.urls,
	})
	return api
}

// token returns a fresh bearer token for identity.
func (a *testAPI) token(t *testing.T, identity string) string {
	t.Helper()
	issued, err := a.issuer.Issue(identity)
	require.NoError(t, err)
	return issued.Token
}

func (a *testAPI) do(method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}
