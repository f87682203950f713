package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackzampolin/easel/internal/svcctx"
)

func newTestServer(t *testing.T, token string) *Server {
	t.Helper()
	srv, err := New(Config{
		AuthToken: token,
		Services:  &svcctx.Services{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func serve(srv *Server, method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	srv := newTestServer(t, "secret")

	if rec := serve(srv, "GET", "/api/sessions/x", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token status = %d, want 401", rec.Code)
	}
	if rec := serve(srv, "GET", "/api/sessions/x", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", rec.Code)
	}

	// Correct token clears auth; the empty service wiring then reports 503.
	if rec := serve(srv, "GET", "/api/sessions/x", "secret"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("valid token status = %d, want 503 from empty services", rec.Code)
	}
}

func TestOpenRoutesSkipAuth(t *testing.T) {
	srv := newTestServer(t, "secret")

	if rec := serve(srv, "GET", "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200 without a token", rec.Code)
	}
	// Downloads stay open so finalize URLs work in a browser; with no
	// document store wired the handler reports 503, never 401.
	if rec := serve(srv, "GET", "/api/documents/x", ""); rec.Code == http.StatusUnauthorized {
		t.Error("download route must not require auth")
	}
}

func TestEmptyTokenDisablesAuth(t *testing.T) {
	srv := newTestServer(t, "")

	if rec := serve(srv, "GET", "/api/sessions/x", ""); rec.Code == http.StatusUnauthorized {
		t.Error("empty configured token must disable the auth check")
	}
}

func TestAddrDefaults(t *testing.T) {
	srv := newTestServer(t, "")
	if srv.Addr() != "127.0.0.1:8383" {
		t.Errorf("addr = %q", srv.Addr())
	}
}
