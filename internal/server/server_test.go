package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/discog/internal/shared"
)

func newTokenServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		if status != http.StatusOK {
			http.Error(w, `{"error":"server_error"}`, status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"access","refresh_token":"refresh","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{AuthURL: "https://accounts.example/authorize", TokenURL: tokenURL},
		RedirectURL:  "http://127.0.0.1:3000/callback",
	}
}

func TestOAuthHandler(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		tokenCode  int
		wantStatus int
		wantToken  bool
		wantErr    error
	}{
		{name: "success", query: "state=abc&code=good-code", tokenCode: http.StatusOK, wantStatus: http.StatusOK, wantToken: true},
		{name: "state mismatch", query: "state=nope&code=good-code", tokenCode: http.StatusOK, wantStatus: http.StatusBadRequest, wantErr: shared.ErrAuthFailed},
		{name: "access denied", query: "state=abc&error=access_denied", tokenCode: http.StatusOK, wantStatus: http.StatusBadRequest, wantErr: shared.ErrAuthFailed},
		{name: "exchange fails", query: "state=abc&code=good-code", tokenCode: http.StatusInternalServerError, wantStatus: http.StatusInternalServerError, wantErr: shared.ErrAuthFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenSrv := newTokenServer(t, tt.tokenCode)
			handler := NewOAuthHandler(newConfig(tokenSrv.URL), "abc")

			router := NewBasicRouter()
			router.Handler(handler)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?"+tt.query, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			token, err := handler.Wait(ctx, nil)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantToken && (token.AccessToken != "access" || token.RefreshToken != "refresh") {
				t.Errorf("unexpected token %+v", token)
			}
			if !strings.Contains(rec.Body.String(), "Authorization Successful") {
				t.Error("expected success page")
			}
		})
	}
}

func TestOAuthHandlerSingleUse(t *testing.T) {
	tokenSrv := newTokenServer(t, http.StatusOK)
	handler := NewOAuthHandler(newConfig(tokenSrv.URL), "abc")

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/callback?state=abc&code=good-code", nil))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/callback?state=abc&code=good-code", nil))

	if first.Code != http.StatusOK || second.Code != http.StatusBadRequest {
		t.Errorf("expected 200 then 400, got %d then %d", first.Code, second.Code)
	}

	n := 0
	for range handler.Result() {
		n++
	}
	if n != 1 {
		t.Errorf("expected exactly one result, got %d", n)
	}
}

func TestOAuthHandlerWait(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		handler := NewOAuthHandler(newConfig("http://unused"), "abc")
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		if _, err := handler.Wait(ctx, nil); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		handler := NewOAuthHandler(newConfig("http://unused"), "abc")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := handler.Wait(ctx, nil); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("nil token", func(t *testing.T) {
		handler := NewOAuthHandler(newConfig("http://unused"), "abc")
		handler.Send(OAuthResult{})

		if _, err := handler.Wait(context.Background(), nil); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})
}

func TestOAuthHandlerWithPath(t *testing.T) {
	handler := NewOAuthHandler(newConfig("http://unused"), "abc").WithPath("/spotify/callback")
	if got := handler.Routes(); len(got) != 1 || got[0] != "/spotify/callback" {
		t.Errorf("unexpected routes %v", got)
	}

	handler = NewOAuthHandler(newConfig("http://unused"), "abc").WithPath("")
	if got := handler.Routes(); got[0] != "/callback" {
		t.Errorf("empty path should keep the default, got %v", got)
	}
}

func TestBasicRouter(t *testing.T) {
	t.Run("method filtering", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle("get", "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "pong")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
			t.Errorf("unexpected response %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("request logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)
		logger.SetLevel(log.DebugLevel)

		router := NewBasicRouter()
		router.Use(RequestLogger(logger))
		router.Handle(http.MethodGet, "/teapot", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/teapot", nil))
		if out := buf.String(); !strings.Contains(out, "callback request") || !strings.Contains(out, "418") {
			t.Errorf("unexpected log output %q", out)
		}
	})
}

func TestCallbackServer(t *testing.T) {
	tokenSrv := newTokenServer(t, http.StatusOK)
	handler := NewOAuthHandler(newConfig(tokenSrv.URL), "abc")
	router := NewBasicRouter()
	router.Handler(handler)

	srv := NewCallbackServer("127.0.0.1:0", router)
	if err := srv.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	defer srv.Shutdown(context.Background())

	resp, err := http.Get("http://" + srv.Addr() + "/callback?state=abc&code=good-code")
	if err != nil {
		t.Fatalf("callback request failed: %v", err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	token, err := handler.Wait(ctx, srv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.AccessToken != "access" {
		t.Errorf("unexpected token %+v", token)
	}

	busy := NewCallbackServer(srv.Addr(), router)
	if err := busy.Start(); err == nil {
		busy.Shutdown(context.Background())
		t.Error("expected error binding an address in use")
	}
}
