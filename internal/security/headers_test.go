package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func serveWith(mw gin.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw)
	router.GET("/board", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHeadersMiddleware_SetsHardeningHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "/board", nil)
	w := serveWith(HeadersMiddleware(), req)

	for header, want := range responseHeaders {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestHeadersMiddleware_CSPAllowsBoardAssets(t *testing.T) {
	req := httptest.NewRequest("GET", "/board", nil)
	w := serveWith(HeadersMiddleware(), req)

	csp := w.Header().Get("Content-Security-Policy")
	if csp == "" {
		t.Fatal("Content-Security-Policy not set")
	}
	// The board page needs inline script/style, Google fonts, and the
	// /ws feed; a CSP change that drops these breaks it silently.
	for _, directive := range []string{"'unsafe-inline'", "fonts.googleapis.com", "wss:"} {
		if !strings.Contains(csp, directive) {
			t.Errorf("CSP missing %q: %s", directive, csp)
		}
	}
}

func TestCORSMiddleware_OriginFiltering(t *testing.T) {
	tests := []struct {
		name           string
		allowedOrigins []string
		requestOrigin  string
		wantAllowed    bool
	}{
		{
			name:           "pinned origin matches",
			allowedOrigins: []string{"https://floor.example.com"},
			requestOrigin:  "https://floor.example.com",
			wantAllowed:    true,
		},
		{
			name:           "wildcard admits anything",
			allowedOrigins: []string{"*"},
			requestOrigin:  "https://anything.example",
			wantAllowed:    true,
		},
		{
			name:           "empty list admits anything",
			allowedOrigins: nil,
			requestOrigin:  "https://anything.example",
			wantAllowed:    true,
		},
		{
			name:           "unlisted origin rejected",
			allowedOrigins: []string{"https://floor.example.com"},
			requestOrigin:  "https://evil.example",
			wantAllowed:    false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/board", nil)
			req.Header.Set("Origin", tc.requestOrigin)
			w := serveWith(CORSMiddleware(tc.allowedOrigins), req)

			gotAllowed := w.Header().Get("Access-Control-Allow-Origin") != ""
			if gotAllowed != tc.wantAllowed {
				t.Errorf("Allow-Origin present = %v, want %v", gotAllowed, tc.wantAllowed)
			}
		})
	}
}

func TestCORSMiddleware_NoCredentialsWithWildcard(t *testing.T) {
	req := httptest.NewRequest("GET", "/board", nil)
	req.Header.Set("Origin", "https://anything.example")
	w := serveWith(CORSMiddleware([]string{"*"}), req)

	if w.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("wildcard origins must not offer credentials")
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	req := httptest.NewRequest("OPTIONS", "/board", nil)
	req.Header.Set("Origin", "https://floor.example.com")
	w := serveWith(CORSMiddleware([]string{"https://floor.example.com"}), req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("Access-Control-Allow-Methods not set on preflight")
	}
}
