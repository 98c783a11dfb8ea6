package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newCSRFTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CSRF())
	r.GET("/form", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.POST("/submit", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func csrfTokenFromResponse(t *testing.T, w *httptest.ResponseRecorder) (*http.Cookie, string) {
	t.Helper()

	res := w.Result()
	defer res.Body.Close()

	for _, cookie := range res.Cookies() {
		if cookie.Name == CSRFCookieName {
			return cookie, w.Header().Get(CSRFHeaderName)
		}
	}

	t.Fatalf("csrf cookie not issued")
	return nil, ""
}

func TestCSRFIssuesTokenOnSafeMethod(t *testing.T) {
	r := newCSRFTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/form", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	cookie, header := csrfTokenFromResponse(t, w)
	require.NotEmpty(t, cookie.Value)
	require.Equal(t, cookie.Value, header)
}

func TestCSRFRejectsMissingHeader(t *testing.T) {
	r := newCSRFTestRouter()

	seed := httptest.NewRecorder()
	r.ServeHTTP(seed, httptest.NewRequest(http.MethodGet, "/form", nil))
	cookie, _ := csrfTokenFromResponse(t, seed)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.AddCookie(cookie)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestCSRFRejectsMismatchedHeader(t *testing.T) {
	r := newCSRFTestRouter()

	seed := httptest.NewRecorder()
	r.ServeHTTP(seed, httptest.NewRequest(http.MethodGet, "/form", nil))
	cookie, _ := csrfTokenFromResponse(t, seed)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.AddCookie(cookie)
	req.Header.Set(CSRFHeaderName, "forged-token")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestCSRFAcceptsMatchingHeader(t *testing.T) {
	r := newCSRFTestRouter()

	seed := httptest.NewRecorder()
	r.ServeHTTP(seed, httptest.NewRequest(http.MethodGet, "/form", nil))
	cookie, _ := csrfTokenFromResponse(t, seed)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.AddCookie(cookie)
	req.Header.Set(CSRFHeaderName, cookie.Value)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestCSRFSkipsBearerAuthenticatedRequests(t *testing.T) {
	r := newCSRFTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestCSRFSkipsOptions(t *testing.T) {
	r := newCSRFTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/submit", nil)
	r.ServeHTTP(w, req)

	require.NotEqual(t, http.StatusForbidden, w.Code)
}
