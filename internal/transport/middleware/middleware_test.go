package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/calendar-sharing/internal/auth"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

var _ = Describe("CSRF", func() {
	var handler http.Handler

	BeforeEach(func() {
		handler = CSRF("/v1/auth")(okHandler)
	})

	do := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	It("lets safe methods through untouched", func() {
		req := httptest.NewRequest(http.MethodGet, "/v1/calendars", nil)
		req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "jwt"})

		Expect(do(req).Code).To(Equal(http.StatusOK))
	})

	It("skips exempt prefixes", func() {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "jwt"})

		Expect(do(req).Code).To(Equal(http.StatusOK))
	})

	It("ignores requests without a session cookie", func() {
		req := httptest.NewRequest(http.MethodPost, "/v1/calendars", nil)
		req.Header.Set("Authorization", "Bearer jwt")

		Expect(do(req).Code).To(Equal(http.StatusOK))
	})

	It("rejects a cookie session without the matching header", func() {
		req := httptest.NewRequest(http.MethodPost, "/v1/calendars", nil)
		req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "jwt"})
		req.AddCookie(&http.Cookie{Name: auth.CSRFTokenCookie, Value: "abc"})

		Expect(do(req).Code).To(Equal(http.StatusForbidden))
	})

	It("rejects a mismatched header", func() {
		req := httptest.NewRequest(http.MethodPost, "/v1/calendars", nil)
		req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "jwt"})
		req.AddCookie(&http.Cookie{Name: auth.CSRFTokenCookie, Value: "abc"})
		req.Header.Set("X-CSRF-Token", "xyz")

		Expect(do(req).Code).To(Equal(http.StatusForbidden))
	})

	It("accepts the double-submit pair", func() {
		req := httptest.NewRequest(http.MethodPost, "/v1/calendars", nil)
		req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "jwt"})
		req.AddCookie(&http.Cookie{Name: auth.CSRFTokenCookie, Value: "abc"})
		req.Header.Set("X-CSRF-Token", "abc")

		Expect(do(req).Code).To(Equal(http.StatusOK))
	})
})

var _ = Describe("CORS", func() {
	do := func(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	It("echoes an allowed origin", func() {
		handler := CORS("http://localhost:3000")(okHandler)
		req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
		req.Header.Set("Origin", "http://localhost:3000")

		rec := do(handler, req)
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("http://localhost:3000"))
	})

	It("withholds the header for an unknown origin", func() {
		handler := CORS("http://localhost:3000")(okHandler)
		req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
		req.Header.Set("Origin", "http://evil.example.com")

		rec := do(handler, req)
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})

	It("short-circuits preflight requests", func() {
		handler := CORS("http://localhost:3000")(okHandler)
		req := httptest.NewRequest(http.MethodOptions, "/v1/calendars", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)

		rec := do(handler, req)
		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(rec.Header().Get("Access-Control-Allow-Methods")).NotTo(BeEmpty())
	})

	It("allows any origin with a wildcard", func() {
		handler := CORS("*")(okHandler)
		req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
		req.Header.Set("Origin", "http://anywhere.example.com")

		rec := do(handler, req)
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("http://anywhere.example.com"))
	})
})
