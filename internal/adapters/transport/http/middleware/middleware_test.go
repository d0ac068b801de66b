package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseBearer(t *testing.T) {
	cases := map[string]struct {
		header string
		token  string
		ok     bool
	}{
		"valid":        {"Bearer abc.def", "abc.def", true},
		"lower scheme": {"bearer abc", "abc", true},
		"padded":       {"  Bearer   abc  ", "abc", true},
		"empty":        {"", "", false},
		"no token":     {"Bearer ", "", false},
		"basic":        {"Basic dXNlcg==", "", false},
		"bare token":   {"abc", "", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			token, ok := ParseBearer(tc.header)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.token, token)
		})
	}
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", BearerToken(), func(c *gin.Context) { c.String(http.StatusOK, Token(c)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "tok", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"error":"Missing Authorization Header"}`, w.Body.String())
}

func TestRequestLogger_RedactsCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("Cookie", "session=secret-cookie")
	r.ServeHTTP(httptest.NewRecorder(), req)

	incoming := logs.FilterMessage("incoming request").All()
	require.Len(t, incoming, 1)
	hdr := incoming[0].ContextMap()["hdr"].(string)
	require.NotContains(t, hdr, "secret-token")
	require.NotContains(t, hdr, "secret-cookie")
	require.Contains(t, hdr, redacted)

	done := logs.FilterMessage("completed").All()
	require.Len(t, done, 1)
	require.EqualValues(t, http.StatusTeapot, done[0].ContextMap()["status"])
}

func TestRequestLogger_Aborted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/x", BearerToken(), func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, 1, logs.FilterMessage("aborted").Len())
	require.Zero(t, logs.FilterMessage("completed").Len())
}

func TestMetrics_CountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := gin.New()
	r.Use(m.Handler())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, p := range []string{"/items/1", "/items/2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	require.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/items/:id", http.MethodGet, "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("unmatched", http.MethodGet, "404")))
	require.Equal(t, 2, testutil.CollectAndCount(m.latency))
}
