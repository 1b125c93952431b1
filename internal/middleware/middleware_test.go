package middleware

import (
    "io"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/testutil"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/smart-parking/internal/config"
    "github.com/iliyamo/smart-parking/internal/logging"
    "github.com/iliyamo/smart-parking/internal/utils"
)

const testSecret = "test-secret"

func whoami(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"sub": OperatorID(c), "role": Role(c)})
}

func newProtected() *echo.Echo {
    e := echo.New()
    e.GET("/me", whoami, JWTAuth(testSecret), RequireRole(utils.RoleOperator))
    return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func bearer(t *testing.T, claims jwt.MapClaims) string {
    t.Helper()
    s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
    require.NoError(t, err)
    return "Bearer " + s
}

func TestJWTAuthAcceptsOperatorToken(t *testing.T) {
    tok, err := utils.NewAccessToken(testSecret, "operator", utils.RoleOperator, time.Minute)
    require.NoError(t, err)

    req := httptest.NewRequest(http.MethodGet, "/me", nil)
    req.Header.Set("Authorization", "Bearer "+tok.Token)
    rec := serve(newProtected(), req)

    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"sub":"operator","role":"OPERATOR"}`, rec.Body.String())
}

func TestJWTAuthRejections(t *testing.T) {
    exp := time.Now().Add(time.Minute).Unix()
    cases := []struct {
        name   string
        header string
        status int
    }{
        {"missing header", "", http.StatusUnauthorized},
        {"not bearer", "Basic abc", http.StatusUnauthorized},
        {"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
        {"expired", bearer(t, jwt.MapClaims{"sub": "x", "role": utils.RoleOperator, "typ": "access", "exp": time.Now().Add(-time.Minute).Unix()}), http.StatusUnauthorized},
        {"no exp", bearer(t, jwt.MapClaims{"sub": "x", "role": utils.RoleOperator, "typ": "access"}), http.StatusUnauthorized},
        {"wrong type", bearer(t, jwt.MapClaims{"sub": "x", "role": utils.RoleOperator, "typ": "refresh", "exp": exp}), http.StatusUnauthorized},
        {"wrong role", bearer(t, jwt.MapClaims{"sub": "x", "role": "VIEWER", "typ": "access", "exp": exp}), http.StatusForbidden},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            req := httptest.NewRequest(http.MethodGet, "/me", nil)
            if tc.header != "" {
                req.Header.Set("Authorization", tc.header)
            }
            rec := serve(newProtected(), req)
            assert.Equal(t, tc.status, rec.Code)
            assert.Contains(t, rec.Body.String(), `"success":false`)
        })
    }
}

func TestOperatorIDDefaultsToAnon(t *testing.T) {
    e := echo.New()
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
    assert.Equal(t, "anon", OperatorID(c))
    assert.Empty(t, Role(c))
}

func TestRequestIDGeneratesAndReuses(t *testing.T) {
    e := echo.New()
    e.Use(RequestID())
    e.GET("/id", func(c echo.Context) error {
        return c.String(http.StatusOK, logging.RequestID(c.Request().Context()))
    })

    rec := serve(e, httptest.NewRequest(http.MethodGet, "/id", nil))
    generated := rec.Header().Get(HeaderRequestID)
    require.NotEmpty(t, generated)
    assert.Equal(t, generated, rec.Body.String())

    const incoming = "0b8a3c5e-4b1f-4c55-9a55-2f5f1d0f7a11"
    req := httptest.NewRequest(http.MethodGet, "/id", nil)
    req.Header.Set(HeaderRequestID, incoming)
    rec = serve(e, req)
    assert.Equal(t, incoming, rec.Header().Get(HeaderRequestID))

    req = httptest.NewRequest(http.MethodGet, "/id", nil)
    req.Header.Set(HeaderRequestID, "not a uuid")
    rec = serve(e, req)
    assert.NotEqual(t, "not a uuid", rec.Header().Get(HeaderRequestID))
}

func TestAccessLogRendersHandlerErrors(t *testing.T) {
    logging.SetOutput(io.Discard)
    e := echo.New()
    e.Use(AccessLog())
    e.GET("/boom", func(echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "teapot") })

    rec := serve(e, httptest.NewRequest(http.MethodGet, "/boom", nil))
    assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestHTTPMetricsCountsByRoute(t *testing.T) {
    reg := prometheus.NewRegistry()
    m, err := NewHTTPMetrics(reg)
    require.NoError(t, err)

    e := echo.New()
    e.Use(m.Middleware())
    e.GET("/slots/:id", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

    serve(e, httptest.NewRequest(http.MethodGet, "/slots/a", nil))
    serve(e, httptest.NewRequest(http.MethodGet, "/slots/b", nil))

    assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/slots/:id", "204")))
    assert.Equal(t, 0.0, testutil.ToFloat64(m.inflight))

    _, err = NewHTTPMetrics(reg)
    assert.Error(t, err, "duplicate registration")
}

func TestRedisBackedMiddlewarePassThroughWithoutClient(t *testing.T) {
    calls := 0
    e := echo.New()
    e.GET("/x", func(c echo.Context) error { calls++; return c.String(http.StatusOK, "x") },
        NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil),
        NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil),
        InvalidateCache(config.CacheConfig{Enabled: true}, nil),
    )
    for i := 0; i < 3; i++ {
        rec := serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))
        assert.Equal(t, http.StatusOK, rec.Code)
        assert.Empty(t, rec.Header().Get("X-Cache"))
    }
    assert.Equal(t, 3, calls)
}

func TestPayloadRoundTrip(t *testing.T) {
    hdr := http.Header{"Content-Type": {"application/json"}}
    bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"success":true}`))
    require.NoError(t, err)

    status, gotHdr, body, ok := decodePayload(bs)
    require.True(t, ok)
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
    assert.Equal(t, `{"success":true}`, string(body))

    _, _, _, ok = decodePayload([]byte{0, 1})
    assert.False(t, ok)
}

func TestCacheKeyIncludesGenerationAndParams(t *testing.T) {
    e := echo.New()
    cfg := config.CacheConfig{Prefix: "p", KeyStrategy: "route_query"}
    mk := func(id string) echo.Context {
        c := e.NewContext(httptest.NewRequest(http.MethodGet, "/slots/"+id+"?x=1", nil), httptest.NewRecorder())
        c.SetPath("/slots/:id")
        c.SetParamNames("id")
        c.SetParamValues(id)
        return c
    }
    a0 := cacheKeyFrom(cfg, 0, mk("a"))
    assert.Equal(t, a0, cacheKeyFrom(cfg, 0, mk("a")))
    assert.NotEqual(t, a0, cacheKeyFrom(cfg, 1, mk("a")))
    assert.NotEqual(t, a0, cacheKeyFrom(cfg, 0, mk("b")))
    assert.Contains(t, a0, "p:0:")
}

func TestRateKeyStrategies(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/parking-space/vehicle", nil)
    req.RemoteAddr = "10.0.0.1:1234"
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/parking-space/vehicle")
    c.Set(ctxOperatorID, "op")

    assert.Equal(t, "rl:ip:10.0.0.1", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
    assert.Equal(t, "rl:ip:10.0.0.1:route:POST /parking-space/vehicle", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}, c))
    assert.Equal(t, "rl:ip:10.0.0.1:user:op:route:POST /parking-space/vehicle", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}, c))
    assert.Equal(t, 2, retryAfterSeconds(1500))

    anon := httptest.NewRequest(http.MethodGet, "/x", nil)
    anon.RemoteAddr = ""
    assert.Equal(t, "rl:ip:unknown", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, e.NewContext(anon, httptest.NewRecorder())))
}

func TestAsInt64(t *testing.T) {
    cases := []struct {
        in   interface{}
        want int64
    }{
        {int64(7), 7},
        {int32(7), 7},
        {7, 7},
        {float64(7.9), 7},
        {float32(7), 7},
        {"42", 42},
        {"x", 0},
        {nil, 0},
    }
    for _, tc := range cases {
        assert.Equal(t, tc.want, asInt64(tc.in), "%#v", tc.in)
    }
}
