package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guru-1432/workout-app/internal/metrics"
	"github.com/guru-1432/workout-app/internal/middleware"
	"github.com/guru-1432/workout-app/internal/model"
	"github.com/guru-1432/workout-app/internal/service"
)

type fakeResolver struct {
	users map[string]model.User
	err   error
}

func (f fakeResolver) ResolveSessionToken(_ context.Context, token string) (model.User, error) {
	if f.err != nil {
		return model.User{}, f.err
	}
	u, ok := f.users[token]
	if !ok {
		return model.User{}, service.ErrUnauthenticated
	}
	return u, nil
}

func whoAmI(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.String(http.StatusTeapot, "no user")
	}
	return c.String(http.StatusOK, u.Email)
}

func TestBearerAuth(t *testing.T) {
	resolver := fakeResolver{users: map[string]model.User{
		"good": {ID: 1, Email: "alice@x.com", IsActive: true},
	}}

	testCases := []struct {
		name               string
		header             string
		resolver           fakeResolver
		expectedStatusCode int
		expectedBody       string
		expectChallenge    bool
	}{
		{
			name:               "ValidToken",
			header:             "Bearer good",
			resolver:           resolver,
			expectedStatusCode: http.StatusOK,
			expectedBody:       "alice@x.com",
		},
		{
			name:               "LowercaseScheme",
			header:             "bearer good",
			resolver:           resolver,
			expectedStatusCode: http.StatusOK,
			expectedBody:       "alice@x.com",
		},
		{
			name:               "MissingHeader",
			resolver:           resolver,
			expectedStatusCode: http.StatusUnauthorized,
			expectChallenge:    true,
		},
		{
			name:               "WrongScheme",
			header:             "Basic Zm9vOmJhcg==",
			resolver:           resolver,
			expectedStatusCode: http.StatusUnauthorized,
			expectChallenge:    true,
		},
		{
			name:               "EmptyToken",
			header:             "Bearer ",
			resolver:           resolver,
			expectedStatusCode: http.StatusUnauthorized,
			expectChallenge:    true,
		},
		{
			name:               "UnknownToken",
			header:             "Bearer forged",
			resolver:           resolver,
			expectedStatusCode: http.StatusUnauthorized,
			expectChallenge:    true,
		},
		{
			name:               "ResolverFailure",
			header:             "Bearer good",
			resolver:           fakeResolver{err: errors.New("db down")},
			expectedStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/api/me", whoAmI, middleware.BearerAuth(tc.resolver))

			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.expectedBody != "" {
				assert.Equal(t, tc.expectedBody, rec.Body.String())
			}
			if tc.expectChallenge {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
				assert.JSONEq(t, `{"error":"could not validate credentials"}`, rec.Body.String())
			}
		})
	}
}

func TestCurrentUser_NotAuthenticated(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, ok := middleware.CurrentUser(c)
	assert.False(t, ok)

	middleware.SetCurrentUser(c, model.User{ID: 3})
	u, ok := middleware.CurrentUser(c)
	require.True(t, ok)
	assert.Equal(t, uint64(3), u.ID)
}

func TestRequestMetrics(t *testing.T) {
	m := metrics.NewTestManager()
	e := echo.New()
	e.Use(middleware.RequestMetrics(m), middleware.LogRequest())
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/missing", func(c echo.Context) error { return echo.NewHTTPError(http.StatusNotFound) })
	e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })

	for _, path := range []string{"/ok", "/ok", "/missing", "/boom"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterRequests.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterRequests.WithLabelValues("GET", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterRequests.WithLabelValues("GET", "500")))
}
