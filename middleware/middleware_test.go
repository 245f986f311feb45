package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
	"golang.org/x/time/rate"

	apperrors "readify/common/errors"
	"readify/middleware"
	"readify/models"
	"readify/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuth struct {
	services.AuthService
	principals map[string]*services.Principal
	banned     map[string]bool
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (*services.Principal, error) {
	if s.banned[token] {
		return nil, apperrors.ErrAccountBanned
	}
	if p, ok := s.principals[token]; ok {
		return p, nil
	}
	return nil, apperrors.ErrInvalidToken
}

func newProtectedRouter(auth services.AuthService, roles ...models.Role) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{middleware.RequireAuth(auth)}
	if len(roles) > 0 {
		handlers = append(handlers, middleware.RequireRoles(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		p, _ := middleware.CurrentPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"account_id": p.AccountID, "user_id": c.GetString("userID")})
	})
	r.GET("/protected", handlers...)
	return r
}

func TestRequireAuth(t *testing.T) {
	customer := &services.Principal{AccountID: uuid.New(), Role: models.RoleCustomer}
	staff := &services.Principal{AccountID: uuid.New(), Role: models.RoleStaff}
	auth := &stubAuth{
		principals: map[string]*services.Principal{"cust": customer, "staff": staff},
		banned:     map[string]bool{"banned": true},
	}

	tests := []struct {
		name   string
		cookie string
		bearer string
		roles  []models.Role
		want   int
	}{
		{name: "no token", want: http.StatusUnauthorized},
		{name: "cookie", cookie: "cust", want: http.StatusOK},
		{name: "bearer fallback", bearer: "staff", want: http.StatusOK},
		{name: "invalid token", bearer: "forged", want: http.StatusUnauthorized},
		{name: "banned account", cookie: "banned", want: http.StatusForbidden},
		{name: "role allowed", cookie: "staff", roles: []models.Role{models.RoleStaff, models.RoleAdmin}, want: http.StatusOK},
		{name: "role denied", cookie: "cust", roles: []models.Role{models.RoleAdmin}, want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: tt.cookie})
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			w := httptest.NewRecorder()
			newProtectedRouter(auth, tt.roles...).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireAuth_CookieWinsOverHeader(t *testing.T) {
	customer := &services.Principal{AccountID: uuid.New(), Role: models.RoleCustomer}
	auth := &stubAuth{principals: map[string]*services.Principal{"cust": customer}}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: "cust"})
	req.Header.Set("Authorization", "Bearer forged")
	w := httptest.NewRecorder()
	newProtectedRouter(auth).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), customer.AccountID.String())
}

func TestRateLimiter(t *testing.T) {
	rl := middleware.NewRateLimiter(rate.Every(time.Hour), 2, time.Minute)
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestRateLimiter_SweepDropsIdle(t *testing.T) {
	rl := middleware.NewRateLimiter(rate.Limit(1), 1, 10*time.Millisecond)
	rl.GetLimiter("10.0.0.9")

	assert.Equal(t, 0, rl.Sweep())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, rl.Sweep())
}

func TestRateLimiter_RunStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := middleware.NewRateLimiter(rate.Limit(1), 1, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(middleware.SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestCORS_AllowsConfiguredOriginWithCredentials(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORS([]string{"https://shop.readify.test"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://shop.readify.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "https://shop.readify.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
