package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-complaints-api/internal/models"
	"github.com/noah-isme/campus-complaints-api/internal/service"
	appErrors "github.com/noah-isme/campus-complaints-api/pkg/errors"
)

type authenticatorMock struct {
	user      *models.User
	actor     models.Actor
	err       error
	lastToken string
}

func (m *authenticatorMock) Authenticate(ctx context.Context, token string) (*models.User, models.Actor, error) {
	m.lastToken = token
	return m.user, m.actor, m.err
}

func newRouter(auth Authenticator, roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWT(auth), RequireRoles(roles...), func(c *gin.Context) {
		actor, _ := CurrentActor(c)
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"actor": actor.ActorID(), "user": user.RegistrationNumber})
	})
	return r
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func TestJWTMissingHeader(t *testing.T) {
	r := newRouter(&authenticatorMock{}, models.RoleStudent)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
}

func TestJWTMalformedHeader(t *testing.T) {
	r := newRouter(&authenticatorMock{}, models.RoleStudent)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTPropagatesSuspension(t *testing.T) {
	auth := &authenticatorMock{err: appErrors.Clone(appErrors.ErrForbidden, "account suspended due to flags")}
	r := newRouter(auth, models.RoleStudent)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer token-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "token-1", auth.lastToken)
}

func TestRequireRoles(t *testing.T) {
	hostel := models.CategoryHostel
	auth := &authenticatorMock{
		user:  &models.User{ID: "a1", RegistrationNumber: "ADMIN_HOSTEL", Role: models.RoleSchoolAdmin, Category: &hostel},
		actor: models.SchoolAdminActor{ID: "a1", Category: hostel},
	}

	allowed := newRouter(auth, models.RoleSchoolAdmin, models.RoleCentralAdmin)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "bearer t")
	w := httptest.NewRecorder()
	allowed.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ADMIN_HOSTEL")

	denied := newRouter(auth, models.RoleCentralAdmin)
	w = httptest.NewRecorder()
	denied.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))
}

func TestRequireRolesWithoutAuthentication(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RequireRoles(models.RoleStudent), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	start := time.Now()
	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.WithinDuration(t, start, time.Now(), time.Minute)

	count, err := testutil.GatherAndCount(metrics.Registry(), "http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
