package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/uni-admin/enrollment-api/internal/mirror"
	"github.com/uni-admin/enrollment-api/internal/models"
	"github.com/uni-admin/enrollment-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthFixture(t *testing.T) (*service.AuthService, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pass1234"), bcrypt.MinCost)
	require.NoError(t, err)

	m := mirror.New()
	m.Rebuild(mirror.Snapshot{
		Students: []models.Student{{ID: "400123456", Name: "Ali Mohammadi", PasswordHash: string(hash)}},
	})

	authSvc := service.NewAuthService(m, nil, nil, service.AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "enrollment-api",
	})
	login, err := authSvc.Login(models.LoginRequest{Role: models.RoleStudent, ID: "400123456", Password: "pass1234"})
	require.NoError(t, err)
	return authSvc, login.AccessToken
}

func optionalRouter(authSvc *service.AuthService) *gin.Engine {
	r := gin.New()
	r.Use(OptionalJWT(authSvc))
	r.GET("/catalog", func(c *gin.Context) {
		userID := ""
		if v, ok := c.Get(ContextUserKey); ok {
			userID = v.(*models.JWTClaims).UserID
		}
		c.JSON(http.StatusOK, gin.H{"user": userID})
	})
	return r
}

func TestOptionalJWTAttachesClaims(t *testing.T) {
	authSvc, token := newAuthFixture(t)
	r := optionalRouter(authSvc)

	req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "400123456")
}

func TestOptionalJWTPassesThroughWithoutToken(t *testing.T) {
	authSvc, _ := newAuthFixture(t)
	r := optionalRouter(authSvc)

	req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user":""`)
}

func TestOptionalJWTIgnoresGarbageToken(t *testing.T) {
	authSvc, _ := newAuthFixture(t)
	r := optionalRouter(authSvc)

	req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user":""`)
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	authSvc, _ := newAuthFixture(t)

	r := gin.New()
	r.Use(JWT(authSvc))
	r.GET("/private", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
