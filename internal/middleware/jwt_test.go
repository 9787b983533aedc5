package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/eveauth/eve-auth-api/internal/auth"
	"github.com/eveauth/eve-auth-api/internal/token"
)

func bearerTestSetup(t *testing.T) (*echo.Echo, *token.Codec) {
	t.Helper()
	codec, err := token.NewCodec(token.CodecConfig{
		Keys:      map[string]string{"v1": "middleware-test-secret"},
		ActiveKID: "v1",
	})
	require.NoError(t, err)

	e := echo.New()
	v := auth.NewValidator(codec, nil) // stateless: middleware behavior under test
	e.GET("/v1/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user_id": c.Get("user_id"), "email": c.Get("email")})
	}, BearerAuth(v))
	return e, codec
}

func TestBearerAuthMissingHeader(t *testing.T) {
	e, _ := bearerTestSetup(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerAuthBadToken(t *testing.T) {
	e, _ := bearerTestSetup(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerAuthValidToken(t *testing.T) {
	e, codec := bearerTestSetup(t)

	raw, err := codec.Mint(9, "dan@example.com", time.Now().UTC(), time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"user_id":9`)
	require.Contains(t, rec.Body.String(), `"email":"dan@example.com"`)
}
