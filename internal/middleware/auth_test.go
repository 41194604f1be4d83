package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/studypulse/studypulse-backend/internal/pkg/logger"
	"github.com/studypulse/studypulse-backend/internal/requestdata"
)

func signToken(t *testing.T, secret string, userID uuid.UUID, sessionID string) string {
	t.Helper()
	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func authRouter(t *testing.T, secret string) (*gin.Engine, *requestdata.RequestData) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	captured := &requestdata.RequestData{}
	r := gin.New()
	r.Use(NewAuthMiddleware(log, secret).RequireAuth())
	r.GET("/probe", func(c *gin.Context) {
		if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil {
			*captured = *rd
		}
		c.Status(http.StatusOK)
	})
	return r, captured
}

func TestRequireAuthScopesRequest(t *testing.T) {
	userID := uuid.New()
	sessionID := uuid.New()
	r, captured := authRouter(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "secret", userID, sessionID.String()))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if captured.UserID != userID || captured.SessionID != sessionID {
		t.Fatalf("request scope = %+v", captured)
	}
}

func TestRequireAuthRejects(t *testing.T) {
	r, _ := authRouter(t, "secret")

	cases := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not.a.jwt"},
		{"wrong key", signToken(t, "other-secret", uuid.New(), "")},
		{"bad subject", func() string {
			claims := jwt.RegisteredClaims{Subject: "not-a-uuid", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
			s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
			return s
		}()},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", tc.name, w.Code)
		}
	}
}
