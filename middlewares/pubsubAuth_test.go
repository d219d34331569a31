package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"google.golang.org/api/idtoken"
)

func fakePushValidator(claims map[string]interface{}) PushTokenValidator {
	return func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		if token != "google-oidc" || audience != "https://kilo.test/pubsub/extraction" {
			return nil, errors.New("idtoken: invalid token")
		}
		return &idtoken.Payload{Audience: audience, Claims: claims}, nil
	}
}

func newPushRouter(cfg PushAuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/pubsub/extraction", PubSubPushAuth(cfg), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestPubSubPushAuth(t *testing.T) {
	const audience = "https://kilo.test/pubsub/extraction"
	pusher := map[string]interface{}{"email": "push@kilo.iam.gserviceaccount.com", "email_verified": true}
	other := map[string]interface{}{"email": "attacker@example.com", "email_verified": true}

	cases := []struct {
		name   string
		cfg    PushAuthConfig
		header string
		status int
	}{
		{name: "no audience outside production", cfg: PushAuthConfig{}, status: http.StatusNoContent},
		{name: "no audience when required", cfg: PushAuthConfig{Required: true}, header: "Bearer google-oidc", status: http.StatusUnauthorized},
		{name: "missing token", cfg: PushAuthConfig{Audience: audience, Validate: fakePushValidator(pusher)}, status: http.StatusUnauthorized},
		{name: "not bearer", cfg: PushAuthConfig{Audience: audience, Validate: fakePushValidator(pusher)}, header: "google-oidc", status: http.StatusUnauthorized},
		{name: "invalid token", cfg: PushAuthConfig{Audience: audience, Validate: fakePushValidator(pusher)}, header: "Bearer forged", status: http.StatusUnauthorized},
		{name: "valid token", cfg: PushAuthConfig{Audience: audience, Validate: fakePushValidator(pusher)}, header: "Bearer google-oidc", status: http.StatusNoContent},
		{name: "pinned account", cfg: PushAuthConfig{Audience: audience, ServiceAccount: "push@kilo.iam.gserviceaccount.com", Validate: fakePushValidator(pusher)}, header: "Bearer google-oidc", status: http.StatusNoContent},
		{name: "other account", cfg: PushAuthConfig{Audience: audience, ServiceAccount: "push@kilo.iam.gserviceaccount.com", Validate: fakePushValidator(other)}, header: "Bearer google-oidc", status: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/pubsub/extraction", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			newPushRouter(tc.cfg).ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
		})
	}
}
