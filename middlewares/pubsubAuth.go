package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kilo/kilo_backend/config"
	"google.golang.org/api/idtoken"
)

// PushTokenValidator verifies a Google-signed OIDC token minted for audience.
type PushTokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// PushAuthConfig configures PubSubPushAuth.
type PushAuthConfig struct {
	Audience       string
	ServiceAccount string
	// Required rejects every push when no audience is configured.
	Required bool
	// Validate defaults to idtoken.Validate.
	Validate PushTokenValidator
}

// PubSubPushAuth admits Pub/Sub push requests whose bearer token is a Google
// OIDC token for cfg.Audience, signed for cfg.ServiceAccount when that is set.
// Without an audience the check is skipped unless cfg.Required.
func PubSubPushAuth(cfg PushAuthConfig) gin.HandlerFunc {
	validate := cfg.Validate
	if validate == nil {
		validate = idtoken.Validate
	}
	return func(c *gin.Context) {
		if cfg.Audience == "" {
			if cfg.Required {
				config.GetLogger().WithField("field", "PubSubPushAuth").Error("PUBSUB_PUSH_AUDIENCE not set; rejecting push")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			c.Next()
			return
		}

		const bearer = "Bearer "
		auth := c.Request.Header.Get("Authorization")
		if !strings.HasPrefix(auth, bearer) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		payload, err := validate(c.Request.Context(), strings.TrimSpace(auth[len(bearer):]), cfg.Audience)
		if err != nil {
			config.GetLogger().WithField("field", "PubSubPushAuth").Warn("rejected push token: " + err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if cfg.ServiceAccount != "" {
			email, _ := payload.Claims["email"].(string)
			verified, _ := payload.Claims["email_verified"].(bool)
			if !verified || !strings.EqualFold(email, cfg.ServiceAccount) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
		}
		c.Next()
	}
}
