package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kilo/kilo_backend/config"
	"github.com/kilo/kilo_backend/middlewares"
	"github.com/kilo/kilo_backend/models"
	"github.com/kilo/kilo_backend/utils"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// RateLimiter is a fixed-window request counter kept in redis.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	r := newRouter(logger, dependenciesReady)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can hold DDL locks; production runs it as a separate job.
	if !config.SkipMigrations() {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := min(time.Second*time.Duration(1<<min(attempt, 5)), 30*time.Second)
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("document validation api listening on :", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func dependenciesReady() bool {
	return config.GetDB() != nil && config.GetRedisDB() != nil
}

// newRouter builds the gin engine. Until ready reports true every route but
// /healthz answers 503.
func newRouter(logger *logrus.Logger, ready func() bool) *gin.Engine {
	r := gin.New()

	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Header("x-correlation-id", cid)
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if ready != nil && !ready() {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.Use(cors.New(corsConfig()))
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	// Pub/Sub pushes carry a Google OIDC token, not an API token.
	push := r.Group("/pubsub", middlewares.PubSubPushAuth(middlewares.PushAuthConfig{
		Audience:       config.PubSubPushAudience(),
		ServiceAccount: config.PubSubPushServiceAccount(),
		Required:       config.IsProduction(),
	}))
	push.POST("/extraction", extractionPubSubHandler())

	api := r.Group("", middlewares.AuthMiddleware())
	// RATE_LIMIT_ENABLED=true, RATE_LIMIT_WINDOW_SECONDS=60, RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		limit := int64FromEnv("RATE_LIMIT_MAX_REQUESTS", 600)
		windowSec := int64FromEnv("RATE_LIMIT_WINDOW_SECONDS", 60)
		rateLimiter := NewRateLimiter(nil, limit, time.Duration(windowSec)*time.Second)
		api.Use(rateLimiter.RateLimitMiddleware)
	}

	anyParty := middlewares.RequireRoles(string(models.UserRoleImporter), string(models.UserRoleBroker), string(models.UserRoleSupplier))
	reviewers := middlewares.RequireRoles(string(models.UserRoleImporter), string(models.UserRoleBroker))
	importers := middlewares.RequireRoles(string(models.UserRoleImporter))

	documents := api.Group("/documents/:id")
	documents.POST("/validate", reviewers, validateDocumentHandler())
	documents.GET("/validation", anyParty, getValidationHandler())
	documents.GET("/checklist", anyParty, checklistHandler())
	documents.POST("/approve", importers, approveDocumentHandler())
	documents.POST("/reject", importers, rejectDocumentHandler())

	api.GET("/orders/:id/validation-report", reviewers, validationReportHandler())

	r.NoRoute(customNotFoundHandler)
	return r
}

func corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	// Production requires an explicit allowlist; anything else allows all.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if config.IsProduction() {
		if allowedOrigins == "" {
			// deny all
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		} else {
			corsConfig.AllowOrigins = utils.SplitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", "x-correlation-id")
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	return corsConfig
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

// customErrorLogger logs the errors handlers attached to the gin context.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

// NewRateLimiter returns a limiter on client. A nil client falls back to the
// shared redis connection at request time.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func (rl *RateLimiter) redisClient() *redis.Client {
	if rl.client != nil {
		return rl.client
	}
	return config.GetRedisDB()
}

// rateLimitKey counts per authenticated user, or per client IP otherwise.
func rateLimitKey(c *gin.Context) string {
	if userId, ok := utils.GetUserIdFromContext(c.Request.Context()); ok && userId != "" {
		return "ratelimit:user:" + userId
	}
	return "ratelimit:ip:" + c.ClientIP()
}

func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	client := rl.redisClient()
	if client == nil {
		c.Next()
		return
	}
	key := rateLimitKey(c)

	count, err := client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		// redis errors do not block requests
		_ = c.Error(err)
		c.Next()
		return
	}
	if count == 1 {
		if err := client.Expire(c.Request.Context(), key, rl.window).Err(); err != nil {
			_ = c.Error(err)
		}
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func int64FromEnv(key string, def int64) int64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return def
}
