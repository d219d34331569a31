package config

import (
	"os"
	"strings"
	"time"

	"github.com/kilo/kilo_backend/reconcile"
	"github.com/shopspring/decimal"
)

func truthy(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// SkipMigrations disables AutoMigrate at startup.
//
// Set via env:
// - SKIP_MIGRATIONS=true
func SkipMigrations() bool {
	return truthy(os.Getenv("SKIP_MIGRATIONS"))
}

// ReconcileThresholds reads the matcher tolerances. Unset or invalid values
// keep the 2% / 5% / 98% defaults.
//
// Set via env:
// - RECONCILE_AMOUNT_TOLERANCE_PCT
// - RECONCILE_QUANTITY_TOLERANCE_PCT
// - RECONCILE_AUTO_APPROVE_PCT
func ReconcileThresholds() reconcile.Thresholds {
	th := reconcile.DefaultThresholds()
	if d, ok := decimalFromEnv("RECONCILE_AMOUNT_TOLERANCE_PCT"); ok && d.IsPositive() {
		th.AmountTolerancePercent = d
	}
	if d, ok := decimalFromEnv("RECONCILE_QUANTITY_TOLERANCE_PCT"); ok && d.IsPositive() {
		th.QuantityTolerancePercent = d
	}
	if d, ok := decimalFromEnv("RECONCILE_AUTO_APPROVE_PCT"); ok && d.IsPositive() && d.LessThanOrEqual(decimal.NewFromInt(100)) {
		th.AutoApprovePercent = d.InexactFloat64()
	}
	return th
}

// ValidationCacheTTL is how long a stored validation result stays in redis.
// VALIDATION_CACHE_TTL_SECONDS=0 disables caching.
func ValidationCacheTTL() time.Duration {
	return time.Duration(intFromEnv("VALIDATION_CACHE_TTL_SECONDS", 300)) * time.Second
}

func decimalFromEnv(key string) (decimal.Decimal, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// IsProduction reports GO_ENV=production.
func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}

// PubSubPushAudience is the audience the push subscription mints OIDC tokens
// for. Empty disables push authentication outside production.
//
// Set via env:
// - PUBSUB_PUSH_AUDIENCE
func PubSubPushAudience() string {
	return strings.TrimSpace(os.Getenv("PUBSUB_PUSH_AUDIENCE"))
}

// PubSubPushServiceAccount optionally pins the email claim of push tokens.
//
// Set via env:
// - PUBSUB_PUSH_SERVICE_ACCOUNT
func PubSubPushServiceAccount() string {
	return strings.TrimSpace(os.Getenv("PUBSUB_PUSH_SERVICE_ACCOUNT"))
}
