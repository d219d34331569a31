package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestReconcileThresholdsDefaults(t *testing.T) {
	t.Setenv("RECONCILE_AMOUNT_TOLERANCE_PCT", "")
	t.Setenv("RECONCILE_QUANTITY_TOLERANCE_PCT", "abc")
	t.Setenv("RECONCILE_AUTO_APPROVE_PCT", "150")

	th := ReconcileThresholds()
	if th.AmountTolerancePercent.String() != "2" || th.QuantityTolerancePercent.String() != "5" || th.AutoApprovePercent != 98 {
		t.Fatalf("unexpected thresholds %+v", th)
	}
}

func TestReconcileThresholdsOverride(t *testing.T) {
	t.Setenv("RECONCILE_AMOUNT_TOLERANCE_PCT", "1.5")
	t.Setenv("RECONCILE_QUANTITY_TOLERANCE_PCT", "10")
	t.Setenv("RECONCILE_AUTO_APPROVE_PCT", "95")

	th := ReconcileThresholds()
	if th.AmountTolerancePercent.String() != "1.5" || th.QuantityTolerancePercent.String() != "10" || th.AutoApprovePercent != 95 {
		t.Fatalf("unexpected thresholds %+v", th)
	}
}

func TestValidationCacheTTL(t *testing.T) {
	t.Setenv("VALIDATION_CACHE_TTL_SECONDS", "")
	if got := ValidationCacheTTL(); got != 5*time.Minute {
		t.Fatalf("default ttl = %s", got)
	}
	t.Setenv("VALIDATION_CACHE_TTL_SECONDS", "0")
	if got := ValidationCacheTTL(); got != 0 {
		t.Fatalf("ttl = %s", got)
	}
}

func TestTruthy(t *testing.T) {
	for _, v := range []string{"1", "true", " YES ", "y"} {
		if !truthy(v) {
			t.Fatalf("%q should be truthy", v)
		}
	}
	for _, v := range []string{"", "0", "no", "off"} {
		if truthy(v) {
			t.Fatalf("%q should not be truthy", v)
		}
	}
}

func TestLogLevelFromEnv(t *testing.T) {
	cases := map[string]logrus.Level{
		"":        logrus.ErrorLevel,
		"debug":   logrus.DebugLevel,
		"WARN":    logrus.WarnLevel,
		"verbose": logrus.ErrorLevel,
	}
	for in, want := range cases {
		if got := logLevelFromEnv(in); got != want {
			t.Fatalf("logLevelFromEnv(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestDatabaseDSN(t *testing.T) {
	t.Setenv("DB_USER", "kilo")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "/cloudsql/proj:region:inst")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "kilo")
	want := "kilo:secret@unix(/cloudsql/proj:region:inst)/kilo?parseTime=true&charset=utf8mb4&loc=UTC"
	if got := DatabaseDSN(); got != want {
		t.Fatalf("dsn = %s", got)
	}
}
