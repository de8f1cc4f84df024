package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/prospectai")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("CORS_ORIGINS", "http://localhost:4200, https://app.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GetSweepCron() != "@every 1m" || cfg.GetSweepLockTTL() != 55*time.Second {
		t.Fatalf("unexpected sweep defaults %q %v", cfg.GetSweepCron(), cfg.GetSweepLockTTL())
	}
	if cfg.GetProspectLocation().String() != "America/Sao_Paulo" || cfg.GetPhoneDefaultRegion() != "BR" {
		t.Fatalf("unexpected prospect defaults %v %q", cfg.GetProspectLocation(), cfg.GetPhoneDefaultRegion())
	}
	if len(cfg.GetCORSOrigins()) != 2 || cfg.GetCORSOrigins()[1] != "https://app.example.com" {
		t.Fatalf("unexpected origins %v", cfg.GetCORSOrigins())
	}
	if cfg.IsSchedulerEnabled() || cfg.IsSMTPEnabled() || cfg.IsMinIOEnabled() {
		t.Fatalf("optional integrations must be off by default")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing database": {"DATABASE_URL": ""},
		"bad timezone":     {"PROSPECT_TIMEZONE": "Mars/Olympus"},
		"bad lock ttl":     {"SWEEP_LOCK_TTL": "soon"},
		"wildcard creds":   {"CORS_ORIGINS": "*", "CORS_ALLOW_CREDENTIALS": "true"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestNilLocationFallsBackToUTC(t *testing.T) {
	if (&Config{}).GetProspectLocation() != time.UTC {
		t.Fatalf("expected UTC")
	}
}
