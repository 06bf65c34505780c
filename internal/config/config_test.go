package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_PORT", "")
	t.Setenv("JWT_EXPIRY", "")
	t.Setenv("NOTIFICATION_RETENTION_DAYS", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.JWTExpiry != 24 {
		t.Errorf("JWTExpiry = %d, want 24", cfg.JWTExpiry)
	}
	if cfg.NotificationRetentionDays != 30 {
		t.Errorf("NotificationRetentionDays = %d, want 30", cfg.NotificationRetentionDays)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("JWT_EXPIRY", "2")
	t.Setenv("SMTP_USE_TLS", "yes")
	t.Setenv("SUMMARY_CACHE_MINUTES", "not-a-number")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.JWTExpiry != 2 {
		t.Errorf("JWTExpiry = %d, want 2", cfg.JWTExpiry)
	}
	if !cfg.SMTPUseTLS {
		t.Error("SMTPUseTLS = false, want true")
	}
	if cfg.SummaryCacheMinutes != 30 {
		t.Errorf("SummaryCacheMinutes = %d, want fallback 30", cfg.SummaryCacheMinutes)
	}
}
