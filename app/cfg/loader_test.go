package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	// Test default version
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	// Test that version is at least "dev" or "unknown"
	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// This is fine, version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestConfigFields(t *testing.T) {
	// Create a config instance to test field access
	cfg := &Cfg{
		DBPath:          "./test.db",
		Port:            "8080",
		WebhookSecret:   "topsecret",
		RateLimitWindow: 60,
		RateLimitQuota:  60,
		ModerationDelay: 2,
		PublishDelay:    3,
		WorkerCount:     5,
		SweepInterval:   30,
		Timezone:        "UTC",
		Debug:           true,
		Version:         "test-version",
	}

	// Test direct field access
	if cfg.DBPath != "./test.db" {
		t.Errorf("Expected DB path './test.db', got '%s'", cfg.DBPath)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.WebhookSecret != "topsecret" {
		t.Errorf("Expected webhook secret 'topsecret', got '%s'", cfg.WebhookSecret)
	}
	if cfg.RateLimitWindow != 60 {
		t.Errorf("Expected rate limit window 60, got %d", cfg.RateLimitWindow)
	}
	if cfg.RateLimitQuota != 60 {
		t.Errorf("Expected rate limit quota 60, got %d", cfg.RateLimitQuota)
	}
	if cfg.ModerationDelay != 2 {
		t.Errorf("Expected moderation delay 2, got %d", cfg.ModerationDelay)
	}
	if cfg.PublishDelay != 3 {
		t.Errorf("Expected publish delay 3, got %d", cfg.PublishDelay)
	}
	if cfg.WorkerCount != 5 {
		t.Errorf("Expected worker count 5, got %d", cfg.WorkerCount)
	}
	if cfg.SweepInterval != 30 {
		t.Errorf("Expected sweep interval 30, got %d", cfg.SweepInterval)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Expected timezone 'UTC', got '%s'", cfg.Timezone)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
	if cfg.Version != "test-version" {
		t.Errorf("Expected version 'test-version', got '%s'", cfg.Version)
	}
}

func TestSignatureEnforced(t *testing.T) {
	withSecret := &Cfg{WebhookSecret: "topsecret"}
	if !withSecret.SignatureEnforced() {
		t.Error("Expected enforcement when a secret is configured")
	}

	withoutSecret := &Cfg{}
	if withoutSecret.SignatureEnforced() {
		t.Error("Expected no enforcement when the secret is unset")
	}
}
