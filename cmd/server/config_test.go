package main

import "testing"

func TestConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Address != ":8080" {
		t.Errorf("address = %q, want ':8080'", cfg.Server.Address)
	}
	if cfg.Database.Path != "data/taskforge.db" {
		t.Errorf("database path = %q, want 'data/taskforge.db'", cfg.Database.Path)
	}
	if cfg.RateLimit.PerUser != 100 {
		t.Errorf("per_user = %d, want 100", cfg.RateLimit.PerUser)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config does not validate: %v", err)
	}
}

func TestConfigValidate_RejectsInvalidDuration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth.AccessTokenTTL = "not-a-duration"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for invalid auth.access_token_ttl")
	}
}

func TestConfigValidate_RequiresTLSFiles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.TLS.Enabled = true

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error when TLS is enabled without cert files")
	}
}
