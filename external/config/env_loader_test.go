package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Env != "production" {
		t.Fatalf("unexpected env: %s", cfg.Env)
	}
	if cfg.MaxAlternatives != 1 || cfg.InterimResults {
		t.Fatalf("unexpected stream defaults: %+v", cfg)
	}
	if cfg.MaxAudioMessageBytes != 25600 {
		t.Fatalf("unexpected message size: %d", cfg.MaxAudioMessageBytes)
	}
	if cfg.OpenTimeout != 15*time.Second || cfg.CloseTimeout != 5*time.Second {
		t.Fatalf("unexpected timeouts: open=%s close=%s", cfg.OpenTimeout, cfg.CloseTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("SPEECH_MAX_ALTERNATIVES", "3")
	t.Setenv("SPEECH_INTERIM_RESULTS", "true")
	t.Setenv("SPEECH_CLOSE_TIMEOUT", "250ms")
	t.Setenv("GOOGLE_CLOUD_SPEECH_ENDPOINT", "eu-speech.googleapis.com:443")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !cfg.IsDevelopment() {
		t.Fatal("expected development mode")
	}
	if cfg.MaxAlternatives != 3 || !cfg.InterimResults {
		t.Fatalf("unexpected stream options: %+v", cfg)
	}
	if cfg.CloseTimeout != 250*time.Millisecond {
		t.Fatalf("unexpected close timeout: %s", cfg.CloseTimeout)
	}
	if cfg.GoogleCloudSpeechEndpoint != "eu-speech.googleapis.com:443" {
		t.Fatalf("unexpected endpoint: %s", cfg.GoogleCloudSpeechEndpoint)
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("SPEECH_MAX_ALTERNATIVES", "99")
	if _, err := Load(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoad_UnparsableValue(t *testing.T) {
	t.Setenv("SPEECH_OPEN_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}
