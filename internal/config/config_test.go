package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func loadFromDir(t *testing.T, yaml string) (Config, error) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if yaml != "" {
		if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
			t.Fatalf("write config: %v", err)
		}
	}
	t.Setenv("CONFIG_PATH", path)
	return LoadConfig()
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadFromDir(t, "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.LLMProvider != "anthropic" {
		t.Fatalf("expected default provider anthropic, got %q", cfg.LLMProvider)
	}
	if cfg.BatchSize != 5 || cfg.LLMMaxTokens != 500 || cfg.RequestTimeoutSeconds != 30 {
		t.Fatalf("unexpected defaults: batch=%d tokens=%d timeout=%d", cfg.BatchSize, cfg.LLMMaxTokens, cfg.RequestTimeoutSeconds)
	}
	if cfg.SMTPHost != "smtp.gmail.com" || cfg.SMTPPort != 587 || !cfg.UseTLS() {
		t.Fatalf("unexpected SMTP defaults: %s:%d tls=%v", cfg.SMTPHost, cfg.SMTPPort, cfg.UseTLS())
	}
	if cfg.ReportPath() != filepath.Join("./output", "classified_tickets_report.xlsx") {
		t.Fatalf("unexpected report path %q", cfg.ReportPath())
	}
}

func TestLoadConfigYAMLAndEnvOverride(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("CLASSIFICATION_BATCH_SIZE", "10")
	cfg, err := loadFromDir(t, `
helpdesk_webhook_url: https://example.com/webhook
llm_provider: anthropic
classification_batch_size: 3
smtp_use_tls: "false"
`)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.HelpdeskWebhookURL != "https://example.com/webhook" {
		t.Fatalf("yaml value not loaded: %q", cfg.HelpdeskWebhookURL)
	}
	if cfg.LLMProvider != "openai" || cfg.BatchSize != 10 {
		t.Fatalf("env should override yaml, got provider=%q batch=%d", cfg.LLMProvider, cfg.BatchSize)
	}
	if cfg.UseTLS() {
		t.Fatal("smtp_use_tls false should disable TLS")
	}
}

func TestLoadConfigInvalidTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Not/AZone")
	if _, err := loadFromDir(t, ""); err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}

func TestValidateRequiredFields(t *testing.T) {
	cfg, err := loadFromDir(t, "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	errs := cfg.Validate(false)
	joined := strings.Join(errs, "; ")
	for _, want := range []string{
		"helpdesk_webhook_url",
		"helpdesk_api_key",
		"service_catalog_url",
		"anthropic_api_key",
		"smtp_username",
		"recipient_email",
		"sender_name",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected validation error mentioning %q, got: %s", want, joined)
		}
	}

	// Email errors drop out when email is skipped.
	errs = cfg.Validate(true)
	joined = strings.Join(errs, "; ")
	if strings.Contains(joined, "smtp_username") || strings.Contains(joined, "recipient_email") {
		t.Fatalf("email fields should not be validated with skipEmail, got: %s", joined)
	}
}

func TestValidateProviderKey(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err := loadFromDir(t, "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	for _, e := range cfg.Validate(true) {
		if strings.Contains(e, "openai_api_key") {
			t.Fatalf("openai key is set, should not be flagged: %s", e)
		}
	}
}
