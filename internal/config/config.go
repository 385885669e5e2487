// Package config loads pipeline configuration from config.yaml, .env and
// environment variables, in that order of precedence (env wins).
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HelpdeskWebhookURL    string `yaml:"helpdesk_webhook_url"`
	HelpdeskAPIKey        string `yaml:"helpdesk_api_key"`
	HelpdeskAPISecret     string `yaml:"helpdesk_api_secret"`
	ServiceCatalogURL     string `yaml:"service_catalog_url"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`

	LLMProvider     string  `yaml:"llm_provider"`
	LLMModel        string  `yaml:"llm_model"`
	AnthropicAPIKey string  `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string  `yaml:"openai_api_key"`
	OpenAIBaseURL   string  `yaml:"openai_base_url"`
	LLMTemperature  float64 `yaml:"llm_temperature"`
	LLMMaxTokens    int     `yaml:"llm_max_tokens"`
	BatchSize       int     `yaml:"classification_batch_size"`

	SMTPHost       string `yaml:"smtp_host"`
	SMTPPort       int    `yaml:"smtp_port"`
	SMTPUsername   string `yaml:"smtp_username"`
	SMTPPassword   string `yaml:"smtp_password"`
	SMTPUseTLS     string `yaml:"smtp_use_tls"` // "true"/"false", default true
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
	RecipientEmail string `yaml:"recipient_email"`
	SenderName     string `yaml:"sender_name"`
	CodebaseLink   string `yaml:"codebase_link"`

	OutputDir      string `yaml:"output_dir"`
	ReportFilename string `yaml:"report_filename"`

	DBPath         string `yaml:"db_path"`
	SlackBotToken  string `yaml:"slack_bot_token"`
	SlackChannelID string `yaml:"slack_channel_id"`
	Schedule       string `yaml:"schedule"`
	Timezone       string `yaml:"timezone"`

	Location *time.Location `yaml:"-"` // computed from Timezone
}

func LoadConfig() (Config, error) {
	var cfg Config

	// Optional .env file, same precedence as the YAML file.
	_ = godotenv.Load()

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values.
	envOverride(&cfg.HelpdeskWebhookURL, "HELPDESK_WEBHOOK_URL")
	envOverride(&cfg.HelpdeskAPIKey, "HELPDESK_API_KEY")
	envOverride(&cfg.HelpdeskAPISecret, "HELPDESK_API_SECRET")
	envOverride(&cfg.ServiceCatalogURL, "SERVICE_CATALOG_URL")
	envOverrideInt(&cfg.RequestTimeoutSeconds, "REQUEST_TIMEOUT")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.OpenAIBaseURL, "OPENAI_API_BASE")
	envOverrideFloat(&cfg.LLMTemperature, "LLM_TEMPERATURE")
	envOverrideInt(&cfg.LLMMaxTokens, "LLM_MAX_TOKENS")
	envOverrideInt(&cfg.BatchSize, "CLASSIFICATION_BATCH_SIZE")
	envOverride(&cfg.SMTPHost, "SMTP_HOST")
	envOverrideInt(&cfg.SMTPPort, "SMTP_PORT")
	envOverride(&cfg.SMTPUsername, "SMTP_USERNAME")
	envOverride(&cfg.SMTPPassword, "SMTP_PASSWORD")
	envOverride(&cfg.SMTPUseTLS, "SMTP_USE_TLS")
	envOverride(&cfg.FromEmail, "FROM_EMAIL")
	envOverride(&cfg.FromName, "FROM_NAME")
	envOverride(&cfg.RecipientEmail, "RECIPIENT_EMAIL")
	envOverride(&cfg.SenderName, "SENDER_NAME")
	envOverride(&cfg.CodebaseLink, "CODEBASE_LINK")
	envOverride(&cfg.OutputDir, "OUTPUT_DIR")
	envOverride(&cfg.ReportFilename, "REPORT_FILENAME")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")
	envOverride(&cfg.Schedule, "SCHEDULE")
	envOverride(&cfg.Timezone, "TIMEZONE")

	// Defaults
	if cfg.RequestTimeoutSeconds == 0 {
		cfg.RequestTimeoutSeconds = 30
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "anthropic"
	}
	if cfg.LLMTemperature == 0 {
		cfg.LLMTemperature = 0.1
	}
	if cfg.LLMMaxTokens == 0 {
		cfg.LLMMaxTokens = 500
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 5
	}
	if cfg.SMTPHost == "" {
		cfg.SMTPHost = "smtp.gmail.com"
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}
	if cfg.SMTPUseTLS == "" {
		cfg.SMTPUseTLS = "true"
	}
	if cfg.FromName == "" {
		cfg.FromName = "Ticket Automation System"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.ReportFilename == "" {
		cfg.ReportFilename = "classified_tickets_report.xlsx"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return Config{}, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}

// Validate returns the list of configuration errors. Email settings are
// checked only when the run will actually send email.
func (c Config) Validate(skipEmail bool) []string {
	var errors []string

	if c.HelpdeskWebhookURL == "" {
		errors = append(errors, "helpdesk_webhook_url is required")
	}
	if c.HelpdeskAPIKey == "" {
		errors = append(errors, "helpdesk_api_key is required")
	}
	if c.ServiceCatalogURL == "" {
		errors = append(errors, "service_catalog_url is required")
	}

	switch c.LLMProvider {
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			errors = append(errors, "anthropic_api_key is required when llm_provider=anthropic")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			errors = append(errors, "openai_api_key is required when llm_provider=openai")
		}
	default:
		errors = append(errors, fmt.Sprintf("llm_provider must be 'anthropic' or 'openai', got %q", c.LLMProvider))
	}

	if c.BatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid classification_batch_size %d: must be >= 1", c.BatchSize))
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		errors = append(errors, fmt.Sprintf("invalid llm_temperature %g: must be between 0 and 2", c.LLMTemperature))
	}

	if !skipEmail {
		if c.SMTPUsername == "" {
			errors = append(errors, "smtp_username is required")
		}
		if c.SMTPPassword == "" {
			errors = append(errors, "smtp_password is required")
		}
		if c.FromEmail == "" {
			errors = append(errors, "from_email is required")
		}
		if c.RecipientEmail == "" {
			errors = append(errors, "recipient_email is required")
		}
		if c.SenderName == "" {
			errors = append(errors, "sender_name is required")
		}
	}

	return errors
}

// ProviderAPIKey is the API key for the selected LLM provider.
func (c Config) ProviderAPIKey() string {
	if c.LLMProvider == "openai" {
		return c.OpenAIAPIKey
	}
	return c.AnthropicAPIKey
}

// UseTLS reports whether SMTP should negotiate STARTTLS.
func (c Config) UseTLS() bool {
	return !strings.EqualFold(strings.TrimSpace(c.SMTPUseTLS), "false")
}

// ReportPath is the full path of the generated report file.
func (c Config) ReportPath() string {
	return filepath.Join(c.OutputDir, c.ReportFilename)
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
