package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"ncs-birthday-mailer/infrastructure/filesystem"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Data       DataConfig                 `yaml:"data"`
	State      StateConfig                `yaml:"state"`
	Validation ValidationConfig           `yaml:"validation"`
	Mail       MailConfig                 `yaml:"mail"`
	Message    MessageConfig              `yaml:"message"`
	Admins     map[string]RecipientConfig `yaml:"admins"`
	Google     GoogleConfig               `yaml:"google"`
	Telegram   TelegramConfig             `yaml:"telegram"`
	Retry      RetryConfig                `yaml:"retry"`
	Logging    LoggingConfig              `yaml:"logging"`
}

// DataConfig describes where the contact sheet comes from
type DataConfig struct {
	File         string `yaml:"file"`          // Local sheet read by every run
	Format       string `yaml:"format"`        // xlsx, csv, sheets; empty detects from extension
	UpdateSource string `yaml:"update_source"` // Default source for update-data
	SheetID      string `yaml:"sheet_id"`      // Google Sheets spreadsheet ID when format is sheets
	SheetRange   string `yaml:"sheet_range"`
}

// StateConfig contains the persisted cache and send log locations
type StateConfig struct {
	CacheFile string        `yaml:"cache_file"`
	SendLog   SendLogConfig `yaml:"send_log"`
}

// SendLogConfig selects the send log backend
type SendLogConfig struct {
	Backend     string `yaml:"backend"` // file, sqlite, redis
	Path        string `yaml:"path"`
	RedisURL    string `yaml:"redis_url"`
	RedisPrefix string `yaml:"redis_prefix"`
}

// ValidationConfig contains address validation settings
type ValidationConfig struct {
	DomainCheck bool          `yaml:"domain_check"`
	DNSTimeout  time.Duration `yaml:"dns_timeout"`
}

// MailConfig contains the outgoing mail settings
type MailConfig struct {
	Transport     string        `yaml:"transport"` // smtp or gmail
	SenderName    string        `yaml:"sender_name"`
	SenderAddress string        `yaml:"sender_address"`
	Password      string        `yaml:"password,omitempty"`
	SMTPServer    string        `yaml:"smtp_server"`
	SMTPPort      int           `yaml:"smtp_port"`
	Timeout       time.Duration `yaml:"timeout"`
}

// MessageConfig contains the birthday email content
type MessageConfig struct {
	Subject    string `yaml:"subject"`
	Body       string `yaml:"body"`
	Attachment string `yaml:"attachment"`
}

// RecipientConfig represents an email recipient
type RecipientConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

// GoogleConfig contains Google API settings
type GoogleConfig struct {
	CredentialsFile    string `yaml:"credentials_file"`     // OAuth client for Gmail
	TokenFile          string `yaml:"token_file"`           // Stored Gmail user token
	ServiceAccountFile string `yaml:"service_account_file"` // Drive and Sheets access
}

// TelegramConfig contains the chat report settings
type TelegramConfig struct {
	BotToken string `yaml:"bot_token,omitempty"`
	ChatID   string `yaml:"chat_id"`
	APIURL   string `yaml:"api_url"`
}

// RetryConfig controls birthday email retries
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	BackoffFactor  float64       `yaml:"backoff_factor"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file overrides it
func Default() *Config {
	return &Config{
		Data: DataConfig{
			File:       "December.xlsx",
			SheetRange: "Sheet1",
		},
		State: StateConfig{
			CacheFile: "email_cache.yaml",
			SendLog: SendLogConfig{
				Backend:     "file",
				Path:        "sent_log.yaml",
				RedisPrefix: "birthday",
			},
		},
		Validation: ValidationConfig{
			DomainCheck: false,
			DNSTimeout:  5 * time.Second,
		},
		Mail: MailConfig{
			Transport: "smtp",
			SMTPPort:  587,
			Timeout:   30 * time.Second,
		},
		Message: MessageConfig{
			Subject:    "Cheers to You on Your Special Day! 🥂🎈 - NCS Wishes 🎂",
			Body:       "Wishing you a very happy birthday!",
			Attachment: "birthday.png",
		},
		Google: GoogleConfig{
			CredentialsFile:    "credentials.json",
			TokenFile:          "gmail_token.json",
			ServiceAccountFile: "service_account.json",
		},
		Telegram: TelegramConfig{
			APIURL: "https://api.telegram.org",
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: 2 * time.Second,
			BackoffFactor:  2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := filesystem.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
