package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override the YAML file.
const (
	EnvEmailSender   = "EMAIL_SENDER"
	EnvEmailPassword = "EMAIL_PASSWORD"
	EnvSMTPServer    = "SMTP_SERVER"
	EnvSMTPPort      = "SMTP_PORT"
	EnvAdminEmails   = "ADMIN_EMAILS"
	EnvTelegramToken = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChat  = "TELEGRAM_CHAT_ID"
	EnvDataSource    = "DATA_SOURCE"
	EnvLogLevel      = "LOG_LEVEL"
)

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without replacing variables that are already set. A missing file is fine.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// ApplyEnv overlays environment values on cfg. getenv is usually os.Getenv.
// A value that cannot be parsed is returned as ErrInvalidConfig after the
// remaining values are applied.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	var problems []string

	if v := getenv(EnvEmailSender); v != "" {
		cfg.Mail.SenderAddress = v
	}
	if v := getenv(EnvEmailPassword); v != "" {
		cfg.Mail.Password = v
	}
	if v := getenv(EnvSMTPServer); v != "" {
		cfg.Mail.SMTPServer = v
	}
	if v := getenv(EnvSMTPPort); v != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || port <= 0 || port > 65535 {
			problems = append(problems, fmt.Sprintf("%s=%q is not a port number", EnvSMTPPort, v))
		} else {
			cfg.Mail.SMTPPort = port
		}
	}
	if v := getenv(EnvAdminEmails); v != "" {
		cfg.Admins = parseAdminList(v)
	}
	if v := getenv(EnvTelegramToken); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := getenv(EnvTelegramChat); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := getenv(EnvDataSource); v != "" {
		cfg.Data.UpdateSource = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// parseAdminList turns "a@x.com, b@y.com" into admins keyed by address.
func parseAdminList(v string) map[string]RecipientConfig {
	admins := make(map[string]RecipientConfig)
	for _, addr := range strings.Split(v, ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		admins[strings.ToLower(addr)] = RecipientConfig{Address: addr}
	}
	return admins
}
