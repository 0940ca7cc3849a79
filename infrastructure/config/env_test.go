package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvEmailSender:   "wishes@example.com",
		EnvEmailPassword: "app-password",
		EnvSMTPServer:    "smtp.example.com",
		EnvSMTPPort:      "465",
		EnvAdminEmails:   "a@example.com, b@example.com,,",
		EnvTelegramToken: "123:abc",
		EnvTelegramChat:  "-100",
		EnvDataSource:    "https://example.com/sheet.xlsx",
	}
	cfg := Default()
	cfg.Admins = map[string]RecipientConfig{"old": {Address: "old@example.com"}}

	if err := ApplyEnv(cfg, func(k string) string { return env[k] }); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.Mail.SenderAddress != "wishes@example.com" || cfg.Mail.Password != "app-password" {
		t.Errorf("Mail credentials = %q / %q", cfg.Mail.SenderAddress, cfg.Mail.Password)
	}
	if cfg.Mail.SMTPServer != "smtp.example.com" || cfg.Mail.SMTPPort != 465 {
		t.Errorf("Mail server = %s:%d", cfg.Mail.SMTPServer, cfg.Mail.SMTPPort)
	}
	if cfg.Telegram.BotToken != "123:abc" || cfg.Telegram.ChatID != "-100" {
		t.Errorf("Telegram = %+v", cfg.Telegram)
	}
	if cfg.Data.UpdateSource != "https://example.com/sheet.xlsx" {
		t.Errorf("Data.UpdateSource = %q", cfg.Data.UpdateSource)
	}

	admins := cfg.AdminRecipients()
	if len(admins) != 2 || admins[0].Address != "a@example.com" || admins[1].Address != "b@example.com" {
		t.Errorf("AdminRecipients() = %+v, want env list only", admins)
	}
}

func TestApplyEnv_EmptyLeavesFile(t *testing.T) {
	cfg := Default()
	cfg.Mail.SMTPServer = "smtp.file.example"

	if err := ApplyEnv(cfg, func(string) string { return "" }); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.Mail.SMTPServer != "smtp.file.example" {
		t.Errorf("Mail.SMTPServer = %q, want file value", cfg.Mail.SMTPServer)
	}
}

func TestApplyEnv_BadPort(t *testing.T) {
	for _, port := range []string{"not-a-port", "0", "70000"} {
		t.Run(port, func(t *testing.T) {
			cfg := Default()
			err := ApplyEnv(cfg, func(k string) string {
				switch k {
				case EnvSMTPPort:
					return port
				case EnvSMTPServer:
					return "smtp.example.com"
				}
				return ""
			})
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("ApplyEnv() error = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), EnvSMTPPort) {
				t.Errorf("error %q should name %s", err, EnvSMTPPort)
			}
			if cfg.Mail.SMTPPort != 587 {
				t.Errorf("Mail.SMTPPort = %d, want 587 kept", cfg.Mail.SMTPPort)
			}
			if cfg.Mail.SMTPServer != "smtp.example.com" {
				t.Errorf("other variables should still apply, SMTPServer = %q", cfg.Mail.SMTPServer)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("NCS_TEST_ENV_FILE_VALUE=loaded\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NCS_TEST_ENV_FILE_VALUE", "")
	os.Unsetenv("NCS_TEST_ENV_FILE_VALUE")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}
	if got := os.Getenv("NCS_TEST_ENV_FILE_VALUE"); got != "loaded" {
		t.Errorf("env value = %q, want loaded", got)
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("LoadEnvFile() on missing file error = %v", err)
	}
	if err := LoadEnvFile(""); err != nil {
		t.Errorf("LoadEnvFile(\"\") error = %v", err)
	}
}
