package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ncs-birthday-mailer/infrastructure/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
	Select(message string, options []string, defaultValue string) (string, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

func (p *SurveyPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Select{
		Message: message,
		Options: options,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

Passwords and bot tokens are not stored in config.yaml; put EMAIL_PASSWORD
and TELEGRAM_BOT_TOKEN in the .env file instead.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = "config/config.yaml"
	}
	return RunSetupWithPrompter(DefaultPrompter, path, os.Stdout)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string, out OutputWriter) error {
	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(out, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(out, "Welcome to ncs-birthday-mailer setup!")
	fmt.Fprintln(out)

	cfg := config.Default()

	if err := promptData(prompter, cfg); err != nil {
		return err
	}
	if err := promptMail(prompter, cfg); err != nil {
		return err
	}
	if err := promptAdmins(prompter, cfg); err != nil {
		return err
	}
	if err := promptTelegram(prompter, cfg); err != nil {
		return err
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration saved to %s\n", configPath)
	fmt.Fprintf(out, "Set %s (and %s for Telegram) in your .env file.\n", config.EnvEmailPassword, config.EnvTelegramToken)
	return nil
}

func promptData(prompter Prompter, cfg *config.Config) error {
	file, err := prompter.Input("Path to the contact sheet (xlsx or csv)?", cfg.Data.File)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if file = strings.TrimSpace(file); file == "" {
		return fmt.Errorf("contact sheet path is required")
	}
	cfg.Data.File = file

	attachment, err := prompter.Input("Image to attach to greetings?", cfg.Message.Attachment)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if attachment = strings.TrimSpace(attachment); attachment != "" {
		cfg.Message.Attachment = attachment
	}
	return nil
}

func promptMail(prompter Prompter, cfg *config.Config) error {
	transport, err := prompter.Select("How should email be sent?", []string{"smtp", "gmail"}, cfg.Mail.Transport)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Mail.Transport = transport

	name, err := prompter.Input("Display name for outgoing emails?", "NCS Wishes")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Mail.SenderName = strings.TrimSpace(name)

	address, err := prompter.Input("Address to send from?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if address = strings.TrimSpace(address); address == "" {
		return fmt.Errorf("sender address is required")
	}
	cfg.Mail.SenderAddress = address

	if transport != "smtp" {
		return nil
	}

	server, err := prompter.Input("SMTP server?", "smtp.gmail.com")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Mail.SMTPServer = strings.TrimSpace(server)

	port, err := prompter.Input("SMTP port?", strconv.Itoa(cfg.Mail.SMTPPort))
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	p, err := strconv.Atoi(strings.TrimSpace(port))
	if err != nil || p <= 0 {
		return fmt.Errorf("invalid SMTP port %q", port)
	}
	cfg.Mail.SMTPPort = p
	return nil
}

func promptAdmins(prompter Prompter, cfg *config.Config) error {
	cfg.Admins = make(map[string]config.RecipientConfig)
	mgr := config.NewConfigManager(cfg, "")

	for {
		add, err := prompter.Confirm("Add an admin to receive run reports?", len(cfg.Admins) == 0)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !add {
			break
		}

		key, err := prompter.Input("  Key:", "")
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		name, err := prompter.Input("  Name:", "")
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		email, err := prompter.Input("  Email:", "")
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}

		if err := addAdminInMemory(mgr, cfg, key, name, email); err != nil {
			return err
		}
	}
	return nil
}

// addAdminInMemory validates through the manager rules without saving
func addAdminInMemory(mgr *config.ConfigManager, cfg *config.Config, key, name, email string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return fmt.Errorf("admin key is required")
	}
	if _, err := mgr.GetAdmin(key); err == nil {
		return fmt.Errorf("%w: admin %q", config.ErrDuplicateKey, key)
	}
	if !config.ValidEmail(email) {
		return fmt.Errorf("%w: %q", config.ErrInvalidEmail, email)
	}
	cfg.Admins[key] = config.RecipientConfig{Name: strings.TrimSpace(name), Address: strings.TrimSpace(email)}
	return nil
}

func promptTelegram(prompter Prompter, cfg *config.Config) error {
	use, err := prompter.Confirm("Post run reports to Telegram?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if !use {
		return nil
	}

	chatID, err := prompter.Input("Telegram chat ID?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if chatID = strings.TrimSpace(chatID); chatID == "" {
		return fmt.Errorf("chat ID is required")
	}
	cfg.Telegram.ChatID = chatID
	return nil
}
