//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ncs-birthday-mailer/cmd"
	"ncs-birthday-mailer/infrastructure/config"

	"github.com/cucumber/godog"
)

type setupContext struct {
	tempDir         string
	configPath      string
	originalContent string
	output          *bytes.Buffer
	err             error
}

var SharedSetupContext = &setupContext{}

// MockPrompter implements cmd.Prompter for testing
type MockPrompter struct {
	inputResponses   []string
	confirmResponses []bool
	selectResponses  []string
	inputIndex       int
	confirmIndex     int
	selectIndex      int
}

func NewMockPrompter(inputs []string, confirms []bool, selects []string) *MockPrompter {
	return &MockPrompter{
		inputResponses:   inputs,
		confirmResponses: confirms,
		selectResponses:  selects,
	}
}

func (m *MockPrompter) Input(message string, defaultValue string) (string, error) {
	if m.inputIndex >= len(m.inputResponses) {
		if defaultValue != "" {
			return defaultValue, nil
		}
		return "", fmt.Errorf("no more input responses available for message: %s", message)
	}
	response := m.inputResponses[m.inputIndex]
	m.inputIndex++
	if response == "" {
		return defaultValue, nil
	}
	return response, nil
}

func (m *MockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	if m.confirmIndex >= len(m.confirmResponses) {
		return false, nil
	}
	response := m.confirmResponses[m.confirmIndex]
	m.confirmIndex++
	return response, nil
}

func (m *MockPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	if m.selectIndex >= len(m.selectResponses) {
		return defaultValue, nil
	}
	response := m.selectResponses[m.selectIndex]
	m.selectIndex++
	return response, nil
}

func InitializeSetupScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedSetupContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		// Create temp directory for each scenario
		tempDir, err := os.MkdirTemp("", "setup-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.configPath = filepath.Join(tempDir, "config", "config.yaml")
		testCtx.originalContent = ""
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		// Cleanup temp directory
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		SharedSetupContext = &setupContext{}
		return c, nil
	})

	ctx.Step(`^no config file exists for setup$`, testCtx.noConfigFileExistsForSetup)
	ctx.Step(`^a config file already exists for setup$`, testCtx.aConfigFileAlreadyExistsForSetup)
	ctx.Step(`^I run the setup command with inputs:$`, testCtx.iRunTheSetupCommandWithInputs)
	ctx.Step(`^I run the setup command with confirmation "([^"]*)"$`, testCtx.iRunTheSetupCommandWithConfirmation)
	ctx.Step(`^a config file should exist$`, testCtx.aConfigFileShouldExist)
	ctx.Step(`^the config should have data file "([^"]*)"$`, testCtx.theConfigShouldHaveDataFile)
	ctx.Step(`^the config should have sender address "([^"]*)"$`, testCtx.theConfigShouldHaveSenderAddress)
	ctx.Step(`^the config should have smtp server "([^"]*)" on port (\d+)$`, testCtx.theConfigShouldHaveSMTPServer)
	ctx.Step(`^the config should have an admin "([^"]*)"$`, testCtx.theConfigShouldHaveAnAdmin)
	ctx.Step(`^the config should have telegram chat "([^"]*)"$`, testCtx.theConfigShouldHaveTelegramChat)
	ctx.Step(`^the existing config should be unchanged$`, testCtx.theExistingConfigShouldBeUnchanged)
}

func (s *setupContext) noConfigFileExistsForSetup() error {
	// Just ensure the config path directory exists but no config file
	return os.MkdirAll(filepath.Dir(s.configPath), 0755)
}

func (s *setupContext) aConfigFileAlreadyExistsForSetup() error {
	if err := os.MkdirAll(filepath.Dir(s.configPath), 0755); err != nil {
		return err
	}

	content := `data:
  file: "original.xlsx"
mail:
  sender_address: "original@example.com"
`
	s.originalContent = content
	return os.WriteFile(s.configPath, []byte(content), 0644)
}

// iRunTheSetupCommandWithInputs feeds answers in prompt order. Rows whose
// prompt starts with "add" or "post" answer yes/no questions; the
// "transport" row answers the transport choice.
func (s *setupContext) iRunTheSetupCommandWithInputs(table *godog.Table) error {
	var inputs, selects []string
	var confirms []bool

	for i, row := range table.Rows {
		if i == 0 {
			continue // Skip header row
		}
		prompt := strings.ToLower(row.Cells[0].Value)
		value := row.Cells[1].Value

		switch {
		case strings.HasPrefix(prompt, "add"), strings.HasPrefix(prompt, "post"):
			confirms = append(confirms, strings.ToLower(value) == "y")
		case prompt == "transport":
			selects = append(selects, value)
		default:
			inputs = append(inputs, value)
		}
	}

	s.err = cmd.RunSetupWithPrompter(NewMockPrompter(inputs, confirms, selects), s.configPath, s.output)
	if s.err != nil {
		return fmt.Errorf("setup command failed: %w", s.err)
	}
	return nil
}

func (s *setupContext) iRunTheSetupCommandWithConfirmation(confirmation string) error {
	confirm := strings.ToLower(confirmation) == "y"
	s.err = cmd.RunSetupWithPrompter(NewMockPrompter(nil, []bool{confirm}, nil), s.configPath, s.output)
	return nil
}

func (s *setupContext) load() (*config.Config, error) {
	return config.Load(s.configPath)
}

func (s *setupContext) aConfigFileShouldExist() error {
	if _, err := os.Stat(s.configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file was not created at %s", s.configPath)
	}
	return nil
}

func (s *setupContext) theConfigShouldHaveDataFile(expected string) error {
	cfg, err := s.load()
	if err != nil {
		return err
	}
	if cfg.Data.File != expected {
		return fmt.Errorf("expected data file %q, got %q", expected, cfg.Data.File)
	}
	return nil
}

func (s *setupContext) theConfigShouldHaveSenderAddress(expected string) error {
	cfg, err := s.load()
	if err != nil {
		return err
	}
	if cfg.Mail.SenderAddress != expected {
		return fmt.Errorf("expected sender address %q, got %q", expected, cfg.Mail.SenderAddress)
	}
	return nil
}

func (s *setupContext) theConfigShouldHaveSMTPServer(server string, port int) error {
	cfg, err := s.load()
	if err != nil {
		return err
	}
	if cfg.Mail.SMTPServer != server || cfg.Mail.SMTPPort != port {
		return fmt.Errorf("expected smtp %s:%d, got %s:%d", server, port, cfg.Mail.SMTPServer, cfg.Mail.SMTPPort)
	}
	return nil
}

func (s *setupContext) theConfigShouldHaveAnAdmin(email string) error {
	cfg, err := s.load()
	if err != nil {
		return err
	}
	for _, a := range cfg.AdminRecipients() {
		if a.Address == email {
			return nil
		}
	}
	return fmt.Errorf("admin %q not found in config", email)
}

func (s *setupContext) theConfigShouldHaveTelegramChat(chatID string) error {
	cfg, err := s.load()
	if err != nil {
		return err
	}
	if cfg.Telegram.ChatID != chatID {
		return fmt.Errorf("expected telegram chat %q, got %q", chatID, cfg.Telegram.ChatID)
	}
	return nil
}

func (s *setupContext) theExistingConfigShouldBeUnchanged() error {
	if s.err != nil {
		return fmt.Errorf("setup failed: %w", s.err)
	}
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return err
	}
	if string(data) != s.originalContent {
		return fmt.Errorf("config was modified")
	}
	return nil
}
