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

type configCrudContext struct {
	tempDir    string
	configPath string
	config     *config.Config
	output     *bytes.Buffer
	err        error
}

var SharedConfigCrudContext = &configCrudContext{}

func InitializeConfigCrudScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedConfigCrudContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		// Create temp directory for each scenario
		tempDir, err := os.MkdirTemp("", "config-crud-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.configPath = filepath.Join(tempDir, "config.yaml")
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		testCtx.config = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		// Cleanup temp directory
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		SharedConfigCrudContext = &configCrudContext{}
		return c, nil
	})

	// Background
	ctx.Step(`^a config file exists with initial data$`, testCtx.aConfigFileExistsWithInitialData)

	// Admin steps
	ctx.Step(`^I run config add admin with key "([^"]*)" name "([^"]*)" and email "([^"]*)"$`, testCtx.iRunConfigAddAdmin)
	ctx.Step(`^admin "([^"]*)" exists with name "([^"]*)" and email "([^"]*)"$`, testCtx.adminExistsWithNameAndEmail)
	ctx.Step(`^I run config list admins$`, testCtx.iRunConfigListAdmins)
	ctx.Step(`^I run config remove admin "([^"]*)"$`, testCtx.iRunConfigRemoveAdmin)
	ctx.Step(`^I run config update admin "([^"]*)" with email "([^"]*)"$`, testCtx.iRunConfigUpdateAdminEmail)
	ctx.Step(`^the config should contain admin "([^"]*)" with name "([^"]*)" and email "([^"]*)"$`, testCtx.theConfigShouldContainAdmin)
	ctx.Step(`^the config should not contain admin "([^"]*)"$`, testCtx.theConfigShouldNotContainAdmin)

	// Common assertions
	ctx.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	ctx.Step(`^the command should fail with "([^"]*)"$`, testCtx.theCommandShouldFailWith)
	ctx.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
}

func (c *configCrudContext) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.config = cfg
	return nil
}

func (c *configCrudContext) saveConfig() error {
	return config.Save(c.config, c.configPath)
}

// --- Background ---

func (c *configCrudContext) aConfigFileExistsWithInitialData() error {
	c.config = config.Default()
	c.config.Mail.SenderAddress = "wishes@example.com"
	c.config.Admins = make(map[string]config.RecipientConfig)
	return c.saveConfig()
}

// --- Admin steps ---

func (c *configCrudContext) iRunConfigAddAdmin(key, name, email string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	c.output.Reset()
	c.err = cmd.RunConfigAddWithDependencies(c.config, c.configPath, "admin", key, name, email, c.output)
	return nil
}

func (c *configCrudContext) adminExistsWithNameAndEmail(key, name, email string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	if c.config.Admins == nil {
		c.config.Admins = make(map[string]config.RecipientConfig)
	}
	c.config.Admins[strings.ToLower(key)] = config.RecipientConfig{Name: name, Address: email}
	return c.saveConfig()
}

func (c *configCrudContext) iRunConfigListAdmins() error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	c.output.Reset()
	c.err = cmd.RunConfigListWithDependencies(c.config, c.configPath, "admins", c.output)
	return nil
}

func (c *configCrudContext) iRunConfigRemoveAdmin(key string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	c.output.Reset()
	c.err = cmd.RunConfigRemoveWithDependencies(c.config, c.configPath, "admin", key, c.output)
	return nil
}

func (c *configCrudContext) iRunConfigUpdateAdminEmail(key, email string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	c.output.Reset()
	c.err = cmd.RunConfigUpdateWithDependencies(c.config, c.configPath, "admin", key, "", email, c.output)
	return nil
}

func (c *configCrudContext) theConfigShouldContainAdmin(key, name, email string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	key = strings.ToLower(key)
	a, exists := c.config.Admins[key]
	if !exists {
		return fmt.Errorf("admin %q not found in config", key)
	}
	if a.Name != name {
		return fmt.Errorf("expected admin %q to have name %q, got %q", key, name, a.Name)
	}
	if a.Address != email {
		return fmt.Errorf("expected admin %q to have email %q, got %q", key, email, a.Address)
	}
	return nil
}

func (c *configCrudContext) theConfigShouldNotContainAdmin(key string) error {
	if err := c.loadConfig(); err != nil {
		return err
	}
	key = strings.ToLower(key)
	if _, exists := c.config.Admins[key]; exists {
		return fmt.Errorf("admin %q should not exist in config", key)
	}
	return nil
}

// --- Common assertions ---

func (c *configCrudContext) theCommandShouldSucceed() error {
	if c.err != nil {
		return fmt.Errorf("expected command to succeed, got error: %v", c.err)
	}
	return nil
}

func (c *configCrudContext) theCommandShouldFailWith(expectedErr string) error {
	if c.err == nil {
		return fmt.Errorf("expected command to fail with %q, but it succeeded", expectedErr)
	}
	if !strings.Contains(c.err.Error(), expectedErr) {
		return fmt.Errorf("expected error containing %q, got %q", expectedErr, c.err.Error())
	}
	return nil
}

func (c *configCrudContext) theOutputShouldContain(expected string) error {
	if !strings.Contains(c.output.String(), expected) {
		return fmt.Errorf("expected output to contain %q, got %q", expected, c.output.String())
	}
	return nil
}
