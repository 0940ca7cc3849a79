package cmd

import (
	"fmt"
	"os"

	"ncs-birthday-mailer/infrastructure/config"
	"ncs-birthday-mailer/infrastructure/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	envFile  string
	logLevel string
	cfg      *config.Config
	cfgErr   error
)

var rootCmd = &cobra.Command{
	Use:   "ncs-birthday-mailer",
	Short: "Send birthday greetings to the contacts in a spreadsheet",
	Long: `ncs-birthday-mailer sends a birthday email to every contact whose
birthday is today and reports the outcome to the admins:

  - Clean and correct the email addresses in the contact sheet
  - Cache the cleaned sheet until its content changes
  - Send each greeting at most once per day
  - Email and Telegram a report with the run analytics

Example:
  ncs-birthday-mailer run
  ncs-birthday-mailer run --date 2026-05-17 --dry-run`,
	SilenceUsage: true,
}

// OutputWriter allows capturing output in tests
type OutputWriter interface {
	Write(p []byte) (n int, err error)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file with environment overrides")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config and LOG_LEVEL)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = "config/config.yaml"
	}

	if err := config.LoadEnvFile(envFile); err != nil {
		logrus.WithError(err).Warn("Failed to load env file")
	}

	cfg, cfgErr = config.Load(cfgFile)
	if cfgErr != nil {
		// Commands that need config report the error themselves
		cfg = nil
		return
	}
	if cfgErr = config.ApplyEnv(cfg, os.Getenv); cfgErr != nil {
		cfg = nil
		return
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if err := logging.Configure(logrus.StandardLogger(), cfg.Logging.Level, cfg.Logging.Format, os.Stderr); err != nil {
		logrus.WithError(err).Warn("Invalid logging configuration, using defaults")
	}
}

// requireConfig returns the loaded configuration or the reason it is missing
func requireConfig() (*config.Config, error) {
	if cfg == nil {
		if cfgErr != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", cfgErr)
		}
		return nil, fmt.Errorf("configuration not loaded")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
