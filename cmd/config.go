package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"ncs-birthday-mailer/infrastructure/config"

	"github.com/spf13/cobra"
)

// DefaultOutput is the default output writer for config commands
var DefaultOutput OutputWriter = os.Stdout

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration entries",
	Long: `Manage the admins who receive run reports in the configuration file.

Admins set with ADMIN_EMAILS replace this list at run time.

Examples:
  ncs-birthday-mailer config list admins
  ncs-birthday-mailer config add admin --key office --name "Church Office" --email office@example.com
  ncs-birthday-mailer config remove admin office`,
}

func init() {
	rootCmd.AddCommand(configCmd)

	// Add subcommands
	configCmd.AddCommand(configAddCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configRemoveCmd)
	configCmd.AddCommand(configUpdateCmd)
}

// loadFileConfig reads the config file without environment overrides so
// secrets from .env are never written back
func loadFileConfig() (*config.Config, error) {
	if cfgFile == "" {
		cfgFile = "config/config.yaml"
	}
	return config.Load(cfgFile)
}

// --- ADD command ---

var (
	addKey   string
	addName  string
	addEmail string
)

var configAddCmd = &cobra.Command{
	Use:   "add admin",
	Short: "Add a new config entry",
	Long: `Add a report recipient to the configuration.

Examples:
  ncs-birthday-mailer config add admin --key office --name "Church Office" --email "office@example.com"`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigAdd,
}

func init() {
	configAddCmd.Flags().StringVar(&addKey, "key", "", "Unique key for the entry (required)")
	configAddCmd.Flags().StringVar(&addName, "name", "", "Display name")
	configAddCmd.Flags().StringVar(&addEmail, "email", "", "Email address (required)")
	configAddCmd.MarkFlagRequired("key")
	configAddCmd.MarkFlagRequired("email")
}

func runConfigAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadFileConfig()
	if err != nil {
		return err
	}

	return RunConfigAddWithDependencies(cfg, cfgFile, args[0], addKey, addName, addEmail, DefaultOutput)
}

// RunConfigAddWithDependencies runs the add command with injected dependencies
func RunConfigAddWithDependencies(cfg *config.Config, configPath, entityType, key, name, email string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)

	switch entityType {
	case "admin":
		if email == "" {
			return fmt.Errorf("--email is required for admins")
		}
		if err := mgr.AddAdmin(key, name, email); err != nil {
			return err
		}
		fmt.Fprintf(out, "Added admin %q: %s\n", key, formatAdmin(name, email))

	default:
		return fmt.Errorf("unknown entity type %q. Use admin", entityType)
	}

	return nil
}

// --- LIST command ---

var configListCmd = &cobra.Command{
	Use:   "list admins",
	Short: "List config entries",
	Long: `List the admins who receive run reports.

Examples:
  ncs-birthday-mailer config list admins`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigList,
}

func runConfigList(cmd *cobra.Command, args []string) error {
	cfg, err := loadFileConfig()
	if err != nil {
		return err
	}

	return RunConfigListWithDependencies(cfg, cfgFile, args[0], DefaultOutput)
}

// RunConfigListWithDependencies runs the list command with injected dependencies
func RunConfigListWithDependencies(cfg *config.Config, configPath, entityType string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	switch entityType {
	case "admins":
		admins := mgr.ListAdmins()
		if len(admins) == 0 {
			fmt.Fprintln(out, "No admins configured.")
			return nil
		}
		fmt.Fprintln(w, "KEY\tNAME\tEMAIL")
		for _, a := range admins {
			fmt.Fprintf(w, "%s\t%s\t%s\n", a.Key, a.Name, a.Address)
		}

	default:
		return fmt.Errorf("unknown entity type %q. Use admins", entityType)
	}

	return w.Flush()
}

// --- REMOVE command ---

var configRemoveCmd = &cobra.Command{
	Use:   "remove admin <key>",
	Short: "Remove a config entry",
	Long: `Remove an admin from the configuration.

Examples:
  ncs-birthday-mailer config remove admin office`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigRemove,
}

func runConfigRemove(cmd *cobra.Command, args []string) error {
	cfg, err := loadFileConfig()
	if err != nil {
		return err
	}

	return RunConfigRemoveWithDependencies(cfg, cfgFile, args[0], args[1], DefaultOutput)
}

// RunConfigRemoveWithDependencies runs the remove command with injected dependencies
func RunConfigRemoveWithDependencies(cfg *config.Config, configPath, entityType, key string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)

	switch entityType {
	case "admin":
		if err := mgr.RemoveAdmin(key); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed admin %q\n", key)

	default:
		return fmt.Errorf("unknown entity type %q. Use admin", entityType)
	}

	return nil
}

// --- UPDATE command ---

var (
	updateName  string
	updateEmail string
)

var configUpdateCmd = &cobra.Command{
	Use:   "update admin <key>",
	Short: "Update a config entry",
	Long: `Update an existing admin in the configuration.

Examples:
  ncs-birthday-mailer config update admin office --email "desk@example.com"`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigUpdate,
}

func init() {
	configUpdateCmd.Flags().StringVar(&updateName, "name", "", "New display name")
	configUpdateCmd.Flags().StringVar(&updateEmail, "email", "", "New email address")
}

func runConfigUpdate(cmd *cobra.Command, args []string) error {
	if updateName == "" && updateEmail == "" {
		return fmt.Errorf("at least one of --name or --email is required")
	}

	cfg, err := loadFileConfig()
	if err != nil {
		return err
	}

	return RunConfigUpdateWithDependencies(cfg, cfgFile, args[0], args[1], updateName, updateEmail, DefaultOutput)
}

// RunConfigUpdateWithDependencies runs the update command with injected dependencies
func RunConfigUpdateWithDependencies(cfg *config.Config, configPath, entityType, key, name, email string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)

	switch entityType {
	case "admin":
		if err := mgr.UpdateAdmin(key, name, email); err != nil {
			if errors.Is(err, config.ErrAdminNotFound) {
				fmt.Fprintf(out, "To add it: %s\n", config.SuggestAddAdminCommand(key))
			}
			return err
		}
		fmt.Fprintf(out, "Updated admin %q\n", key)

	default:
		return fmt.Errorf("unknown entity type %q. Use admin", entityType)
	}

	return nil
}

func formatAdmin(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}
