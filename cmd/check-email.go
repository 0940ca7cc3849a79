package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"ncs-birthday-mailer/domain/contact"
	"ncs-birthday-mailer/domain/report"

	"github.com/spf13/cobra"
)

var checkDomain bool

var checkEmailCmd = &cobra.Command{
	Use:   "check-email <cell>...",
	Short: "Show how EMAIL cells would be cleaned",
	Long: `Runs the address cleaning used for the contact sheet on each argument
and prints the accepted addresses, the corrections made and whether the
cell would be rejected.

Examples:
  ncs-birthday-mailer check-email "Jane@Example.COM"
  ncs-birthday-mailer check-email "a@b.com, c@d,com" nan --domain-check`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheckEmail,
}

func init() {
	rootCmd.AddCommand(checkEmailCmd)
	checkEmailCmd.Flags().BoolVar(&checkDomain, "domain-check", false, "Also require a mail exchange for the domain")
}

func runCheckEmail(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}
	domainCheck := checkDomain || cfg.Validation.DomainCheck
	resolver := contact.NewResolver(newValidator(cfg, domainCheck))
	return RunCheckEmailWithDependencies(cmd.Context(), resolver, args, os.Stdout)
}

// RunCheckEmailWithDependencies resolves each cell and prints the outcome
func RunCheckEmailWithDependencies(ctx context.Context, resolver *contact.Resolver, cells []string, output OutputWriter) error {
	for i, cell := range cells {
		if i > 0 {
			fmt.Fprintln(output)
		}
		rec := &report.Analytics{}
		accepted := resolver.Resolve(ctx, cell, rec)

		fmt.Fprintf(output, "%q\n", cell)
		if len(accepted) > 0 {
			fmt.Fprintf(output, "  Accepted: %s\n", strings.Join(accepted, ", "))
		}
		for _, c := range rec.Corrections {
			fmt.Fprintf(output, "  %s\n", report.CorrectionMessage(c))
		}
		if len(rec.Rejects) > 0 {
			fmt.Fprintln(output, "  Rejected: no valid address")
		}
	}
	return nil
}
