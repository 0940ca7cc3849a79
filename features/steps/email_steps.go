//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"ncs-birthday-mailer/cmd"
	"ncs-birthday-mailer/domain/contact"

	"github.com/cucumber/godog"
)

type emailCheckContext struct {
	output *bytes.Buffer
}

var SharedEmailCheckContext = &emailCheckContext{}

func InitializeEmailCheckScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedEmailCheckContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		testCtx.output = &bytes.Buffer{}
		return c, nil
	})

	ctx.Step(`^I check the email cell "([^"]*)"$`, testCtx.iCheckTheEmailCell)
	ctx.Step(`^the check output should contain "([^"]*)"$`, testCtx.theCheckOutputShouldContain)
	ctx.Step(`^the check output should not contain "([^"]*)"$`, testCtx.theCheckOutputShouldNotContain)
}

func (e *emailCheckContext) iCheckTheEmailCell(cell string) error {
	e.output.Reset()
	resolver := contact.NewResolver(contact.Validator{})
	return cmd.RunCheckEmailWithDependencies(context.Background(), resolver, []string{cell}, e.output)
}

func (e *emailCheckContext) theCheckOutputShouldContain(text string) error {
	if !strings.Contains(e.output.String(), text) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", text, e.output.String())
	}
	return nil
}

func (e *emailCheckContext) theCheckOutputShouldNotContain(text string) error {
	if strings.Contains(e.output.String(), text) {
		return fmt.Errorf("expected output not to contain %q, got:\n%s", text, e.output.String())
	}
	return nil
}
