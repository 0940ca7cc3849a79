//go:build integration

package steps

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ncs-birthday-mailer/application/birthday"
	"ncs-birthday-mailer/application/dataset"
	"ncs-birthday-mailer/cmd"
	"ncs-birthday-mailer/domain/contact"
	"ncs-birthday-mailer/domain/delivery"
	"ncs-birthday-mailer/domain/notification"
	"ncs-birthday-mailer/domain/report"
	"ncs-birthday-mailer/infrastructure/filesystem"
	"ncs-birthday-mailer/infrastructure/retry"
	"ncs-birthday-mailer/infrastructure/spreadsheet"
	"ncs-birthday-mailer/infrastructure/store"

	"github.com/cucumber/godog"
	"github.com/sirupsen/logrus/hooks/test"
)

type birthdayContext struct {
	tempDir     string
	dataPath    string
	imagePath   string
	cachePath   string
	sendLogPath string
	today       time.Time
	sender      *recordingSender
	reporter    *recordingReporter
	output      *bytes.Buffer
	err         error
}

var SharedBirthdayContext = &birthdayContext{}

// recordingSender implements notification.EmailSender for testing
type recordingSender struct {
	sent    []*notification.EmailRequest
	failFor map[string]bool
}

func (s *recordingSender) Send(ctx context.Context, req *notification.EmailRequest) error {
	if s.failFor[req.To[0].Address] {
		return fmt.Errorf("550 mailbox unavailable")
	}
	s.sent = append(s.sent, req)
	return nil
}

// recordingReporter implements cmd.RunReporter for testing
type recordingReporter struct {
	statuses []string
	failures []error
}

func (r *recordingReporter) ReportSuccess(ctx context.Context, status string, analytics *report.Analytics) {
	r.statuses = append(r.statuses, status)
}

func (r *recordingReporter) ReportFailure(ctx context.Context, err error, stage string) {
	r.failures = append(r.failures, err)
}

func InitializeBirthdayScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedBirthdayContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "birthday-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.dataPath = filepath.Join(tempDir, "contacts.csv")
		testCtx.imagePath = filepath.Join(tempDir, "birthday.png")
		testCtx.cachePath = filepath.Join(tempDir, "email_cache.yaml")
		testCtx.sendLogPath = filepath.Join(tempDir, "sent_log.yaml")
		testCtx.today = time.Now()
		testCtx.sender = &recordingSender{failFor: map[string]bool{}}
		testCtx.reporter = &recordingReporter{}
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		SharedBirthdayContext = &birthdayContext{}
		return c, nil
	})

	ctx.Step(`^a contact sheet with rows:$`, testCtx.aContactSheetWithRows)
	ctx.Step(`^today is "([^"]*)"$`, testCtx.todayIs)
	ctx.Step(`^the greeting image exists$`, testCtx.theGreetingImageExists)
	ctx.Step(`^the mail server rejects "([^"]*)"$`, testCtx.theMailServerRejects)
	ctx.Step(`^I run the birthday job$`, testCtx.iRunTheBirthdayJob)
	ctx.Step(`^(\d+) birthday emails? should have been sent$`, testCtx.birthdayEmailsShouldHaveBeenSent)
	ctx.Step(`^a birthday email should have been sent to "([^"]*)"$`, testCtx.aBirthdayEmailShouldHaveBeenSentTo)
	ctx.Step(`^the run output should contain "([^"]*)"$`, testCtx.theRunOutputShouldContain)
	ctx.Step(`^the admin report status should be "([^"]*)"$`, testCtx.theAdminReportStatusShouldBe)
	ctx.Step(`^the run should fail with "([^"]*)"$`, testCtx.theRunShouldFailWith)
	ctx.Step(`^a failure report should have been sent$`, testCtx.aFailureReportShouldHaveBeenSent)
	ctx.Step(`^the send log should contain "([^"]*)" for "([^"]*)"$`, testCtx.theSendLogShouldContain)
}

func (b *birthdayContext) aContactSheetWithRows(table *godog.Table) error {
	var records [][]string
	for _, row := range table.Rows {
		var record []string
		for _, cell := range row.Cells {
			record = append(record, cell.Value)
		}
		records = append(records, record)
	}

	f, err := os.Create(b.dataPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return w.Error()
}

func (b *birthdayContext) todayIs(date string) error {
	day, err := time.ParseInLocation(delivery.DateLayout, date, time.Local)
	if err != nil {
		return err
	}
	b.today = day
	return nil
}

func (b *birthdayContext) theGreetingImageExists() error {
	return os.WriteFile(b.imagePath, []byte("\x89PNG\r\n\x1a\n"), 0644)
}

func (b *birthdayContext) theMailServerRejects(addr string) error {
	b.sender.failFor[addr] = true
	return nil
}

func (b *birthdayContext) iRunTheBirthdayJob() error {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()

	source, err := spreadsheet.OpenFile(b.dataPath, spreadsheet.FormatAuto)
	if err != nil {
		return err
	}
	contacts := dataset.NewService(
		source,
		store.NewDatasetFile(b.cachePath),
		contact.NewResolver(contact.Validator{}),
		dataset.WithLogger(logger),
	)

	noSleep := func(ctx context.Context, d time.Duration) error { return nil }
	svc := birthday.NewService(
		contacts,
		store.NewSendLogFile(b.sendLogPath),
		b.sender,
		birthday.NewFileAttachment(b.imagePath, filesystem.NewChecker()),
		birthday.WithClock(func() time.Time { return b.today }),
		birthday.WithRetrier(retry.New(retry.DefaultConfig(), retry.WithSleep(noSleep), retry.WithLogger(logger))),
		birthday.WithOutput(b.output),
		birthday.WithLogger(logger),
	)

	b.err = cmd.RunWithDependencies(ctx, svc, b.reporter, b.output)
	return nil
}

func (b *birthdayContext) birthdayEmailsShouldHaveBeenSent(count string) error {
	want, err := strconv.Atoi(count)
	if err != nil {
		return err
	}
	if b.err != nil {
		return fmt.Errorf("run failed: %w", b.err)
	}
	if len(b.sender.sent) != want {
		return fmt.Errorf("expected %d emails sent, got %d", want, len(b.sender.sent))
	}
	return nil
}

func (b *birthdayContext) aBirthdayEmailShouldHaveBeenSentTo(addr string) error {
	for _, req := range b.sender.sent {
		if req.To[0].Address == addr {
			return nil
		}
	}
	return fmt.Errorf("no email sent to %q", addr)
}

func (b *birthdayContext) theRunOutputShouldContain(text string) error {
	if !strings.Contains(b.output.String(), text) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", text, b.output.String())
	}
	return nil
}

func (b *birthdayContext) theAdminReportStatusShouldBe(status string) error {
	if len(b.reporter.statuses) == 0 {
		return fmt.Errorf("no success report sent")
	}
	if got := b.reporter.statuses[len(b.reporter.statuses)-1]; got != status {
		return fmt.Errorf("expected status %q, got %q", status, got)
	}
	return nil
}

func (b *birthdayContext) theRunShouldFailWith(text string) error {
	if b.err == nil {
		return fmt.Errorf("expected run to fail")
	}
	if !strings.Contains(b.err.Error(), text) {
		return fmt.Errorf("expected error containing %q, got %q", text, b.err.Error())
	}
	return nil
}

func (b *birthdayContext) aFailureReportShouldHaveBeenSent() error {
	if len(b.reporter.failures) == 0 {
		return fmt.Errorf("no failure report sent")
	}
	return nil
}

func (b *birthdayContext) theSendLogShouldContain(addr, date string) error {
	log, err := store.NewSendLogFile(b.sendLogPath).Load(context.Background())
	if err != nil {
		return err
	}
	if !log.HasSent(date, addr) {
		return fmt.Errorf("send log has no %q on %s (has %v)", addr, date, log.Addresses(date))
	}
	return nil
}
