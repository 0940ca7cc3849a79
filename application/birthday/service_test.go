package birthday

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ncs-birthday-mailer/application/dataset"
	"ncs-birthday-mailer/domain/contact"
	"ncs-birthday-mailer/domain/delivery"
	"ncs-birthday-mailer/domain/failure"
	"ncs-birthday-mailer/domain/notification"
	"ncs-birthday-mailer/domain/report"
	"ncs-birthday-mailer/infrastructure/retry"

	"github.com/sirupsen/logrus/hooks/test"
)

// --- Mock implementations for testing ---

type mockContacts struct {
	people []contact.Person
	err    error
}

func (m *mockContacts) Load(ctx context.Context) (*dataset.Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dataset.Result{
		Dataset:   &contact.Dataset{People: m.people},
		Analytics: &report.Analytics{TotalRows: len(m.people), ValidEmails: len(m.people)},
	}, nil
}

type memorySendLog struct {
	entries map[string][]string
	loadErr error
	saveErr error
	saves   int
}

func (m *memorySendLog) Load(ctx context.Context) (*delivery.SendLog, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return delivery.FromEntries(m.entries), nil
}

func (m *memorySendLog) Save(ctx context.Context, log *delivery.SendLog) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries = log.Entries()
	return nil
}

func (m *memorySendLog) Reset(ctx context.Context) error {
	m.entries = nil
	return nil
}

type mockSender struct {
	sent     []*notification.EmailRequest
	failFor  map[string]error // address -> error returned on every attempt
	attempts map[string]int
}

func newMockSender() *mockSender {
	return &mockSender{failFor: map[string]error{}, attempts: map[string]int{}}
}

func (m *mockSender) Send(ctx context.Context, req *notification.EmailRequest) error {
	addr := req.To[0].Address
	m.attempts[addr]++
	if err := m.failFor[addr]; err != nil {
		return err
	}
	m.sent = append(m.sent, req)
	return nil
}

type mockAttachment struct {
	err error
}

func (m *mockAttachment) LoadAttachment() (*notification.Attachment, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &notification.Attachment{Filename: "birthday.png", ContentType: "image/png", Data: []byte{0x89}}, nil
}

var today = time.Date(2026, time.May, 17, 9, 0, 0, 0, time.UTC)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func newTestService(contacts DatasetLoader, log *memorySendLog, sender *mockSender, opts ...Option) *Service {
	logger, _ := test.NewNullLogger()
	base := []Option{
		WithLogger(logger),
		WithClock(func() time.Time { return today }),
		WithRetrier(retry.New(retry.DefaultConfig(), retry.WithSleep(noSleep), retry.WithLogger(logger))),
	}
	return NewService(contacts, log, sender, &mockAttachment{}, append(base, opts...)...)
}

func TestService_Run_NoBirthdays(t *testing.T) {
	contacts := &mockContacts{people: []contact.Person{
		{Name: "Other", Emails: []string{"o@example.com"}, DOB: "01/01/1990"},
	}}
	log := &memorySendLog{}
	sender := newMockSender()
	var out bytes.Buffer

	res, err := newTestService(contacts, log, sender, WithOutput(&out)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.Status != StatusNoBirthdays {
		t.Errorf("Status = %q", res.Status)
	}
	if len(sender.sent) != 0 || log.saves != 0 {
		t.Errorf("sent=%d saves=%d, want nothing touched", len(sender.sent), log.saves)
	}
	if !strings.Contains(out.String(), StatusNoBirthdays) {
		t.Errorf("output = %q", out.String())
	}
}

func TestService_Run_SendsAndRecords(t *testing.T) {
	contacts := &mockContacts{people: []contact.Person{
		{Name: "Jane Doe", Emails: []string{"jane@example.com", "jd@work.com"}, DOB: "1990-05-17"},
		{Name: "Nope", Emails: []string{"nope@example.com"}, DOB: "not-a-date"},
	}}
	log := &memorySendLog{}
	sender := newMockSender()

	res, err := newTestService(contacts, log, sender).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.Status != "Successfully processed 2 new birthday emails." {
		t.Errorf("Status = %q", res.Status)
	}
	a := res.Analytics
	if a.BirthdaysFound != 1 || a.EmailsSent != 2 || a.SendFailures != 0 {
		t.Errorf("analytics = %+v", a)
	}
	if got := log.entries["2026-05-17"]; len(got) != 2 {
		t.Errorf("send log entries = %v", log.entries)
	}

	req := sender.sent[0]
	if req.Subject != notification.DefaultTemplate.SubjectFormat {
		t.Errorf("Subject = %q", req.Subject)
	}
	if len(req.Attachments) != 1 || req.Attachments[0].Filename != "birthday.png" {
		t.Errorf("Attachments = %+v", req.Attachments)
	}
	if req.To[0].Name != "Jane Doe" {
		t.Errorf("To = %+v", req.To)
	}
}

func TestService_Run_SkipsAlreadySent(t *testing.T) {
	contacts := &mockContacts{people: []contact.Person{
		{Emails: []string{"jane@example.com"}, DOB: "05/17/1990"},
	}}
	log := &memorySendLog{entries: map[string][]string{"2026-05-17": {"jane@example.com"}}}
	sender := newMockSender()

	res, err := newTestService(contacts, log, sender).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(sender.sent) != 0 {
		t.Errorf("sent %d emails, want 0", len(sender.sent))
	}
	if res.Analytics.SkippedSends != 1 || res.Analytics.EmailsSent != 0 {
		t.Errorf("analytics = %+v", res.Analytics)
	}
	if res.Status != "Successfully processed 0 new birthday emails." {
		t.Errorf("Status = %q", res.Status)
	}
}

func TestService_Run_RetryExhaustionContinues(t *testing.T) {
	contacts := &mockContacts{people: []contact.Person{
		{Emails: []string{"down@example.com", "ok@example.com"}, DOB: "05/17/1990"},
	}}
	log := &memorySendLog{}
	sender := newMockSender()
	sender.failFor["down@example.com"] = errors.New("connection reset")

	res, err := newTestService(contacts, log, sender).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if sender.attempts["down@example.com"] != 3 {
		t.Errorf("attempts = %d, want 3", sender.attempts["down@example.com"])
	}
	if res.Analytics.SendFailures != 1 || res.Analytics.EmailsSent != 1 {
		t.Errorf("analytics = %+v", res.Analytics)
	}
	if got := log.entries["2026-05-17"]; len(got) != 1 || got[0] != "ok@example.com" {
		t.Errorf("send log = %v, want only the delivered address", got)
	}
}

func TestService_Run_FatalSendAborts(t *testing.T) {
	contacts := &mockContacts{people: []contact.Person{
		{Emails: []string{"first@example.com", "second@example.com"}, DOB: "05/17/1990"},
	}}
	log := &memorySendLog{}
	sender := newMockSender()
	sender.failFor["first@example.com"] = failure.Fatalf("%w: no password", notification.ErrNotConfigured)

	_, err := newTestService(contacts, log, sender).Run(context.Background())

	if !failure.IsFatal(err) {
		t.Fatalf("Run() error = %v, want fatal", err)
	}
	if StageOf(err) != StageSend {
		t.Errorf("StageOf() = %q, want %q", StageOf(err), StageSend)
	}
	if sender.attempts["first@example.com"] != 1 {
		t.Errorf("fatal error retried %d times", sender.attempts["first@example.com"])
	}
	if sender.attempts["second@example.com"] != 0 {
		t.Error("run should stop at the first fatal error")
	}
	if log.saves != 1 {
		t.Errorf("send log saves = %d, want 1", log.saves)
	}
}

func TestService_Run_FatalStages(t *testing.T) {
	birthdayToday := []contact.Person{{Emails: []string{"a@example.com"}, DOB: "05/17/1990"}}

	tests := []struct {
		name       string
		contacts   *mockContacts
		log        *memorySendLog
		attachment *mockAttachment
		wantStage  string
	}{
		{
			name:       "dataset failure",
			contacts:   &mockContacts{err: failure.Fatalf("%w: DOB", contact.ErrMissingColumns)},
			log:        &memorySendLog{},
			attachment: &mockAttachment{},
			wantStage:  StageDataset,
		},
		{
			name:       "missing attachment",
			contacts:   &mockContacts{people: birthdayToday},
			log:        &memorySendLog{},
			attachment: &mockAttachment{err: ErrAttachmentMissing},
			wantStage:  StageAttach,
		},
		{
			name:       "unknown send log schema",
			contacts:   &mockContacts{people: birthdayToday},
			log:        &memorySendLog{loadErr: delivery.ErrUnknownSchema},
			attachment: &mockAttachment{},
			wantStage:  StageSendLog,
		},
		{
			name:       "send log save failure",
			contacts:   &mockContacts{people: birthdayToday},
			log:        &memorySendLog{saveErr: errors.New("read-only fs")},
			attachment: &mockAttachment{},
			wantStage:  StageSaveLog,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			svc := NewService(tt.contacts, tt.log, newMockSender(), tt.attachment,
				WithLogger(logger),
				WithClock(func() time.Time { return today }),
				WithRetrier(retry.New(retry.DefaultConfig(), retry.WithSleep(noSleep))),
			)

			_, err := svc.Run(context.Background())
			if !failure.IsFatal(err) {
				t.Fatalf("Run() error = %v, want fatal", err)
			}
			if got := StageOf(err); got != tt.wantStage {
				t.Errorf("StageOf() = %q, want %q", got, tt.wantStage)
			}
		})
	}
}

func TestService_Run_DryRun(t *testing.T) {
	contacts := &mockContacts{people: []contact.Person{
		{Name: "Jane", Emails: []string{"jane@example.com"}, DOB: "05/17/1990"},
	}}
	log := &memorySendLog{}
	sender := newMockSender()
	var out bytes.Buffer

	svc := newTestService(contacts, log, sender, WithDryRun(true), WithOutput(&out))
	svc.attachment = &mockAttachment{err: ErrAttachmentMissing}

	res, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(sender.sent) != 0 || log.saves != 0 {
		t.Error("dry run must not send or record")
	}
	if res.Status != "Dry run: 1 birthday emails would be sent." {
		t.Errorf("Status = %q", res.Status)
	}
	if !strings.Contains(out.String(), "Would send to: Jane <jane@example.com>") {
		t.Errorf("output = %q", out.String())
	}
}

func TestService_Run_CustomTemplate(t *testing.T) {
	contacts := &mockContacts{people: []contact.Person{
		{Name: "Jane Doe", Emails: []string{"jane@example.com"}, DOB: "05/17/1990"},
	}}
	sender := newMockSender()
	tmpl := notification.EmailTemplate{
		SubjectFormat: "Happy birthday {{.FirstName}}!",
		PlainText:     "See you on {{.Date}}",
	}

	_, err := newTestService(contacts, &memorySendLog{}, sender, WithTemplate(tmpl)).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if sender.sent[0].Subject != "Happy birthday Jane!" {
		t.Errorf("Subject = %q", sender.sent[0].Subject)
	}
	if sender.sent[0].PlainText != "See you on May 17" {
		t.Errorf("PlainText = %q", sender.sent[0].PlainText)
	}
}

func TestService_Run_BadTemplateIsFatal(t *testing.T) {
	contacts := &mockContacts{people: []contact.Person{
		{Emails: []string{"jane@example.com"}, DOB: "05/17/1990"},
	}}
	tmpl := notification.EmailTemplate{SubjectFormat: "{{.Broken", PlainText: "x"}

	_, err := newTestService(contacts, &memorySendLog{}, newMockSender(), WithTemplate(tmpl)).Run(context.Background())
	if StageOf(err) != StageCompose || !failure.IsFatal(err) {
		t.Errorf("Run() error = %v, want fatal compose error", err)
	}
}

// Two runs on the same day through the real dataset service: the second run
// sends nothing and counts one skip.
func TestService_Run_TwiceSameDay(t *testing.T) {
	logger, _ := test.NewNullLogger()
	src := &tableSource{table: contact.NewTable(
		[]string{"EMAIL", "DOB"},
		[][]string{{"Jane@Example.COM", "05/17/1990"}},
	)}
	contacts := dataset.NewService(src, &memoryCache{}, contact.NewResolver(contact.Validator{}), dataset.WithLogger(logger))
	log := &memorySendLog{}
	sender := newMockSender()

	first, err := newTestService(contacts, log, sender).Run(context.Background())
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if first.Analytics.EmailsSent != 1 || len(sender.sent) != 1 {
		t.Fatalf("first run sent %d", first.Analytics.EmailsSent)
	}
	if sender.sent[0].To[0].Address != "jane@example.com" {
		t.Errorf("sent to %q, want normalized address", sender.sent[0].To[0].Address)
	}

	second, err := newTestService(contacts, log, sender).Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if second.Analytics.EmailsSent != 0 || second.Analytics.SkippedSends != 1 {
		t.Errorf("second run analytics = %+v", second.Analytics)
	}
	if len(sender.sent) != 1 {
		t.Errorf("total sends = %d, want 1", len(sender.sent))
	}
}

type tableSource struct {
	table *contact.Table
}

func (s *tableSource) Name() string { return "memory" }

func (s *tableSource) Fingerprint(ctx context.Context) (string, error) { return "fixed", nil }

func (s *tableSource) ReadTable(ctx context.Context) (*contact.Table, error) { return s.table, nil }

type memoryCache struct {
	ds *contact.Dataset
}

func (c *memoryCache) Load(ctx context.Context) (*contact.Dataset, error) { return c.ds, nil }

func (c *memoryCache) Save(ctx context.Context, ds *contact.Dataset) error {
	c.ds = ds
	return nil
}

func (c *memoryCache) Reset(ctx context.Context) error {
	c.ds = nil
	return nil
}
