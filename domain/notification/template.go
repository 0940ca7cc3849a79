package notification

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// TemplateData contains all the fields available for email template rendering
type TemplateData struct {
	Name      string // Full name from the sheet, may be empty
	FirstName string // First word of Name, or "Friend"
	Date      string // e.g., "May 17"
}

// NewTemplateData builds the template fields for a person on a given day
func NewTemplateData(name string, day time.Time) TemplateData {
	return TemplateData{
		Name:      strings.TrimSpace(name),
		FirstName: getFirstName(strings.TrimSpace(name)),
		Date:      day.Format("January 2"),
	}
}

// EmailTemplate contains the templates for rendering emails
type EmailTemplate struct {
	SubjectFormat string
	PlainText     string
}

// DefaultTemplate is the standard birthday greeting
var DefaultTemplate = EmailTemplate{
	SubjectFormat: "Cheers to You on Your Special Day! 🥂🎈 - NCS Wishes 🎂",
	PlainText:     "Wishing you a very happy birthday!",
}

// getFirstName extracts the first name from a full name
func getFirstName(fullName string) string {
	if fullName == "" {
		return "Friend"
	}
	first, _, _ := strings.Cut(fullName, " ")
	return first
}

// RenderSubject renders the email subject using the template
func (t *EmailTemplate) RenderSubject(data TemplateData) (string, error) {
	return renderTemplate("subject", t.SubjectFormat, data)
}

// RenderPlainText renders the plain text email body
func (t *EmailTemplate) RenderPlainText(data TemplateData) (string, error) {
	return renderTemplate("plaintext", t.PlainText, data)
}

func renderTemplate(name, tmplStr string, data TemplateData) (string, error) {
	tmpl, err := template.New(name).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
