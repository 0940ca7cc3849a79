package store

import (
	"context"
	"errors"
	"fmt"

	"ncs-birthday-mailer/domain/delivery"
)

const (
	sendLogSchema  = "ncs-birthday-mailer/sent-log"
	sendLogVersion = 1
)

type sendLogDocument struct {
	Meta `yaml:",inline"`
	Sent map[string][]string `yaml:"sent"`
}

// SendLogFile keeps the send log in a YAML file.
type SendLogFile struct {
	path string
}

// NewSendLogFile creates a send log store at path.
func NewSendLogFile(path string) *SendLogFile {
	return &SendLogFile{path: path}
}

// Load returns the persisted log, or an empty one when the file is missing.
func (s *SendLogFile) Load(ctx context.Context) (*delivery.SendLog, error) {
	var doc sendLogDocument
	found, err := readDocument(s.path, &doc)
	if err != nil {
		return nil, err
	}
	if !found {
		return delivery.NewSendLog(), nil
	}
	if err := doc.check(sendLogSchema, sendLogVersion); err != nil {
		return nil, errors.Join(delivery.ErrUnknownSchema, err)
	}
	return delivery.FromEntries(doc.Sent), nil
}

// Save replaces the persisted log.
func (s *SendLogFile) Save(ctx context.Context, log *delivery.SendLog) error {
	if err := writeDocument(s.path, sendLogDocument{
		Meta: Meta{Schema: sendLogSchema, Version: sendLogVersion},
		Sent: log.Entries(),
	}); err != nil {
		return fmt.Errorf("failed to save send log: %w", err)
	}
	return nil
}

// Reset deletes the send log file.
func (s *SendLogFile) Reset(ctx context.Context) error {
	return removeDocument(s.path)
}

var _ delivery.SendLogStore = (*SendLogFile)(nil)
