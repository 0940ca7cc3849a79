// Package dataset memoizes the cleaned contact sheet under the fingerprint
// of its source.
package dataset

import (
	"context"
	"fmt"
	"time"

	"ncs-birthday-mailer/domain/contact"
	"ncs-birthday-mailer/domain/failure"
	"ncs-birthday-mailer/domain/report"

	"github.com/sirupsen/logrus"
)

// CacheStore persists one cleaned dataset.
type CacheStore interface {
	// Load returns nil, nil when nothing is cached.
	Load(ctx context.Context) (*contact.Dataset, error)
	Save(ctx context.Context, ds *contact.Dataset) error
	Reset(ctx context.Context) error
}

// Result is the dataset for a run together with its starting analytics.
type Result struct {
	Dataset   *contact.Dataset
	Analytics *report.Analytics
	CacheHit  bool
}

// Service loads the cleaned dataset, recomputing it only when the source
// content changed.
type Service struct {
	source   contact.Source
	cache    CacheStore
	resolver *contact.Resolver
	logger   logrus.FieldLogger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock sets the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a dataset service.
func NewService(source contact.Source, cache CacheStore, resolver *contact.Resolver, opts ...Option) *Service {
	s := &Service{
		source:   source,
		cache:    cache,
		resolver: resolver,
		logger:   logrus.StandardLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the dataset for the current source content. Source and
// column problems are fatal. A cache that cannot be read or written only
// costs a recomputation.
func (s *Service) Load(ctx context.Context) (*Result, error) {
	fingerprint, err := s.source.Fingerprint(ctx)
	if err != nil {
		return nil, failure.Fatalf("failed to fingerprint %s: %w", s.source.Name(), err)
	}

	log := s.logger.WithFields(logrus.Fields{
		"source":      s.source.Name(),
		"fingerprint": shortHash(fingerprint),
	})

	cached, err := s.cache.Load(ctx)
	if err != nil {
		entry := log.WithError(err).WithField("kind", failure.KindOf(err).String())
		if failure.KindOf(err) == failure.Informational {
			entry.Info("Rebuilding outdated dataset cache")
		} else {
			entry.Warn("Ignoring unreadable dataset cache")
		}
		cached = nil
	}
	if cached != nil && cached.Fingerprint == fingerprint {
		log.WithField("people", len(cached.People)).Info("Using cached dataset")
		return &Result{
			Dataset:   cached,
			Analytics: report.FromCleaning(cached.Cleaning),
			CacheHit:  true,
		}, nil
	}

	ds, analytics, err := s.build(ctx, fingerprint)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Save(ctx, ds); err != nil {
		log.WithError(err).Warn("Failed to write dataset cache")
	}

	log.WithFields(logrus.Fields{
		"rows":        analytics.TotalRows,
		"valid":       analytics.ValidEmails,
		"corrections": len(analytics.Corrections),
		"rejects":     len(analytics.Rejects),
	}).Info("Dataset rebuilt")

	return &Result{Dataset: ds, Analytics: analytics}, nil
}

// Invalidate drops the cached dataset.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Reset(ctx)
}

func (s *Service) build(ctx context.Context, fingerprint string) (*contact.Dataset, *report.Analytics, error) {
	table, err := s.source.ReadTable(ctx)
	if err != nil {
		return nil, nil, failure.Fatalf("failed to read %s: %w", s.source.Name(), err)
	}
	if err := table.Require(contact.ColumnEmail, contact.ColumnDOB); err != nil {
		return nil, nil, failure.AsFatal(fmt.Errorf("%s: %w", s.source.Name(), err))
	}

	analytics := &report.Analytics{}
	var people []contact.Person

	for _, row := range table.Rows {
		analytics.TotalRows++

		emails := s.resolver.Resolve(ctx, table.Cell(row, contact.ColumnEmail), analytics)
		if len(emails) == 0 {
			continue
		}
		analytics.ValidEmails++
		people = append(people, contact.Person{
			Name:   table.Cell(row, contact.ColumnName),
			Emails: emails,
			DOB:    table.Cell(row, contact.ColumnDOB),
		})
	}

	return &contact.Dataset{
		Fingerprint: fingerprint,
		Source:      s.source.Name(),
		CreatedAt:   s.now().UTC(),
		People:      people,
		Cleaning:    analytics.Cleaning(),
	}, analytics, nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
