package delivery

import (
	"context"
	"errors"
	"sort"
	"time"
)

// DateLayout is the key format of a day in the send log.
const DateLayout = "2006-01-02"

// ErrUnknownSchema is returned when persisted state was written by an
// incompatible version.
var ErrUnknownSchema = errors.New("unknown send log schema")

// DateKey returns the send log key for t's calendar day.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// SendLog records which addresses were emailed on which day.
type SendLog struct {
	days map[string]map[string]struct{}
}

// NewSendLog creates an empty log.
func NewSendLog() *SendLog {
	return &SendLog{days: make(map[string]map[string]struct{})}
}

// FromEntries rebuilds a log from persisted date → addresses entries.
func FromEntries(entries map[string][]string) *SendLog {
	l := NewSendLog()
	for date, addrs := range entries {
		set := make(map[string]struct{}, len(addrs))
		for _, a := range addrs {
			set[a] = struct{}{}
		}
		l.days[date] = set
	}
	return l
}

// HasSent reports whether addr was marked for date.
func (l *SendLog) HasSent(date, addr string) bool {
	_, ok := l.days[date][addr]
	return ok
}

// MarkSent records addr for date.
func (l *SendLog) MarkSent(date, addr string) {
	set, ok := l.days[date]
	if !ok {
		set = make(map[string]struct{})
		l.days[date] = set
	}
	set[addr] = struct{}{}
}

// Addresses returns the sorted addresses recorded for date.
func (l *SendLog) Addresses(date string) []string {
	set := l.days[date]
	addrs := make([]string, 0, len(set))
	for a := range set {
		addrs = append(addrs, a)
	}
	sort.Strings(addrs)
	return addrs
}

// Dates returns every recorded day in ascending order.
func (l *SendLog) Dates() []string {
	dates := make([]string, 0, len(l.days))
	for d := range l.days {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Entries returns the log as date → sorted addresses for persistence.
func (l *SendLog) Entries() map[string][]string {
	entries := make(map[string][]string, len(l.days))
	for d := range l.days {
		entries[d] = l.Addresses(d)
	}
	return entries
}

// SendLogStore persists the send log between runs.
type SendLogStore interface {
	// Load returns the persisted log, or an empty one when none exists.
	Load(ctx context.Context) (*SendLog, error)
	// Save replaces the persisted log.
	Save(ctx context.Context, log *SendLog) error
	// Reset removes all persisted entries.
	Reset(ctx context.Context) error
}
