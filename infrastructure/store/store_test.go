package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"ncs-birthday-mailer/domain/contact"
	"ncs-birthday-mailer/domain/delivery"
	"ncs-birthday-mailer/domain/failure"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

// exerciseSendLogStore checks the behaviour every backend shares.
func exerciseSendLogStore(t *testing.T, newStore func() delivery.SendLogStore) {
	t.Helper()
	ctx := context.Background()

	s := newStore()
	empty, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() on fresh store error = %v", err)
	}
	if len(empty.Dates()) != 0 {
		t.Fatalf("fresh store has dates %v", empty.Dates())
	}

	log := delivery.NewSendLog()
	log.MarkSent("2026-05-17", "jane@example.com")
	log.MarkSent("2026-05-17", "john@example.com")
	log.MarkSent("2026-05-16", "old@example.com")
	if err := s.Save(ctx, log); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// A new handle must see the same state.
	reloaded, err := newStore().Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reloaded.HasSent("2026-05-17", "jane@example.com") {
		t.Error("reloaded log lost jane")
	}
	if reloaded.HasSent("2026-05-18", "jane@example.com") {
		t.Error("reloaded log reports a send on another date")
	}
	if !reflect.DeepEqual(reloaded.Entries(), log.Entries()) {
		t.Errorf("Entries() = %v, want %v", reloaded.Entries(), log.Entries())
	}

	// Save replaces rather than merges.
	smaller := delivery.NewSendLog()
	smaller.MarkSent("2026-05-17", "jane@example.com")
	if err := s.Save(ctx, smaller); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	replaced, _ := newStore().Load(ctx)
	if !reflect.DeepEqual(replaced.Entries(), smaller.Entries()) {
		t.Errorf("after replace Entries() = %v", replaced.Entries())
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	cleared, err := newStore().Load(ctx)
	if err != nil {
		t.Fatalf("Load() after Reset error = %v", err)
	}
	if len(cleared.Dates()) != 0 {
		t.Errorf("dates after Reset = %v", cleared.Dates())
	}
}

func TestSendLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "sent_log.yaml")
	exerciseSendLogStore(t, func() delivery.SendLogStore { return NewSendLogFile(path) })
}

func TestSendLogFile_UnknownSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent_log.yaml")
	os.WriteFile(path, []byte("schema: ncs-birthday-mailer/sent-log\nversion: 9\nsent: {}\n"), 0644)

	_, err := NewSendLogFile(path).Load(context.Background())
	if !errors.Is(err, delivery.ErrUnknownSchema) || !errors.Is(err, ErrIncompatible) {
		t.Errorf("Load() error = %v, want ErrUnknownSchema", err)
	}
}

func TestSendLogFile_Document(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent_log.yaml")
	log := delivery.NewSendLog()
	log.MarkSent("2026-05-17", "jane@example.com")

	if err := NewSendLogFile(path).Save(context.Background(), log); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	for _, want := range []string{
		"schema: ncs-birthday-mailer/sent-log\n",
		"version: 1\n",
		"2026-05-17",
		"- jane@example.com",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("document missing %q:\n%s", want, data)
		}
	}
}

func TestSendLogSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent_log.db")
	var opened []*SendLogSQLite
	t.Cleanup(func() {
		for _, s := range opened {
			s.Close()
		}
	})

	exerciseSendLogStore(t, func() delivery.SendLogStore {
		s, err := OpenSendLogSQLite(context.Background(), path)
		if err != nil {
			t.Fatalf("OpenSendLogSQLite() error = %v", err)
		}
		opened = append(opened, s)
		return s
	})
}

func TestSendLogRedis(t *testing.T) {
	mr, client := setupTestRedis(t)
	exerciseSendLogStore(t, func() delivery.SendLogStore { return NewSendLogRedis(client, "test") })

	log := delivery.NewSendLog()
	log.MarkSent("2026-05-17", "jane@example.com")
	if err := NewSendLogRedis(client, "test:").Save(context.Background(), log); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("test:sent:2026-05-17") {
		t.Errorf("keys = %v, want test:sent:2026-05-17", mr.Keys())
	}
	members, _ := mr.Members("test:sent:dates")
	if !reflect.DeepEqual(members, []string{"2026-05-17"}) {
		t.Errorf("index = %v", members)
	}
}

func TestOpenSendLog(t *testing.T) {
	mr, _ := setupTestRedis(t)
	dir := t.TempDir()
	ctx := context.Background()

	tests := []struct {
		name    string
		opts    SendLogOptions
		wantErr error
	}{
		{name: "default file", opts: SendLogOptions{Path: filepath.Join(dir, "a.yaml")}},
		{name: "sqlite", opts: SendLogOptions{Backend: BackendSQLite, Path: filepath.Join(dir, "a.db")}},
		{name: "redis", opts: SendLogOptions{Backend: BackendRedis, RedisURL: "redis://" + mr.Addr() + "/0"}},
		{name: "unknown", opts: SendLogOptions{Backend: "mongo"}, wantErr: ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := OpenSendLog(ctx, tt.opts)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("OpenSendLog() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("OpenSendLog() error = %v", err)
			}
			defer backend.Close()

			if _, err := backend.Load(ctx); err != nil {
				t.Errorf("Load() error = %v", err)
			}
		})
	}
}

func TestDatasetFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "email_cache.yaml")
	s := NewDatasetFile(path)

	got, err := s.Load(ctx)
	if err != nil || got != nil {
		t.Fatalf("Load() on missing file = %v, %v; want nil, nil", got, err)
	}

	ds := &contact.Dataset{
		Fingerprint: "abc123",
		Source:      "December.xlsx",
		CreatedAt:   time.Date(2026, 5, 17, 6, 0, 0, 0, time.UTC),
		People: []contact.Person{
			{Name: "Jane", Emails: []string{"jane@example.com"}, DOB: "33010"},
		},
		Cleaning: contact.Cleaning{
			TotalRows:   2,
			ValidEmails: 1,
			Corrections: []contact.Correction{{Original: "c@d", Corrected: "c@d.com"}},
			Rejects:     []string{"nan"},
		},
	}
	if err := s.Save(ctx, ds); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err = NewDatasetFile(path).Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, ds) {
		t.Errorf("Load() = %+v, want %+v", got, ds)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("cache file still exists after Reset")
	}
	if err := s.Reset(ctx); err != nil {
		t.Errorf("Reset() on missing file error = %v", err)
	}
}

func TestDatasetFile_Incompatible(t *testing.T) {
	path := filepath.Join(t.TempDir(), "email_cache.yaml")
	os.WriteFile(path, []byte("schema: something-else\nversion: 1\n"), 0644)

	_, err := NewDatasetFile(path).Load(context.Background())
	if !errors.Is(err, ErrIncompatible) {
		t.Errorf("Load() error = %v, want ErrIncompatible", err)
	}
	if failure.KindOf(err) != failure.Informational {
		t.Errorf("KindOf() = %v, want informational", failure.KindOf(err))
	}
}

func TestDatasetFile_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "email_cache.yaml")
	os.WriteFile(path, []byte("schema: [unclosed"), 0644)

	if _, err := NewDatasetFile(path).Load(context.Background()); err == nil {
		t.Error("Load() expected error for corrupt file")
	}
}
