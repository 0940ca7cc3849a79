package retry

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"ncs-birthday-mailer/domain/failure"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type recordingSleep struct {
	waits []time.Duration
}

func (s *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

func newTestRetrier(cfg Config, s *recordingSleep) (*Retrier, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return New(cfg, WithSleep(s.sleep), WithLogger(logger)), hook
}

func TestRetrier_SucceedsAfterFailures(t *testing.T) {
	s := &recordingSleep{}
	r, hook := newTestRetrier(DefaultConfig(), s)

	calls := 0
	err := r.Do(context.Background(), "send", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !reflect.DeepEqual(s.waits, []time.Duration{2 * time.Second, 4 * time.Second}) {
		t.Errorf("waits = %v, want [2s 4s]", s.waits)
	}
	if hook.LastEntry().Level != logrus.InfoLevel {
		t.Errorf("last log level = %v, want info", hook.LastEntry().Level)
	}
}

func TestRetrier_Exhausted(t *testing.T) {
	s := &recordingSleep{}
	r, _ := newTestRetrier(DefaultConfig(), s)
	transient := errors.New("421 service not available")

	calls := 0
	err := r.Do(context.Background(), "send", func(ctx context.Context) error {
		calls++
		return transient
	})

	if !errors.Is(err, ErrExhausted) || !errors.Is(err, transient) {
		t.Errorf("Do() error = %v, want ErrExhausted wrapping the last error", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(s.waits) != 2 {
		t.Errorf("waits = %v, want two", s.waits)
	}
}

func TestRetrier_FatalStopsImmediately(t *testing.T) {
	s := &recordingSleep{}
	r, _ := newTestRetrier(DefaultConfig(), s)
	fatal := failure.Fatalf("attachment missing")

	calls := 0
	err := r.Do(context.Background(), "send", func(ctx context.Context) error {
		calls++
		return fatal
	})

	if err != fatal {
		t.Errorf("Do() error = %v, want the fatal error", err)
	}
	if calls != 1 || len(s.waits) != 0 {
		t.Errorf("calls = %d waits = %v, want one call and no waits", calls, s.waits)
	}
}

func TestRetrier_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, _ := newTestRetrier(DefaultConfig(), &recordingSleep{})
	err := r.Do(ctx, "send", func(ctx context.Context) error {
		return errors.New("timeout")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
}

func TestRetrier_Backoff(t *testing.T) {
	r := New(Config{MaxAttempts: 5, InitialBackoff: time.Second, BackoffFactor: 2, MaxBackoff: 5 * time.Second})

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second}
	for attempt, w := range want {
		if got := r.Backoff(attempt); got != w {
			t.Errorf("Backoff(%d) = %v, want %v", attempt, got, w)
		}
	}
}

func TestNew_SingleAttemptMinimum(t *testing.T) {
	r, _ := newTestRetrier(Config{}, &recordingSleep{})

	calls := 0
	r.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return errors.New("boom")
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestSleep_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() error = %v, want context.Canceled", err)
	}
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Sleep() error = %v", err)
	}
}
