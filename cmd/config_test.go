package cmd

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"ncs-birthday-mailer/infrastructure/config"
)

func newTestConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.Default()
	cfg.Admins = map[string]config.RecipientConfig{
		"ops": {Name: "Ops Team", Address: "ops@example.com"},
	}
	if err := config.Save(cfg, path); err != nil {
		t.Fatal(err)
	}
	return cfg, path
}

func TestRunConfigAddWithDependencies(t *testing.T) {
	tests := []struct {
		name       string
		entityType string
		key        string
		email      string
		wantErr    error
		wantMsg    string
	}{
		{name: "new admin", entityType: "admin", key: "hr", email: "hr@example.com"},
		{name: "duplicate key", entityType: "admin", key: "OPS", email: "x@example.com", wantErr: config.ErrDuplicateKey},
		{name: "bad email", entityType: "admin", key: "hr", email: "hr-at-example", wantErr: config.ErrInvalidEmail},
		{name: "missing email", entityType: "admin", key: "hr", wantMsg: "--email is required"},
		{name: "unknown entity", entityType: "contact", key: "hr", email: "hr@example.com", wantMsg: "unknown entity type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, path := newTestConfig(t)
			var out bytes.Buffer

			err := RunConfigAddWithDependencies(cfg, path, tt.entityType, tt.key, "HR", tt.email, &out)

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
			case tt.wantMsg != "":
				if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
					t.Fatalf("error = %v, want containing %q", err, tt.wantMsg)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !strings.Contains(out.String(), `Added admin "hr": HR <hr@example.com>`) {
					t.Errorf("output = %q", out.String())
				}
				saved, err := config.Load(path)
				if err != nil {
					t.Fatal(err)
				}
				if saved.Admins["hr"].Address != "hr@example.com" {
					t.Errorf("admin not saved: %+v", saved.Admins)
				}
			}
		})
	}
}

func TestRunConfigListWithDependencies(t *testing.T) {
	cfg, path := newTestConfig(t)
	var out bytes.Buffer

	if err := RunConfigListWithDependencies(cfg, path, "admins", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"KEY", "ops", "Ops Team", "ops@example.com"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	cfg.Admins = nil
	out.Reset()
	if err := RunConfigListWithDependencies(cfg, path, "admins", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "No admins configured.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunConfigRemoveWithDependencies(t *testing.T) {
	cfg, path := newTestConfig(t)
	var out bytes.Buffer

	if err := RunConfigRemoveWithDependencies(cfg, path, "admin", "ops", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	saved, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := saved.Admins["ops"]; ok {
		t.Error("admin should have been removed")
	}

	err = RunConfigRemoveWithDependencies(cfg, path, "admin", "ops", &out)
	if !errors.Is(err, config.ErrAdminNotFound) {
		t.Errorf("error = %v, want ErrAdminNotFound", err)
	}
}

func TestRunConfigUpdateWithDependencies(t *testing.T) {
	cfg, path := newTestConfig(t)
	var out bytes.Buffer

	if err := RunConfigUpdateWithDependencies(cfg, path, "admin", "ops", "", "desk@example.com", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	saved, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	got := saved.Admins["ops"]
	if got.Name != "Ops Team" || got.Address != "desk@example.com" {
		t.Errorf("admin = %+v", got)
	}

	out.Reset()
	err = RunConfigUpdateWithDependencies(cfg, path, "admin", "ghost", "Ghost", "", &out)
	if !errors.Is(err, config.ErrAdminNotFound) {
		t.Errorf("error = %v, want ErrAdminNotFound", err)
	}
	if !strings.Contains(out.String(), "config add admin --key ghost") {
		t.Errorf("expected add suggestion, got %q", out.String())
	}
}
