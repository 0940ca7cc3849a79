package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is returned when a setting has an unsupported value
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks structural settings. Credentials are not checked here;
// a sender reports them missing when it is first used.
func (c *Config) Validate() error {
	var problems []string

	switch c.Data.Format {
	case "", "xlsx", "csv":
		if c.Data.File == "" {
			problems = append(problems, "data.file is required")
		}
	case "sheets":
		if c.Data.SheetID == "" {
			problems = append(problems, "data.sheet_id is required for format sheets")
		}
	default:
		problems = append(problems, fmt.Sprintf("data.format %q is not one of xlsx, csv, sheets", c.Data.Format))
	}

	if c.State.CacheFile == "" {
		problems = append(problems, "state.cache_file is required")
	}
	switch c.State.SendLog.Backend {
	case "", "file", "sqlite":
		if c.State.SendLog.Path == "" {
			problems = append(problems, "state.send_log.path is required")
		}
	case "redis":
		if c.State.SendLog.RedisURL == "" {
			problems = append(problems, "state.send_log.redis_url is required for backend redis")
		}
	default:
		problems = append(problems, fmt.Sprintf("state.send_log.backend %q is not one of file, sqlite, redis", c.State.SendLog.Backend))
	}

	if c.Validation.DomainCheck && c.Validation.DNSTimeout <= 0 {
		problems = append(problems, "validation.dns_timeout must be positive when domain_check is on")
	}

	switch c.Mail.Transport {
	case "smtp", "gmail":
	default:
		problems = append(problems, fmt.Sprintf("mail.transport %q is not one of smtp, gmail", c.Mail.Transport))
	}

	if c.Retry.MaxAttempts < 1 {
		problems = append(problems, "retry.max_attempts must be at least 1")
	}
	if c.Retry.InitialBackoff < 0 || c.Retry.BackoffFactor < 1 {
		problems = append(problems, "retry backoff must be non-negative with a factor of at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
