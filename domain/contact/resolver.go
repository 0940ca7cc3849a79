package contact

import (
	"context"
	"strings"
)

// DomainChecker verifies that a domain can receive mail.
type DomainChecker interface {
	CheckDomain(ctx context.Context, domain string) error
}

// Recorder collects the side outcomes of resolving a cell.
type Recorder interface {
	RecordCorrection(original, corrected string)
	RecordReject(raw string)
}

// Validator decides whether a normalized candidate is accepted.
type Validator struct {
	// DomainCheck enables the mail-exchange lookup. When it is set but no
	// Checker is available, every domain passes.
	DomainCheck bool
	Checker     DomainChecker
}

// Accept applies the format check and, when enabled, the domain check.
func (v Validator) Accept(ctx context.Context, candidate string) bool {
	if !ValidFormat(candidate) {
		return false
	}
	return v.domainOK(ctx, candidate)
}

func (v Validator) domainOK(ctx context.Context, candidate string) bool {
	if !v.DomainCheck || v.Checker == nil {
		return true
	}
	return v.Checker.CheckDomain(ctx, Domain(candidate)) == nil
}

// Resolver turns one raw EMAIL cell into the list of accepted addresses.
type Resolver struct {
	validator Validator
}

// NewResolver creates a Resolver using the given validator.
func NewResolver(v Validator) *Resolver {
	return &Resolver{validator: v}
}

// Resolve splits raw on commas and accepts every part that is valid as-is or
// after correction. A cell that yields nothing is recorded as a reject.
func (r *Resolver) Resolve(ctx context.Context, raw string, rec Recorder) []string {
	if IsNullMarker(raw) {
		rec.RecordReject(raw)
		return nil
	}

	var accepted []string
	seen := make(map[string]bool)

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		candidate := Normalize(part)
		if candidate == "" {
			continue
		}

		corrected := false
		if !ValidFormat(candidate) {
			fixed, ok := Correct(candidate)
			if !ok || !ValidFormat(fixed) {
				continue
			}
			candidate = fixed
			corrected = true
		}

		if !r.validator.domainOK(ctx, candidate) {
			continue
		}

		if corrected {
			rec.RecordCorrection(part, candidate)
		}
		if seen[candidate] {
			continue
		}
		seen[candidate] = true
		accepted = append(accepted, candidate)
	}

	if len(accepted) == 0 {
		rec.RecordReject(raw)
	}
	return accepted
}
