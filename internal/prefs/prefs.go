// Package prefs manages the persisted user preferences: the list of
// CFOP codes excluded from the ICMS analysis. The list survives across
// sessions in the injected key-value store and is written back on every
// mutation.
package prefs

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
)

// KV is the durable key-value persistence contract. It is injected so
// the preference layer is testable without a real backend.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

// storageKey holds the JSON-encoded ordered list of ignored codes.
const storageKey = "savedCfops"

// DefaultIgnoredCFOPs is the fallback list used when no saved preference
// exists or the stored value cannot be parsed.
var DefaultIgnoredCFOPs = []string{"1152", "2152", "1905", "2905", "1949", "2949"}

var (
	codeSeparators = regexp.MustCompile(`[\s,;]+`)
	digitsOnly     = regexp.MustCompile(`^\d+$`)
)

// IgnoredCFOPs is the in-memory view of the persisted list. It is read
// once at startup; all later access goes through this value.
type IgnoredCFOPs struct {
	kv    KV
	codes []string
}

// LoadIgnoredCFOPs reads the saved list, falling back to the hardcoded
// default when the key is absent or holds malformed JSON.
func LoadIgnoredCFOPs(ctx context.Context, kv KV) (*IgnoredCFOPs, error) {
	raw, ok, err := kv.Get(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	codes := append([]string(nil), DefaultIgnoredCFOPs...)
	if ok {
		var saved []string
		if err := json.Unmarshal([]byte(raw), &saved); err != nil {
			slog.Warn("saved CFOP list is malformed, using defaults", "error", err)
		} else {
			codes = saved
		}
	}
	return &IgnoredCFOPs{kv: kv, codes: codes}, nil
}

// List returns the codes in order.
func (p *IgnoredCFOPs) List() []string {
	return append([]string(nil), p.codes...)
}

// Joined returns the codes comma-joined, the shape the analysis endpoint
// expects for the cfopsIgnorados form field.
func (p *IgnoredCFOPs) Joined() string {
	return strings.Join(p.codes, ",")
}

// Add parses raw on whitespace, comma and semicolon separators, keeps
// numeric codes not already present, and persists the updated list when
// anything was added. The added codes are returned.
func (p *IgnoredCFOPs) Add(ctx context.Context, raw string) ([]string, error) {
	var added []string
	for _, part := range codeSeparators.Split(raw, -1) {
		code := strings.TrimSpace(part)
		if code == "" || !digitsOnly.MatchString(code) {
			continue
		}
		if p.contains(code) || containsStr(added, code) {
			continue
		}
		added = append(added, code)
	}
	if len(added) == 0 {
		return nil, nil
	}
	p.codes = append(p.codes, added...)
	if err := p.save(ctx); err != nil {
		return nil, err
	}
	return added, nil
}

// Remove drops one code and persists the updated list. It reports
// whether the code was present.
func (p *IgnoredCFOPs) Remove(ctx context.Context, code string) (bool, error) {
	idx := -1
	for i, c := range p.codes {
		if c == code {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	p.codes = append(p.codes[:idx], p.codes[idx+1:]...)
	if err := p.save(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (p *IgnoredCFOPs) save(ctx context.Context) error {
	encoded, err := json.Marshal(p.codes)
	if err != nil {
		return err
	}
	return p.kv.Set(ctx, storageKey, string(encoded))
}

func (p *IgnoredCFOPs) contains(code string) bool {
	return containsStr(p.codes, code)
}

func containsStr(list []string, s string) bool {
	for _, c := range list {
		if c == s {
			return true
		}
	}
	return false
}
