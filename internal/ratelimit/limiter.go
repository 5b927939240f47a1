// Package ratelimit implements fixed-window request counting per
// (route class, client IP) on top of kvstore.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/photo-platform/internal/kvstore"
)

// Route classes.
const (
	ClassRegister = "register"
	ClassLogin    = "login"
	ClassRefresh  = "refresh"
	ClassUpload   = "upload"
	ClassAPI      = "api"
)

// Rule allows Limit requests per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

func (r Rule) String() string {
	return fmt.Sprintf("%d/%s", r.Limit, r.Window)
}

// ParseRule parses "N/second|minute|hour|day".
func ParseRule(s string) (Rule, error) {
	n, period, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Rule{}, fmt.Errorf("rate rule %q: want N/period", s)
	}
	limit, err := strconv.Atoi(strings.TrimSpace(n))
	if err != nil || limit <= 0 {
		return Rule{}, fmt.Errorf("rate rule %q: invalid count", s)
	}
	var w time.Duration
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "s", "sec", "second":
		w = time.Second
	case "m", "min", "minute":
		w = time.Minute
	case "h", "hour":
		w = time.Hour
	case "d", "day":
		w = 24 * time.Hour
	default:
		return Rule{}, fmt.Errorf("rate rule %q: unknown period", s)
	}
	return Rule{Limit: limit, Window: w}, nil
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAfter time.Duration
}

// Limiter counts requests per class and IP.
type Limiter struct {
	store  kvstore.Store
	prefix string
	rules  map[string]Rule
}

// New builds a Limiter from textual rules. Every class must parse; the
// "api" class is required as the fallback for unknown classes.
func New(store kvstore.Store, prefix string, rules map[string]string) (*Limiter, error) {
	parsed := make(map[string]Rule, len(rules))
	for class, txt := range rules {
		r, err := ParseRule(txt)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", class, err)
		}
		parsed[class] = r
	}
	if _, ok := parsed[ClassAPI]; !ok {
		return nil, fmt.Errorf("rate limit rules: missing %q class", ClassAPI)
	}
	if prefix == "" {
		prefix = "rl"
	}
	return &Limiter{store: store, prefix: prefix, rules: parsed}, nil
}

// Rule returns the rule applied to class.
func (l *Limiter) Rule(class string) Rule {
	if r, ok := l.rules[class]; ok {
		return r
	}
	return l.rules[ClassAPI]
}

// Key is the counter key for a class and client address.
func (l *Limiter) Key(class, ip string) string {
	if ip == "" {
		ip = "unknown"
	}
	return l.prefix + ":" + class + ":" + ip
}

// Allow counts one request and decides whether it is within the limit.
// The request that pushes the count over the limit is the first denied.
func (l *Limiter) Allow(ctx context.Context, class, ip string) (Decision, error) {
	rule := l.Rule(class)
	n, ttl, err := l.store.Incr(ctx, l.Key(class, ip), rule.Window)
	if err != nil {
		return Decision{Allowed: true, Limit: rule.Limit, Remaining: rule.Limit}, err
	}
	remaining := rule.Limit - int(n)
	if remaining < 0 {
		remaining = 0
	}
	if ttl <= 0 {
		ttl = rule.Window
	}
	return Decision{
		Allowed:    n <= int64(rule.Limit),
		Limit:      rule.Limit,
		Remaining:  remaining,
		ResetAfter: ttl,
	}, nil
}
