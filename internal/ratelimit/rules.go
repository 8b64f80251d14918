package ratelimit

import (
	"errors"
	"fmt"
	"time"

	"github.com/Proton-105/buda-bot/pkg/config"
)

// ErrNoRule is returned for commands without a dedicated limit.
var ErrNoRule = errors.New("no rate limit rule")

// DefaultPriceCommands share the price budget when NewRules gets no explicit list.
var DefaultPriceCommands = []string{"price", "budda"}

// Rules exposes the configured limits.
type Rules struct {
	config        config.RateLimitConfig
	priceCommands map[string]struct{}
}

// NewRules builds the rule set. priceCommands name, without the leading slash, every command
// that calls the market API; they all draw from the same price window.
func NewRules(cfg config.RateLimitConfig, priceCommands ...string) *Rules {
	if len(priceCommands) == 0 {
		priceCommands = DefaultPriceCommands
	}

	set := make(map[string]struct{}, len(priceCommands))
	for _, name := range priceCommands {
		set[name] = struct{}{}
	}

	return &Rules{config: cfg, priceCommands: set}
}

// IsWhitelisted reports whether userID bypasses rate limits.
func (r *Rules) IsWhitelisted(userID int64) bool {
	for _, id := range r.config.Whitelist {
		if id == userID {
			return true
		}
	}
	return false
}

// GetPerUserLimit returns the limit applied to every update of a user.
func (r *Rules) GetPerUserLimit() (int, time.Duration, error) {
	return parseRule(r.config.PerUser)
}

// GetCommandLimit returns the extra limit for command, given without the leading slash.
func (r *Rules) GetCommandLimit(command string) (int, time.Duration, error) {
	if _, ok := r.priceCommands[command]; !ok {
		return 0, 0, ErrNoRule
	}
	return parseRule(r.config.Commands.Price)
}

func parseRule(rule config.RateLimitRule) (int, time.Duration, error) {
	if rule.Window == "" {
		return rule.Limit, 0, errors.New("window duration is not set")
	}

	window, err := time.ParseDuration(rule.Window)
	if err != nil {
		return 0, 0, fmt.Errorf("parse window %q: %w", rule.Window, err)
	}
	if window <= 0 {
		return 0, 0, fmt.Errorf("window %q must be positive", rule.Window)
	}

	return rule.Limit, window, nil
}

// LongestWindow is the widest configured window; state idle for longer can be dropped.
func (r *Rules) LongestWindow() time.Duration {
	var longest time.Duration
	for _, rule := range []config.RateLimitRule{r.config.PerUser, r.config.Commands.Price} {
		if _, window, err := parseRule(rule); err == nil && window > longest {
			longest = window
		}
	}
	return longest
}
