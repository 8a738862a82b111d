// Package notify delivers release notifications to external channels.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/relwatch/relwatch/internal/config"
	"github.com/relwatch/relwatch/internal/release"
)

var (
	// ErrUnknownType indicates an unregistered notifier type
	ErrUnknownType = errors.New("unknown notifier type")
	// ErrNoDestinations indicates a notifier without any destination URL
	ErrNoDestinations = errors.New("notifier has no destination urls")
	// ErrDeliveryFailed indicates the fan-out did not meet the success
	// policy; the orchestrator must not persist the version in that case
	ErrDeliveryFailed = errors.New("notification delivery failed")
)

// Policy decides when a fan-out over multiple destinations counts as
// delivered: every destination, or at least one.
type Policy string

const (
	PolicyAll Policy = "all"
	PolicyAny Policy = "any"
)

// Satisfied reports whether ok successes out of total meet the policy.
func (p Policy) Satisfied(ok, total int) bool {
	if total == 0 {
		return false
	}
	if p == PolicyAny {
		return ok > 0
	}
	return ok == total
}

// Notifier delivers one formatted message. Send returns nil only when
// the delivery met the configured success policy.
type Notifier interface {
	Send(ctx context.Context, title, body string, attachments []string) error
	Format() release.Format
	Name() string
}

// New builds a notifier from its config block.
func New(cfg config.NotifierConfig, policy Policy) (Notifier, error) {
	switch cfg.Type {
	case "shoutrrr", "":
		return NewShoutrrr(cfg, policy)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, cfg.Type)
	}
}

// NewAll builds every configured notifier.
func NewAll(cfgs []config.NotifierConfig, policy Policy) ([]Notifier, error) {
	notifiers := make([]Notifier, 0, len(cfgs))
	for _, cfg := range cfgs {
		n, err := New(cfg, policy)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}
	return notifiers, nil
}
