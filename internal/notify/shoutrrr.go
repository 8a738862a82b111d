package notify

import (
	"context"
	"fmt"

	"github.com/containrrr/shoutrrr"
	"github.com/containrrr/shoutrrr/pkg/types"

	"github.com/relwatch/relwatch/internal/common/logger"
	"github.com/relwatch/relwatch/internal/config"
	"github.com/relwatch/relwatch/internal/release"
)

// Shoutrrr fans a message out to one or more shoutrrr destination URLs
// (slack://, telegram://, discord://, smtp://, generic webhooks, ...).
type Shoutrrr struct {
	urls   []string
	format release.Format
	policy Policy

	// send is swapped out in tests; the real one goes through a
	// shoutrrr ServiceRouter built from urls.
	send func(body string, params *types.Params) []error
}

// NewShoutrrr builds the fan-out notifier from a config block with a
// "urls" list (or single "url") entry.
func NewShoutrrr(cfg config.NotifierConfig, policy Policy) (*Shoutrrr, error) {
	urls := destinationURLs(cfg.Config)
	if len(urls) == 0 {
		return nil, ErrNoDestinations
	}

	format, ok := release.ParseFormat(cfg.Format)
	if !ok {
		logger.Warn("unknown message format %q, defaulting to text", cfg.Format)
	}

	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, fmt.Errorf("building sender: %w", err)
	}

	return &Shoutrrr{
		urls:   urls,
		format: format,
		policy: policy,
		send:   sender.Send,
	}, nil
}

func (s *Shoutrrr) Name() string           { return "shoutrrr" }
func (s *Shoutrrr) Format() release.Format { return s.format }

// Send delivers the message to every destination and applies the
// success policy. Attachments are not supported by the delivery layer
// and are skipped with a warning.
func (s *Shoutrrr) Send(ctx context.Context, title, body string, attachments []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(attachments) > 0 {
		logger.Warn("destinations do not support attachments, %d skipped", len(attachments))
	}

	params := types.Params{"title": title}
	errs := s.send(body, &params)

	delivered := 0
	for i, err := range errs {
		if err == nil {
			delivered++
			continue
		}
		logger.Warn("delivery to destination %d/%d failed: %v", i+1, len(errs), err)
	}

	if !s.policy.Satisfied(delivered, len(errs)) {
		return fmt.Errorf("%w: %d/%d destinations delivered (policy %s)",
			ErrDeliveryFailed, delivered, len(errs), s.policy)
	}
	return nil
}

// destinationURLs accepts either "urls: [...]" or a single "url: ...".
func destinationURLs(cfg map[string]interface{}) []string {
	var urls []string
	if raw, ok := cfg["urls"].([]interface{}); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok && s != "" {
				urls = append(urls, s)
			}
		}
	}
	if s, ok := cfg["url"].(string); ok && s != "" {
		urls = append(urls, s)
	}
	return urls
}
