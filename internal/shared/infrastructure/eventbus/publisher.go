package eventbus

import (
	"context"
	"errors"
	"log/slog"
)

// Publisher delivers serialized events to a broker or subscriber set.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct {
	logger *slog.Logger
}

// NewNoopPublisher creates a publisher that only logs.
func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) Publish(_ context.Context, routingKey string, payload []byte) error {
	p.logger.Debug("noop publish", "routing_key", routingKey, "size", len(payload))
	return nil
}

func (p *NoopPublisher) Close() error { return nil }

// FanoutPublisher publishes every event to all of its targets.
// A failure on any target fails the publish so the outbox retries it;
// targets must therefore tolerate duplicate delivery.
type FanoutPublisher struct {
	targets []Publisher
}

// NewFanoutPublisher combines targets, skipping nil entries.
func NewFanoutPublisher(targets ...Publisher) *FanoutPublisher {
	fp := &FanoutPublisher{}
	for _, t := range targets {
		if t != nil {
			fp.targets = append(fp.targets, t)
		}
	}
	return fp
}

func (p *FanoutPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	var errs []error
	for _, t := range p.targets {
		if err := t.Publish(ctx, routingKey, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *FanoutPublisher) Close() error {
	var errs []error
	for _, t := range p.targets {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
