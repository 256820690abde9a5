// Ticketwatch - Ticket Inventory Tracking and Sales Analytics
// Copyright 2026 The Ticketwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ticketwatch/ticketwatch

package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"

	"github.com/ticketwatch/ticketwatch/internal/config"
	"github.com/ticketwatch/ticketwatch/internal/logging"
	"github.com/ticketwatch/ticketwatch/internal/metrics"
	"github.com/ticketwatch/ticketwatch/internal/models"
)

// NATSPublisher publishes sale and stats events over NATS JetStream via
// Watermill. Message UUIDs double as Nats-Msg-Id so the broker
// deduplicates redeliveries.
type NATSPublisher struct {
	publisher  message.Publisher
	topic      string
	statsTopic string

	mu     sync.RWMutex
	closed bool
}

// NewNATSPublisher connects to NATS and creates a JetStream publisher.
func NewNATSPublisher(cfg config.EventsConfig) (*NATSPublisher, error) {
	logger := newWMLogger()

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Error().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	return &NATSPublisher{
		publisher:  pub,
		topic:      cfg.Topic,
		statsTopic: cfg.StatsTopic,
	}, nil
}

// PublishSale publishes one seat sale or release to {topic}.sold or
// {topic}.released.
func (p *NATSPublisher) PublishSale(_ context.Context, event models.SaleEvent) error {
	topic := saleTopic(p.topic, event.Released)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal sale event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	msg.Metadata.Set("match_id", event.MatchID)
	msg.Metadata.Set("section", event.Section)

	return p.publish(topic, msg)
}

// PublishStats publishes a committed stats row.
func (p *NATSPublisher) PublishStats(_ context.Context, stats models.MatchStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	msg.Metadata.Set("match_id", stats.MatchID)

	return p.publish(p.statsTopic, msg)
}

func (p *NATSPublisher) publish(topic string, msg *message.Message) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("publisher is closed")
	}
	p.mu.RUnlock()

	// Nats-Msg-Id enables broker-side deduplication
	if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
		msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	}

	err := p.publisher.Publish(topic, msg)
	if err != nil {
		metrics.EventsPublished.WithLabelValues(topic, "failure").Inc()
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	metrics.EventsPublished.WithLabelValues(topic, "success").Inc()
	return nil
}

// Close closes the underlying Watermill publisher.
func (p *NATSPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
