/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package eventbus forwards in-process events to external consumers.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/friendsincode/seda/internal/events"
)

// forwardedEvents are the bus events republished to NATS.
var forwardedEvents = []events.EventType{
	events.EventNowPlaying,
	events.EventBeforePlayback,
	events.EventAfterPlayback,
	events.EventPlaybackFinished,
	events.EventTriggerFired,
	events.EventScheduleReloaded,
}

// natsMessage is the wire shape published to NATS subjects.
type natsMessage struct {
	EventType events.EventType `json:"event_type"`
	Payload   events.Payload   `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
}

// Forwarder republishes bus events on NATS subjects "seda.events.<type>".
type Forwarder struct {
	conn   *nats.Conn
	bus    *events.Bus
	logger zerolog.Logger
}

// NewForwarder connects to NATS and prepares the forwarder.
func NewForwarder(url string, bus *events.Bus, logger zerolog.Logger) (*Forwarder, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Forwarder{conn: conn, bus: bus, logger: logger}, nil
}

// Run forwards events until the context is cancelled.
func (f *Forwarder) Run(ctx context.Context) error {
	type subscription struct {
		eventType events.EventType
		ch        events.Subscriber
	}
	subs := make([]subscription, 0, len(forwardedEvents))
	for _, eventType := range forwardedEvents {
		subs = append(subs, subscription{eventType, f.bus.Subscribe(eventType)})
	}

	f.logger.Info().Str("url", f.conn.ConnectedUrl()).Msg("event forwarder started")

	for _, sub := range subs {
		go func(eventType events.EventType, ch events.Subscriber) {
			for payload := range ch {
				f.publish(eventType, payload)
			}
		}(sub.eventType, sub.ch)
	}

	<-ctx.Done()
	for _, sub := range subs {
		f.bus.Unsubscribe(sub.eventType, sub.ch)
	}
	return ctx.Err()
}

func (f *Forwarder) publish(eventType events.EventType, payload events.Payload) {
	data, err := json.Marshal(natsMessage{
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		f.logger.Warn().Err(err).Str("event", string(eventType)).Msg("marshal event failed")
		return
	}
	subject := fmt.Sprintf("seda.events.%s", eventType)
	if err := f.conn.Publish(subject, data); err != nil {
		f.logger.Debug().Err(err).Str("subject", subject).Msg("nats publish failed")
	}
}

// Close drains the NATS connection.
func (f *Forwarder) Close() error {
	return f.conn.Drain()
}
