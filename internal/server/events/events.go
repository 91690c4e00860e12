// Package events publishes token lifecycle events. Publishing is best-effort:
// a broker outage never fails the operation that produced the event.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
)

// Event types.
const (
	TypeIssued  = "issued"
	TypeRotated = "rotated"
	TypeRevoked = "revoked"
	TypeSwept   = "swept"
)

// DefaultSubjectPrefix is prepended to the event type to form the subject.
const DefaultSubjectPrefix = "bankauth.tokens"

// Event is the JSON payload published for each lifecycle transition. It
// never carries token values.
type Event struct {
	Type   string    `json:"type"`
	UserID string    `json:"user_id,omitempty"`
	Count  int64     `json:"count,omitempty"`
	At     time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// conn is the part of *nats.Conn the publisher needs.
type conn interface {
	Publish(subj string, data []byte) error
}

// NATSPublisher publishes events on core NATS subjects "<prefix>.<type>".
type NATSPublisher struct {
	conn   conn
	nc     *nats.Conn
	prefix string
}

// Connect dials url and returns a publisher owning the connection.
func Connect(url string, opts ...nats.Option) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: nc, nc: nc, prefix: DefaultSubjectPrefix}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	if p == nil || p.conn == nil {
		return errors.New("nil publisher")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.prefix+"."+ev.Type, data)
}

// Close drains the connection, falling back to a hard close.
func (p *NATSPublisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}
