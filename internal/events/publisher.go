// Package events publishes per-unit and per-run outcomes to NATS, for
// pipelines that gate downstream steps (site rebuilds, notifications) on
// documentation changes.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher emits documentation run lifecycle events.
type Publisher interface {
	UnitWritten(runID, unit string, orphaned []string) error
	UnitFailed(runID, unit, reason string) error
	RunCompleted(runID string, written, skipped, failed int) error
	Close()
}

// NoopPublisher discards all events (default when events are not configured).
type NoopPublisher struct{}

func (NoopPublisher) UnitWritten(string, string, []string) error { return nil }
func (NoopPublisher) UnitFailed(string, string, string) error    { return nil }
func (NoopPublisher) RunCompleted(string, int, int, int) error   { return nil }
func (NoopPublisher) Close()                                     {}

// NATSPublisher publishes events onto a NATS subject hierarchy:
// <subject>.unit.written, <subject>.unit.failed, <subject>.run.completed.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to NATS.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("codesworth"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	slog.Info("NATS publisher initialized", "url", url, "subject", subject)

	return &NATSPublisher{conn: conn, subject: subject}, nil
}

type unitEvent struct {
	RunID    string    `json:"run_id"`
	Unit     string    `json:"unit"`
	Reason   string    `json:"reason,omitempty"`
	Orphaned []string  `json:"orphaned,omitempty"`
	At       time.Time `json:"at"`
}

type runEvent struct {
	RunID   string    `json:"run_id"`
	Written int       `json:"written"`
	Skipped int       `json:"skipped"`
	Failed  int       `json:"failed"`
	At      time.Time `json:"at"`
}

func (p *NATSPublisher) UnitWritten(runID, unit string, orphaned []string) error {
	return p.publish(p.subject+".unit.written", unitEvent{RunID: runID, Unit: unit, Orphaned: orphaned, At: time.Now()})
}

func (p *NATSPublisher) UnitFailed(runID, unit, reason string) error {
	return p.publish(p.subject+".unit.failed", unitEvent{RunID: runID, Unit: unit, Reason: reason, At: time.Now()})
}

func (p *NATSPublisher) RunCompleted(runID string, written, skipped, failed int) error {
	return p.publish(p.subject+".run.completed", runEvent{RunID: runID, Written: written, Skipped: skipped, Failed: failed, At: time.Now()})
}

func (p *NATSPublisher) publish(subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.conn.Publish(subject, data)
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	_ = p.conn.Drain()
}
