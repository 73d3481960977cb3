// Package notify publishes decode-completion events over NATS so downstream
// consumers (display walls, nowcasting jobs) learn a new volume is queryable.
// Ingestion itself stays file-based; this is output-side only.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is where volume summaries are published.
const DefaultSubject = "radar.volume.decoded"

// VolumeSummary is the published event payload.
type VolumeSummary struct {
	SiteCode  string    `json:"site_code"`
	SiteName  string    `json:"site_name,omitempty"`
	TaskName  string    `json:"task_name"`
	ScanStart time.Time `json:"scan_start"`
	CutCount  int       `json:"cut_count"`
	Moments   []string  `json:"moments"`
	Path      string    `json:"path,omitempty"`
}

// Publisher publishes volume summaries to a NATS subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// Connect dials the NATS server. An empty subject selects DefaultSubject.
func Connect(url, subject string) (*Publisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	nc, err := nats.Connect(url,
		nats.Name("cinrad_std"),
		nats.Timeout(10*time.Second),
		nats.MaxReconnects(5),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Publisher{nc: nc, subject: subject}, nil
}

// Publish sends one volume summary.
func (p *Publisher) Publish(s VolumeSummary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := p.nc.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish summary: %w", err)
	}
	return nil
}

// Close flushes pending messages and drops the connection.
func (p *Publisher) Close() {
	_ = p.nc.Drain()
}
