// Package notify publishes per-run summaries so live dashboards can refresh
// after each batch run.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Publish connects to the NATS server, publishes v as JSON on subject, and
// flushes before disconnecting. Notification is best-effort; callers log
// failures and continue.
func Publish(url, subject string, v interface{}) error {
	nc, err := nats.Connect(url, nats.Timeout(10*time.Second), nats.Name("zedstats"))
	if err != nil {
		return fmt.Errorf("connecting to nats: %w", err)
	}
	defer nc.Close()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	if err := nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	if err := nc.Flush(); err != nil {
		return fmt.Errorf("flushing nats connection: %w", err)
	}
	return nil
}
