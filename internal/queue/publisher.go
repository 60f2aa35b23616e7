// Package queue delivers decoded records to a NATS subject, one JSON object
// per record. The publisher reports success or failure per record; it never
// sees the decoder and the decoder never sees it.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/weftlabs/weft/internal/model"
)

// DefaultConnectTimeout bounds the initial NATS connection attempt.
const DefaultConnectTimeout = 5 * time.Second

// Publisher publishes records to a NATS subject named by the layout's
// storage name.
type Publisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// Config holds tunable parameters for the publisher.
type Config struct {
	ConnectTimeout time.Duration
	ClientName     string
}

// Connect dials the NATS server. The connection is shared for the whole run
// and drained on Close.
func Connect(url string, logger *zap.Logger, conf ...Config) (*Publisher, error) {
	timeout := DefaultConnectTimeout
	name := "weft"
	if len(conf) > 0 {
		if conf[0].ConnectTimeout > 0 {
			timeout = conf[0].ConnectTimeout
		}
		if conf[0].ClientName != "" {
			name = conf[0].ClientName
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(timeout),
		nats.RetryOnFailedConnect(false),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &Publisher{conn: conn, logger: logger}, nil
}

// PublishRecord serializes one record and publishes it to the subject.
func (p *Publisher) PublishRecord(subject string, record *model.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("record marshal: %w", err)
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// PublishAll publishes records in order, one message per record. A failed
// record does not stop the rest; the number delivered is returned along with
// the first error encountered.
func (p *Publisher) PublishAll(subject string, records []*model.Record) (int, error) {
	sent := 0
	var firstErr error
	for i, r := range records {
		if err := p.PublishRecord(subject, r); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			p.logger.Warn("record not published",
				zap.String("subject", subject),
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		sent++
	}
	if err := p.conn.Flush(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("flush: %w", err)
	}
	return sent, firstErr
}

// Close flushes buffered messages and closes the connection.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	// Drain gives in-flight publishes a chance to leave the client.
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
