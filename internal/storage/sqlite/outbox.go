package sqlite

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/example/workorders/internal/routing"
)

// Message is an envelope delivered to an outbox channel.
type Message struct {
	ID          int64
	Envelope    routing.Envelope
	PublishedAt time.Time
}

// Outbox is a routing.Publisher that appends envelopes to the messages
// table. A channel holds at most one message per dedup key; republishing
// returns the original message ID.
type Outbox struct {
	db *sql.DB
}

var _ routing.Publisher = (*Outbox)(nil)

// Outbox returns a publisher backed by this database.
func (s *SQLiteStorage) Outbox() *Outbox {
	return &Outbox{db: s.db}
}

// Publish implements routing.Publisher.
func (o *Outbox) Publish(ctx context.Context, env *routing.Envelope) (string, error) {
	var attribute sql.NullString
	if env.RoutingAttribute != "" {
		attribute = sql.NullString{String: env.RoutingAttribute, Valid: true}
	}
	_, err := o.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO messages (channel, dedup_key, group_key, routing_attribute, payload, published_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, env.Channel, env.DedupKey, env.GroupKey, attribute, string(env.Payload), time.Now().UTC())
	if err != nil {
		return "", err
	}

	var id int64
	err = o.db.QueryRowContext(ctx, `
		SELECT id FROM messages WHERE channel = ? AND dedup_key = ?
	`, env.Channel, env.DedupKey).Scan(&id)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

// Messages lists a channel's messages in delivery order. An empty channel
// lists every channel.
func (o *Outbox) Messages(ctx context.Context, channel string) ([]*Message, error) {
	query := `SELECT id, channel, dedup_key, group_key, routing_attribute, payload, published_at FROM messages`
	var args []any
	if channel != "" {
		query += ` WHERE channel = ?`
		args = append(args, channel)
	}
	query += ` ORDER BY id`

	rows, err := o.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		m := &Message{}
		var (
			attribute sql.NullString
			payload   string
		)
		if err := rows.Scan(&m.ID, &m.Envelope.Channel, &m.Envelope.DedupKey, &m.Envelope.GroupKey,
			&attribute, &payload, &m.PublishedAt); err != nil {
			return nil, err
		}
		m.Envelope.RoutingAttribute = attribute.String
		m.Envelope.Payload = []byte(payload)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
