package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/roomdesk/roomdesk/internal/outbox"
	"github.com/roomdesk/roomdesk/libs/db"
)

// Entry is one row of the activity feed shown on the admin dashboard.
type Entry struct {
	ID          int64           `json:"id"`
	Action      string          `json:"action"`
	Description string          `json:"description"`
	EntityType  string          `json:"entityType,omitempty"`
	EntityID    string          `json:"entityId,omitempty"`
	ActorID     string          `json:"actorId,omitempty"`
	IP          string          `json:"ip,omitempty"`
	UserAgent   string          `json:"userAgent,omitempty"`
	Metadata    json.RawMessage `json:"metadata"`
	CreatedAt   string          `json:"createdAt"`
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

type RecordInput struct {
	Action      string
	Description string
	EntityType  string
	EntityID    string
	ActorID     string
	IP          string
	UserAgent   string
	Metadata    map[string]any
}

func (r *Repository) Record(ctx context.Context, in RecordInput) error {
	raw, err := json.Marshal(in.Metadata)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO activity_log (action, description, entity_type, entity_id, actor_id, ip, user_agent, metadata)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)
	`, in.Action, in.Description, in.EntityType, in.EntityID, in.ActorID, in.IP, in.UserAgent, raw)
	return err
}

// RecordWithOutbox writes the activity row and a matching domain event in
// one transaction. Falls back to a plain Record when no outbox is wired.
func (r *Repository) RecordWithOutbox(ctx context.Context, outboxRepo *outbox.Repository, eventType string, in RecordInput) error {
	if outboxRepo == nil {
		return r.Record(ctx, in)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	raw, err := json.Marshal(in.Metadata)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO activity_log (action, description, entity_type, entity_id, actor_id, ip, user_agent, metadata)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)
	`, in.Action, in.Description, in.EntityType, in.EntityID, in.ActorID, in.IP, in.UserAgent, raw)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"action":      in.Action,
		"description": in.Description,
		"entity_type": in.EntityType,
		"entity_id":   in.EntityID,
		"actor_id":    in.ActorID,
		"metadata":    in.Metadata,
		"created_at":  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	if err := outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: in.EntityType,
		AggregateID:   in.EntityID,
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, action, description, entity_type, entity_id, COALESCE(actor_id, ''), ip, user_agent, metadata, created_at
		FROM activity_log
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt time.Time
		if err := rows.Scan(&e.ID, &e.Action, &e.Description, &e.EntityType, &e.EntityID, &e.ActorID, &e.IP, &e.UserAgent, &e.Metadata, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		entries = append(entries, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return entries, nil
}
