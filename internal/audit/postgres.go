package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed audit repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Record inserts an audit entry.
func (r *PostgresRepository) Record(ctx context.Context, entry Entry) error {
	id := entry.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `INSERT INTO audit_log (id, actor_id, role, action, target, request_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, entry.ActorID, entry.Role, entry.Action, entry.Target, entry.RequestID, createdAt.UTC())
	return err
}

// ListByActor returns the most recent entries for one actor, newest first.
func (r *PostgresRepository) ListByActor(ctx context.Context, actorID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `SELECT id, actor_id, role, action, target, request_id, created_at
        FROM audit_log WHERE actor_id = $1 ORDER BY created_at DESC LIMIT $2`, actorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var createdAt time.Time
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.Role, &entry.Action, &entry.Target, &entry.RequestID, &createdAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = createdAt.UTC()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
