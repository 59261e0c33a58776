package storage

import (
	"context"
	"database/sql"
)

type ModLogRepo struct{ db *sql.DB }

func NewModLogRepo(db *sql.DB) *ModLogRepo { return &ModLogRepo{db: db} }

// Append: el log es append-only, nunca se edita.
func (r *ModLogRepo) Append(ctx context.Context, e ModLogEntry) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO moderation_log (group_id, action, target, moderator, reason, duration_seconds)
VALUES ($1,$2,$3,$4,$5,$6)
`, e.GroupID, e.Action, e.Target, e.Moderator, e.Reason, e.DurationSeconds)
	return err
}

func (r *ModLogRepo) ListRecent(ctx context.Context, groupID string, limit int) ([]ModLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, group_id, action, target, moderator, reason, duration_seconds, created_at
  FROM moderation_log
 WHERE group_id = $1
 ORDER BY created_at DESC
 LIMIT $2
`, groupID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ModLogEntry
	for rows.Next() {
		var e ModLogEntry
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Action, &e.Target, &e.Moderator, &e.Reason, &e.DurationSeconds, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
