package storage

import (
	"context"
	"database/sql"
	"time"
)

type ScheduleRepo struct{ db *sql.DB }

func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

// Create inserta la entrada con sus pre-avisos en una sola tx.
func (r *ScheduleRepo) Create(ctx context.Context, e ScheduleEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO schedules (id, group_id, kind, title, due_at, creator, status)
VALUES ($1,$2,$3,$4,$5,$6,'active')
`, e.ID, e.GroupID, e.Kind, e.Title, e.DueAt, e.Creator); err != nil {
		return err
	}
	for _, rem := range e.Reminders {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO schedule_reminders (schedule_id, fire_at, sent)
VALUES ($1,$2,$3)
ON CONFLICT (schedule_id, fire_at) DO NOTHING
`, e.ID, rem.FireAt, rem.Sent); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *ScheduleRepo) Get(ctx context.Context, id string) (ScheduleEntry, error) {
	var e ScheduleEntry
	err := r.db.QueryRowContext(ctx, `
SELECT id, group_id, kind, title, due_at, creator, status, created_at
  FROM schedules
 WHERE id = $1
`, id).Scan(&e.ID, &e.GroupID, &e.Kind, &e.Title, &e.DueAt, &e.Creator, &e.Status, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return ScheduleEntry{}, ErrNotFound
	}
	if err != nil {
		return ScheduleEntry{}, err
	}
	e.Reminders, err = r.reminders(ctx, e.ID)
	return e, err
}

func (r *ScheduleRepo) reminders(ctx context.Context, id string) ([]Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT fire_at, sent
  FROM schedule_reminders
 WHERE schedule_id = $1
 ORDER BY fire_at ASC
`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		var rem Reminder
		if err := rows.Scan(&rem.FireAt, &rem.Sent); err != nil {
			return nil, err
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}

// ListActiveFuture: entradas activas con due_at por delante; es lo que el
// scheduler re-registra al arrancar (lo ya vencido no se dispara nunca).
func (r *ScheduleRepo) ListActiveFuture(ctx context.Context) ([]ScheduleEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, group_id, kind, title, due_at, creator, status, created_at
  FROM schedules
 WHERE status = 'active' AND due_at > now()
 ORDER BY due_at ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScheduleEntry
	for rows.Next() {
		var e ScheduleEntry
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Kind, &e.Title, &e.DueAt, &e.Creator, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		rems, err := r.reminders(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Reminders = rems
	}
	return out, nil
}

func (r *ScheduleRepo) ListActiveByGroup(ctx context.Context, groupID string, limit int) ([]ScheduleEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, group_id, kind, title, due_at, creator, status, created_at
  FROM schedules
 WHERE group_id = $1 AND status = 'active'
 ORDER BY due_at ASC
 LIMIT $2
`, groupID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScheduleEntry
	for rows.Next() {
		var e ScheduleEntry
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Kind, &e.Title, &e.DueAt, &e.Creator, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkReminderSent marca un pre-aviso como enviado.
func (r *ScheduleRepo) MarkReminderSent(ctx context.Context, scheduleID string, fireAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE schedule_reminders
   SET sent = TRUE
 WHERE schedule_id = $1 AND fire_at = $2
`, scheduleID, fireAt)
	return err
}

// Complete: active -> completed, exactamente una vez.
// Devuelve false si ya no estaba activa (fire vs cancel resuelven acá).
func (r *ScheduleRepo) Complete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE schedules
   SET status = 'completed'
 WHERE id = $1 AND status = 'active'
`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// IsActive: el runner chequea el estado persistido antes de notificar.
func (r *ScheduleRepo) IsActive(ctx context.Context, id string) (bool, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT status FROM schedules WHERE id = $1`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return status == "active", nil
}
