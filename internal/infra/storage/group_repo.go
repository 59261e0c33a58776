package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	pq "github.com/lib/pq"
)

type GroupRepo struct{ db *sql.DB }

func NewGroupRepo(db *sql.DB) *GroupRepo { return &GroupRepo{db: db} }

const groupCols = `group_id, name, created_by, admins, moderators,
       antispam_enabled, antispam_max_messages, antispam_window_seconds, antispam_action, antispam_mute_minutes,
       wordfilter_enabled, wordfilter_blacklist, wordfilter_action,
       linkcontrol_enabled, linkcontrol_whitelist, linkcontrol_action,
       warn_limit, warn_ban_minutes, created_at, updated_at`

func scanGroup(row *sql.Row) (GroupState, error) {
	var g GroupState
	err := row.Scan(
		&g.GroupID, &g.Name, &g.CreatedBy,
		pq.Array(&g.Admins), pq.Array(&g.Moderators),
		&g.AntiSpam.Enabled, &g.AntiSpam.MaxMessages, &g.AntiSpam.WindowSeconds, &g.AntiSpam.Action, &g.AntiSpam.MuteMinutes,
		&g.WordFilter.Enabled, pq.Array(&g.WordFilter.Blacklist), &g.WordFilter.Action,
		&g.LinkControl.Enabled, pq.Array(&g.LinkControl.Whitelist), &g.LinkControl.Action,
		&g.WarnLimit, &g.WarnBanMinutes, &g.CreatedAt, &g.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return GroupState{}, ErrNotFound
	}
	return g, err
}

func (r *GroupRepo) Get(ctx context.Context, groupID string) (GroupState, error) {
	return scanGroup(r.db.QueryRowContext(ctx, `
SELECT `+groupCols+`
  FROM groups
 WHERE group_id = $1
`, groupID))
}

// Create: inserta el grupo desde el template de defaults de la migración.
// Devuelve false si ya existía (no-op idempotente).
func (r *GroupRepo) Create(ctx context.Context, groupID, name, createdBy string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO groups (group_id, name, created_by)
VALUES ($1, $2, $3)
ON CONFLICT (group_id) DO NOTHING
`, groupID, name, createdBy)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// UpdatePolicy: arma el SET solo con los campos seteados del patch.
func (r *GroupRepo) UpdatePolicy(ctx context.Context, groupID string, u GroupPolicyUpdate) (GroupState, error) {
	sets := make([]string, 0, 12)
	args := make([]any, 0, 13)
	i := 1

	add := func(col string, v any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i))
		args = append(args, v)
		i++
	}
	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.AntiSpamEnabled != nil {
		add("antispam_enabled", *u.AntiSpamEnabled)
	}
	if u.AntiSpamMaxMessages != nil {
		add("antispam_max_messages", *u.AntiSpamMaxMessages)
	}
	if u.AntiSpamWindowSeconds != nil {
		add("antispam_window_seconds", *u.AntiSpamWindowSeconds)
	}
	if u.AntiSpamAction != nil {
		add("antispam_action", *u.AntiSpamAction)
	}
	if u.AntiSpamMuteMinutes != nil {
		add("antispam_mute_minutes", *u.AntiSpamMuteMinutes)
	}
	if u.WordFilterEnabled != nil {
		add("wordfilter_enabled", *u.WordFilterEnabled)
	}
	if u.WordFilterAction != nil {
		add("wordfilter_action", *u.WordFilterAction)
	}
	if u.LinkControlEnabled != nil {
		add("linkcontrol_enabled", *u.LinkControlEnabled)
	}
	if u.LinkControlAction != nil {
		add("linkcontrol_action", *u.LinkControlAction)
	}
	if u.WarnLimit != nil {
		add("warn_limit", *u.WarnLimit)
	}
	if u.WarnBanMinutes != nil {
		add("warn_ban_minutes", *u.WarnBanMinutes)
	}
	if len(sets) == 0 {
		// nada que cambiar
		return r.Get(ctx, groupID)
	}
	add("updated_at", time.Now())
	args = append(args, groupID)

	res, err := r.db.ExecContext(ctx, `
UPDATE groups
   SET `+strings.Join(sets, ", ")+`
 WHERE group_id = $`+fmt.Sprint(i), args...)
	if err != nil {
		return GroupState{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return GroupState{}, ErrNotFound
	}
	return r.Get(ctx, groupID)
}

// Delete: reset explícito, borra el grupo y todo lo colgado por cascade.
func (r *GroupRepo) Delete(ctx context.Context, groupID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE group_id = $1`, groupID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ---------- admins / moderators ----------

func (r *GroupRepo) arrayAppend(ctx context.Context, col, groupID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`
UPDATE groups
   SET %s = array_append(%s, $2), updated_at = now()
 WHERE group_id = $1 AND NOT ($2 = ANY(%s))
`, col, col, col), groupID, userID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *GroupRepo) arrayRemove(ctx context.Context, col, groupID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(`
UPDATE groups
   SET %s = array_remove(%s, $2), updated_at = now()
 WHERE group_id = $1 AND $2 = ANY(%s)
`, col, col, col), groupID, userID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *GroupRepo) AddAdmin(ctx context.Context, groupID, userID string) (bool, error) {
	return r.arrayAppend(ctx, "admins", groupID, userID)
}
func (r *GroupRepo) RemoveAdmin(ctx context.Context, groupID, userID string) (bool, error) {
	return r.arrayRemove(ctx, "admins", groupID, userID)
}
func (r *GroupRepo) AddModerator(ctx context.Context, groupID, userID string) (bool, error) {
	return r.arrayAppend(ctx, "moderators", groupID, userID)
}
func (r *GroupRepo) RemoveModerator(ctx context.Context, groupID, userID string) (bool, error) {
	return r.arrayRemove(ctx, "moderators", groupID, userID)
}

// ---------- blacklist / whitelist ----------

func (r *GroupRepo) AddBlacklistWord(ctx context.Context, groupID, word string) (bool, error) {
	return r.arrayAppend(ctx, "wordfilter_blacklist", groupID, strings.ToLower(word))
}
func (r *GroupRepo) RemoveBlacklistWord(ctx context.Context, groupID, word string) (bool, error) {
	return r.arrayRemove(ctx, "wordfilter_blacklist", groupID, strings.ToLower(word))
}
func (r *GroupRepo) AddWhitelistDomain(ctx context.Context, groupID, domain string) (bool, error) {
	return r.arrayAppend(ctx, "linkcontrol_whitelist", groupID, strings.ToLower(domain))
}
func (r *GroupRepo) RemoveWhitelistDomain(ctx context.Context, groupID, domain string) (bool, error) {
	return r.arrayRemove(ctx, "linkcontrol_whitelist", groupID, strings.ToLower(domain))
}

// ---------- bans ----------

func (r *GroupRepo) UpsertBan(ctx context.Context, b BanRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO group_bans (group_id, user_id, reason, banned_by, banned_at, expires_at)
VALUES ($1,$2,$3,$4,now(),$5)
ON CONFLICT (group_id, user_id) DO UPDATE SET
  reason     = EXCLUDED.reason,
  banned_by  = EXCLUDED.banned_by,
  banned_at  = now(),
  expires_at = EXCLUDED.expires_at
`, b.GroupID, b.UserID, b.Reason, b.BannedBy, b.ExpiresAt)
	return err
}

func (r *GroupRepo) GetBan(ctx context.Context, groupID, userID string) (BanRecord, error) {
	var b BanRecord
	err := r.db.QueryRowContext(ctx, `
SELECT group_id, user_id, reason, banned_by, banned_at, expires_at
  FROM group_bans
 WHERE group_id = $1 AND user_id = $2
`, groupID, userID).Scan(&b.GroupID, &b.UserID, &b.Reason, &b.BannedBy, &b.BannedAt, &b.ExpiresAt)
	if err == sql.ErrNoRows {
		return BanRecord{}, ErrNotFound
	}
	return b, err
}

func (r *GroupRepo) DeleteBan(ctx context.Context, groupID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM group_bans WHERE group_id = $1 AND user_id = $2
`, groupID, userID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ---------- mutes ----------

func (r *GroupRepo) UpsertMute(ctx context.Context, m MuteRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO group_mutes (group_id, user_id, reason, muted_by, muted_at, expires_at)
VALUES ($1,$2,$3,$4,now(),$5)
ON CONFLICT (group_id, user_id) DO UPDATE SET
  reason     = EXCLUDED.reason,
  muted_by   = EXCLUDED.muted_by,
  muted_at   = now(),
  expires_at = EXCLUDED.expires_at
`, m.GroupID, m.UserID, m.Reason, m.MutedBy, m.ExpiresAt)
	return err
}

func (r *GroupRepo) GetMute(ctx context.Context, groupID, userID string) (MuteRecord, error) {
	var m MuteRecord
	err := r.db.QueryRowContext(ctx, `
SELECT group_id, user_id, reason, muted_by, muted_at, expires_at
  FROM group_mutes
 WHERE group_id = $1 AND user_id = $2
`, groupID, userID).Scan(&m.GroupID, &m.UserID, &m.Reason, &m.MutedBy, &m.MutedAt, &m.ExpiresAt)
	if err == sql.ErrNoRows {
		return MuteRecord{}, ErrNotFound
	}
	return m, err
}

func (r *GroupRepo) DeleteMute(ctx context.Context, groupID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM group_mutes WHERE group_id = $1 AND user_id = $2
`, groupID, userID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ---------- warnings ----------

// AddWarning inserta el warn y devuelve el total acumulado del usuario.
func (r *GroupRepo) AddWarning(ctx context.Context, w Warning) (int, error) {
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO group_warnings (group_id, user_id, reason, warned_by)
VALUES ($1,$2,$3,$4)
`, w.GroupID, w.UserID, w.Reason, w.WarnedBy); err != nil {
		return 0, err
	}
	return r.CountWarnings(ctx, w.GroupID, w.UserID)
}

func (r *GroupRepo) CountWarnings(ctx context.Context, groupID, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM group_warnings WHERE group_id = $1 AND user_id = $2
`, groupID, userID).Scan(&n)
	return n, err
}

func (r *GroupRepo) ListWarnings(ctx context.Context, groupID, userID string) ([]Warning, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT group_id, user_id, reason, warned_by, warned_at
  FROM group_warnings
 WHERE group_id = $1 AND user_id = $2
 ORDER BY warned_at ASC
`, groupID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Warning
	for rows.Next() {
		var w Warning
		if err := rows.Scan(&w.GroupID, &w.UserID, &w.Reason, &w.WarnedBy, &w.WarnedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *GroupRepo) ClearWarnings(ctx context.Context, groupID, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM group_warnings WHERE group_id = $1 AND user_id = $2
`, groupID, userID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
