package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jose-valero/groupguard-bot/internal/infra/storage"
)

// Fakes en memoria de los puertos de storage y transporte. Mismo contrato
// que los repos reales (ErrNotFound incluido) para que los services no
// distingan contra qué corren.

func key(groupID, userID string) string { return groupID + "|" + userID }

type fakeGroupRepo struct {
	mu     sync.Mutex
	groups map[string]storage.GroupState
	bans   map[string]storage.BanRecord
	mutes  map[string]storage.MuteRecord
	warns  map[string][]storage.Warning
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		groups: map[string]storage.GroupState{},
		bans:   map[string]storage.BanRecord{},
		mutes:  map[string]storage.MuteRecord{},
		warns:  map[string][]storage.Warning{},
	}
}

func (r *fakeGroupRepo) Get(ctx context.Context, groupID string) (storage.GroupState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return storage.GroupState{}, storage.ErrNotFound
	}
	return g, nil
}

func (r *fakeGroupRepo) Create(ctx context.Context, groupID, name, createdBy string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[groupID]; ok {
		return false, nil
	}
	r.groups[groupID] = storage.GroupState{
		GroupID:        groupID,
		Name:           name,
		CreatedBy:      createdBy,
		AntiSpam:       storage.AntiSpamConfig{MaxMessages: 5, WindowSeconds: 60, Action: "mute", MuteMinutes: 10},
		WordFilter:     storage.WordFilterConfig{Action: "delete"},
		LinkControl:    storage.LinkControlConfig{Action: "delete"},
		WarnLimit:      3,
		WarnBanMinutes: 60,
	}
	return true, nil
}

func (r *fakeGroupRepo) UpdatePolicy(ctx context.Context, groupID string, u storage.GroupPolicyUpdate) (storage.GroupState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return storage.GroupState{}, storage.ErrNotFound
	}
	if u.AntiSpamEnabled != nil {
		g.AntiSpam.Enabled = *u.AntiSpamEnabled
	}
	if u.AntiSpamMaxMessages != nil {
		g.AntiSpam.MaxMessages = *u.AntiSpamMaxMessages
	}
	if u.AntiSpamWindowSeconds != nil {
		g.AntiSpam.WindowSeconds = *u.AntiSpamWindowSeconds
	}
	if u.AntiSpamAction != nil {
		g.AntiSpam.Action = *u.AntiSpamAction
	}
	if u.AntiSpamMuteMinutes != nil {
		g.AntiSpam.MuteMinutes = *u.AntiSpamMuteMinutes
	}
	if u.WordFilterEnabled != nil {
		g.WordFilter.Enabled = *u.WordFilterEnabled
	}
	if u.WordFilterAction != nil {
		g.WordFilter.Action = *u.WordFilterAction
	}
	if u.LinkControlEnabled != nil {
		g.LinkControl.Enabled = *u.LinkControlEnabled
	}
	if u.LinkControlAction != nil {
		g.LinkControl.Action = *u.LinkControlAction
	}
	if u.WarnLimit != nil {
		g.WarnLimit = *u.WarnLimit
	}
	if u.WarnBanMinutes != nil {
		g.WarnBanMinutes = *u.WarnBanMinutes
	}
	r.groups[groupID] = g
	return g, nil
}

func (r *fakeGroupRepo) Delete(ctx context.Context, groupID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[groupID]; !ok {
		return false, nil
	}
	delete(r.groups, groupID)
	return true, nil
}

func (r *fakeGroupRepo) addToList(groupID string, list func(*storage.GroupState) *[]string, item string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return false, nil
	}
	l := list(&g)
	for _, x := range *l {
		if x == item {
			return false, nil
		}
	}
	*l = append(*l, item)
	r.groups[groupID] = g
	return true, nil
}

func (r *fakeGroupRepo) removeFromList(groupID string, list func(*storage.GroupState) *[]string, item string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok {
		return false, nil
	}
	l := list(&g)
	for i, x := range *l {
		if x == item {
			*l = append((*l)[:i], (*l)[i+1:]...)
			r.groups[groupID] = g
			return true, nil
		}
	}
	return false, nil
}

func admins(g *storage.GroupState) *[]string     { return &g.Admins }
func moderators(g *storage.GroupState) *[]string { return &g.Moderators }
func blacklist(g *storage.GroupState) *[]string  { return &g.WordFilter.Blacklist }
func whitelist(g *storage.GroupState) *[]string  { return &g.LinkControl.Whitelist }

func (r *fakeGroupRepo) AddAdmin(ctx context.Context, groupID, userID string) (bool, error) {
	return r.addToList(groupID, admins, userID)
}
func (r *fakeGroupRepo) RemoveAdmin(ctx context.Context, groupID, userID string) (bool, error) {
	return r.removeFromList(groupID, admins, userID)
}
func (r *fakeGroupRepo) AddModerator(ctx context.Context, groupID, userID string) (bool, error) {
	return r.addToList(groupID, moderators, userID)
}
func (r *fakeGroupRepo) RemoveModerator(ctx context.Context, groupID, userID string) (bool, error) {
	return r.removeFromList(groupID, moderators, userID)
}
func (r *fakeGroupRepo) AddBlacklistWord(ctx context.Context, groupID, word string) (bool, error) {
	return r.addToList(groupID, blacklist, word)
}
func (r *fakeGroupRepo) RemoveBlacklistWord(ctx context.Context, groupID, word string) (bool, error) {
	return r.removeFromList(groupID, blacklist, word)
}
func (r *fakeGroupRepo) AddWhitelistDomain(ctx context.Context, groupID, domain string) (bool, error) {
	return r.addToList(groupID, whitelist, domain)
}
func (r *fakeGroupRepo) RemoveWhitelistDomain(ctx context.Context, groupID, domain string) (bool, error) {
	return r.removeFromList(groupID, whitelist, domain)
}

func (r *fakeGroupRepo) UpsertBan(ctx context.Context, b storage.BanRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bans[key(b.GroupID, b.UserID)] = b
	return nil
}

func (r *fakeGroupRepo) GetBan(ctx context.Context, groupID, userID string) (storage.BanRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bans[key(groupID, userID)]
	if !ok {
		return storage.BanRecord{}, storage.ErrNotFound
	}
	return b, nil
}

func (r *fakeGroupRepo) DeleteBan(ctx context.Context, groupID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bans[key(groupID, userID)]; !ok {
		return false, nil
	}
	delete(r.bans, key(groupID, userID))
	return true, nil
}

func (r *fakeGroupRepo) UpsertMute(ctx context.Context, m storage.MuteRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mutes[key(m.GroupID, m.UserID)] = m
	return nil
}

func (r *fakeGroupRepo) GetMute(ctx context.Context, groupID, userID string) (storage.MuteRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.mutes[key(groupID, userID)]
	if !ok {
		return storage.MuteRecord{}, storage.ErrNotFound
	}
	return m, nil
}

func (r *fakeGroupRepo) DeleteMute(ctx context.Context, groupID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.mutes[key(groupID, userID)]; !ok {
		return false, nil
	}
	delete(r.mutes, key(groupID, userID))
	return true, nil
}

func (r *fakeGroupRepo) AddWarning(ctx context.Context, w storage.Warning) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(w.GroupID, w.UserID)
	r.warns[k] = append(r.warns[k], w)
	return len(r.warns[k]), nil
}

func (r *fakeGroupRepo) CountWarnings(ctx context.Context, groupID, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.warns[key(groupID, userID)]), nil
}

func (r *fakeGroupRepo) ListWarnings(ctx context.Context, groupID, userID string) ([]storage.Warning, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws := r.warns[key(groupID, userID)]
	out := make([]storage.Warning, len(ws))
	copy(out, ws)
	return out, nil
}

func (r *fakeGroupRepo) ClearWarnings(ctx context.Context, groupID, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.warns[key(groupID, userID)]))
	delete(r.warns, key(groupID, userID))
	return n, nil
}

type fakeModLog struct {
	mu      sync.Mutex
	entries []storage.ModLogEntry
}

func (l *fakeModLog) Append(ctx context.Context, e storage.ModLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.ID = int64(len(l.entries) + 1)
	l.entries = append(l.entries, e)
	return nil
}

func (l *fakeModLog) ListRecent(ctx context.Context, groupID string, limit int) ([]storage.ModLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []storage.ModLogEntry
	for i := len(l.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if l.entries[i].GroupID == groupID {
			out = append(out, l.entries[i])
		}
	}
	return out, nil
}

func (l *fakeModLog) actions(groupID string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.entries {
		if e.GroupID == groupID {
			out = append(out, e.Action)
		}
	}
	return out
}

type sentMsg struct {
	ChatID  string
	Content string
}

type fakeTransport struct {
	mu      sync.Mutex
	sent    []sentMsg
	removed []string
	deleted []string
}

func (t *fakeTransport) SendMessage(ctx context.Context, chatID, content string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, sentMsg{ChatID: chatID, Content: content})
	return nil
}

func (t *fakeTransport) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deleted = append(t.deleted, messageID)
	return nil
}

func (t *fakeTransport) RemoveParticipant(ctx context.Context, groupID string, userIDs []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removed = append(t.removed, userIDs...)
	return nil
}

func (t *fakeTransport) GroupMetadata(ctx context.Context, groupID string) (GroupMetadata, error) {
	return GroupMetadata{Subject: "grupo de prueba"}, nil
}

func (t *fakeTransport) sentCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

type fakeScheduleRepo struct {
	mu      sync.Mutex
	entries map[string]storage.ScheduleEntry
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{entries: map[string]storage.ScheduleEntry{}}
}

func (r *fakeScheduleRepo) Create(ctx context.Context, e storage.ScheduleEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.ID] = e
	return nil
}

func (r *fakeScheduleRepo) Get(ctx context.Context, id string) (storage.ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return storage.ScheduleEntry{}, storage.ErrNotFound
	}
	return e, nil
}

func (r *fakeScheduleRepo) ListActiveFuture(ctx context.Context) ([]storage.ScheduleEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []storage.ScheduleEntry
	for _, e := range r.entries {
		if e.Status == "active" {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	return out, nil
}

func (r *fakeScheduleRepo) ListActiveByGroup(ctx context.Context, groupID string, limit int) ([]storage.ScheduleEntry, error) {
	all, _ := r.ListActiveFuture(ctx)
	var out []storage.ScheduleEntry
	for _, e := range all {
		if e.GroupID == groupID && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeScheduleRepo) MarkReminderSent(ctx context.Context, scheduleID string, fireAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[scheduleID]
	if !ok {
		return storage.ErrNotFound
	}
	for i := range e.Reminders {
		if e.Reminders[i].FireAt.Equal(fireAt) {
			e.Reminders[i].Sent = true
		}
	}
	r.entries[scheduleID] = e
	return nil
}

func (r *fakeScheduleRepo) Complete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.Status != "active" {
		return false, nil
	}
	e.Status = "completed"
	r.entries[id] = e
	return true, nil
}

func (r *fakeScheduleRepo) IsActive(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	return ok && e.Status == "active", nil
}
