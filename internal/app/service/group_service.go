package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jose-valero/groupguard-bot/internal/domain"
	"github.com/jose-valero/groupguard-bot/internal/infra/identity"
	"github.com/jose-valero/groupguard-bot/internal/infra/storage"
)

// GroupService es el registro de estado por grupo: config de moderación,
// admins/moderadores, bans/mutes con expiry perezoso y warns con escalado.
type GroupService struct {
	repo   GroupRepo
	modlog ModLogRepo
	ids    *identity.Normalizer
	now    func() time.Time

	adminMu      sync.RWMutex
	globalAdmins map[string]struct{}

	// un mutex por grupo; serializa mutaciones y el read-then-delete del expiry
	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

func NewGroupService(repo GroupRepo, modlog ModLogRepo, ids *identity.Normalizer, globalAdminIDs []string) *GroupService {
	s := &GroupService{
		repo:   repo,
		modlog: modlog,
		ids:    ids,
		now:    time.Now,
		locks:  map[string]*sync.Mutex{},
	}
	s.SetGlobalAdmins(globalAdminIDs)
	return s
}

// SetGlobalAdmins reemplaza la lista de admins globales del bot. Es la
// operación de reload explícita: se llama al boot y desde el endpoint admin.
func (s *GroupService) SetGlobalAdmins(ids []string) {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[s.ids.Normalize(id)] = struct{}{}
	}
	s.adminMu.Lock()
	s.globalAdmins = m
	s.adminMu.Unlock()
}

func (s *GroupService) lock(groupID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	mu, ok := s.locks[groupID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[groupID] = mu
	}
	return mu
}

// ---------- registry ----------

func (s *GroupService) Get(ctx context.Context, groupID string) (storage.GroupState, error) {
	return s.repo.Get(ctx, groupID)
}

// Init crea el grupo desde el template; el creador entra como admin.
// Devuelve false si el grupo ya existía.
func (s *GroupService) Init(ctx context.Context, groupID, name, createdBy string) (bool, error) {
	created, err := s.repo.Create(ctx, groupID, name, s.ids.Normalize(createdBy))
	if err != nil || !created {
		return created, err
	}
	if _, err := s.repo.AddAdmin(ctx, groupID, s.ids.Normalize(createdBy)); err != nil {
		return true, err
	}
	return true, nil
}

func (s *GroupService) UpdatePolicy(ctx context.Context, groupID string, u storage.GroupPolicyUpdate) (storage.GroupState, error) {
	mu := s.lock(groupID)
	mu.Lock()
	defer mu.Unlock()
	return s.repo.UpdatePolicy(ctx, groupID, u)
}

// Reset: único borrado duro, solo vía comando admin. El moderation_log queda.
func (s *GroupService) Reset(ctx context.Context, groupID, by string) (bool, error) {
	mu := s.lock(groupID)
	mu.Lock()
	defer mu.Unlock()
	ok, err := s.repo.Delete(ctx, groupID)
	if err == nil && ok {
		s.logAction(ctx, groupID, "reset", "", by, "", nil)
	}
	return ok, err
}

// ---------- predicados ----------

// IsAdmin: admin global del bot O miembro de GroupState.admins.
func (s *GroupService) IsAdmin(ctx context.Context, groupID, rawUser string) bool {
	canon := s.ids.Normalize(rawUser)

	s.adminMu.RLock()
	_, global := s.globalAdmins[canon]
	s.adminMu.RUnlock()
	if global {
		return true
	}

	g, err := s.repo.Get(ctx, groupID)
	if err != nil {
		return false
	}
	for _, a := range g.Admins {
		if s.ids.Normalize(a) == canon {
			return true
		}
	}
	return false
}

func (s *GroupService) IsModerator(ctx context.Context, groupID, rawUser string) bool {
	if s.IsAdmin(ctx, groupID, rawUser) {
		return true
	}
	canon := s.ids.Normalize(rawUser)
	g, err := s.repo.Get(ctx, groupID)
	if err != nil {
		return false
	}
	for _, m := range g.Moderators {
		if s.ids.Normalize(m) == canon {
			return true
		}
	}
	return false
}

// IsBanned aplica expiry perezoso: un registro vencido cuenta como ausente y
// se borra en este mismo check (dos checks concurrentes sobre el mismo
// registro vencido son un no-op idempotente).
func (s *GroupService) IsBanned(ctx context.Context, groupID, rawUser string) (bool, error) {
	canon := s.ids.Normalize(rawUser)
	mu := s.lock(groupID)
	mu.Lock()
	defer mu.Unlock()

	b, err := s.repo.GetBan(ctx, groupID, canon)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if b.ExpiresAt != nil && !b.ExpiresAt.After(s.now()) {
		if _, err := s.repo.DeleteBan(ctx, groupID, canon); err != nil {
			log.Printf("lazy expiry ban %s/%s: %v", groupID, canon, err)
		}
		return false, nil
	}
	return true, nil
}

func (s *GroupService) IsMuted(ctx context.Context, groupID, rawUser string) (bool, error) {
	canon := s.ids.Normalize(rawUser)
	mu := s.lock(groupID)
	mu.Lock()
	defer mu.Unlock()

	m, err := s.repo.GetMute(ctx, groupID, canon)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if m.ExpiresAt != nil && !m.ExpiresAt.After(s.now()) {
		if _, err := s.repo.DeleteMute(ctx, groupID, canon); err != nil {
			log.Printf("lazy expiry mute %s/%s: %v", groupID, canon, err)
		}
		return false, nil
	}
	return true, nil
}

// ---------- acciones ----------

// Ban: d <= 0 es permanente.
func (s *GroupService) Ban(ctx context.Context, groupID, target, moderator, reason string, d time.Duration) error {
	canon := s.ids.Normalize(target)
	mu := s.lock(groupID)
	mu.Lock()
	defer mu.Unlock()

	var exp *time.Time
	var durSecs *int64
	if d > 0 {
		t := s.now().Add(d)
		exp = &t
		secs := int64(d.Seconds())
		durSecs = &secs
	}
	if err := s.repo.UpsertBan(ctx, storage.BanRecord{
		GroupID:   groupID,
		UserID:    canon,
		Reason:    reason,
		BannedBy:  s.ids.Normalize(moderator),
		ExpiresAt: exp,
	}); err != nil {
		return err
	}
	s.logAction(ctx, groupID, domain.ActionBan, canon, moderator, reason, durSecs)
	return nil
}

func (s *GroupService) Unban(ctx context.Context, groupID, target, moderator string) (bool, error) {
	canon := s.ids.Normalize(target)
	mu := s.lock(groupID)
	mu.Lock()
	defer mu.Unlock()

	ok, err := s.repo.DeleteBan(ctx, groupID, canon)
	if err == nil && ok {
		s.logAction(ctx, groupID, domain.ActionUnban, canon, moderator, "", nil)
	}
	return ok, err
}

func (s *GroupService) Mute(ctx context.Context, groupID, target, moderator, reason string, d time.Duration) error {
	canon := s.ids.Normalize(target)
	mu := s.lock(groupID)
	mu.Lock()
	defer mu.Unlock()

	var exp *time.Time
	var durSecs *int64
	if d > 0 {
		t := s.now().Add(d)
		exp = &t
		secs := int64(d.Seconds())
		durSecs = &secs
	}
	if err := s.repo.UpsertMute(ctx, storage.MuteRecord{
		GroupID:   groupID,
		UserID:    canon,
		Reason:    reason,
		MutedBy:   s.ids.Normalize(moderator),
		ExpiresAt: exp,
	}); err != nil {
		return err
	}
	s.logAction(ctx, groupID, domain.ActionMute, canon, moderator, reason, durSecs)
	return nil
}

func (s *GroupService) Unmute(ctx context.Context, groupID, target, moderator string) (bool, error) {
	canon := s.ids.Normalize(target)
	mu := s.lock(groupID)
	mu.Lock()
	defer mu.Unlock()

	ok, err := s.repo.DeleteMute(ctx, groupID, canon)
	if err == nil && ok {
		s.logAction(ctx, groupID, domain.ActionUnmute, canon, moderator, "", nil)
	}
	return ok, err
}

// Warn registra la advertencia y escala a ban temporal al llegar al límite
// del grupo. Devuelve el total acumulado y si hubo escalado; al escalar los
// warns vuelven a cero.
func (s *GroupService) Warn(ctx context.Context, groupID, target, moderator, reason string) (int, bool, error) {
	canon := s.ids.Normalize(target)
	mu := s.lock(groupID)
	mu.Lock()
	defer mu.Unlock()

	g, err := s.repo.Get(ctx, groupID)
	if err != nil {
		return 0, false, err
	}
	count, err := s.repo.AddWarning(ctx, storage.Warning{
		GroupID:  groupID,
		UserID:   canon,
		Reason:   reason,
		WarnedBy: s.ids.Normalize(moderator),
	})
	if err != nil {
		return 0, false, err
	}
	s.logAction(ctx, groupID, domain.ActionWarn, canon, moderator, reason, nil)

	if count < g.WarnLimit {
		return count, false, nil
	}

	// escalado: ban temporal + warns en cero
	d := time.Duration(g.WarnBanMinutes) * time.Minute
	exp := s.now().Add(d)
	secs := int64(d.Seconds())
	if err := s.repo.UpsertBan(ctx, storage.BanRecord{
		GroupID:   groupID,
		UserID:    canon,
		Reason:    "límite de advertencias alcanzado",
		BannedBy:  "bot",
		ExpiresAt: &exp,
	}); err != nil {
		return count, false, err
	}
	if _, err := s.repo.ClearWarnings(ctx, groupID, canon); err != nil {
		log.Printf("clear warnings %s/%s: %v", groupID, canon, err)
	}
	s.logAction(ctx, groupID, domain.ActionAutoBan, canon, "bot", "límite de advertencias alcanzado", &secs)
	return count, true, nil
}

func (s *GroupService) Warnings(ctx context.Context, groupID, target string) ([]storage.Warning, error) {
	return s.repo.ListWarnings(ctx, groupID, s.ids.Normalize(target))
}

func (s *GroupService) ClearWarnings(ctx context.Context, groupID, target, moderator string) (int64, error) {
	canon := s.ids.Normalize(target)
	n, err := s.repo.ClearWarnings(ctx, groupID, canon)
	if err == nil && n > 0 {
		s.logAction(ctx, groupID, "clearwarns", canon, moderator, "", nil)
	}
	return n, err
}

// LogKick deja constancia de un kick; la remoción en sí la hace el transporte.
func (s *GroupService) LogKick(ctx context.Context, groupID, target, moderator, reason string) {
	s.logAction(ctx, groupID, domain.ActionKick, s.ids.Normalize(target), moderator, reason, nil)
}

func (s *GroupService) Promote(ctx context.Context, groupID, target, moderator string) (bool, error) {
	canon := s.ids.Normalize(target)
	ok, err := s.repo.AddModerator(ctx, groupID, canon)
	if err == nil && ok {
		s.logAction(ctx, groupID, "promote", canon, moderator, "", nil)
	}
	return ok, err
}

func (s *GroupService) Demote(ctx context.Context, groupID, target, moderator string) (bool, error) {
	canon := s.ids.Normalize(target)
	ok, err := s.repo.RemoveModerator(ctx, groupID, canon)
	if err == nil && ok {
		s.logAction(ctx, groupID, "demote", canon, moderator, "", nil)
	}
	return ok, err
}

// ---------- listas ----------

func (s *GroupService) AddBlacklistWord(ctx context.Context, groupID, word string) (bool, error) {
	return s.repo.AddBlacklistWord(ctx, groupID, word)
}
func (s *GroupService) RemoveBlacklistWord(ctx context.Context, groupID, word string) (bool, error) {
	return s.repo.RemoveBlacklistWord(ctx, groupID, word)
}
func (s *GroupService) AddWhitelistDomain(ctx context.Context, groupID, dom string) (bool, error) {
	return s.repo.AddWhitelistDomain(ctx, groupID, dom)
}
func (s *GroupService) RemoveWhitelistDomain(ctx context.Context, groupID, dom string) (bool, error) {
	return s.repo.RemoveWhitelistDomain(ctx, groupID, dom)
}

// ---------- log ----------

func (s *GroupService) ModLog(ctx context.Context, groupID string, limit int) ([]storage.ModLogEntry, error) {
	return s.modlog.ListRecent(ctx, groupID, limit)
}

// logAction es best-effort: si el store falla se loggea y la acción en
// memoria queda como está (no hay retry ni error al usuario).
func (s *GroupService) logAction(ctx context.Context, groupID, action, target, moderator, reason string, durSecs *int64) {
	err := s.modlog.Append(ctx, storage.ModLogEntry{
		GroupID:         groupID,
		Action:          action,
		Target:          target,
		Moderator:       s.ids.Normalize(moderator),
		Reason:          reason,
		DurationSeconds: durSecs,
	})
	if err != nil {
		log.Printf("modlog append %s/%s: %v", groupID, action, err)
	}
}
