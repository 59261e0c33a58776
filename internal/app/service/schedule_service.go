package service

import (
	"container/heap"
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jose-valero/groupguard-bot/internal/infra/storage"
)

// pendingFire: un disparo futuro en memoria. reminderAt == nil es el disparo
// principal (due); si no, es un pre-aviso.
type pendingFire struct {
	at         time.Time
	entryID    string
	groupID    string
	creator    string
	kind       string
	title      string
	dueAt      time.Time
	reminderAt *time.Time
}

type fireHeap []pendingFire

func (h fireHeap) Len() int           { return len(h) }
func (h fireHeap) Less(i, j int) bool { return h[i].at.Before(h[j].at) }
func (h fireHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *fireHeap) Push(x any)        { *h = append(*h, x.(pendingFire)) }
func (h *fireHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// ScheduleService dispara notificaciones a la hora agendada y en cada
// pre-aviso. Los timers no se persisten: solo los due-times; al arrancar,
// Recover relee lo activo con due futuro y re-registra (lo vencido durante
// el downtime no se dispara nunca retroactivamente).
type ScheduleService struct {
	repo      ScheduleRepo
	transport Transport
	now       func() time.Time

	mu      sync.Mutex
	pending fireHeap
	wake    chan struct{}
}

func NewScheduleService(repo ScheduleRepo, transport Transport) *ScheduleService {
	return &ScheduleService{
		repo:      repo,
		transport: transport,
		now:       time.Now,
		wake:      make(chan struct{}, 1),
	}
}

// Create valida, persiste y registra los timers de una entrada nueva.
// reminderOffsets son cuánto antes del due sale cada pre-aviso; los que
// caigan en el pasado se descartan en silencio.
func (s *ScheduleService) Create(ctx context.Context, groupID, creator, kind, title string, dueAt time.Time, reminderOffsets []time.Duration) (storage.ScheduleEntry, error) {
	if title == "" {
		return storage.ScheduleEntry{}, fmt.Errorf("%w: falta el título", ErrValidation)
	}
	if !dueAt.After(s.now()) {
		return storage.ScheduleEntry{}, fmt.Errorf("%w: la fecha ya pasó", ErrValidation)
	}

	e := storage.ScheduleEntry{
		ID:      uuid.NewString(),
		GroupID: groupID,
		Kind:    kind,
		Title:   title,
		DueAt:   dueAt,
		Creator: creator,
		Status:  "active",
	}
	for _, off := range reminderOffsets {
		if off <= 0 {
			continue
		}
		fireAt := dueAt.Add(-off)
		if fireAt.After(s.now()) {
			e.Reminders = append(e.Reminders, storage.Reminder{FireAt: fireAt})
		}
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return storage.ScheduleEntry{}, err
	}
	s.enqueue(e)
	return e, nil
}

func (s *ScheduleService) Get(ctx context.Context, id string) (storage.ScheduleEntry, error) {
	return s.repo.Get(ctx, id)
}

func (s *ScheduleService) ListGroup(ctx context.Context, groupID string, limit int) ([]storage.ScheduleEntry, error) {
	return s.repo.ListActiveByGroup(ctx, groupID, limit)
}

// Cancel: active -> completed; idempotente si ya disparó o ya estaba
// cancelada. Los fires encolados quedan; el chequeo de estado al disparar
// garantiza que no sale ninguna notificación.
func (s *ScheduleService) Cancel(ctx context.Context, id string) (bool, error) {
	return s.repo.Complete(ctx, id)
}

// Recover re-registra todo lo activo con due futuro. Llamar una vez al boot,
// antes de Run.
func (s *ScheduleService) Recover(ctx context.Context) (int, error) {
	entries, err := s.repo.ListActiveFuture(ctx)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		s.enqueue(e)
	}
	return len(entries), nil
}

// enqueue registra los fires futuros de la entrada; pre-avisos pasados o ya
// enviados se saltean en silencio.
func (s *ScheduleService) enqueue(e storage.ScheduleEntry) {
	now := s.now()

	s.mu.Lock()
	for _, rem := range e.Reminders {
		if rem.Sent || !rem.FireAt.After(now) {
			continue
		}
		at := rem.FireAt
		heap.Push(&s.pending, pendingFire{
			at: at, entryID: e.ID, groupID: e.GroupID, creator: e.Creator,
			kind: e.Kind, title: e.Title, dueAt: e.DueAt, reminderAt: &at,
		})
	}
	if e.DueAt.After(now) {
		heap.Push(&s.pending, pendingFire{
			at: e.DueAt, entryID: e.ID, groupID: e.GroupID, creator: e.Creator,
			kind: e.Kind, title: e.Title, dueAt: e.DueAt,
		})
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run es el loop del runner: un solo timer contra el tope del heap.
func (s *ScheduleService) Run(ctx context.Context) {
	for {
		s.mu.Lock()
		wait := time.Hour
		if s.pending.Len() > 0 {
			wait = time.Until(s.pending[0].at)
		}
		s.mu.Unlock()

		if wait <= 0 {
			s.fireDue(ctx)
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		case <-time.After(wait):
		}
	}
}

func (s *ScheduleService) fireDue(ctx context.Context) {
	now := s.now()
	for {
		s.mu.Lock()
		if s.pending.Len() == 0 || s.pending[0].at.After(now) {
			s.mu.Unlock()
			return
		}
		f := heap.Pop(&s.pending).(pendingFire)
		s.mu.Unlock()
		s.fire(ctx, f)
	}
}

// fire: chequea el estado persistido antes de notificar (un cancel que llegó
// justo gana: como máximo un efecto visible). Enviar y persistir no son
// atómicos; un crash en el medio puede duplicar la notificación en el próximo
// recover, trade-off aceptado.
func (s *ScheduleService) fire(ctx context.Context, f pendingFire) {
	active, err := s.repo.IsActive(ctx, f.entryID)
	if err != nil {
		log.Printf("scheduler: status %s: %v", f.entryID, err)
		return
	}
	if !active {
		return
	}

	var msg string
	if f.reminderAt != nil {
		msg = fmt.Sprintf("⏰ Recordatorio: **%s** (%s) vence <t:%d:R> — <@%s>",
			f.title, f.kind, f.dueAt.Unix(), f.creator)
	} else {
		msg = fmt.Sprintf("📅 **%s** (%s) — ¡es ahora! <@%s>", f.title, f.kind, f.creator)
	}
	if err := s.transport.SendMessage(ctx, f.groupID, msg); err != nil {
		log.Printf("scheduler: send %s: %v", f.entryID, err)
	}

	if f.reminderAt != nil {
		if err := s.repo.MarkReminderSent(ctx, f.entryID, *f.reminderAt); err != nil {
			log.Printf("scheduler: mark sent %s: %v", f.entryID, err)
		}
		return
	}
	if _, err := s.repo.Complete(ctx, f.entryID); err != nil {
		log.Printf("scheduler: complete %s: %v", f.entryID, err)
	}
}
