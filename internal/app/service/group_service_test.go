package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jose-valero/groupguard-bot/internal/infra/identity"
	"github.com/jose-valero/groupguard-bot/internal/infra/storage"
)

func newGroupSvc(t *testing.T, globalAdmins ...string) (*GroupService, *fakeGroupRepo, *fakeModLog, *time.Time) {
	t.Helper()
	repo := newFakeGroupRepo()
	modlog := &fakeModLog{}
	svc := NewGroupService(repo, modlog, identity.New(nil), globalAdmins)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cur := &now
	svc.now = func() time.Time { return *cur }
	return svc, repo, modlog, cur
}

func TestInitIdempotente(t *testing.T) {
	svc, repo, _, _ := newGroupSvc(t)
	ctx := context.Background()

	created, err := svc.Init(ctx, "g1", "los pibes", "111")
	if err != nil || !created {
		t.Fatalf("Init: created=%v err=%v", created, err)
	}
	created, err = svc.Init(ctx, "g1", "los pibes", "222")
	if err != nil || created {
		t.Fatalf("segundo Init: created=%v err=%v", created, err)
	}

	g, err := repo.Get(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Admins) != 1 || g.Admins[0] != "111" {
		t.Fatalf("el creador debía quedar como único admin, admins=%v", g.Admins)
	}
}

func TestBanConExpiryPerezoso(t *testing.T) {
	svc, repo, _, cur := newGroupSvc(t)
	ctx := context.Background()
	svc.Init(ctx, "g1", "", "admin")

	if err := svc.Ban(ctx, "g1", "555", "admin", "spam", time.Hour); err != nil {
		t.Fatal(err)
	}
	if banned, _ := svc.IsBanned(ctx, "g1", "555"); !banned {
		t.Fatal("debía estar baneado dentro de la hora")
	}

	*cur = cur.Add(2 * time.Hour)
	if banned, _ := svc.IsBanned(ctx, "g1", "555"); banned {
		t.Fatal("el ban vencido debía contar como ausente")
	}
	// el registro vencido se borró en el check
	if _, err := repo.GetBan(ctx, "g1", "555"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("esperaba ErrNotFound tras el expiry, err=%v", err)
	}
	// segundo check sobre lo mismo: no-op
	if banned, _ := svc.IsBanned(ctx, "g1", "555"); banned {
		t.Fatal("segundo check no debía revivir el ban")
	}
}

func TestBanPermanente(t *testing.T) {
	svc, _, _, cur := newGroupSvc(t)
	ctx := context.Background()
	svc.Init(ctx, "g1", "", "admin")

	if err := svc.Ban(ctx, "g1", "555", "admin", "", 0); err != nil {
		t.Fatal(err)
	}
	*cur = cur.Add(365 * 24 * time.Hour)
	if banned, _ := svc.IsBanned(ctx, "g1", "555"); !banned {
		t.Fatal("un ban sin duración no vence nunca")
	}
}

func TestWarnEscalaAlLimite(t *testing.T) {
	svc, _, modlog, _ := newGroupSvc(t)
	ctx := context.Background()
	svc.Init(ctx, "g1", "", "admin") // WarnLimit default = 3

	for i := 1; i <= 2; i++ {
		count, escalated, err := svc.Warn(ctx, "g1", "555", "admin", "flood")
		if err != nil {
			t.Fatal(err)
		}
		if count != i || escalated {
			t.Fatalf("warn %d: count=%d escalated=%v", i, count, escalated)
		}
	}

	count, escalated, err := svc.Warn(ctx, "g1", "555", "admin", "flood")
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 || !escalated {
		t.Fatalf("el tercer warn debía escalar: count=%d escalated=%v", count, escalated)
	}

	// escalado: ban temporal activo y warns en cero
	if banned, _ := svc.IsBanned(ctx, "g1", "555"); !banned {
		t.Fatal("el escalado debía dejar un ban activo")
	}
	warns, _ := svc.Warnings(ctx, "g1", "555")
	if len(warns) != 0 {
		t.Fatalf("los warns debían quedar en cero, hay %d", len(warns))
	}

	var sawAutoBan bool
	for _, a := range modlog.actions("g1") {
		if a == "autoban" {
			sawAutoBan = true
		}
	}
	if !sawAutoBan {
		t.Fatal("el escalado debía quedar en el modlog como autoban")
	}
}

func TestIdentidadNormalizada(t *testing.T) {
	svc, _, _, _ := newGroupSvc(t)
	ctx := context.Background()
	svc.Init(ctx, "g1", "", "admin")

	// banear con id crudo del transporte, chequear con otra forma del mismo
	if err := svc.Ban(ctx, "g1", "549115551234@s.whatsapp.net:12", "admin", "", 0); err != nil {
		t.Fatal(err)
	}
	if banned, _ := svc.IsBanned(ctx, "g1", "+549115551234"); !banned {
		t.Fatal("dos formas del mismo id debían comparar igual")
	}
}

func TestAdminsGlobales(t *testing.T) {
	svc, _, _, _ := newGroupSvc(t, "900")
	ctx := context.Background()

	// admin global: no hace falta que el grupo exista siquiera
	if !svc.IsAdmin(ctx, "g-inexistente", "900") {
		t.Fatal("900 debía ser admin global")
	}

	// reload explícito reemplaza la lista completa
	svc.SetGlobalAdmins([]string{"901"})
	if svc.IsAdmin(ctx, "g-inexistente", "900") {
		t.Fatal("900 debía perder el admin tras el reload")
	}
	if !svc.IsAdmin(ctx, "g-inexistente", "901") {
		t.Fatal("901 debía ganarlo")
	}
}

func TestMuteYUnmute(t *testing.T) {
	svc, _, _, cur := newGroupSvc(t)
	ctx := context.Background()
	svc.Init(ctx, "g1", "", "admin")

	if err := svc.Mute(ctx, "g1", "555", "admin", "", 10*time.Minute); err != nil {
		t.Fatal(err)
	}
	if muted, _ := svc.IsMuted(ctx, "g1", "555"); !muted {
		t.Fatal("debía estar muteado")
	}
	if ok, _ := svc.Unmute(ctx, "g1", "555", "admin"); !ok {
		t.Fatal("unmute debía encontrar el registro")
	}
	if ok, _ := svc.Unmute(ctx, "g1", "555", "admin"); ok {
		t.Fatal("segundo unmute debía ser no-op")
	}

	// mute vencido
	if err := svc.Mute(ctx, "g1", "666", "admin", "", 10*time.Minute); err != nil {
		t.Fatal(err)
	}
	*cur = cur.Add(11 * time.Minute)
	if muted, _ := svc.IsMuted(ctx, "g1", "666"); muted {
		t.Fatal("el mute vencido debía contar como ausente")
	}
}

func TestResetBorraElEstado(t *testing.T) {
	svc, repo, _, _ := newGroupSvc(t)
	ctx := context.Background()
	svc.Init(ctx, "g1", "", "admin")

	ok, err := svc.Reset(ctx, "g1", "admin")
	if err != nil || !ok {
		t.Fatalf("Reset: ok=%v err=%v", ok, err)
	}
	if _, err := repo.Get(ctx, "g1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("el grupo debía desaparecer, err=%v", err)
	}
	if ok, _ := svc.Reset(ctx, "g1", "admin"); ok {
		t.Fatal("segundo Reset debía ser no-op")
	}
}
