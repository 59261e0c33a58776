package discord

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/groupguard-bot/internal/app/service"
	"github.com/jose-valero/groupguard-bot/internal/infra/identity"
)

type Router struct {
	s       *discordgo.Session
	prefix  string
	guildID string // opcional: limitar a un guild

	groups    *service.GroupService
	moder     *service.ModerationService
	sched     *service.ScheduleService
	transport *Transport
	ids       *identity.Normalizer

	limiter *cmdLimiter
	cmds    []*Command
	table   map[string]*Command
}

func NewRouter(
	s *discordgo.Session,
	prefix, guildID string,
	groups *service.GroupService,
	moder *service.ModerationService,
	sched *service.ScheduleService,
	transport *Transport,
	ids *identity.Normalizer,
) *Router {
	r := &Router{
		s:         s,
		prefix:    prefix,
		guildID:   guildID,
		groups:    groups,
		moder:     moder,
		sched:     sched,
		transport: transport,
		ids:       ids,
		limiter:   newCmdLimiter(1 * time.Second),
	}
	r.cmds = r.buildCommands()
	r.table = buildTable(r.cmds)
	return r
}

func (r *Router) Handlers() {
	r.s.AddHandler(r.handleMessage)
}

func (r *Router) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	if r.guildID != "" && m.GuildID != "" && m.GuildID != r.guildID {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("panic procesando mensaje de %s: %v", m.Author.ID, rec)
			reply(s, m, "❌ Ocurrió un error inesperado procesando el comando.")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	// en grupos, el motor de moderación corre antes que cualquier comando
	if m.GuildID != "" && !r.moderate(ctx, s, m) {
		return
	}

	if !strings.HasPrefix(m.Content, r.prefix) {
		return
	}
	fields := strings.Fields(strings.TrimPrefix(m.Content, r.prefix))
	if len(fields) == 0 {
		return
	}
	tok := strings.ToLower(fields[0])
	log.Printf("cmd: %s%s by=%s group=%s", r.prefix, tok, m.Author.ID, m.ChannelID)

	cmd, ok := r.table[tok]
	if !ok {
		reply(s, m, "❓ Comando no encontrado. Probá `"+r.prefix+"help`.")
		return
	}
	if !r.limiter.Allow(m.Author.ID) {
		reply(s, m, "⏳ Esperá un segundo…")
		return
	}

	c := &Ctx{
		Session: s,
		Msg:     m,
		GroupID: m.ChannelID,
		UserID:  m.Author.ID,
		Args:    fields[1:],
	}
	if !r.passGates(ctx, cmd, c) {
		return
	}
	if err := cmd.Handler(ctx, c); err != nil {
		log.Printf("cmd %s: %v", tok, err)
		reply(s, m, "❌ No se pudo completar la acción. Intentá de nuevo.")
	}
}

// moderate: bans/mutes pendientes + evaluación de políticas. Devuelve false
// si el mensaje fue eliminado (no se sigue al dispatch).
func (r *Router) moderate(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) bool {
	groupID := m.ChannelID
	uid := m.Author.ID

	// baneado que sigue adentro: mensaje afuera y remoción best-effort
	if banned, err := r.groups.IsBanned(ctx, groupID, uid); err == nil && banned {
		r.deleteMsg(ctx, m)
		if err := r.transport.RemoveParticipant(ctx, groupID, []string{uid}); err != nil {
			log.Printf("remove banned %s: %v", uid, err)
		}
		return false
	}

	// muteado: sus mensajes se borran hasta que expire
	if muted, err := r.groups.IsMuted(ctx, groupID, uid); err == nil && muted {
		r.deleteMsg(ctx, m)
		return false
	}

	verdict, err := r.moder.CheckMessage(ctx, groupID, uid, m.Content)
	if err != nil {
		log.Printf("moderation check %s/%s: %v", groupID, uid, err)
		return true
	}
	if !verdict.Delete {
		return true
	}

	r.deleteMsg(ctx, m)
	r.notifyVerdict(s, m, verdict)
	return false
}

func (r *Router) deleteMsg(ctx context.Context, m *discordgo.MessageCreate) {
	if err := r.transport.DeleteMessage(ctx, m.ChannelID, m.ID); err != nil {
		log.Printf("delete msg %s: %v", m.ID, err)
	}
}

func (r *Router) notifyVerdict(s *discordgo.Session, m *discordgo.MessageCreate, v service.Verdict) {
	for _, hit := range v.Hits {
		switch {
		case hit.Escalated:
			send(s, m.ChannelID, "🚫 <@"+m.Author.ID+"> alcanzó el límite de advertencias: ban temporal.")
		case hit.WarnCount > 0:
			send(s, m.ChannelID, "⚠️ <@"+m.Author.ID+"> advertencia ("+hit.Rule+").")
		}
	}
	if len(v.Hits) > 0 {
		log.Printf("moderation: delete msg=%s user=%s rule=%s", m.ID, m.Author.ID, v.Rule())
	}
}
