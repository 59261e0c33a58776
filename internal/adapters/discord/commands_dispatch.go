// Handlers de los comandos de texto. Acá solo se parsea el input del usuario
// y se despacha a los servicios; las reglas viven en internal/app/service.
package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jose-valero/groupguard-bot/internal/app/service"
	"github.com/jose-valero/groupguard-bot/internal/domain"
	"github.com/jose-valero/groupguard-bot/internal/infra/storage"
)

func (r *Router) cmdPing(ctx context.Context, c *Ctx) error {
	reply(c.Session, c.Msg, "🏓 Pong!")
	return nil
}

func (r *Router) cmdHelp(ctx context.Context, c *Ctx) error {
	var b strings.Builder
	b.WriteString("📖 **Comandos**\n")
	for _, cmd := range r.cmds {
		b.WriteString("• `" + r.prefix + cmd.Name + "` — " + cmd.Description)
		if cmd.AdminOnly {
			b.WriteString(" _(admin)_")
		} else if cmd.ModOnly {
			b.WriteString(" _(mod)_")
		}
		b.WriteString("\n")
	}
	reply(c.Session, c.Msg, b.String())
	return nil
}

// ---------- registro del grupo ----------

func (r *Router) cmdGroupInit(ctx context.Context, c *Ctx) error {
	name := ""
	if md, err := r.transport.GroupMetadata(ctx, c.GroupID); err == nil {
		name = md.Subject
	}
	created, err := r.groups.Init(ctx, c.GroupID, name, c.UserID)
	if err != nil {
		return err
	}
	if !created {
		reply(c.Session, c.Msg, "ℹ️ El grupo ya estaba inicializado.")
		return nil
	}
	reply(c.Session, c.Msg, "✅ Grupo inicializado. Vos quedaste como admin; configurá con `"+r.prefix+"antispam`, `"+r.prefix+"wordfilter` y `"+r.prefix+"linkcontrol`.")
	return nil
}

func (r *Router) cmdGroupInfo(ctx context.Context, c *Ctx) error {
	g, err := r.groups.Get(ctx, c.GroupID)
	if errors.Is(err, storage.ErrNotFound) {
		reply(c.Session, c.Msg, "ℹ️ Grupo sin inicializar. Usá `"+r.prefix+"groupinit`.")
		return nil
	}
	if err != nil {
		return err
	}
	msg := fmt.Sprintf(
		"**Config de %s**\n"+
			"• anti-spam: **%s** (max %d en %ds → %s, mute %dm)\n"+
			"• word-filter: **%s** (→ %s) %s\n"+
			"• link-control: **%s** (→ %s) %s\n"+
			"• warns: límite **%d** → ban %dm\n"+
			"• admins: %d · moderadores: %d",
		orGroup(g.Name),
		onOff(g.AntiSpam.Enabled), g.AntiSpam.MaxMessages, g.AntiSpam.WindowSeconds, g.AntiSpam.Action, g.AntiSpam.MuteMinutes,
		onOff(g.WordFilter.Enabled), g.WordFilter.Action, fmtList(g.WordFilter.Blacklist),
		onOff(g.LinkControl.Enabled), g.LinkControl.Action, fmtList(g.LinkControl.Whitelist),
		g.WarnLimit, g.WarnBanMinutes,
		len(g.Admins), len(g.Moderators),
	)
	reply(c.Session, c.Msg, msg)
	return nil
}

func orGroup(name string) string {
	if name == "" {
		return "este grupo"
	}
	return name
}

func (r *Router) cmdResetGroup(ctx context.Context, c *Ctx) error {
	ok, err := r.groups.Reset(ctx, c.GroupID, c.UserID)
	if err != nil {
		return err
	}
	if !ok {
		reply(c.Session, c.Msg, "ℹ️ No había nada que resetear.")
		return nil
	}
	reply(c.Session, c.Msg, "🧹 Estado del grupo borrado. `"+r.prefix+"groupinit` para arrancar de nuevo.")
	return nil
}

// ---------- config de moderación ----------

func (r *Router) cmdAntiSpam(ctx context.Context, c *Ctx) error {
	if len(c.Args) == 0 {
		reply(c.Session, c.Msg, "Usá `"+r.prefix+"antispam on|off|set <max> <segundos> <warn|mute|kick> [minutosMute]`.")
		return nil
	}
	var patch storage.GroupPolicyUpdate
	switch strings.ToLower(c.Args[0]) {
	case "on":
		v := true
		patch.AntiSpamEnabled = &v
	case "off":
		v := false
		patch.AntiSpamEnabled = &v
	case "set":
		if len(c.Args) < 4 {
			reply(c.Session, c.Msg, "Usá `"+r.prefix+"antispam set <max> <segundos> <warn|mute|kick> [minutosMute]`.")
			return nil
		}
		max, err1 := strconv.Atoi(c.Args[1])
		win, err2 := strconv.Atoi(c.Args[2])
		action := strings.ToLower(c.Args[3])
		if err1 != nil || err2 != nil || max <= 0 || win <= 0 || !domain.ValidSpamAction(action) {
			reply(c.Session, c.Msg, "⚠️ Valores inválidos. Ej: `"+r.prefix+"antispam set 5 60 mute`.")
			return nil
		}
		on := true
		patch.AntiSpamEnabled = &on
		patch.AntiSpamMaxMessages = &max
		patch.AntiSpamWindowSeconds = &win
		patch.AntiSpamAction = &action
		if len(c.Args) >= 5 {
			if mins, err := strconv.Atoi(c.Args[4]); err == nil && mins > 0 {
				patch.AntiSpamMuteMinutes = &mins
			}
		}
	default:
		reply(c.Session, c.Msg, "❓ Subcomando desconocido: `"+c.Args[0]+"`.")
		return nil
	}
	return r.applyPolicy(ctx, c, patch, "anti-spam")
}

func (r *Router) cmdWordFilter(ctx context.Context, c *Ctx) error {
	return r.filterConfig(ctx, c, filterCfg{
		label:   "word-filter",
		cmd:     "wordfilter",
		addSub:  "add",
		addItem: r.groups.AddBlacklistWord,
		delItem: r.groups.RemoveBlacklistWord,
		list:    func(g storage.GroupState) []string { return g.WordFilter.Blacklist },
		enable:  func(p *storage.GroupPolicyUpdate, v bool) { p.WordFilterEnabled = &v },
		action:  func(p *storage.GroupPolicyUpdate, a string) { p.WordFilterAction = &a },
	})
}

func (r *Router) cmdLinkControl(ctx context.Context, c *Ctx) error {
	return r.filterConfig(ctx, c, filterCfg{
		label:   "link-control",
		cmd:     "linkcontrol",
		addSub:  "allow",
		addItem: r.groups.AddWhitelistDomain,
		delItem: r.groups.RemoveWhitelistDomain,
		list:    func(g storage.GroupState) []string { return g.LinkControl.Whitelist },
		enable:  func(p *storage.GroupPolicyUpdate, v bool) { p.LinkControlEnabled = &v },
		action:  func(p *storage.GroupPolicyUpdate, a string) { p.LinkControlAction = &a },
	})
}

// filterCfg: word-filter y link-control comparten la misma forma de config;
// cambia la lista sobre la que operan y el nombre del subcomando de alta.
type filterCfg struct {
	label   string
	cmd     string
	addSub  string
	addItem func(ctx context.Context, groupID, item string) (bool, error)
	delItem func(ctx context.Context, groupID, item string) (bool, error)
	list    func(g storage.GroupState) []string
	enable  func(p *storage.GroupPolicyUpdate, v bool)
	action  func(p *storage.GroupPolicyUpdate, a string)
}

func (r *Router) filterConfig(ctx context.Context, c *Ctx, cfg filterCfg) error {
	if len(c.Args) == 0 {
		reply(c.Session, c.Msg, "Usá `"+r.prefix+cfg.cmd+" on|off|"+cfg.addSub+" <item>|remove <item>|list|action <warn|delete|mute>`.")
		return nil
	}
	sub := strings.ToLower(c.Args[0])
	switch sub {
	case "on", "off":
		var patch storage.GroupPolicyUpdate
		cfg.enable(&patch, sub == "on")
		return r.applyPolicy(ctx, c, patch, cfg.label)

	case "action":
		if len(c.Args) < 2 || !domain.ValidFilterAction(strings.ToLower(c.Args[1])) {
			reply(c.Session, c.Msg, "⚠️ Acción inválida: warn, delete o mute.")
			return nil
		}
		var patch storage.GroupPolicyUpdate
		cfg.action(&patch, strings.ToLower(c.Args[1]))
		return r.applyPolicy(ctx, c, patch, cfg.label)

	case cfg.addSub, "remove":
		if len(c.Args) < 2 {
			reply(c.Session, c.Msg, "⚠️ Falta el item.")
			return nil
		}
		item := strings.ToLower(c.Args[1])
		op := cfg.addItem
		if sub == "remove" {
			op = cfg.delItem
		}
		ok, err := op(ctx, c.GroupID, item)
		if err != nil {
			return err
		}
		if !ok {
			reply(c.Session, c.Msg, "ℹ️ Sin cambios (¿ya estaba, o el grupo no está inicializado?).")
			return nil
		}
		reply(c.Session, c.Msg, "✅ Lista de "+cfg.label+" actualizada.")
		return nil

	case "list":
		g, err := r.groups.Get(ctx, c.GroupID)
		if errors.Is(err, storage.ErrNotFound) {
			reply(c.Session, c.Msg, "ℹ️ Grupo sin inicializar. Usá `"+r.prefix+"groupinit`.")
			return nil
		}
		if err != nil {
			return err
		}
		reply(c.Session, c.Msg, "📋 "+cfg.label+": "+fmtList(cfg.list(g)))
		return nil
	}
	reply(c.Session, c.Msg, "❓ Subcomando desconocido: `"+sub+"`.")
	return nil
}

func (r *Router) applyPolicy(ctx context.Context, c *Ctx, patch storage.GroupPolicyUpdate, label string) error {
	_, err := r.groups.UpdatePolicy(ctx, c.GroupID, patch)
	if errors.Is(err, storage.ErrNotFound) {
		reply(c.Session, c.Msg, "ℹ️ Grupo sin inicializar. Usá `"+r.prefix+"groupinit`.")
		return nil
	}
	if err != nil {
		return err
	}
	reply(c.Session, c.Msg, "✅ Config de "+label+" actualizada.")
	return nil
}

// ---------- acciones de moderación ----------

func (r *Router) cmdBan(ctx context.Context, c *Ctx) error {
	target, rest := parseTarget(c.Args)
	if target == "" {
		reply(c.Session, c.Msg, "Usá `"+r.prefix+"ban @usuario [duración] [razón]`.")
		return nil
	}
	d, rest := popSpan(rest)
	if err := r.groups.Ban(ctx, c.GroupID, target, c.UserID, reasonFrom(rest), d); err != nil {
		return err
	}
	// remoción best-effort; si falla, el ban igual queda registrado
	if err := r.transport.RemoveParticipant(ctx, c.GroupID, []string{target}); err != nil {
		reply(c.Session, c.Msg, "⚠️ Ban registrado pero no pude sacarlo del grupo: su próximo mensaje lo borra el bot.")
		return nil
	}
	reply(c.Session, c.Msg, "🔨 <@"+target+"> baneado"+spanSuffix(d)+".")
	return nil
}

func (r *Router) cmdUnban(ctx context.Context, c *Ctx) error {
	target, _ := parseTarget(c.Args)
	if target == "" {
		reply(c.Session, c.Msg, "Usá `"+r.prefix+"unban @usuario`.")
		return nil
	}
	ok, err := r.groups.Unban(ctx, c.GroupID, target, c.UserID)
	if err != nil {
		return err
	}
	if !ok {
		reply(c.Session, c.Msg, "ℹ️ Ese usuario no estaba baneado.")
		return nil
	}
	reply(c.Session, c.Msg, "✅ Ban levantado para <@"+target+">.")
	return nil
}

func (r *Router) cmdMute(ctx context.Context, c *Ctx) error {
	target, rest := parseTarget(c.Args)
	if target == "" {
		reply(c.Session, c.Msg, "Usá `"+r.prefix+"mute @usuario [duración] [razón]`.")
		return nil
	}
	d, rest := popSpan(rest)
	if err := r.groups.Mute(ctx, c.GroupID, target, c.UserID, reasonFrom(rest), d); err != nil {
		return err
	}
	reply(c.Session, c.Msg, "🔇 <@"+target+"> muteado"+spanSuffix(d)+".")
	return nil
}

func (r *Router) cmdUnmute(ctx context.Context, c *Ctx) error {
	target, _ := parseTarget(c.Args)
	if target == "" {
		reply(c.Session, c.Msg, "Usá `"+r.prefix+"unmute @usuario`.")
		return nil
	}
	ok, err := r.groups.Unmute(ctx, c.GroupID, target, c.UserID)
	if err != nil {
		return err
	}
	if !ok {
		reply(c.Session, c.Msg, "ℹ️ Ese usuario no estaba muteado.")
		return nil
	}
	reply(c.Session, c.Msg, "🔊 Mute levantado para <@"+target+">.")
	return nil
}

func (r *Router) cmdWarn(ctx context.Context, c *Ctx) error {
	target, rest := parseTarget(c.Args)
	if target == "" {
		reply(c.Session, c.Msg, "Usá `"+r.prefix+"warn @usuario [razón]`.")
		return nil
	}
	count, escalated, err := r.groups.Warn(ctx, c.GroupID, target, c.UserID, reasonFrom(rest))
	if errors.Is(err, storage.ErrNotFound) {
		reply(c.Session, c.Msg, "ℹ️ Grupo sin inicializar. Usá `"+r.prefix+"groupinit`.")
		return nil
	}
	if err != nil {
		return err
	}
	if escalated {
		reply(c.Session, c.Msg, fmt.Sprintf("🚫 <@%s> llegó a %d advertencias: ban temporal automático.", target, count))
		return nil
	}
	reply(c.Session, c.Msg, fmt.Sprintf("⚠️ <@%s> advertido (%d acumuladas).", target, count))
	return nil
}

func (r *Router) cmdWarnings(ctx context.Context, c *Ctx) error {
	target, _ := parseTarget(c.Args)
	if target == "" {
		reply(c.Session, c.Msg, "Usá `"+r.prefix+"warnings @usuario`.")
		return nil
	}
	warns, err := r.groups.Warnings(ctx, c.GroupID, target)
	if err != nil {
		return err
	}
	if len(warns) == 0 {
		reply(c.Session, c.Msg, "✅ <@"+target+"> no tiene advertencias.")
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ <@%s>: %d advertencias\n", target, len(warns))
	for i, w := range warns {
		fmt.Fprintf(&b, "%d) %s — <t:%d:R>\n", i+1, orDash(w.Reason), w.WarnedAt.Unix())
	}
	reply(c.Session, c.Msg, b.String())
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "(sin razón)"
	}
	return s
}

func (r *Router) cmdClearWarns(ctx context.Context, c *Ctx) error {
	target, _ := parseTarget(c.Args)
	if target == "" {
		reply(c.Session, c.Msg, "Usá `"+r.prefix+"clearwarns @usuario`.")
		return nil
	}
	n, err := r.groups.ClearWarnings(ctx, c.GroupID, target, c.UserID)
	if err != nil {
		return err
	}
	reply(c.Session, c.Msg, fmt.Sprintf("🧹 %d advertencias borradas para <@%s>.", n, target))
	return nil
}

func (r *Router) cmdKick(ctx context.Context, c *Ctx) error {
	defer step("cmd.kick")()
	target, rest := parseTarget(c.Args)
	if target == "" {
		reply(c.Session, c.Msg, "Usá `"+r.prefix+"kick @usuario [razón]`.")
		return nil
	}
	r.groups.LogKick(ctx, c.GroupID, target, c.UserID, reasonFrom(rest))
	if err := r.transport.RemoveParticipant(ctx, c.GroupID, []string{target}); err != nil {
		return err
	}
	reply(c.Session, c.Msg, "👢 <@"+target+"> fuera del grupo.")
	return nil
}

func (r *Router) cmdPromote(ctx context.Context, c *Ctx) error {
	target, _ := parseTarget(c.Args)
	if target == "" {
		reply(c.Session, c.Msg, "Usá `"+r.prefix+"promote @usuario`.")
		return nil
	}
	ok, err := r.groups.Promote(ctx, c.GroupID, target, c.UserID)
	if err != nil {
		return err
	}
	if !ok {
		reply(c.Session, c.Msg, "ℹ️ Ya era moderador (o el grupo no está inicializado).")
		return nil
	}
	reply(c.Session, c.Msg, "⭐ <@"+target+"> ahora es moderador.")
	return nil
}

func (r *Router) cmdDemote(ctx context.Context, c *Ctx) error {
	target, _ := parseTarget(c.Args)
	if target == "" {
		reply(c.Session, c.Msg, "Usá `"+r.prefix+"demote @usuario`.")
		return nil
	}
	ok, err := r.groups.Demote(ctx, c.GroupID, target, c.UserID)
	if err != nil {
		return err
	}
	if !ok {
		reply(c.Session, c.Msg, "ℹ️ No era moderador.")
		return nil
	}
	reply(c.Session, c.Msg, "✅ <@"+target+"> ya no es moderador.")
	return nil
}

func (r *Router) cmdModLog(ctx context.Context, c *Ctx) error {
	limit := 10
	if len(c.Args) > 0 {
		if n, err := strconv.Atoi(c.Args[0]); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}
	entries, err := r.groups.ModLog(ctx, c.GroupID, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		reply(c.Session, c.Msg, "ℹ️ Sin acciones registradas.")
		return nil
	}
	var b strings.Builder
	b.WriteString("📜 **Moderación reciente**\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "• `%s` %s → %s por %s <t:%d:R>\n", e.Action, orDash(e.Reason), mentionOr(e.Target), mentionOr(e.Moderator), e.CreatedAt.Unix())
	}
	reply(c.Session, c.Msg, b.String())
	return nil
}

func mentionOr(id string) string {
	if id == "" || id == "bot" {
		return "bot"
	}
	return "<@" + id + ">"
}

// ---------- agenda ----------

// Pre-avisos por defecto para todo lo agendado con fecha: un día y una hora
// antes (los que caigan en el pasado se descartan solos).
var defaultReminderOffsets = []time.Duration{24 * time.Hour, time.Hour}

func (r *Router) cmdSchedule(ctx context.Context, c *Ctx) error {
	if len(c.Args) < 4 {
		reply(c.Session, c.Msg, "Usá `"+r.prefix+"schedule <schedule|meeting|deadline|event> <hoy|mañana|YYYY-MM-DD|DD/MM/YYYY> <hh:mm> <título>`.")
		return nil
	}
	kind := strings.ToLower(c.Args[0])
	if !domain.ValidScheduleKind(kind) {
		reply(c.Session, c.Msg, "⚠️ Tipo inválido: schedule, reminder, meeting, deadline o event.")
		return nil
	}
	dueAt, ok := service.ParseWhen(c.Args[1], c.Args[2], time.Now())
	if !ok {
		reply(c.Session, c.Msg, "⚠️ Fecha/hora inválida o en el pasado.")
		return nil
	}
	title := strings.Join(c.Args[3:], " ")
	e, err := r.sched.Create(ctx, c.GroupID, c.UserID, kind, title, dueAt, defaultReminderOffsets)
	if errors.Is(err, service.ErrValidation) {
		reply(c.Session, c.Msg, "⚠️ "+err.Error())
		return nil
	}
	if err != nil {
		return err
	}
	reply(c.Session, c.Msg, fmt.Sprintf("📅 Agendado **%s** para <t:%d:F> (id `%s`).", e.Title, e.DueAt.Unix(), shortID(e.ID)))
	return nil
}

func (r *Router) cmdSchedules(ctx context.Context, c *Ctx) error {
	entries, err := r.sched.ListGroup(ctx, c.GroupID, 25)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		reply(c.Session, c.Msg, "ℹ️ No hay nada agendado.")
		return nil
	}
	var b strings.Builder
	b.WriteString("🗓 **Agenda del grupo**\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "• `%s` [%s] **%s** — <t:%d:R> (por <@%s>)\n", shortID(e.ID), e.Kind, e.Title, e.DueAt.Unix(), e.Creator)
	}
	reply(c.Session, c.Msg, b.String())
	return nil
}

func (r *Router) cmdCancel(ctx context.Context, c *Ctx) error {
	if len(c.Args) == 0 {
		reply(c.Session, c.Msg, "Usá `"+r.prefix+"cancel <id>` (el id corto de `"+r.prefix+"schedules`).")
		return nil
	}
	e, err := r.findSchedule(ctx, c.GroupID, c.Args[0])
	if errors.Is(err, storage.ErrNotFound) {
		reply(c.Session, c.Msg, "❓ No encontré esa entrada.")
		return nil
	}
	if err != nil {
		return err
	}
	// puede cancelar el creador o un admin
	if !r.ids.Same(e.Creator, c.UserID) && !r.groups.IsAdmin(ctx, c.GroupID, c.UserID) {
		reply(c.Session, c.Msg, "🔒 Solo el creador o un admin pueden cancelar.")
		return nil
	}
	ok, err := r.sched.Cancel(ctx, e.ID)
	if err != nil {
		return err
	}
	if !ok {
		reply(c.Session, c.Msg, "ℹ️ Ya estaba completada o cancelada.")
		return nil
	}
	reply(c.Session, c.Msg, "🗑 **"+e.Title+"** cancelada.")
	return nil
}

func (r *Router) findSchedule(ctx context.Context, groupID, token string) (storage.ScheduleEntry, error) {
	if len(token) >= 32 {
		return r.sched.Get(ctx, token)
	}
	entries, err := r.sched.ListGroup(ctx, groupID, 100)
	if err != nil {
		return storage.ScheduleEntry{}, err
	}
	for _, e := range entries {
		if strings.HasPrefix(e.ID, strings.ToLower(token)) {
			return e, nil
		}
	}
	return storage.ScheduleEntry{}, storage.ErrNotFound
}

func (r *Router) cmdRemind(ctx context.Context, c *Ctx) error {
	if len(c.Args) < 2 {
		reply(c.Session, c.Msg, "Usá `"+r.prefix+"remind <duración> <texto>` (ej: `"+r.prefix+"remind 30m sacar el pan`).")
		return nil
	}
	d, ok := service.ParseSpan(c.Args[0])
	if !ok {
		reply(c.Session, c.Msg, "⚠️ Duración inválida: probá 30m, 2h o 1d.")
		return nil
	}
	text := strings.Join(c.Args[1:], " ")
	e, err := r.sched.Create(ctx, c.GroupID, c.UserID, domain.KindReminder, text, time.Now().Add(d), nil)
	if err != nil {
		return err
	}
	reply(c.Session, c.Msg, fmt.Sprintf("⏰ Listo, te aviso <t:%d:R> (id `%s`).", e.DueAt.Unix(), shortID(e.ID)))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func spanSuffix(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return " por " + d.String()
}
