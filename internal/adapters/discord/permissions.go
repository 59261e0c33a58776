package discord

import "context"

// Gates de la tabla de comandos. Se evalúan en este orden antes de cualquier
// lógica de feature; si uno corta, el handler nunca corre.

func (r *Router) passGates(ctx context.Context, cmd *Command, c *Ctx) bool {
	if cmd.GroupOnly && !c.inGroup() {
		reply(c.Session, c.Msg, "⚠️ Este comando solo funciona dentro de un grupo.")
		return false
	}
	if cmd.AdminOnly && !r.groups.IsAdmin(ctx, c.GroupID, c.UserID) {
		reply(c.Session, c.Msg, "🔒 Solo admins pueden usar este comando.")
		return false
	}
	if cmd.ModOnly && !cmd.AdminOnly && !r.groups.IsModerator(ctx, c.GroupID, c.UserID) {
		reply(c.Session, c.Msg, "🔒 No tenés permisos para esta acción.")
		return false
	}
	return true
}

func (c *Ctx) inGroup() bool {
	return c.Msg.GuildID != ""
}
