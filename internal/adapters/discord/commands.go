package discord

import "strings"

// buildCommands arma la tabla estática de dispatch. Nada dinámico: un mapa
// token -> comando, con alias plegados en minúscula.
func (r *Router) buildCommands() []*Command {
	return []*Command{
		{Name: "ping", Description: "latencia del bot", Handler: r.cmdPing},
		{Name: "help", Aliases: []string{"ayuda", "comandos"}, Description: "lista de comandos", Handler: r.cmdHelp},

		{Name: "groupinit", Aliases: []string{"init"}, Description: "inicializa el grupo en el bot", GroupOnly: true, Handler: r.cmdGroupInit},
		{Name: "groupinfo", Aliases: []string{"info"}, Description: "config y estado del grupo", GroupOnly: true, ModOnly: true, Handler: r.cmdGroupInfo},
		{Name: "resetgroup", Description: "borra todo el estado del grupo", GroupOnly: true, AdminOnly: true, Handler: r.cmdResetGroup},

		{Name: "antispam", Usage: "antispam on|off|set <max> <segundos> <warn|mute|kick>", Description: "config anti-spam", GroupOnly: true, AdminOnly: true, Handler: r.cmdAntiSpam},
		{Name: "wordfilter", Aliases: []string{"filtro"}, Usage: "wordfilter on|off|add <palabra>|remove <palabra>|list|action <warn|delete|mute>", Description: "filtro de palabras", GroupOnly: true, AdminOnly: true, Handler: r.cmdWordFilter},
		{Name: "linkcontrol", Aliases: []string{"links"}, Usage: "linkcontrol on|off|allow <dominio>|remove <dominio>|list|action <warn|delete|mute>", Description: "control de links", GroupOnly: true, AdminOnly: true, Handler: r.cmdLinkControl},

		{Name: "ban", Usage: "ban @usuario [duración] [razón]", Description: "banea (duración opcional: 30m/2h/1d)", GroupOnly: true, ModOnly: true, Handler: r.cmdBan},
		{Name: "unban", Usage: "unban @usuario", Description: "levanta un ban", GroupOnly: true, ModOnly: true, Handler: r.cmdUnban},
		{Name: "mute", Usage: "mute @usuario [duración] [razón]", Description: "mutea (sus mensajes se borran)", GroupOnly: true, ModOnly: true, Handler: r.cmdMute},
		{Name: "unmute", Usage: "unmute @usuario", Description: "levanta un mute", GroupOnly: true, ModOnly: true, Handler: r.cmdUnmute},
		{Name: "warn", Usage: "warn @usuario [razón]", Description: "advierte; al límite escala a ban temporal", GroupOnly: true, ModOnly: true, Handler: r.cmdWarn},
		{Name: "warnings", Aliases: []string{"warns"}, Usage: "warnings @usuario", Description: "advertencias acumuladas", GroupOnly: true, ModOnly: true, Handler: r.cmdWarnings},
		{Name: "clearwarns", Usage: "clearwarns @usuario", Description: "borra las advertencias", GroupOnly: true, ModOnly: true, Handler: r.cmdClearWarns},
		{Name: "kick", Usage: "kick @usuario [razón]", Description: "saca del grupo", GroupOnly: true, ModOnly: true, Handler: r.cmdKick},
		{Name: "promote", Usage: "promote @usuario", Description: "da rol de moderador", GroupOnly: true, AdminOnly: true, Handler: r.cmdPromote},
		{Name: "demote", Usage: "demote @usuario", Description: "quita rol de moderador", GroupOnly: true, AdminOnly: true, Handler: r.cmdDemote},
		{Name: "modlog", Usage: "modlog [n]", Description: "últimas acciones de moderación", GroupOnly: true, ModOnly: true, Handler: r.cmdModLog},

		{Name: "schedule", Aliases: []string{"agenda"}, Usage: "schedule <tipo> <fecha> <hh:mm> <título>", Description: "agenda un evento/reunión/deadline", GroupOnly: true, Handler: r.cmdSchedule},
		{Name: "schedules", Aliases: []string{"agendas"}, Description: "entradas activas del grupo", GroupOnly: true, Handler: r.cmdSchedules},
		{Name: "cancel", Usage: "cancel <id>", Description: "cancela una entrada agendada", GroupOnly: true, Handler: r.cmdCancel},
		{Name: "remind", Aliases: []string{"recordame"}, Usage: "remind <duración> <texto>", Description: "recordatorio one-shot (30m/2h/1d)", GroupOnly: true, Handler: r.cmdRemind},
	}
}

func buildTable(cmds []*Command) map[string]*Command {
	table := make(map[string]*Command, len(cmds)*2)
	for _, c := range cmds {
		table[strings.ToLower(c.Name)] = c
		for _, a := range c.Aliases {
			table[strings.ToLower(a)] = c
		}
	}
	return table
}
