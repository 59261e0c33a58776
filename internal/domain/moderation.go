package domain

// Acciones de moderación, tanto configurables como registradas en el log.
const (
	ActionWarn    = "warn"
	ActionMute    = "mute"
	ActionKick    = "kick"
	ActionBan     = "ban"
	ActionDelete  = "delete"
	ActionUnban   = "unban"
	ActionUnmute  = "unmute"
	ActionAutoBan = "autoban" // escalado por acumulación de warns
)

// Reglas del motor, en el orden en que se evalúan.
const (
	RuleAntiSpam    = "antispam"
	RuleWordFilter  = "wordfilter"
	RuleLinkControl = "linkcontrol"
)

// ValidSpamAction: acciones permitidas para anti-spam.
func ValidSpamAction(a string) bool {
	return a == ActionWarn || a == ActionMute || a == ActionKick
}

// ValidFilterAction: acciones permitidas para word-filter y link-control.
func ValidFilterAction(a string) bool {
	return a == ActionWarn || a == ActionDelete || a == ActionMute
}

// Tipos de entradas agendables.
const (
	KindSchedule = "schedule"
	KindReminder = "reminder"
	KindMeeting  = "meeting"
	KindDeadline = "deadline"
	KindEvent    = "event"
)

func ValidScheduleKind(k string) bool {
	switch k {
	case KindSchedule, KindReminder, KindMeeting, KindDeadline, KindEvent:
		return true
	}
	return false
}
