package storage

import "time"

// GroupState: configuración + estado de moderación de un grupo.
type GroupState struct {
	GroupID    string
	Name       string
	CreatedBy  string
	Admins     []string
	Moderators []string

	AntiSpam    AntiSpamConfig
	WordFilter  WordFilterConfig
	LinkControl LinkControlConfig

	// Umbral de warns y duración del ban automático al alcanzarlo.
	WarnLimit      int
	WarnBanMinutes int

	CreatedAt, UpdatedAt time.Time
}

type AntiSpamConfig struct {
	Enabled       bool
	MaxMessages   int
	WindowSeconds int
	Action        string // warn | mute | kick
	MuteMinutes   int    // duración del mute automático
}

type WordFilterConfig struct {
	Enabled   bool
	Blacklist []string
	Action    string // warn | delete | mute
}

type LinkControlConfig struct {
	Enabled   bool
	Whitelist []string
	Action    string // warn | delete | mute
}

type BanRecord struct {
	GroupID   string
	UserID    string
	Reason    string
	BannedBy  string
	BannedAt  time.Time
	ExpiresAt *time.Time // nil = permanente
}

type MuteRecord struct {
	GroupID   string
	UserID    string
	Reason    string
	MutedBy   string
	MutedAt   time.Time
	ExpiresAt *time.Time
}

type Warning struct {
	GroupID  string
	UserID   string
	Reason   string
	WarnedBy string
	WarnedAt time.Time
}

type ModLogEntry struct {
	ID              int64
	GroupID         string
	Action          string
	Target          string
	Moderator       string
	Reason          string
	DurationSeconds *int64
	CreatedAt       time.Time
}

type ScheduleEntry struct {
	ID        string
	GroupID   string
	Kind      string // schedule | reminder | meeting | deadline | event
	Title     string
	DueAt     time.Time
	Creator   string
	Status    string // active | completed
	Reminders []Reminder
	CreatedAt time.Time
}

type Reminder struct {
	FireAt time.Time
	Sent   bool
}

// Para updates parciales de la config del grupo (solo lo que venga seteado).
type GroupPolicyUpdate struct {
	Name *string

	AntiSpamEnabled       *bool
	AntiSpamMaxMessages   *int
	AntiSpamWindowSeconds *int
	AntiSpamAction        *string
	AntiSpamMuteMinutes   *int

	WordFilterEnabled *bool
	WordFilterAction  *string

	LinkControlEnabled *bool
	LinkControlAction  *string

	WarnLimit      *int
	WarnBanMinutes *int
}
